package shopify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkthreads/stocksync/pkg/errors"
)

// testPolicy returns a policy that records sleeps instead of sleeping.
func testPolicy(slept *[]time.Duration) *Policy {
	p := DefaultPolicy()
	p.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return p
}

func TestPolicySuccess(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), "find", ClassRead, func(context.Context) attempt {
		calls++
		return attempt{StatusCode: 200}
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, slept)
}

func TestPolicyRateLimitExhaustion(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), "create", ClassWrite, func(context.Context) attempt {
		calls++
		return attempt{StatusCode: 429}
	})

	require.Error(t, err)
	assert.True(t, errors.IsRateLimitExhausted(err))
	assert.Equal(t, p.MaxRateLimitAttempts, calls, "must terminate at the attempt ceiling")
	assert.Len(t, slept, p.MaxRateLimitAttempts-1)
	for _, d := range slept {
		assert.Equal(t, p.RetryAfterDefault, d)
	}
}

func TestPolicyHonorsRetryAfter(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), "find", ClassRead, func(context.Context) attempt {
		calls++
		if calls == 1 {
			return attempt{StatusCode: 429, RetryAfter: 7 * time.Second}
		}
		return attempt{StatusCode: 200}
	})

	require.NoError(t, err)
	require.Len(t, slept, 1)
	assert.Equal(t, 7*time.Second, slept[0])
}

func TestPolicyTransientExhaustion(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), "bulk_adjust", ClassBulk, func(context.Context) attempt {
		calls++
		return attempt{StatusCode: 503}
	})

	require.Error(t, err)
	assert.True(t, errors.IsRemoteUnavailable(err))
	assert.Equal(t, p.MaxTransientAttempts, calls)
	for _, d := range slept {
		assert.Equal(t, ClassBulk.cooldown(), d)
	}
}

func TestPolicyNetworkFaultIsTransient(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	err := p.Do(context.Background(), "find", ClassRead, func(context.Context) attempt {
		return attempt{Err: errors.New("connection reset")}
	})

	require.Error(t, err)
	assert.True(t, errors.IsRemoteUnavailable(err))
}

func TestPolicyPermanentRejection(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), "create", ClassWrite, func(context.Context) attempt {
		calls++
		return attempt{StatusCode: 422, Err: errors.New("variant missing option")}
	})

	require.Error(t, err)
	assert.True(t, errors.IsRemoteRejected(err))
	assert.Equal(t, 1, calls, "4xx other than 429 must not be retried")
	assert.Empty(t, slept)
	assert.Contains(t, err.Error(), "variant missing option")
}

func TestPolicyRecoversAfterTransient(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), "update", ClassWrite, func(context.Context) attempt {
		calls++
		if calls < 2 {
			return attempt{StatusCode: 500}
		}
		return attempt{StatusCode: 200}
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, slept, 1)
	assert.Equal(t, ClassWrite.cooldown(), slept[0])
}

func TestPolicyCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := DefaultPolicy()
	err := p.Do(ctx, "find", ClassRead, func(context.Context) attempt {
		t.Fatal("fn must not run on a canceled context")
		return attempt{}
	})

	assert.ErrorIs(t, err, errors.ErrCanceled)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 4*time.Second, parseRetryAfter("4"))
	assert.Equal(t, 2500*time.Millisecond, parseRetryAfter("2.5"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("soon"))
	assert.Zero(t, parseRetryAfter("-1"))
}
