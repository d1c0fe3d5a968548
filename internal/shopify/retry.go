package shopify

import (
	"context"
	"time"

	"github.com/bulkthreads/stocksync/pkg/constants"
	"github.com/bulkthreads/stocksync/pkg/errors"
	"github.com/bulkthreads/stocksync/pkg/logging"
)

// CallClass categorizes remote calls for cooldown scaling: failed bulk calls
// back off far longer than failed reads.
type CallClass int

// Call classes in increasing cooldown order.
const (
	ClassRead CallClass = iota
	ClassWrite
	ClassBulk
)

// cooldown returns the transient-fault sleep for a call class.
func (c CallClass) cooldown() time.Duration {
	switch c {
	case ClassWrite:
		return constants.WriteCooldown
	case ClassBulk:
		return constants.BulkCooldown
	default:
		return constants.ReadCooldown
	}
}

// attempt is the outcome of one remote call attempt. A zero StatusCode with
// a non-nil Err marks a transport-level fault (timeout, reset, DNS).
type attempt struct {
	StatusCode int
	RetryAfter time.Duration // parsed Retry-After, zero when absent
	Err        error
}

// Policy is the centralized retry policy. On 429 it sleeps for the
// server-specified interval (default constants.DefaultRetryAfter) and
// retries up to MaxRateLimitAttempts, then fails with ErrRateLimitExhausted.
// On 5xx and transport faults it sleeps the class cooldown and retries up to
// MaxTransientAttempts, then fails with ErrRemoteUnavailable. Any other 4xx
// fails immediately with ErrRemoteRejected: those indicate a malformed
// request, which is a bug, not a transient fault.
type Policy struct {
	RetryAfterDefault    time.Duration
	MaxRateLimitAttempts int
	MaxTransientAttempts int

	// sleep is injectable for tests; nil means context-aware time.Sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the policy with the standard limits.
func DefaultPolicy() *Policy {
	return &Policy{
		RetryAfterDefault:    constants.DefaultRetryAfter,
		MaxRateLimitAttempts: constants.MaxRateLimitAttempts,
		MaxTransientAttempts: constants.MaxTransientAttempts,
	}
}

// Do runs fn under the retry policy. fn is the single remote call attempt;
// the policy owns all sleeping and attempt accounting.
func (p *Policy) Do(ctx context.Context, operation string, class CallClass, fn func(ctx context.Context) attempt) error {
	log := logging.FromContext(ctx)

	rateLimited := 0
	transient := 0
	for {
		if err := ctx.Err(); err != nil {
			return errors.ErrCanceled
		}

		a := fn(ctx)

		switch {
		case a.StatusCode >= 200 && a.StatusCode < 300:
			return nil

		case a.StatusCode == 429:
			rateLimited++
			if rateLimited >= p.MaxRateLimitAttempts {
				return &errors.APIError{
					Operation:  operation,
					StatusCode: 429,
					Message:    "attempt ceiling reached",
					Err:        errors.ErrRateLimitExhausted,
				}
			}
			wait := a.RetryAfter
			if wait <= 0 {
				wait = p.RetryAfterDefault
			}
			log.Warn().
				Str("operation", operation).
				Dur("retry_after", wait).
				Int("attempt", rateLimited).
				Msg("Remote call limit exceeded, backing off")
			if err := p.doSleep(ctx, wait); err != nil {
				return err
			}

		case a.StatusCode >= 500 || a.StatusCode == 0:
			transient++
			if transient >= p.MaxTransientAttempts {
				return &errors.APIError{
					Operation:  operation,
					StatusCode: a.StatusCode,
					Message:    "transient attempt ceiling reached",
					Err:        errors.ErrRemoteUnavailable,
				}
			}
			wait := class.cooldown()
			log.Warn().
				Str("operation", operation).
				Int("status", a.StatusCode).
				Dur("cooldown", wait).
				Err(a.Err).
				Msg("Remote unavailable, cooling down")
			if err := p.doSleep(ctx, wait); err != nil {
				return err
			}

		default:
			// Permanent rejection. Keep the remote's message.
			message := "request rejected"
			if a.Err != nil {
				message = a.Err.Error()
			}
			return &errors.APIError{
				Operation:  operation,
				StatusCode: a.StatusCode,
				Message:    message,
				Err:        errors.ErrRemoteRejected,
			}
		}
	}
}

// doSleep waits for d or until the context is canceled.
func (p *Policy) doSleep(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errors.ErrCanceled
	case <-timer.C:
		return nil
	}
}
