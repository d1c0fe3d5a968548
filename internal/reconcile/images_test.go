package reconcile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageResolverCachesFetchesAndAttachments(t *testing.T) {
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla", "CDN requires a browser user agent")
		_, _ = w.Write([]byte("image-bytes-for-" + strings.TrimPrefix(r.URL.Path, "/")))
	}))
	defer srv.Close()

	client := newFakeClient()
	r := NewImageResolver()
	r.URLFor = func(filename string) string { return srv.URL + "/" + filename }

	id1, err := r.Attach(context.Background(), client, 1, "3001_black.jpg")
	require.NoError(t, err)
	assert.NotZero(t, id1)

	// Same file on the same product: served from the attachment cache.
	id2, err := r.Attach(context.Background(), client, 1, "3001_black.jpg")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, client.attachCalls)

	// Same file on another product: one more upload, no second download.
	id3, err := r.Attach(context.Background(), client, 2, "3001_black.jpg")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
	assert.Equal(t, 2, client.attachCalls)
	assert.Equal(t, 1, fetches, "image bytes are fetched once per filename per run")
}

func TestImageResolverErrors(t *testing.T) {
	client := newFakeClient()

	r := NewImageResolver()
	_, err := r.Attach(context.Background(), client, 1, "missing.jpg")
	require.Error(t, err, "no URL resolver configured")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r = NewImageResolver()
	r.URLFor = func(filename string) string { return srv.URL + "/" + filename }
	_, err = r.Attach(context.Background(), client, 1, "missing.jpg")
	require.Error(t, err)
	assert.Zero(t, client.attachCalls, "failed fetches never reach the remote")
}
