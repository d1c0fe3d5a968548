package reconcile

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/bulkthreads/stocksync/internal/shopify"
	"github.com/bulkthreads/stocksync/pkg/constants"
	"github.com/bulkthreads/stocksync/pkg/errors"
)

// userAgent is sent on image fetches; the supplier's CDN rejects the default
// Go client string.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/71.0.3578.98 Safari/537.36"

// ImageResolver downloads product images keyed by their deterministic
// filename and caches them for the lifetime of one run. Attachments are
// additionally cached per (product, filename) so the same color image is
// uploaded at most once per container.
type ImageResolver struct {
	mu       sync.Mutex
	bytes    map[string][]byte          // image data by filename
	attached map[int64]map[string]int64 // uploaded image ids by product and filename

	// URLFor resolves a filename to its remote URL. Set from the supplier
	// schema; empty results skip the variant's image.
	URLFor func(filename string) string

	http *http.Client
}

// NewImageResolver creates an empty per-run resolver.
func NewImageResolver() *ImageResolver {
	return &ImageResolver{
		bytes:    make(map[string][]byte),
		attached: make(map[int64]map[string]int64),
		http:     &http.Client{Timeout: constants.ImageFetchTimeout},
	}
}

// Attach ensures the image for filename exists on the product and returns
// its remote image id.
func (r *ImageResolver) Attach(ctx context.Context, client shopify.Client, productID int64, filename string) (int64, error) {
	r.mu.Lock()
	if byFile, ok := r.attached[productID]; ok {
		if id, ok := byFile[filename]; ok {
			r.mu.Unlock()
			return id, nil
		}
	}
	r.mu.Unlock()

	data, err := r.fetch(ctx, filename)
	if err != nil {
		return 0, err
	}

	image, err := client.AttachImage(ctx, productID, filename, data)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	if r.attached[productID] == nil {
		r.attached[productID] = make(map[string]int64)
	}
	r.attached[productID][filename] = image.ID
	r.mu.Unlock()
	return image.ID, nil
}

// fetch downloads image bytes, serving repeats from the run cache.
func (r *ImageResolver) fetch(ctx context.Context, filename string) ([]byte, error) {
	r.mu.Lock()
	if data, ok := r.bytes[filename]; ok {
		r.mu.Unlock()
		return data, nil
	}
	r.mu.Unlock()

	if r.URLFor == nil {
		return nil, errors.NewIOError("fetch", filename, errors.New("no image URL resolver configured"))
	}
	url := r.URLFor(filename)
	if url == "" {
		return nil, errors.NewIOError("fetch", filename, errors.New("no URL for image"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapIO("fetch", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, errors.WrapIO("fetch", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewIOError("fetch", url, errors.New(resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapIO("fetch", url, err)
	}

	r.mu.Lock()
	r.bytes[filename] = data
	r.mu.Unlock()
	return data, nil
}
