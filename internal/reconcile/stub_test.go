package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bulkthreads/stocksync/internal/ledger"
	"github.com/bulkthreads/stocksync/internal/shopify"
	"github.com/bulkthreads/stocksync/pkg/errors"
)

// fakeClient is an in-memory remote catalog used across the engine tests.
// It assigns ids on create, materializes pending variants on product save,
// and records every write for assertions.
type fakeClient struct {
	mu         sync.Mutex
	products   map[int64]*shopify.Product
	metafields map[int64][]shopify.Metafield

	nextProductID   int64
	nextVariantID   int64
	nextImageID     int64
	nextMetafieldID int64

	createCalls int
	updateCalls int
	attachCalls int

	// failUpdate makes UpdateProduct fail for specific product ids.
	failUpdate map[int64]error

	// failMetafields makes Metafields fail for specific product ids.
	failMetafields map[int64]error

	// listing backs ListVariants; nil derives it from stored products.
	listing []shopify.RemoteVariant

	adjustments [][]shopify.InventoryAdjustment
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		products:       make(map[int64]*shopify.Product),
		metafields:     make(map[int64][]shopify.Metafield),
		failUpdate:     make(map[int64]error),
		failMetafields: make(map[int64]error),
	}
}

func copyProduct(p *shopify.Product) *shopify.Product {
	cp := *p
	cp.Options = append([]shopify.Option(nil), p.Options...)
	cp.Variants = append([]shopify.Variant(nil), p.Variants...)
	cp.Images = append([]shopify.Image(nil), p.Images...)
	return &cp
}

func slugify(title string) string {
	s := strings.ToLower(title)
	for _, c := range []string{":", ",", "+", " "} {
		s = strings.ReplaceAll(s, c, "-")
	}
	return s
}

func (f *fakeClient) FindProductsByVendor(_ context.Context, vendor string) ([]*shopify.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*shopify.Product
	for _, p := range f.products {
		if p.Vendor == vendor {
			out = append(out, copyProduct(p))
		}
	}
	return out, nil
}

func (f *fakeClient) GetProduct(_ context.Context, id int64) (*shopify.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return copyProduct(p), nil
}

func (f *fakeClient) CreateProduct(_ context.Context, p *shopify.Product) (*shopify.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.nextProductID++
	cp := copyProduct(p)
	cp.ID = f.nextProductID
	cp.Handle = slugify(cp.Title)
	f.materialize(cp)
	f.products[cp.ID] = cp
	return copyProduct(cp), nil
}

func (f *fakeClient) UpdateProduct(_ context.Context, p *shopify.Product) (*shopify.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if err, ok := f.failUpdate[p.ID]; ok {
		return nil, err
	}
	if _, ok := f.products[p.ID]; !ok {
		return nil, errors.NewAPIError("update", 404, "product not found")
	}
	cp := copyProduct(p)
	if cp.Handle == "" {
		cp.Handle = f.products[p.ID].Handle
	}
	f.materialize(cp)
	f.products[cp.ID] = cp
	return copyProduct(cp), nil
}

// materialize assigns ids to pending variants, mimicking the remote save.
func (f *fakeClient) materialize(p *shopify.Product) {
	for i := range p.Variants {
		if p.Variants[i].ID == 0 {
			f.nextVariantID++
			p.Variants[i].ID = f.nextVariantID
			p.Variants[i].InventoryItemID = 10000 + f.nextVariantID
		}
		p.Variants[i].ProductID = p.ID
	}
}

func (f *fakeClient) UpdateVariant(_ context.Context, v *shopify.Variant) (*shopify.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		for i := range p.Variants {
			if p.Variants[i].ID == v.ID {
				if v.ImageID != 0 {
					p.Variants[i].ImageID = v.ImageID
				}
				cp := p.Variants[i]
				return &cp, nil
			}
		}
	}
	return nil, errors.ErrNotFound
}

func (f *fakeClient) Metafields(_ context.Context, productID int64) ([]shopify.Metafield, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failMetafields[productID]; ok {
		return nil, err
	}
	return append([]shopify.Metafield(nil), f.metafields[productID]...), nil
}

func (f *fakeClient) SetMetafield(_ context.Context, productID int64, mf shopify.Metafield) (shopify.Metafield, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := f.metafields[productID]
	if mf.ID != 0 {
		for i := range existing {
			if existing[i].ID == mf.ID {
				existing[i] = mf
				return mf, nil
			}
		}
	}
	for i := range existing {
		if existing[i].Namespace == mf.Namespace && existing[i].Key == mf.Key {
			mf.ID = existing[i].ID
			existing[i] = mf
			return mf, nil
		}
	}
	f.nextMetafieldID++
	mf.ID = f.nextMetafieldID
	f.metafields[productID] = append(existing, mf)
	return mf, nil
}

func (f *fakeClient) AttachImage(_ context.Context, productID int64, filename string, _ []byte) (*shopify.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachCalls++
	f.nextImageID++
	return &shopify.Image{ID: f.nextImageID, ProductID: productID, Filename: filename}, nil
}

func (f *fakeClient) ListVariants(_ context.Context, cursor string, pageSize int) ([]shopify.RemoteVariant, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	listing := f.listing
	if listing == nil {
		for _, p := range f.products {
			for _, v := range p.Variants {
				listing = append(listing, shopify.RemoteVariant{
					VariantID:         v.ID,
					ProductID:         p.ID,
					InventoryItemID:   fmt.Sprintf("gid://shopify/InventoryItem/%d", v.InventoryItemID),
					InventoryQuantity: v.InventoryQuantity,
				})
			}
		}
	}

	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	if start >= len(listing) {
		return nil, "", nil
	}
	end := start + pageSize
	if end > len(listing) {
		end = len(listing)
	}
	next := ""
	if end < len(listing) {
		next = strconv.Itoa(end)
	}
	return append([]shopify.RemoteVariant(nil), listing[start:end]...), next, nil
}

func (f *fakeClient) BulkAdjustInventory(_ context.Context, _ int64, adjustments []shopify.InventoryAdjustment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adjustments = append(f.adjustments, append([]shopify.InventoryAdjustment(nil), adjustments...))
	return nil
}

// memoryStore is an in-memory ledger.Store for run-level tests.
type memoryStore struct {
	mu       sync.Mutex
	entries  map[string]ledger.Entry
	replaced int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]ledger.Entry{}}
}

func (s *memoryStore) Load(context.Context) (map[string]ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]ledger.Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *memoryStore) Replace(_ context.Context, l *ledger.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = l.Snapshot()
	s.replaced++
	return nil
}
