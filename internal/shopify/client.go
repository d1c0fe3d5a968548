package shopify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bulkthreads/stocksync/pkg/constants"
	"github.com/bulkthreads/stocksync/pkg/errors"
)

// Client is the remote catalog API surface the reconciliation engine uses.
// Implementations must route every call through the retry policy.
type Client interface {
	// FindProductsByVendor returns all products for a vendor, following
	// page_info pagination.
	FindProductsByVendor(ctx context.Context, vendor string) ([]*Product, error)

	// GetProduct fetches one product by id. Returns ErrNotFound for 404.
	GetProduct(ctx context.Context, id int64) (*Product, error)

	// CreateProduct creates a product shell and returns it with its id set.
	CreateProduct(ctx context.Context, p *Product) (*Product, error)

	// UpdateProduct saves product-level fields, options and new variants.
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)

	// UpdateVariant saves a single variant.
	UpdateVariant(ctx context.Context, v *Variant) (*Variant, error)

	// Metafields lists a product's metafields.
	Metafields(ctx context.Context, productID int64) ([]Metafield, error)

	// SetMetafield creates or updates a product metafield.
	SetMetafield(ctx context.Context, productID int64, mf Metafield) (Metafield, error)

	// AttachImage uploads image data to a product and returns the image id.
	AttachImage(ctx context.Context, productID int64, filename string, data []byte) (*Image, error)

	// ListVariants pages through all remote variants. An empty cursor starts
	// from the beginning; an empty next cursor means the listing is exhausted.
	ListVariants(ctx context.Context, cursor string, pageSize int) ([]RemoteVariant, string, error)

	// BulkAdjustInventory applies quantity deltas at a location.
	BulkAdjustInventory(ctx context.Context, locationID int64, adjustments []InventoryAdjustment) error
}

// Credentials carries the store coordinates for the Admin API.
type Credentials struct {
	Store       string // <store>.myshopify.com subdomain
	APIKey      string
	Password    string
	APIVersion  string // e.g. "2020-07"
	AdminURLFmt string // test override; empty uses the real admin URL
}

// baseURL returns the Admin API root for the credentials.
func (c Credentials) baseURL() string {
	if c.AdminURLFmt != "" {
		return fmt.Sprintf(c.AdminURLFmt, c.Store, c.APIVersion)
	}
	return fmt.Sprintf("https://%s.myshopify.com/admin/api/%s", c.Store, c.APIVersion)
}

// client is the HTTP implementation of Client.
type client struct {
	creds  Credentials
	http   *http.Client
	policy *Policy
}

// New creates a Client with the default retry policy.
func New(creds Credentials) Client {
	return NewWithPolicy(creds, DefaultPolicy())
}

// NewWithPolicy creates a Client with a custom retry policy.
func NewWithPolicy(creds Credentials, policy *Policy) Client {
	return &client{
		creds:  creds,
		http:   &http.Client{Timeout: constants.DefaultHTTPTimeout},
		policy: policy,
	}
}

// do performs one JSON round-trip under the retry policy. Every remote call
// in this package funnels through here; nothing else touches the wire.
func (c *client) do(ctx context.Context, operation string, class CallClass, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.WrapAPI(operation, 0, err)
		}
	}

	return c.policy.Do(ctx, operation, class, func(ctx context.Context) attempt {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.creds.baseURL()+path, reader)
		if err != nil {
			return attempt{Err: err}
		}
		req.SetBasicAuth(c.creds.APIKey, c.creds.Password)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return attempt{Err: err}
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode == 429 {
			return attempt{StatusCode: 429, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return attempt{StatusCode: resp.StatusCode, Err: errors.New(string(detail))}
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return attempt{Err: err}
			}
		}
		return attempt{StatusCode: resp.StatusCode}
	})
}

// parseRetryAfter parses a Retry-After header value in seconds.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

type productEnvelope struct {
	Product *Product `json:"product"`
}

type productsEnvelope struct {
	Products []*Product `json:"products"`
}

type variantEnvelope struct {
	Variant *Variant `json:"variant"`
}

type metafieldsEnvelope struct {
	Metafields []Metafield `json:"metafields"`
}

type metafieldEnvelope struct {
	Metafield Metafield `json:"metafield"`
}

type imageEnvelope struct {
	Image *Image `json:"image"`
}

// FindProductsByVendor returns all products for a vendor.
func (c *client) FindProductsByVendor(ctx context.Context, vendor string) ([]*Product, error) {
	var all []*Product
	sinceID := int64(0)
	for {
		var env productsEnvelope
		path := fmt.Sprintf("/products.json?vendor=%s&limit=%d&since_id=%d",
			url.QueryEscape(vendor), constants.MaxProductsPerPage, sinceID)
		if err := c.do(ctx, "find", ClassRead, http.MethodGet, path, nil, &env); err != nil {
			return nil, err
		}
		all = append(all, env.Products...)
		if len(env.Products) < constants.MaxProductsPerPage {
			return all, nil
		}
		sinceID = env.Products[len(env.Products)-1].ID
	}
}

// GetProduct fetches one product by id.
func (c *client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var env productEnvelope
	path := fmt.Sprintf("/products/%d.json", id)
	err := c.do(ctx, "get", ClassRead, http.MethodGet, path, nil, &env)
	if err != nil {
		var apiErr *errors.APIError
		if stderrors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}
	return env.Product, nil
}

// CreateProduct creates a product shell.
func (c *client) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	var env productEnvelope
	err := c.do(ctx, "create", ClassWrite, http.MethodPost, "/products.json", productEnvelope{Product: p}, &env)
	if err != nil {
		return nil, err
	}
	return env.Product, nil
}

// UpdateProduct saves a product.
func (c *client) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	var env productEnvelope
	path := fmt.Sprintf("/products/%d.json", p.ID)
	err := c.do(ctx, "update", ClassWrite, http.MethodPut, path, productEnvelope{Product: p}, &env)
	if err != nil {
		return nil, err
	}
	return env.Product, nil
}

// UpdateVariant saves a variant.
func (c *client) UpdateVariant(ctx context.Context, v *Variant) (*Variant, error) {
	var env variantEnvelope
	path := fmt.Sprintf("/variants/%d.json", v.ID)
	err := c.do(ctx, "update_variant", ClassWrite, http.MethodPut, path, variantEnvelope{Variant: v}, &env)
	if err != nil {
		return nil, err
	}
	return env.Variant, nil
}

// Metafields lists a product's metafields.
func (c *client) Metafields(ctx context.Context, productID int64) ([]Metafield, error) {
	var env metafieldsEnvelope
	path := fmt.Sprintf("/products/%d/metafields.json", productID)
	if err := c.do(ctx, "metafields", ClassRead, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Metafields, nil
}

// SetMetafield creates or updates a product metafield.
func (c *client) SetMetafield(ctx context.Context, productID int64, mf Metafield) (Metafield, error) {
	var env metafieldEnvelope
	if mf.ID != 0 {
		path := fmt.Sprintf("/products/%d/metafields/%d.json", productID, mf.ID)
		err := c.do(ctx, "set_metafield", ClassWrite, http.MethodPut, path, metafieldEnvelope{Metafield: mf}, &env)
		return env.Metafield, err
	}
	path := fmt.Sprintf("/products/%d/metafields.json", productID)
	err := c.do(ctx, "set_metafield", ClassWrite, http.MethodPost, path, metafieldEnvelope{Metafield: mf}, &env)
	return env.Metafield, err
}

// AttachImage uploads image bytes as a base64 attachment.
func (c *client) AttachImage(ctx context.Context, productID int64, filename string, data []byte) (*Image, error) {
	var env imageEnvelope
	path := fmt.Sprintf("/products/%d/images.json", productID)
	body := imageEnvelope{Image: &Image{
		ProductID:  productID,
		Filename:   filename,
		Attachment: base64.StdEncoding.EncodeToString(data),
	}}
	if err := c.do(ctx, "attach_image", ClassWrite, http.MethodPost, path, body, &env); err != nil {
		return nil, err
	}
	return env.Image, nil
}
