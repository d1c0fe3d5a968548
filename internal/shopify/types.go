// Package shopify implements the remote catalog client: a rate-limited,
// retrying wrapper around the Shopify Admin product, variant, metafield,
// image and inventory operations the reconciliation engine needs. Every
// remote call in the system funnels through this package's retry policy
// exactly once.
package shopify

import (
	"strconv"
	"strings"
)

// Product is the remote product shell wire representation.
type Product struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title,omitempty"`
	Handle      string    `json:"handle,omitempty"`
	Vendor      string    `json:"vendor,omitempty"`
	ProductType string    `json:"product_type,omitempty"`
	BodyHTML    string    `json:"body_html,omitempty"`
	Options     []Option  `json:"options,omitempty"`
	Variants    []Variant `json:"variants,omitempty"`
	Images      []Image   `json:"images,omitempty"`
}

// Option is a product option declaration. Variants reference option values
// positionally through their Option1/Option2 attributes.
type Option struct {
	Name     string   `json:"name"`
	Position int      `json:"position,omitempty"`
	Values   []string `json:"values,omitempty"`
}

// Variant is one sellable combination on a product. By our creation
// convention option1 is the size and option2 the color; products created by
// other tooling may order them differently, which is why matching goes
// through OptionPositions.
type Variant struct {
	ID                int64  `json:"id,omitempty"`
	ProductID         int64  `json:"product_id,omitempty"`
	Option1           string `json:"option1,omitempty"`
	Option2           string `json:"option2,omitempty"`
	Option3           string `json:"option3,omitempty"`
	Price             string `json:"price,omitempty"`
	ImageID           int64  `json:"image_id,omitempty"`
	InventoryItemID   int64  `json:"inventory_item_id,omitempty"`
	InventoryQuantity int    `json:"inventory_quantity,omitempty"`
}

// OptionValue returns the variant's value at the given option position (1-3).
func (v *Variant) OptionValue(position int) string {
	switch position {
	case 1:
		return v.Option1
	case 2:
		return v.Option2
	case 3:
		return v.Option3
	default:
		return ""
	}
}

// SetOptionValue sets the variant's value at the given option position (1-3).
func (v *Variant) SetOptionValue(position int, value string) {
	switch position {
	case 1:
		v.Option1 = value
	case 2:
		v.Option2 = value
	case 3:
		v.Option3 = value
	}
}

// OptionPositions returns the option positions holding color and size values
// for this product. Zero means the option was not found; callers fall back
// to the creation convention (size first, color second).
func (p *Product) OptionPositions() (colorPos, sizePos int) {
	for _, opt := range p.Options {
		switch strings.ToLower(opt.Name) {
		case "color", "colour":
			colorPos = opt.Position
		case "size":
			sizePos = opt.Position
		}
	}
	return colorPos, sizePos
}

// FindVariant locates a variant by (color, size), case-insensitively, using
// the product's own option layout. A second return of false means color or
// size options could not be located on the product at all.
func (p *Product) FindVariant(color, size string) (*Variant, bool) {
	colorPos, sizePos := p.OptionPositions()
	if colorPos == 0 || sizePos == 0 {
		return nil, false
	}
	color = strings.ToLower(color)
	size = strings.ToLower(size)
	for i := range p.Variants {
		v := &p.Variants[i]
		if strings.ToLower(v.OptionValue(colorPos)) == color &&
			strings.ToLower(v.OptionValue(sizePos)) == size {
			return v, true
		}
	}
	return nil, true
}

// Metafield is a structured annotation on a product. The reconciler uses the
// "api_integration" namespace to cross-link primary and secondary containers.
type Metafield struct {
	ID        int64  `json:"id,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type,omitempty"`
}

// Image is a product image, uploaded as a base64 attachment.
type Image struct {
	ID         int64  `json:"id,omitempty"`
	ProductID  int64  `json:"product_id,omitempty"`
	Src        string `json:"src,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Attachment string `json:"attachment,omitempty"`
}

// RemoteVariant is one page entry from the cursor-based variant listing,
// carrying the inventory fields the reconciler needs for delta computation.
type RemoteVariant struct {
	VariantID         int64
	ProductID         int64
	InventoryItemID   string // gid, e.g. "gid://shopify/InventoryItem/123"
	InventoryQuantity int
}

// InventoryAdjustment is one entry of a bulk inventory adjustment call.
type InventoryAdjustment struct {
	InventoryItemID string
	Delta           int
}

// LocationGID formats a numeric location id as a storefront GID.
func LocationGID(locationID int64) string {
	return "gid://shopify/Location/" + strconv.FormatInt(locationID, 10)
}
