package catalog

import (
	"strings"

	"github.com/bulkthreads/stocksync/pkg/constants"
	"github.com/bulkthreads/stocksync/pkg/errors"
)

// Variant is one sellable (color, size) combination inside a container.
type Variant struct {
	// RemoteID is nil-equivalent (zero) until the variant exists remotely.
	RemoteID        int64
	InventoryItemID int64

	Color    string
	Size     string
	Price    float64
	ImageID  int64  // remote image id, 0 when no image is attached
	ImageRef string // front-image filename the image was resolved from

	// ItemIdentifier links the variant back to the canonical item that
	// produced it, for ledger recording after finalization.
	ItemIdentifier string
}

// Option is a remote product option (Color or Size) with its value union.
type Option struct {
	Name   string
	Values []string
}

// Container is a remote product shell grouping variants that share
// title, vendor and type. A container never holds more than
// constants.MaxVariantsPerProduct variants.
type Container struct {
	// RemoteID is 0 until the container has been created remotely.
	RemoteID int64

	Title    string
	Handle   string
	Vendor   string
	Category string
	BodyHTML string

	Variants []*Variant
	Options  []Option

	// Dirty marks containers with pending variant or option writes.
	Dirty bool
}

// FindVariant returns the variant matching (color, size) case-insensitively,
// or nil when no such variant exists.
func (c *Container) FindVariant(color, size string) *Variant {
	color = strings.ToLower(color)
	size = strings.ToLower(size)
	for _, v := range c.Variants {
		if strings.ToLower(v.Color) == color && strings.ToLower(v.Size) == size {
			return v
		}
	}
	return nil
}

// CountColor returns how many variants of the given color the container holds.
func (c *Container) CountColor(color string) int {
	color = strings.ToLower(color)
	n := 0
	for _, v := range c.Variants {
		if strings.ToLower(v.Color) == color {
			n++
		}
	}
	return n
}

// HasRoom reports whether the container can still absorb the remainder of a
// color run. ofColor is the total number of same-color items expected for the
// style; variants of that color already placed here are not double counted.
// The boundary is strict: a container is open only while the projected count
// stays below the platform cap.
func (c *Container) HasRoom(color string, ofColor int) bool {
	return len(c.Variants)+ofColor-c.CountColor(color) < constants.MaxVariantsPerProduct
}

// AddVariant appends a variant, enforcing the cap and (color, size)
// uniqueness invariants.
func (c *Container) AddVariant(v *Variant) error {
	if len(c.Variants) >= constants.MaxVariantsPerProduct {
		return errors.NewSyncError(c.Title, []string{v.ItemIdentifier},
			errors.New("variant cap reached"))
	}
	if existing := c.FindVariant(v.Color, v.Size); existing != nil {
		return errors.NewSyncError(c.Title, []string{v.ItemIdentifier},
			errors.New("duplicate (color, size) pair"))
	}
	c.Variants = append(c.Variants, v)
	c.Dirty = true
	return nil
}

// RebuildOptions derives the consolidated Size and Color options from the
// variant union. Remote semantics require options to be declared before
// variants referencing their values are valid, so this runs at finalization
// before any variant write.
func (c *Container) RebuildOptions() {
	sizes := make([]string, 0, len(c.Variants))
	colors := make([]string, 0, len(c.Variants))
	seenSize := map[string]bool{}
	seenColor := map[string]bool{}
	for _, v := range c.Variants {
		if !seenSize[strings.ToLower(v.Size)] {
			seenSize[strings.ToLower(v.Size)] = true
			sizes = append(sizes, v.Size)
		}
		if !seenColor[strings.ToLower(v.Color)] {
			seenColor[strings.ToLower(v.Color)] = true
			colors = append(colors, v.Color)
		}
	}
	c.Options = []Option{
		{Name: "Size", Values: sizes},
		{Name: "Color", Values: colors},
	}
}
