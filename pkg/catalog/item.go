// Package catalog defines the core data model for catalog reconciliation:
// canonical supplier items, remote product containers, their variants, and
// the per-style container groups the engine operates on.
package catalog

import "strings"

// Item is a supplier feed row normalized to the canonical field set.
// Items are immutable for the duration of a reconciliation pass.
type Item struct {
	// Identifier is the supplier item number, the natural idempotency key.
	// Identifiers are unique within a feed; across feeds they are namespaced
	// by Supplier.
	Identifier string

	// Supplier names the feed source this item came from.
	Supplier string

	Style            string
	ColorName        string
	Size             string
	Vendor           string // mill name
	Category         string
	ShortDescription string
	FullDescription  string
	FrontImage       string // front-of-image filename for image resolution
	Price            float64
}

// ColorKey returns the case-folded color used for variant matching.
func (i Item) ColorKey() string {
	return strings.ToLower(i.ColorName)
}

// SizeKey returns the case-folded size used for variant matching.
func (i Item) SizeKey() string {
	return strings.ToLower(i.Size)
}

// StyleKey returns the grouping key for this item's container group.
// Containers for one style may span suppliers only when the vendor matches,
// so the vendor is part of the key.
func (i Item) StyleKey() string {
	return i.Vendor + "/" + i.Style
}
