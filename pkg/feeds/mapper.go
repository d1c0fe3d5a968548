package feeds

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bulkthreads/stocksync/pkg/catalog"
	"github.com/bulkthreads/stocksync/pkg/errors"
)

// Mapper canonicalizes one supplier's rows. Each supplier schema gets its
// own Mapper; the reconciliation engine only ever sees canonical items.
type Mapper interface {
	// Supplier returns the feed source name, used to namespace identifiers.
	Supplier() string

	// Canonicalize maps a product row to a canonical item.
	Canonicalize(row Row) (catalog.Item, error)

	// Quantity returns the net available quantity for an inventory row,
	// with the schema's deduction fields subtracted.
	Quantity(row Row) (identifier string, qty int)

	// Price returns the identifier and unit price for a price-file row.
	Price(row Row) (identifier string, price float64, ok bool)

	// ImageURL resolves the remote URL for a front-image filename.
	ImageURL(filename string) string
}

// titleCaser normalizes color names ("HEATHER GREY" -> "Heather Grey").
var titleCaser = cases.Title(language.English)

// schemaMapper implements Mapper from a declarative Schema.
type schemaMapper struct {
	schema *Schema
}

// NewMapper creates a Mapper for the given supplier schema.
func NewMapper(schema *Schema) Mapper {
	return &schemaMapper{schema: schema}
}

// Supplier returns the schema's supplier name.
func (m *schemaMapper) Supplier() string {
	return m.schema.Supplier
}

// Canonicalize maps a product row onto the canonical item schema. Rows
// outside the category allow-list return ErrInvalidInput and are dropped by
// the caller.
func (m *schemaMapper) Canonicalize(row Row) (catalog.Item, error) {
	f := m.schema.Fields

	identifier := row.Get(f.Identifier)
	if identifier == "" {
		return catalog.Item{}, errors.NewFeedError(m.schema.Supplier, m.schema.ProductFile,
			"row missing identifier column "+f.Identifier, errors.ErrInvalidInput)
	}

	category := row.Get(f.Category)
	if !m.schema.acceptsCategory(category) {
		return catalog.Item{}, errors.NewFeedError(m.schema.Supplier, m.schema.ProductFile,
			"category "+category+" not in allow-list", errors.ErrInvalidInput)
	}

	vendor := row.Get(f.Vendor)
	if fixed, ok := m.schema.VendorFixups[vendor]; ok {
		vendor = fixed
	}

	return catalog.Item{
		Identifier:       identifier,
		Supplier:         m.schema.Supplier,
		Style:            row.Get(f.Style),
		ColorName:        titleCaser.String(strings.ToLower(row.Get(f.ColorName))),
		Size:             row.Get(f.Size),
		Vendor:           vendor,
		Category:         category,
		ShortDescription: row.Get(f.ShortDescription),
		FullDescription:  row.Get(f.FullDescription),
		FrontImage:       row.Get(f.FrontImage),
	}, nil
}

// Quantity computes net availability for an inventory row.
func (m *schemaMapper) Quantity(row Row) (string, int) {
	q := m.schema.Quantity
	identifier := row.Get(q.Identifier)
	if identifier == "" {
		return "", 0
	}

	total := atoi(row.Get(q.Available))
	for _, d := range q.Deductions {
		total -= atoi(row.Get(d))
	}
	return identifier, total
}

// Price extracts a price-file row.
func (m *schemaMapper) Price(row Row) (string, float64, bool) {
	p := m.schema.Prices
	identifier := row.Get(p.Identifier)
	if identifier == "" {
		return "", 0, false
	}
	price, err := strconv.ParseFloat(row.Get(p.Price), 64)
	if err != nil {
		return identifier, 0, false
	}
	return identifier, price, true
}

// ImageURL fills the schema's URL pattern with the image filename.
func (m *schemaMapper) ImageURL(filename string) string {
	if m.schema.ImageURL == "" || filename == "" {
		return ""
	}
	return strings.Replace(m.schema.ImageURL, "{}", filename, 1)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
