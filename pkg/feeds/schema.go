// Package feeds maps heterogeneous supplier flat files onto the canonical
// item schema. Each supplier is described by a declarative Schema: a field
// name translation table plus file-format details, loadable from YAML so new
// suppliers do not require code changes.
package feeds

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/bulkthreads/stocksync/pkg/errors"
)

// Fields is the translation table from canonical field names to the source
// column names of one supplier schema.
type Fields struct {
	Identifier       string `yaml:"identifier"`
	Style            string `yaml:"style"`
	ColorName        string `yaml:"color_name"`
	Size             string `yaml:"size"`
	Vendor           string `yaml:"vendor"`
	Category         string `yaml:"category"`
	ShortDescription string `yaml:"short_description"`
	FullDescription  string `yaml:"full_description"`
	FrontImage       string `yaml:"front_image"`
}

// PriceFields describes the supplier's separate price file, keyed by the
// item identifier column of that file.
type PriceFields struct {
	Identifier string `yaml:"identifier"`
	Price      string `yaml:"price"`
}

// QuantityFields describes the supplier's inventory file. Deductions (such
// as drop-ship reserved quantities) are subtracted from the available total.
type QuantityFields struct {
	Identifier string   `yaml:"identifier"`
	Available  string   `yaml:"available"`
	Deductions []string `yaml:"deductions"`
}

// Schema declares how one supplier's flat files map onto canonical items.
type Schema struct {
	Supplier  string `yaml:"supplier"`
	Delimiter string `yaml:"delimiter"`

	ProductFile   string `yaml:"product_file"`
	PriceFile     string `yaml:"price_file"`
	InventoryFile string `yaml:"inventory_file"`
	// InventoryDelimiter overrides Delimiter for the inventory file; some
	// suppliers ship product data caret-delimited but inventory as CSV.
	InventoryDelimiter string `yaml:"inventory_delimiter"`

	Fields    Fields         `yaml:"fields"`
	Prices    PriceFields    `yaml:"prices"`
	Quantity  QuantityFields `yaml:"quantity"`
	ImageURL  string         `yaml:"image_url"` // printf-style pattern taking the image filename
	SortOrder string         `yaml:"sort_order"`

	// Categories is an allow-list; rows in other categories are dropped.
	// Empty means accept everything.
	Categories []string `yaml:"categories"`

	// VendorFixups rewrites vendor names that upstream spells inconsistently.
	VendorFixups map[string]string `yaml:"vendor_fixups"`
}

// LoadSchema reads a supplier schema from a YAML file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.WrapFeed("", path, err)
	}
	if s.Supplier == "" {
		return nil, errors.NewFeedError("", path, "schema missing supplier name", nil)
	}
	return &s, nil
}

// delimiterRune returns the configured delimiter as a rune, defaulting to comma.
func delimiterRune(s string) rune {
	if s == "" {
		return ','
	}
	return []rune(s)[0]
}

// ProductDelimiter returns the delimiter for product and price files.
func (s *Schema) ProductDelimiter() rune {
	return delimiterRune(s.Delimiter)
}

// InventoryFileDelimiter returns the delimiter for the inventory file.
func (s *Schema) InventoryFileDelimiter() rune {
	if s.InventoryDelimiter != "" {
		return delimiterRune(s.InventoryDelimiter)
	}
	return s.ProductDelimiter()
}

// acceptsCategory reports whether the row category passes the allow-list.
func (s *Schema) acceptsCategory(category string) bool {
	if len(s.Categories) == 0 {
		return true
	}
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}
