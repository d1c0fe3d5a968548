package feeds

import "path/filepath"

// PriceBook maps item identifiers to unit prices, built from a supplier's
// price file. Lookups for unknown identifiers return zero, matching the
// platform's "no price" behavior.
type PriceBook map[string]float64

// LoadPriceBook reads a supplier's price file from dir.
func LoadPriceBook(dir string, m Mapper, schema *Schema) (PriceBook, error) {
	rows, err := ReadFile(filepath.Join(dir, schema.PriceFile), schema.ProductDelimiter())
	if err != nil {
		return nil, err
	}
	book := make(PriceBook, len(rows))
	for _, row := range rows {
		if id, price, ok := m.Price(row); ok {
			book[id] = price
		}
	}
	return book, nil
}

// Lookup returns the price for an identifier, zero when unknown.
func (b PriceBook) Lookup(identifier string) float64 {
	return b[identifier]
}

// QuantityBook maps item identifiers to net available quantity for one feed
// source. Quantities from multiple books for the same identifier are summed
// by the inventory reconciler.
type QuantityBook struct {
	Supplier   string
	Quantities map[string]int
}

// LoadQuantityBook reads a supplier's inventory file from dir.
func LoadQuantityBook(dir string, m Mapper, schema *Schema) (*QuantityBook, error) {
	rows, err := ReadFile(filepath.Join(dir, schema.InventoryFile), schema.InventoryFileDelimiter())
	if err != nil {
		return nil, err
	}
	book := &QuantityBook{
		Supplier:   m.Supplier(),
		Quantities: make(map[string]int, len(rows)),
	}
	for _, row := range rows {
		if id, qty := m.Quantity(row); id != "" {
			book.Quantities[id] = qty
		}
	}
	return book, nil
}

// Lookup returns the quantity for an identifier and whether the feed carries it.
func (b *QuantityBook) Lookup(identifier string) (int, bool) {
	qty, ok := b.Quantities[identifier]
	return qty, ok
}
