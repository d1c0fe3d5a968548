package feeds

import (
	stderrors "errors"
	"path/filepath"
	"sort"

	"github.com/bulkthreads/stocksync/pkg/catalog"
	"github.com/bulkthreads/stocksync/pkg/errors"
)

// LoadItems reads the supplier's product file from dir and canonicalizes
// every row. Rows that fail canonicalization (missing identifier, category
// outside the allow-list) are dropped. The result is sorted style-major and
// color-contiguous, which the matcher's color look-ahead depends on.
func LoadItems(dir string, m Mapper, schema *Schema) ([]catalog.Item, error) {
	rows, err := ReadFile(filepath.Join(dir, schema.ProductFile), schema.ProductDelimiter())
	if err != nil {
		return nil, err
	}

	items := make([]catalog.Item, 0, len(rows))
	for _, row := range rows {
		item, err := m.Canonicalize(row)
		if err != nil {
			if stderrors.Is(err, errors.ErrInvalidInput) {
				continue
			}
			return nil, err
		}
		items = append(items, item)
	}

	SortItems(items)
	return items, nil
}

// SortItems orders items style-major with contiguous color runs. Within one
// color the feed's size order is preserved.
func SortItems(items []catalog.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].StyleKey() != items[j].StyleKey() {
			return items[i].StyleKey() < items[j].StyleKey()
		}
		return items[i].ColorKey() < items[j].ColorKey()
	})
}
