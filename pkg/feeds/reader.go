package feeds

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/bulkthreads/stocksync/pkg/errors"
)

// Row is one flat-file record keyed by its header column names.
type Row map[string]string

// Get returns a trimmed column value. Supplier headers occasionally carry
// trailing whitespace ("Item Number "), so lookup falls back to a trimmed
// header match.
func (r Row) Get(column string) string {
	if v, ok := r[column]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range r {
		if strings.TrimSpace(k) == column {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ReadFile parses a delimited flat file into rows using the first record as
// the header. Short rows are tolerated; missing columns read as empty.
func ReadFile(path string, delimiter rune) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close() //nolint:errcheck

	return Read(f, path, delimiter)
}

// Read parses delimited records from r. The path is only used for error
// reporting.
func Read(r io.Reader, path string, delimiter rune) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapFeed("", path, err)
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &errors.FeedError{File: path, Line: line, Message: err.Error(), Err: err}
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
