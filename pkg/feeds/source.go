package feeds

import (
	"context"
	"os"

	"github.com/bulkthreads/stocksync/pkg/errors"
)

// Source makes a supplier's flat files available for one run and returns
// the local directory holding them. Implementations may download from the
// supplier first; DirSource serves files already on disk.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// DirSource serves feed files from a local directory, for runs where the
// files were transferred out of band.
type DirSource string

// Fetch verifies the directory exists and returns it.
func (d DirSource) Fetch(_ context.Context) (string, error) {
	info, err := os.Stat(string(d))
	if err != nil {
		return "", errors.WrapIO("stat", string(d), err)
	}
	if !info.IsDir() {
		return "", errors.NewIOError("stat", string(d), errors.New("not a directory"))
	}
	return string(d), nil
}
