// Package cmd implements the stocksync subcommands. Commands receive their
// dependencies through the App interface so the command layer stays
// decoupled from the application shell.
package cmd

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bulkthreads/stocksync/internal/ledger"
	"github.com/bulkthreads/stocksync/internal/reconcile"
	"github.com/bulkthreads/stocksync/internal/shopify"
	"github.com/bulkthreads/stocksync/pkg/feeds"
)

// App is the dependency surface commands need from the application shell.
type App interface {
	Logger() *zerolog.Logger
	Client() (shopify.Client, error)
	Store(ctx context.Context) (ledger.Store, error)
	Schema() (*feeds.Schema, error)
	Feeds() feeds.Source
	RunOptions() reconcile.Options
	Version() string
	Commit() string
	Date() string
}
