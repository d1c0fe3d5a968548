// Package app provides the application context and dependency management
// for the stocksync CLI. It centralizes configuration, logging, and the
// lazily constructed remote client and ledger store.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bulkthreads/stocksync/internal/ledger"
	"github.com/bulkthreads/stocksync/internal/reconcile"
	"github.com/bulkthreads/stocksync/internal/shopify"
	"github.com/bulkthreads/stocksync/pkg/errors"
	"github.com/bulkthreads/stocksync/pkg/feeds"
)

// App represents the stocksync application with all its dependencies.
// It provides a centralized place for configuration, logging, the remote
// catalog client, and the ledger store.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Lazily initialized dependencies
	mu     sync.Mutex
	client shopify.Client
	store  *ledger.MongoStore
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	// Load configuration
	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "load config", err)
	}
	app.config = config

	// Initialize logger
	logger := NewLogger(config)
	app.logger = &logger

	// Apply any custom options
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Client returns the remote catalog client, creating it lazily. Credentials
// are validated on first use so read-only commands never require them.
func (a *App) Client() (shopify.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}
	if err := a.config.Validate(); err != nil {
		return nil, err
	}
	a.client = shopify.New(shopify.Credentials{
		Store:      a.config.ShopifyStore,
		APIKey:     a.config.ShopifyAPIKey,
		Password:   a.config.ShopifyPassword,
		APIVersion: a.config.ShopifyAPIVersion,
	})
	return a.client, nil
}

// Store returns the ledger store, connecting lazily.
func (a *App) Store(ctx context.Context) (ledger.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		return a.store, nil
	}
	if a.config.MongoURL == "" {
		return nil, errors.NewConfigError("app", "MONGO_URL is not configured", nil)
	}
	store, err := ledger.NewMongoStore(ctx, a.config.MongoURL, a.config.MongoDatabase)
	if err != nil {
		return nil, err
	}
	a.store = store
	return a.store, nil
}

// Schema resolves the active supplier schema: an explicit schema file wins,
// otherwise the built-in schema for the configured supplier.
func (a *App) Schema() (*feeds.Schema, error) {
	if a.config.SchemaFile != "" {
		return feeds.LoadSchema(a.config.SchemaFile)
	}
	if s := feeds.Builtin(a.config.Supplier); s != nil {
		return s, nil
	}
	return nil, errors.NewConfigError("app", "unknown supplier "+a.config.Supplier, nil)
}

// Feeds returns the feed source for the configured data directory.
func (a *App) Feeds() feeds.Source {
	return feeds.DirSource(a.config.DataDir)
}

// RunOptions builds the base reconciliation options from configuration.
// Command flags refine the result before the run starts.
func (a *App) RunOptions() reconcile.Options {
	return reconcile.Options{
		Workers:      a.config.Workers,
		Limit:        a.config.Limit,
		SkipExisting: a.config.SkipExisting,
		ForceRefresh: a.config.ForceRefresh,
		DryRun:       a.config.DryRun,
		LocationID:   a.config.LocationID,
	}
}

// Shutdown performs graceful shutdown of the application, disconnecting the
// ledger store if one was opened.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	store := a.store
	a.store = nil
	a.mu.Unlock()

	if store != nil {
		return store.Close(ctx)
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom remote client (useful for testing).
func WithClient(client shopify.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}
