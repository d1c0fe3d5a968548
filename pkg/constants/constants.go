// Package constants provides shared constants used throughout the stocksync codebase.
// This includes platform limits, timeouts, retry policy values, and batch sizes
// that should be consistent across the application.
package constants

import "time"

// Platform limits imposed by the remote catalog service
const (
	// MaxVariantsPerProduct is the hard Shopify cap on variants per product.
	// The bin packer must never let a container exceed this.
	MaxVariantsPerProduct = 100

	// MaxProductsPerPage is the largest page size accepted by product find calls
	MaxProductsPerPage = 250

	// InventoryBatchSize is the number of adjustments sent per bulk inventory call
	InventoryBatchSize = 100

	// DefaultAPIVersion is the admin API version used when none is configured
	DefaultAPIVersion = "2020-07"
)

// Retry policy constants for the remote catalog client
const (
	// DefaultRetryAfter is the sleep applied on 429 when the server does not
	// specify a Retry-After header
	DefaultRetryAfter = 4 * time.Second

	// MaxRateLimitAttempts is the attempt ceiling for 429 responses, after
	// which a call fails with ErrRateLimitExhausted
	MaxRateLimitAttempts = 8

	// MaxTransientAttempts is the attempt ceiling for 5xx and network faults
	MaxTransientAttempts = 3

	// ReadCooldown is the sleep before retrying a failed read call
	ReadCooldown = 30 * time.Second

	// WriteCooldown is the sleep before retrying a failed write call
	WriteCooldown = 90 * time.Second

	// BulkCooldown is the sleep before retrying a failed bulk call
	BulkCooldown = 300 * time.Second
)

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the remote API
	DefaultHTTPTimeout = 30 * time.Second

	// ImageFetchTimeout is the timeout for downloading a single product image
	ImageFetchTimeout = 60 * time.Second

	// RunTimeout is the overall ceiling for one reconciliation run
	RunTimeout = 6 * time.Hour
)

// Concurrency constants
const (
	// DefaultWorkers is the default size of the reconciliation worker pool
	DefaultWorkers = 4

	// MaxWorkers is the ceiling on the worker pool size
	MaxWorkers = 16
)

// Progress logging constants
const (
	// ProductProgressStep is the percentage step between product progress lines
	ProductProgressStep = 1

	// InventoryProgressStep is the percentage step between inventory progress lines
	InventoryProgressStep = 5
)