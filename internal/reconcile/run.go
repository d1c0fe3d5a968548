// Package reconcile implements the catalog reconciliation engine: matching
// canonical supplier items against known remote products, bin-packing
// variants under the platform cap, finalizing containers through the remote
// client, and reconciling inventory levels. Work is distributed across a
// bounded worker pool sharing one guarded identity ledger.
package reconcile

import (
	"context"

	"github.com/bulkthreads/stocksync/internal/ledger"
	"github.com/bulkthreads/stocksync/internal/shopify"
	"github.com/bulkthreads/stocksync/pkg/catalog"
	"github.com/bulkthreads/stocksync/pkg/constants"
	"github.com/bulkthreads/stocksync/pkg/errors"
	"github.com/bulkthreads/stocksync/pkg/feeds"
	"github.com/bulkthreads/stocksync/pkg/logging"
)

// Options configures one reconciliation run.
type Options struct {
	// Workers bounds the worker pool. Zero means constants.DefaultWorkers.
	Workers int

	// Limit caps the number of canonical items processed; zero is unlimited.
	Limit int

	// SkipExisting drops ledger-known items before matching. This is the
	// default behavior; disabling it still never creates duplicates, it only
	// makes the matcher re-verify known items against the remote.
	SkipExisting bool

	// ForceRefresh drops ledger entries for every item in the feed so they
	// are reprocessed as new. The only sanctioned way to re-treat a known
	// identifier as new.
	ForceRefresh bool

	// DryRun logs intended writes without touching the remote.
	DryRun bool

	// LocationID is the remote location for inventory adjustments.
	LocationID int64
}

// workers returns the effective pool size for n groups.
func (o Options) workers(n int) int {
	w := o.Workers
	if w <= 0 {
		w = constants.DefaultWorkers
	}
	if w > constants.MaxWorkers {
		w = constants.MaxWorkers
	}
	if w > n {
		w = n
	}
	return w
}

// Runner owns the state for reconciliation runs: the remote client, the
// ledger and its store, and the per-run image cache. Construct one per run;
// the image cache and ledger lifetimes are bound to it.
type Runner struct {
	client shopify.Client
	store  ledger.Store
	ledger *ledger.Ledger
	images *ImageResolver
	opts   Options
}

// NewRunner creates a run context. The ledger is loaded lazily on first use.
func NewRunner(client shopify.Client, store ledger.Store, opts Options) *Runner {
	return &Runner{
		client: client,
		store:  store,
		images: NewImageResolver(),
		opts:   opts,
	}
}

// Ledger exposes the run's ledger, primarily for tests and the CLI summary.
func (r *Runner) Ledger() *ledger.Ledger {
	return r.ledger
}

// SetImageURLResolver wires the supplier's image URL pattern into the
// per-run image cache.
func (r *Runner) SetImageURLResolver(fn func(filename string) string) {
	r.images.URLFor = fn
}

// loadLedger reads the persisted ledger into memory.
func (r *Runner) loadLedger(ctx context.Context) error {
	if r.ledger != nil {
		return nil
	}
	entries, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	r.ledger = ledger.FromMap(entries)
	return nil
}

// SyncProducts runs the product reconciliation pass: canonical items are
// matched and bin-packed into container groups, groups are finalized by the
// worker pool, and the ledger is persisted only when every worker finished
// clean.
func (r *Runner) SyncProducts(ctx context.Context, items []catalog.Item, prices feeds.PriceBook) error {
	log := logging.FromContext(ctx)

	if err := r.loadLedger(ctx); err != nil {
		return err
	}

	if r.opts.ForceRefresh {
		for _, item := range items {
			r.ledger.Drop(item.Identifier)
		}
	}
	if r.opts.SkipExisting {
		kept := items[:0]
		for _, item := range items {
			if !r.ledger.Known(item.Identifier) {
				kept = append(kept, item)
			}
		}
		items = kept
	}
	if r.opts.Limit > 0 && len(items) > r.opts.Limit {
		items = items[:r.opts.Limit]
	}
	log.Info().Int("items", len(items)).Msg("Processing products")

	m := newMatcher(r.client, r.ledger, prices, r.opts.DryRun)
	groups, err := m.BuildGroups(ctx, items)
	if err != nil {
		return err
	}
	log.Info().Int("groups", len(groups)).Msg("Matched container groups")

	f := newFinalizer(r.client, r.ledger, r.images, r.opts.DryRun)
	clean := distribute(ctx, groups, r.opts.workers(len(groups)), f.FinalizeGroup)

	reportReview(ctx, groups)

	if !clean {
		log.Warn().Msg("Run finished with hard failures; ledger not persisted")
		return errors.NewLedgerError("persist", "", errors.New("unclean run, ledger merge skipped"))
	}
	if r.opts.DryRun {
		log.Info().Int("entries", r.ledger.Len()).Msg("Dry run, ledger not persisted")
		return nil
	}

	log.Info().Int("entries", r.ledger.Len()).Msg("Persisting ledger")
	return r.store.Replace(ctx, r.ledger)
}

// SyncInventory runs the inventory reconciliation pass against the given
// feed quantity books.
func (r *Runner) SyncInventory(ctx context.Context, books []*feeds.QuantityBook) error {
	if err := r.loadLedger(ctx); err != nil {
		return err
	}
	ir := NewInventoryReconciler(r.client, r.ledger, books, r.opts.LocationID)
	ir.dryRun = r.opts.DryRun
	_, err := ir.Run(ctx)
	return err
}

// reportReview prints the final list of styles flagged for manual review.
func reportReview(ctx context.Context, groups []*catalog.Group) {
	log := logging.FromContext(ctx)
	for _, g := range groups {
		if g.Ambiguous {
			log.Warn().
				Str("style", g.Style).
				Str("vendor", g.Vendor).
				Int("containers", len(g.Containers)).
				Msg("Style flagged for manual review: ambiguous container structure")
		}
	}
}
