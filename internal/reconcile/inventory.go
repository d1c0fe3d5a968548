package reconcile

import (
	"context"

	"github.com/bulkthreads/stocksync/internal/ledger"
	"github.com/bulkthreads/stocksync/internal/shopify"
	"github.com/bulkthreads/stocksync/pkg/constants"
	"github.com/bulkthreads/stocksync/pkg/feeds"
	"github.com/bulkthreads/stocksync/pkg/logging"
)

// InventoryReconciler pages through remote variants and issues bulk delta
// adjustments computed from the configured feed quantity books. It runs
// independently of product reconciliation.
type InventoryReconciler struct {
	client     shopify.Client
	books      []*feeds.QuantityBook
	locationID int64
	batchSize  int
	pageSize   int
	dryRun     bool

	// byVariant maps remote variant ids back to item identifiers, derived
	// from the ledger's reverse map. Variants absent here are left
	// untouched: remote-only variants are never inferred.
	byVariant map[int64]string
}

// NewInventoryReconciler builds a reconciler over the ledger's current state.
func NewInventoryReconciler(client shopify.Client, l *ledger.Ledger, books []*feeds.QuantityBook, locationID int64) *InventoryReconciler {
	byVariant := make(map[int64]string)
	for _, variants := range l.Reverse() {
		for variantID, identifier := range variants {
			byVariant[variantID] = identifier
		}
	}
	return &InventoryReconciler{
		client:     client,
		books:      books,
		locationID: locationID,
		batchSize:  constants.InventoryBatchSize,
		pageSize:   constants.MaxProductsPerPage,
		byVariant:  byVariant,
	}
}

// feedTotal sums the item's net quantity across all feed sources. The second
// return is false when no configured feed carries the identifier.
func (ir *InventoryReconciler) feedTotal(identifier string) (int, bool) {
	total := 0
	found := false
	for _, book := range ir.books {
		if qty, ok := book.Lookup(identifier); ok {
			total += qty
			found = true
		}
	}
	return total, found
}

// Run pages the remote variant listing to exhaustion, batching deltas into
// bulk adjustment calls. Returns the number of adjustments issued.
func (ir *InventoryReconciler) Run(ctx context.Context) (int, error) {
	log := logging.FromContext(ctx)
	log.Info().Int("ledger_variants", len(ir.byVariant)).Msg("Reconciling inventory")

	var batch []shopify.InventoryAdjustment
	adjusted := 0
	processed := 0
	lastLogged := -constants.InventoryProgressStep

	cursor := ""
	for {
		variants, next, err := ir.client.ListVariants(ctx, cursor, ir.pageSize)
		if err != nil {
			return adjusted, err
		}

		for _, rv := range variants {
			processed++
			identifier, ok := ir.byVariant[rv.VariantID]
			if !ok {
				continue
			}
			newTotal, ok := ir.feedTotal(identifier)
			if !ok {
				continue
			}
			delta := newTotal - rv.InventoryQuantity
			if delta == 0 {
				continue
			}
			batch = append(batch, shopify.InventoryAdjustment{
				InventoryItemID: rv.InventoryItemID,
				Delta:           delta,
			})
			if len(batch) >= ir.batchSize {
				if err := ir.flush(ctx, batch); err != nil {
					return adjusted, err
				}
				adjusted += len(batch)
				batch = batch[:0]
			}
		}

		if p := percent(processed, len(ir.byVariant)); p >= lastLogged+constants.InventoryProgressStep {
			lastLogged = p
			log.Info().Int("percent", p).Int("processed", processed).Msg("Inventory progress")
		}

		if next == "" {
			break
		}
		cursor = next
	}

	// The final batch may be partial or empty.
	if err := ir.flush(ctx, batch); err != nil {
		return adjusted, err
	}
	adjusted += len(batch)

	log.Info().Int("adjusted", adjusted).Msg("Inventory reconciliation complete")
	return adjusted, nil
}

// flush issues one bulk adjustment call.
func (ir *InventoryReconciler) flush(ctx context.Context, batch []shopify.InventoryAdjustment) error {
	if len(batch) == 0 {
		return nil
	}
	if ir.dryRun {
		logging.FromContext(ctx).Info().Int("batch", len(batch)).Msg("Dry run: would adjust inventory")
		return nil
	}
	return ir.client.BulkAdjustInventory(ctx, ir.locationID, batch)
}

// percent is a bounded integer percentage; a zero denominator reads as done.
func percent(n, total int) int {
	if total <= 0 {
		return 100
	}
	p := 100 * n / total
	if p > 100 {
		p = 100
	}
	return p
}
