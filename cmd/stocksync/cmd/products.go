package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bulkthreads/stocksync/internal/reconcile"
	"github.com/bulkthreads/stocksync/pkg/constants"
	"github.com/bulkthreads/stocksync/pkg/feeds"
	"github.com/bulkthreads/stocksync/pkg/logging"
)

// NewProductsCommand creates the products command.
func NewProductsCommand(app App) *cobra.Command {
	var (
		limit        int
		workers      int
		skipExisting bool
		forceRefresh bool
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "products",
		Short: "Reconcile supplier product feeds with the remote catalog",
		Long: `Products reads the configured supplier's product feed, matches every
item against the remote catalog and the persisted identity ledger, and
creates any missing variants.

Items already known to the ledger are skipped. New items are bin-packed
into containers under the remote variant cap, keeping each color's sizes
together; overflow opens an additional container for the style. The
ledger is persisted only when the run finishes without hard remote
failures, so an interrupted run is safe to repeat.`,
		Example: `  stocksync products                       # full reconciliation run
  stocksync products --limit 500           # cap processed items
  stocksync products --dry-run             # log intended writes only
  stocksync products --force-refresh       # re-treat all feed items as new`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), constants.RunTimeout)
			defer cancel()

			schema, err := app.Schema()
			if err != nil {
				return err
			}
			mapper := feeds.NewMapper(schema)

			client, err := app.Client()
			if err != nil {
				return err
			}
			store, err := app.Store(ctx)
			if err != nil {
				return err
			}

			log := app.Logger().With().Str("supplier", schema.Supplier).Logger()
			ctx = logging.WithLogger(ctx, &log)

			dir, err := app.Feeds().Fetch(ctx)
			if err != nil {
				return err
			}
			items, err := feeds.LoadItems(dir, mapper, schema)
			if err != nil {
				return err
			}
			prices, err := feeds.LoadPriceBook(dir, mapper, schema)
			if err != nil {
				return err
			}
			log.Info().Int("items", len(items)).Int("prices", len(prices)).Msg("Feed loaded")

			opts := app.RunOptions()
			if cmd.Flags().Changed("limit") {
				opts.Limit = limit
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}
			if cmd.Flags().Changed("skip-existing") {
				opts.SkipExisting = skipExisting
			}
			if forceRefresh {
				opts.ForceRefresh = true
			}
			if dryRun {
				opts.DryRun = true
			}

			runner := reconcile.NewRunner(client, store, opts)
			runner.SetImageURLResolver(mapper.ImageURL)
			return runner.SyncProducts(ctx, items, prices)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "cap the number of items processed (0 = unlimited)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (0 = default)")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", true, "skip items already in the ledger")
	cmd.Flags().BoolVar(&forceRefresh, "force-refresh", false, "drop ledger entries for feed items and reprocess them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log intended writes without touching the remote")

	return cmd
}
