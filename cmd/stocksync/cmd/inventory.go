package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bulkthreads/stocksync/internal/reconcile"
	"github.com/bulkthreads/stocksync/pkg/constants"
	"github.com/bulkthreads/stocksync/pkg/errors"
	"github.com/bulkthreads/stocksync/pkg/feeds"
	"github.com/bulkthreads/stocksync/pkg/logging"
)

// NewInventoryCommand creates the inventory command.
func NewInventoryCommand(app App) *cobra.Command {
	var (
		suppliers []string
		location  int64
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Reconcile remote inventory levels with supplier feeds",
		Long: `Inventory pages through every remote variant and adjusts its stock
level to the net quantity reported by the supplier feeds. Quantities for
an item carried by multiple feeds are summed. Variants not tracked in
the identity ledger, or absent from every feed, are left untouched.

Adjustments are sent as bulk deltas against the configured location.`,
		Example: `  stocksync inventory                          # reconcile against the default supplier
  stocksync inventory --suppliers alphabroder,sanmar
  stocksync inventory --dry-run                # report deltas only`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), constants.RunTimeout)
			defer cancel()

			client, err := app.Client()
			if err != nil {
				return err
			}
			store, err := app.Store(ctx)
			if err != nil {
				return err
			}

			log := app.Logger()
			ctx = logging.WithLogger(ctx, log)

			if len(suppliers) == 0 {
				schema, err := app.Schema()
				if err != nil {
					return err
				}
				suppliers = []string{schema.Supplier}
			}

			dir, err := app.Feeds().Fetch(ctx)
			if err != nil {
				return err
			}

			var books []*feeds.QuantityBook
			for _, name := range suppliers {
				name = strings.TrimSpace(name)
				schema := feeds.Builtin(name)
				if schema == nil {
					return errors.NewConfigError("inventory", "unknown supplier "+name, nil)
				}
				book, err := feeds.LoadQuantityBook(dir, feeds.NewMapper(schema), schema)
				if err != nil {
					return err
				}
				log.Info().Str("supplier", name).Int("quantities", len(book.Quantities)).Msg("Inventory feed loaded")
				books = append(books, book)
			}

			opts := app.RunOptions()
			if cmd.Flags().Changed("location") {
				opts.LocationID = location
			}
			if dryRun {
				opts.DryRun = true
			}
			if opts.LocationID == 0 {
				return errors.NewConfigError("inventory", "no inventory location configured", nil)
			}

			runner := reconcile.NewRunner(client, store, opts)
			return runner.SyncInventory(ctx, books)
		},
	}

	cmd.Flags().StringSliceVar(&suppliers, "suppliers", nil, "supplier feeds to sum quantities from (default: the configured supplier)")
	cmd.Flags().Int64Var(&location, "location", 0, "remote location id for adjustments (default: SHOPIFY_LOCATION_ID)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report deltas without issuing adjustments")

	return cmd
}
