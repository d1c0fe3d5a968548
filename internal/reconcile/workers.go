package reconcile

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bulkthreads/stocksync/pkg/catalog"
	"github.com/bulkthreads/stocksync/pkg/logging"
)

// distribute fans container groups out to a fixed-size worker pool. Workers
// claim the next unclaimed group off a shared atomic index, so slow and fast
// groups self-balance instead of being statically partitioned. Within one
// group finalization is strictly sequential; groups have no ordering
// relative to one another.
//
// The returned flag is true only when no worker reported a hard failure; it
// gates whether the ledger is persisted for the run.
func distribute(ctx context.Context, groups []*catalog.Group, workers int, fn func(context.Context, *catalog.Group) error) bool {
	if len(groups) == 0 {
		return true
	}
	if workers < 1 {
		workers = 1
	}

	var next atomic.Int64
	var failed atomic.Bool
	var done atomic.Int64
	total := int64(len(groups))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			wctx := logging.WithWorker(ctx, worker)
			log := logging.FromContext(wctx)

			for {
				i := next.Add(1) - 1
				if i >= total {
					return
				}
				if ctx.Err() != nil {
					failed.Store(true)
					return
				}

				g := groups[i]
				if err := fn(logging.WithStyle(wctx, g.Style), g); err != nil {
					// A hard failure abandons only this group's remaining
					// work; the worker moves on to the next group.
					log.Error().Err(err).Str("style", g.Style).Msg("Group finalization failed")
					failed.Store(true)
				}

				n := done.Add(1)
				log.Info().
					Int64("completed", n).
					Int64("total", total).
					Int64("percent", 100*n/total).
					Msg("Finalization progress")
			}
		}(w)
	}
	wg.Wait()

	return !failed.Load()
}
