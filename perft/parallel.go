package perft

import (
	"context"
	"sync/atomic"

	"github.com/brensch/snekperft/game"
	"github.com/brensch/snekperft/movegen"
	"github.com/brensch/snekperft/rules"
	"golang.org/x/sync/errgroup"
)

// Parallel computes Count with the first turn's move-sets spread over at most
// workers goroutines (unlimited if workers <= 0). Branches share only the
// read-only root, so the result always equals Count.
//
// ctx only stops new branches from being scheduled; a running branch finishes
// its subtree.
func Parallel(ctx context.Context, req *game.Request, depth uint, workers int) (uint64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	if depth == 0 {
		return 1, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	var total atomic.Uint64
schedule:
	for _, you := range movegen.Viewpoint(req) {
		for _, set := range movegen.All(req, you) {
			if gctx.Err() != nil {
				break schedule
			}
			set := set
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				next, err := rules.Step(req, set)
				if err != nil {
					return err
				}
				n, err := Perft(next, depth-1, nil)
				if err != nil {
					return err
				}
				total.Add(n)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return total.Load(), nil
}
