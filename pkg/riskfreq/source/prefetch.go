package source

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Fetched is the outcome of one prefetched location.
type Fetched struct {
	Location string
	Text     string
	Err      error
}

// Prefetch fetches every location with at most workers requests in flight.
// Results keep the order of locations. Per-location failures are reported in
// Fetched.Err; only context cancellation aborts the batch.
func Prefetch(ctx context.Context, f Fetcher, locations []string, workers int) ([]Fetched, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make([]Fetched, len(locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, loc := range locations {
		i, loc := i, loc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := f.Fetch(gctx, loc)
			out[i] = Fetched{Location: loc, Text: text, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
