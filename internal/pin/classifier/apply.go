package classifier

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"pinpool/internal/pin/models"
)

// Apply classifies pins in parallel chunks, marks every NotAllowed match in
// place and returns the changed subset in ascending code order.
// Records already NotAllowed are left untouched and not returned.
// workers <= 0 uses GOMAXPROCS.
func Apply(ctx context.Context, pins []*models.PIN, workers int) ([]*models.PIN, error) {
	if len(pins) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (len(pins) + workers - 1) / workers

	var (
		mu      sync.Mutex
		changed []*models.PIN
	)
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(pins); start += chunk {
		end := min(start+chunk, len(pins))
		part := pins[start:end]
		g.Go(func() error {
			var local []*models.PIN
			for _, p := range part {
				if err := ctx.Err(); err != nil {
					return err
				}
				if p.State == models.StateNotAllowed {
					continue
				}
				if Classify(p.Code) == NotAllowed {
					p.State = models.StateNotAllowed
					local = append(local, p)
				}
			}
			mu.Lock()
			changed = append(changed, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(changed, func(i, j int) bool { return changed[i].Code < changed[j].Code })
	return changed, nil
}
