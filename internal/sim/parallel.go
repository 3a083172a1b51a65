package sim

import (
	"context"
	"sync"
)

// Ensemble runs independent simulators concurrently. Each run owns its
// space, so nothing is shared between goroutines.
type Ensemble struct {
	factory func(run int) (*Simulator, error)
	numRuns int
}

func NewEnsemble(factory func(run int) (*Simulator, error), numRuns int) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sim, err := e.factory(idx)
			if err != nil {
				errs[idx] = err
				return
			}
			defer sim.Space().Close()

			results[idx], errs[idx] = sim.Run(ctx, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
