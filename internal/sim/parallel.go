package sim

import (
	"context"
	"sync"

	"github.com/san-kum/nanosim/internal/dynamo"
)

// Ensemble runs independent simulations of the same initial universe with
// consecutive seeds. Each run owns its timeline; runs share nothing but the
// propagator, which must be pure. Options are applied to every run, so
// they must not carry per-run state such as a step source or a metric.
type Ensemble struct {
	initial   dynamo.Universe
	prop      dynamo.Propagator
	numRuns   int
	seedStart int64
	opts      []Option
}

func NewEnsemble(initial dynamo.Universe, prop dynamo.Propagator, numRuns int, seedStart int64, opts ...Option) *Ensemble {
	return &Ensemble{initial: initial, prop: prop, numRuns: numRuns, seedStart: seedStart, opts: opts}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			s, err := New(e.initial, e.prop, cfgCopy, e.opts...)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx)
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
