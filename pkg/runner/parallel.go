package runner

import (
	"context"
	"sync"

	"digital.vasic.apisuite/pkg/scenario"
)

// RunParallel executes scenarios concurrently with a semaphore
// limiting maxConcurrency goroutines. Results are returned in
// the same order as the input. Scenarios still waiting for a
// slot when ctx is done are reported as skipped.
func (r *Runner) RunParallel(
	ctx context.Context,
	scenarios []scenario.Scenario,
	maxConcurrency int,
) scenario.Results {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	sem := make(chan struct{}, maxConcurrency)
	ordered := make(scenario.Results, len(scenarios))

	var wg sync.WaitGroup
	for i, s := range scenarios {
		wg.Add(1)
		go func(idx int, s scenario.Scenario) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				ordered[idx] = r.skip(s, "run cancelled")
				return
			}

			if ctx.Err() != nil {
				ordered[idx] = r.skip(s, "run cancelled")
				return
			}
			ordered[idx] = r.Run(ctx, s)
		}(i, s)
	}
	wg.Wait()

	return ordered
}
