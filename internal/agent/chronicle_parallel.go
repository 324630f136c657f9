package agent

import (
	"context"
	"fmt"

	"github.com/mhuss/foresight/internal/checkpoint"
	"github.com/mhuss/foresight/internal/model"
	"github.com/mhuss/foresight/internal/worker"
)

// chronicleJob runs the per-seed state machine inside the worker pool.
type chronicleJob struct {
	chronicler *Chronicler
	seed       model.Seed
	index      int
	total      int
}

// chronicleResult is one finished seed. A nil Case with a nil error
// means the chain broke at depth 1 and the seed was discarded.
type chronicleResult struct {
	Case *model.Case
	Seed string
	Err  error
}

// GetError returns the failure, if any.
func (r *chronicleResult) GetError() error {
	return r.Err
}

// Execute chronicles the job's seed. Panics are converted into a
// recorded failure so one seed can never abort its siblings.
func (j *chronicleJob) Execute(ctx context.Context) worker.Result {
	result := &chronicleResult{Seed: j.seed.Event}

	defer func() {
		if r := recover(); r != nil {
			result.Case = nil
			result.Err = fmt.Errorf("seed %q: %v", truncate(j.seed.Event, 50), r)
		}
	}()

	fmt.Printf("[%d/%d] ", j.index, j.total)
	if cse, ok := j.chronicler.ChronicleSeed(ctx, j.seed); ok {
		result.Case = cse
	}
	return result
}

// RunParallel chronicles seeds concurrently under a fixed concurrency
// cap. Per-seed work is independent, so results are gathered in
// completion order and merged without further synchronization. The
// coarser checkpoint granularity (one save at the end of the batch) is
// the accepted tradeoff for throughput.
func (c *Chronicler) RunParallel(ctx context.Context, seeds []model.Seed, concurrency int) ([]model.Case, error) {
	var cases []model.Case
	if found, err := c.store.Load(checkpoint.NameCasesPartial, &cases); err != nil {
		return nil, err
	} else if found {
		fmt.Printf("✓ Resuming: %d cases already done\n", len(cases))
	}

	done := make(map[string]bool, len(cases))
	for _, cse := range cases {
		done[cse.CaseID] = true
	}

	var pending []model.Seed
	for _, seed := range seeds {
		if !done[model.CaseID(seed)] {
			pending = append(pending, seed)
		}
	}

	fmt.Printf("\nParallel chronicle: %d seeds, max %d concurrent\n", len(pending), concurrency)

	pool := worker.NewPool(concurrency)
	pool.Start()
	for i, seed := range pending {
		pool.Submit(&chronicleJob{
			chronicler: c,
			seed:       seed,
			index:      i + 1,
			total:      len(pending),
		})
	}
	results := pool.Wait()

	failures := 0
	for _, r := range results {
		res := r.(*chronicleResult)
		if res.Err != nil {
			fmt.Printf("Warning: %v\n", res.Err)
			failures++
			continue
		}
		if res.Case != nil {
			cases = append(cases, *res.Case)
		}
	}

	if err := c.store.Save(checkpoint.NameCasesChronicle, cases); err != nil {
		return nil, err
	}

	fmt.Printf("\n✓ Chronicle complete: %d cases (%d failed seeds)\n", len(cases), failures)
	return cases, nil
}
