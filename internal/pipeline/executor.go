package pipeline

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/sceneforged/sceneforged/internal/actions"
)

// ProgressFunc reports the pipeline's overall weighted progress (spec
// §4.6): a monotonic non-decreasing fraction and the current step name.
type ProgressFunc func(fraction float64, step string)

// Executor runs a stage-grouped action list to completion, per spec §4.6.
type Executor struct {
	stages      []Stage
	totalWeight int
}

// NewExecutor groups list into stages and precomputes the total weight used
// for progress weighting.
func NewExecutor(list []actions.Action) *Executor {
	stages := GroupStages(list)
	total := 0
	for _, a := range list {
		total += a.Weight()
	}
	if total == 0 {
		total = 1
	}
	return &Executor{stages: stages, totalWeight: total}
}

// completedRecord tracks one action's completion for reverse-order
// rollback.
type completedRecord struct {
	action actions.Action
	ctx    *actions.Ctx
}

// Run validates every action first (fail fast), then executes stage by
// stage. Within a stage, actions run concurrently (via conc's error-pool,
// matching the teacher pack's bounded-worker idiom), each weighted by
// weight/Σweights for sub-progress. On any failure (including context
// cancellation), the remaining actions in that stage are cancelled, then
// every completed action across the whole run is rolled back in reverse
// order of completion, and the first failure is returned.
func (e *Executor) Run(ctx context.Context, base *actions.Ctx, report ProgressFunc) error {
	if err := e.validateAll(base); err != nil {
		return err
	}

	var mu sync.Mutex
	var completed []completedRecord
	var weightDone int
	var firstErr error

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, stage := range e.stages {
		stageWeight := 0
		for _, a := range stage {
			stageWeight += a.Weight()
		}
		if stageWeight == 0 {
			stageWeight = 1
		}

		p := pool.New().WithErrors().WithContext(runCtx)
		partial := make([]float64, len(stage))
		for i, a := range stage {
			i, a := i, a
			p.Go(func(gctx context.Context) error {
				actionCtx := childCtx(gctx, base, func(fraction float64, step string) {
					mu.Lock()
					defer mu.Unlock()
					if w := fraction * float64(a.Weight()); w > partial[i] {
						partial[i] = w
					}
					sub := float64(weightDone)
					for _, w := range partial {
						sub += w
					}
					report(sub/float64(e.totalWeight), step)
				})
				if err := actions.Run(a, actionCtx); err != nil {
					return err
				}
				mu.Lock()
				completed = append(completed, completedRecord{action: a, ctx: actionCtx})
				mu.Unlock()
				return nil
			})
		}
		err := p.Wait()

		mu.Lock()
		weightDone += stageWeight
		overall := float64(weightDone) / float64(e.totalWeight)
		mu.Unlock()
		report(overall, "stage complete")

		if err != nil {
			firstErr = err
			cancel()
			break
		}
	}

	if firstErr != nil {
		rollbackAll(base, completed)
		return firstErr
	}
	return nil
}

func (e *Executor) validateAll(base *actions.Ctx) error {
	for _, stage := range e.stages {
		for _, a := range stage {
			if err := a.Validate(base); err != nil {
				return err
			}
		}
	}
	return nil
}

// rollbackAll runs Rollback on every completed action in reverse order of
// completion, per spec §4.6.
func rollbackAll(base *actions.Ctx, completed []completedRecord) {
	for i := len(completed) - 1; i >= 0; i-- {
		rec := completed[i]
		_ = rec.action.Rollback(rec.ctx)
	}
}

func childCtx(ctx context.Context, base *actions.Ctx, fn actions.ProgressFunc) *actions.Ctx {
	clone := *base
	clone.Context = ctx
	clone.Progress = fn
	return &clone
}
