package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sceneforged/sceneforged/internal/actions"
)

func runExecutor(t *testing.T, list []actions.Action) ([]float64, error) {
	t.Helper()
	exec := NewExecutor(list)
	var fractions []float64
	base := &actions.Ctx{Context: context.Background()}
	err := exec.Run(context.Background(), base, func(fraction float64, step string) {
		fractions = append(fractions, fraction)
	})
	return fractions, err
}

func TestExecutorRunsAllActionsAndReportsMonotonicProgress(t *testing.T) {
	a := &fakeAction{name: "a", weight: 1}
	b := &fakeAction{name: "b", weight: 3}
	fractions, err := runExecutor(t, []actions.Action{a, b})
	require.NoError(t, err)
	require.NotEmpty(t, fractions)

	last := 0.0
	for _, f := range fractions {
		assert.GreaterOrEqual(t, f, last, "progress must be monotonic non-decreasing")
		last = f
	}
	assert.InDelta(t, 1.0, fractions[len(fractions)-1], 0.0001)
}

func TestExecutorValidatesAllActionsBeforeExecutingAny(t *testing.T) {
	var executed int32
	good := &fakeAction{name: "good"}
	bad := &fakeAction{name: "bad", validateErr: errors.New("invalid config")}

	goodWithCounter := &countingAction{fakeAction: good, executed: &executed}

	_, err := runExecutor(t, []actions.Action{goodWithCounter, bad})
	assert.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&executed), "no action should execute when any validation fails")
}

func TestExecutorRollsBackCompletedActionsOnFailure(t *testing.T) {
	var order []string
	first := &fakeAction{name: "first", rollbackFn: func() { order = append(order, "first") }}
	second := &fakeAction{name: "second", executeErr: errors.New("boom")}
	third := &fakeAction{name: "third"}

	_, err := runExecutor(t, []actions.Action{first, second, third})
	assert.Error(t, err)
	assert.Equal(t, []string{"first"}, order, "only actions that completed before the failure roll back; actions after the failed stage never ran")
}

func TestExecutorStopsAtFirstFailure(t *testing.T) {
	first := &fakeAction{name: "first"}
	second := &fakeAction{name: "second", executeErr: errors.New("boom")}
	var thirdRan int32
	third := &countingAction{fakeAction: &fakeAction{name: "third"}, executed: &thirdRan}

	_, err := runExecutor(t, []actions.Action{first, second, third})
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&thirdRan), "a non-parallelizable stage after the failed one must never run")
}

// countingAction wraps a fakeAction to count Execute invocations.
type countingAction struct {
	*fakeAction
	executed *int32
}

func (c *countingAction) Execute(ctx *actions.Ctx) error {
	atomic.AddInt32(c.executed, 1)
	return c.fakeAction.Execute(ctx)
}
