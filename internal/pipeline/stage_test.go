package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sceneforged/sceneforged/internal/actions"
)

// fakeAction is a minimal actions.Action for exercising stage grouping and
// executor behavior without touching ffmpeg/toolchain.
type fakeAction struct {
	name           string
	parallelizable bool
	weight         int
	channel        string
	validateErr    error
	executeErr     error
	rollbackFn     func()
}

func (f *fakeAction) Name() string         { return f.name }
func (f *fakeAction) Parallelizable() bool { return f.parallelizable }
func (f *fakeAction) Weight() int {
	if f.weight == 0 {
		return 1
	}
	return f.weight
}
func (f *fakeAction) Validate(*actions.Ctx) error { return f.validateErr }
func (f *fakeAction) Execute(ctx *actions.Ctx) error {
	if ctx.Progress != nil {
		ctx.Progress(1, f.name+": done")
	}
	return f.executeErr
}
func (f *fakeAction) Rollback(*actions.Ctx) error {
	if f.rollbackFn != nil {
		f.rollbackFn()
	}
	return nil
}
func (f *fakeAction) OutputChannel() string { return f.channel }

var _ actions.Action = (*fakeAction)(nil)

func TestGroupStagesSequentialActionsEachGetOwnStage(t *testing.T) {
	a := &fakeAction{name: "a", parallelizable: false}
	b := &fakeAction{name: "b", parallelizable: false}
	stages := GroupStages([]actions.Action{a, b})
	assert.Len(t, stages, 2)
	assert.Len(t, stages[0], 1)
	assert.Len(t, stages[1], 1)
}

func TestGroupStagesParallelActionsShareOneStage(t *testing.T) {
	a := &fakeAction{name: "a", parallelizable: true, channel: "audio:en"}
	b := &fakeAction{name: "b", parallelizable: true, channel: "audio:fr"}
	stages := GroupStages([]actions.Action{a, b})
	assert.Len(t, stages, 1)
	assert.Len(t, stages[0], 2)
}

func TestGroupStagesSplitsOnSameOutputChannel(t *testing.T) {
	a := &fakeAction{name: "a", parallelizable: true, channel: "audio:en"}
	b := &fakeAction{name: "b", parallelizable: true, channel: "audio:en"}
	stages := GroupStages([]actions.Action{a, b})
	assert.Len(t, stages, 2, "two actions writing the same channel must not share a stage")
}

func TestGroupStagesFirstSequentialTerminatesCurrentStage(t *testing.T) {
	p1 := &fakeAction{name: "p1", parallelizable: true, channel: "audio:en"}
	p2 := &fakeAction{name: "p2", parallelizable: true, channel: "audio:fr"}
	seq := &fakeAction{name: "seq", parallelizable: false}
	p3 := &fakeAction{name: "p3", parallelizable: true, channel: "audio:de"}

	stages := GroupStages([]actions.Action{p1, p2, seq, p3})
	if assert.Len(t, stages, 3) {
		assert.Len(t, stages[0], 2)
		assert.Len(t, stages[1], 1)
		assert.Len(t, stages[2], 1)
	}
}

func TestGroupStagesPreservesOrderAndPartitionsEveryAction(t *testing.T) {
	list := []actions.Action{
		&fakeAction{name: "a", parallelizable: true, channel: "1"},
		&fakeAction{name: "b", parallelizable: false},
		&fakeAction{name: "c", parallelizable: true, channel: "2"},
		&fakeAction{name: "d", parallelizable: true, channel: "3"},
	}
	stages := GroupStages(list)

	var flattened []actions.Action
	for _, s := range stages {
		for _, a := range s {
			// every action in a multi-action stage must be parallelizable
			if len(s) > 1 {
				assert.True(t, a.Parallelizable())
			}
			flattened = append(flattened, a)
		}
	}
	assert.Equal(t, list, flattened, "stage grouping must be an order-preserving partition of the input")
}
