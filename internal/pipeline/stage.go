// Package pipeline implements the Pipeline Executor (C6): stage grouping,
// validate-first execution with rollback on failure, cooperative
// cancellation, and weighted progress reporting.
package pipeline

import "github.com/sceneforged/sceneforged/internal/actions"

// channelled is implemented by actions that can conflict over an output
// channel when run concurrently (spec §4.6's stage-grouping rule c).
// Actions that don't implement it are assumed to never collide with
// another instance of a different type.
type channelled interface {
	OutputChannel() string
}

// Stage is a set of actions executed concurrently (or, for a
// non-parallelizable stage, alone).
type Stage []actions.Action

// GroupStages implements spec §4.6's greedy stage grouping: an action joins
// the current stage iff (a) it is parallelizable, (b) every action already
// in the stage is parallelizable, and (c) no action in the stage writes the
// same output channel. The first non-parallelizable action terminates the
// current stage and starts a new one alone.
func GroupStages(list []actions.Action) []Stage {
	var stages []Stage
	var current Stage
	usedChannels := map[string]bool{}

	flush := func() {
		if len(current) > 0 {
			stages = append(stages, current)
			current = nil
			usedChannels = map[string]bool{}
		}
	}

	for _, a := range list {
		if !a.Parallelizable() {
			flush()
			stages = append(stages, Stage{a})
			continue
		}
		channel, hasChannel := "", false
		if c, ok := a.(channelled); ok {
			channel = c.OutputChannel()
			hasChannel = true
		}
		if hasChannel && usedChannels[channel] {
			flush()
		}
		current = append(current, a)
		if hasChannel {
			usedChannels[channel] = true
		}
	}
	flush()
	return stages
}
