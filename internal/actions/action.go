// Package actions implements the Action Library (C5): the capability set
// every pipeline stage action implements, and the six built-ins spec §4.5
// names.
package actions

import (
	"context"

	"github.com/sceneforged/sceneforged/internal/probe"
	"github.com/sceneforged/sceneforged/internal/toolchain"
)

// ProgressFunc reports fractional completion and the current step name.
type ProgressFunc func(fraction float64, step string)

// Ctx is what spec §4.5 calls `ctx`: the workspace, an immutable MediaInfo,
// the dry-run flag, cooperative cancellation, and the progress sink.
type Ctx struct {
	context.Context
	Workspace *toolchain.Workspace
	Info      *probe.MediaInfo
	Tools     *toolchain.Registry
	DryRun    bool
	Progress  ProgressFunc
}

// Cancelled reports whether the cooperative cancellation handle (the
// embedded context.Context) has fired.
func (c *Ctx) Cancelled() bool {
	select {
	case <-c.Done():
		return true
	default:
		return false
	}
}

func (c *Ctx) report(fraction float64, step string) {
	if c.Progress != nil {
		c.Progress(fraction, step)
	}
}

// Action is the capability set every built-in and Exec-escape-hatch action
// implements (spec §4.5).
type Action interface {
	Name() string
	Validate(ctx *Ctx) error
	Execute(ctx *Ctx) error
	Rollback(ctx *Ctx) error
	Parallelizable() bool
	Weight() int
}

// Run drives one action through the dry-run contract: Validate always
// runs; Execute is skipped in dry-run mode, but Progress is still driven to
// completion so the UI reports 100%, per spec §4.5.
func Run(a Action, ctx *Ctx) error {
	if err := a.Validate(ctx); err != nil {
		return err
	}
	if ctx.DryRun {
		ctx.report(1, a.Name()+": dry-run complete")
		return nil
	}
	return a.Execute(ctx)
}

// noopRollback is embedded by actions whose default rollback is a no-op
// (spec §4.5's stated default).
type noopRollback struct{}

func (noopRollback) Rollback(*Ctx) error { return nil }
