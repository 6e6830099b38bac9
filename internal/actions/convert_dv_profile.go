package actions

import (
	"time"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/toolchain"
)

// ConvertDvProfile rewrites the Dolby Vision RPU from profile 7 to profile
// 8 — the only supported conversion direction (spec §4.5).
type ConvertDvProfile struct {
	TargetProfile int
}

func (ConvertDvProfile) Name() string         { return "convert_dv_profile" }
func (ConvertDvProfile) Parallelizable() bool { return false }
func (ConvertDvProfile) Weight() int          { return 3 }

func (c ConvertDvProfile) Validate(ctx *Ctx) error {
	if c.TargetProfile != 8 {
		return apperr.Validation("target_profile", "only conversion to profile 8 is supported")
	}
	v := ctx.Info.PrimaryVideo()
	if v == nil || v.DVInfo == nil {
		return apperr.Validation("source", "no Dolby Vision RPU present")
	}
	if v.DVInfo.Profile != 7 {
		return apperr.Validation("source", "only profile 7 sources can be converted")
	}
	return nil
}

func (c ConvertDvProfile) Execute(ctx *Ctx) error {
	ctx.report(0, "convert_dv_profile: starting")
	cfg, err := ctx.Tools.Require("dovi_tool")
	if err != nil {
		return err
	}
	if err := ctx.Tools.Wait(ctx); err != nil {
		return err
	}

	_, err = toolchain.NewCommand("dovi_tool", cfg.Path, time.Minute*15).
		WithArgs("-m", "2", "convert", "--discard",
			"-i", ctx.Workspace.InputPath(), "-o", ctx.Workspace.OutputPath()).
		Execute(ctx)
	if err != nil {
		return err
	}
	ctx.report(1, "convert_dv_profile: complete")
	return ctx.Workspace.Finalize("orig")
}

// Rollback restores the original file from the workspace backup, per spec
// §4.5. The backup was written by Finalize("orig") during Execute, so a
// failed downstream stage after this action completed can undo it.
func (c ConvertDvProfile) Rollback(ctx *Ctx) error {
	return toolchain.RestoreBackup(ctx.Workspace.InputPath(), "orig")
}
