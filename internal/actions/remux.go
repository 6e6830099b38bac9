package actions

import (
	"os"
	"time"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/toolchain"
)

// Remux copies streams into a new container without re-encoding.
type Remux struct {
	TargetContainer string // "mkv" or "mp4"
	KeepOriginal    bool
}

func (Remux) Name() string         { return "remux" }
func (Remux) Parallelizable() bool { return false }
func (Remux) Weight() int          { return 1 }

func (r Remux) Validate(ctx *Ctx) error {
	if r.TargetContainer != "mkv" && r.TargetContainer != "mp4" {
		return apperr.Validation("target_container", "must be mkv or mp4")
	}
	if ctx.Info.PrimaryVideo() == nil {
		return apperr.Validation("source", "no video track to remux")
	}
	return nil
}

func (r Remux) Execute(ctx *Ctx) error {
	ctx.report(0, "remux: starting")
	cfg, err := ctx.Tools.Require("ffmpeg")
	if err != nil {
		return err
	}
	if err := ctx.Tools.Wait(ctx); err != nil {
		return err
	}

	out, err := toolchain.NewCommand("ffmpeg", cfg.Path, time.Minute*30).
		WithArgs("-y", "-i", ctx.Workspace.InputPath(), "-c", "copy", ctx.Workspace.OutputPath()).
		Execute(ctx)
	if err != nil {
		return err
	}
	_ = out
	ctx.report(1, "remux: complete")

	backupExt := ""
	if r.KeepOriginal {
		backupExt = "orig"
	}
	return ctx.Workspace.Finalize(backupExt)
}

// Rollback deletes the staged output, per spec §4.5.
func (r Remux) Rollback(ctx *Ctx) error {
	return os.Remove(ctx.Workspace.OutputPath())
}
