package actions

import (
	"time"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/toolchain"
)

// AddCompatAudio adds a secondary audio track transcoded from source_codec
// to target_codec (spec §4.5). Safe to run alongside other AddCompatAudio
// instances for different languages — each targets an independent output
// track index, never the same output channel.
type AddCompatAudio struct {
	noopRollback
	SourceCodec   string
	TargetCodec   string
	SourceTrack   int
	Language      string // distinguishes concurrent instances for stage grouping
}

func (AddCompatAudio) Name() string         { return "add_compat_audio" }
func (AddCompatAudio) Parallelizable() bool { return true }
func (AddCompatAudio) Weight() int          { return 2 }

// OutputChannel identifies which output track this instance writes, so the
// pipeline's stage grouping can tell two concurrent AddCompatAudio actions
// apart (spec §4.6's "none in the stage write the same output channel").
func (a AddCompatAudio) OutputChannel() string { return "audio:" + a.Language }

func (a AddCompatAudio) Validate(ctx *Ctx) error {
	if a.SourceTrack < 0 || a.SourceTrack >= len(ctx.Info.Audio) {
		return apperr.Validation("source_track", "out of range")
	}
	if ctx.Info.Audio[a.SourceTrack].Codec != a.SourceCodec {
		return apperr.Validation("source_codec", "does not match probed track codec")
	}
	return nil
}

func (a AddCompatAudio) Execute(ctx *Ctx) error {
	ctx.report(0, "add_compat_audio: starting")
	cfg, err := ctx.Tools.Require("ffmpeg")
	if err != nil {
		return err
	}
	if err := ctx.Tools.Wait(ctx); err != nil {
		return err
	}
	_, err = toolchain.NewCommand("ffmpeg", cfg.Path, time.Minute*20).
		WithArgs("-y", "-i", ctx.Workspace.InputPath(),
			"-map", "0", "-map", "0:a:0",
			"-c", "copy", "-c:a:1", a.TargetCodec,
			ctx.Workspace.OutputPath()).
		Execute(ctx)
	if err != nil {
		return err
	}
	ctx.report(1, "add_compat_audio: complete")
	return ctx.Workspace.Finalize("")
}
