package actions

import (
	"fmt"
	"os"
	"time"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/toolchain"
)

// TranscodeUniversal produces a profile-B MP4: H.264 High ≤ 4.1, fixed GOP
// = 2×fps, AAC-LC stereo 48 kHz, moov-before-mdat, interleaved samples,
// resolution capped to 1920×1080 preserving aspect (spec §4.5).
type TranscodeUniversal struct {
	CRF          int
	Preset       string
	AudioBitrate string
	AdaptiveCRF  bool
}

func (TranscodeUniversal) Name() string         { return "transcode_universal" }
func (TranscodeUniversal) Parallelizable() bool { return false }
func (TranscodeUniversal) Weight() int          { return 10 }

func (t TranscodeUniversal) Validate(ctx *Ctx) error {
	if ctx.Info.PrimaryVideo() == nil {
		return apperr.Validation("source", "no video track to transcode")
	}
	if t.CRF < 0 || t.CRF > 51 {
		return apperr.Validation("crf", "must be in [0,51]")
	}
	return nil
}

func (t TranscodeUniversal) Execute(ctx *Ctx) error {
	ctx.report(0, "transcode_universal: starting")
	cfg, err := ctx.Tools.Require("ffmpeg")
	if err != nil {
		return err
	}
	if err := ctx.Tools.Wait(ctx); err != nil {
		return err
	}

	v := ctx.Info.PrimaryVideo()
	fps := v.FrameRate
	if fps <= 0 {
		fps = 24
	}
	gop := int(2 * fps)

	crf := t.CRF
	if t.AdaptiveCRF && (v.HDRFormat != "" || v.BitDepth > 8) {
		crf-- // one step higher quality for sources that started HDR/high-bit-depth
	}

	scaleFilter := "scale='min(1920,iw)':'min(1080,ih)':force_original_aspect_ratio=decrease"

	args := []string{
		"-y", "-i", ctx.Workspace.InputPath(),
		"-map", "0:v:0", "-map", "0:a:0?",
		"-vf", scaleFilter,
		"-c:v", "libx264", "-profile:v", "high", "-level", "4.1",
		"-preset", t.Preset, "-crf", fmt.Sprintf("%d", crf),
		"-g", fmt.Sprintf("%d", gop), "-keyint_min", fmt.Sprintf("%d", gop), "-sc_threshold", "0",
		"-c:a", "aac", "-b:a", t.AudioBitrate, "-ac", "2", "-ar", "48000",
		"-movflags", "+faststart",
		ctx.Workspace.OutputPath(),
	}

	// Transcodes run long enough that a transient encoder hiccup (timeout,
	// momentary hardware-encoder failure) shouldn't cost a full job retry
	// cycle; -y makes a re-run safe to repeat against the same output path.
	timeout := 4 * time.Hour
	_, err = toolchain.NewCommand("ffmpeg", cfg.Path, timeout).WithArgs(args...).WithRetries(2).Execute(ctx)
	if err != nil {
		return err
	}
	ctx.report(1, "transcode_universal: complete")
	return ctx.Workspace.Finalize("")
}

// Rollback deletes the staged output, per spec §4.5.
func (t TranscodeUniversal) Rollback(ctx *Ctx) error {
	return os.Remove(ctx.Workspace.OutputPath())
}
