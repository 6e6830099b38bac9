package actions

import (
	"strconv"
	"time"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/toolchain"
)

// StripTracks removes tracks outside the keep set (spec §4.5).
type StripTracks struct {
	noopRollback
	Types         []string // subset of "video","audio","subtitle"
	LanguagesKeep []string
}

func (StripTracks) Name() string         { return "strip_tracks" }
func (StripTracks) Parallelizable() bool { return false }
func (StripTracks) Weight() int          { return 1 }

func (s StripTracks) Validate(ctx *Ctx) error {
	for _, t := range s.Types {
		switch t {
		case "video", "audio", "subtitle":
		default:
			return apperr.Validation("types", "unknown track type "+t)
		}
	}
	return nil
}

func (s StripTracks) Execute(ctx *Ctx) error {
	ctx.report(0, "strip_tracks: starting")
	cfg, err := ctx.Tools.Require("ffmpeg")
	if err != nil {
		return err
	}
	if err := ctx.Tools.Wait(ctx); err != nil {
		return err
	}

	args := []string{"-y", "-i", ctx.Workspace.InputPath(), "-map", "0"}
	keep := make(map[string]bool, len(s.LanguagesKeep))
	for _, l := range s.LanguagesKeep {
		keep[l] = true
	}
	strip := make(map[string]bool, len(s.Types))
	for _, t := range s.Types {
		strip[t] = true
	}

	if strip["subtitle"] {
		for i, st := range ctx.Info.Subtitle {
			if !keep[st.Language] {
				args = append(args, "-map", "-0:s:"+strconv.Itoa(i))
			}
		}
	}
	if strip["audio"] {
		for i, at := range ctx.Info.Audio {
			if !keep[at.Language] {
				args = append(args, "-map", "-0:a:"+strconv.Itoa(i))
			}
		}
	}
	if strip["video"] {
		args = append(args, "-map", "-0:v")
	}
	args = append(args, "-c", "copy", ctx.Workspace.OutputPath())

	_, err = toolchain.NewCommand("ffmpeg", cfg.Path, time.Minute*10).WithArgs(args...).Execute(ctx)
	if err != nil {
		return err
	}
	ctx.report(1, "strip_tracks: complete")
	return ctx.Workspace.Finalize("")
}
