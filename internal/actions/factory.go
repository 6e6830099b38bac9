package actions

import (
	"github.com/spf13/cast"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

// Build constructs the Action named by actionName from the rule's opaque
// arg map, the same coercion style internal/config uses for admin-editable
// settings (spf13/cast, lenient string/number conversion) rather than a
// strict schema per action.
func Build(actionName string, args map[string]any) (Action, error) {
	switch actionName {
	case "transcode_universal":
		return TranscodeUniversal{
			CRF:          cast.ToInt(orDefault(args["crf"], 20)),
			Preset:       cast.ToString(orDefault(args["preset"], "medium")),
			AudioBitrate: cast.ToString(orDefault(args["audio_bitrate"], "160k")),
			AdaptiveCRF:  cast.ToBool(args["adaptive_crf"]),
		}, nil
	case "remux":
		return Remux{
			TargetContainer: cast.ToString(orDefault(args["target_container"], "mp4")),
			KeepOriginal:    cast.ToBool(args["keep_original"]),
		}, nil
	case "strip_tracks":
		return StripTracks{
			Types:         cast.ToStringSlice(args["types"]),
			LanguagesKeep: cast.ToStringSlice(args["languages_keep"]),
		}, nil
	case "add_compat_audio":
		return AddCompatAudio{
			SourceCodec: cast.ToString(args["source_codec"]),
			TargetCodec: cast.ToString(orDefault(args["target_codec"], "aac")),
			SourceTrack: cast.ToInt(args["source_track"]),
			Language:    cast.ToString(orDefault(args["language"], "und")),
		}, nil
	case "convert_dv_profile":
		return ConvertDvProfile{
			TargetProfile: cast.ToInt(orDefault(args["target_profile"], 8)),
		}, nil
	case "exec":
		return Exec{
			Tool:    cast.ToString(args["tool"]),
			Args:    cast.ToStringSlice(args["args"]),
			Timeout: cast.ToDuration(orDefault(args["timeout"], "60s")),
		}, nil
	default:
		return nil, apperr.Validation("action", "unknown action "+actionName)
	}
}

// BuildAll resolves an ordered list of (name, args) pairs into the Action
// slice the pipeline executor groups into stages (spec §3: Rule carries an
// "ordered list of ActionConfig").
func BuildAll(configs []Config) ([]Action, error) {
	out := make([]Action, 0, len(configs))
	for _, c := range configs {
		a, err := Build(c.Name, c.Args)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Config is the factory-facing mirror of rules.ActionConfig, kept separate
// so this package has no import dependency on internal/rules.
type Config struct {
	Name string
	Args map[string]any
}

func orDefault(v any, def any) any {
	if v == nil {
		return def
	}
	return v
}
