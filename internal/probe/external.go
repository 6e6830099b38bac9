package probe

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

// ExternalBackend shells to ffprobe and maps its JSON output to MediaInfo,
// per spec §4.1 bullet 2. Grounded on the teacher's internal/ffmpeg.FFprobe,
// trimmed to the fields classification and the rule engine need and
// restructured to populate MediaInfo directly instead of a probe-specific
// result type with getter methods.
type ExternalBackend struct {
	path string
}

func NewExternalBackend(ffprobePath string) Backend {
	return ExternalBackend{path: ffprobePath}
}

func (ExternalBackend) Name() string { return "external" }

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type ffprobeStream struct {
	Index          int               `json:"index"`
	CodecType      string            `json:"codec_type"`
	CodecName      string            `json:"codec_name"`
	Profile        string            `json:"profile"`
	Level          int               `json:"level"`
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	Channels       int               `json:"channels"`
	SampleRate     string            `json:"sample_rate"`
	BitsPerRawSample string          `json:"bits_per_raw_sample"`
	ColorTransfer  string            `json:"color_transfer"`
	ColorPrimaries string            `json:"color_primaries"`
	RFrameRate     string            `json:"r_frame_rate"`
	SideDataList   []ffprobeSideData `json:"side_data_list"`
	Tags           map[string]string `json:"tags"`
	Disposition    ffprobeDisposition `json:"disposition"`
}

type ffprobeSideData struct {
	SideDataType string `json:"side_data_type"`
	DvProfile    int    `json:"dv_profile"`
	DvBlPresent  int    `json:"dv_bl_present_flag"`
	DvElPresent  int    `json:"dv_el_present_flag"`
	DvRpuPresent int    `json:"dv_rpu_present_flag"`
}

type ffprobeDisposition struct {
	Default int `json:"default"`
	Forced  int `json:"forced"`
	HearingImpaired int `json:"hearing_impaired"`
}

func (b ExternalBackend) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, b.path,
		"-v", "quiet", "-print_format", "json",
		"-show_format", "-show_streams", path)
	out, err := cmd.Output()
	if err != nil {
		return nil, apperr.Tool("ffprobe", "NonZeroExit", err.Error())
	}

	var result ffprobeOutput
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, apperr.Tool("ffprobe", "Unparseable", err.Error())
	}

	info := &MediaInfo{Path: path, Container: containerFromFormatName(result.Format.FormatName)}
	if info.Container == ContainerUnknown {
		return nil, apperr.Probe("UnsupportedContainer", result.Format.FormatName)
	}
	if d, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil {
		info.Duration = d
	}
	if sz, err := strconv.ParseInt(result.Format.Size, 10, 64); err == nil {
		info.Size = sz
	}
	// The external backend cannot observe faststart/GOP structure from
	// ffprobe's stream-level JSON alone; conservatively assume neither holds
	// so the HLS eligibility gate (§4.9.1) never passes on inferred data.
	info.HasFaststart = false
	info.FixedGOP = false

	for _, s := range result.Streams {
		switch s.CodecType {
		case "video":
			info.Video = append(info.Video, b.buildVideoTrack(s))
		case "audio":
			info.Audio = append(info.Audio, b.buildAudioTrack(s))
		case "subtitle":
			info.Subtitle = append(info.Subtitle, SubtitleTrack{
				Index:     len(info.Subtitle),
				Codec:     s.CodecName,
				Language:  s.Tags["language"],
				IsForced:  s.Disposition.Forced == 1,
				IsSDH:     s.Disposition.HearingImpaired == 1,
				IsDefault: s.Disposition.Default == 1,
			})
		}
	}

	if len(info.Video) == 0 {
		return nil, apperr.Probe("UnknownCodec", "no video stream reported")
	}
	return info, nil
}

func containerFromFormatName(name string) Container {
	switch {
	case strings.Contains(name, "mp4") || strings.Contains(name, "mov"):
		return ContainerMP4
	case strings.Contains(name, "matroska") || strings.Contains(name, "webm"):
		return ContainerMatroska
	default:
		return ContainerUnknown
	}
}

func (ExternalBackend) buildVideoTrack(s ffprobeStream) VideoTrack {
	vt := VideoTrack{
		Index:        s.Index,
		Codec:        s.CodecName,
		CodecProfile: s.Profile,
		Width:        s.Width,
		Height:       s.Height,
		BitDepth:     8,
		IsDefault:    s.Disposition.Default == 1,
	}
	if s.Level > 0 {
		vt.CodecLevel = formatH264Level(s.Level)
	}
	if bd, err := strconv.Atoi(s.BitsPerRawSample); err == nil && bd > 0 {
		vt.BitDepth = bd
	}
	if num, den, ok := strings.Cut(s.RFrameRate, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN == nil && errD == nil && d != 0 {
			vt.FrameRate = n / d
		}
	}

	for _, sd := range s.SideDataList {
		if sd.SideDataType == "DOVI configuration record" || sd.SideDataType == "Dolby Vision RPU Data" {
			vt.HDRFormat = HDRDolbyVision
			vt.DVInfo = &DVInfo{
				Profile:    sd.DvProfile,
				RPUPresent: sd.DvRpuPresent == 1,
				ELPresent:  sd.DvElPresent == 1,
				BLPresent:  sd.DvBlPresent == 1,
			}
		}
		if strings.Contains(strings.ToLower(sd.SideDataType), "hdr10+") || strings.Contains(strings.ToLower(sd.SideDataType), "dynamic hdr") {
			if vt.HDRFormat == "" {
				vt.HDRFormat = HDR10Plus
			}
		}
	}
	if vt.HDRFormat == "" {
		switch s.ColorTransfer {
		case "smpte2084":
			vt.HDRFormat = HDR10
		case "arib-std-b67":
			vt.HDRFormat = HDRHLG
		}
	}
	return vt
}

func (ExternalBackend) buildAudioTrack(s ffprobeStream) AudioTrack {
	at := AudioTrack{
		Index:     s.Index,
		Codec:     s.CodecName,
		Channels:  s.Channels,
		Language:  s.Tags["language"],
		IsDefault: s.Disposition.Default == 1,
	}
	if sr, err := strconv.Atoi(s.SampleRate); err == nil {
		at.SampleRate = sr
	}
	profile := strings.ToLower(s.Profile)
	if strings.Contains(profile, "atmos") || (s.CodecName == "truehd" && s.Channels > 8) {
		at.HasAtmos = true
	}
	return at
}
