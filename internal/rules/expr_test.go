package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sceneforged/sceneforged/internal/probe"
)

func dvInfo(dolbyVision *probe.MediaInfo, profile int) *probe.MediaInfo {
	dolbyVision.Video[0].DVInfo = &probe.DVInfo{Profile: profile, RPUPresent: true}
	return dolbyVision
}

func hevcHDR10(height int) *probe.MediaInfo {
	return &probe.MediaInfo{
		Container: probe.ContainerMatroska,
		Video: []probe.VideoTrack{{
			Codec: "hevc", HDRFormat: probe.HDR10, Height: height, Width: height * 16 / 9, BitDepth: 10,
		}},
		Audio: []probe.AudioTrack{{Codec: "eac3"}},
	}
}

func TestAndOrNot(t *testing.T) {
	info := hevcHDR10(2160)

	assert.True(t, And{CodecIn{"hevc"}, HdrIn{"hdr10", "dv"}}.Eval(info))
	assert.False(t, And{CodecIn{"hevc"}, HdrIn{"sdr"}}.Eval(info))
	assert.True(t, Or{CodecIn{"h264"}, CodecIn{"hevc"}}.Eval(info))
	assert.True(t, Not{Expr: CodecIn{"h264"}}.Eval(info))
	assert.False(t, Not{Expr: CodecIn{"hevc"}}.Eval(info))
}

func TestAndShortCircuitsOnFirstFalse(t *testing.T) {
	info := hevcHDR10(2160)
	expr := And{CodecIn{"av1"}, Not{}} // Not{} has a nil child and panics if evaluated
	assert.False(t, expr.Eval(info))
}

func TestDvProfileInRequiresDVInfo(t *testing.T) {
	info := hevcHDR10(2160)
	assert.False(t, DvProfileIn{7, 8}.Eval(info), "no DVInfo present")

	info = dvInfo(info, 7)
	assert.True(t, DvProfileIn{7, 8}.Eval(info))
	assert.False(t, DvProfileIn{5}.Eval(info))
}

func TestMinMaxResolution(t *testing.T) {
	info := hevcHDR10(1080)
	assert.True(t, MinResolution{W: 1280, H: 720}.Eval(info))
	assert.False(t, MinResolution{W: 3840, H: 2160}.Eval(info))
	assert.True(t, MaxResolution{W: 1920, H: 1080}.Eval(info))
	assert.False(t, MaxResolution{W: 100, H: 100}.Eval(info))
}

func TestAudioLeavesAndMissingTracks(t *testing.T) {
	empty := &probe.MediaInfo{}
	assert.False(t, CodecIn{"h264"}.Eval(empty))
	assert.False(t, AudioCodecIn{"aac"}.Eval(empty))
	assert.False(t, HasAtmos(true).Eval(empty))

	info := hevcHDR10(2160)
	assert.True(t, AudioCodecIn{"eac3", "truehd"}.Eval(info))
	assert.False(t, HasAtmos(true).Eval(info))
}

func TestFileExtInCaseInsensitiveAndDotOptional(t *testing.T) {
	info := &probe.MediaInfo{Path: "/lib/movies/Movie.MKV"}
	assert.True(t, FileExtIn{"mkv", "mp4"}.Eval(info))
	assert.True(t, FileExtIn{".mkv"}.Eval(info))
	assert.False(t, FileExtIn{"mp4"}.Eval(info))
}

func TestMinBitDepth(t *testing.T) {
	info := hevcHDR10(2160)
	assert.True(t, MinBitDepth(8).Eval(info))
	assert.True(t, MinBitDepth(10).Eval(info))
	assert.False(t, MinBitDepth(12).Eval(info))
}
