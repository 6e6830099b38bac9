package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTypicalSceneRelease(t *testing.T) {
	info := Parse("The.Matrix.1999.1080p.BluRay.x264-GROUP")
	assert.Equal(t, "The Matrix", info.Title)
	assert.Equal(t, 1999, info.Year)
	assert.Equal(t, "1080p", info.Resolution)
	assert.Equal(t, "BluRay", info.Source)
	assert.Equal(t, "h264", info.VideoCodec)
	assert.Equal(t, "GROUP", info.Group)
}

func TestParseWebRipWithVideoCodec(t *testing.T) {
	info := Parse("Some.Show.720p.WEBRip.x264-GROUP")
	assert.Equal(t, "720p", info.Resolution)
	assert.Equal(t, "WEBRip", info.Source)
	assert.Equal(t, "h264", info.VideoCodec)
}

func TestParseHEVCRemux(t *testing.T) {
	info := Parse("Movie.Title.2021.2160p.UHD.BluRay.REMUX.HEVC.TrueHD-GROUP")
	assert.Equal(t, "2160p", info.Resolution)
	assert.Equal(t, "hevc", info.VideoCodec)
	assert.Equal(t, "truehd", info.AudioCodec)
}

func TestParseRevisionTag(t *testing.T) {
	info := Parse("Movie.2020.1080p.BluRay.x264.PROPER-GROUP")
	assert.Equal(t, "PROPER", info.Revision)
}

func TestParseEditionTwoWord(t *testing.T) {
	info := Parse("Movie.2020.Directors.Cut.1080p.BluRay.x264-GROUP")
	assert.Equal(t, "Director's Cut", info.Edition)
}

func TestParseLanguageToken(t *testing.T) {
	info := Parse("Movie.2020.German.1080p.BluRay.x264-GROUP")
	assert.Contains(t, info.Languages, "de")
}

func TestParseNoGroupSuffix(t *testing.T) {
	info := Parse("Random.File.Name.2020")
	assert.Equal(t, "", info.Group)
	assert.Equal(t, 2020, info.Year)
}

func TestParseNeverFailsOnGarbageInput(t *testing.T) {
	info := Parse("")
	assert.Equal(t, "", info.Title)
	assert.Equal(t, 0, info.Year)

	info2 := Parse("....---___")
	assert.Equal(t, "", info2.Title)
}

func TestParseTitleStopsAtFirstRecognizedToken(t *testing.T) {
	info := Parse("Some.Great.Movie.2020.1080p.x264-GROUP")
	assert.Equal(t, "Some Great Movie", info.Title)
}
