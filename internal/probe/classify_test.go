package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func universalCandidate() *MediaInfo {
	return &MediaInfo{
		Container:    ContainerMP4,
		HasFaststart: true,
		FixedGOP:     true,
		Video:        []VideoTrack{{Codec: "h264", CodecProfile: "High", CodecLevel: "4.1", Width: 1920, Height: 1080}},
		Audio:        []AudioTrack{{Codec: "aac"}},
	}
}

func TestClassifyProfileB(t *testing.T) {
	assert.Equal(t, ProfileB, Classify(universalCandidate()))
}

func TestClassifyProfileBRejectsAboveLevel41(t *testing.T) {
	m := universalCandidate()
	m.Video[0].CodecLevel = "5.1"
	assert.NotEqual(t, ProfileB, Classify(m))
}

func TestClassifyProfileBRejectsAbove1080p(t *testing.T) {
	m := universalCandidate()
	m.Video[0].Height = 2160
	m.Video[0].Width = 3840
	assert.Equal(t, ProfileA, Classify(m), "above 1080p falls to profile A regardless of codec/container")
}

func TestClassifyProfileBRequiresFaststart(t *testing.T) {
	m := universalCandidate()
	m.HasFaststart = false
	assert.NotEqual(t, ProfileB, Classify(m))
}

func TestClassifyProfileBRequiresAAC(t *testing.T) {
	m := universalCandidate()
	m.Audio[0].Codec = "ac3"
	assert.NotEqual(t, ProfileB, Classify(m))
}

func TestClassifyProfileAForHDR(t *testing.T) {
	for _, hdr := range []HDRFormat{HDR10, HDR10Plus, HDRDolbyVision} {
		m := &MediaInfo{
			Container: ContainerMatroska,
			Video:     []VideoTrack{{Codec: "hevc", HDRFormat: hdr, Height: 1080}},
			Audio:     []AudioTrack{{Codec: "eac3"}},
		}
		assert.Equal(t, ProfileA, Classify(m), "hdr format %s must classify as profile A", hdr)
	}
}

func TestClassifyProfileAForHighBitDepth(t *testing.T) {
	m := &MediaInfo{
		Video: []VideoTrack{{Codec: "hevc", BitDepth: 10, Height: 720}},
		Audio: []AudioTrack{{Codec: "aac"}},
	}
	assert.Equal(t, ProfileA, Classify(m))
}

func TestClassifyProfileCFallback(t *testing.T) {
	m := &MediaInfo{
		Container: ContainerMatroska,
		Video:     []VideoTrack{{Codec: "hevc", Height: 720, BitDepth: 8}},
		Audio:     []AudioTrack{{Codec: "ac3"}},
	}
	assert.Equal(t, ProfileC, Classify(m))
}

func TestClassifyNoVideoTrack(t *testing.T) {
	m := &MediaInfo{Audio: []AudioTrack{{Codec: "aac"}}}
	assert.Equal(t, ProfileC, Classify(m))
}

func TestServesAsUniversalRequiresEligibilityGating(t *testing.T) {
	m := universalCandidate()
	assert.True(t, m.ServesAsUniversal())

	m2 := universalCandidate()
	m2.FixedGOP = false
	assert.False(t, m2.ServesAsUniversal(), "variable GOP fails HLS eligibility even though classify() alone would say profile B")
}

func TestPrimaryVideoAudioNilOnEmpty(t *testing.T) {
	m := &MediaInfo{}
	assert.Nil(t, m.PrimaryVideo())
	assert.Nil(t, m.PrimaryAudio())
}
