package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sceneforged/sceneforged/internal/probe"
)

func TestFirstMatchPriorityThenNameTiebreak(t *testing.T) {
	info := &probe.MediaInfo{
		Container: probe.ContainerMatroska,
		Video:     []probe.VideoTrack{{Codec: "hevc", HDRFormat: probe.HDRDolbyVision, DVInfo: &probe.DVInfo{Profile: 7}}},
		Audio:     []probe.AudioTrack{{Codec: "eac3"}},
	}
	always := And{}

	r1 := Rule{Name: "dv-high", Priority: 100, Enabled: true, Expr: HdrIn{"dv"}}
	r2 := Rule{Name: "hevc-any", Priority: 50, Enabled: true, Expr: CodecIn{"hevc"}}
	r3 := Rule{Name: "zzz-catchall", Priority: 100, Enabled: true, Expr: always}
	r4 := Rule{Name: "aaa-catchall", Priority: 100, Enabled: true, Expr: always}

	rule, ok := FirstMatch([]Rule{r2, r1, r3, r4}, info)
	assert.True(t, ok)
	assert.Equal(t, "aaa-catchall", rule.Name, "same priority ties break by name ascending, and priority wins over insertion order")
}

func TestFirstMatchDeterministicAcrossInsertionOrders(t *testing.T) {
	info := &probe.MediaInfo{Video: []probe.VideoTrack{{Codec: "h264"}}}
	a := Rule{Name: "a", Priority: 10, Enabled: true, Expr: CodecIn{"h264"}}
	b := Rule{Name: "b", Priority: 10, Enabled: true, Expr: CodecIn{"h264"}}

	r1, ok1 := FirstMatch([]Rule{a, b}, info)
	r2, ok2 := FirstMatch([]Rule{b, a}, info)
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, r1.Name, r2.Name)
}

func TestFirstMatchSkipsDisabledRules(t *testing.T) {
	info := &probe.MediaInfo{Video: []probe.VideoTrack{{Codec: "h264"}}}
	disabled := Rule{Name: "disabled", Priority: 999, Enabled: false, Expr: CodecIn{"h264"}}
	enabled := Rule{Name: "enabled", Priority: 1, Enabled: true, Expr: CodecIn{"h264"}}

	rule, ok := FirstMatch([]Rule{disabled, enabled}, info)
	assert.True(t, ok)
	assert.Equal(t, "enabled", rule.Name)
}

func TestFirstMatchNoneMatch(t *testing.T) {
	info := &probe.MediaInfo{Video: []probe.VideoTrack{{Codec: "av1"}}}
	_, ok := FirstMatch([]Rule{{Name: "r", Priority: 1, Enabled: true, Expr: CodecIn{"h264"}}}, info)
	assert.False(t, ok)
}

func TestAllMatchesReturnsEveryMatchInDeterministicOrder(t *testing.T) {
	info := &probe.MediaInfo{Video: []probe.VideoTrack{{Codec: "h264"}}}
	r1 := Rule{Name: "b", Priority: 5, Enabled: true, Expr: CodecIn{"h264"}}
	r2 := Rule{Name: "a", Priority: 5, Enabled: true, Expr: CodecIn{"h264"}}
	r3 := Rule{Name: "c", Priority: 1, Enabled: true, Expr: CodecIn{"av1"}}

	matches := AllMatches([]Rule{r1, r2, r3}, info)
	assert.Len(t, matches, 2)
	assert.Equal(t, []string{"a", "b"}, []string{matches[0].Name, matches[1].Name})
}
