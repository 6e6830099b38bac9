package hls

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stretchr/testify/assert"
)

func writeTempSource(t *testing.T, contents []byte) *SegmentMap {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "universal.mp4")
	require.NoError(t, os.WriteFile(path, contents, 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	return &SegmentMap{
		SourcePath:    path,
		SourceSize:    info.Size(),
		SourceModTime: info.ModTime().UnixNano(),
		InitSegment:   []byte("INIT"),
		VideoCodec:    "avc1.640028",
		AudioCodec:    "mp4a.40.2",
		Duration:      12,
		Segments: []Segment{
			{
				Index: 0, StartTime: 0, Duration: 6,
				MoofBytes: []byte("MOOF0"),
				Ranges:    []ByteRange{{Offset: 0, Length: 5}},
				MDATSize:  5,
			},
			{
				Index: 1, StartTime: 6, Duration: 6,
				MoofBytes: []byte("MOOF1"),
				Ranges:    []ByteRange{{Offset: 5, Length: 5}},
				MDATSize:  5,
			},
		},
	}
}

func TestWriteSegmentAssemblesMoofMdatAndRange(t *testing.T) {
	sm := writeTempSource(t, []byte("HELLOWORLD"))

	var buf bytes.Buffer
	require.NoError(t, sm.WriteSegment(&buf, 0))

	expected := append([]byte{}, "MOOF0"...)
	expected = append(expected, 0, 0, 0, 13, 'm', 'd', 'a', 't')
	expected = append(expected, "HELLO"...)

	assert.Equal(t, expected, buf.Bytes())
	assert.Equal(t, int64(len(expected)), sm.ContentLength(0))
}

func TestWriteSegmentSecondRange(t *testing.T) {
	sm := writeTempSource(t, []byte("HELLOWORLD"))

	var buf bytes.Buffer
	require.NoError(t, sm.WriteSegment(&buf, 1))
	assert.Contains(t, buf.String(), "WORLD")
}

func TestWriteSegmentOutOfRange(t *testing.T) {
	sm := writeTempSource(t, []byte("HELLOWORLD"))
	var buf bytes.Buffer
	err := sm.WriteSegment(&buf, 99)
	assert.Error(t, err)
}

func TestWriteSegmentSourceMissing(t *testing.T) {
	sm := writeTempSource(t, []byte("HELLOWORLD"))
	require.NoError(t, os.Remove(sm.SourcePath))

	var buf bytes.Buffer
	err := sm.WriteSegment(&buf, 0)
	assert.Error(t, err)
}

func TestStaleCheckDetectsSizeChange(t *testing.T) {
	sm := writeTempSource(t, []byte("HELLOWORLD"))
	assert.NoError(t, sm.StaleCheck())

	require.NoError(t, os.WriteFile(sm.SourcePath, []byte("SHORT"), 0o644))
	assert.Error(t, sm.StaleCheck())
}

func TestStaleCheckDetectsMtimeChange(t *testing.T) {
	sm := writeTempSource(t, []byte("HELLOWORLD"))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(sm.SourcePath, future, future))
	assert.Error(t, sm.StaleCheck())
}

func TestMasterAndVariantPlaylists(t *testing.T) {
	sm := writeTempSource(t, []byte("HELLOWORLD"))

	master := sm.MasterPlaylist()
	assert.Contains(t, master, "#EXTM3U")
	assert.Contains(t, master, `CODECS="avc1.640028,mp4a.40.2"`)
	assert.Contains(t, master, "variant.m3u8")

	variant := sm.VariantPlaylist()
	assert.Contains(t, variant, `#EXT-X-MAP:URI="init.mp4"`)
	assert.Contains(t, variant, "segment_0.m4s")
	assert.Contains(t, variant, "segment_1.m4s")
	assert.Contains(t, variant, "#EXT-X-ENDLIST")
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	sm := writeTempSource(t, []byte("HELLOWORLD"))

	wire, err := sm.Marshal()
	require.NoError(t, err)

	back, err := UnmarshalSegmentMap(wire)
	require.NoError(t, err)

	assert.Equal(t, sm.SourcePath, back.SourcePath)
	assert.Equal(t, sm.SourceSize, back.SourceSize)
	assert.Equal(t, sm.InitSegment, back.InitSegment)
	assert.Equal(t, sm.VideoCodec, back.VideoCodec)
	assert.Equal(t, len(sm.Segments), len(back.Segments))
	assert.Equal(t, sm.Segments[0].MoofBytes, back.Segments[0].MoofBytes)
	assert.Equal(t, sm.Segments[1].Ranges, back.Segments[1].Ranges)
}
