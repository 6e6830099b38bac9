// Package hls implements the HLS Segment Engine (C9): a scan-time builder
// that walks a universal MediaFile's MP4 sample tables once and serializes
// a segment map (spec §4.9.1), and a serve-time reader that replays that
// map as moof+mdat+sendfile without touching the MP4 parser again
// (spec §4.9.2).
package hls

// TargetSegmentSeconds is the nominal HLS segment duration spec §4.9.1
// targets; actual segment boundaries land on the nearest video sync sample
// at or after this target, with one frame of slack.
const TargetSegmentSeconds = 6

// ByteRange is one contiguous span of bytes to copy from the source file
// into a served mdat payload.
type ByteRange struct {
	Offset int64
	Length int64
}

// Segment is one precomputed HLS fragment: its serialized moof box plus the
// source-file ranges that make up its mdat payload. MoofBytes already has
// trun.data_offset pointing past the 8-byte mdat header this segment will
// be served with (spec §4.9.1: "trun.data_offset is set to moof_size + 8").
type Segment struct {
	Index     int
	StartTime float64
	Duration  float64
	MoofBytes []byte
	Ranges    []ByteRange
	MDATSize  int64
}

// TotalRangeLength sums the byte length this segment's mdat payload carries.
func (s Segment) TotalRangeLength() int64 {
	var n int64
	for _, r := range s.Ranges {
		n += r.Length
	}
	return n
}

// SegmentMap is the full persisted artifact for one universal MediaFile
// (spec §4.9.1): the init segment bytes plus every fragment's precomputed
// moof+ranges. It is immutable after construction — invalidation is
// delete-and-rebuild, never in-place edit (spec §5).
type SegmentMap struct {
	SourcePath string
	SourceSize int64
	// SourceModTime as unix nanos, compared at serve time against the live
	// file to detect the MapStale condition spec §4.9.2 requires.
	SourceModTime int64

	InitSegment []byte
	Segments    []Segment

	VideoCodec string // e.g. "avc1.640029" — RFC 6381 codec string
	AudioCodec string // e.g. "mp4a.40.2"

	Duration float64
}
