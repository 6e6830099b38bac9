package hls

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/klauspost/compress/gzip"
)

// wireSegmentMap is the JSON-friendly mirror of SegmentMap; ByteRange and
// Segment already marshal cleanly, so this only exists to keep the on-disk
// shape independent of in-memory field additions.
type wireSegmentMap struct {
	SourcePath    string    `json:"source_path"`
	SourceSize    int64     `json:"source_size"`
	SourceModTime int64     `json:"source_mod_time"`
	InitSegment   []byte    `json:"init_segment"`
	Segments      []Segment `json:"segments"`
	VideoCodec    string    `json:"video_codec"`
	AudioCodec    string    `json:"audio_codec"`
	Duration      float64   `json:"duration"`
}

// Marshal serializes sm for persistence in the hls_cache.segment_map
// column, gzip-compressed (large libraries' segment maps otherwise bloat
// the store — spec §9 notes per-hour footprint of 10-20 KB per file, which
// adds up across a large library).
func (sm *SegmentMap) Marshal() ([]byte, error) {
	w := wireSegmentMap{
		SourcePath:    sm.SourcePath,
		SourceSize:    sm.SourceSize,
		SourceModTime: sm.SourceModTime,
		InitSegment:   sm.InitSegment,
		Segments:      sm.Segments,
		VideoCodec:    sm.VideoCodec,
		AudioCodec:    sm.AudioCodec,
		Duration:      sm.Duration,
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalSegmentMap reverses Marshal.
func UnmarshalSegmentMap(data []byte) (*SegmentMap, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	raw, err := io.ReadAll(gr)
	if err != nil {
		return nil, err
	}
	var w wireSegmentMap
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return &SegmentMap{
		SourcePath:    w.SourcePath,
		SourceSize:    w.SourceSize,
		SourceModTime: w.SourceModTime,
		InitSegment:   w.InitSegment,
		Segments:      w.Segments,
		VideoCodec:    w.VideoCodec,
		AudioCodec:    w.AudioCodec,
		Duration:      w.Duration,
	}, nil
}
