package hls

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

// MasterPlaylist returns the static master.m3u8 body for a single-variant
// universal stream (spec §4.9.2: "enumerates a single variant with the
// universal codec string").
func (sm *SegmentMap) MasterPlaylist() string {
	codecs := sm.VideoCodec
	if sm.AudioCodec != "" {
		codecs = codecs + "," + sm.AudioCodec
	}
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:7\n")
	fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=5000000,CODECS=\"%s\"\n", codecs)
	b.WriteString("variant.m3u8\n")
	return b.String()
}

// VariantPlaylist returns the static variant.m3u8 body, listing every
// precomputed segment in order (spec §4.9.2).
func (sm *SegmentMap) VariantPlaylist() string {
	target := 0
	for _, s := range sm.Segments {
		if d := int(math.Ceil(s.Duration)); d > target {
			target = d
		}
	}
	if target == 0 {
		target = TargetSegmentSeconds
	}

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:7\n")
	fmt.Fprintf(&b, "#EXT-X-TARGETDURATION:%d\n", target)
	b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")
	b.WriteString("#EXT-X-MEDIA-SEQUENCE:0\n")
	b.WriteString("#EXT-X-MAP:URI=\"init.mp4\"\n")
	for _, s := range sm.Segments {
		fmt.Fprintf(&b, "#EXTINF:%.6f,\n", s.Duration)
		fmt.Fprintf(&b, "segment_%d.m4s\n", s.Index)
	}
	b.WriteString("#EXT-X-ENDLIST\n")
	return b.String()
}

// StaleCheck verifies the live source file still matches the size/mtime
// this map was built against (spec §4.9.2: "if the source file's size or
// mtime changes after map construction, serving returns GONE").
func (sm *SegmentMap) StaleCheck() error {
	info, err := os.Stat(sm.SourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return apperr.NotFound("media_file", sm.SourcePath)
		}
		return apperr.IO("stat", err)
	}
	if info.Size() != sm.SourceSize || info.ModTime().UnixNano() != sm.SourceModTime {
		return apperr.Conflict("hls: segment map stale, source file changed")
	}
	return nil
}

// WriteSegment assembles segment index onto w: the precomputed moof, the
// 8-byte mdat header, then each byte range transferred from the source file
// via the platform zero-copy primitive (spec §4.9.2 step 1-3). w must
// support a raw file descriptor for the zero-copy path; callers lacking one
// fall back automatically (see transferRange).
func (sm *SegmentMap) WriteSegment(w io.Writer, index int) error {
	if index < 0 || index >= len(sm.Segments) {
		return apperr.NotFound("hls_segment", fmt.Sprintf("%d", index))
	}
	if err := sm.StaleCheck(); err != nil {
		return err
	}
	seg := sm.Segments[index]

	if _, err := w.Write(seg.MoofBytes); err != nil {
		return apperr.IO("write_moof", err)
	}

	var hdr [8]byte
	mdatSize := uint32(seg.MDATSize + 8)
	hdr[0] = byte(mdatSize >> 24)
	hdr[1] = byte(mdatSize >> 16)
	hdr[2] = byte(mdatSize >> 8)
	hdr[3] = byte(mdatSize)
	copy(hdr[4:8], "mdat")
	if _, err := w.Write(hdr[:]); err != nil {
		return apperr.IO("write_mdat_header", err)
	}

	src, err := os.Open(sm.SourcePath)
	if err != nil {
		return apperr.IO("open_source", err)
	}
	defer src.Close()

	for _, r := range seg.Ranges {
		if err := transferRange(w, src, r.Offset, r.Length); err != nil {
			return apperr.IO("transfer_range", err)
		}
	}
	return nil
}

// ContentLength is the exact byte count WriteSegment will produce for this
// segment: moof + mdat header + all range lengths (spec §4.9.2).
func (sm *SegmentMap) ContentLength(index int) int64 {
	seg := sm.Segments[index]
	return int64(len(seg.MoofBytes)) + 8 + seg.TotalRangeLength()
}
