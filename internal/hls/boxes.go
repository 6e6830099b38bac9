package hls

import (
	"encoding/binary"
	"io"

	"github.com/sceneforged/sceneforged/internal/mp4"
)

// box wraps payload in a standard 32-bit-size box header. None of the
// boxes built or copied here ever need the 64-bit extended-size form.
func box(typ string, payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(out[0:4], uint32(8+len(payload)))
	copy(out[4:8], typ)
	copy(out[8:], payload)
	return out
}

func concatBoxes(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// rawBox reads b's full bytes (header included) verbatim from r. Used to
// copy tkhd/mdhd/hdlr/vmhd/smhd/dinf/stsd straight from the source file
// into the init segment without re-deriving their contents.
func rawBox(r io.ReadSeeker, b mp4.Box) ([]byte, error) {
	if _, err := r.Seek(b.Offset, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, b.Size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func buildFtyp() []byte {
	payload := make([]byte, 0, 24)
	payload = append(payload, []byte("isom")...)  // major_brand
	payload = append(payload, 0, 0, 2, 0)         // minor_version
	for _, brand := range []string{"isom", "iso5", "iso6", "avc1", "mp41"} {
		payload = append(payload, []byte(brand)...)
	}
	return box("ftyp", payload)
}

// buildMvhd emits a version-0 movie header with the given timescale/duration
// and a next_track_id one past the highest track id present.
func buildMvhd(timescale uint32, durationTicks uint32, nextTrackID uint32) []byte {
	p := make([]byte, 100)
	// version(1) flags(3) already zero
	binary.BigEndian.PutUint32(p[4:8], 0)  // creation_time
	binary.BigEndian.PutUint32(p[8:12], 0) // modification_time
	binary.BigEndian.PutUint32(p[12:16], timescale)
	binary.BigEndian.PutUint32(p[16:20], durationTicks)
	binary.BigEndian.PutUint32(p[20:24], 0x00010000) // rate 1.0
	binary.BigEndian.PutUint16(p[24:26], 0x0100)      // volume 1.0
	// unity matrix at offset 36..72
	matrix := [9]int32{0x10000, 0, 0, 0, 0x10000, 0, 0, 0, 0x40000000}
	for i, v := range matrix {
		binary.BigEndian.PutUint32(p[36+i*4:40+i*4], uint32(v))
	}
	binary.BigEndian.PutUint32(p[96:100], nextTrackID)
	return box("mvhd", p)
}

// buildTrex emits one mvex track-extends default-sample entry.
func buildTrex(trackID uint32) []byte {
	p := make([]byte, 20)
	binary.BigEndian.PutUint32(p[0:4], trackID)
	binary.BigEndian.PutUint32(p[4:8], 1)     // default_sample_description_index
	binary.BigEndian.PutUint32(p[8:12], 0)    // default_sample_duration
	binary.BigEndian.PutUint32(p[12:16], 0)   // default_sample_size
	binary.BigEndian.PutUint32(p[16:20], 0)   // default_sample_flags
	return box("trex", p)
}

// initTrack bundles the raw boxes copied from a source track needed to
// rebuild its trak in the init segment, plus the bits scan.go needs for
// segment construction.
type initTrack struct {
	TrackID    uint32
	IsVideo    bool
	Timescale  uint32
	Tkhd       []byte
	Mdhd       []byte
	Hdlr       []byte
	MediaHdr   []byte // vmhd or smhd, copied raw
	Dinf       []byte
	Stsd       []byte
	CodecFourCC string
}

// buildTrak assembles one fragmented-mode trak: the copied tkhd+mdia
// skeleton boxes, with an empty stbl (stsd kept, sample tables emptied —
// spec §4.9.1: "per-track trak with empty sample tables").
func buildTrak(t initTrack) []byte {
	emptyTable := func(typ string) []byte {
		return box(typ, []byte{0, 0, 0, 0, 0, 0, 0, 0}) // version/flags + entry_count=0
	}
	stsz := box("stsz", []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}) // sample_size=0 sample_count=0
	stco := box("stco", []byte{0, 0, 0, 0, 0, 0, 0, 0})
	stbl := box("stbl", concatBoxes(t.Stsd, emptyTable("stts"), emptyTable("stsc"), stsz, stco))

	minf := box("minf", concatBoxes(t.MediaHdr, t.Dinf, stbl))
	mdia := box("mdia", concatBoxes(t.Mdhd, t.Hdlr, minf))
	return box("trak", concatBoxes(t.Tkhd, mdia))
}

// buildInitSegment assembles ftyp+moov{mvhd,trak*,mvex{trex*}} per
// spec §4.9.1.
func buildInitSegment(movieTimescale, movieDuration uint32, tracks []initTrack) []byte {
	ftyp := buildFtyp()

	var nextID uint32 = 1
	trakBoxes := make([][]byte, 0, len(tracks))
	trexBoxes := make([][]byte, 0, len(tracks))
	for _, t := range tracks {
		trakBoxes = append(trakBoxes, buildTrak(t))
		trexBoxes = append(trexBoxes, buildTrex(t.TrackID))
		if t.TrackID >= nextID {
			nextID = t.TrackID + 1
		}
	}
	mvex := box("mvex", concatBoxes(trexBoxes...))
	mvhd := buildMvhd(movieTimescale, movieDuration, nextID)

	parts := append([][]byte{mvhd}, trakBoxes...)
	parts = append(parts, mvex)
	moov := box("moov", concatBoxes(parts...))

	return concatBoxes(ftyp, moov)
}

// ──────────────────── Fragment (moof) construction ────────────────────

// trunSample is one sample's per-entry fields within a trun box.
type trunSample struct {
	Duration uint32
	Size     uint32
	Flags    uint32
	CTS      int32
}

const (
	sampleFlagsSync    = 0x02000000
	sampleFlagsNonSync = 0x01010000

	trunFlags = 0x000001 | 0x000100 | 0x000200 | 0x000400 | 0x000800
	tfhdFlags = 0x020000 // default-base-is-moof
)

// buildTraf emits one traf{tfhd,tfdt,trun} for a single contiguous run of
// samples belonging to one track. dataOffset is relative to the first byte
// of the enclosing moof box (spec §4.9.1: "trun.data_offset is set to
// moof_size + 8").
func buildTraf(trackID uint32, baseMediaDecodeTime int64, samples []trunSample, dataOffset int32) []byte {
	tfhd := box("tfhd", func() []byte {
		p := make([]byte, 4)
		binary.BigEndian.PutUint32(p[0:4], trackID)
		// version(1)=0 flags(3)=tfhdFlags packed into the leading 4 bytes below
		hdr := make([]byte, 4)
		hdr[0] = 0
		hdr[1] = byte(tfhdFlags >> 16)
		hdr[2] = byte(tfhdFlags >> 8)
		hdr[3] = byte(tfhdFlags)
		return append(hdr, p...)
	}())

	tfdt := box("tfdt", func() []byte {
		p := make([]byte, 12)
		p[0] = 1 // version 1: 64-bit base_media_decode_time
		binary.BigEndian.PutUint64(p[4:12], uint64(baseMediaDecodeTime))
		return p
	}())

	trun := box("trun", func() []byte {
		hdr := make([]byte, 8)
		hdr[0] = 1 // version 1 for signed composition offsets
		hdr[1] = byte(trunFlags >> 16)
		hdr[2] = byte(trunFlags >> 8)
		hdr[3] = byte(trunFlags)
		binary.BigEndian.PutUint32(hdr[4:8], uint32(len(samples)))
		body := make([]byte, 4+len(samples)*16)
		binary.BigEndian.PutUint32(body[0:4], uint32(dataOffset))
		off := 4
		for _, s := range samples {
			binary.BigEndian.PutUint32(body[off:off+4], s.Duration)
			binary.BigEndian.PutUint32(body[off+4:off+8], s.Size)
			binary.BigEndian.PutUint32(body[off+8:off+12], s.Flags)
			binary.BigEndian.PutUint32(body[off+12:off+16], uint32(s.CTS))
			off += 16
		}
		return concatBoxes(hdr, body)
	}())

	return box("traf", concatBoxes(tfhd, tfdt, trun))
}

// buildMoof assembles mfhd+traf* and returns the complete box bytes. Each
// entry in trafs is one complete traf box; its dataOffset is computed by the
// caller (scan.go) from the cumulative byte position of its run within the
// segment's combined mdat payload, per spec.
func buildMoof(sequenceNumber uint32, trafs [][]byte) []byte {
	mfhd := box("mfhd", func() []byte {
		p := make([]byte, 8)
		binary.BigEndian.PutUint32(p[4:8], sequenceNumber)
		return p
	}())
	return box("moof", concatBoxes(append([][]byte{mfhd}, trafs...)...))
}
