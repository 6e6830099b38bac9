package mp4

import (
	"encoding/binary"
	"io"
)

// MovieHeader is the parsed mvhd payload (timescale and duration of the
// whole presentation).
type MovieHeader struct {
	Timescale uint32
	Duration  uint64
}

func ParseMovieHeader(r io.ReadSeeker, b Box) (MovieHeader, error) {
	p, err := ReadPayload(r, b)
	if err != nil {
		return MovieHeader{}, err
	}
	var mh MovieHeader
	version := p[0]
	if version == 1 {
		mh.Timescale = binary.BigEndian.Uint32(p[20:24])
		mh.Duration = binary.BigEndian.Uint64(p[24:32])
	} else {
		mh.Timescale = binary.BigEndian.Uint32(p[12:16])
		mh.Duration = uint64(binary.BigEndian.Uint32(p[16:20]))
	}
	return mh, nil
}

// TrackHeader carries the track id and its display dimensions (16.16 fixed
// point in the box, returned here as whole pixels).
type TrackHeader struct {
	TrackID uint32
	Width   uint32
	Height  uint32
}

func ParseTrackHeader(r io.ReadSeeker, b Box) (TrackHeader, error) {
	p, err := ReadPayload(r, b)
	if err != nil {
		return TrackHeader{}, err
	}
	var th TrackHeader
	version := p[0]
	if version == 1 {
		th.TrackID = binary.BigEndian.Uint32(p[20:24])
	} else {
		th.TrackID = binary.BigEndian.Uint32(p[12:16])
	}
	if len(p) >= 8 {
		th.Width = binary.BigEndian.Uint32(p[len(p)-8:len(p)-4]) >> 16
		th.Height = binary.BigEndian.Uint32(p[len(p)-4:]) >> 16
	}
	return th, nil
}

// MediaHeader carries the per-track timescale and duration.
type MediaHeader struct {
	Timescale uint32
	Duration  uint64
	Language  string
}

func ParseMediaHeader(r io.ReadSeeker, b Box) (MediaHeader, error) {
	p, err := ReadPayload(r, b)
	if err != nil {
		return MediaHeader{}, err
	}
	var mh MediaHeader
	version := p[0]
	var langOff int
	if version == 1 {
		mh.Timescale = binary.BigEndian.Uint32(p[20:24])
		mh.Duration = binary.BigEndian.Uint64(p[24:32])
		langOff = 32
	} else {
		mh.Timescale = binary.BigEndian.Uint32(p[12:16])
		mh.Duration = uint64(binary.BigEndian.Uint32(p[16:20]))
		langOff = 20
	}
	if len(p) >= langOff+2 {
		packed := binary.BigEndian.Uint16(p[langOff : langOff+2])
		mh.Language = string([]byte{
			byte(((packed>>10)&0x1f) + 0x60),
			byte(((packed>>5)&0x1f) + 0x60),
			byte((packed&0x1f) + 0x60),
		})
	}
	return mh, nil
}

// HandlerType returns the hdlr component_subtype ("vide", "soun", "sbtl").
func HandlerType(r io.ReadSeeker, b Box) (string, error) {
	p, err := ReadPayload(r, b)
	if err != nil || len(p) < 12 {
		return "", err
	}
	return string(p[8:12]), nil
}

// SampleEntry is one decoded stsd entry: its fourcc plus, for video, the
// pixel dimensions, and for audio, channel/sample-rate.
type SampleEntry struct {
	Codec      string
	Width      uint16
	Height     uint16
	Channels   uint16
	SampleRate uint32
	// Children holds the boxes in the entry payload past the fixed
	// SampleEntry header so codec-specific boxes (avcC/hvcC, dvcC/dvvC) can
	// be located.
	Children []Box
}

// ParseSampleDescription parses stsd: version/flags, entry_count, then each
// SampleEntry. Only the first entry is surfaced (the spec model assumes one
// codec per track).
func ParseSampleDescription(r io.ReadSeeker, b Box) (*SampleEntry, error) {
	base := b.PayloadOffset()
	// version(1) flags(3) entry_count(4)
	var hdr [8]byte
	if _, err := r.Seek(base, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	count := binary.BigEndian.Uint32(hdr[4:8])
	if count == 0 {
		return nil, nil
	}
	entryOffset := base + 8
	eb, headerSize, err := readHeader(r, entryOffset)
	if err != nil {
		return nil, err
	}
	eb.HeaderSize = headerSize
	payload, err := ReadPayload(r, eb)
	if err != nil {
		return nil, err
	}
	se := &SampleEntry{Codec: eb.Type}
	// Audio and video sample entries share a reserved(6)+data_reference_index(2)
	// prefix, then diverge.
	if len(payload) >= 8+2+2+2*6+4 {
		// Heuristic: video entries carry width/height at a fixed offset
		// (reserved[6] dref_index[2] pre_defined[2] reserved[2] pre_defined[12]
		// width[2] height[2] ...).
		const videoFixedHeader = 8 + 2 + 2 + 12
		if len(payload) >= videoFixedHeader+4 {
			se.Width = binary.BigEndian.Uint16(payload[videoFixedHeader : videoFixedHeader+2])
			se.Height = binary.BigEndian.Uint16(payload[videoFixedHeader+2 : videoFixedHeader+4])
		}
	}
	if len(payload) >= 8+8+4 {
		const audioFixedHeader = 8 + 8
		se.Channels = binary.BigEndian.Uint16(payload[audioFixedHeader : audioFixedHeader+2])
		if len(payload) >= audioFixedHeader+8+4 {
			se.SampleRate = binary.BigEndian.Uint32(payload[audioFixedHeader+8:audioFixedHeader+12]) >> 16
		}
	}
	childStart := int64(0)
	switch eb.Type {
	case "avc1", "avc3", "hvc1", "hev1", "dvh1", "dvhe":
		childStart = 78 // VisualSampleEntry fixed fields
	case "mp4a":
		childStart = 28 // AudioSampleEntry fixed fields
	}
	children, err := ReadBoxes(r, eb.PayloadOffset()+childStart, eb.PayloadSize()-childStart)
	if err == nil {
		se.Children = children
	}
	return se, nil
}

// TimeToSample is one stts run: `count` consecutive samples each `delta`
// timescale units long.
type TimeToSample struct {
	Count uint32
	Delta uint32
}

func ParseTimeToSample(r io.ReadSeeker, b Box) ([]TimeToSample, error) {
	p, err := ReadPayload(r, b)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(p[4:8])
	out := make([]TimeToSample, 0, n)
	off := 8
	for i := uint32(0); i < n && off+8 <= len(p); i++ {
		out = append(out, TimeToSample{
			Count: binary.BigEndian.Uint32(p[off : off+4]),
			Delta: binary.BigEndian.Uint32(p[off+4 : off+8]),
		})
		off += 8
	}
	return out, nil
}

// CompositionOffset is one ctts run (signed in version 1).
type CompositionOffset struct {
	Count  uint32
	Offset int32
}

func ParseCompositionOffset(r io.ReadSeeker, b Box) ([]CompositionOffset, error) {
	p, err := ReadPayload(r, b)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(p[4:8])
	out := make([]CompositionOffset, 0, n)
	off := 8
	for i := uint32(0); i < n && off+8 <= len(p); i++ {
		out = append(out, CompositionOffset{
			Count:  binary.BigEndian.Uint32(p[off : off+4]),
			Offset: int32(binary.BigEndian.Uint32(p[off+4 : off+8])),
		})
		off += 8
	}
	return out, nil
}

// ParseSyncSamples returns the 1-based sample numbers listed in stss.
func ParseSyncSamples(r io.ReadSeeker, b Box) ([]uint32, error) {
	p, err := ReadPayload(r, b)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(p[4:8])
	out := make([]uint32, 0, n)
	off := 8
	for i := uint32(0); i < n && off+4 <= len(p); i++ {
		out = append(out, binary.BigEndian.Uint32(p[off:off+4]))
		off += 4
	}
	return out, nil
}

// ParseSampleSizes returns per-sample byte sizes. If the box declares a
// uniform sample_size > 0, every entry in the returned slice has that value
// (sampleCount entries).
func ParseSampleSizes(r io.ReadSeeker, b Box) ([]uint32, error) {
	p, err := ReadPayload(r, b)
	if err != nil {
		return nil, err
	}
	uniform := binary.BigEndian.Uint32(p[4:8])
	count := binary.BigEndian.Uint32(p[8:12])
	out := make([]uint32, count)
	if uniform != 0 {
		for i := range out {
			out[i] = uniform
		}
		return out, nil
	}
	off := 12
	for i := uint32(0); i < count && off+4 <= len(p); i++ {
		out[i] = binary.BigEndian.Uint32(p[off : off+4])
		off += 4
	}
	return out, nil
}

// SampleToChunk is one stsc run.
type SampleToChunk struct {
	FirstChunk      uint32
	SamplesPerChunk uint32
	SampleDescIndex uint32
}

func ParseSampleToChunk(r io.ReadSeeker, b Box) ([]SampleToChunk, error) {
	p, err := ReadPayload(r, b)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(p[4:8])
	out := make([]SampleToChunk, 0, n)
	off := 8
	for i := uint32(0); i < n && off+12 <= len(p); i++ {
		out = append(out, SampleToChunk{
			FirstChunk:      binary.BigEndian.Uint32(p[off : off+4]),
			SamplesPerChunk: binary.BigEndian.Uint32(p[off+4 : off+8]),
			SampleDescIndex: binary.BigEndian.Uint32(p[off+8 : off+12]),
		})
		off += 12
	}
	return out, nil
}

// ParseChunkOffsets reads stco (32-bit) or co64 (64-bit) chunk offsets.
func ParseChunkOffsets(r io.ReadSeeker, b Box) ([]int64, error) {
	p, err := ReadPayload(r, b)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(p[4:8])
	out := make([]int64, 0, n)
	off := 8
	width := 4
	if b.Type == "co64" {
		width = 8
	}
	for i := uint32(0); i < n && off+width <= len(p); i++ {
		if width == 4 {
			out = append(out, int64(binary.BigEndian.Uint32(p[off:off+4])))
		} else {
			out = append(out, int64(binary.BigEndian.Uint64(p[off:off+8])))
		}
		off += width
	}
	return out, nil
}

// SampleRecord is one fully resolved sample: its absolute file offset,
// size, decode/presentation time in track timescale units, and whether it
// is a sync (keyframe) sample.
type SampleRecord struct {
	Offset  int64
	Size    uint32
	DTS     int64
	PTS     int64
	IsSync  bool
}

// FlattenSampleTable combines stts/ctts/stsz/stsc/stco/stss into an ordered
// list of SampleRecord, per spec §4.9.1.
func FlattenSampleTable(stts []TimeToSample, ctts []CompositionOffset, sizes []uint32, stsc []SampleToChunk, chunkOffsets []int64, syncSamples []uint32, allSync bool) []SampleRecord {
	n := len(sizes)
	records := make([]SampleRecord, n)

	// DTS from stts runs.
	dts := int64(0)
	idx := 0
	for _, run := range stts {
		for c := uint32(0); c < run.Count && idx < n; c++ {
			records[idx].DTS = dts
			dts += int64(run.Delta)
			idx++
		}
	}

	// PTS = DTS + composition offset (ctts), defaulting to DTS if absent.
	if len(ctts) == 0 {
		for i := range records {
			records[i].PTS = records[i].DTS
		}
	} else {
		idx = 0
		for _, run := range ctts {
			for c := uint32(0); c < run.Count && idx < n; c++ {
				records[idx].PTS = records[idx].DTS + int64(run.Offset)
				idx++
			}
		}
	}

	// Sizes.
	for i := 0; i < n && i < len(sizes); i++ {
		records[i].Size = sizes[i]
	}

	// Offsets: expand stsc runs into a per-chunk samples-per-chunk table,
	// then walk chunk offsets assigning consecutive sample byte positions.
	sampleIdx := 0
	for chunkIdx := 0; chunkIdx < len(chunkOffsets) && sampleIdx < n; chunkIdx++ {
		chunkNum := uint32(chunkIdx + 1)
		samplesInChunk := samplesPerChunkFor(stsc, chunkNum)
		pos := chunkOffsets[chunkIdx]
		for s := uint32(0); s < samplesInChunk && sampleIdx < n; s++ {
			records[sampleIdx].Offset = pos
			pos += int64(records[sampleIdx].Size)
			sampleIdx++
		}
	}

	// Sync flags.
	if allSync {
		for i := range records {
			records[i].IsSync = true
		}
	} else {
		syncSet := make(map[uint32]bool, len(syncSamples))
		for _, s := range syncSamples {
			syncSet[s] = true
		}
		for i := range records {
			if syncSet[uint32(i+1)] {
				records[i].IsSync = true
			}
		}
	}

	return records
}

func samplesPerChunkFor(stsc []SampleToChunk, chunkNum uint32) uint32 {
	var cur uint32 = 1
	for i, run := range stsc {
		next := ^uint32(0)
		if i+1 < len(stsc) {
			next = stsc[i+1].FirstChunk
		}
		if chunkNum >= run.FirstChunk && chunkNum < next {
			return run.SamplesPerChunk
		}
		cur = run.SamplesPerChunk
	}
	return cur
}
