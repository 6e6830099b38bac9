package hls

import (
	"fmt"
	"os"
	"sort"

	"github.com/sceneforged/sceneforged/internal/mp4"
)

type parsedTrack struct {
	init      initTrack
	samples   []mp4.SampleRecord
	stts      []mp4.TimeToSample
}

// BuildSegmentMap parses path's MP4 box tree once and produces the
// persisted segment-map artifact spec §4.9.1 describes: an init segment
// plus, for every ~6s window bounded by video sync samples, a precomputed
// moof and the source-file byte ranges that make up its mdat. Only called
// for MediaFiles the prober has already confirmed serve as universal
// (faststart, fixed GOP, mp4/h264/aac) — see probe.MediaInfo.ServesAsUniversal.
func BuildSegmentMap(path string) (*SegmentMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hls: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("hls: stat %s: %w", path, err)
	}

	top, err := mp4.ReadBoxes(f, 0, info.Size())
	if err != nil {
		return nil, fmt.Errorf("hls: read box tree: %w", err)
	}
	moov := mp4.Find(top, "moov")
	if moov == nil {
		return nil, fmt.Errorf("hls: %s has no moov box", path)
	}

	mvhd := mp4.Find(moov.Children, "mvhd")
	if mvhd == nil {
		return nil, fmt.Errorf("hls: %s has no mvhd box", path)
	}
	movieHdr, err := mp4.ParseMovieHeader(f, *mvhd)
	if err != nil {
		return nil, fmt.Errorf("hls: parse mvhd: %w", err)
	}

	var video, audio *parsedTrack
	for _, trak := range mp4.FindAll(moov.Children, "trak") {
		pt, handler, err := parseTrack(f, trak)
		if err != nil {
			return nil, err
		}
		switch handler {
		case "vide":
			if video == nil {
				video = pt
			}
		case "soun":
			if audio == nil {
				audio = pt
			}
		}
	}
	if video == nil {
		return nil, fmt.Errorf("hls: %s has no video track", path)
	}

	tracks := []initTrack{video.init}
	if audio != nil {
		tracks = append(tracks, audio.init)
	}
	initSeg := buildInitSegment(movieHdr.Timescale, uint32(movieHdr.Duration), tracks)

	segments, err := buildSegments(video, audio)
	if err != nil {
		return nil, err
	}

	sm := &SegmentMap{
		SourcePath:    path,
		SourceSize:    info.Size(),
		SourceModTime: info.ModTime().UnixNano(),
		InitSegment:   initSeg,
		Segments:      segments,
		VideoCodec:    codecString(video.init.CodecFourCC, true),
		AudioCodec:    codecString(audio2FourCC(audio), false),
		Duration:      float64(movieHdr.Duration) / float64(movieHdr.Timescale),
	}
	return sm, nil
}

func audio2FourCC(a *parsedTrack) string {
	if a == nil {
		return ""
	}
	return a.init.CodecFourCC
}

// codecString returns an RFC 6381 codec string for the sample entry fourcc.
func codecString(fourcc string, isVideo bool) string {
	if isVideo {
		switch fourcc {
		case "avc1":
			return "avc1.640029" // High@4.1, matches TranscodeUniversal's fixed target profile/level
		case "hvc1", "hev1":
			return "hvc1.1.6.L93.B0"
		default:
			return fourcc
		}
	}
	switch fourcc {
	case "mp4a":
		return "mp4a.40.2" // AAC-LC
	default:
		return fourcc
	}
}

func parseTrack(f *os.File, trak mp4.Box) (*parsedTrack, string, error) {
	mdia := mp4.Find(trak.Children, "mdia")
	if mdia == nil {
		return nil, "", fmt.Errorf("hls: trak missing mdia")
	}
	mdhd := mp4.Find(mdia.Children, "mdhd")
	hdlr := mp4.Find(mdia.Children, "hdlr")
	minf := mp4.Find(mdia.Children, "minf")
	if mdhd == nil || hdlr == nil || minf == nil {
		return nil, "", fmt.Errorf("hls: mdia missing mdhd/hdlr/minf")
	}
	handler, err := mp4.HandlerType(f, *hdlr)
	if err != nil {
		return nil, "", err
	}

	mediaHdrBox := mp4.Find(minf.Children, "vmhd")
	if mediaHdrBox == nil {
		mediaHdrBox = mp4.Find(minf.Children, "smhd")
	}
	dinf := mp4.Find(minf.Children, "dinf")
	stbl := mp4.Find(minf.Children, "stbl")
	if stbl == nil {
		return nil, "", fmt.Errorf("hls: minf missing stbl")
	}
	stsd := mp4.Find(stbl.Children, "stsd")
	if stsd == nil {
		return nil, "", fmt.Errorf("hls: stbl missing stsd")
	}

	tkhd := mp4.Find(trak.Children, "tkhd")
	if tkhd == nil {
		return nil, "", fmt.Errorf("hls: trak missing tkhd")
	}
	mediaHeader, err := mp4.ParseMediaHeader(f, *mdhd)
	if err != nil {
		return nil, "", err
	}
	trackHeader, err := mp4.ParseTrackHeader(f, *tkhd)
	if err != nil {
		return nil, "", err
	}
	sampleEntry, err := mp4.ParseSampleDescription(f, *stsd)
	if err != nil {
		return nil, "", err
	}
	fourcc := ""
	if sampleEntry != nil {
		fourcc = sampleEntry.Codec
	}

	sttsBox, err := requireBox(stbl, "stts")
	if err != nil {
		return nil, "", err
	}
	stts, err := mp4.ParseTimeToSample(f, *sttsBox)
	if err != nil {
		return nil, "", err
	}
	var ctts []mp4.CompositionOffset
	if cttsBox := mp4.Find(stbl.Children, "ctts"); cttsBox != nil {
		ctts, err = mp4.ParseCompositionOffset(f, *cttsBox)
		if err != nil {
			return nil, "", err
		}
	}
	stszBox, err := requireBox(stbl, "stsz")
	if err != nil {
		return nil, "", err
	}
	sizes, err := mp4.ParseSampleSizes(f, *stszBox)
	if err != nil {
		return nil, "", err
	}
	stscBox, err := requireBox(stbl, "stsc")
	if err != nil {
		return nil, "", err
	}
	stsc, err := mp4.ParseSampleToChunk(f, *stscBox)
	if err != nil {
		return nil, "", err
	}
	chunkBox := mp4.Find(stbl.Children, "stco")
	if chunkBox == nil {
		chunkBox = mp4.Find(stbl.Children, "co64")
	}
	if chunkBox == nil {
		return nil, "", fmt.Errorf("hls: stbl missing stco/co64")
	}
	chunkOffsets, err := mp4.ParseChunkOffsets(f, *chunkBox)
	if err != nil {
		return nil, "", err
	}

	allSync := true
	var syncSamples []uint32
	if stss := mp4.Find(stbl.Children, "stss"); stss != nil {
		allSync = false
		syncSamples, err = mp4.ParseSyncSamples(f, *stss)
		if err != nil {
			return nil, "", err
		}
	}

	samples := mp4.FlattenSampleTable(stts, ctts, sizes, stsc, chunkOffsets, syncSamples, allSync)

	rawTkhd, err := rawBox(f, *tkhd)
	if err != nil {
		return nil, "", err
	}
	rawMdhd, err := rawBox(f, *mdhd)
	if err != nil {
		return nil, "", err
	}
	rawHdlr, err := rawBox(f, *hdlr)
	if err != nil {
		return nil, "", err
	}
	var rawMediaHdr []byte
	if mediaHdrBox != nil {
		rawMediaHdr, err = rawBox(f, *mediaHdrBox)
		if err != nil {
			return nil, "", err
		}
	}
	var rawDinf []byte
	if dinf != nil {
		rawDinf, err = rawBox(f, *dinf)
		if err != nil {
			return nil, "", err
		}
	}
	rawStsd, err := rawBox(f, *stsd)
	if err != nil {
		return nil, "", err
	}

	pt := &parsedTrack{
		init: initTrack{
			TrackID:     trackHeader.TrackID,
			IsVideo:     handler == "vide",
			Timescale:   mediaHeader.Timescale,
			Tkhd:        rawTkhd,
			Mdhd:        rawMdhd,
			Hdlr:        rawHdlr,
			MediaHdr:    rawMediaHdr,
			Dinf:        rawDinf,
			Stsd:        rawStsd,
			CodecFourCC: fourcc,
		},
		samples: samples,
		stts:    stts,
	}
	return pt, handler, nil
}

func requireBox(parent *mp4.Box, typ string) (*mp4.Box, error) {
	b := mp4.Find(parent.Children, typ)
	if b == nil {
		return nil, fmt.Errorf("hls: stbl missing required %s box", typ)
	}
	return b, nil
}

// taggedSample is one sample from either track, kept with enough context
// to build traf runs in physical file order without re-deriving durations.
type taggedSample struct {
	trackID  uint32
	isVideo  bool
	rec      mp4.SampleRecord
	duration uint32
}

func withDurations(samples []mp4.SampleRecord, trackID uint32, isVideo bool) []taggedSample {
	out := make([]taggedSample, len(samples))
	for i, s := range samples {
		d := uint32(0)
		if i+1 < len(samples) {
			d = uint32(samples[i+1].DTS - s.DTS)
		} else if len(samples) > 1 {
			d = uint32(samples[i].DTS - samples[i-1].DTS)
		}
		out[i] = taggedSample{trackID: trackID, isVideo: isVideo, rec: s, duration: d}
	}
	return out
}

// buildSegments walks the video track's sync samples to choose boundaries
// (spec §4.9.1), then for each window collects every sample (video+audio)
// whose PTS falls inside it, sorted into file-offset order so the emitted
// ranges/traf match the physical interleave already on disk — no sample
// repacking occurs.
func buildSegments(video, audio *parsedTrack) ([]Segment, error) {
	if len(video.samples) == 0 {
		return nil, fmt.Errorf("hls: video track has no samples")
	}
	ts := video.init.Timescale
	toSec := func(ticks int64) float64 { return float64(ticks) / float64(ts) }

	slackSec := 1.0 / 30.0 // one frame of slack at a conservative 30fps bound
	target := float64(TargetSegmentSeconds)

	var boundaries []int // indices into video.samples that start a new segment
	boundaries = append(boundaries, 0)
	segStart := toSec(video.samples[0].PTS)
	for i, s := range video.samples {
		if i == 0 || !s.IsSync {
			continue
		}
		pts := toSec(s.PTS)
		if pts-segStart >= target-slackSec {
			boundaries = append(boundaries, i)
			segStart = pts
		}
	}

	videoTagged := withDurations(video.samples, video.init.TrackID, true)
	var audioTagged []taggedSample
	if audio != nil {
		audioTagged = withDurations(audio.samples, audio.init.TrackID, false)
	}

	segments := make([]Segment, 0, len(boundaries))
	for segIdx, startIdx := range boundaries {
		endIdx := len(video.samples)
		if segIdx+1 < len(boundaries) {
			endIdx = boundaries[segIdx+1]
		}
		startPTS := toSec(video.samples[startIdx].PTS)
		endPTS := video.samples[endIdx-1].PTS
		if endIdx < len(video.samples) {
			endPTS = video.samples[endIdx].PTS
		} else if len(video.samples) > 1 {
			endPTS = video.samples[endIdx-1].PTS + int64(videoTagged[endIdx-1].duration)
		}
		endPTSSec := toSec(endPTS)

		var combined []taggedSample
		combined = append(combined, videoTagged[startIdx:endIdx]...)
		for _, as := range audioTagged {
			pts := toSec(as.rec.PTS)
			if pts >= startPTS && pts < endPTSSec {
				combined = append(combined, as)
			}
		}
		sort.SliceStable(combined, func(i, j int) bool {
			return combined[i].rec.Offset < combined[j].rec.Offset
		})

		seg, err := assembleSegment(segIdx, startPTS, endPTSSec-startPTS, combined)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// assembleSegment groups combined (already file-offset sorted) into
// contiguous same-track runs, emitting one traf+ByteRange per run, then
// wraps them in a moof. The moof is built twice: the second pass sets each
// run's trun.data_offset to moof_size + 8 (the mdat header) plus the run's
// start position within the segment's own mdat payload.
func assembleSegment(index int, startPTS, duration float64, combined []taggedSample) (Segment, error) {
	if len(combined) == 0 {
		return Segment{}, fmt.Errorf("hls: segment %d has no samples", index)
	}

	type run struct {
		trackID  uint32
		baseDTS  int64
		offset   int64
		lastSize uint32
		relStart int64
		samples  []trunSample
	}
	var runs []run
	var mdatCursor int64

	for _, s := range combined {
		n := len(runs)
		needsNewRun := n == 0 ||
			runs[n-1].trackID != s.trackID ||
			s.rec.Offset != runs[n-1].offset+int64(runs[n-1].lastSize)
		if needsNewRun {
			runs = append(runs, run{trackID: s.trackID, baseDTS: s.rec.DTS, offset: s.rec.Offset, relStart: mdatCursor})
			n = len(runs)
		}
		flags := uint32(sampleFlagsNonSync)
		if s.rec.IsSync {
			flags = sampleFlagsSync
		}
		r := &runs[n-1]
		r.samples = append(r.samples, trunSample{
			Duration: s.duration,
			Size:     s.rec.Size,
			Flags:    flags,
			CTS:      int32(s.rec.PTS - s.rec.DTS),
		})
		r.lastSize = s.rec.Size
		mdatCursor += int64(s.rec.Size)
	}

	ranges := make([]ByteRange, len(runs))
	for i, r := range runs {
		var length int64
		for _, s := range r.samples {
			length += int64(s.Size)
		}
		ranges[i] = ByteRange{Offset: r.offset, Length: length}
	}

	// Two-pass: the first build only sizes the moof; trun.data_offset must
	// point moof_size+8 bytes past the moof's own start (spec §4.9.1), so
	// it can't be known until the moof carrying it is fully laid out.
	placeholder := make([][]byte, len(runs))
	for i, r := range runs {
		placeholder[i] = buildTraf(r.trackID, r.baseDTS, r.samples, int32(r.relStart))
	}
	moofSize := int64(len(buildMoof(uint32(index+1), placeholder)))

	trafs := make([][]byte, len(runs))
	for i, r := range runs {
		trafs[i] = buildTraf(r.trackID, r.baseDTS, r.samples, int32(moofSize+8+r.relStart))
	}
	finalMoof := buildMoof(uint32(index+1), trafs)

	return Segment{
		Index:     index,
		StartTime: startPTS,
		Duration:  duration,
		MoofBytes: finalMoof,
		Ranges:    ranges,
		MDATSize:  mdatCursor,
	}, nil
}
