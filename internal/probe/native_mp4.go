package probe

import (
	"context"
	"os"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/hevc"
	"github.com/sceneforged/sceneforged/internal/mp4"
)

// NativeMP4Backend walks the ISO/IEC 14496-12 box tree directly, per spec
// §4.1 bullet 1. It never shells out.
type NativeMP4Backend struct{}

func (NativeMP4Backend) Name() string { return "native-mp4" }

func (b NativeMP4Backend) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.IO("open", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, apperr.IO("stat", err)
	}

	top, err := mp4.ReadBoxes(f, 0, stat.Size())
	if err != nil {
		return nil, apperr.Probe("Truncated", err.Error())
	}

	ftyp := mp4.Find(top, "ftyp")
	moov := mp4.Find(top, "moov")
	if ftyp == nil || moov == nil {
		return nil, apperr.Probe("UnsupportedContainer", "not an MP4 file (missing ftyp/moov)")
	}

	info := &MediaInfo{Path: path, Size: stat.Size(), Container: ContainerMP4}

	// faststart: moov must precede the first mdat.
	mdat := mp4.Find(top, "mdat")
	info.HasFaststart = mdat == nil || moov.Offset < mdat.Offset

	mvhd := mp4.Find(moov.Children, "mvhd")
	if mvhd != nil {
		mh, err := mp4.ParseMovieHeader(f, *mvhd)
		if err == nil && mh.Timescale > 0 {
			info.Duration = float64(mh.Duration) / float64(mh.Timescale)
		}
	}

	traks := mp4.FindAll(moov.Children, "trak")
	fixedGOP := true
	sawVideo := false
	for _, trak := range traks {
		mdia := mp4.Find(trak.Children, "mdia")
		if mdia == nil {
			continue
		}
		hdlrBox := mp4.Find(mdia.Children, "hdlr")
		if hdlrBox == nil {
			continue
		}
		handler, err := mp4.HandlerType(f, *hdlrBox)
		if err != nil {
			continue
		}

		mdhd := mp4.Find(mdia.Children, "mdhd")
		var mediaHeader mp4.MediaHeader
		if mdhd != nil {
			mediaHeader, _ = mp4.ParseMediaHeader(f, *mdhd)
		}

		minf := mp4.Find(mdia.Children, "minf")
		if minf == nil {
			continue
		}
		stbl := mp4.Find(minf.Children, "stbl")
		if stbl == nil {
			continue
		}
		stsd := mp4.Find(stbl.Children, "stsd")
		if stsd == nil {
			continue
		}
		entry, err := mp4.ParseSampleDescription(f, *stsd)
		if err != nil || entry == nil {
			continue
		}

		switch handler {
		case "vide":
			sawVideo = true
			vt, isFixed := b.buildVideoTrack(f, len(info.Video), entry, stbl, mediaHeader)
			info.Video = append(info.Video, vt)
			if !isFixed {
				fixedGOP = false
			}
		case "soun":
			info.Audio = append(info.Audio, b.buildAudioTrack(len(info.Audio), entry, mediaHeader))
		case "sbtl", "subt", "text":
			info.Subtitle = append(info.Subtitle, SubtitleTrack{
				Index:    len(info.Subtitle),
				Codec:    entry.Codec,
				Language: mediaHeader.Language,
			})
		}
	}
	info.FixedGOP = sawVideo && fixedGOP

	if len(info.Video) == 0 {
		return nil, apperr.Probe("UnknownCodec", "no video track found")
	}
	return info, nil
}

// buildVideoTrack decodes one video trak's sample entry and (for HEVC)
// digs into the hvcC's embedded SPS NAL for bit depth/HDR signaling. It also
// inspects stss to determine whether keyframe spacing is constant, the
// "fixed GOP" gate spec §4.9.1 requires for HLS eligibility.
func (NativeMP4Backend) buildVideoTrack(f *os.File, index int, entry *mp4.SampleEntry, stbl *mp4.Box, mh mp4.MediaHeader) (VideoTrack, bool) {
	vt := VideoTrack{
		Index:  index,
		Width:  int(entry.Width),
		Height: int(entry.Height),
	}

	switch entry.Codec {
	case "avc1", "avc3":
		vt.Codec = "h264"
		vt.BitDepth = 8
		if avcC := mp4.Find(entry.Children, "avcC"); avcC != nil {
			if payload, err := mp4.ReadPayload(f, *avcC); err == nil {
				if profile, level, ok := parseAVCConfig(payload); ok {
					vt.CodecProfile = profile
					vt.CodecLevel = level
				}
			}
		}
	case "hvc1", "hev1":
		vt.Codec = "hevc"
		vt.BitDepth = 8
		if hvcC := mp4.Find(entry.Children, "hvcC"); hvcC != nil {
			if payload, err := mp4.ReadPayload(f, *hvcC); err == nil {
				if sps, ok := extractHEVCSPS(payload); ok {
					vt.BitDepth = sps.BitDepthLuma
					switch sps.HDRFormat() {
					case "hdr10":
						vt.HDRFormat = HDR10
					case "hlg":
						vt.HDRFormat = HDRHLG
					}
				}
			}
		}
		if dv, ok := findDOVIBox(f, entry.Children); ok {
			vt.HDRFormat = HDRDolbyVision
			vt.DVInfo = &DVInfo{Profile: dv.Profile, RPUPresent: dv.RPUPresent, ELPresent: dv.ELPresent, BLPresent: dv.BLPresent}
		}
	default:
		vt.Codec = entry.Codec
		vt.BitDepth = 8
	}

	fixedGOP := true
	if mh.Timescale > 0 {
		stts := mp4.Find(stbl.Children, "stts")
		if stts != nil {
			if runs, err := mp4.ParseTimeToSample(f, *stts); err == nil && len(runs) > 0 {
				// Approximate frame rate from the dominant stts run.
				best := runs[0]
				for _, r := range runs {
					if r.Count > best.Count {
						best = r
					}
				}
				if best.Delta > 0 {
					vt.FrameRate = float64(mh.Timescale) / float64(best.Delta)
				}
			}
		}
	}

	if stss := mp4.Find(stbl.Children, "stss"); stss != nil {
		if syncSamples, err := mp4.ParseSyncSamples(f, *stss); err == nil && len(syncSamples) > 1 {
			interval := syncSamples[1] - syncSamples[0]
			for i := 2; i < len(syncSamples); i++ {
				if syncSamples[i]-syncSamples[i-1] != interval {
					fixedGOP = false
					break
				}
			}
		}
	}
	// No stss at all means every sample is a sync sample (all-intra); that is
	// trivially fixed-GOP.

	return vt, fixedGOP
}

func (NativeMP4Backend) buildAudioTrack(index int, entry *mp4.SampleEntry, mh mp4.MediaHeader) AudioTrack {
	codec := entry.Codec
	switch entry.Codec {
	case "mp4a":
		codec = "aac"
	case "ac-3":
		codec = "ac3"
	case "ec-3":
		codec = "eac3"
	}
	return AudioTrack{
		Index:      index,
		Codec:      codec,
		Language:   mh.Language,
		Channels:   int(entry.Channels),
		SampleRate: int(entry.SampleRate),
	}
}

// extractHEVCSPS locates the first SPS NAL unit inside an hvcC
// (HEVCDecoderConfigurationRecord, ISO/IEC 14496-15 §8.3.3) array and parses
// it via internal/hevc.
func extractHEVCSPS(hvcC []byte) (hevc.SPS, bool) {
	if len(hvcC) < 23 {
		return hevc.SPS{}, false
	}
	numArrays := int(hvcC[22])
	off := 23
	for a := 0; a < numArrays; a++ {
		if off+3 > len(hvcC) {
			break
		}
		nalType := hvcC[off] & 0x3f
		numNalus := int(hvcC[off+1])<<8 | int(hvcC[off+2])
		off += 3
		for n := 0; n < numNalus; n++ {
			if off+2 > len(hvcC) {
				return hevc.SPS{}, false
			}
			nalLen := int(hvcC[off])<<8 | int(hvcC[off+1])
			off += 2
			if off+nalLen > len(hvcC) {
				return hevc.SPS{}, false
			}
			if nalType == 33 { // SPS_NUT
				nal := hvcC[off : off+nalLen]
				rbsp := hevc.StripEmulationPrevention(nal[2:]) // skip 2-byte NAL header
				return hevc.ParseSPS(rbsp), true
			}
			off += nalLen
		}
	}
	return hevc.SPS{}, false
}

// findDOVIBox looks for a 'dvcC' or 'dvvC' configuration record among a
// sample entry's children (Dolby Vision Streams Within the ISO Base Media
// File Format v2.1).
func findDOVIBox(f *os.File, children []mp4.Box) (hevc.DVInfo, bool) {
	box := mp4.Find(children, "dvcC")
	if box == nil {
		box = mp4.Find(children, "dvvC")
	}
	if box == nil {
		return hevc.DVInfo{}, false
	}
	payload, err := mp4.ReadPayload(f, *box)
	if err != nil {
		return hevc.DVInfo{}, false
	}
	return hevc.ParseDOVIConfigurationRecord(payload)
}
