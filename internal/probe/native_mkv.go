package probe

import (
	"context"
	"os"
	"strings"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/mkv"
)

// NativeMKVBackend walks the EBML element tree directly, per spec §4.1
// bullet 1 ("For Matroska: walks EBML"). It derives duration from nothing
// more than the element tree — Matroska's canonical Duration element lives
// in Info, which is out of scope for classification and left at zero; the
// rule engine never keys off duration.
type NativeMKVBackend struct{}

func NewNativeMKVBackend() Backend { return NativeMKVBackend{} }

func (NativeMKVBackend) Name() string { return "native-mkv" }

var mkvCodecNames = map[string]string{
	"V_MPEG4/ISO/AVC":   "h264",
	"V_MPEGH/ISO/HEVC":  "hevc",
	"V_VP9":             "vp9",
	"V_AV1":             "av1",
	"A_AAC":             "aac",
	"A_AC3":             "ac3",
	"A_EAC3":            "eac3",
	"A_DTS":             "dts",
	"A_TRUEHD":          "truehd",
	"A_FLAC":            "flac",
	"A_OPUS":            "opus",
	"S_TEXT/UTF8":       "srt",
	"S_TEXT/ASS":        "ass",
	"S_HDMV/PGS":        "pgs",
	"S_VOBSUB":          "vobsub",
}

func (b NativeMKVBackend) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.IO("open", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, apperr.IO("stat", err)
	}

	top, err := mkv.ReadElements(f, 0, stat.Size())
	if err != nil {
		return nil, apperr.Probe("Truncated", err.Error())
	}
	if mkv.Find(top, mkv.IDEBML) == nil {
		return nil, apperr.Probe("UnsupportedContainer", "not an EBML/Matroska file")
	}
	segment := mkv.Find(top, mkv.IDSegment)
	if segment == nil {
		return nil, apperr.Probe("UnsupportedContainer", "missing Segment element")
	}

	info := &MediaInfo{Path: path, Size: stat.Size(), Container: ContainerMatroska}
	// Matroska's interleaving model means faststart/fixed-GOP HLS eligibility
	// never applies; only TranscodeUniversal output (always MP4) can serve
	// as profile B.
	info.HasFaststart = false
	info.FixedGOP = false

	tracks := mkv.Find(segment.Children, mkv.IDTracks)
	if tracks == nil {
		return nil, apperr.Probe("UnknownCodec", "no Tracks element found")
	}
	for _, te := range mkv.FindAll(tracks.Children, mkv.IDTrackEntry) {
		b.addTrack(f, info, te)
	}
	if len(info.Video) == 0 {
		return nil, apperr.Probe("UnknownCodec", "no video track found")
	}
	return info, nil
}

func (NativeMKVBackend) addTrack(f *os.File, info *MediaInfo, te mkv.Element) {
	typeEl := mkv.Find(te.Children, mkv.IDTrackType)
	if typeEl == nil {
		return
	}
	trackType, err := mkv.ReadUint(f, *typeEl)
	if err != nil {
		return
	}

	codec := ""
	if codecEl := mkv.Find(te.Children, mkv.IDCodecID); codecEl != nil {
		if raw, err := mkv.ReadString(f, *codecEl); err == nil {
			codec = strings.TrimRight(raw, "\x00")
		}
	}
	if mapped, ok := mkvCodecNames[codec]; ok {
		codec = mapped
	}

	lang := ""
	if langEl := mkv.Find(te.Children, mkv.IDLanguageBCP47); langEl != nil {
		lang, _ = mkv.ReadString(f, *langEl)
	} else if langEl := mkv.Find(te.Children, mkv.IDLanguage); langEl != nil {
		lang, _ = mkv.ReadString(f, *langEl)
	}

	switch trackType {
	case 1: // video
		vt := VideoTrack{Index: len(info.Video), Codec: codec, BitDepth: 8}
		if videoEl := mkv.Find(te.Children, mkv.IDVideo); videoEl != nil {
			if wEl := mkv.Find(videoEl.Children, mkv.IDPixelWidth); wEl != nil {
				if w, err := mkv.ReadUint(f, *wEl); err == nil {
					vt.Width = int(w)
				}
			}
			if hEl := mkv.Find(videoEl.Children, mkv.IDPixelHeight); hEl != nil {
				if h, err := mkv.ReadUint(f, *hEl); err == nil {
					vt.Height = int(h)
				}
			}
		}
		info.Video = append(info.Video, vt)
	case 2: // audio
		at := AudioTrack{Index: len(info.Audio), Codec: codec, Language: lang}
		if audioEl := mkv.Find(te.Children, mkv.IDAudio); audioEl != nil {
			if chEl := mkv.Find(audioEl.Children, mkv.IDChannels); chEl != nil {
				if ch, err := mkv.ReadUint(f, *chEl); err == nil {
					at.Channels = int(ch)
				}
			}
			if freqEl := mkv.Find(audioEl.Children, mkv.IDSamplingFreq); freqEl != nil {
				if freq, err := mkv.ReadFloat(f, *freqEl); err == nil {
					at.SampleRate = int(freq)
				}
			}
		}
		info.Audio = append(info.Audio, at)
	case 17: // subtitle
		info.Subtitle = append(info.Subtitle, SubtitleTrack{Index: len(info.Subtitle), Codec: codec, Language: lang})
	}
}
