package probe

// h264LevelRank orders H.264 levels for the "profile ≤ High 4.1" comparison
// in spec §4.1. Only the levels that actually appear in consumer content are
// listed; an unrecognized level is treated as exceeding 4.1 (fails profile B,
// falls through to A/C) since we can't prove it's within bounds.
var h264LevelRank = map[string]int{
	"1": 10, "1.1": 11, "1.2": 12, "1.3": 13,
	"2": 20, "2.1": 21, "2.2": 22,
	"3": 30, "3.1": 31, "3.2": 32,
	"4": 40, "4.1": 41, "4.2": 42,
	"5": 50, "5.1": 51, "5.2": 52,
}

func isH264HighProfileAtMost41(v *VideoTrack) bool {
	if v.Codec != "h264" {
		return false
	}
	if v.CodecProfile != "High" && v.CodecProfile != "Main" && v.CodecProfile != "Baseline" && v.CodecProfile != "Constrained Baseline" {
		return false
	}
	rank, ok := h264LevelRank[v.CodecLevel]
	if !ok {
		return false
	}
	return rank <= h264LevelRank["4.1"]
}

// Classify implements the §4.1 classification rules, deterministic and
// order-sensitive: profile B is checked first, then the profile-A triggers,
// with everything else falling to profile C.
func Classify(m *MediaInfo) Profile {
	v := m.PrimaryVideo()
	a := m.PrimaryAudio()

	if v != nil && a != nil &&
		m.Container == ContainerMP4 &&
		isH264HighProfileAtMost41(v) &&
		v.Height <= 1080 &&
		a.Codec == "aac" &&
		m.HasFaststart {
		return ProfileB
	}

	if v != nil {
		switch v.HDRFormat {
		case HDR10, HDR10Plus, HDRDolbyVision:
			return ProfileA
		}
		if v.BitDepth > 8 || v.Height > 1080 {
			return ProfileA
		}
	}

	return ProfileC
}
