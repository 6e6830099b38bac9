package probe

import "strconv"

// h264ProfileNames maps AVCDecoderConfigurationRecord profile_idc to the
// display names spec §4.1's profile-B rule compares against ("High", ...).
var h264ProfileNames = map[int]string{
	66:  "Baseline",
	77:  "Main",
	88:  "Extended",
	100: "High",
	110: "High10",
	122: "High422",
	144: "High444",
	244: "High444",
}

// parseAVCConfig parses an 'avcC' box payload (ISO/IEC 14496-15
// AVCDecoderConfigurationRecord): byte[0]=version, byte[1]=profile_idc,
// byte[2]=profile_compatibility, byte[3]=level_idc.
func parseAVCConfig(payload []byte) (profile, level string, ok bool) {
	if len(payload) < 4 {
		return "", "", false
	}
	profileIDC := int(payload[1])
	levelIDC := int(payload[3])
	name, known := h264ProfileNames[profileIDC]
	if !known {
		name = "Unknown"
	}
	return name, formatH264Level(levelIDC), true
}

// formatH264Level renders level_idc (e.g. 41) as the dotted form ("4.1")
// used throughout spec.md and the h264LevelRank table in classify.go.
func formatH264Level(levelIDC int) string {
	major := levelIDC / 10
	minor := levelIDC % 10
	if minor == 0 {
		return strconv.Itoa(major)
	}
	return strconv.Itoa(major) + "." + strconv.Itoa(minor)
}
