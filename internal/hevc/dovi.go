package hevc

// DVInfo mirrors the dv_info structure from spec §4.1: the Dolby Vision
// profile and which layers (base, enhancement, RPU) are present.
type DVInfo struct {
	Profile    int
	RPUPresent bool
	ELPresent  bool
	BLPresent  bool
}

// ParseDOVIConfigurationRecord parses the 'dvcC'/'dvvC' box payload (DOVIDecoderConfigurationRecord,
// Dolby Vision Streams Within the ISO Base Media File Format v2.1 §2.2). The
// first 3 bytes are version/profile/level; byte 4 carries
// rpu_present/el_present/bl_present as the top three bits.
func ParseDOVIConfigurationRecord(payload []byte) (DVInfo, bool) {
	if len(payload) < 4 {
		return DVInfo{}, false
	}
	// byte[0] = dv_version_major
	// byte[1] = dv_version_minor
	// byte[2] bits [7:3] = dv_profile, bits[2:0] = high 3 bits of dv_level
	// byte[3] bit 7 = rpu_present_flag, bit 6 = el_present_flag, bit 5 = bl_present_flag
	profile := int(payload[2] >> 3)
	flags := payload[3]
	info := DVInfo{
		Profile:    profile,
		RPUPresent: flags&0x80 != 0,
		ELPresent:  flags&0x40 != 0,
		BLPresent:  flags&0x20 != 0,
	}
	return info, true
}

// ParseRPUHeader extracts the Dolby Vision profile from an RPU NAL's header
// fields when no configuration-record box is available (e.g. scanning a raw
// elementary stream). rpu is the NAL payload with emulation prevention
// already stripped and the 2-byte NAL header removed.
//
// The RPU profile is not directly coded. The leading header bits are read
// and skipped; the profile is inferred from elPresent alone: 7 when an
// enhancement layer is present, 8 otherwise. No other profile is reported.
func ParseRPUHeader(rpu []byte, elPresent bool) DVInfo {
	info := DVInfo{RPUPresent: true, BLPresent: true, ELPresent: elPresent}
	r := NewBitReader(rpu)
	_ = r.ReadBits(8)  // rpu_nal_prefix
	rpuType := r.ReadBits(6)
	_ = rpuType
	_ = r.ReadBits(11) // vdr_rpu_id + mapping_color_space + mapping_chroma_format_idc (approx)

	switch {
	case elPresent:
		info.Profile = 7
	default:
		info.Profile = 8
	}
	return info
}
