package hevc

// SPS carries the fields of an HEVC Sequence Parameter Set relevant to
// classification: profile/level, picture dimensions, bit depth, and any
// VUI-signaled color metadata used to detect HDR10/HLG.
type SPS struct {
	ProfileIDC    int
	LevelIDC      int
	PicWidth      int
	PicHeight     int
	BitDepthLuma  int
	ColorPrimaries int // VUI colour_primaries, -1 if absent
	TransferChar   int // VUI transfer_characteristics, -1 if absent
	MatrixCoeffs   int // VUI matrix_coeffs, -1 if absent
}

// HDRFormat classifies an SPS's VUI color metadata per spec §4.1. Returns
// "", "hdr10", or "hlg"; HDR10+ and Dolby Vision are detected separately
// from SEI/RPU and are not derivable from SPS alone.
func (s SPS) HDRFormat() string {
	switch s.TransferChar {
	case 16: // SMPTE ST 2084 (PQ)
		if s.ColorPrimaries == 9 { // BT.2020
			return "hdr10"
		}
		return "hdr10" // PQ without BT.2020 primaries is non-conformant but still PQ
	case 18: // ARIB STD-B67 (HLG)
		return "hlg"
	default:
		return ""
	}
}

// ParseSPS parses the RBSP of an HEVC SPS NAL unit (payload only, after the
// 2-byte NAL header and with emulation prevention already stripped by the
// caller via StripEmulationPrevention). It is tolerant of parse failure on
// the long tail of scaling-list/short-term-ref-pic-set syntax: those fields
// are not needed for classification and a partial SPS with zero values for
// unparsed fields is returned rather than an error.
func ParseSPS(rbsp []byte) SPS {
	r := NewBitReader(rbsp)
	sps := SPS{ColorPrimaries: -1, TransferChar: -1, MatrixCoeffs: -1}

	_ = r.ReadBits(4) // sps_video_parameter_set_id
	maxSubLayersMinus1 := r.ReadBits(3)
	_ = r.ReadFlag() // sps_temporal_id_nesting_flag

	// profile_tier_level(1, maxSubLayersMinus1)
	_ = r.ReadBits(2) // general_profile_space
	_ = r.ReadFlag()  // general_tier_flag
	sps.ProfileIDC = int(r.ReadBits(5))
	_ = r.ReadBits(32) // general_profile_compatibility_flags
	_ = r.ReadBits(32) // constraint flags, high
	_ = r.ReadBits(16) // constraint flags, low + reserved
	sps.LevelIDC = int(r.ReadBits(8))

	subLayerProfilePresent := make([]bool, maxSubLayersMinus1)
	subLayerLevelPresent := make([]bool, maxSubLayersMinus1)
	for i := uint32(0); i < maxSubLayersMinus1; i++ {
		subLayerProfilePresent[i] = r.ReadFlag()
		subLayerLevelPresent[i] = r.ReadFlag()
	}
	if maxSubLayersMinus1 > 0 {
		for i := maxSubLayersMinus1; i < 8; i++ {
			_ = r.ReadBits(2) // reserved
		}
	}
	for i := uint32(0); i < maxSubLayersMinus1; i++ {
		if subLayerProfilePresent[i] {
			_ = r.ReadBits(32 + 32 + 24 + 8) // profile fields for sub-layer, skipped
		}
		if subLayerLevelPresent[i] {
			_ = r.ReadBits(8)
		}
	}

	_ = r.ReadUE() // sps_seq_parameter_set_id
	chromaFormatIDC := r.ReadUE()
	if chromaFormatIDC == 3 {
		_ = r.ReadFlag() // separate_colour_plane_flag
	}
	sps.PicWidth = int(r.ReadUE())
	sps.PicHeight = int(r.ReadUE())
	if r.ReadFlag() { // conformance_window_flag
		_ = r.ReadUE()
		_ = r.ReadUE()
		_ = r.ReadUE()
		_ = r.ReadUE()
	}
	bitDepthLumaMinus8 := r.ReadUE()
	sps.BitDepthLuma = int(bitDepthLumaMinus8) + 8
	_ = r.ReadUE() // bit_depth_chroma_minus8
	_ = r.ReadUE() // log2_max_pic_order_cnt_lsb_minus4

	subLayerOrderingInfoPresent := r.ReadFlag()
	start := uint32(0)
	if subLayerOrderingInfoPresent {
		start = 0
	} else {
		start = maxSubLayersMinus1
	}
	for i := start; i <= maxSubLayersMinus1; i++ {
		_ = r.ReadUE()
		_ = r.ReadUE()
		_ = r.ReadUE()
	}

	_ = r.ReadUE() // log2_min_luma_coding_block_size_minus3
	_ = r.ReadUE() // log2_diff_max_min_luma_coding_block_size
	_ = r.ReadUE() // log2_min_luma_transform_block_size_minus2
	_ = r.ReadUE() // log2_diff_max_min_luma_transform_block_size
	_ = r.ReadUE() // max_transform_hierarchy_depth_inter
	_ = r.ReadUE() // max_transform_hierarchy_depth_intra

	if r.ReadFlag() { // scaling_list_enabled_flag
		// Parsing the full scaling list is not needed for classification;
		// stop here since VUI offset is no longer reliably recoverable
		// without it. Fields below default to "absent".
		return sps
	}

	_ = r.ReadFlag() // amp_enabled_flag
	_ = r.ReadFlag() // sample_adaptive_offset_enabled_flag
	if r.ReadFlag() { // pcm_enabled_flag
		_ = r.ReadBits(4)
		_ = r.ReadBits(4)
		_ = r.ReadUE()
		_ = r.ReadUE()
		_ = r.ReadFlag()
	}
	numShortTermRefPicSets := r.ReadUE()
	if numShortTermRefPicSets > 0 {
		// Short-term RPS parsing is non-trivial (inter-RPS prediction); bail
		// out rather than risk desyncing the bitstream past this point.
		return sps
	}
	if r.ReadFlag() { // long_term_ref_pics_present_flag
		return sps
	}
	_ = r.ReadFlag() // sps_temporal_mvp_enabled_flag
	_ = r.ReadFlag() // strong_intra_smoothing_enabled_flag

	if r.ReadFlag() { // vui_parameters_present_flag
		sps.parseVUI(r)
	}
	return sps
}

func (s *SPS) parseVUI(r *BitReader) {
	if r.ReadFlag() { // aspect_ratio_info_present_flag
		idc := r.ReadBits(8)
		if idc == 255 {
			_ = r.ReadBits(16)
			_ = r.ReadBits(16)
		}
	}
	if r.ReadFlag() { // overscan_info_present_flag
		_ = r.ReadFlag()
	}
	if r.ReadFlag() { // video_signal_type_present_flag
		_ = r.ReadBits(3) // video_format
		_ = r.ReadFlag()  // video_full_range_flag
		if r.ReadFlag() { // colour_description_present_flag
			s.ColorPrimaries = int(r.ReadBits(8))
			s.TransferChar = int(r.ReadBits(8))
			s.MatrixCoeffs = int(r.ReadBits(8))
		}
	}
}
