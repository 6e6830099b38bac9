// Package release implements the Release Parser (C2): a pure, I/O-free
// filename tokenizer that enriches a scanned item's display name without
// ever influencing routing decisions (spec §4.2).
package release

import "regexp"

// tokenSplit breaks a filename (extension already stripped) into the
// dot/dash/underscore/space-delimited tokens scene and p2p release names use.
var tokenSplit = regexp.MustCompile(`[.\-_ ]+`)

// resolutionTokens maps a lowercased token to its normalized resolution tag.
var resolutionTokens = map[string]string{
	"480p": "480p", "576p": "576p", "720p": "720p", "1080p": "1080p",
	"1080i": "1080i", "2160p": "2160p", "4320p": "4320p",
	"4k": "2160p", "8k": "4320p", "uhd": "2160p",
}

// sourceTokens maps a lowercased token to a normalized source tag.
var sourceTokens = map[string]string{
	"bluray": "BluRay", "blu-ray": "BluRay", "bdrip": "BDRip", "brrip": "BRRip",
	"web-dl": "WEB-DL", "webdl": "WEB-DL", "webrip": "WEBRip", "web": "WEB",
	"hdtv": "HDTV", "dvdrip": "DVDRip", "dvd": "DVD", "remux": "Remux",
	"hdr": "", // HDR is not a source: it ends the title but records no field
}

// videoCodecTokens maps a lowercased token to a normalized video codec tag.
var videoCodecTokens = map[string]string{
	"x264": "h264", "h264": "h264", "avc": "h264",
	"x265": "hevc", "h265": "hevc", "hevc": "hevc",
	"av1": "av1", "vp9": "vp9",
}

// audioCodecTokens maps a lowercased token to a normalized audio codec tag.
var audioCodecTokens = map[string]string{
	"aac": "aac", "ac3": "ac3", "eac3": "eac3", "ddp": "eac3", "dd": "ac3",
	"dts": "dts", "dtshd": "dts-hd", "truehd": "truehd", "flac": "flac",
	"atmos": "atmos", "opus": "opus",
}

// languageTokens maps a lowercased token to an ISO-639-1-ish tag. Scene
// releases use a small, closed set of English language names for this.
var languageTokens = map[string]string{
	"english": "en", "eng": "en", "french": "fr", "fre": "fr", "german": "de",
	"ger": "de", "spanish": "es", "spa": "es", "italian": "it", "ita": "it",
	"japanese": "ja", "jpn": "ja", "korean": "ko", "kor": "ko",
	"multi": "multi", "dual": "dual",
}

// editionTokens maps a lowercased token (possibly multi-word, joined by "."
// whatever the original separator was) to a normalized edition tag.
var editionTokens = map[string]string{
	"extended": "Extended", "directors.cut": "Director's Cut",
	"unrated": "Unrated", "theatrical": "Theatrical",
	"remastered": "Remastered", "imax": "IMAX",
}

// groupSuffixPattern matches the trailing scene-group marker, "-GROUP".
var groupSuffixPattern = regexp.MustCompile(`-([A-Za-z0-9]+)$`)

// yearPattern matches a 4-digit year token, 1900-2099.
var yearPattern = regexp.MustCompile(`^(19|20)\d{2}$`)

// revisionPattern matches a scene revision tag ("REPACK", "PROPER", "v2" …).
var revisionPattern = regexp.MustCompile(`(?i)^(repack|proper|real|v\d)$`)
