package release

import (
	"strconv"
	"strings"
)

// Info is the enrichment output of Parse: spec §4.2's
// `{title, year?, resolution?, source?, video_codec?, audio_codec?,
// languages[], edition?, group?, revision?}`. Every field is a best-effort
// recognition; Parse never fails, it only ever returns a more or less
// complete Info.
type Info struct {
	Title       string
	Year        int // 0 means absent
	Resolution  string
	Source      string
	VideoCodec  string
	AudioCodec  string
	Languages   []string
	Edition     string
	Group       string
	Revision    string
}

// Parse tokenizes filename (extension should already be stripped by the
// caller) and combines recognized tokens into Info. It is a pure function:
// no I/O, no side effects, and a partial result on anything it doesn't
// recognize rather than an error, per spec §4.2.
func Parse(filename string) Info {
	info := Info{}

	remainder := filename
	if m := groupSuffixPattern.FindStringSubmatch(remainder); m != nil {
		info.Group = m[1]
		remainder = remainder[:len(remainder)-len(m[0])]
	}

	tokens := tokenSplit.Split(remainder, -1)

	titleTokens := make([]string, 0, len(tokens))
	titleDone := false // true once we've consumed the first recognized tag token

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "" {
			continue
		}
		lower := strings.ToLower(tok)

		switch {
		case yearPattern.MatchString(tok):
			if y, err := strconv.Atoi(tok); err == nil {
				info.Year = y
			}
			titleDone = true
			continue
		case revisionPattern.MatchString(tok):
			info.Revision = strings.ToUpper(tok)
			titleDone = true
			continue
		}

		if res, ok := resolutionTokens[lower]; ok {
			info.Resolution = res
			titleDone = true
			continue
		}
		if src, ok := sourceTokens[lower]; ok {
			if src != "" {
				info.Source = src
			}
			titleDone = true
			continue
		}
		if vc, ok := videoCodecTokens[lower]; ok {
			info.VideoCodec = vc
			titleDone = true
			continue
		}
		if ac, ok := audioCodecTokens[lower]; ok {
			info.AudioCodec = ac
			titleDone = true
			continue
		}
		if lang, ok := languageTokens[lower]; ok {
			info.Languages = append(info.Languages, lang)
			titleDone = true
			continue
		}
		if ed, ok := editionTokens[lower]; ok {
			info.Edition = ed
			titleDone = true
			continue
		}
		// Two-word edition combinators ("directors cut") joined by "."
		// whatever the original separator — check a lookahead pair before falling
		// through to title accumulation.
		if i+1 < len(tokens) {
			pair := lower + "." + strings.ToLower(tokens[i+1])
			if ed, ok := editionTokens[pair]; ok {
				info.Edition = ed
				titleDone = true
				i++
				continue
			}
		}

		if !titleDone {
			titleTokens = append(titleTokens, tok)
		}
	}

	info.Title = strings.TrimSpace(strings.Join(titleTokens, " "))
	return info
}
