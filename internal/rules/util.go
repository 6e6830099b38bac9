package rules

import (
	"path/filepath"
	"strings"
)

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "."))
}

func extOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
