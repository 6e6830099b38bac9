//go:build !linux

package hls

import (
	"io"
	"os"
)

// transferRange on non-Linux platforms always uses the portable read/write
// fallback; no syscall-level primitive is universal enough here (spec §9
// design note: "fall back to a 64 KiB read-write loop only when unavailable").
func transferRange(w io.Writer, src *os.File, offset, length int64) error {
	return readerFallback(w, src, offset, length)
}
