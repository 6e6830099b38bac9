package hls

import (
	"io"
	"os"
)

const fallbackBufSize = 64 * 1024

// readerFallback copies length bytes of src starting at offset into w using
// a bounded buffer, for writers (or platforms) without a zero-copy path.
func readerFallback(w io.Writer, src *os.File, offset, length int64) error {
	sr := io.NewSectionReader(src, offset, length)
	buf := make([]byte, fallbackBufSize)
	_, err := io.CopyBuffer(w, sr, buf)
	return err
}
