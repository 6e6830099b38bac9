//go:build linux

package hls

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// transferRange copies length bytes of src starting at offset into w. On
// Linux, when w has an Fd() method (e.g. *os.File), it uses unix.Sendfile
// to avoid bouncing the page cache through userspace. Any other writer
// falls back to readerFallback; net.TCPConn and http.ResponseWriter have no
// Fd() method, so HTTP responses are copied through userspace.
func transferRange(w io.Writer, src *os.File, offset, length int64) error {
	type fdWriter interface {
		Fd() uintptr
	}
	fw, ok := w.(fdWriter)
	if !ok {
		return readerFallback(w, src, offset, length)
	}

	remaining := length
	off := offset
	dstFd := int(fw.Fd())
	srcFd := int(src.Fd())
	for remaining > 0 {
		n, err := unix.Sendfile(dstFd, srcFd, &off, int(remaining))
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			if err == unix.ENOSYS || err == unix.EINVAL {
				return readerFallback(w, src, off, remaining)
			}
			return err
		}
		if n == 0 {
			return readerFallback(w, src, off, remaining)
		}
		remaining -= int64(n)
	}
	return nil
}
