// Package mp4 implements a minimal reader for ISO/IEC 14496-12 box trees,
// shared by internal/probe (container classification) and internal/hls
// (segment-map construction). It does not attempt to support every box in
// the standard — only the subset spec-relevant for faststart MP4, H.264/HEVC
// sample tables, and fragment headers.
package mp4

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Box is one node in the box tree: its four-character type, its payload
// bounds within the file, and (for container boxes) its children.
type Box struct {
	Type     string
	Offset   int64 // start of the box header
	HeaderSize int64
	Size     int64 // total size including header
	Children []Box
}

// PayloadOffset returns the file offset where this box's payload begins.
func (b Box) PayloadOffset() int64 { return b.Offset + b.HeaderSize }

// PayloadSize returns the size of this box's payload (excluding header).
func (b Box) PayloadSize() int64 { return b.Size - b.HeaderSize }

// containerTypes are boxes whose payload is itself a sequence of boxes.
var containerTypes = map[string]bool{
	"moov": true, "trak": true, "mdia": true, "minf": true, "stbl": true,
	"mvex": true, "edts": true, "udta": true, "moof": true, "traf": true,
	"meta": false, // meta is treated as a leaf, so the meta branch in ReadBoxes is not reached
}

// ErrTruncated is returned when a box header or declared size runs past EOF.
var ErrTruncated = fmt.Errorf("mp4: truncated box")

// ReadBoxes walks the box sequence in [start, start+limit) at the current
// position of r, recursing into known container types. r must support
// seeking so children can be skipped without reading their payload.
func ReadBoxes(r io.ReadSeeker, start, limit int64) ([]Box, error) {
	var boxes []Box
	pos := start
	end := start + limit
	for pos < end {
		b, headerSize, err := readHeader(r, pos)
		if err != nil {
			return boxes, err
		}
		if b.Size < headerSize || pos+b.Size > end {
			return boxes, ErrTruncated
		}
		b.HeaderSize = headerSize
		if containerTypes[b.Type] {
			childStart := b.PayloadOffset()
			if b.Type == "meta" {
				childStart += 4 // version+flags
			}
			if _, err := r.Seek(childStart, io.SeekStart); err != nil {
				return boxes, err
			}
			children, err := ReadBoxes(r, childStart, b.Offset+b.Size-childStart)
			if err != nil {
				return boxes, err
			}
			b.Children = children
		}
		boxes = append(boxes, b)
		pos = b.Offset + b.Size
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return boxes, err
		}
	}
	return boxes, nil
}

// readHeader reads one box header (32-bit size + 4cc, with 64-bit extended
// size support) at the given offset.
func readHeader(r io.ReadSeeker, offset int64) (Box, int64, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return Box{}, 0, err
	}
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Box{}, 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	size := int64(binary.BigEndian.Uint32(hdr[0:4]))
	typ := string(hdr[4:8])
	headerSize := int64(8)
	if size == 1 {
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Box{}, 0, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		size = int64(binary.BigEndian.Uint64(ext[:]))
		headerSize = 16
	}
	return Box{Type: typ, Offset: offset, Size: size}, headerSize, nil
}

// Find returns the first child box with the given type, or nil.
func Find(boxes []Box, typ string) *Box {
	for i := range boxes {
		if boxes[i].Type == typ {
			return &boxes[i]
		}
	}
	return nil
}

// FindPath walks a path of box types, e.g. FindPath(root, "moov", "trak").
func FindPath(boxes []Box, path ...string) *Box {
	cur := boxes
	var found *Box
	for _, typ := range path {
		found = Find(cur, typ)
		if found == nil {
			return nil
		}
		cur = found.Children
	}
	return found
}

// FindAll returns every child box with the given type.
func FindAll(boxes []Box, typ string) []Box {
	var out []Box
	for _, b := range boxes {
		if b.Type == typ {
			out = append(out, b)
		}
	}
	return out
}

// ReadPayload reads the full payload bytes of a leaf box from r.
func ReadPayload(r io.ReadSeeker, b Box) ([]byte, error) {
	if _, err := r.Seek(b.PayloadOffset(), io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, b.PayloadSize())
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return buf, nil
}
