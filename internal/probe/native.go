package probe

import "context"

// nativeBackend is the single "native backend" spec §4.1 describes: it
// recognizes MP4 (box tree) and Matroska (EBML) container bytes directly,
// trying each sub-parser in turn.
type nativeBackend struct {
	mp4 Backend
	mkv Backend
}

// NewNativeBackend wires the MP4 box-tree parser ahead of the EBML parser;
// MP4 is checked first since it is the dominant format for the universal
// profile-B output this system itself produces.
func NewNativeBackend() Backend {
	return nativeBackend{mp4: NativeMP4Backend{}, mkv: NativeMKVBackend{}}
}

func (nativeBackend) Name() string { return "native" }

func (n nativeBackend) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	info, err := n.mp4.Probe(ctx, path)
	if err == nil {
		return info, nil
	}
	if !IsUnsupportedContainer(err) {
		return nil, err
	}
	return n.mkv.Probe(ctx, path)
}
