package probe

import (
	"context"

	"github.com/rs/zerolog"
)

// Prober chains backends per spec §4.1: native first, external fallback,
// first success wins (a success being any result that isn't
// UnsupportedContainer).
type Prober struct {
	backends []Backend
	log      zerolog.Logger
}

func NewProber(log zerolog.Logger, backends ...Backend) *Prober {
	return &Prober{backends: backends, log: log.With().Str("component", "probe").Logger()}
}

// Default wires the native backend ahead of the external ffprobe-style
// fallback, matching the order spec §4.1 mandates.
func Default(log zerolog.Logger, ffprobePath string) *Prober {
	return NewProber(log, NewNativeBackend(), NewExternalBackend(ffprobePath))
}

func (p *Prober) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	var lastErr error
	for _, b := range p.backends {
		info, err := b.Probe(ctx, path)
		if err == nil {
			return info, nil
		}
		lastErr = err
		if !IsUnsupportedContainer(err) {
			return nil, err
		}
		p.log.Debug().Str("backend", b.Name()).Str("path", path).Msg("backend reported unsupported container, trying next")
	}
	return nil, lastErr
}
