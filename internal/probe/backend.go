package probe

import (
	"context"
	"errors"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

// Backend is a single probing strategy. Probe tries backends in order
// (spec §4.1): the first to return a non-UnsupportedContainer result wins.
type Backend interface {
	Name() string
	Probe(ctx context.Context, path string) (*MediaInfo, error)
}

// IsUnsupportedContainer reports whether err is the specific Probe/UnsupportedContainer
// failure mode that tells the caller "try the next backend".
func IsUnsupportedContainer(err error) bool {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Kind == apperr.KindProbe && ae.Field == "UnsupportedContainer"
}
