package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsKindComparison(t *testing.T) {
	a := NotFound("library", "abc")
	b := NotFound("item", "def")
	c := Validation("name", "required")

	assert.True(t, errors.Is(a, b), "two NotFound errors should compare equal by kind")
	assert.False(t, errors.Is(a, c))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := IO("write", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "disk full")
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"tool missing is permanent", Tool("ffmpeg", "Missing", "not found"), false},
		{"tool timeout retries", Tool("ffmpeg", "Timeout", "deadline"), true},
		{"pipeline error retries", Pipeline("transcode", "boom"), true},
		{"io error retries", IO("write", errors.New("x")), true},
		{"probe error retries", Probe("Truncated", "short read"), true},
		{"validation does not retry", Validation("name", "required"), false},
		{"migration drift does not retry", MigrationDrift("0003"), false},
		{"plain error does not retry", fmt.Errorf("unwrapped"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Retryable(tc.err))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(Conflict("dup")))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
