package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAVCConfig(t *testing.T) {
	// version=1, profile_idc=100 (High), compat=0, level_idc=41 (4.1)
	payload := []byte{1, 100, 0, 41, 0xff}
	profile, level, ok := parseAVCConfig(payload)
	assert.True(t, ok)
	assert.Equal(t, "High", profile)
	assert.Equal(t, "4.1", level)
}

func TestParseAVCConfigTooShort(t *testing.T) {
	_, _, ok := parseAVCConfig([]byte{1, 100})
	assert.False(t, ok)
}

func TestParseAVCConfigUnknownProfile(t *testing.T) {
	payload := []byte{1, 200, 0, 30}
	profile, level, ok := parseAVCConfig(payload)
	assert.True(t, ok)
	assert.Equal(t, "Unknown", profile)
	assert.Equal(t, "3", level)
}

func TestFormatH264Level(t *testing.T) {
	assert.Equal(t, "4", formatH264Level(40))
	assert.Equal(t, "4.1", formatH264Level(41))
	assert.Equal(t, "5.2", formatH264Level(52))
}
