package hevc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDOVIConfigurationRecordProfile7DualLayer(t *testing.T) {
	// profile=7 (0b00111 << 3 = 0x38), flags: rpu+el+bl all present.
	payload := []byte{1, 0, 0x38, 0xE0}
	info, ok := ParseDOVIConfigurationRecord(payload)
	assert.True(t, ok)
	assert.Equal(t, 7, info.Profile)
	assert.True(t, info.RPUPresent)
	assert.True(t, info.ELPresent)
	assert.True(t, info.BLPresent)
}

func TestParseDOVIConfigurationRecordProfile8SingleLayer(t *testing.T) {
	// profile=8 (0b01000 << 3 = 0x40), flags: rpu+bl present, no el.
	payload := []byte{1, 0, 0x40, 0xA0}
	info, ok := ParseDOVIConfigurationRecord(payload)
	assert.True(t, ok)
	assert.Equal(t, 8, info.Profile)
	assert.True(t, info.RPUPresent)
	assert.False(t, info.ELPresent)
	assert.True(t, info.BLPresent)
}

func TestParseDOVIConfigurationRecordTooShort(t *testing.T) {
	_, ok := ParseDOVIConfigurationRecord([]byte{1, 2})
	assert.False(t, ok)
}

func TestParseRPUHeaderInfersProfileFromELPresence(t *testing.T) {
	raw := []byte{0, 0, 0, 0, 0}
	dual := ParseRPUHeader(raw, true)
	assert.Equal(t, 7, dual.Profile)
	assert.True(t, dual.ELPresent)

	single := ParseRPUHeader(raw, false)
	assert.Equal(t, 8, single.Profile)
	assert.False(t, single.ELPresent)
}
