package hevc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadBitsMSBFirst(t *testing.T) {
	r := NewBitReader([]byte{0b10110000})
	assert.Equal(t, uint32(1), r.ReadBit())
	assert.Equal(t, uint32(0), r.ReadBit())
	assert.Equal(t, uint32(1), r.ReadBit())
	assert.Equal(t, uint32(1), r.ReadBit())
}

func TestReadBitsMultiple(t *testing.T) {
	r := NewBitReader([]byte{0xAB, 0xCD})
	assert.Equal(t, uint32(0xA), r.ReadBits(4))
	assert.Equal(t, uint32(0xBC), r.ReadBits(8))
	assert.Equal(t, uint32(0xD), r.ReadBits(4))
}

func TestReadBitPastEndReturnsZero(t *testing.T) {
	r := NewBitReader([]byte{0xFF})
	r.ReadBits(8)
	assert.Equal(t, uint32(0), r.ReadBit())
}

// ue(v) table per the spec's standard bit-string -> value mapping:
// "1" -> 0, "010" -> 1, "011" -> 2, "00100" -> 3, "00101" -> 4.
func TestReadUE(t *testing.T) {
	cases := []struct {
		bits string
		want uint32
	}{
		{"1", 0},
		{"010", 1},
		{"011", 2},
		{"00100", 3},
		{"00101", 4},
		{"00110", 5},
		{"00111", 6},
	}
	for _, tc := range cases {
		r := NewBitReader(bitsToBytes(tc.bits))
		assert.Equal(t, tc.want, r.ReadUE(), "bits=%s", tc.bits)
	}
}

func TestReadSE(t *testing.T) {
	cases := []struct {
		bits string
		want int32
	}{
		{"1", 0},
		{"010", 1},
		{"011", -1},
		{"00100", 2},
		{"00101", -2},
	}
	for _, tc := range cases {
		r := NewBitReader(bitsToBytes(tc.bits))
		assert.Equal(t, tc.want, r.ReadSE(), "bits=%s", tc.bits)
	}
}

func TestReadFlag(t *testing.T) {
	r := NewBitReader([]byte{0b10000000})
	assert.True(t, r.ReadFlag())
	assert.False(t, r.ReadFlag())
}

func TestStripEmulationPrevention(t *testing.T) {
	in := []byte{0x00, 0x00, 0x03, 0x01, 0xAB, 0x00, 0x00, 0x03, 0x02}
	out := StripEmulationPrevention(in)
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0xAB, 0x00, 0x00, 0x02}, out)
}

func TestStripEmulationPreventionNoOp(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03, 0x04}
	assert.Equal(t, in, StripEmulationPrevention(in))
}

func TestSplitNALUnits(t *testing.T) {
	stream := []byte{0x00, 0x00, 0x01, 0xAA, 0xBB, 0x00, 0x00, 0x01, 0xCC}
	units := SplitNALUnits(stream)
	if assert.Len(t, units, 2) {
		assert.Equal(t, []byte{0xAA, 0xBB}, units[0])
		assert.Equal(t, []byte{0xCC}, units[1])
	}
}

// bitsToBytes packs a '0'/'1' string into big-endian bytes, right-padded
// with zero bits, for constructing exact exp-golomb test fixtures.
func bitsToBytes(bits string) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, c := range bits {
		if c == '1' {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}
