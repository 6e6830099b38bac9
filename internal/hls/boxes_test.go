package hls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoxHeaderSizeAndType(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	b := box("moof", payload)
	assert.Len(t, b, 8+len(payload))
	assert.Equal(t, uint32(8+len(payload)), uint32(b[0])<<24|uint32(b[1])<<16|uint32(b[2])<<8|uint32(b[3]))
	assert.Equal(t, "moof", string(b[4:8]))
	assert.Equal(t, payload, b[8:])
}

func TestConcatBoxes(t *testing.T) {
	a := box("aaaa", []byte{1})
	b := box("bbbb", []byte{2, 3})
	out := concatBoxes(a, b)
	assert.Len(t, out, len(a)+len(b))
	assert.Equal(t, a, out[:len(a)])
	assert.Equal(t, b, out[len(a):])
}

func TestBuildFtypContainsRequiredBrands(t *testing.T) {
	ftyp := buildFtyp()
	assert.Equal(t, "ftyp", string(ftyp[4:8]))
	s := string(ftyp)
	for _, brand := range []string{"isom", "iso5", "iso6", "avc1", "mp41"} {
		assert.Contains(t, s, brand)
	}
}
