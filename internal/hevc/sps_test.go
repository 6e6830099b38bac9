package hevc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSPSHDRFormat(t *testing.T) {
	cases := []struct {
		name   string
		sps    SPS
		expect string
	}{
		{"pq bt2020 is hdr10", SPS{TransferChar: 16, ColorPrimaries: 9}, "hdr10"},
		{"pq without bt2020 still hdr10", SPS{TransferChar: 16, ColorPrimaries: 1}, "hdr10"},
		{"arib hlg", SPS{TransferChar: 18}, "hlg"},
		{"bt709 sdr", SPS{TransferChar: 1, ColorPrimaries: 1}, ""},
		{"absent vui", SPS{TransferChar: -1, ColorPrimaries: -1}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.sps.HDRFormat())
		})
	}
}
