package hidreport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractBits(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		offset  uint32
		size    uint32
		want    uint32
	}{
		{"single bit at 0", []byte{0b1}, 0, 1, 1},
		{"single bit at 1", []byte{0b10}, 1, 1, 1},
		{"crosses into third byte", []byte{0, 0, 0b100}, 18, 1, 1},
		{"crosses three bytes, 11 bits", []byte{0b10000000, 0b10, 0b00011}, 7, 11, 0b11000000101},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := extractBits(c.payload, c.offset, c.size)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

func TestExtractBitsReportTooShort(t *testing.T) {
	_, err := extractBits([]byte{0x00}, 4, 8)
	require.ErrorIs(t, err, ErrReportTooShort)
}

func TestSignExtend(t *testing.T) {
	require.Equal(t, int32(-27), signExtend(0xE5, 8))
	require.Equal(t, int32(127), signExtend(0x7F, 8))
	require.Equal(t, int32(-127), signExtend(0x81, 8))
	require.Equal(t, int32(0), signExtend(0, 0))
	require.Equal(t, int32(-1), signExtend(0xFFFFFFFF, 32))
}
