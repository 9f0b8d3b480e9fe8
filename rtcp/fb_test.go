// File: rtcp/fb_test.go
// Author: momentics <momentics@gmail.com>

package rtcp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGNACKWireFormat(t *testing.T) {
	b := AppendGNACK(nil, GNACK{PID: 0x1234, BLP: 0x00ff})
	assert.Equal(t, []byte{0x12, 0x34, 0x00, 0xff}, b)

	got, err := DecodeGNACKs(b, 1)
	require.NoError(t, err)
	assert.Equal(t, []GNACK{{PID: 0x1234, BLP: 0x00ff}}, got)
}

func TestGNACKMultipleEntries(t *testing.T) {
	entries := []GNACK{
		{PID: 1, BLP: 0},
		{PID: 1000, BLP: 0xffff},
		{PID: 65535, BLP: 0x8001},
	}

	var b []byte
	for _, g := range entries {
		b = AppendGNACK(b, g)
	}
	require.Len(t, b, len(entries)*4)

	got, err := DecodeGNACKs(b, len(entries))
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestSLIBitPacking(t *testing.T) {
	// first<<19 | number<<6 | picid: 13, 13 and 6 bit fields.
	b := AppendSLI(nil, SLI{First: 1, Number: 2, PicID: 3})
	assert.Equal(t, []byte{0x00, 0x08, 0x00, 0x83}, b)

	got, err := DecodeSLIs(b, 1)
	require.NoError(t, err)
	assert.Equal(t, []SLI{{First: 1, Number: 2, PicID: 3}}, got)
}

func TestSLIFieldLimits(t *testing.T) {
	max := SLI{First: 0x1fff, Number: 0x1fff, PicID: 0x3f}
	b := AppendSLI(nil, max)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, b)

	got, err := DecodeSLIs(b, 1)
	require.NoError(t, err)
	assert.Equal(t, []SLI{max}, got)

	// Out-of-range values are masked to their field width, never allowed
	// to bleed into neighbouring fields.
	b = AppendSLI(nil, SLI{First: 0x2000, Number: 0x2000, PicID: 0x40})
	got, err = DecodeSLIs(b, 1)
	require.NoError(t, err)
	assert.Equal(t, []SLI{{}}, got)
}

func TestDecodeShortPacket(t *testing.T) {
	_, err := DecodeGNACKs([]byte{0x01, 0x02}, 1)
	assert.ErrorIs(t, err, ErrShortPacket)

	_, err = DecodeGNACKs(AppendGNACK(nil, GNACK{}), 2)
	assert.ErrorIs(t, err, ErrShortPacket)

	_, err = DecodeSLIs([]byte{0x01}, 1)
	assert.ErrorIs(t, err, ErrShortPacket)
}

func TestDecodeHostileEntryCounts(t *testing.T) {
	// Counts taken from an untrusted header must not drive allocation:
	// negative values and counts large enough to overflow the byte-length
	// product both report a short packet.
	_, err := DecodeGNACKs([]byte{0x01, 0x02, 0x03, 0x04}, -1)
	assert.ErrorIs(t, err, ErrShortPacket)

	_, err = DecodeGNACKs([]byte{0x01, 0x02, 0x03, 0x04}, math.MaxInt)
	assert.ErrorIs(t, err, ErrShortPacket)

	_, err = DecodeSLIs([]byte{0x01, 0x02, 0x03, 0x04}, -1)
	assert.ErrorIs(t, err, ErrShortPacket)

	_, err = DecodeSLIs([]byte{0x01, 0x02, 0x03, 0x04}, math.MaxInt)
	assert.ErrorIs(t, err, ErrShortPacket)
}

func TestDecodeZeroEntries(t *testing.T) {
	got, err := DecodeGNACKs(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	sli, err := DecodeSLIs(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, sli)
}
