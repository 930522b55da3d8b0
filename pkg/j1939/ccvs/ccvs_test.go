package ccvs_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptime-industries/ccvs-speed/pkg/j1939/ccvs"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name   string
		msg    []byte
		wantOK bool
		minMPH float64
		maxMPH float64
	}{
		{
			name:   "All zeros, vehicle standing still",
			msg:    bytes.Repeat([]byte{0x00}, 8),
			wantOK: true,
		},
		{
			name:   "120 km/h",
			msg:    append([]byte{0x00, 0x00, 0x78}, bytes.Repeat([]byte{0x00}, 5)...),
			wantOK: true,
			minMPH: 74.56,
			maxMPH: 74.60,
		},
		{
			name:   "Minimal three byte message",
			msg:    []byte{0xAA, 0x00, 0x01},
			wantOK: true,
			minMPH: 0.62137,
			maxMPH: 0.62138,
		},
		{
			name:   "Largest positive word",
			msg:    []byte{0x00, 0xFF, 0x7F, 0x00},
			wantOK: true,
			minMPH: 79.53,
			maxMPH: 79.54,
		},
		{
			name: "All FFs, not available",
			msg:  bytes.Repeat([]byte{0xFF}, 8),
		},
		{
			name: "Negative word",
			msg:  []byte{0x00, 0x00, 0x80, 0x00},
		},
		{
			name: "Single byte",
			msg:  []byte{0xFF},
		},
		{
			name: "Two bytes",
			msg:  []byte{0x00, 0x78},
		},
		{
			name: "Empty",
			msg:  []byte{},
		},
		{
			name: "Nil",
			msg:  nil,
		},
	}

	for _, tcl := range testcases {
		tc := tcl
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mph, ok := ccvs.Decode(tc.msg)
			assert.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				assert.Zero(t, mph)
				return
			}
			assert.GreaterOrEqual(t, mph, tc.minMPH)
			assert.LessOrEqual(t, mph, tc.maxMPH)
		})
	}
}

func TestDecodeAllZerosIsExactlyZero(t *testing.T) {
	mph, ok := ccvs.Decode(make([]byte, 8))
	require.True(t, ok)
	assert.Equal(t, 0.0, mph)
}

func TestDecodeScaling(t *testing.T) {
	t.Parallel()

	for _, raw := range []uint16{0, 1, 255, 256, 0x3332, 0x7800, 0x7FFF} {
		msg := []byte{0x00, uint8(raw), uint8(raw >> 8), 0x00}
		mph, ok := ccvs.Decode(msg)
		require.True(t, ok, "raw %#04x", raw)
		assert.InDelta(t, float64(raw)/256*0.6213712, mph, 1e-9, "raw %#04x", raw)
	}
}

func TestDecodeIsIdempotent(t *testing.T) {
	msg := []byte("12345678")
	first, firstOK := ccvs.Decode(msg)
	second, secondOK := ccvs.Decode(msg)
	assert.Equal(t, firstOK, secondOK)
	assert.Equal(t, first, second)
	assert.Equal(t, []byte("12345678"), msg, "input must not be modified")
}

func TestDecodeValue(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name   string
		input  any
		wantOK bool
	}{
		{"Byte slice", []byte{0x00, 0x00, 0x78}, true},
		{"CAN payload array", [8]byte{0x00, 0x00, 0x78}, true},
		{"String of raw bytes", "12345678", true},
		{"Integer", 120, false},
		{"Float", 74.56, false},
		{"Nil", nil, false},
		{"Slice of ints", []int{0, 0, 120}, false},
		{"Short string", "1", false},
	}

	for _, tcl := range testcases {
		tc := tcl
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, ok := ccvs.DecodeValue(tc.input)
			assert.Equal(t, tc.wantOK, ok)
		})
	}
}

func TestParseReasons(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name string
		msg  []byte
		err  error
	}{
		{"Too short", []byte{0xFF}, ccvs.ErrTooShort},
		{"Not available", bytes.Repeat([]byte{0xFF}, 8), ccvs.ErrNotAvailable},
		{"Not available, minimal length", []byte{0x00, 0xFF, 0xFF}, ccvs.ErrNotAvailable},
		{"Smallest negative", []byte{0x00, 0x00, 0x80}, ccvs.ErrNegative},
		{"Just below not available", []byte{0x00, 0xFE, 0xFF}, ccvs.ErrNegative},
		{"Valid", []byte{0x00, 0x00, 0x78}, nil},
	}

	for _, tcl := range testcases {
		tc := tcl
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ccvs.Parse(tc.msg)
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestRawSpeed(t *testing.T) {
	raw, err := ccvs.RawSpeed(bytes.Repeat([]byte{0xFF}, 8))
	require.NoError(t, err)
	assert.Equal(t, ccvs.NotAvailable, raw)

	raw, err = ccvs.RawSpeed([]byte("12345678"))
	require.NoError(t, err)
	assert.Equal(t, int16(0x3332), raw)

	_, err = ccvs.RawSpeed([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ccvs.ErrTooShort)
}

func TestInRangeBoundary(t *testing.T) {
	t.Parallel()

	assert.True(t, ccvs.InRange(0))
	assert.True(t, ccvs.InRange(ccvs.MaxKPH))
	assert.False(t, ccvs.InRange(250.9961))
	assert.False(t, ccvs.InRange(-1.0/256))
	assert.InDelta(t, 155.96, ccvs.KPHToMPH(ccvs.MaxKPH), 0.01)
}

func FuzzDecode(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0xFF})
	f.Add(make([]byte, 8))
	f.Add(bytes.Repeat([]byte{0xFF}, 8))
	f.Add([]byte("12345678"))

	f.Fuzz(func(t *testing.T, msg []byte) {
		mph, ok := ccvs.Decode(msg)
		if !ok {
			assert.Zero(t, mph)
			return
		}
		assert.GreaterOrEqual(t, mph, 0.0)
		assert.LessOrEqual(t, mph, ccvs.MaxMPH)
	})
}
