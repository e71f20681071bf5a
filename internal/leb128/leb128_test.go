package leb128

import (
	"errors"
	"math"
	"testing"

	"github.com/dufoli/graal/internal/testing/require"
)

func TestLoadUint32(t *testing.T) {
	tests := []struct {
		bytes []byte
		want  uint32
	}{
		{bytes: []byte{0x00}, want: 0},
		{bytes: []byte{0x01}, want: 1},
		{bytes: []byte{0xe5, 0x8e, 0x26}, want: 624485},
		{bytes: []byte{0xff, 0xff, 0xff, 0xff, 0x0f}, want: math.MaxUint32},
	}
	for _, tc := range tests {
		got, n, err := LoadUint32(tc.bytes)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
		require.Equal(t, uint64(len(tc.bytes)), n)
	}
}

func TestLoadUint32_overflow(t *testing.T) {
	// Fifth byte sets high bits beyond the 32-bit range.
	_, _, err := LoadUint32([]byte{0xff, 0xff, 0xff, 0xff, 0x1f})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrOverflow))
}

func TestLoadUint32_tooLong(t *testing.T) {
	_, _, err := LoadUint32([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrOverflow))
}

func TestLoadInt32(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  int32
	}{
		{name: "zero", bytes: []byte{0x00}, want: 0},
		{name: "-1", bytes: []byte{0x7f}, want: -1},
		{name: "max", bytes: []byte{0xff, 0xff, 0xff, 0xff, 0x7}, want: math.MaxInt32},
		{name: "min", bytes: []byte{0x80, 0x80, 0x80, 0x80, 0x78}, want: math.MinInt32},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, n, err := LoadInt32(tc.bytes)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, uint64(len(tc.bytes)), n)
		})
	}
}

func TestLoadInt32_overflow(t *testing.T) {
	tests := [][]byte{
		{0xff, 0xff, 0xff, 0xff, 0x0f}, // final byte's spare bits disagree with sign
		{0x80, 0x80, 0x80, 0x80, 0x70}, // final byte sets spare bits while its sign bit is clear
	}
	for _, bytes := range tests {
		_, _, err := LoadInt32(bytes)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrOverflow))
	}
}

func TestLoadInt64(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  int64
	}{
		{name: "zero", bytes: []byte{0x00}, want: 0},
		{name: "-1", bytes: []byte{0x7f}, want: -1},
		{name: "max", bytes: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}, want: math.MaxInt64},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := LoadInt64(tc.bytes)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeDecodeRoundTrip_Uint32(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 624485, math.MaxUint32}
	for _, v := range values {
		encoded := EncodeUint32(v)
		got, n, err := LoadUint32(encoded)
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Equal(t, uint64(len(encoded)), n)
	}
}

func TestEncodeDecodeRoundTrip_Int32(t *testing.T) {
	values := []int32{0, 1, -1, 127, -128, math.MaxInt32, math.MinInt32}
	for _, v := range values {
		encoded := EncodeInt32(v)
		got, n, err := LoadInt32(encoded)
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Equal(t, uint64(len(encoded)), n)
	}
}

func TestEncodeDecodeRoundTrip_Int64(t *testing.T) {
	values := []int64{0, 1, -1, math.MaxInt64, math.MinInt64}
	for _, v := range values {
		encoded := EncodeInt64(v)
		got, _, err := LoadInt64(encoded)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestDecodeInt33AsInt64(t *testing.T) {
	// A single-byte encoding of -1 (all value bits set, sign extended past bit 32).
	got, n, err := DecodeInt33AsInt64(newByteReader([]byte{0x7f}))
	require.NoError(t, err)
	require.Equal(t, int64(-1), got)
	require.Equal(t, uint64(1), n)
}

type byteReader struct {
	b []byte
	i int
}

func newByteReader(b []byte) *byteReader { return &byteReader{b: b} }

func (r *byteReader) ReadByte() (byte, error) {
	if r.i >= len(r.b) {
		return 0, errors.New("EOF")
	}
	b := r.b[r.i]
	r.i++
	return b, nil
}
