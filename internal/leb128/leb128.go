// Package leb128 implements LEB128 variable-length integer encoding and decoding for
// the WebAssembly binary format: unsigned 32-bit (max 5 bytes), signed 32-bit (max 5
// bytes), signed 33-bit as int64 (block type deltas, max 5 bytes) and signed 64-bit (max
// 10 bytes). See https://www.w3.org/TR/wasm-core-1/#binary-int
package leb128

import (
	"bytes"
	"fmt"
	"io"
)

// ErrOverflow is returned when a LEB128 encoding exceeds the maximum byte length for its
// value's bit width, or sets bits in its final byte that are inconsistent with the
// decoded value's sign or width.
var ErrOverflow = fmt.Errorf("leb128: overflow")

// DecodeUint32 decodes an unsigned 32-bit LEB128 value from r, returning the value and
// the number of bytes consumed. Max 5 bytes; the 5th byte may only set its low 4 bits.
func DecodeUint32(r io.ByteReader) (ret uint32, bytesRead uint64, err error) {
	const maxBytes = 5
	for shift := 0; ; shift += 7 {
		b, e := r.ReadByte()
		if e != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", e)
		}
		bytesRead++
		if bytesRead == maxBytes && b&0xf0 != 0 {
			return 0, 0, fmt.Errorf("%w: u32 final byte out of range", ErrOverflow)
		} else if bytesRead > maxBytes {
			return 0, 0, fmt.Errorf("%w: u32 too long", ErrOverflow)
		}
		ret |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return ret, bytesRead, nil
		}
	}
}

// DecodeInt32 decodes a signed 32-bit LEB128 value from r, sign-extending the result.
// Max 5 bytes; the unused high bits of the final byte must agree with the sign bit.
func DecodeInt32(r io.ByteReader) (ret int32, bytesRead uint64, err error) {
	v, n, err := decodeSigned(r, 32)
	return int32(v), n, err
}

// DecodeInt33AsInt64 decodes a signed 33-bit LEB128 value (as used by block type
// immediates, which distinguish an empty/value block type from a type-section index by
// sign) into an int64. Max 5 bytes.
func DecodeInt33AsInt64(r io.ByteReader) (ret int64, bytesRead uint64, err error) {
	return decodeSigned(r, 33)
}

// DecodeInt64 decodes a signed 64-bit LEB128 value from r, sign-extending the result.
// Max 10 bytes.
func DecodeInt64(r io.ByteReader) (ret int64, bytesRead uint64, err error) {
	return decodeSigned(r, 64)
}

// decodeSigned implements the generic signed LEB128 decode for a value of the given bit
// width, rejecting encodings whose trailing bits in the final byte disagree with the
// sign of the decoded value (an overlong or out-of-range encoding).
func decodeSigned(r io.ByteReader, bits int) (ret int64, bytesRead uint64, err error) {
	maxBytes := uint64((bits + 6) / 7)
	var shift uint
	var b byte
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		bytesRead++
		if bytesRead > maxBytes {
			return 0, 0, fmt.Errorf("%w: i%d too long", ErrOverflow, bits)
		}
		if bytesRead == maxBytes {
			if !lastByteConsistent(b, bits, shift) {
				return 0, 0, fmt.Errorf("%w: i%d final byte out of range", ErrOverflow, bits)
			}
		}
		ret |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if int(shift) < bits && b&0x40 != 0 {
		ret |= -1 << shift
	}
	return ret, bytesRead, nil
}

// lastByteConsistent reports whether b, the final byte of a `bits`-wide signed LEB128
// encoding starting at the given shift, sets only bits that belong to the value's range
// and has its spare high bits all agree with the value's sign bit.
func lastByteConsistent(b byte, bits int, shift uint) bool {
	meaningful := bits - int(shift) // number of low bits of b that are part of the value
	if meaningful >= 7 {
		return true
	}
	signBit := byte(1) << uint(meaningful-1)
	spareMask := byte(0x7f) &^ (signBit<<1 - 1) // bits above the sign bit, below the continuation bit
	if b&signBit != 0 {
		return b&spareMask == spareMask
	}
	return b&spareMask == 0
}

// EncodeUint32 returns the LEB128 encoding of v.
func EncodeUint32(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			return append(out, b)
		}
	}
}

// EncodeUint64 returns the LEB128 encoding of v.
func EncodeUint64(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			return append(out, b)
		}
	}
}

// EncodeInt32 returns the signed LEB128 encoding of v.
func EncodeInt32(v int32) []byte {
	return encodeSigned(int64(v))
}

// EncodeInt64 returns the signed LEB128 encoding of v.
func EncodeInt64(v int64) []byte {
	return encodeSigned(v)
}

func encodeSigned(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

// LoadUint32 decodes an unsigned 32-bit LEB128 value from the start of b. Convenience
// wrapper over DecodeUint32 for callers that already hold a byte slice (tests, constant
// expression re-buffering).
func LoadUint32(b []byte) (ret uint32, bytesRead uint64, err error) {
	return DecodeUint32(bytes.NewReader(b))
}

// LoadUint64 decodes an unsigned 64-bit LEB128 value from the start of b. Max 10 bytes;
// the 10th byte may only set its low bit.
func LoadUint64(b []byte) (ret uint64, bytesRead uint64, err error) {
	r := bytes.NewReader(b)
	const maxBytes = 10
	for shift := uint(0); ; shift += 7 {
		c, e := r.ReadByte()
		if e != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", e)
		}
		bytesRead++
		if bytesRead == maxBytes && c&0xfe != 0 {
			return 0, 0, fmt.Errorf("%w: u64 final byte out of range", ErrOverflow)
		} else if bytesRead > maxBytes {
			return 0, 0, fmt.Errorf("%w: u64 too long", ErrOverflow)
		}
		ret |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return ret, bytesRead, nil
		}
	}
}

// LoadInt32 decodes a signed 32-bit LEB128 value from the start of b.
func LoadInt32(b []byte) (ret int32, bytesRead uint64, err error) {
	return DecodeInt32(bytes.NewReader(b))
}

// LoadInt64 decodes a signed 64-bit LEB128 value from the start of b.
func LoadInt64(b []byte) (ret int64, bytesRead uint64, err error) {
	return DecodeInt64(bytes.NewReader(b))
}
