package binary

import (
	"bytes"
	"fmt"

	"github.com/dufoli/graal/internal/leb128"
	"github.com/dufoli/graal/internal/wasm"
)

// decodeLimitsType decodes the shared (min, max?) pair used by table and memory types.
// See https://www.w3.org/TR/wasm-core-1/#limits%E2%91%A6
func decodeLimitsType(r *bytes.Reader) (wasm.LimitsType, error) {
	hasMax, err := r.ReadByte()
	if err != nil {
		return wasm.LimitsType{}, fmt.Errorf("read leading byte: %w", err)
	}
	if hasMax != 0x00 && hasMax != 0x01 {
		return wasm.LimitsType{}, fmt.Errorf("%w: invalid limits flag: %#x", ErrInvalidByte, hasMax)
	}

	min, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.LimitsType{}, fmt.Errorf("read min: %w", err)
	}

	ret := wasm.LimitsType{Min: min}
	if hasMax == 0x01 {
		max, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.LimitsType{}, fmt.Errorf("read max: %w", err)
		}
		if max < min {
			return wasm.LimitsType{}, fmt.Errorf("limits max %d is less than min %d", max, min)
		}
		ret.Max = &max
	}
	return ret, nil
}

func encodeLimitsType(l wasm.LimitsType) []byte {
	if l.Max == nil {
		return append([]byte{0x00}, leb128.EncodeUint32(l.Min)...)
	}
	ret := append([]byte{0x01}, leb128.EncodeUint32(l.Min)...)
	return append(ret, leb128.EncodeUint32(*l.Max)...)
}

// decodeTableType decodes a table type: an element type byte followed by its limits.
// See https://www.w3.org/TR/wasm-core-1/#table-types%E2%91%A4
func decodeTableType(r *bytes.Reader) (wasm.TableType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return wasm.TableType{}, fmt.Errorf("read element type: %w", err)
	}
	if b != wasm.ValueTypeFuncref {
		return wasm.TableType{}, fmt.Errorf("invalid element type %#x != funcref(%#x)", b, wasm.ValueTypeFuncref)
	}
	limits, err := decodeLimitsType(r)
	if err != nil {
		return wasm.TableType{}, fmt.Errorf("read limits: %w", err)
	}
	return wasm.TableType{ElemType: b, Limits: limits}, nil
}

func encodeTableType(t wasm.TableType) []byte {
	return append([]byte{t.ElemType}, encodeLimitsType(t.Limits)...)
}

// decodeMemoryType decodes a memory type: its limits, where both are measured in pages.
// See https://www.w3.org/TR/wasm-core-1/#memory-types%E2%91%A4
func decodeMemoryType(r *bytes.Reader) (wasm.MemoryType, error) {
	limits, err := decodeLimitsType(r)
	if err != nil {
		return wasm.MemoryType{}, err
	}
	if limits.Min > wasm.MemoryLimitPages {
		return wasm.MemoryType{}, fmt.Errorf("memory min %d pages exceeds limit %d pages", limits.Min, wasm.MemoryLimitPages)
	}
	if limits.Max != nil && *limits.Max > wasm.MemoryLimitPages {
		return wasm.MemoryType{}, fmt.Errorf("memory max %d pages exceeds limit %d pages", *limits.Max, wasm.MemoryLimitPages)
	}
	return limits, nil
}

func encodeMemoryType(m wasm.MemoryType) []byte {
	return encodeLimitsType(m)
}

// decodeGlobalType decodes a global's declared value type and mutability flag.
// See https://www.w3.org/TR/wasm-core-1/#global-types%E2%91%A4
func decodeGlobalType(r *bytes.Reader) (wasm.GlobalType, error) {
	vt, err := r.ReadByte()
	if err != nil {
		return wasm.GlobalType{}, fmt.Errorf("read value type: %w", err)
	}
	if !wasm.IsValueType(vt) {
		return wasm.GlobalType{}, fmt.Errorf("%w: invalid global value type: %#x", ErrInvalidByte, vt)
	}
	m, err := r.ReadByte()
	if err != nil {
		return wasm.GlobalType{}, fmt.Errorf("read mutability: %w", err)
	}
	if m != 0x00 && m != 0x01 {
		return wasm.GlobalType{}, fmt.Errorf("%w: invalid mutability: %#x", ErrInvalidByte, m)
	}
	return wasm.GlobalType{ValType: vt, Mutable: m == 0x01}, nil
}

func encodeGlobalType(g wasm.GlobalType) []byte {
	mut := byte(0x00)
	if g.Mutable {
		mut = 0x01
	}
	return []byte{g.ValType, mut}
}
