package binary

import (
	"bytes"
	"fmt"
	"math"

	"github.com/dufoli/graal/internal/leb128"
	"github.com/dufoli/graal/internal/wasm"
)

// decodeConstantExpression decodes one of the five MVP constant expression forms --
// i32.const, i64.const, f32.const, f64.const or global.get -- followed by `end`,
// capturing the raw operand bytes verbatim so a later pass can re-evaluate it without
// re-parsing the whole function body. See https://www.w3.org/TR/wasm-core-1/#constant-expressions%E2%91%A0
func decodeConstantExpression(r *bytes.Reader) (*wasm.ConstantExpression, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read opcode: %w", err)
	}

	remainingBeforeData := int64(r.Len())
	offsetAtData := r.Size() - remainingBeforeData

	opcode := wasm.Opcode(b)
	switch opcode {
	case wasm.OpcodeI32Const:
		_, _, err = leb128.DecodeInt32(r)
	case wasm.OpcodeI64Const:
		_, _, err = leb128.DecodeInt64(r)
	case wasm.OpcodeF32Const:
		_, err = decodeFloat32(r)
	case wasm.OpcodeF64Const:
		_, err = decodeFloat64(r)
	case wasm.OpcodeGlobalGet:
		_, _, err = leb128.DecodeUint32(r)
	default:
		return nil, fmt.Errorf("%w for const expression opcode: %#x", ErrInvalidByte, b)
	}
	if err != nil {
		return nil, fmt.Errorf("read value: %w", err)
	}

	if b, err = r.ReadByte(); err != nil {
		return nil, fmt.Errorf("look for end opcode: %w", err)
	}
	if wasm.Opcode(b) != wasm.OpcodeEnd {
		return nil, fmt.Errorf("constant expression has not been terminated")
	}

	data := make([]byte, remainingBeforeData-int64(r.Len())-1)
	if _, err := r.ReadAt(data, offsetAtData); err != nil {
		return nil, fmt.Errorf("re-buffer constant expression data: %w", err)
	}

	return &wasm.ConstantExpression{Opcode: opcode, Data: data}, nil
}

func encodeConstantExpression(e *wasm.ConstantExpression) []byte {
	return append([]byte{byte(e.Opcode)}, append(append([]byte{}, e.Data...), byte(wasm.OpcodeEnd))...)
}

func decodeFloat32(r *bytes.Reader) (float32, error) {
	buf := make([]byte, 4)
	if _, err := r.Read(buf); err != nil {
		return 0, err
	}
	bits := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	return math.Float32frombits(bits), nil
}

func decodeFloat64(r *bytes.Reader) (float64, error) {
	buf := make([]byte, 8)
	if _, err := r.Read(buf); err != nil {
		return 0, err
	}
	var bits uint64
	for i, b := range buf {
		bits |= uint64(b) << (8 * i)
	}
	return math.Float64frombits(bits), nil
}

// evalConstantExpressionI32 evaluates a constant expression that must yield an i32, used
// for table/element/data offset expressions and for re-running initializers on reset.
func evalConstantExpressionI32(e *wasm.ConstantExpression, globals wasm.GlobalStore) (int32, error) {
	switch e.Opcode {
	case wasm.OpcodeI32Const:
		v, _, err := leb128.LoadInt32(e.Data)
		return v, err
	case wasm.OpcodeGlobalGet:
		idx, _, err := leb128.LoadUint32(e.Data)
		if err != nil {
			return 0, err
		}
		if globals == nil {
			return 0, fmt.Errorf("global.get in constant expression but no GlobalStore supplied")
		}
		return globals.GetI32(idx), nil
	default:
		return 0, fmt.Errorf("constant expression opcode %#x does not yield i32", e.Opcode)
	}
}
