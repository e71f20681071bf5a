package binary

import (
	"fmt"
	"math"

	"github.com/dufoli/graal/internal/leb128"
	"github.com/dufoli/graal/internal/wasm"
)

// ResetPass re-runs a module's global and data initializers against a fresh
// GlobalStore/MemorySink pair without re-decoding the module. Element segments' offsets
// are only re-evaluated; no table is written. Globals are initialized in declaration order, since a
// later global's initializer may be a global.get of an earlier one (invariant 7:
// "global.get in a constant expression may only reference an imported global" holds at
// decode time, but declared globals are re-evaluated here in the same left-to-right
// order the decoder validated them in).
func ResetPass(m *wasm.Module, globals wasm.GlobalStore, mem wasm.MemorySink) error {
	if err := resetGlobals(m, globals); err != nil {
		return err
	}
	if err := resetElements(m, globals); err != nil {
		return err
	}
	if err := resetData(m, globals, mem); err != nil {
		return err
	}
	return nil
}

func resetGlobals(m *wasm.Module, globals wasm.GlobalStore) error {
	if globals == nil {
		return nil
	}
	importCount := m.ImportedGlobalCount()
	for i, g := range m.GlobalSection {
		idx := importCount + wasm.Index(i)
		v, err := evalGlobalInit(g.Type.ValType, g.Init, globals)
		if err != nil {
			return fmt.Errorf("global %d initializer: %w", idx, err)
		}
		globals.Set(idx, v)
	}
	return nil
}

// evalGlobalInit evaluates a constant expression to the value type its declaring global
// requires, unlike evalConstantExpressionI32 which only ever produces an i32 (the
// narrower case needed for table/element/data offsets).
func evalGlobalInit(want wasm.ValueType, e *wasm.ConstantExpression, globals wasm.GlobalStore) (interface{}, error) {
	if e.Opcode == wasm.OpcodeGlobalGet {
		idx, _, err := leb128.LoadUint32(e.Data)
		if err != nil {
			return nil, err
		}
		switch want {
		case wasm.ValueTypeI32:
			return globals.GetI32(idx), nil
		case wasm.ValueTypeI64:
			return globals.GetI64(idx), nil
		case wasm.ValueTypeF32:
			return globals.GetF32(idx), nil
		case wasm.ValueTypeF64:
			return globals.GetF64(idx), nil
		}
		return nil, fmt.Errorf("unknown global value type %#x", want)
	}
	switch e.Opcode {
	case wasm.OpcodeI32Const:
		v, _, err := leb128.LoadInt32(e.Data)
		return v, err
	case wasm.OpcodeI64Const:
		v, _, err := leb128.LoadInt64(e.Data)
		return v, err
	case wasm.OpcodeF32Const:
		if len(e.Data) != 4 {
			return nil, fmt.Errorf("f32.const operand has %d bytes, want 4", len(e.Data))
		}
		bits := uint32(e.Data[0]) | uint32(e.Data[1])<<8 | uint32(e.Data[2])<<16 | uint32(e.Data[3])<<24
		return math.Float32frombits(bits), nil
	case wasm.OpcodeF64Const:
		if len(e.Data) != 8 {
			return nil, fmt.Errorf("f64.const operand has %d bytes, want 8", len(e.Data))
		}
		var bits uint64
		for i, b := range e.Data {
			bits |= uint64(b) << (8 * i)
		}
		return math.Float64frombits(bits), nil
	}
	return nil, fmt.Errorf("constant expression opcode %#x cannot initialize a global", e.Opcode)
}

// resetElements re-evaluates each active element segment's offset expression, using the
// supplied GlobalStore to resolve any global.get offset (MVP: table index is always 0,
// enforced at decode time in element.go). It writes no function indices into a table.
func resetElements(m *wasm.Module, globals wasm.GlobalStore) error {
	for i, seg := range m.ElementSection {
		if _, err := evalConstantExpressionI32(seg.OffsetExpr, globals); err != nil {
			return fmt.Errorf("element segment %d offset: %w", i, err)
		}
		// No table write happens here, and decoding queued none elsewhere; this loop only
		// checks that every offset still evaluates cleanly.
	}
	return nil
}

// resetData writes each active data segment's bytes into mem at its resolved offset.
func resetData(m *wasm.Module, globals wasm.GlobalStore, mem wasm.MemorySink) error {
	if mem == nil {
		return nil
	}
	for i, seg := range m.DataSection {
		offset, err := evalConstantExpressionI32(seg.OffsetExpr, globals)
		if err != nil {
			return fmt.Errorf("data segment %d offset: %w", i, err)
		}
		if offset < 0 {
			return wasm.Fail(wasm.FailureKindDataSegmentDoesNotFit, "data segment %d has negative offset %d", i, offset)
		}
		if err := mem.WriteAt(uint32(offset), seg.Init); err != nil {
			return fmt.Errorf("data segment %d: %w", i, err)
		}
	}
	return nil
}
