package binary

import (
	"bytes"
	"testing"

	"github.com/dufoli/graal/internal/testing/require"
	"github.com/dufoli/graal/internal/wasm"
)

// TestDecodeModule_blockBr decodes a body that enters a (result i32) block and exits
// it via an unconditional br, exercising decodeStructuredInstruction, decodeBranch, and
// the operand stack bookkeeping across a non-trivial control-flow shape.
func TestDecodeModule_blockBr(t *testing.T) {
	var b bytes.Buffer
	b.Write(Magic)
	b.Write(version)
	b.Write([]byte{0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f}) // type: () -> i32
	b.Write([]byte{0x03, 0x02, 0x01, 0x00})                   // function: type 0
	// code: locals(0); block(result i32); i32.const 7; br 0; end; end
	b.Write([]byte{0x0a, 0x0b, 0x01, 0x09, 0x00, 0x02, 0x7f, 0x41, 0x07, 0x0c, 0x00, 0x0b, 0x0b})

	m, err := DecodeModule(b.Bytes(), wasm.NewBlockNodeSink(), nil)
	require.NoError(t, err)
	require.NotNil(t, m.CodeSection[0].Root)
}

// TestDecodeModule_ifCondition confirms the bug where pushControlFrame ran before the
// condition was popped (leaving an empty, reachable frame) is fixed: `if` following a
// pushed i32 condition must decode successfully, not fail with a spurious
// "stack was empty" TypeMismatch.
func TestDecodeModule_ifCondition(t *testing.T) {
	var b bytes.Buffer
	b.Write(Magic)
	b.Write(version)
	b.Write([]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00}) // type: () -> ()
	b.Write([]byte{0x03, 0x02, 0x01, 0x00})             // function: type 0
	// code: locals(0); i32.const 1; if (no result); nop; end; end
	b.Write([]byte{0x0a, 0x0a, 0x01, 0x08, 0x00, 0x41, 0x01, 0x04, 0x40, 0x01, 0x0b, 0x0b})

	_, err := DecodeModule(b.Bytes(), wasm.NewBlockNodeSink(), nil)
	require.NoError(t, err)
}

// TestDecodeModule_ifElseArityMismatch exercises the then-arm/else-arm arity check:
// the then-arm (a bare `nop`) produces no value, but the `if` declares a (result i32),
// so `else` must reject it rather than silently reopening the frame for the else-arm.
func TestDecodeModule_ifElseArityMismatch(t *testing.T) {
	var b bytes.Buffer
	b.Write(Magic)
	b.Write(version)
	b.Write([]byte{0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f}) // type: () -> i32
	b.Write([]byte{0x03, 0x02, 0x01, 0x00})                   // function: type 0
	// code: locals(0); i32.const 1; if (result i32); nop; else; i32.const 1; end; end
	b.Write([]byte{0x0a, 0x0d, 0x01, 0x0b, 0x00, 0x41, 0x01, 0x04, 0x7f, 0x01, 0x05, 0x41, 0x01, 0x0b, 0x0b})

	_, err := DecodeModule(b.Bytes(), wasm.NewBlockNodeSink(), nil)
	require.Error(t, err)
	require.Equal(t, wasm.FailureKindTypeMismatch, wasm.KindOf(err))
}

// TestDecodeModule_S5_brTableArityMismatch: body enters a block of return arity 0 and a
// sibling (nested) block of return arity 1, ending with a br_table naming both as
// targets. Expected: TypeMismatch (spec scenario S5).
func TestDecodeModule_S5_brTableArityMismatch(t *testing.T) {
	var b bytes.Buffer
	b.Write(Magic)
	b.Write(version)
	b.Write([]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00}) // type: () -> ()
	b.Write([]byte{0x03, 0x02, 0x01, 0x00})             // function: type 0
	// code: locals(0); block(no result); block(result i32); i32.const 0;
	//       br_table [0] default=1
	b.Write([]byte{0x0a, 0x0d, 0x01, 0x0b, 0x00, 0x02, 0x40, 0x02, 0x7f, 0x41, 0x00, 0x0e, 0x01, 0x00, 0x01})

	_, err := DecodeModule(b.Bytes(), wasm.NewBlockNodeSink(), nil)
	require.Error(t, err)
	require.Equal(t, wasm.FailureKindTypeMismatch, wasm.KindOf(err))
}

// TestDecodeModule_S6_globalSetImmutable: global[0] is declared immutable; the body's
// global.set 0 must be rejected as ImmutableGlobalWrite (spec scenario S6).
func TestDecodeModule_S6_globalSetImmutable(t *testing.T) {
	var b bytes.Buffer
	b.Write(Magic)
	b.Write(version)
	b.Write([]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00})       // type: () -> ()
	b.Write([]byte{0x03, 0x02, 0x01, 0x00})                   // function: type 0
	b.Write([]byte{0x06, 0x06, 0x01, 0x7f, 0x00, 0x41, 0x00, 0x0b}) // global[0]: i32, immutable, init 0
	// code: locals(0); global.set 0; end
	b.Write([]byte{0x0a, 0x06, 0x01, 0x04, 0x00, 0x24, 0x00, 0x0b})

	_, err := DecodeModule(b.Bytes(), wasm.NewBlockNodeSink(), nil)
	require.Error(t, err)
	require.Equal(t, wasm.FailureKindImmutableGlobalWrite, wasm.KindOf(err))
}

// TestDecodeModule_S7_alignmentOvershoot: i32.load with an align hint of 3 (2^3 = 8
// bytes) exceeds i32.load's natural alignment of 2 (2^2 = 4 bytes). Expected:
// AlignmentLargerThanNatural (spec scenario S7).
func TestDecodeModule_S7_alignmentOvershoot(t *testing.T) {
	var b bytes.Buffer
	b.Write(Magic)
	b.Write(version)
	b.Write([]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00}) // type: () -> ()
	b.Write([]byte{0x03, 0x02, 0x01, 0x00})             // function: type 0
	b.Write([]byte{0x05, 0x03, 0x01, 0x00, 0x01})       // memory: min 1 page
	// code: locals(0); i32.const 0; i32.load align=3 offset=0
	b.Write([]byte{0x0a, 0x08, 0x01, 0x06, 0x00, 0x41, 0x00, 0x28, 0x03, 0x00})

	_, err := DecodeModule(b.Bytes(), wasm.NewBlockNodeSink(), nil)
	require.Error(t, err)
	require.Equal(t, wasm.FailureKindAlignmentLargerThanNatural, wasm.KindOf(err))
}

// TestDecodeModule_call exercises decodeCall against an imported function of matching
// type, the simplest way to drive the call path without also needing a second
// module-defined function body.
func TestDecodeModule_call(t *testing.T) {
	var b bytes.Buffer
	b.Write(Magic)
	b.Write(version)
	b.Write([]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00}) // type: () -> ()
	// import: module "env", name "f", kind func, type 0
	b.Write([]byte{0x02, 0x09, 0x01, 0x03, 'e', 'n', 'v', 0x01, 'f', 0x00, 0x00})
	b.Write([]byte{0x03, 0x02, 0x01, 0x00}) // function: type 0
	// code: locals(0); call 0 (the import); end
	b.Write([]byte{0x0a, 0x06, 0x01, 0x04, 0x00, 0x10, 0x00, 0x0b})

	m, err := DecodeModule(b.Bytes(), wasm.NewBlockNodeSink(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, len(m.CodeSection))
}
