package binary

import (
	"testing"

	"github.com/dufoli/graal/internal/testing/require"
	"github.com/dufoli/graal/internal/wasm"
)

func emptyModule() *wasm.Module {
	return &wasm.Module{ExportSection: map[string]*wasm.Export{}}
}

func TestTypeChecker_pushPopOperand(t *testing.T) {
	tc := newTypeChecker(emptyModule(), &wasm.FunctionType{}, nil)
	tc.pushOperand(wasm.ValueTypeI32)
	tc.pushOperand(wasm.ValueTypeI64)
	require.Equal(t, 2, tc.maxStack)

	got, err := tc.popOperand(wasm.ValueTypeI64)
	require.NoError(t, err)
	require.Equal(t, wasm.ValueTypeI64, got)

	_, err = tc.popOperand(wasm.ValueTypeI64)
	require.Error(t, err)
	require.Equal(t, wasm.FailureKindTypeMismatch, wasm.KindOf(err))
}

func TestTypeChecker_popOperand_underflow(t *testing.T) {
	tc := newTypeChecker(emptyModule(), &wasm.FunctionType{}, nil)
	_, err := tc.popOperand(wasm.ValueTypeI32)
	require.Error(t, err)
	require.Equal(t, wasm.FailureKindTypeMismatch, wasm.KindOf(err))
}

func TestTypeChecker_markUnreachable_thenPopSucceeds(t *testing.T) {
	tc := newTypeChecker(emptyModule(), &wasm.FunctionType{}, nil)
	tc.pushOperand(wasm.ValueTypeI32)
	tc.markUnreachable()

	// The frame floor was reset to empty, so the pushed i32 is gone, but any further pop
	// now succeeds with the stack-polymorphic sentinel regardless of requested type.
	require.Equal(t, 0, len(tc.operands))
	got, err := tc.popOperand(wasm.ValueTypeF64)
	require.NoError(t, err)
	require.Equal(t, typeUnknown, got)
}

func TestTypeChecker_pushControlFrame_popControlFrame(t *testing.T) {
	tc := newTypeChecker(emptyModule(), &wasm.FunctionType{}, nil)
	block := &wasm.Block{}
	tc.pushControlFrame(wasm.BlockKindBlock, nil, []wasm.ValueType{wasm.ValueTypeI32}, block)
	tc.pushOperand(wasm.ValueTypeI32)

	f, err := tc.popControlFrame()
	require.NoError(t, err)
	require.Equal(t, wasm.BlockKindBlock, f.kind)
	// endTypes are left on the stack for the enclosing frame.
	require.Equal(t, 1, len(tc.operands))
}

func TestTypeChecker_popControlFrame_extraOperand(t *testing.T) {
	tc := newTypeChecker(emptyModule(), &wasm.FunctionType{}, nil)
	tc.pushControlFrame(wasm.BlockKindBlock, nil, nil, &wasm.Block{})
	tc.pushOperand(wasm.ValueTypeI32) // not declared in endTypes

	_, err := tc.popControlFrame()
	require.Error(t, err)
	require.Equal(t, wasm.FailureKindTypeMismatch, wasm.KindOf(err))
}

func TestTypeChecker_checkBranch_doesNotConsumeStack(t *testing.T) {
	tc := newTypeChecker(emptyModule(), &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}}, nil)
	tc.pushOperand(wasm.ValueTypeI32)

	before := len(tc.operands)
	target, err := tc.checkBranch(0)
	require.NoError(t, err)
	require.NotNil(t, target)
	require.Equal(t, before, len(tc.operands))
}

func TestTypeChecker_checkBranch_invalidDepth(t *testing.T) {
	tc := newTypeChecker(emptyModule(), &wasm.FunctionType{}, nil)
	_, err := tc.checkBranch(5)
	require.Error(t, err)
}

func TestTypeChecker_localType(t *testing.T) {
	tc := newTypeChecker(emptyModule(), &wasm.FunctionType{}, []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeF64})
	lt, err := tc.localType(1)
	require.NoError(t, err)
	require.Equal(t, wasm.ValueTypeF64, lt)

	_, err = tc.localType(2)
	require.Error(t, err)
	require.Equal(t, wasm.FailureKindUnknownLocal, wasm.KindOf(err))
}
