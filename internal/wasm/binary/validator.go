package binary

import (
	"github.com/dufoli/graal/internal/wasm"
)

// typeUnknown is the stack-polymorphic sentinel pushed/popped in place of a concrete
// value type once a control frame becomes unreachable (after `unreachable`, or after a
// `br`/`br_table`/`return` that leaves no fallthrough). It type-checks against any value
// type and against itself, matching the "Unknown" stack entries of the reference
// algorithm. See https://webassembly.github.io/spec/core/appendix/algorithm.html
const typeUnknown wasm.ValueType = 0xff

// controlFrame is one entry of the validator's explicit control-frame stack, tracking
// enough of a block/loop/if to check `end`/`else`, validate branches into it, and finish
// building its wasm.Block node.
type controlFrame struct {
	kind        wasm.BlockKind
	startTypes  []wasm.ValueType // operand types consumed entering the block (always empty in the MVP)
	endTypes    []wasm.ValueType // operand types produced leaving the block / branching to it
	height      int              // operand stack height below this frame's own operands
	unreachable bool             // stack-polymorphic mode: code after an unconditional exit

	block *wasm.Block
}

// labelTypes returns the type a branch targeting this frame must carry: for a loop, a
// branch targets the loop header so it checks against startTypes (always empty in the
// MVP); for every other frame kind a branch targets the end, checking endTypes.
func (f *controlFrame) labelTypes() []wasm.ValueType {
	if f.kind == wasm.BlockKindLoop {
		return f.startTypes
	}
	return f.endTypes
}

// typeChecker implements the abstract interpreter that walks one function body
// alongside its byte decode, maintaining an operand-type stack and a control-frame
// stack, exactly as the reference validation algorithm does, and accumulating the side
// tables code.go needs to assemble a wasm.CodeEntry.
type typeChecker struct {
	module *wasm.Module

	locals []wasm.ValueType // params followed by declared locals, the local index space

	operands []wasm.ValueType
	frames   []*controlFrame

	intConstants []int32
	branchTables [][]int32
	profileCount int
	maxStack     int
}

func newTypeChecker(m *wasm.Module, ft *wasm.FunctionType, locals []wasm.ValueType) *typeChecker {
	tc := &typeChecker{module: m, locals: locals}
	// The function body itself is the outermost block, an ordinary frame: `return` exits
	// it, and a br/br_if/br_table whose depth reaches it targets it like any other block.
	tc.frames = append(tc.frames, &controlFrame{kind: wasm.BlockKindBlock, endTypes: ft.Results})
	return tc
}

func (tc *typeChecker) pushOperand(t wasm.ValueType) {
	tc.operands = append(tc.operands, t)
	if len(tc.operands) > tc.maxStack {
		tc.maxStack = len(tc.operands)
	}
}

func (tc *typeChecker) topFrame() *controlFrame { return tc.frames[len(tc.frames)-1] }

// popOperand pops one operand, type-checking it against want unless want is typeUnknown
// (meaning "accept anything"). Popping below the current frame's floor while the frame
// is reachable is a stack-underflow type mismatch; once the frame is unreachable, every
// further pop yields typeUnknown and never underflows (the stack-polymorphic rule).
func (tc *typeChecker) popOperand(want wasm.ValueType) (wasm.ValueType, error) {
	f := tc.topFrame()
	if len(tc.operands) == f.height {
		if f.unreachable {
			return typeUnknown, nil
		}
		return 0, wasm.Fail(wasm.FailureKindTypeMismatch, "expected %s but stack was empty", valueTypeName(want))
	}
	got := tc.operands[len(tc.operands)-1]
	tc.operands = tc.operands[:len(tc.operands)-1]
	if want != typeUnknown && got != typeUnknown && got != want {
		return 0, wasm.Fail(wasm.FailureKindTypeMismatch, "expected %s but got %s", valueTypeName(want), valueTypeName(got))
	}
	return got, nil
}

func (tc *typeChecker) popOperands(want []wasm.ValueType) error {
	for i := len(want) - 1; i >= 0; i-- {
		if _, err := tc.popOperand(want[i]); err != nil {
			return err
		}
	}
	return nil
}

func (tc *typeChecker) pushOperands(ts []wasm.ValueType) {
	for _, t := range ts {
		tc.pushOperand(t)
	}
}

func valueTypeName(t wasm.ValueType) string {
	if t == typeUnknown {
		return "unknown"
	}
	return wasm.ValueTypeName(t)
}

// markUnreachable discards every operand pushed since the current frame started and
// marks the frame stack-polymorphic: subsequent pops type-check as success regardless of
// declared types, per the reference algorithm's handling of dead code after `unreachable`.
func (tc *typeChecker) markUnreachable() {
	f := tc.topFrame()
	tc.operands = tc.operands[:f.height]
	f.unreachable = true
}

// pushControlFrame opens a new block/loop/if frame. startTypes are the operand types the
// construct consumes from the enclosing stack on entry (always empty in the MVP, since
// block types here are only epsilon or a single result, never a function-type index).
func (tc *typeChecker) pushControlFrame(kind wasm.BlockKind, startTypes, endTypes []wasm.ValueType, block *wasm.Block) *controlFrame {
	if err := tc.popOperands(startTypes); err != nil {
		// Caller already validated the entry stack has startTypes available; in the MVP
		// startTypes is always empty, so this path is unreachable in practice.
		panic(err)
	}
	f := &controlFrame{kind: kind, startTypes: startTypes, endTypes: endTypes, height: len(tc.operands), block: block}
	tc.pushOperands(startTypes)
	tc.frames = append(tc.frames, f)
	return f
}

// popControlFrame closes the current frame: its endTypes must exactly cover the operand
// stack down to its floor (invariant 4 "block exit arity"), then those types are left on
// the stack for the enclosing frame to consume.
func (tc *typeChecker) popControlFrame() (*controlFrame, error) {
	f := tc.topFrame()
	if err := tc.popOperands(f.endTypes); err != nil {
		return nil, err
	}
	if len(tc.operands) != f.height {
		return nil, wasm.Fail(wasm.FailureKindTypeMismatch, "operand stack has %d extra value(s) at block end", len(tc.operands)-f.height)
	}
	tc.frames = tc.frames[:len(tc.frames)-1]
	tc.pushOperands(f.endTypes)
	return f, nil
}

// checkArmEndTypes validates that the operand stack currently holds exactly the
// current frame's endTypes above its floor, without closing the frame -- the check
// popControlFrame does, reused by an `if`'s then-arm at `else` so the else-arm can reuse
// the same frame rather than opening a fresh one.
func (tc *typeChecker) checkArmEndTypes() error {
	f := tc.topFrame()
	if err := tc.popOperands(f.endTypes); err != nil {
		return err
	}
	if len(tc.operands) != f.height {
		return wasm.Fail(wasm.FailureKindTypeMismatch, "operand stack has %d extra value(s) at block end", len(tc.operands)-f.height)
	}
	tc.pushOperands(f.endTypes)
	return nil
}

// checkBranch validates a branch targeting the frame `relativeDepth` levels up the
// control-frame stack from the current one (0 = innermost), checking the operand stack
// holds that frame's label types, and returns the target frame. Callers read the frame's
// label arity and operand stack height from it to record the branch's side-table entry
// (recordBranchConstants or a br_table entry).
func (tc *typeChecker) checkBranch(relativeDepth uint32) (*controlFrame, error) {
	if int(relativeDepth) >= len(tc.frames) {
		return nil, wasm.Fail(wasm.FailureKindUnknownType, "invalid branch depth: %d", relativeDepth)
	}
	target := tc.frames[len(tc.frames)-1-int(relativeDepth)]
	types := target.labelTypes()

	// Branch validation must not consume the stack (a conditional br_if falls through),
	// so check against a snapshot and restore afterward.
	saved := append([]wasm.ValueType(nil), tc.operands...)
	savedFrame := *tc.topFrame()
	err := tc.popOperands(types)
	tc.operands = saved
	*tc.topFrame() = savedFrame
	if err != nil {
		return nil, err
	}
	return target, nil
}

// recordBranchConstants appends one (continuationArity, targetStackHeight) pair to the
// int-constant pool for a br/br_if, and returns its starting offset in that pool.
func (tc *typeChecker) recordBranchConstants(target *controlFrame) int {
	offset := len(tc.intConstants)
	tc.intConstants = append(tc.intConstants, int32(len(target.labelTypes())), int32(target.height))
	return offset
}

// recordBranchTable appends a br_table's flattened (arity, label0, height0, label1,
// height1, ...) entry to the branch-table side store and returns its index.
func (tc *typeChecker) recordBranchTable(entries []int32) int {
	idx := len(tc.branchTables)
	tc.branchTables = append(tc.branchTables, entries)
	return idx
}

func (tc *typeChecker) localType(idx wasm.Index) (wasm.ValueType, error) {
	if int(idx) >= len(tc.locals) {
		return 0, wasm.Fail(wasm.FailureKindUnknownLocal, "local index %d out of range (%d locals)", idx, len(tc.locals))
	}
	return tc.locals[idx], nil
}

func (tc *typeChecker) globalType(idx wasm.Index) (*wasm.GlobalType, error) {
	gt := tc.module.GlobalTypeAt(idx)
	if gt == nil {
		return nil, wasm.Fail(wasm.FailureKindUnknownGlobal, "global index %d out of range", idx)
	}
	return gt, nil
}

func (tc *typeChecker) requireMemory() error {
	if !tc.module.HasMemory() {
		return wasm.Fail(wasm.FailureKindUnknownMemory, "memory instruction but module declares no memory")
	}
	return nil
}

func (tc *typeChecker) requireTable() error {
	if !tc.module.HasTable() {
		return wasm.Fail(wasm.FailureKindUnknownTable, "call_indirect but module declares no table")
	}
	return nil
}

func (tc *typeChecker) checkMemArg(op wasm.Opcode, m wasm.MemArg) error {
	if err := tc.requireMemory(); err != nil {
		return err
	}
	if max := wasm.NaturalAlignment(op); m.Align > max {
		return wasm.Fail(wasm.FailureKindAlignmentLargerThanNatural, "alignment 2**%d exceeds natural alignment 2**%d for %s", m.Align, max, wasm.InstructionName(op))
	}
	return nil
}

func (tc *typeChecker) checkFuncType(funcIdx wasm.Index) (*wasm.FunctionType, error) {
	ft := tc.module.TypeOfFunction(funcIdx)
	if ft == nil {
		return nil, wasm.Fail(wasm.FailureKindUnknownType, "function index %d out of range", funcIdx)
	}
	return ft, nil
}

func (tc *typeChecker) checkTypeIndex(typeIdx wasm.Index) (*wasm.FunctionType, error) {
	if int(typeIdx) >= len(tc.module.TypeSection) {
		return nil, wasm.Fail(wasm.FailureKindUnknownType, "type index %d out of range", typeIdx)
	}
	return tc.module.TypeSection[typeIdx], nil
}

