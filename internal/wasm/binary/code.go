package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dufoli/graal/internal/leb128"
	"github.com/dufoli/graal/internal/wasm"
)

// decodeFunctionBody decodes and validates one entry of the code section: its local
// declarations followed by its instruction sequence, terminated by the function-level
// `end`. See https://www.w3.org/TR/wasm-core-1/#binary-func and spec §4.3/§4.4.
func decodeFunctionBody(r *bytes.Reader, m *wasm.Module, ft *wasm.FunctionType, sink wasm.NodeSink) (*wasm.CodeEntry, error) {
	size, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read function body size: %w", err)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read function body: %w", err)
	}
	br := bytes.NewReader(body)

	localTypes, err := decodeLocals(br)
	if err != nil {
		return nil, fmt.Errorf("read locals: %w", err)
	}

	allLocals := append(append([]wasm.ValueType(nil), ft.Params...), localTypes...)
	tc := newTypeChecker(m, ft, allLocals)

	fd := &functionDecoder{r: br, tc: tc, sink: sink}
	root, err := fd.decodeInstructionSequence()
	if err != nil {
		return nil, err
	}
	if br.Len() != 0 {
		return nil, fmt.Errorf("%d bytes remain after function body end", br.Len())
	}

	return &wasm.CodeEntry{
		LocalTypes:   allLocals,
		Root:         root,
		IntConstants: tc.intConstants,
		BranchTables: tc.branchTables,
		ProfileCount: tc.profileCount,
		MaxStackSize: tc.maxStack,
	}, nil
}

// decodeLocals decodes the function body's local declarations: a vector of (count,
// valtype) runs, expanded into one ValueType per declared local.
func decodeLocals(r *bytes.Reader) ([]wasm.ValueType, error) {
	groups, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read local group count: %w", err)
	}
	var ret []wasm.ValueType
	for i := uint32(0); i < groups; i++ {
		n, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read local group %d count: %w", i, err)
		}
		vt, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read local group %d type: %w", i, err)
		}
		if !wasm.IsValueType(vt) {
			return nil, fmt.Errorf("%w: invalid local value type: %#x", ErrInvalidByte, vt)
		}
		for j := uint32(0); j < n; j++ {
			ret = append(ret, vt)
		}
	}
	return ret, nil
}

// decodeBlockType decodes the MVP block type immediate: either 0x40 (no result) or a
// single value type. Function-type-indexed block types are a post-1.0 (multi-value)
// proposal and are rejected here.
func decodeBlockType(r *bytes.Reader) (resultType wasm.ValueType, hasResult bool, err error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, false, fmt.Errorf("read block type: %w", err)
	}
	if b == 0x40 {
		return 0, false, nil
	}
	if wasm.IsValueType(b) {
		return b, true, nil
	}
	return 0, false, fmt.Errorf("block type %#x is not a value type or empty marker; multi-value block types are not supported", b)
}

// functionDecoder walks one function body's instruction bytes, driving the type checker
// and node sink in lockstep so each side's view of the block tree agrees by construction.
type functionDecoder struct {
	r    *bytes.Reader
	tc   *typeChecker
	sink wasm.NodeSink
}

// decodeInstructionSequence decodes instructions up to and including the `end` that
// closes the current frame, returning the ordered list of child nodes. An `else` here is
// rejected; an if's then-arm is decoded by decodeIfThen instead.
func (fd *functionDecoder) decodeInstructionSequence() ([]interface{}, error) {
	var children []interface{}
	for {
		op, err := fd.r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read opcode: %w", err)
		}
		switch op {
		case wasm.OpcodeEnd:
			if _, err := fd.tc.popControlFrame(); err != nil {
				return nil, err
			}
			return children, nil
		case wasm.OpcodeElse:
			return nil, fmt.Errorf("unexpected else outside if")
		default:
			node, err := fd.decodeOneInstruction(op)
			if err != nil {
				return nil, err
			}
			if node != nil {
				children = append(children, node)
			}
		}
	}
}

// decodeOneInstruction decodes and validates the instruction already identified by op,
// dispatching control instructions to their dedicated handling and everything else
// through the shared operand-stack bookkeeping.
func (fd *functionDecoder) decodeOneInstruction(op wasm.Opcode) (interface{}, error) {
	tc := fd.tc
	switch op {
	case wasm.OpcodeUnreachable:
		tc.markUnreachable()
		return &wasm.Instruction{Opcode: op}, nil
	case wasm.OpcodeNop:
		return &wasm.Instruction{Opcode: op}, nil
	case wasm.OpcodeBlock, wasm.OpcodeLoop, wasm.OpcodeIf:
		return fd.decodeStructuredInstruction(op)
	case wasm.OpcodeBr, wasm.OpcodeBrIf:
		return fd.decodeBranch(op)
	case wasm.OpcodeBrTable:
		return fd.decodeBranchTable()
	case wasm.OpcodeReturn:
		target := tc.frames[0]
		if err := tc.popOperands(target.endTypes); err != nil {
			return nil, err
		}
		tc.recordBranchConstants(target)
		tc.markUnreachable()
		return &wasm.Instruction{Opcode: op}, nil
	case wasm.OpcodeCall:
		return fd.decodeCall()
	case wasm.OpcodeCallIndirect:
		return fd.decodeCallIndirect()
	case wasm.OpcodeDrop:
		if _, err := tc.popOperand(typeUnknown); err != nil {
			return nil, err
		}
		return &wasm.Instruction{Opcode: op}, nil
	case wasm.OpcodeSelect:
		if _, err := tc.popOperand(wasm.ValueTypeI32); err != nil {
			return nil, err
		}
		t, err := tc.popOperand(typeUnknown)
		if err != nil {
			return nil, err
		}
		if _, err := tc.popOperand(t); err != nil {
			return nil, err
		}
		tc.pushOperand(t)
		return &wasm.Instruction{Opcode: op}, nil
	case wasm.OpcodeLocalGet, wasm.OpcodeLocalSet, wasm.OpcodeLocalTee:
		return fd.decodeLocalInstruction(op)
	case wasm.OpcodeGlobalGet, wasm.OpcodeGlobalSet:
		return fd.decodeGlobalInstruction(op)
	case wasm.OpcodeMemorySize, wasm.OpcodeMemoryGrow:
		return fd.decodeMemorySizeGrow(op)
	case wasm.OpcodeI32Const:
		v, _, err := leb128.DecodeInt32(fd.r)
		if err != nil {
			return nil, fmt.Errorf("read i32.const immediate: %w", err)
		}
		tc.pushOperand(wasm.ValueTypeI32)
		return &wasm.Instruction{Opcode: op, Imm: wasm.Immediate{I32: v}}, nil
	case wasm.OpcodeI64Const:
		v, _, err := leb128.DecodeInt64(fd.r)
		if err != nil {
			return nil, fmt.Errorf("read i64.const immediate: %w", err)
		}
		tc.pushOperand(wasm.ValueTypeI64)
		return &wasm.Instruction{Opcode: op, Imm: wasm.Immediate{I64: v}}, nil
	case wasm.OpcodeF32Const:
		v, err := decodeFloat32(fd.r)
		if err != nil {
			return nil, fmt.Errorf("read f32.const immediate: %w", err)
		}
		tc.pushOperand(wasm.ValueTypeF32)
		return &wasm.Instruction{Opcode: op, Imm: wasm.Immediate{F32: v}}, nil
	case wasm.OpcodeF64Const:
		v, err := decodeFloat64(fd.r)
		if err != nil {
			return nil, fmt.Errorf("read f64.const immediate: %w", err)
		}
		tc.pushOperand(wasm.ValueTypeF64)
		return &wasm.Instruction{Opcode: op, Imm: wasm.Immediate{F64: v}}, nil
	default:
		if wasm.IsMemoryInstruction(op) {
			return fd.decodeMemoryAccess(op)
		}
		if params, results, ok := wasm.NumericSignature(op); ok {
			if err := tc.popOperands(params); err != nil {
				return nil, err
			}
			tc.pushOperands(results)
			return &wasm.Instruction{Opcode: op}, nil
		}
		return nil, fmt.Errorf("%w: unknown opcode %#x", ErrInvalidByte, op)
	}
}

func (fd *functionDecoder) decodeLocalInstruction(op wasm.Opcode) (interface{}, error) {
	idx, _, err := leb128.DecodeUint32(fd.r)
	if err != nil {
		return nil, fmt.Errorf("read local index: %w", err)
	}
	lt, err := fd.tc.localType(idx)
	if err != nil {
		return nil, err
	}
	switch op {
	case wasm.OpcodeLocalGet:
		fd.tc.pushOperand(lt)
	case wasm.OpcodeLocalSet:
		if _, err := fd.tc.popOperand(lt); err != nil {
			return nil, err
		}
	case wasm.OpcodeLocalTee:
		if _, err := fd.tc.popOperand(lt); err != nil {
			return nil, err
		}
		fd.tc.pushOperand(lt)
	}
	return &wasm.Instruction{Opcode: op, Imm: wasm.Immediate{LocalIndex: idx}}, nil
}

func (fd *functionDecoder) decodeGlobalInstruction(op wasm.Opcode) (interface{}, error) {
	idx, _, err := leb128.DecodeUint32(fd.r)
	if err != nil {
		return nil, fmt.Errorf("read global index: %w", err)
	}
	gt, err := fd.tc.globalType(idx)
	if err != nil {
		return nil, err
	}
	if op == wasm.OpcodeGlobalGet {
		fd.tc.pushOperand(gt.ValType)
	} else {
		if !gt.Mutable {
			return nil, wasm.Fail(wasm.FailureKindImmutableGlobalWrite, "global.set on immutable global %d", idx)
		}
		if _, err := fd.tc.popOperand(gt.ValType); err != nil {
			return nil, err
		}
	}
	return &wasm.Instruction{Opcode: op, Imm: wasm.Immediate{GlobalIndex: idx}}, nil
}

func (fd *functionDecoder) decodeMemorySizeGrow(op wasm.Opcode) (interface{}, error) {
	if err := fd.tc.requireMemory(); err != nil {
		return nil, err
	}
	b, err := fd.r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read reserved byte: %w", err)
	}
	if b != 0x00 {
		return nil, wasm.Fail(wasm.FailureKindZeroFlagExpected, "reserved byte after %s must be zero", wasm.InstructionName(op))
	}
	if op == wasm.OpcodeMemoryGrow {
		if _, err := fd.tc.popOperand(wasm.ValueTypeI32); err != nil {
			return nil, err
		}
	}
	fd.tc.pushOperand(wasm.ValueTypeI32)
	return &wasm.Instruction{Opcode: op}, nil
}

func (fd *functionDecoder) decodeMemoryAccess(op wasm.Opcode) (interface{}, error) {
	align, _, err := leb128.DecodeUint32(fd.r)
	if err != nil {
		return nil, fmt.Errorf("read align: %w", err)
	}
	offset, _, err := leb128.DecodeUint32(fd.r)
	if err != nil {
		return nil, fmt.Errorf("read offset: %w", err)
	}
	mem := wasm.MemArg{Align: align, Offset: offset}
	if err := fd.tc.checkMemArg(op, mem); err != nil {
		return nil, err
	}

	vt := wasm.MemoryValueType(op)
	if wasm.IsStoreInstruction(op) {
		if _, err := fd.tc.popOperand(vt); err != nil {
			return nil, err
		}
		if _, err := fd.tc.popOperand(wasm.ValueTypeI32); err != nil {
			return nil, err
		}
	} else {
		if _, err := fd.tc.popOperand(wasm.ValueTypeI32); err != nil {
			return nil, err
		}
		fd.tc.pushOperand(vt)
	}
	return &wasm.Instruction{Opcode: op, Imm: wasm.Immediate{MemArg: mem}}, nil
}

func (fd *functionDecoder) decodeCall() (interface{}, error) {
	idx, _, err := leb128.DecodeUint32(fd.r)
	if err != nil {
		return nil, fmt.Errorf("read call func index: %w", err)
	}
	ft, err := fd.tc.checkFuncType(idx)
	if err != nil {
		return nil, err
	}
	if err := fd.tc.popOperands(ft.Params); err != nil {
		return nil, err
	}
	fd.tc.pushOperands(ft.Results)
	return fd.sink.NewCallStubNode(idx), nil
}

func (fd *functionDecoder) decodeCallIndirect() (interface{}, error) {
	typeIdx, _, err := leb128.DecodeUint32(fd.r)
	if err != nil {
		return nil, fmt.Errorf("read call_indirect type index: %w", err)
	}
	b, err := fd.r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read call_indirect reserved byte: %w", err)
	}
	if b != 0x00 {
		return nil, wasm.Fail(wasm.FailureKindZeroFlagExpected, "reserved byte after call_indirect must be zero")
	}
	if err := fd.tc.requireTable(); err != nil {
		return nil, err
	}
	ft, err := fd.tc.checkTypeIndex(typeIdx)
	if err != nil {
		return nil, err
	}
	if _, err := fd.tc.popOperand(wasm.ValueTypeI32); err != nil {
		return nil, err
	}
	if err := fd.tc.popOperands(ft.Params); err != nil {
		return nil, err
	}
	fd.tc.pushOperands(ft.Results)
	fd.tc.profileCount++
	return fd.sink.NewIndirectCallNode(typeIdx), nil
}

func (fd *functionDecoder) decodeBranch(op wasm.Opcode) (interface{}, error) {
	depth, _, err := leb128.DecodeUint32(fd.r)
	if err != nil {
		return nil, fmt.Errorf("read branch depth: %w", err)
	}
	if op == wasm.OpcodeBrIf {
		if _, err := fd.tc.popOperand(wasm.ValueTypeI32); err != nil {
			return nil, err
		}
		fd.tc.profileCount++
	}
	target, err := fd.tc.checkBranch(depth)
	if err != nil {
		return nil, err
	}
	constOffset := fd.tc.recordBranchConstants(target)
	if op == wasm.OpcodeBr {
		if err := fd.tc.popOperands(target.labelTypes()); err != nil {
			return nil, err
		}
		fd.tc.markUnreachable()
	}
	return &wasm.Instruction{Opcode: op, Imm: wasm.Immediate{I32: int32(depth), TypeIndex: wasm.Index(constOffset)}}, nil
}

func (fd *functionDecoder) decodeBranchTable() (interface{}, error) {
	count, _, err := leb128.DecodeUint32(fd.r)
	if err != nil {
		return nil, fmt.Errorf("read br_table target count: %w", err)
	}
	depths := make([]uint32, count+1)
	for i := range depths {
		d, _, err := leb128.DecodeUint32(fd.r)
		if err != nil {
			return nil, fmt.Errorf("read br_table target %d: %w", i, err)
		}
		depths[i] = d
	}

	if _, err := fd.tc.popOperand(wasm.ValueTypeI32); err != nil {
		return nil, err
	}

	defaultTarget, err := fd.tc.checkBranch(depths[len(depths)-1])
	if err != nil {
		return nil, err
	}
	defaultArity := len(defaultTarget.labelTypes())

	entries := make([]int32, 0, 1+2*len(depths))
	entries = append(entries, int32(defaultArity))
	for _, d := range depths {
		target, err := fd.tc.checkBranch(d)
		if err != nil {
			return nil, err
		}
		if len(target.labelTypes()) != defaultArity {
			return nil, wasm.Fail(wasm.FailureKindTypeMismatch, "br_table targets have inconsistent arity")
		}
		entries = append(entries, int32(d), int32(target.height))
	}
	tableIdx := fd.tc.recordBranchTable(entries)

	if err := fd.tc.popOperands(defaultTarget.labelTypes()); err != nil {
		return nil, err
	}
	fd.tc.markUnreachable()

	return &wasm.Instruction{Opcode: wasm.OpcodeBrTable, Imm: wasm.Immediate{TypeIndex: wasm.Index(tableIdx)}}, nil
}

// decodeStructuredInstruction decodes block/loop/if, recursing into decodeInstructionSequence
// for the nested body (for `if`: decodeIfThen for the then-arm, then
// decodeInstructionSequence for the else-arm) before building the corresponding node
// through the sink.
func (fd *functionDecoder) decodeStructuredInstruction(op wasm.Opcode) (interface{}, error) {
	resultType, hasResult, err := decodeBlockType(fd.r)
	if err != nil {
		return nil, err
	}
	var endTypes []wasm.ValueType
	if hasResult {
		endTypes = []wasm.ValueType{resultType}
	}

	kind := wasm.BlockKindBlock
	if op == wasm.OpcodeLoop {
		kind = wasm.BlockKindLoop
	} else if op == wasm.OpcodeIf {
		kind = wasm.BlockKindIf
	}

	block := &wasm.Block{Kind: kind, ReturnType: resultType, HasReturn: hasResult,
		StartIntConstOffset: len(fd.tc.intConstants), StartBranchTableOffset: len(fd.tc.branchTables)}

	if op == wasm.OpcodeIf {
		// The condition is popped before the frame opens (spec §4.4 "condition popped
		// before entry"), so the frame's floor does not include it; pushing the frame
		// first would leave popOperand seeing an empty, reachable frame and failing
		// every `if`.
		if _, err := fd.tc.popOperand(wasm.ValueTypeI32); err != nil {
			return nil, err
		}
	}
	fd.tc.pushControlFrame(kind, nil, endTypes, block)
	block.EntryStackDepth = fd.tc.topFrame().height
	block.StartOffset = int(fd.r.Size()) - fd.r.Len()

	if op != wasm.OpcodeIf {
		children, err := fd.decodeInstructionSequence()
		if err != nil {
			return nil, err
		}
		block.Children = children
		block.EndOffset = int(fd.r.Size()) - fd.r.Len() - 1
		if op == wasm.OpcodeLoop {
			return fd.sink.NewLoopNode(block, nil), nil
		}
		return fd.sink.NewBlockNode(block), nil
	}

	thenChildren, sawElse, err := fd.decodeIfThen()
	if err != nil {
		return nil, err
	}
	block.ThenChildren = thenChildren
	block.HasElse = sawElse
	if sawElse {
		elseChildren, err := fd.decodeInstructionSequence()
		if err != nil {
			return nil, err
		}
		block.ElseChildren = elseChildren
	} else if hasResult {
		return nil, wasm.Fail(wasm.FailureKindTypeMismatch, "if without else cannot produce a result")
	}
	// decodeIfThen already closed the control frame when it hit `end` without an `else`.
	block.EndOffset = int(fd.r.Size()) - fd.r.Len() - 1
	return fd.sink.NewIfNode(block), nil
}

// decodeIfThen decodes the then-arm of an `if`, stopping at `else` (reporting it was
// seen) or `end` (closing the frame immediately, the no-else-arm case).
func (fd *functionDecoder) decodeIfThen() (children []interface{}, sawElse bool, err error) {
	for {
		op, rerr := fd.r.ReadByte()
		if rerr != nil {
			return nil, false, fmt.Errorf("read opcode: %w", rerr)
		}
		switch op {
		case wasm.OpcodeElse:
			if err := fd.tc.checkArmEndTypes(); err != nil {
				return nil, false, err
			}
			f := fd.tc.topFrame()
			// Reopen the frame's operand floor for the else-arm, which starts from the
			// same entry stack as the then-arm did.
			fd.tc.operands = fd.tc.operands[:f.height]
			f.unreachable = false
			return children, true, nil
		case wasm.OpcodeEnd:
			if _, err := fd.tc.popControlFrame(); err != nil {
				return nil, false, err
			}
			return children, false, nil
		default:
			node, err := fd.decodeOneInstruction(op)
			if err != nil {
				return nil, false, err
			}
			if node != nil {
				children = append(children, node)
			}
		}
	}
}
