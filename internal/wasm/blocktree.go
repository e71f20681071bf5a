package wasm

// CodeEntry is the validated, executable representation of one function body: its
// local-type vector (arguments followed by declared locals), its root block node, and
// the three append-only side tables the abstract interpreter filled in while walking
// the body (spec §3 "CodeEntry", §4.3 "Side-table emissions").
type CodeEntry struct {
	LocalTypes []ValueType

	// Root holds the function body's top-level child nodes ([]interface{}), each built by
	// NodeSink or an *Instruction. NodeSink.NewRootNode is not called to wrap them.
	Root interface{}

	// IntConstants is the append-only int32 pool recording, per br/br_if/return, the
	// target stack depth and continuation length consumed at execution time.
	IntConstants []int32

	// BranchTables is the append-only store of per-br_table int32 arrays, each of the
	// form [contArity, (label0, stackSize0), (label1, stackSize1), ...].
	BranchTables [][]int32

	// ProfileCount is the number of profile-counted instructions (br_if, call_indirect)
	// in this body.
	ProfileCount int

	// MaxStackSize is the high-water mark of the operand stack, used by the executor
	// for frame sizing.
	MaxStackSize int
}

// BlockKind distinguishes the four control-frame shapes tracked by the validator.
type BlockKind int

const (
	BlockKindBlock BlockKind = iota
	BlockKindLoop
	BlockKindIf
	BlockKindElse
)

// Block is a node in a CodeEntry's block tree: a byte offset span in the original
// function body, its return arity/type, and the starting offsets into the CodeEntry's
// side tables so an executor can locate this block's slice of each table without
// walking the whole function (spec §3 "Block", §9 "Side tables").
type Block struct {
	Kind BlockKind

	StartOffset int // byte offset of the first instruction after the block header
	EndOffset   int // byte offset of the `end` closing the block (for an if, the end after its last arm)

	ReturnType  ValueType // only meaningful when HasReturn is true
	HasReturn   bool
	EntryStackDepth int

	StartIntConstOffset    int
	StartBranchTableOffset int

	Children []interface{} // child nodes, as constructed by NodeSink

	// If-only fields.
	ThenChildren []interface{}
	ElseChildren []interface{}
	HasElse      bool
}

// MemArg is the align/offset immediate pair carried by every load and store instruction.
type MemArg struct {
	Align  uint32
	Offset uint32
}

// Immediate carries the decoded immediate operand(s) for an Instruction, eagerly parsed
// so an executor never has to re-read the original bytecode (spec §4.4 "eager decode").
type Immediate struct {
	LocalIndex  Index
	GlobalIndex Index
	FuncIndex   Index
	TypeIndex   Index
	MemArg      MemArg
	I32         int32
	I64         int64
	F32         float32
	F64         float64
}

// Instruction is a leaf node in a CodeEntry's block tree: one instruction (locals,
// globals, memory access, numeric ops, parametric ops, and also br, br_if, br_table,
// return, unreachable and nop) with its immediate already decoded. block/loop/if/call/
// call_indirect are represented by dedicated node types built through NodeSink instead.
type Instruction struct {
	Opcode Opcode
	Imm    Immediate
}
