package wasm

// Opcode is the binary encoding of a WebAssembly instruction.
// See https://www.w3.org/TR/wasm-core-1/#instructions%E2%91%A0
type Opcode = byte

const (
	OpcodeUnreachable Opcode = 0x00
	OpcodeNop         Opcode = 0x01
	OpcodeBlock       Opcode = 0x02
	OpcodeLoop        Opcode = 0x03
	OpcodeIf          Opcode = 0x04
	OpcodeElse        Opcode = 0x05
	OpcodeEnd         Opcode = 0x0b

	OpcodeBr         Opcode = 0x0c
	OpcodeBrIf       Opcode = 0x0d
	OpcodeBrTable    Opcode = 0x0e
	OpcodeReturn     Opcode = 0x0f
	OpcodeCall       Opcode = 0x10
	OpcodeCallIndirect Opcode = 0x11

	OpcodeDrop   Opcode = 0x1a
	OpcodeSelect Opcode = 0x1b

	OpcodeLocalGet  Opcode = 0x20
	OpcodeLocalSet  Opcode = 0x21
	OpcodeLocalTee  Opcode = 0x22
	OpcodeGlobalGet Opcode = 0x23
	OpcodeGlobalSet Opcode = 0x24

	OpcodeI32Load    Opcode = 0x28
	OpcodeI64Load    Opcode = 0x29
	OpcodeF32Load    Opcode = 0x2a
	OpcodeF64Load    Opcode = 0x2b
	OpcodeI32Load8S  Opcode = 0x2c
	OpcodeI32Load8U  Opcode = 0x2d
	OpcodeI32Load16S Opcode = 0x2e
	OpcodeI32Load16U Opcode = 0x2f
	OpcodeI64Load8S  Opcode = 0x30
	OpcodeI64Load8U  Opcode = 0x31
	OpcodeI64Load16S Opcode = 0x32
	OpcodeI64Load16U Opcode = 0x33
	OpcodeI64Load32S Opcode = 0x34
	OpcodeI64Load32U Opcode = 0x35
	OpcodeI32Store   Opcode = 0x36
	OpcodeI64Store   Opcode = 0x37
	OpcodeF32Store   Opcode = 0x38
	OpcodeF64Store   Opcode = 0x39
	OpcodeI32Store8  Opcode = 0x3a
	OpcodeI32Store16 Opcode = 0x3b
	OpcodeI64Store8  Opcode = 0x3c
	OpcodeI64Store16 Opcode = 0x3d
	OpcodeI64Store32 Opcode = 0x3e
	OpcodeMemorySize Opcode = 0x3f
	OpcodeMemoryGrow Opcode = 0x40

	OpcodeI32Const Opcode = 0x41
	OpcodeI64Const Opcode = 0x42
	OpcodeF32Const Opcode = 0x43
	OpcodeF64Const Opcode = 0x44

	OpcodeI32Eqz Opcode = 0x45
	OpcodeI32Eq  Opcode = 0x46
	OpcodeI32Ne  Opcode = 0x47
	OpcodeI32LtS Opcode = 0x48
	OpcodeI32LtU Opcode = 0x49
	OpcodeI32GtS Opcode = 0x4a
	OpcodeI32GtU Opcode = 0x4b
	OpcodeI32LeS Opcode = 0x4c
	OpcodeI32LeU Opcode = 0x4d
	OpcodeI32GeS Opcode = 0x4e
	OpcodeI32GeU Opcode = 0x4f

	OpcodeI64Eqz Opcode = 0x50
	OpcodeI64Eq  Opcode = 0x51
	OpcodeI64Ne  Opcode = 0x52
	OpcodeI64LtS Opcode = 0x53
	OpcodeI64LtU Opcode = 0x54
	OpcodeI64GtS Opcode = 0x55
	OpcodeI64GtU Opcode = 0x56
	OpcodeI64LeS Opcode = 0x57
	OpcodeI64LeU Opcode = 0x58
	OpcodeI64GeS Opcode = 0x59
	OpcodeI64GeU Opcode = 0x5a

	OpcodeF32Eq Opcode = 0x5b
	OpcodeF32Ne Opcode = 0x5c
	OpcodeF32Lt Opcode = 0x5d
	OpcodeF32Gt Opcode = 0x5e
	OpcodeF32Le Opcode = 0x5f
	OpcodeF32Ge Opcode = 0x60

	OpcodeF64Eq Opcode = 0x61
	OpcodeF64Ne Opcode = 0x62
	OpcodeF64Lt Opcode = 0x63
	OpcodeF64Gt Opcode = 0x64
	OpcodeF64Le Opcode = 0x65
	OpcodeF64Ge Opcode = 0x66

	OpcodeI32Clz    Opcode = 0x67
	OpcodeI32Ctz    Opcode = 0x68
	OpcodeI32Popcnt Opcode = 0x69
	OpcodeI32Add    Opcode = 0x6a
	OpcodeI32Sub    Opcode = 0x6b
	OpcodeI32Mul    Opcode = 0x6c
	OpcodeI32DivS   Opcode = 0x6d
	OpcodeI32DivU   Opcode = 0x6e
	OpcodeI32RemS   Opcode = 0x6f
	OpcodeI32RemU   Opcode = 0x70
	OpcodeI32And    Opcode = 0x71
	OpcodeI32Or     Opcode = 0x72
	OpcodeI32Xor    Opcode = 0x73
	OpcodeI32Shl    Opcode = 0x74
	OpcodeI32ShrS   Opcode = 0x75
	OpcodeI32ShrU   Opcode = 0x76
	OpcodeI32Rotl   Opcode = 0x77
	OpcodeI32Rotr   Opcode = 0x78

	OpcodeI64Clz    Opcode = 0x79
	OpcodeI64Ctz    Opcode = 0x7a
	OpcodeI64Popcnt Opcode = 0x7b
	OpcodeI64Add    Opcode = 0x7c
	OpcodeI64Sub    Opcode = 0x7d
	OpcodeI64Mul    Opcode = 0x7e
	OpcodeI64DivS   Opcode = 0x7f
	OpcodeI64DivU   Opcode = 0x80
	OpcodeI64RemS   Opcode = 0x81
	OpcodeI64RemU   Opcode = 0x82
	OpcodeI64And    Opcode = 0x83
	OpcodeI64Or     Opcode = 0x84
	OpcodeI64Xor    Opcode = 0x85
	OpcodeI64Shl    Opcode = 0x86
	OpcodeI64ShrS   Opcode = 0x87
	OpcodeI64ShrU   Opcode = 0x88
	OpcodeI64Rotl   Opcode = 0x89
	OpcodeI64Rotr   Opcode = 0x8a

	OpcodeF32Abs      Opcode = 0x8b
	OpcodeF32Neg      Opcode = 0x8c
	OpcodeF32Ceil     Opcode = 0x8d
	OpcodeF32Floor    Opcode = 0x8e
	OpcodeF32Trunc    Opcode = 0x8f
	OpcodeF32Nearest  Opcode = 0x90
	OpcodeF32Sqrt     Opcode = 0x91
	OpcodeF32Add      Opcode = 0x92
	OpcodeF32Sub      Opcode = 0x93
	OpcodeF32Mul      Opcode = 0x94
	OpcodeF32Div      Opcode = 0x95
	OpcodeF32Min      Opcode = 0x96
	OpcodeF32Max      Opcode = 0x97
	OpcodeF32Copysign Opcode = 0x98

	OpcodeF64Abs      Opcode = 0x99
	OpcodeF64Neg      Opcode = 0x9a
	OpcodeF64Ceil     Opcode = 0x9b
	OpcodeF64Floor    Opcode = 0x9c
	OpcodeF64Trunc    Opcode = 0x9d
	OpcodeF64Nearest  Opcode = 0x9e
	OpcodeF64Sqrt     Opcode = 0x9f
	OpcodeF64Add      Opcode = 0xa0
	OpcodeF64Sub      Opcode = 0xa1
	OpcodeF64Mul      Opcode = 0xa2
	OpcodeF64Div      Opcode = 0xa3
	OpcodeF64Min      Opcode = 0xa4
	OpcodeF64Max      Opcode = 0xa5
	OpcodeF64Copysign Opcode = 0xa6

	OpcodeI32WrapI64   Opcode = 0xa7
	OpcodeI32TruncF32S Opcode = 0xa8
	OpcodeI32TruncF32U Opcode = 0xa9
	OpcodeI32TruncF64S Opcode = 0xaa
	OpcodeI32TruncF64U Opcode = 0xab

	OpcodeI64ExtendI32S Opcode = 0xac
	OpcodeI64ExtendI32U Opcode = 0xad
	OpcodeI64TruncF32S  Opcode = 0xae
	OpcodeI64TruncF32U  Opcode = 0xaf
	OpcodeI64TruncF64S  Opcode = 0xb0
	OpcodeI64TruncF64U  Opcode = 0xb1

	OpcodeF32ConvertI32S Opcode = 0xb2
	OpcodeF32ConvertI32U Opcode = 0xb3
	OpcodeF32ConvertI64S Opcode = 0xb4
	OpcodeF32ConvertI64U Opcode = 0xb5
	OpcodeF32DemoteF64   Opcode = 0xb6

	OpcodeF64ConvertI32S Opcode = 0xb7
	OpcodeF64ConvertI32U Opcode = 0xb8
	OpcodeF64ConvertI64S Opcode = 0xb9
	OpcodeF64ConvertI64U Opcode = 0xba
	OpcodeF64PromoteF32  Opcode = 0xbb

	OpcodeI32ReinterpretF32 Opcode = 0xbc
	OpcodeI64ReinterpretF64 Opcode = 0xbd
	OpcodeF32ReinterpretI32 Opcode = 0xbe
	OpcodeF64ReinterpretI64 Opcode = 0xbf
)

// instructionNames is indexed by Opcode for InstructionName. It covers the control,
// parametric, variable, memory and const opcodes; the numeric MVP opcodes (comparisons,
// arithmetic, conversions) have no entry and are reported as "unknown".
var instructionNames = map[Opcode]string{
	OpcodeUnreachable: "unreachable", OpcodeNop: "nop", OpcodeBlock: "block",
	OpcodeLoop: "loop", OpcodeIf: "if", OpcodeElse: "else", OpcodeEnd: "end",
	OpcodeBr: "br", OpcodeBrIf: "br_if", OpcodeBrTable: "br_table",
	OpcodeReturn: "return", OpcodeCall: "call", OpcodeCallIndirect: "call_indirect",
	OpcodeDrop: "drop", OpcodeSelect: "select",
	OpcodeLocalGet: "local.get", OpcodeLocalSet: "local.set", OpcodeLocalTee: "local.tee",
	OpcodeGlobalGet: "global.get", OpcodeGlobalSet: "global.set",
	OpcodeI32Load: "i32.load", OpcodeI64Load: "i64.load", OpcodeF32Load: "f32.load", OpcodeF64Load: "f64.load",
	OpcodeI32Load8S: "i32.load8_s", OpcodeI32Load8U: "i32.load8_u",
	OpcodeI32Load16S: "i32.load16_s", OpcodeI32Load16U: "i32.load16_u",
	OpcodeI64Load8S: "i64.load8_s", OpcodeI64Load8U: "i64.load8_u",
	OpcodeI64Load16S: "i64.load16_s", OpcodeI64Load16U: "i64.load16_u",
	OpcodeI64Load32S: "i64.load32_s", OpcodeI64Load32U: "i64.load32_u",
	OpcodeI32Store: "i32.store", OpcodeI64Store: "i64.store", OpcodeF32Store: "f32.store", OpcodeF64Store: "f64.store",
	OpcodeI32Store8: "i32.store8", OpcodeI32Store16: "i32.store16",
	OpcodeI64Store8: "i64.store8", OpcodeI64Store16: "i64.store16", OpcodeI64Store32: "i64.store32",
	OpcodeMemorySize: "memory.size", OpcodeMemoryGrow: "memory.grow",
	OpcodeI32Const: "i32.const", OpcodeI64Const: "i64.const", OpcodeF32Const: "f32.const", OpcodeF64Const: "f64.const",
}

// InstructionName returns the WebAssembly text format mnemonic for op, or "unknown" if op
// has no entry in instructionNames (which includes every numeric MVP opcode).
func InstructionName(op Opcode) string {
	if name, ok := instructionNames[op]; ok {
		return name
	}
	return "unknown"
}

// isMemoryInstruction reports whether op is a load or store, all of which carry an
// align/offset immediate pair and require a declared memory.
func isMemoryInstruction(op Opcode) bool {
	return op >= OpcodeI32Load && op <= OpcodeI64Store32
}

// IsMemoryInstruction is the exported form of isMemoryInstruction, for the binary
// decoder package which validates memory instructions outside this package.
func IsMemoryInstruction(op Opcode) bool { return isMemoryInstruction(op) }

// NaturalAlignment is the exported form of naturalAlignment.
func NaturalAlignment(op Opcode) uint32 { return naturalAlignment(op) }

// MemoryValueType is the exported form of memoryValueType.
func MemoryValueType(op Opcode) ValueType { return memoryValueType(op) }

// IsStoreInstruction is the exported form of isStoreInstruction.
func IsStoreInstruction(op Opcode) bool { return isStoreInstruction(op) }

// NumericSignature returns the fixed param/result shape for a no-immediate numeric
// instruction (unary, binary, comparison, test, or conversion op), and whether op is one.
func NumericSignature(op Opcode) (params, results []ValueType, ok bool) {
	sig, ok := numericSignatures[op]
	return sig.params, sig.results, ok
}

// naturalAlignment is the maximum align hint (as a power of two exponent) permitted for
// a given load/store opcode, per invariant 10: 2^a <= n/8 where n is access width in bits.
func naturalAlignment(op Opcode) uint32 {
	switch op {
	case OpcodeI32Load, OpcodeI64Load32S, OpcodeI64Load32U, OpcodeI32Store, OpcodeI64Store32:
		return 2
	case OpcodeI64Load, OpcodeF64Load, OpcodeI64Store, OpcodeF64Store:
		return 3
	case OpcodeF32Load, OpcodeF32Store:
		return 2
	case OpcodeI32Load8S, OpcodeI32Load8U, OpcodeI64Load8S, OpcodeI64Load8U, OpcodeI32Store8, OpcodeI64Store8:
		return 0
	case OpcodeI32Load16S, OpcodeI32Load16U, OpcodeI64Load16S, OpcodeI64Load16U, OpcodeI32Store16, OpcodeI64Store16:
		return 1
	}
	return 0
}

// memoryValueType returns the value type pushed (loads) or expected (stores) by a memory
// instruction, ignoring the narrow-width sign-extension distinction.
func memoryValueType(op Opcode) ValueType {
	switch op {
	case OpcodeI32Load, OpcodeI32Load8S, OpcodeI32Load8U, OpcodeI32Load16S, OpcodeI32Load16U,
		OpcodeI32Store, OpcodeI32Store8, OpcodeI32Store16:
		return ValueTypeI32
	case OpcodeI64Load, OpcodeI64Load8S, OpcodeI64Load8U, OpcodeI64Load16S, OpcodeI64Load16U, OpcodeI64Load32S, OpcodeI64Load32U,
		OpcodeI64Store, OpcodeI64Store8, OpcodeI64Store16, OpcodeI64Store32:
		return ValueTypeI64
	case OpcodeF32Load, OpcodeF32Store:
		return ValueTypeF32
	case OpcodeF64Load, OpcodeF64Store:
		return ValueTypeF64
	}
	return 0
}

func isStoreInstruction(op Opcode) bool {
	return op == OpcodeI32Store || op == OpcodeI64Store || op == OpcodeF32Store || op == OpcodeF64Store ||
		op == OpcodeI32Store8 || op == OpcodeI32Store16 || op == OpcodeI64Store8 || op == OpcodeI64Store16 || op == OpcodeI64Store32
}

// numericSignature describes the fixed param/result shape of a numeric instruction that
// takes no immediates: unary ops pop/push one value, binary ops pop two and push one,
// comparisons pop two and push an i32, conversions pop one type and push another.
type numericSignature struct {
	params  []ValueType
	results []ValueType
}

var numericSignatures = buildNumericSignatures()

func buildNumericSignatures() map[Opcode]numericSignature {
	sig := map[Opcode]numericSignature{}
	unary := func(t ValueType, ops ...Opcode) {
		for _, op := range ops {
			sig[op] = numericSignature{params: []ValueType{t}, results: []ValueType{t}}
		}
	}
	binary := func(t ValueType, ops ...Opcode) {
		for _, op := range ops {
			sig[op] = numericSignature{params: []ValueType{t, t}, results: []ValueType{t}}
		}
	}
	compare := func(t ValueType, ops ...Opcode) {
		for _, op := range ops {
			sig[op] = numericSignature{params: []ValueType{t, t}, results: []ValueType{ValueTypeI32}}
		}
	}
	testz := func(t ValueType, op Opcode) {
		sig[op] = numericSignature{params: []ValueType{t}, results: []ValueType{ValueTypeI32}}
	}
	convert := func(from, to ValueType, ops ...Opcode) {
		for _, op := range ops {
			sig[op] = numericSignature{params: []ValueType{from}, results: []ValueType{to}}
		}
	}

	testz(ValueTypeI32, OpcodeI32Eqz)
	compare(ValueTypeI32, OpcodeI32Eq, OpcodeI32Ne, OpcodeI32LtS, OpcodeI32LtU, OpcodeI32GtS, OpcodeI32GtU,
		OpcodeI32LeS, OpcodeI32LeU, OpcodeI32GeS, OpcodeI32GeU)
	testz(ValueTypeI64, OpcodeI64Eqz)
	compare(ValueTypeI64, OpcodeI64Eq, OpcodeI64Ne, OpcodeI64LtS, OpcodeI64LtU, OpcodeI64GtS, OpcodeI64GtU,
		OpcodeI64LeS, OpcodeI64LeU, OpcodeI64GeS, OpcodeI64GeU)
	compare(ValueTypeF32, OpcodeF32Eq, OpcodeF32Ne, OpcodeF32Lt, OpcodeF32Gt, OpcodeF32Le, OpcodeF32Ge)
	compare(ValueTypeF64, OpcodeF64Eq, OpcodeF64Ne, OpcodeF64Lt, OpcodeF64Gt, OpcodeF64Le, OpcodeF64Ge)

	unary(ValueTypeI32, OpcodeI32Clz, OpcodeI32Ctz, OpcodeI32Popcnt)
	binary(ValueTypeI32, OpcodeI32Add, OpcodeI32Sub, OpcodeI32Mul, OpcodeI32DivS, OpcodeI32DivU,
		OpcodeI32RemS, OpcodeI32RemU, OpcodeI32And, OpcodeI32Or, OpcodeI32Xor,
		OpcodeI32Shl, OpcodeI32ShrS, OpcodeI32ShrU, OpcodeI32Rotl, OpcodeI32Rotr)

	unary(ValueTypeI64, OpcodeI64Clz, OpcodeI64Ctz, OpcodeI64Popcnt)
	binary(ValueTypeI64, OpcodeI64Add, OpcodeI64Sub, OpcodeI64Mul, OpcodeI64DivS, OpcodeI64DivU,
		OpcodeI64RemS, OpcodeI64RemU, OpcodeI64And, OpcodeI64Or, OpcodeI64Xor,
		OpcodeI64Shl, OpcodeI64ShrS, OpcodeI64ShrU, OpcodeI64Rotl, OpcodeI64Rotr)

	unary(ValueTypeF32, OpcodeF32Abs, OpcodeF32Neg, OpcodeF32Ceil, OpcodeF32Floor, OpcodeF32Trunc,
		OpcodeF32Nearest, OpcodeF32Sqrt)
	binary(ValueTypeF32, OpcodeF32Add, OpcodeF32Sub, OpcodeF32Mul, OpcodeF32Div, OpcodeF32Min, OpcodeF32Max, OpcodeF32Copysign)

	unary(ValueTypeF64, OpcodeF64Abs, OpcodeF64Neg, OpcodeF64Ceil, OpcodeF64Floor, OpcodeF64Trunc,
		OpcodeF64Nearest, OpcodeF64Sqrt)
	binary(ValueTypeF64, OpcodeF64Add, OpcodeF64Sub, OpcodeF64Mul, OpcodeF64Div, OpcodeF64Min, OpcodeF64Max, OpcodeF64Copysign)

	convert(ValueTypeI64, ValueTypeI32, OpcodeI32WrapI64)
	convert(ValueTypeF32, ValueTypeI32, OpcodeI32TruncF32S, OpcodeI32TruncF32U)
	convert(ValueTypeF64, ValueTypeI32, OpcodeI32TruncF64S, OpcodeI32TruncF64U)
	convert(ValueTypeI32, ValueTypeI64, OpcodeI64ExtendI32S, OpcodeI64ExtendI32U)
	convert(ValueTypeF32, ValueTypeI64, OpcodeI64TruncF32S, OpcodeI64TruncF32U)
	convert(ValueTypeF64, ValueTypeI64, OpcodeI64TruncF64S, OpcodeI64TruncF64U)
	convert(ValueTypeI32, ValueTypeF32, OpcodeF32ConvertI32S, OpcodeF32ConvertI32U)
	convert(ValueTypeI64, ValueTypeF32, OpcodeF32ConvertI64S, OpcodeF32ConvertI64U)
	convert(ValueTypeF64, ValueTypeF32, OpcodeF32DemoteF64)
	convert(ValueTypeI32, ValueTypeF64, OpcodeF64ConvertI32S, OpcodeF64ConvertI32U)
	convert(ValueTypeI64, ValueTypeF64, OpcodeF64ConvertI64S, OpcodeF64ConvertI64U)
	convert(ValueTypeF32, ValueTypeF64, OpcodeF64PromoteF32)
	convert(ValueTypeF32, ValueTypeI32, OpcodeI32ReinterpretF32)
	convert(ValueTypeF64, ValueTypeI64, OpcodeI64ReinterpretF64)
	convert(ValueTypeI32, ValueTypeF32, OpcodeF32ReinterpretI32)
	convert(ValueTypeI64, ValueTypeF64, OpcodeF64ReinterpretI64)

	return sig
}
