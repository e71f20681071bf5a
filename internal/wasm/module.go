// Package wasm holds the data model produced by decoding and validating a
// WebAssembly 1.0 (MVP) binary module, along with the collaborator
// interfaces (SymbolTable, LinkerQueue, NodeSink, MemorySink, GlobalStore)
// that the decoder hands off to during and after a parse.
package wasm

import "fmt"

// Index is the offset in an index namespace, not necessarily an absolute position in a
// Module section, since most index namespaces are preceded by imports of the same kind.
type Index = uint32

// ValueType is the binary encoding of a WebAssembly value type.
// See https://www.w3.org/TR/wasm-core-1/#binary-valtype
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

// ValueTypeName returns the WebAssembly text format name of t, or "unknown".
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	}
	return "unknown"
}

func IsValueType(b byte) bool {
	switch b {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return true
	}
	return false
}

// ImportKind indicates which import description is present on an Import.
type ImportKind = byte

const (
	ImportKindFunc   ImportKind = 0x00
	ImportKindTable  ImportKind = 0x01
	ImportKindMemory ImportKind = 0x02
	ImportKindGlobal ImportKind = 0x03
)

// ExportKind indicates which index namespace an Export.Index points into.
type ExportKind = byte

const (
	ExportKindFunc   ExportKind = 0x00
	ExportKindTable  ExportKind = 0x01
	ExportKindMemory ExportKind = 0x02
	ExportKindGlobal ExportKind = 0x03
)

// SectionID identifies the sections of a Module in the WebAssembly 1.0 (MVP) Binary Format.
// See https://www.w3.org/TR/wasm-core-1/#sections%E2%91%A0
type SectionID = byte

const (
	SectionIDCustom SectionID = iota
	SectionIDType
	SectionIDImport
	SectionIDFunction
	SectionIDTable
	SectionIDMemory
	SectionIDGlobal
	SectionIDExport
	SectionIDStart
	SectionIDElement
	SectionIDCode
	SectionIDData
)

// SectionIDName returns the canonical name of a module section.
func SectionIDName(id SectionID) string {
	switch id {
	case SectionIDCustom:
		return "custom"
	case SectionIDType:
		return "type"
	case SectionIDImport:
		return "import"
	case SectionIDFunction:
		return "function"
	case SectionIDTable:
		return "table"
	case SectionIDMemory:
		return "memory"
	case SectionIDGlobal:
		return "global"
	case SectionIDExport:
		return "export"
	case SectionIDStart:
		return "start"
	case SectionIDElement:
		return "element"
	case SectionIDCode:
		return "code"
	case SectionIDData:
		return "data"
	}
	return "unknown"
}

// FunctionType is a possibly-empty function signature. WebAssembly 1.0 (MVP) restricts
// Results to at most one element; decodeFunctionType in internal/wasm/binary enforces that.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

func (t *FunctionType) String() string {
	ret := ""
	if len(t.Params) == 0 {
		ret += "null"
	}
	for _, p := range t.Params {
		ret += ValueTypeName(p)
	}
	ret += "_"
	if len(t.Results) == 0 {
		ret += "null"
	}
	for _, r := range t.Results {
		ret += ValueTypeName(r)
	}
	return ret
}

// EqualTo reports whether t and o describe the same parameter and result sequence.
func (t *FunctionType) EqualTo(o *FunctionType) bool {
	if len(t.Params) != len(o.Params) || len(t.Results) != len(o.Results) {
		return false
	}
	for i, p := range t.Params {
		if o.Params[i] != p {
			return false
		}
	}
	for i, r := range t.Results {
		if o.Results[i] != r {
			return false
		}
	}
	return true
}

// LimitsType is the min/max pair shared by table and memory declarations.
type LimitsType struct {
	Min uint32
	Max *uint32
}

type TableType struct {
	ElemType byte // always ValueTypeFuncref (0x70) in the MVP
	Limits   LimitsType
}

// ValueTypeFuncref is the only table element type recognized in the MVP.
const ValueTypeFuncref byte = 0x70

type MemoryType = LimitsType

type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// ConstantExpression is the decoded opcode plus raw operand bytes of a constant
// expression (one of *.const or global.get of an imported global), per invariant 6/7.
type ConstantExpression struct {
	Opcode Opcode
	Data   []byte
}

// Import is the binary representation of an import indicated by Kind.
type Import struct {
	Kind       ImportKind
	Module     string
	Name       string
	DescFunc   Index
	DescTable  *TableType
	DescMem    *MemoryType
	DescGlobal *GlobalType
}

// Global is a module-defined global: its type and its constant initializer.
type Global struct {
	Type *GlobalType
	Init *ConstantExpression
}

// Export is the binary representation of an export indicated by Kind.
type Export struct {
	Kind  ExportKind
	Name  string
	Index Index
}

// ElementSegment is a decoded element section entry. Decoding enqueues no LinkerQueue
// action for it, and nothing in this module writes its indices into a table.
type ElementSegment struct {
	TableIndex Index
	OffsetExpr *ConstantExpression
	Init       []Index
}

// DataSegment is a decoded data section entry. Decoding enqueues no LinkerQueue action
// for it; ResetPass (internal/wasm/binary) writes its bytes into a MemorySink.
type DataSegment struct {
	MemoryIndex Index
	OffsetExpr  *ConstantExpression
	Init        []byte
}

// CustomSection is an uninterpreted custom section kept by name and byte span.
type CustomSection struct {
	Name string
	Data []byte
}

// Function is a module-defined function: immutable after the function section, except
// for Body, which is set once the code section decodes successfully.
type Function struct {
	TypeIndex Index
	Type      *FunctionType
	Body      *CodeEntry
}

// Module is the decoded and validated representation of a WebAssembly 1.0 binary module.
type Module struct {
	TypeSection     []*FunctionType
	ImportSection   []*Import
	FunctionSection []Index // type index per declared (non-imported) function
	TableSection    []*TableType
	MemorySection   []*MemoryType
	GlobalSection   []*Global
	ExportSection   map[string]*Export
	StartSection    *Index
	ElementSection  []*ElementSegment
	CodeSection     []*CodeEntry // index-correlated with FunctionSection
	DataSection     []*DataSegment
	CustomSections  []*CustomSection
	NameSection     *NameSection
}

// TypeOfFunction returns the FunctionType for a function index in the combined
// (imports-then-declarations) function index namespace, or nil if out of range.
func (m *Module) TypeOfFunction(funcIdx Index) *FunctionType {
	importCount := Index(0)
	for _, imp := range m.ImportSection {
		if imp.Kind == ImportKindFunc {
			if funcIdx == importCount {
				if int(imp.DescFunc) >= len(m.TypeSection) {
					return nil
				}
				return m.TypeSection[imp.DescFunc]
			}
			importCount++
		}
	}
	declIdx := funcIdx - importCount
	if declIdx >= uint32(len(m.FunctionSection)) {
		return nil
	}
	typeIdx := m.FunctionSection[declIdx]
	if int(typeIdx) >= len(m.TypeSection) {
		return nil
	}
	return m.TypeSection[typeIdx]
}

// ImportedFunctionCount returns the number of functions declared by the import section,
// which always precede module-defined functions in the function index namespace.
func (m *Module) ImportedFunctionCount() Index {
	var n Index
	for _, imp := range m.ImportSection {
		if imp.Kind == ImportKindFunc {
			n++
		}
	}
	return n
}

// ImportedGlobalCount returns the number of globals declared by the import section,
// which always precede module-defined globals in the global index namespace.
func (m *Module) ImportedGlobalCount() Index {
	var n Index
	for _, imp := range m.ImportSection {
		if imp.Kind == ImportKindGlobal {
			n++
		}
	}
	return n
}

// GlobalTypeAt returns the GlobalType at globalIdx in the combined global index
// namespace (imports first, then GlobalSection), or nil if out of range.
func (m *Module) GlobalTypeAt(globalIdx Index) *GlobalType {
	var i Index
	for _, imp := range m.ImportSection {
		if imp.Kind == ImportKindGlobal {
			if i == globalIdx {
				return imp.DescGlobal
			}
			i++
		}
	}
	declIdx := globalIdx - i
	if declIdx >= uint32(len(m.GlobalSection)) {
		return nil
	}
	return m.GlobalSection[declIdx].Type
}

// HasTable and HasMemory report whether the module declares (by import or by section)
// a table or memory; the MVP allows at most one of each (invariant 4).
func (m *Module) HasTable() bool {
	if len(m.TableSection) > 0 {
		return true
	}
	for _, imp := range m.ImportSection {
		if imp.Kind == ImportKindTable {
			return true
		}
	}
	return false
}

func (m *Module) HasMemory() bool {
	if len(m.MemorySection) > 0 {
		return true
	}
	for _, imp := range m.ImportSection {
		if imp.Kind == ImportKindMemory {
			return true
		}
	}
	return false
}

// NameSection holds the optional module/function/local debug names recovered from the
// "name" custom section. Lenient: a corrupt subsection header or a function/local names
// subsection that fails to decode drops the whole section (nil); an undecodable module
// name is only ignored.
type NameSection struct {
	ModuleName    string
	FunctionNames NameMap
	LocalNames    IndirectNameMap
}

type NameMap []NameAssoc

type NameAssoc struct {
	Index Index
	Name  string
}

type IndirectNameMap []NameMapAssoc

type NameMapAssoc struct {
	Index   Index
	NameMap NameMap
}

// bug builds an error for invariants that "should never happen" (it currently has no callers) —
// i.e. bugs in this package, not malformed input.
func bug(format string, args ...interface{}) error {
	return fmt.Errorf("BUG: "+format, args...)
}
