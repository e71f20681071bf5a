package wasm

// SymbolTable is the mutable registry of types, functions, tables, memories, globals
// and exports, with index-lookup accessors.
//
// ModuleSymbolTable is the default implementation, backed by a *Module. DecodeModule
// does not use a SymbolTable: its section readers and validator read and write the
// *Module directly, and a caller cannot supply one.
type SymbolTable interface {
	AllocateFunctionType(paramArity, resultArity int) Index
	RegisterFunctionTypeParameterType(typeIdx Index, paramIdx int, t ValueType)
	RegisterFunctionTypeReturnType(typeIdx Index, t ValueType)

	ImportFunction(module, name string, typeIdx Index)
	ImportTable(module, name string, t TableType)
	ImportMemory(module, name string, t MemoryType)
	ImportGlobal(module, name string, t GlobalType)

	DeclareFunction(typeIdx Index) Index
	AllocateTable(t TableType)
	AllocateMemory(t MemoryType)
	DeclareGlobal(t GlobalType, init *ConstantExpression) Index

	ExportFunction(name string, idx Index)
	ExportTable(name string, idx Index)
	ExportMemory(name string, idx Index)
	ExportGlobal(name string, idx Index)

	SetStartFunction(idx Index)

	// Read-only accessors consulted by the validator and later section readers.
	TypeCount() int
	FunctionType(typeIdx Index) (*FunctionType, bool)
	FunctionCount() int
	FunctionTypeIndex(funcIdx Index) (Index, bool)
	GlobalCount() int
	GlobalTypeAndMutability(globalIdx Index) (ValueType, bool, bool)
	GlobalIsImported(globalIdx Index) bool
	HasTable() bool
	HasMemory() bool
	TableSize() (Index, bool)
}

// ModuleSymbolTable implements SymbolTable directly on top of a *Module, such as the
// one DecodeModule returns.
type ModuleSymbolTable struct {
	M *Module
}

func NewModuleSymbolTable(m *Module) *ModuleSymbolTable { return &ModuleSymbolTable{M: m} }

func (s *ModuleSymbolTable) AllocateFunctionType(paramArity, resultArity int) Index {
	idx := Index(len(s.M.TypeSection))
	s.M.TypeSection = append(s.M.TypeSection, &FunctionType{
		Params:  make([]ValueType, paramArity),
		Results: make([]ValueType, resultArity),
	})
	return idx
}

func (s *ModuleSymbolTable) RegisterFunctionTypeParameterType(typeIdx Index, paramIdx int, t ValueType) {
	s.M.TypeSection[typeIdx].Params[paramIdx] = t
}

func (s *ModuleSymbolTable) RegisterFunctionTypeReturnType(typeIdx Index, t ValueType) {
	s.M.TypeSection[typeIdx].Results[0] = t
}

func (s *ModuleSymbolTable) ImportFunction(module, name string, typeIdx Index) {
	s.M.ImportSection = append(s.M.ImportSection, &Import{Kind: ImportKindFunc, Module: module, Name: name, DescFunc: typeIdx})
}

func (s *ModuleSymbolTable) ImportTable(module, name string, t TableType) {
	s.M.ImportSection = append(s.M.ImportSection, &Import{Kind: ImportKindTable, Module: module, Name: name, DescTable: &t})
}

func (s *ModuleSymbolTable) ImportMemory(module, name string, t MemoryType) {
	s.M.ImportSection = append(s.M.ImportSection, &Import{Kind: ImportKindMemory, Module: module, Name: name, DescMem: &t})
}

func (s *ModuleSymbolTable) ImportGlobal(module, name string, t GlobalType) {
	s.M.ImportSection = append(s.M.ImportSection, &Import{Kind: ImportKindGlobal, Module: module, Name: name, DescGlobal: &t})
}

func (s *ModuleSymbolTable) DeclareFunction(typeIdx Index) Index {
	idx := Index(len(s.M.FunctionSection))
	s.M.FunctionSection = append(s.M.FunctionSection, typeIdx)
	return idx
}

func (s *ModuleSymbolTable) AllocateTable(t TableType) {
	s.M.TableSection = append(s.M.TableSection, &t)
}

func (s *ModuleSymbolTable) AllocateMemory(t MemoryType) {
	s.M.MemorySection = append(s.M.MemorySection, &t)
}

func (s *ModuleSymbolTable) DeclareGlobal(t GlobalType, init *ConstantExpression) Index {
	idx := Index(len(s.M.GlobalSection)) + s.M.ImportedGlobalCount()
	s.M.GlobalSection = append(s.M.GlobalSection, &Global{Type: &t, Init: init})
	return idx
}

func (s *ModuleSymbolTable) ExportFunction(name string, idx Index) { s.export(name, ExportKindFunc, idx) }
func (s *ModuleSymbolTable) ExportTable(name string, idx Index)    { s.export(name, ExportKindTable, idx) }
func (s *ModuleSymbolTable) ExportMemory(name string, idx Index)   { s.export(name, ExportKindMemory, idx) }
func (s *ModuleSymbolTable) ExportGlobal(name string, idx Index)   { s.export(name, ExportKindGlobal, idx) }

func (s *ModuleSymbolTable) export(name string, kind ExportKind, idx Index) {
	if s.M.ExportSection == nil {
		s.M.ExportSection = map[string]*Export{}
	}
	s.M.ExportSection[name] = &Export{Kind: kind, Name: name, Index: idx}
}

func (s *ModuleSymbolTable) SetStartFunction(idx Index) { s.M.StartSection = &idx }

func (s *ModuleSymbolTable) TypeCount() int { return len(s.M.TypeSection) }

func (s *ModuleSymbolTable) FunctionType(typeIdx Index) (*FunctionType, bool) {
	if int(typeIdx) >= len(s.M.TypeSection) {
		return nil, false
	}
	return s.M.TypeSection[typeIdx], true
}

func (s *ModuleSymbolTable) FunctionCount() int {
	n := len(s.M.FunctionSection)
	for _, imp := range s.M.ImportSection {
		if imp.Kind == ImportKindFunc {
			n++
		}
	}
	return n
}

func (s *ModuleSymbolTable) FunctionTypeIndex(funcIdx Index) (Index, bool) {
	var i Index
	for _, imp := range s.M.ImportSection {
		if imp.Kind == ImportKindFunc {
			if i == funcIdx {
				return imp.DescFunc, true
			}
			i++
		}
	}
	declIdx := funcIdx - i
	if declIdx >= uint32(len(s.M.FunctionSection)) {
		return 0, false
	}
	return s.M.FunctionSection[declIdx], true
}

func (s *ModuleSymbolTable) GlobalCount() int {
	return len(s.M.GlobalSection) + int(s.M.ImportedGlobalCount())
}

func (s *ModuleSymbolTable) GlobalTypeAndMutability(globalIdx Index) (ValueType, bool, bool) {
	t := s.M.GlobalTypeAt(globalIdx)
	if t == nil {
		return 0, false, false
	}
	return t.ValType, t.Mutable, true
}

func (s *ModuleSymbolTable) GlobalIsImported(globalIdx Index) bool {
	return globalIdx < s.M.ImportedGlobalCount()
}

func (s *ModuleSymbolTable) HasTable() bool  { return s.M.HasTable() }
func (s *ModuleSymbolTable) HasMemory() bool { return s.M.HasMemory() }

func (s *ModuleSymbolTable) TableSize() (Index, bool) {
	for _, imp := range s.M.ImportSection {
		if imp.Kind == ImportKindTable {
			return imp.DescTable.Limits.Min, true
		}
	}
	if len(s.M.TableSection) > 0 {
		return s.M.TableSection[0].Limits.Min, true
	}
	return 0, false
}
