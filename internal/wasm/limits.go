package wasm

// MemoryLimitPages is the absolute ceiling on memory pages (64KiB each) imposed by the
// WebAssembly 1.0 address space: 2^16 pages = 4GiB. See invariant 12.
const MemoryLimitPages uint32 = 65536

// MemoryPageSize is the number of bytes in one memory page.
const MemoryPageSize = 65536

// Limits are hard ceilings checked by DecodeModule: MaxModuleSize before decoding, the
// rest after all sections are decoded. Breaching any one aborts the parse with
// FailureKindLengthOutOfBounds (the same kind for every limit). MaxFunctionBodySize is
// not checked. Zero means "use the DefaultLimits value for that field".
type Limits struct {
	MaxFunctions        uint32
	MaxImports          uint32
	MaxExports          uint32
	MaxTypes            uint32
	MaxGlobals          uint32
	MaxTableSize        uint32
	MaxLocalsPerFunction uint32
	MaxFunctionBodySize uint32
	MaxElementSegments  uint32
	MaxDataSegments     uint32
	MaxModuleSize       uint32
	MemoryMaxPages      uint32
}

// DefaultLimits mirrors the generous, implementation-defined ceilings wazero's own
// RuntimeConfig ships (big enough to never bind real modules, small enough to bound
// pathological ones).
func DefaultLimits() Limits {
	return Limits{
		MaxFunctions:         10_000_000,
		MaxImports:           10_000_000,
		MaxExports:           10_000_000,
		MaxTypes:             10_000_000,
		MaxGlobals:           10_000_000,
		MaxTableSize:         10_000_000,
		MaxLocalsPerFunction: 127, // matches the module-wide local limit used by MVP engines
		MaxFunctionBodySize:  128 * 1024 * 1024,
		MaxElementSegments:   10_000_000,
		MaxDataSegments:      10_000_000,
		MaxModuleSize:        1024 * 1024 * 1024,
		MemoryMaxPages:       MemoryLimitPages,
	}
}

// fillDefaults returns a copy of l with every zero field replaced by DefaultLimits().
func (l Limits) fillDefaults() Limits {
	d := DefaultLimits()
	if l.MaxFunctions == 0 {
		l.MaxFunctions = d.MaxFunctions
	}
	if l.MaxImports == 0 {
		l.MaxImports = d.MaxImports
	}
	if l.MaxExports == 0 {
		l.MaxExports = d.MaxExports
	}
	if l.MaxTypes == 0 {
		l.MaxTypes = d.MaxTypes
	}
	if l.MaxGlobals == 0 {
		l.MaxGlobals = d.MaxGlobals
	}
	if l.MaxTableSize == 0 {
		l.MaxTableSize = d.MaxTableSize
	}
	if l.MaxLocalsPerFunction == 0 {
		l.MaxLocalsPerFunction = d.MaxLocalsPerFunction
	}
	if l.MaxFunctionBodySize == 0 {
		l.MaxFunctionBodySize = d.MaxFunctionBodySize
	}
	if l.MaxElementSegments == 0 {
		l.MaxElementSegments = d.MaxElementSegments
	}
	if l.MaxDataSegments == 0 {
		l.MaxDataSegments = d.MaxDataSegments
	}
	if l.MaxModuleSize == 0 {
		l.MaxModuleSize = d.MaxModuleSize
	}
	if l.MemoryMaxPages == 0 {
		l.MemoryMaxPages = d.MemoryMaxPages
	}
	return l
}
