package wasm

// MemorySink is the byte-addressable linear memory of an instance; only touched when
// re-running data segments for instance reset (spec §1, §4.6).
type MemorySink interface {
	WriteAt(offset uint32, data []byte) error
	Size() uint32
}

// GlobalStore holds typed global slots; only touched when re-running global/element
// initializers for instance reset.
type GlobalStore interface {
	GetI32(idx Index) int32
	GetI64(idx Index) int64
	GetF32(idx Index) float32
	GetF64(idx Index) float64
	Set(idx Index, value interface{})
}

// ByteSliceMemorySink is a minimal MemorySink backed by a growable byte slice, enough
// for ResetPass tests and for simple embedders that don't bring their own memory
// representation.
type ByteSliceMemorySink struct {
	Bytes []byte
}

func NewByteSliceMemorySink(pages uint32) *ByteSliceMemorySink {
	return &ByteSliceMemorySink{Bytes: make([]byte, uint64(pages)*MemoryPageSize)}
}

func (m *ByteSliceMemorySink) WriteAt(offset uint32, data []byte) error {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(m.Bytes)) {
		return Fail(FailureKindDataSegmentDoesNotFit, "data segment of %d bytes at offset %d exceeds memory size %d", len(data), offset, len(m.Bytes))
	}
	copy(m.Bytes[offset:], data)
	return nil
}

func (m *ByteSliceMemorySink) Size() uint32 { return uint32(len(m.Bytes)) }

// MapGlobalStore is a minimal GlobalStore backed by a map, enough for ResetPass tests.
type MapGlobalStore struct {
	values map[Index]interface{}
}

func NewMapGlobalStore() *MapGlobalStore { return &MapGlobalStore{values: map[Index]interface{}{}} }

func (g *MapGlobalStore) GetI32(idx Index) int32 {
	if v, ok := g.values[idx].(int32); ok {
		return v
	}
	return 0
}

func (g *MapGlobalStore) GetI64(idx Index) int64 {
	if v, ok := g.values[idx].(int64); ok {
		return v
	}
	return 0
}

func (g *MapGlobalStore) GetF32(idx Index) float32 {
	if v, ok := g.values[idx].(float32); ok {
		return v
	}
	return 0
}

func (g *MapGlobalStore) GetF64(idx Index) float64 {
	if v, ok := g.values[idx].(float64); ok {
		return v
	}
	return 0
}

func (g *MapGlobalStore) Set(idx Index, value interface{}) { g.values[idx] = value }
