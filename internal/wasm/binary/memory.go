package binary

import (
	"bytes"

	"github.com/dufoli/graal/internal/wasm"
)

// decodeMemory returns a MemoryType decoded from the memory section's vector. See
// https://www.w3.org/TR/wasm-core-1/#binary-memory
func decodeMemory(r *bytes.Reader) (*wasm.MemoryType, error) {
	m, err := decodeMemoryType(r)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func encodeMemory(m *wasm.MemoryType) []byte {
	return encodeMemoryType(*m)
}
