package binary

import (
	"bytes"

	"github.com/dufoli/graal/internal/wasm"
)

// decodeTable returns a TableType decoded from the table section's vector. See
// https://www.w3.org/TR/wasm-core-1/#binary-table
func decodeTable(r *bytes.Reader) (*wasm.TableType, error) {
	t, err := decodeTableType(r)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeTable(t *wasm.TableType) []byte {
	return encodeTableType(*t)
}
