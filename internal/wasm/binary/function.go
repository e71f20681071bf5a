package binary

import (
	"bytes"
	"fmt"

	"github.com/dufoli/graal/internal/leb128"
	"github.com/dufoli/graal/internal/wasm"
)

// funcTypeTag is the leading byte of every function type entry.
// See https://www.w3.org/TR/wasm-core-1/#function-types%E2%91%A4
const funcTypeTag = 0x60

func decodeFunctionType(r *bytes.Reader) (*wasm.FunctionType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read leading byte: %w", err)
	}
	if b != funcTypeTag {
		return nil, fmt.Errorf("%w: %#x != 0x60", ErrInvalidByte, b)
	}

	paramCount, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read parameter count: %w", err)
	}
	paramTypes, err := decodeValueTypes(r, paramCount)
	if err != nil {
		return nil, fmt.Errorf("read parameter types: %w", err)
	}

	resultCount, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read result count: %w", err)
	}
	if resultCount > 1 {
		// The MVP permits at most one result; multi-value is a post-1.0 proposal.
		return nil, fmt.Errorf("function type has %d results, MVP allows at most one", resultCount)
	}
	resultTypes, err := decodeValueTypes(r, resultCount)
	if err != nil {
		return nil, fmt.Errorf("read result types: %w", err)
	}

	return &wasm.FunctionType{Params: paramTypes, Results: resultTypes}, nil
}

func encodeFunctionType(ft *wasm.FunctionType) []byte {
	data := []byte{funcTypeTag}
	data = append(data, encodeValTypes(ft.Params)...)
	data = append(data, encodeValTypes(ft.Results)...)
	return data
}
