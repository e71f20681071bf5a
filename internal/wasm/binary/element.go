package binary

import (
	"fmt"

	"bytes"

	"github.com/dufoli/graal/internal/leb128"
	"github.com/dufoli/graal/internal/wasm"
)

// decodeElementSegment decodes one active element segment. The MVP only supports table
// index 0 and funcref element initializers. See https://www.w3.org/TR/wasm-core-1/#binary-elemsec
func decodeElementSegment(r *bytes.Reader) (*wasm.ElementSegment, error) {
	idx, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read table index: %w", err)
	}
	if idx != 0 {
		return nil, fmt.Errorf("invalid table index: %d", idx)
	}

	expr, err := decodeConstantExpression(r)
	if err != nil {
		return nil, fmt.Errorf("read offset expression: %w", err)
	}

	size, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read init vector size: %w", err)
	}

	init := make([]wasm.Index, size)
	for i := range init {
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read function index %d: %w", i, err)
		}
		init[i] = idx
	}

	return &wasm.ElementSegment{TableIndex: idx, OffsetExpr: expr, Init: init}, nil
}

func encodeElementSegment(e *wasm.ElementSegment) []byte {
	data := leb128.EncodeUint32(e.TableIndex)
	data = append(data, encodeConstantExpression(e.OffsetExpr)...)
	data = append(data, leb128.EncodeUint32(uint32(len(e.Init)))...)
	for _, idx := range e.Init {
		data = append(data, leb128.EncodeUint32(idx)...)
	}
	return data
}
