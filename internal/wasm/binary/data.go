package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dufoli/graal/internal/leb128"
	"github.com/dufoli/graal/internal/wasm"
)

// decodeDataSegment decodes one active data segment. The MVP only supports memory index
// 0. See https://www.w3.org/TR/wasm-core-1/#binary-datasec
func decodeDataSegment(r *bytes.Reader) (*wasm.DataSegment, error) {
	idx, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read memory index: %w", err)
	}
	if idx != 0 {
		return nil, fmt.Errorf("invalid memory index: %d", idx)
	}

	expr, err := decodeConstantExpression(r)
	if err != nil {
		return nil, fmt.Errorf("read offset expression: %w", err)
	}

	size, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read init vector size: %w", err)
	}

	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read init bytes: %w", err)
	}

	return &wasm.DataSegment{MemoryIndex: idx, OffsetExpr: expr, Init: b}, nil
}

func encodeDataSegment(d *wasm.DataSegment) []byte {
	data := leb128.EncodeUint32(d.MemoryIndex)
	data = append(data, encodeConstantExpression(d.OffsetExpr)...)
	data = append(data, leb128.EncodeUint32(uint32(len(d.Init)))...)
	return append(data, d.Init...)
}
