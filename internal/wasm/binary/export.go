package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dufoli/graal/internal/leb128"
	"github.com/dufoli/graal/internal/wasm"
)

func decodeExport(r *bytes.Reader) (e *wasm.Export, err error) {
	e = &wasm.Export{}
	if e.Name, _, err = decodeUTF8(r, "export name"); err != nil {
		return nil, err
	}

	b := make([]byte, 1)
	if _, err = io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read export kind: %w", err)
	}

	e.Kind = b[0]
	switch e.Kind {
	case wasm.ExportKindFunc, wasm.ExportKindTable, wasm.ExportKindMemory, wasm.ExportKindGlobal:
		if e.Index, _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("read export index: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: invalid byte for export kind: %#x", ErrInvalidByte, b[0])
	}
	return
}

func encodeExport(e *wasm.Export) []byte {
	data := encodeSizePrefixed([]byte(e.Name))
	data = append(data, e.Kind)
	data = append(data, leb128.EncodeUint32(e.Index)...)
	return data
}
