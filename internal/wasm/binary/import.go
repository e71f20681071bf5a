package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dufoli/graal/internal/leb128"
	"github.com/dufoli/graal/internal/wasm"
)

func decodeImport(r *bytes.Reader) (i *wasm.Import, err error) {
	i = &wasm.Import{}
	if i.Module, _, err = decodeUTF8(r, "import module"); err != nil {
		return nil, err
	}
	if i.Name, _, err = decodeUTF8(r, "import name"); err != nil {
		return nil, err
	}

	b := make([]byte, 1)
	if _, err = io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read import kind: %w", err)
	}

	i.Kind = b[0]
	switch i.Kind {
	case wasm.ImportKindFunc:
		if i.DescFunc, _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("read import func type index: %w", err)
		}
	case wasm.ImportKindTable:
		var t wasm.TableType
		if t, err = decodeTableType(r); err != nil {
			return nil, fmt.Errorf("read import table desc: %w", err)
		}
		i.DescTable = &t
	case wasm.ImportKindMemory:
		var m wasm.MemoryType
		if m, err = decodeMemoryType(r); err != nil {
			return nil, fmt.Errorf("read import mem desc: %w", err)
		}
		i.DescMem = &m
	case wasm.ImportKindGlobal:
		var g wasm.GlobalType
		if g, err = decodeGlobalType(r); err != nil {
			return nil, fmt.Errorf("read import global desc: %w", err)
		}
		i.DescGlobal = &g
	default:
		return nil, fmt.Errorf("%w: invalid byte for import kind: %#x", ErrInvalidByte, b[0])
	}
	return
}

func encodeImport(i *wasm.Import) []byte {
	data := encodeSizePrefixed([]byte(i.Module))
	data = append(data, encodeSizePrefixed([]byte(i.Name))...)
	data = append(data, i.Kind)
	switch i.Kind {
	case wasm.ImportKindFunc:
		data = append(data, leb128.EncodeUint32(i.DescFunc)...)
	case wasm.ImportKindTable:
		data = append(data, encodeTableType(*i.DescTable)...)
	case wasm.ImportKindMemory:
		data = append(data, encodeMemoryType(*i.DescMem)...)
	case wasm.ImportKindGlobal:
		data = append(data, encodeGlobalType(*i.DescGlobal)...)
	}
	return data
}
