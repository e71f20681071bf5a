package binary

import (
	"bytes"

	"github.com/dufoli/graal/internal/wasm"
)

func decodeGlobal(r *bytes.Reader) (*wasm.Global, error) {
	gt, err := decodeGlobalType(r)
	if err != nil {
		return nil, err
	}
	init, err := decodeConstantExpression(r)
	if err != nil {
		return nil, err
	}
	return &wasm.Global{Type: &gt, Init: init}, nil
}

func encodeGlobal(g *wasm.Global) []byte {
	data := encodeGlobalType(*g.Type)
	return append(data, encodeConstantExpression(g.Init)...)
}
