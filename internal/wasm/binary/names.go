package binary

import (
	"bytes"
	"io"

	"github.com/dufoli/graal/internal/leb128"
	"github.com/dufoli/graal/internal/wasm"
)

const (
	subsectionIDModuleName    = 0
	subsectionIDFunctionNames = 1
	subsectionIDLocalNames    = 2
)

// decodeNameSection decodes the "name" custom section leniently: it never fails the
// module, since the name section carries no semantic weight for execution (spec "Custom
// sections"). A subsection with an unknown id is skipped. A corrupt subsection id or
// size, a body shorter than its size prefix, or a function-names or local-names
// subsection that fails to decode (including a name that is not valid UTF-8) drops the
// whole section: nil is returned. A module-name subsection that fails to decode is
// ignored and the rest of the section is kept.
func decodeNameSection(data []byte) *wasm.NameSection {
	ret := &wasm.NameSection{}
	r := bytes.NewReader(data)
	for r.Len() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return nil
		}
		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil
		}

		switch id {
		case subsectionIDModuleName:
			if name, _, err := decodeUTF8(bytes.NewReader(body), "module name"); err == nil {
				ret.ModuleName = name
			}
		case subsectionIDFunctionNames:
			m, err := decodeNameMap(bytes.NewReader(body))
			if err != nil {
				return nil
			}
			ret.FunctionNames = m
		case subsectionIDLocalNames:
			m, err := decodeIndirectNameMap(bytes.NewReader(body))
			if err != nil {
				return nil
			}
			ret.LocalNames = m
		}
		// Unknown subsection ids are skipped: `body` was already consumed above.
	}
	return ret
}

func decodeNameMap(r *bytes.Reader) (wasm.NameMap, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	ret := make(wasm.NameMap, count)
	for i := range ret {
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, err
		}
		name, _, err := decodeUTF8(r, "name")
		if err != nil {
			return nil, err
		}
		ret[i] = wasm.NameAssoc{Index: idx, Name: name}
	}
	return ret, nil
}

func decodeIndirectNameMap(r *bytes.Reader) (wasm.IndirectNameMap, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	ret := make(wasm.IndirectNameMap, count)
	for i := range ret {
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, err
		}
		nm, err := decodeNameMap(r)
		if err != nil {
			return nil, err
		}
		ret[i] = wasm.NameMapAssoc{Index: idx, NameMap: nm}
	}
	return ret, nil
}

func encodeNameSectionData(n *wasm.NameSection) []byte {
	var data []byte
	if n.ModuleName != "" {
		sub := encodeSizePrefixed([]byte(n.ModuleName))
		data = append(data, subsectionIDModuleName)
		data = append(data, encodeSizePrefixed(sub)...)
	}
	if len(n.FunctionNames) > 0 {
		sub := encodeNameMap(n.FunctionNames)
		data = append(data, subsectionIDFunctionNames)
		data = append(data, encodeSizePrefixed(sub)...)
	}
	if len(n.LocalNames) > 0 {
		sub := encodeIndirectNameMap(n.LocalNames)
		data = append(data, subsectionIDLocalNames)
		data = append(data, encodeSizePrefixed(sub)...)
	}
	return data
}

func encodeNameMap(m wasm.NameMap) []byte {
	var data []byte
	for _, a := range m {
		data = append(data, leb128.EncodeUint32(a.Index)...)
		data = append(data, encodeSizePrefixed([]byte(a.Name))...)
	}
	return append(leb128.EncodeUint32(uint32(len(m))), data...)
}

func encodeIndirectNameMap(m wasm.IndirectNameMap) []byte {
	var data []byte
	for _, a := range m {
		data = append(data, leb128.EncodeUint32(a.Index)...)
		data = append(data, encodeNameMap(a.NameMap)...)
	}
	return append(leb128.EncodeUint32(uint32(len(m))), data...)
}
