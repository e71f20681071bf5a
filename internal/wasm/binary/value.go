package binary

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dufoli/graal/internal/leb128"
	"github.com/dufoli/graal/internal/wasm"
)

// decodeUTF8 reads a size-prefixed UTF-8 string, used for import/export/name entries.
// contextFormat is used to build an error message identifying what failed to decode.
func decodeUTF8(r *bytes.Reader, contextFormat string, contextArgs ...interface{}) (string, uint32, error) {
	size, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to decode %s size: %w", fmt.Sprintf(contextFormat, contextArgs...), err)
	}

	buf := make([]byte, size)
	if _, err = io.ReadFull(r, buf); err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", fmt.Sprintf(contextFormat, contextArgs...), err)
	}

	if !utf8.Valid(buf) {
		return "", 0, wasm.Fail(wasm.FailureKindMalformedUtf8, "%s is not valid UTF-8", fmt.Sprintf(contextFormat, contextArgs...))
	}
	return string(buf), size, nil
}

// decodeValueTypes reads vc value types, validating each byte is a known wasm.ValueType.
func decodeValueTypes(r *bytes.Reader, vc uint32) ([]wasm.ValueType, error) {
	if vc == 0 {
		return nil, nil
	}
	ret := make([]wasm.ValueType, vc)
	buf := make([]byte, vc)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read %d value types: %w", vc, err)
	}
	for i, b := range buf {
		if !wasm.IsValueType(b) {
			return nil, fmt.Errorf("%w: invalid value type: %#x", ErrInvalidByte, b)
		}
		ret[i] = b
	}
	return ret, nil
}

func encodeSizePrefixed(data []byte) []byte {
	return append(leb128.EncodeUint32(uint32(len(data))), data...)
}

func encodeValTypes(vt []wasm.ValueType) []byte {
	count := leb128.EncodeUint32(uint32(len(vt)))
	if len(vt) == 0 {
		return count
	}
	return append(count, vt...)
}
