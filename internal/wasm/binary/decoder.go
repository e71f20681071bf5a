// Package binary implements the WebAssembly 1.0 (MVP) binary format: decoding a module
// from bytes, validating every function body against it via a single-pass abstract
// interpreter, and building the executable block tree and side tables downstream
// consumers need. See https://www.w3.org/TR/wasm-core-1/#binary-format%E2%91%A0
package binary

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dufoli/graal/internal/wasm"
	"github.com/dufoli/graal/internal/wasmlog"
)

// DecodeModule decodes and validates a complete WebAssembly 1.0 binary module. sink
// builds the executable nodes for control instructions; pass wasm.NewBlockNodeSink() for
// the default in-process representation. config supplies the resource limits enforced
// while decoding, and governs whether the code section runs synchronously or on a
// background task. Equivalent to DecodeModuleContext(context.Background(), ...).
func DecodeModule(source []byte, sink wasm.NodeSink, config wasm.ConfigProvider) (*wasm.Module, error) {
	return DecodeModuleContext(context.Background(), source, sink, config)
}

// DecodeModuleContext is DecodeModule with an explicit context, whose cancellation can
// interrupt an in-flight background code-section task (see async.go).
func DecodeModuleContext(ctx context.Context, source []byte, sink wasm.NodeSink, config wasm.ConfigProvider) (*wasm.Module, error) {
	if config == nil {
		config = wasm.NewConfig()
	}
	limits := config.Limits()
	if uint32(len(source)) > limits.MaxModuleSize {
		return nil, wasm.Fail(wasm.FailureKindLengthOutOfBounds, "module size %d exceeds limit %d", len(source), limits.MaxModuleSize)
	}

	r := bytes.NewReader(source)

	magic := make([]byte, 4)
	if n, err := r.Read(magic); err != nil || n < 4 {
		return nil, wasm.Fail(wasm.FailureKindUnexpectedEnd, "could not read magic number")
	}
	if !bytes.Equal(magic, Magic) {
		return nil, wasm.Fail(wasm.FailureKindInvalidMagicNumber, "magic number mismatch: %#x", magic)
	}

	ver := make([]byte, 4)
	if n, err := r.Read(ver); err != nil || n < 4 {
		return nil, wasm.Fail(wasm.FailureKindUnexpectedEnd, "could not read version")
	}
	if !bytes.Equal(ver, version) {
		return nil, wasm.Fail(wasm.FailureKindInvalidVersionNumber, "unsupported version: %#x", ver)
	}

	m, err := decodeSections(ctx, r, sink, config, len(source))
	if err != nil {
		wasmlog.Logger().Debug("decode failed") // nolint: errcheck -- logging only, avoids leaking byte offsets into prod logs by default
		return nil, err
	}

	if err := validateLimits(m, limits); err != nil {
		return nil, err
	}

	wasmlog.Logger().Debug(fmt.Sprintf("decoded module: %d types, %d funcs, %d globals", len(m.TypeSection), len(m.FunctionSection), len(m.GlobalSection)))
	return m, nil
}

// validateLimits enforces the resource ceilings from the config's Limits, applied after
// decode so every error up to this point is a structural/type failure rather than a
// policy one (spec §4.6 "resource limits are a host policy, not wire format").
func validateLimits(m *wasm.Module, limits wasm.Limits) error {
	if Index(len(m.TypeSection)) > limits.MaxTypes {
		return wasm.Fail(wasm.FailureKindLengthOutOfBounds, "%d types exceeds limit %d", len(m.TypeSection), limits.MaxTypes)
	}
	if Index(len(m.ImportSection)) > limits.MaxImports {
		return wasm.Fail(wasm.FailureKindLengthOutOfBounds, "%d imports exceeds limit %d", len(m.ImportSection), limits.MaxImports)
	}
	if Index(len(m.FunctionSection)) > limits.MaxFunctions {
		return wasm.Fail(wasm.FailureKindLengthOutOfBounds, "%d functions exceeds limit %d", len(m.FunctionSection), limits.MaxFunctions)
	}
	if Index(len(m.ExportSection)) > limits.MaxExports {
		return wasm.Fail(wasm.FailureKindLengthOutOfBounds, "%d exports exceeds limit %d", len(m.ExportSection), limits.MaxExports)
	}
	if Index(len(m.GlobalSection)) > limits.MaxGlobals {
		return wasm.Fail(wasm.FailureKindLengthOutOfBounds, "%d globals exceeds limit %d", len(m.GlobalSection), limits.MaxGlobals)
	}
	if Index(len(m.ElementSection)) > limits.MaxElementSegments {
		return wasm.Fail(wasm.FailureKindLengthOutOfBounds, "%d element segments exceeds limit %d", len(m.ElementSection), limits.MaxElementSegments)
	}
	if Index(len(m.DataSection)) > limits.MaxDataSegments {
		return wasm.Fail(wasm.FailureKindLengthOutOfBounds, "%d data segments exceeds limit %d", len(m.DataSection), limits.MaxDataSegments)
	}
	for _, ce := range m.CodeSection {
		if Index(len(ce.LocalTypes)) > limits.MaxLocalsPerFunction {
			return wasm.Fail(wasm.FailureKindLengthOutOfBounds, "function has %d params and locals, exceeding limit %d", len(ce.LocalTypes), limits.MaxLocalsPerFunction)
		}
	}
	for _, t := range m.TableSection {
		if t.Limits.Min > limits.MaxTableSize {
			return wasm.Fail(wasm.FailureKindLengthOutOfBounds, "table min %d exceeds limit %d", t.Limits.Min, limits.MaxTableSize)
		}
	}
	for _, mem := range m.MemorySection {
		if mem.Min > limits.MemoryMaxPages {
			return wasm.Fail(wasm.FailureKindLengthOutOfBounds, "memory min %d pages exceeds limit %d", mem.Min, limits.MemoryMaxPages)
		}
	}
	return nil
}

// Index is a re-export of wasm.Index for readability inside this package's arithmetic.
type Index = wasm.Index
