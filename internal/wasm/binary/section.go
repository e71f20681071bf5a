package binary

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/dufoli/graal/internal/leb128"
	"github.com/dufoli/graal/internal/wasm"
)

// decodeSections drives the top-level section loop: each iteration reads a (id, size)
// header, slices out exactly `size` bytes for that section's payload, and dispatches to
// the matching section decoder. Custom sections may appear any number of times anywhere
// in the stream; every other section id must appear at most once and in strictly
// increasing id order (spec §4.2 "section ordering"). The code section is the one that
// may run on a background task; ctx and config govern that dispatch (see async.go).
func decodeSections(ctx context.Context, r *bytes.Reader, sink wasm.NodeSink, config wasm.ConfigProvider, moduleSize int) (*wasm.Module, error) {
	m := &wasm.Module{ExportSection: map[string]*wasm.Export{}}
	lastNonCustomID := -1

	for r.Len() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read section id: %w", err)
		}
		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, wasm.Wrap(wasm.FailureKindMalformedLeb, err, "read section size")
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, wasm.Wrap(wasm.FailureKindUnexpectedEnd, err, fmt.Sprintf("read section %s payload", wasm.SectionIDName(id)))
		}
		sr := bytes.NewReader(payload)

		if id != wasm.SectionIDCustom {
			if int(id) <= lastNonCustomID {
				return nil, wasm.Fail(wasm.FailureKindInvalidSectionOrder, "section %s is out of order", wasm.SectionIDName(id))
			}
			lastNonCustomID = int(id)
		}

		if err := decodeSection(ctx, sr, id, m, sink, config, moduleSize); err != nil {
			return nil, fmt.Errorf("section %s: %w", wasm.SectionIDName(id), err)
		}
		if sr.Len() != 0 {
			return nil, wasm.Fail(wasm.FailureKindSectionSizeMismatch, "%d bytes left over in section %s", sr.Len(), wasm.SectionIDName(id))
		}
	}

	if len(m.FunctionSection) != len(m.CodeSection) {
		return nil, wasm.Fail(wasm.FailureKindFunctionsCodeInconsistentLengths,
			"function section declares %d functions but code section has %d entries", len(m.FunctionSection), len(m.CodeSection))
	}
	return m, nil
}

func decodeSection(ctx context.Context, r *bytes.Reader, id wasm.SectionID, m *wasm.Module, sink wasm.NodeSink, config wasm.ConfigProvider, moduleSize int) error {
	switch id {
	case wasm.SectionIDCustom:
		return decodeCustomSection(r, m)
	case wasm.SectionIDType:
		return decodeVector(r, func(r *bytes.Reader) error {
			ft, err := decodeFunctionType(r)
			if err != nil {
				return err
			}
			m.TypeSection = append(m.TypeSection, ft)
			return nil
		})
	case wasm.SectionIDImport:
		return decodeVector(r, func(r *bytes.Reader) error {
			i, err := decodeImport(r)
			if err != nil {
				return err
			}
			m.ImportSection = append(m.ImportSection, i)
			return nil
		})
	case wasm.SectionIDFunction:
		return decodeVector(r, func(r *bytes.Reader) error {
			idx, _, err := leb128.DecodeUint32(r)
			if err != nil {
				return err
			}
			if int(idx) >= len(m.TypeSection) {
				return wasm.Fail(wasm.FailureKindUnknownType, "function type index %d out of range", idx)
			}
			m.FunctionSection = append(m.FunctionSection, idx)
			return nil
		})
	case wasm.SectionIDTable:
		return decodeVector(r, func(r *bytes.Reader) error {
			if len(m.TableSection) > 0 {
				return wasm.Fail(wasm.FailureKindUnspecifiedInvalid, "at most one table allowed in the MVP")
			}
			t, err := decodeTable(r)
			if err != nil {
				return err
			}
			m.TableSection = append(m.TableSection, t)
			return nil
		})
	case wasm.SectionIDMemory:
		return decodeVector(r, func(r *bytes.Reader) error {
			if len(m.MemorySection) > 0 {
				return wasm.Fail(wasm.FailureKindUnspecifiedInvalid, "at most one memory allowed in the MVP")
			}
			mem, err := decodeMemory(r)
			if err != nil {
				return err
			}
			m.MemorySection = append(m.MemorySection, mem)
			return nil
		})
	case wasm.SectionIDGlobal:
		return decodeVector(r, func(r *bytes.Reader) error {
			g, err := decodeGlobal(r)
			if err != nil {
				return err
			}
			m.GlobalSection = append(m.GlobalSection, g)
			return nil
		})
	case wasm.SectionIDExport:
		return decodeVector(r, func(r *bytes.Reader) error {
			e, err := decodeExport(r)
			if err != nil {
				return err
			}
			if _, dup := m.ExportSection[e.Name]; dup {
				return fmt.Errorf("duplicate export name %q", e.Name)
			}
			m.ExportSection[e.Name] = e
			return nil
		})
	case wasm.SectionIDStart:
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return err
		}
		m.StartSection = &idx
		return nil
	case wasm.SectionIDElement:
		return decodeVector(r, func(r *bytes.Reader) error {
			e, err := decodeElementSegment(r)
			if err != nil {
				return err
			}
			m.ElementSection = append(m.ElementSection, e)
			return nil
		})
	case wasm.SectionIDCode:
		return runCodeSection(ctx, moduleSize, config, func() error {
			return decodeVector(r, func(r *bytes.Reader) error {
				declIdx := wasm.Index(len(m.CodeSection))
				ft := m.TypeOfFunction(m.ImportedFunctionCount() + declIdx)
				if ft == nil {
					return wasm.Fail(wasm.FailureKindFunctionsCodeInconsistentLengths, "code entry %d has no matching function section entry", declIdx)
				}
				ce, err := decodeFunctionBody(r, m, ft, sink)
				if err != nil {
					return err
				}
				m.CodeSection = append(m.CodeSection, ce)
				return nil
			})
		})
	case wasm.SectionIDData:
		return decodeVector(r, func(r *bytes.Reader) error {
			d, err := decodeDataSegment(r)
			if err != nil {
				return err
			}
			m.DataSection = append(m.DataSection, d)
			return nil
		})
	default:
		return wasm.Fail(wasm.FailureKindMalformedSectionId, "unknown section id %#x", id)
	}
}

func decodeCustomSection(r *bytes.Reader, m *wasm.Module) error {
	name, _, err := decodeUTF8(r, "custom section name")
	if err != nil {
		return err
	}
	data := make([]byte, r.Len())
	if _, err := io.ReadFull(r, data); err != nil {
		return err
	}
	m.CustomSections = append(m.CustomSections, &wasm.CustomSection{Name: name, Data: data})
	if name == "name" {
		m.NameSection = decodeNameSection(data)
	}
	return nil
}

// decodeVector reads a leb128 element count, then calls decodeOne that many times,
// matching every section's `vec(T)` binary encoding.
// See https://www.w3.org/TR/wasm-core-1/#vectors%E2%91%A6
func decodeVector(r *bytes.Reader, decodeOne func(r *bytes.Reader) error) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("read vector count: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		if err := decodeOne(r); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}
