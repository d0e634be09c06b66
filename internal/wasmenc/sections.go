package wasmenc

// Section IDs, per the binary format's fixed section ordering
// (https://webassembly.github.io/spec/core/binary/modules.html#sections).
// teacher's own internal/wasm/binary/encoder_test.go pins these same byte
// values for the sections it decodes; wasmenc re-derives them for encoding.
const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secCode     = 10
	secData     = 11
)

// section wraps payload with its section id and a byte-length prefix, the
// shape every section of a binary module shares.
func section(id byte, payload []byte) []byte {
	out := []byte{id}
	out = PutUvarint(out, uint64(len(payload)))
	return append(out, payload...)
}

// TypeSection encodes the Type section: a deduplicated vector of function
// signatures. internal/assembler owns deduplication; this just serializes
// whatever vector it is given.
func TypeSection(types []FuncType) []byte {
	if len(types) == 0 {
		return nil
	}
	var payload []byte
	payload = PutUvarint(payload, uint64(len(types)))
	for _, t := range types {
		payload = t.encode(payload)
	}
	return section(secType, payload)
}

// ImportFunc is one entry of the Import section's function imports: a
// module/name pair naming a host-provided collaborator, with the index of
// its signature in the Type section.
type ImportFunc struct {
	Module  string
	Name    string
	TypeIdx uint32
}

// ImportSection encodes the Import section. Compiled modules import one
// function, env.print, which internal/runtimeemit registers; the encoding
// itself accepts any number of function imports.
func ImportSection(imports []ImportFunc) []byte {
	if len(imports) == 0 {
		return nil
	}
	var payload []byte
	payload = PutUvarint(payload, uint64(len(imports)))
	for _, im := range imports {
		payload = putName(payload, im.Module)
		payload = putName(payload, im.Name)
		payload = append(payload, 0x00) // import kind: function
		payload = PutUvarint(payload, uint64(im.TypeIdx))
	}
	return section(secImport, payload)
}

// FunctionSection encodes the Function section: one type index per
// defined (non-imported) function, in function-index order.
func FunctionSection(typeIdxs []uint32) []byte {
	if len(typeIdxs) == 0 {
		return nil
	}
	var payload []byte
	payload = PutUvarint(payload, uint64(len(typeIdxs)))
	for _, idx := range typeIdxs {
		payload = PutUvarint(payload, uint64(idx))
	}
	return section(secFunction, payload)
}

// MemoryLimits is a memory's page-count bounds (64KiB pages).
type MemoryLimits struct {
	Min uint32
	Max uint32 // ignored unless HasMax
	HasMax bool
}

// MemorySection encodes the Memory section with exactly one memory, as
// spec.md §3 requires (no multi-memory proposal use).
func MemorySection(limits MemoryLimits) []byte {
	var payload []byte
	payload = PutUvarint(payload, 1) // one memory
	if limits.HasMax {
		payload = append(payload, 0x01)
		payload = PutUvarint(payload, uint64(limits.Min))
		payload = PutUvarint(payload, uint64(limits.Max))
	} else {
		payload = append(payload, 0x00)
		payload = PutUvarint(payload, uint64(limits.Min))
	}
	return section(secMemory, payload)
}

// Global is one entry of the Global section: a mutable or immutable value
// with a constant-expression initializer. No compiler pass registers a
// global (the bump pointer is memory-resident per spec.md §3), so compiled
// modules declare none, but the encoding is general.
type Global struct {
	Type    ValType
	Mutable bool
	InitI32 int32
}

// GlobalSection encodes the Global section.
func GlobalSection(globals []Global) []byte {
	if len(globals) == 0 {
		return nil
	}
	var payload []byte
	payload = PutUvarint(payload, uint64(len(globals)))
	for _, g := range globals {
		payload = append(payload, byte(g.Type))
		if g.Mutable {
			payload = append(payload, 0x01)
		} else {
			payload = append(payload, 0x00)
		}
		payload = append(payload, 0x41) // i32.const
		payload = PutVarint(payload, int64(g.InitI32))
		payload = append(payload, 0x0B) // end
	}
	return section(secGlobal, payload)
}

// Export is one entry of the Export section.
type Export struct {
	Name string
	Kind ExportKind
	Idx  uint32
}

// ExportSection encodes the Export section.
func ExportSection(exports []Export) []byte {
	if len(exports) == 0 {
		return nil
	}
	var payload []byte
	payload = PutUvarint(payload, uint64(len(exports)))
	for _, e := range exports {
		payload = putName(payload, e.Name)
		payload = append(payload, byte(e.Kind))
		payload = PutUvarint(payload, uint64(e.Idx))
	}
	return section(secExport, payload)
}

// Local is a run of locals of the same type, as the binary format groups
// them (count, then type) rather than one entry per local.
type Local struct {
	Count uint32
	Type  ValType
}

// Func is a single Code-section entry: its local declarations (beyond the
// function's parameters, which are implicit locals 0..len(params)-1) and
// its instruction body.
type Func struct {
	Locals []Local
	Body   *Body
}

// CodeSection encodes the Code section.
func CodeSection(funcs []Func) []byte {
	if len(funcs) == 0 {
		return nil
	}
	var payload []byte
	payload = PutUvarint(payload, uint64(len(funcs)))
	for _, f := range funcs {
		var body []byte
		body = PutUvarint(body, uint64(len(f.Locals)))
		for _, l := range f.Locals {
			body = PutUvarint(body, uint64(l.Count))
			body = append(body, byte(l.Type))
		}
		body = append(body, f.Body.Bytes()...)
		body = append(body, 0x0B) // end
		payload = PutUvarint(payload, uint64(len(body)))
		payload = append(payload, body...)
	}
	return section(secCode, payload)
}

// Data is one active data segment: bytes placed at a fixed memory offset
// on instantiation. internal/assembler uses this for interned string
// literals (spec.md §3's [0x10000,0x100000) region).
type Data struct {
	Offset uint32
	Bytes  []byte
}

// DataSection encodes the Data section (active segments against memory 0
// only; passive segments are unused by this compiler).
func DataSection(segments []Data) []byte {
	if len(segments) == 0 {
		return nil
	}
	var payload []byte
	payload = PutUvarint(payload, uint64(len(segments)))
	for _, d := range segments {
		payload = append(payload, 0x00) // memory index 0, active
		payload = append(payload, 0x41) // i32.const
		payload = PutVarint(payload, int64(d.Offset))
		payload = append(payload, 0x0B) // end
		payload = PutUvarint(payload, uint64(len(d.Bytes)))
		payload = append(payload, d.Bytes...)
	}
	return section(secData, payload)
}

func putName(buf []byte, name string) []byte {
	buf = PutUvarint(buf, uint64(len(name)))
	return append(buf, name...)
}
