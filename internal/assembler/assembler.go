// Package assembler implements the Module Assembler contract of spec.md
// §4.1: an accumulator that lets internal/runtimeemit and internal/codegen
// reserve a function index before that function's body is compiled (so
// the runtime helpers can call each other by index whatever order their
// bodies are built in), then fill every reservation in, and finally serialize the
// whole module in the binary format's fixed section order.
//
// It is grounded directly on original_source/packages/compiler/src/
// wasm_builder.go's WasmBuilder: the reserve_function_index/
// set_function_at_index/build three-step dance, the add_type dedup
// (wasm_encoder itself doesn't dedup types; WasmBuilder doesn't either —
// ours adds it, since wazero's own compiler caches functypes the same way
// for an identical reason: fewer Type-section entries), and the
// next_data_offset bump allocator for interned string/data blobs.
package assembler

import (
	"fmt"
	"sort"

	"github.com/maravilla-labs/edgephp-wasmc/internal/cerr"
	"github.com/maravilla-labs/edgephp-wasmc/internal/wasmenc"
)

// runtimeDataStart is where the Module Assembler starts handing out data
// offsets via AddString, matching spec.md §3's
// [0x10000,0x100000) interned-string region.
const runtimeDataStart = 0x10000

// Builder accumulates a module under construction. The zero value is not
// usable; use New.
type Builder struct {
	types   []wasmenc.FuncType
	imports []wasmenc.ImportFunc
	exports []wasmenc.Export
	globals []wasmenc.Global
	data    []wasmenc.Data

	importFuncCount uint32
	nextFuncIdx     uint32
	nextDataOffset  uint32

	deferred []deferredFunc
	filled   map[uint32]bool
}

type deferredFunc struct {
	idx     uint32
	typeIdx uint32
	locals  []wasmenc.Local
	body    *wasmenc.Body
}

// New returns an empty Builder, with the string/data cursor positioned at
// spec.md §3's interned-literal region start.
func New() *Builder {
	return &Builder{nextDataOffset: runtimeDataStart, filled: make(map[uint32]bool)}
}

// AddType registers a function signature, deduplicating against any
// already-registered identical signature, and returns its Type-section
// index.
func (b *Builder) AddType(t wasmenc.FuncType) uint32 {
	for i, existing := range b.types {
		if existing.Equal(t) {
			return uint32(i)
		}
	}
	b.types = append(b.types, t)
	return uint32(len(b.types) - 1)
}

// AddImportFunc registers a host function import and returns its function
// index (import function indices precede all defined function indices).
func (b *Builder) AddImportFunc(module, name string, typeIdx uint32) uint32 {
	idx := b.importFuncCount
	b.imports = append(b.imports, wasmenc.ImportFunc{Module: module, Name: name, TypeIdx: typeIdx})
	b.importFuncCount++
	b.nextFuncIdx++
	return idx
}

// ReserveFunctionIndex hands out the next function index without requiring
// the caller to have compiled that function's body yet. Call SetFunctionAt
// with the same index once the body is ready.
func (b *Builder) ReserveFunctionIndex() uint32 {
	idx := b.nextFuncIdx
	b.nextFuncIdx++
	return idx
}

// SetFunctionAt fills in a previously reserved function index. Filling an
// index that was never reserved — an import's index, an index past the
// counter, or one already filled — is a programmer error and panics, per
// spec.md §4.1's failure-mode contract.
func (b *Builder) SetFunctionAt(idx, typeIdx uint32, locals []wasmenc.Local, body *wasmenc.Body) {
	if idx < b.importFuncCount || idx >= b.nextFuncIdx {
		panic(fmt.Sprintf("assembler: SetFunctionAt(%d) on an index never returned by ReserveFunctionIndex", idx))
	}
	if b.filled[idx] {
		panic(fmt.Sprintf("assembler: SetFunctionAt(%d) called twice for the same index", idx))
	}
	b.filled[idx] = true
	b.deferred = append(b.deferred, deferredFunc{idx: idx, typeIdx: typeIdx, locals: locals, body: body})
}

// AddFunction reserves and immediately fills a function index in one
// call, for a function whose body is complete before it is registered.
// internal/runtimeemit and internal/codegen do not use it: they reserve
// every index with ReserveFunctionIndex and fill it with SetFunctionAt.
func (b *Builder) AddFunction(typeIdx uint32, locals []wasmenc.Local, body *wasmenc.Body) uint32 {
	idx := b.ReserveFunctionIndex()
	b.SetFunctionAt(idx, typeIdx, locals, body)
	return idx
}

// AddExport registers an export-section entry.
func (b *Builder) AddExport(name string, kind wasmenc.ExportKind, idx uint32) {
	b.exports = append(b.exports, wasmenc.Export{Name: name, Kind: kind, Idx: idx})
}

// AddGlobal registers a mutable or immutable i32 global and returns its
// index.
func (b *Builder) AddGlobal(t wasmenc.ValType, mutable bool, initI32 int32) uint32 {
	idx := uint32(len(b.globals))
	b.globals = append(b.globals, wasmenc.Global{Type: t, Mutable: mutable, InitI32: initI32})
	return idx
}

// AddData registers an active data segment at a fixed offset.
func (b *Builder) AddData(offset uint32, data []byte) {
	b.data = append(b.data, wasmenc.Data{Offset: offset, Bytes: data})
}

// StringRef is the location of an interned byte blob written by AddString.
type StringRef struct {
	Start uint32
	Len   uint32
}

// AddString bump-allocates raw bytes (no length/hash header — callers that
// need the string-heap-object shape compose AddStringObject instead) into
// the interned-data region and returns where they landed.
func (b *Builder) AddString(s string) StringRef {
	start := b.nextDataOffset
	raw := []byte(s)
	b.AddData(start, raw)
	b.nextDataOffset += uint32(len(raw))
	b.nextDataOffset = (b.nextDataOffset + 3) &^ 3
	return StringRef{Start: start, Len: uint32(len(raw))}
}

// AddStringObject interns a string literal as a full string heap object —
// {u32 length, u32 hash} header followed by the UTF-8 bytes — matching the
// layout spec.md §3 gives every string value at runtime. hash is computed
// with the same DJB2 algorithm the runtime's alloc_string helper computes
// at execution time for dynamically-built strings (SPEC_FULL.md §6.5), so
// a literal and an equal runtime-built string always hash identically.
func (b *Builder) AddStringObject(s string) StringRef {
	start := b.nextDataOffset
	raw := []byte(s)

	var header []byte
	header = wasmenc.PutUint32LE(header, uint32(len(raw)))
	header = wasmenc.PutUint32LE(header, djb2(raw))
	b.AddData(start, header)
	b.AddData(start+8, raw)

	total := uint32(8 + len(raw))
	b.nextDataOffset += total
	b.nextDataOffset = (b.nextDataOffset + 3) &^ 3
	return StringRef{Start: start, Len: uint32(len(raw))}
}

// djb2 computes the same hash spec.md's emitted alloc_string helper
// computes in WASM at runtime: hash = 5381, then hash = hash*33 + byte for
// every byte.
func djb2(b []byte) uint32 {
	hash := uint32(5381)
	for _, c := range b {
		hash = hash*33 + uint32(c)
	}
	return hash
}

// coalescedData merges every interned AddString/AddStringObject write
// (each its own non-overlapping wasmenc.Data entry) into the single data
// segment spec.md P4 requires: "exactly one data segment at offset 0x10000
// containing all interned literals." AddData is only ever called within
// the contiguous [runtimeDataStart, nextDataOffset) region this package
// hands out itself, so one zero-filled buffer covering that whole span,
// with each write copied in at its own offset, reproduces the same bytes
// a reader would see from the many small segments — alignment padding
// between literals simply stays zero.
func (b *Builder) coalescedData() []wasmenc.Data {
	if len(b.data) == 0 {
		return nil
	}
	end := uint32(runtimeDataStart)
	for _, d := range b.data {
		if e := d.Offset + uint32(len(d.Bytes)); e > end {
			end = e
		}
	}
	buf := make([]byte, end-runtimeDataStart)
	for _, d := range b.data {
		copy(buf[d.Offset-runtimeDataStart:], d.Bytes)
	}
	return []wasmenc.Data{{Offset: runtimeDataStart, Bytes: buf}}
}

// Finalize serializes the accumulated module in the binary format's
// canonical section order. The memory section is emitted with minPages,
// which the caller (internal/codegen) computes from the highest variable
// cell address in use, per spec.md §4.1's "must cover 0x200000 + 4*maxVars"
// requirement. A reservation left unfilled would shift every later
// function index and malform the module, so it surfaces here as a
// WasmError rather than as undebuggable bytes.
func (b *Builder) Finalize(minPages uint32) ([]byte, error) {
	if uint32(len(b.deferred)) != b.nextFuncIdx-b.importFuncCount {
		return nil, &cerr.WasmError{Message: fmt.Sprintf(
			"%d function index(es) reserved but never filled", int(b.nextFuncIdx-b.importFuncCount)-len(b.deferred))}
	}

	sort.Slice(b.deferred, func(i, j int) bool { return b.deferred[i].idx < b.deferred[j].idx })

	typeIdxs := make([]uint32, len(b.deferred))
	funcs := make([]wasmenc.Func, len(b.deferred))
	for i, d := range b.deferred {
		typeIdxs[i] = d.typeIdx
		funcs[i] = wasmenc.Func{Locals: d.locals, Body: d.body}
	}

	mod := wasmenc.Module{
		Types:     wasmenc.TypeSection(b.types),
		Imports:   wasmenc.ImportSection(b.imports),
		Functions: wasmenc.FunctionSection(typeIdxs),
		Memory:    wasmenc.MemorySection(wasmenc.MemoryLimits{Min: minPages}),
		Globals:   wasmenc.GlobalSection(b.globals),
		Exports:   wasmenc.ExportSection(b.exports),
		Code:      wasmenc.CodeSection(funcs),
		Data:      wasmenc.DataSection(b.coalescedData()),
	}
	return mod.Assemble(), nil
}
