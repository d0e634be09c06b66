package runtimeemit

import (
	"github.com/maravilla-labs/edgephp-wasmc/internal/assembler"
	"github.com/maravilla-labs/edgephp-wasmc/internal/wasmenc"
)

// emitGC emits incref/decref/free_value/free_string, grounded
// instruction-for-instruction on compiler_manual_gc/gc.rs, with one
// deliberate change: the reference commented every incref/decref call
// site in the code generator, leaking every value it allocates. spec.md
// §5 requires the ref-count protocol to actually run; this package still
// emits the routines faithfully — what changes is that internal/codegen
// (unlike the reference compiler) actually calls them.
func (idx *Indices) emitGC(b *assembler.Builder) {
	idx.emitIncref(b)
	idx.emitDecref(b)
	idx.emitFreeValue(b)
	idx.emitFreeString(b)
}

// incref(v) -> (). No-op on null. The tag byte (byte 0) and the 24-bit
// refcount (bytes 1-3) together make up the record's leading 4-byte word;
// this reads and rewrites that whole word at offset 0 rather than a
// 4-byte load/store at offset 1, since the latter would reach one byte
// past the refcount into byte 4 — the low byte of the i64/f64 payload
// (spec.md §3) — and clobber it.
func (idx *Indices) emitIncref(b *assembler.Builder) {
	body := wasmenc.NewBody()
	// locals: 1 = leading word, 2 = refcount
	body.LocalGet(0)
	body.I32Eqz()
	body.If()
	body.Return()
	body.End()

	body.LocalGet(0)
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(1)

	body.LocalGet(1)
	body.I32Const(8)
	body.I32ShrU()
	body.I32Const(0x00FFFFFF)
	body.I32And()
	body.I32Const(1)
	body.I32Add()
	body.LocalSet(2)

	body.LocalGet(0)
	body.LocalGet(1)
	body.I32Const(0xFF)
	body.I32And()
	body.LocalGet(2)
	body.I32Const(8)
	body.I32Shl()
	body.I32Or()
	body.I32Store(wasmenc.MemArg{Align: 2})

	b.SetFunctionAt(idx.Incref, idx.tUnaryVoid, []wasmenc.Local{{Count: 2, Type: wasmenc.ValI32}}, body)
}

// decref(v) -> (). No-op on null; decrements the refcount and calls
// free_value once it reaches zero. Same leading-word read/modify/write as
// incref, for the same reason (preserve byte 4 of the payload).
func (idx *Indices) emitDecref(b *assembler.Builder) {
	body := wasmenc.NewBody()
	// locals: 1 = leading word, 2 = refcount
	body.LocalGet(0)
	body.I32Eqz()
	body.If()
	body.Return()
	body.End()

	body.LocalGet(0)
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(1)

	body.LocalGet(1)
	body.I32Const(8)
	body.I32ShrU()
	body.I32Const(0x00FFFFFF)
	body.I32And()
	body.LocalSet(2)

	body.LocalGet(2)
	body.I32Eqz()
	body.If()
	body.Return()
	body.End()

	body.LocalGet(2)
	body.I32Const(1)
	body.I32Sub()
	body.LocalSet(2)

	body.LocalGet(0)
	body.LocalGet(1)
	body.I32Const(0xFF)
	body.I32And()
	body.LocalGet(2)
	body.I32Const(8)
	body.I32Shl()
	body.I32Or()
	body.I32Store(wasmenc.MemArg{Align: 2})

	body.LocalGet(2)
	body.I32Eqz()
	body.If()
	body.LocalGet(0)
	body.Call(idx.FreeValue)
	body.End()

	b.SetFunctionAt(idx.Decref, idx.tUnaryVoid, []wasmenc.Local{{Count: 2, Type: wasmenc.ValI32}}, body)
}

// freeValue(v) -> (). If the tag is string, frees the payload pointer at
// offset 8. The 16-byte record itself is never reclaimed — spec.md §4.2
// notes a free-list is a permitted future extension, not required here.
func (idx *Indices) emitFreeValue(b *assembler.Builder) {
	body := wasmenc.NewBody()
	// locals: 1 = type, 2 = string_ptr
	body.LocalGet(0)
	body.I32Eqz()
	body.If()
	body.Return()
	body.End()

	body.LocalGet(0)
	body.I32Load8U(wasmenc.MemArg{})
	body.LocalSet(1)

	body.LocalGet(1)
	body.I32Const(TypeString)
	body.I32Eq()
	body.If()

	body.LocalGet(0)
	body.I32Const(8)
	body.I32Add()
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(2)

	body.LocalGet(2)
	body.I32Eqz()
	body.If()
	body.Else()
	body.LocalGet(2)
	body.Call(idx.FreeString)
	body.End()

	body.End()

	b.SetFunctionAt(idx.FreeValue, idx.tUnaryVoid, []wasmenc.Local{{Count: 2, Type: wasmenc.ValI32}}, body)
}

// freeString(ptr) -> (). The bump allocator never reclaims string heap
// objects either; reserved for a future free-list extension.
func (idx *Indices) emitFreeString(b *assembler.Builder) {
	body := wasmenc.NewBody()
	body.Return()
	b.SetFunctionAt(idx.FreeString, idx.tUnaryVoid, nil, body)
}
