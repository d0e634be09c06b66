package runtimeemit

import "github.com/maravilla-labs/edgephp-wasmc/internal/assembler"
import "github.com/maravilla-labs/edgephp-wasmc/internal/wasmenc"

// emitMemory emits alloc_value and alloc_string, grounded on
// compiler_manual_gc/memory.rs's add_alloc_value_function and
// add_alloc_string_function: both bump the heap pointer stored at
// address 0 and zero-initialize their record before returning it.
func (idx *Indices) emitMemory(b *assembler.Builder) {
	idx.emitAllocValue(b)
	idx.emitAllocString(b)
}

// allocValue() -> i32. Bumps the heap pointer by 16, zeroes the record,
// writes refcount = 1 at byte 1, returns the record start.
func (idx *Indices) emitAllocValue(b *assembler.Builder) {
	body := wasmenc.NewBody()
	// local 0: heap_ptr (the return value), local 1: new_heap_ptr
	body.I32Const(0)
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalTee(0)
	body.I32Const(16)
	body.I32Add()
	body.LocalSet(1)

	body.I32Const(0)
	body.LocalGet(1)
	body.I32Store(wasmenc.MemArg{Align: 2})

	// refcount = 1 at offset 1
	body.LocalGet(0)
	body.I32Const(1)
	body.I32Add()
	body.I32Const(1)
	body.I32Store(wasmenc.MemArg{Align: 2})

	// zero bytes [4,12)
	body.LocalGet(0)
	body.I32Const(4)
	body.I32Add()
	body.I64Const(0)
	body.I64Store(wasmenc.MemArg{Align: 3})

	// zero bytes [12,16)
	body.LocalGet(0)
	body.I32Const(12)
	body.I32Add()
	body.I32Const(0)
	body.I32Store(wasmenc.MemArg{Align: 2})

	body.LocalGet(0)

	b.SetFunctionAt(idx.AllocValue, idx.tNullaryI32,
		[]wasmenc.Local{{Count: 2, Type: wasmenc.ValI32}}, body)
}

// allocString(data_ptr, len) -> i32. Bumps the heap by align4(8+len),
// writes a {len, hash} header (hash computed with the same DJB2 pass the
// Module Assembler uses for compile-time interned literals, per
// SPEC_FULL.md's real-hashing supplement), copies len bytes from
// data_ptr, and returns the heap string object pointer.
func (idx *Indices) emitAllocString(b *assembler.Builder) {
	body := wasmenc.NewBody()
	// params: 0 = data_ptr, 1 = len
	// locals: 2 = heap_ptr, 3 = new_heap_ptr, 4 = total_size, 5 = i, 6 = hash

	body.I32Const(8)
	body.LocalGet(1)
	body.I32Add()
	body.I32Const(3)
	body.I32Add()
	body.I32Const(-4)
	body.I32And()
	body.LocalSet(4)

	body.I32Const(0)
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(2)

	body.LocalGet(2)
	body.LocalGet(4)
	body.I32Add()
	body.LocalSet(3)

	body.I32Const(0)
	body.LocalGet(3)
	body.I32Store(wasmenc.MemArg{Align: 2})

	// header: length at offset 0
	body.LocalGet(2)
	body.LocalGet(1)
	body.I32Store(wasmenc.MemArg{Align: 2})

	// copy bytes and accumulate DJB2 hash in one pass: hash = 5381
	body.I32Const(5381)
	body.LocalSet(6)
	body.I32Const(0)
	body.LocalSet(5)

	body.Block()
	body.Loop()
	body.LocalGet(5)
	body.LocalGet(1)
	body.I32LtU()
	body.I32Eqz()
	body.BrIf(1)

	// dest[8+i] = src[i]
	body.LocalGet(2)
	body.I32Const(8)
	body.I32Add()
	body.LocalGet(5)
	body.I32Add()
	body.LocalGet(0)
	body.LocalGet(5)
	body.I32Add()
	body.I32Load8U(wasmenc.MemArg{})
	body.I32Store8(wasmenc.MemArg{})

	// hash = hash*33 + src[i]
	body.LocalGet(6)
	body.I32Const(33)
	body.I32Mul()
	body.LocalGet(0)
	body.LocalGet(5)
	body.I32Add()
	body.I32Load8U(wasmenc.MemArg{})
	body.I32Add()
	body.LocalSet(6)

	body.LocalGet(5)
	body.I32Const(1)
	body.I32Add()
	body.LocalSet(5)
	body.Br(0)
	body.End() // loop
	body.End() // block

	// header: hash at offset 4
	body.LocalGet(2)
	body.I32Const(4)
	body.I32Add()
	body.LocalGet(6)
	body.I32Store(wasmenc.MemArg{Align: 2})

	body.LocalGet(2)

	b.SetFunctionAt(idx.AllocString, idx.tBinaryI32,
		[]wasmenc.Local{{Count: 5, Type: wasmenc.ValI32}}, body)
}
