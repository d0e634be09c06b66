package runtimeemit

import (
	"github.com/maravilla-labs/edgephp-wasmc/internal/assembler"
	"github.com/maravilla-labs/edgephp-wasmc/internal/wasmenc"
)

// emitCompare builds the six relational operators. operations.rs's
// compare_values dispatches bool-dominates, then numeric-as-f64, then
// string; its own String/String arm is an unimplemented TODO. spec.md
// §4.2 requires a real byte-wise string comparison, so this package adds
// the one piece of semantics with no original_source grounding: a
// length-then-byte-by-byte scan, built on the same Block+Loop+BrIf scan
// idiom alloc_string's copy loop and uintToDigitsEnd already establish.
func (idx *Indices) emitCompare(b *assembler.Builder) {
	cmp := idx.emitCompareValues(b)
	idx.emitOrdering(b, cmp, idx.LessThan, cmpLt)
	idx.emitOrdering(b, cmp, idx.LessOrEqual, cmpLe)
	idx.emitOrdering(b, cmp, idx.GreaterThan, cmpGt)
	idx.emitOrdering(b, cmp, idx.GreaterOrEqual, cmpGe)
	idx.emitEquality(b, cmp, idx.Equal, false)
	idx.emitEquality(b, cmp, idx.NotEqual, true)
}

type cmpKind int

const (
	cmpLt cmpKind = iota
	cmpLe
	cmpGt
	cmpGe
)

// compareValues(a, b) -> i64, a three-way comparator: -1, 0 or 1. Bool
// dominates (either side bool coerces both to bool, compared as 0/1
// ints); otherwise numeric operands compare as f64; otherwise strings
// compare byte-wise by length then content.
func (idx *Indices) emitCompareValues(b *assembler.Builder) uint32 {
	cmp := b.ReserveFunctionIndex()
	body := wasmenc.NewBody()
	// params: 0 = a, 1 = b
	// locals: 2 = a_is_bool, 3 = af, 4 = bf, 5 = a_ptr, 6 = b_ptr
	// 7 = a_len, 8 = b_len, 9 = min_len, 10 = i, 11 = ca, 12 = cb

	loadTag(body, 0)
	body.I32Const(TypeBool)
	body.I32Eq()
	loadTag(body, 1)
	body.I32Const(TypeBool)
	body.I32Eq()
	body.I32Or()
	body.LocalSet(2)

	loadTag(body, 0)
	body.I32Const(TypeString)
	body.I32Eq()
	loadTag(body, 1)
	body.I32Const(TypeString)
	body.I32Eq()
	body.I32And()
	body.LocalGet(2)
	body.I32Eqz()
	body.I32And()
	body.If()

	body.LocalGet(0)
	body.I32Const(8)
	body.I32Add()
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(5)
	body.LocalGet(1)
	body.I32Const(8)
	body.I32Add()
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(6)
	body.LocalGet(5)
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(7)
	body.LocalGet(6)
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(8)

	body.LocalGet(7)
	body.LocalGet(8)
	body.I32LtU()
	body.If()
	body.LocalGet(7)
	body.LocalSet(9)
	body.Else()
	body.LocalGet(8)
	body.LocalSet(9)
	body.End()

	body.I32Const(0)
	body.LocalSet(10)
	body.Block()
	body.Loop()
	body.LocalGet(10)
	body.LocalGet(9)
	body.I32GeU()
	body.BrIf(1)

	body.LocalGet(5)
	body.I32Const(8)
	body.I32Add()
	body.LocalGet(10)
	body.I32Add()
	body.I32Load8U(wasmenc.MemArg{})
	body.LocalSet(11)
	body.LocalGet(6)
	body.I32Const(8)
	body.I32Add()
	body.LocalGet(10)
	body.I32Add()
	body.I32Load8U(wasmenc.MemArg{})
	body.LocalSet(12)

	body.LocalGet(11)
	body.LocalGet(12)
	body.I32Ne()
	body.If()
	body.LocalGet(11)
	body.LocalGet(12)
	body.I32LtU()
	body.If()
	body.I64Const(-1)
	body.Return()
	body.Else()
	body.I64Const(1)
	body.Return()
	body.End()
	body.End()

	body.LocalGet(10)
	body.I32Const(1)
	body.I32Add()
	body.LocalSet(10)
	body.Br(0)
	body.End()
	body.End()

	body.LocalGet(7)
	body.LocalGet(8)
	body.I32Eq()
	body.If()
	body.I64Const(0)
	body.Return()
	body.End()
	body.LocalGet(7)
	body.LocalGet(8)
	body.I32LtU()
	body.If()
	body.I64Const(-1)
	body.Return()
	body.End()
	body.I64Const(1)
	body.Return()

	body.End() // string/string branch

	// bool-dominates: compare to_bool(a) and to_bool(b) as 0/1 ints.
	body.LocalGet(2)
	body.If()
	body.LocalGet(0)
	body.Call(idx.ToBool)
	body.LocalGet(1)
	body.Call(idx.ToBool)
	body.I32Sub()
	body.I64ExtendI32S()
	body.Return()
	body.End()

	// numeric (and null): coerce both sides to f64 (an int payload at
	// offset 4 is read as i64 then converted) and compare.
	loadTag(body, 0)
	body.I32Const(TypeFloat)
	body.I32Eq()
	body.IfResult(wasmenc.ValF64)
	loadFloatPayload(body, 0)
	body.Else()
	loadIntPayload(body, 0)
	body.F64ConvertI64S()
	body.End()
	body.LocalSet(3)

	loadTag(body, 1)
	body.I32Const(TypeFloat)
	body.I32Eq()
	body.IfResult(wasmenc.ValF64)
	loadFloatPayload(body, 1)
	body.Else()
	loadIntPayload(body, 1)
	body.F64ConvertI64S()
	body.End()
	body.LocalSet(4)

	body.LocalGet(3)
	body.LocalGet(4)
	body.F64Lt()
	body.If()
	body.I64Const(-1)
	body.Return()
	body.End()
	body.LocalGet(3)
	body.LocalGet(4)
	body.F64Gt()
	body.If()
	body.I64Const(1)
	body.Return()
	body.End()
	body.I64Const(0)

	b.SetFunctionAt(cmp, idx.tCmpI64(b), []wasmenc.Local{
		{Count: 1, Type: wasmenc.ValI32}, // a_is_bool
		{Count: 2, Type: wasmenc.ValF64}, // af, bf
		{Count: 2, Type: wasmenc.ValI32}, // a_ptr, b_ptr
		{Count: 6, Type: wasmenc.ValI32}, // a_len, b_len, min_len, i, ca, cb
	}, body)

	return cmp
}

// tCmpI64 returns the cached (i32,i32)->i64 signature compareValues uses,
// adding it once on first use.
func (idx *Indices) tCmpI64(b *assembler.Builder) uint32 {
	if idx.tCmp == 0 {
		idx.tCmp = b.AddType(wasmenc.FuncType{
			Params:  []wasmenc.ValType{wasmenc.ValI32, wasmenc.ValI32},
			Results: []wasmenc.ValType{wasmenc.ValI64},
		})
	}
	return idx.tCmp
}

// emitOrdering builds one of less_than/less_or_equal/greater_than/
// greater_or_equal as a thin wrapper over compareValues, returning a
// freshly allocated Bool value.
func (idx *Indices) emitOrdering(b *assembler.Builder, cmp, fn uint32, kind cmpKind) {
	body := wasmenc.NewBody()
	// params: 0 = a, 1 = b; locals: 2 = c (i64), 3 = result_ptr
	body.LocalGet(0)
	body.LocalGet(1)
	body.Call(cmp)
	body.LocalSet(2)

	body.Call(idx.AllocValue)
	body.LocalSet(3)
	body.LocalGet(3)
	body.I32Const(TypeBool)
	body.I32Store8(wasmenc.MemArg{})

	body.LocalGet(3)
	body.I32Const(4)
	body.I32Add()
	body.LocalGet(2)
	switch kind {
	case cmpLt:
		body.I64Const(0)
		body.I64LtS()
	case cmpLe:
		body.I64Const(1)
		body.I64LtS()
	case cmpGt:
		body.I64Const(0)
		body.I64GtS()
	case cmpGe:
		body.I64Const(-1)
		body.I64GtS()
	}
	body.I64ExtendI32S()
	body.I64Store(wasmenc.MemArg{Align: 3})

	body.LocalGet(3)

	b.SetFunctionAt(fn, idx.tBinaryI32, []wasmenc.Local{
		{Count: 1, Type: wasmenc.ValI64},
		{Count: 1, Type: wasmenc.ValI32},
	}, body)
}

// emitEquality builds equal/not_equal as compareValues(a,b) == 0, or its
// negation.
func (idx *Indices) emitEquality(b *assembler.Builder, cmp, fn uint32, negate bool) {
	body := wasmenc.NewBody()
	// params: 0 = a, 1 = b; locals: 2 = c (i64), 3 = result_ptr
	body.LocalGet(0)
	body.LocalGet(1)
	body.Call(cmp)
	body.LocalSet(2)

	body.Call(idx.AllocValue)
	body.LocalSet(3)
	body.LocalGet(3)
	body.I32Const(TypeBool)
	body.I32Store8(wasmenc.MemArg{})

	body.LocalGet(3)
	body.I32Const(4)
	body.I32Add()
	body.LocalGet(2)
	body.I64Eqz()
	if negate {
		body.I32Eqz()
	}
	body.I64ExtendI32S()
	body.I64Store(wasmenc.MemArg{Align: 3})

	body.LocalGet(3)

	b.SetFunctionAt(fn, idx.tBinaryI32, []wasmenc.Local{
		{Count: 1, Type: wasmenc.ValI64},
		{Count: 1, Type: wasmenc.ValI32},
	}, body)
}
