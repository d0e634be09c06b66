package runtimeemit

import (
	"github.com/maravilla-labs/edgephp-wasmc/internal/assembler"
	"github.com/maravilla-labs/edgephp-wasmc/internal/wasmenc"
)

// emitArith builds the binary arithmetic operators plus unary negation.
// operations.rs's Value enum only ever appears as Int(i64)/Float(f64) by
// the time these helpers run (any string operand reaching them is a
// compiler bug upstream, per spec.md §4.2's table), so each op loads both
// tags, dispatches once on "is either side Float", and works on whichever
// pair of native WASM types that choice implies — mirroring the
// int-preserving/float-promoting coercion rule operations.rs documents
// for add/sub/mul, and the always-float rule it documents for divide.
func (idx *Indices) emitArith(b *assembler.Builder) {
	idx.emitBinaryNumeric(b, idx.Add, opAdd)
	idx.emitBinaryNumeric(b, idx.Sub, opSub)
	idx.emitBinaryNumeric(b, idx.Mul, opMul)
	idx.emitDiv(b)
	idx.emitMod(b)
	idx.emitConcat(b)
	idx.emitUnaryNeg(b)
}

type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
)

// loadTag pushes the tag byte (offset 0) of the value held in valueLocal;
// callers compare it against a Type* constant themselves.
func loadTag(body *wasmenc.Body, valueLocal uint32) {
	body.LocalGet(valueLocal)
	body.I32Load8U(wasmenc.MemArg{})
}

func loadIntPayload(body *wasmenc.Body, valueLocal uint32) {
	body.LocalGet(valueLocal)
	body.I64Load(wasmenc.MemArg{Offset: 4, Align: 3})
}

func loadFloatPayload(body *wasmenc.Body, valueLocal uint32) {
	body.LocalGet(valueLocal)
	body.F64Load(wasmenc.MemArg{Offset: 4, Align: 3})
}

// emitBinaryNumeric builds add/sub/mul(a, b) -> i32 (a new tagged Value
// pointer). If either operand is Float the whole operation runs in f64
// and the result is stored back as Float; otherwise both sides are read
// as Int and the op runs in i64, per operations.rs's
// "int op int -> int, otherwise promote to float" rule.
func (idx *Indices) emitBinaryNumeric(b *assembler.Builder, fn uint32, op arithOp) {
	body := wasmenc.NewBody()
	// params: 0 = a, 1 = b
	// locals: 2 = result_ptr, 3 = a_is_float (i32), 4 = af (f64), 5 = bf (f64), 6 = ai (i64), 7 = bi (i64)

	loadTag(body, 0)
	body.I32Const(TypeFloat)
	body.I32Eq()
	loadTag(body, 1)
	body.I32Const(TypeFloat)
	body.I32Eq()
	body.I32Or()
	body.LocalSet(3)

	body.LocalGet(3)
	body.If()

	loadTag(body, 0)
	body.I32Const(TypeFloat)
	body.I32Eq()
	body.IfResult(wasmenc.ValF64)
	loadFloatPayload(body, 0)
	body.Else()
	loadIntPayload(body, 0)
	body.F64ConvertI64S()
	body.End()
	body.LocalSet(4)

	loadTag(body, 1)
	body.I32Const(TypeFloat)
	body.I32Eq()
	body.IfResult(wasmenc.ValF64)
	loadFloatPayload(body, 1)
	body.Else()
	loadIntPayload(body, 1)
	body.F64ConvertI64S()
	body.End()
	body.LocalSet(5)

	body.Call(idx.AllocValue)
	body.LocalSet(2)
	body.LocalGet(2)
	body.I32Const(TypeFloat)
	body.I32Store8(wasmenc.MemArg{})

	body.LocalGet(2)
	body.I32Const(4)
	body.I32Add()
	body.LocalGet(4)
	body.LocalGet(5)
	emitF64Op(body, op)
	body.F64Store(wasmenc.MemArg{Align: 3})

	body.Else()

	body.LocalGet(0)
	body.I64Load(wasmenc.MemArg{Offset: 4, Align: 3})
	body.LocalSet(6)
	body.LocalGet(1)
	body.I64Load(wasmenc.MemArg{Offset: 4, Align: 3})
	body.LocalSet(7)

	body.Call(idx.AllocValue)
	body.LocalSet(2)
	body.LocalGet(2)
	body.I32Const(TypeInt)
	body.I32Store8(wasmenc.MemArg{})

	body.LocalGet(2)
	body.I32Const(4)
	body.I32Add()
	body.LocalGet(6)
	body.LocalGet(7)
	emitI64Op(body, op)
	body.I64Store(wasmenc.MemArg{Align: 3})

	body.End()

	body.LocalGet(2)

	b.SetFunctionAt(fn, idx.tBinaryI32, []wasmenc.Local{
		{Count: 1, Type: wasmenc.ValI32}, // result_ptr
		{Count: 1, Type: wasmenc.ValI32}, // a_is_float
		{Count: 2, Type: wasmenc.ValF64}, // af, bf
		{Count: 2, Type: wasmenc.ValI64}, // ai, bi
	}, body)
}

func emitF64Op(body *wasmenc.Body, op arithOp) {
	switch op {
	case opAdd:
		body.F64Add()
	case opSub:
		body.F64Sub()
	case opMul:
		body.F64Mul()
	}
}

func emitI64Op(body *wasmenc.Body, op arithOp) {
	switch op {
	case opAdd:
		body.I64Add()
	case opSub:
		body.I64Sub()
	case opMul:
		body.I64Mul()
	}
}

// emitDiv builds divide(a, b) -> i32. Division always promotes both
// operands to f64 and always yields a Float result, per operations.rs's
// divide semantics; division by zero yields +Inf rather than trapping.
// spec.md §6 limits the produced module to a single host import
// (env.print), so there is no host channel to raise the "division by
// zero" warning operations.rs mentions through; this implementation
// keeps the documented +Inf result and omits the unwireable warning
// rather than inventing a second host import the rest of the catalog
// does not need.
func (idx *Indices) emitDiv(b *assembler.Builder) {
	body := wasmenc.NewBody()
	// params: 0 = a, 1 = b
	// locals: 2 = result_ptr, 3 = af, 4 = bf

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

	body.Call(idx.AllocValue)
	body.LocalSet(2)
	body.LocalGet(2)
	body.I32Const(TypeFloat)
	body.I32Store8(wasmenc.MemArg{})

	body.LocalGet(2)
	body.I32Const(4)
	body.I32Add()
	body.LocalGet(3)
	body.LocalGet(4)
	body.F64Div()
	body.F64Store(wasmenc.MemArg{Align: 3})

	body.LocalGet(2)

	b.SetFunctionAt(idx.Div, idx.tBinaryI32, []wasmenc.Local{
		{Count: 1, Type: wasmenc.ValI32},
		{Count: 2, Type: wasmenc.ValF64},
	}, body)
}

// emitMod builds modulo(a, b) -> i32. Integer remainder when both
// operands are Int; modulo by zero yields null (operations.rs's
// documented behavior) instead of trapping WASM's own i64.rem_s-by-zero
// fault. A Float operand on either side truncates to i64 first — PHP's
// % operator is integer-only regardless of operand type.
func (idx *Indices) emitMod(b *assembler.Builder) {
	body := wasmenc.NewBody()
	// params: 0 = a, 1 = b
	// locals: 2 = result_ptr, 3 = ai, 4 = bi

	loadTag(body, 0)
	body.I32Const(TypeFloat)
	body.I32Eq()
	body.IfResult(wasmenc.ValI64)
	loadFloatPayload(body, 0)
	body.I64TruncF64S()
	body.Else()
	loadIntPayload(body, 0)
	body.End()
	body.LocalSet(3)

	loadTag(body, 1)
	body.I32Const(TypeFloat)
	body.I32Eq()
	body.IfResult(wasmenc.ValI64)
	loadFloatPayload(body, 1)
	body.I64TruncF64S()
	body.Else()
	loadIntPayload(body, 1)
	body.End()
	body.LocalSet(4)

	body.LocalGet(4)
	body.I64Eqz()
	body.If()
	body.Call(idx.AllocValue)
	body.LocalSet(2)
	body.LocalGet(2)
	body.I32Const(TypeNull)
	body.I32Store8(wasmenc.MemArg{})
	body.Else()
	body.Call(idx.AllocValue)
	body.LocalSet(2)
	body.LocalGet(2)
	body.I32Const(TypeInt)
	body.I32Store8(wasmenc.MemArg{})
	body.LocalGet(2)
	body.I32Const(4)
	body.I32Add()
	body.LocalGet(3)
	body.LocalGet(4)
	body.I64RemS()
	body.I64Store(wasmenc.MemArg{Align: 3})
	body.End()

	body.LocalGet(2)

	b.SetFunctionAt(idx.Mod, idx.tBinaryI32, []wasmenc.Local{
		{Count: 1, Type: wasmenc.ValI32},
		{Count: 2, Type: wasmenc.ValI64},
	}, body)
}

// emitConcat builds concat(a, b) -> i32. Both sides are stringified via
// ToString (reusing the formatting helpers already wired for int/float,
// and the literal bool/null spellings typeops.go's ToString produces),
// then byte-concatenated into a fresh string Value.
func (idx *Indices) emitConcat(b *assembler.Builder) {
	body := wasmenc.NewBody()
	// params: 0 = a, 1 = b
	// locals: 2 = a_str_val, 3 = b_str_val, 4 = a_str_obj, 5 = b_str_obj
	// 6 = a_len, 7 = b_len, 8 = total_len, 9 = dst, 10 = result_ptr, 11 = i

	body.LocalGet(0)
	body.Call(idx.ToString)
	body.LocalSet(2)
	body.LocalGet(1)
	body.Call(idx.ToString)
	body.LocalSet(3)

	body.LocalGet(2)
	body.I32Const(8)
	body.I32Add()
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(4)
	body.LocalGet(3)
	body.I32Const(8)
	body.I32Add()
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(5)

	body.LocalGet(4)
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(6)
	body.LocalGet(5)
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(7)

	body.LocalGet(6)
	body.LocalGet(7)
	body.I32Add()
	body.LocalSet(8)

	// Build the concatenated bytes directly in scratch memory, then hand
	// the contiguous range to alloc_string (which re-copies it into the
	// heap and computes the real hash in the same pass).
	body.I32Const(0)
	body.LocalSet(11)
	body.Block()
	body.Loop()
	body.LocalGet(11)
	body.LocalGet(6)
	body.I32GeU()
	body.BrIf(1)
	body.I32Const(scratchBuf)
	body.LocalGet(11)
	body.I32Add()
	body.LocalGet(4)
	body.I32Const(8)
	body.I32Add()
	body.LocalGet(11)
	body.I32Add()
	body.I32Load8U(wasmenc.MemArg{})
	body.I32Store8(wasmenc.MemArg{})
	body.LocalGet(11)
	body.I32Const(1)
	body.I32Add()
	body.LocalSet(11)
	body.Br(0)
	body.End()
	body.End()

	body.I32Const(0)
	body.LocalSet(11)
	body.Block()
	body.Loop()
	body.LocalGet(11)
	body.LocalGet(7)
	body.I32GeU()
	body.BrIf(1)
	body.I32Const(scratchBuf)
	body.LocalGet(6)
	body.I32Add()
	body.LocalGet(11)
	body.I32Add()
	body.LocalGet(5)
	body.I32Const(8)
	body.I32Add()
	body.LocalGet(11)
	body.I32Add()
	body.I32Load8U(wasmenc.MemArg{})
	body.I32Store8(wasmenc.MemArg{})
	body.LocalGet(11)
	body.I32Const(1)
	body.I32Add()
	body.LocalSet(11)
	body.Br(0)
	body.End()
	body.End()

	body.I32Const(scratchBuf)
	body.LocalGet(8)
	body.Call(idx.AllocString)
	body.LocalSet(9)

	body.Call(idx.AllocValue)
	body.LocalSet(10)
	body.LocalGet(10)
	body.I32Const(TypeString)
	body.I32Store8(wasmenc.MemArg{})
	body.LocalGet(10)
	body.I32Const(8)
	body.I32Add()
	body.LocalGet(9)
	body.I32Store(wasmenc.MemArg{Align: 2})

	body.LocalGet(10)

	b.SetFunctionAt(idx.Concat, idx.tBinaryI32, []wasmenc.Local{
		{Count: 10, Type: wasmenc.ValI32},
	}, body)
}

// emitUnaryNeg builds unary_neg(v) -> i32: returns a freshly allocated
// value holding the negation, an Int as Int or a Float as Float.
func (idx *Indices) emitUnaryNeg(b *assembler.Builder) {
	body := wasmenc.NewBody()
	// param: 0 = v
	// locals: 1 = result_ptr

	loadTag(body, 0)
	body.I32Const(TypeFloat)
	body.I32Eq()
	body.If()
	body.Call(idx.AllocValue)
	body.LocalSet(1)
	body.LocalGet(1)
	body.I32Const(TypeFloat)
	body.I32Store8(wasmenc.MemArg{})
	body.LocalGet(1)
	body.I32Const(4)
	body.I32Add()
	body.F64Const(0)
	loadFloatPayload(body, 0)
	body.F64Sub()
	body.F64Store(wasmenc.MemArg{Align: 3})
	body.Else()
	body.Call(idx.AllocValue)
	body.LocalSet(1)
	body.LocalGet(1)
	body.I32Const(TypeInt)
	body.I32Store8(wasmenc.MemArg{})
	body.LocalGet(1)
	body.I32Const(4)
	body.I32Add()
	body.I64Const(0)
	loadIntPayload(body, 0)
	body.I64Sub()
	body.I64Store(wasmenc.MemArg{Align: 3})
	body.End()

	body.LocalGet(1)

	b.SetFunctionAt(idx.UnaryNeg, idx.tUnaryI32, []wasmenc.Local{
		{Count: 1, Type: wasmenc.ValI32},
	}, body)
}
