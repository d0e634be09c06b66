package runtimeemit

import (
	"github.com/maravilla-labs/edgephp-wasmc/internal/assembler"
	"github.com/maravilla-labs/edgephp-wasmc/internal/wasmenc"
)

// emitTypePredicates builds to_bool, to_string, is_null, isset and empty,
// grounded on operations.rs's to_bool/to_string coercion table (PHP's
// classic falsy set: null, false, 0, 0.0, "", "0") plus spec.md §4.2's
// is_null/isset/empty predicates, which the manual-GC reference never
// implemented but the tagged-value layout makes direct tag/payload
// checks for.
func (idx *Indices) emitTypePredicates(b *assembler.Builder) {
	idx.emitToBool(b)
	idx.emitToString(b)
	idx.emitIsNull(b)
	idx.emitIsset(b)
	idx.emitEmpty(b)
}

// toBool(v) -> i32 (0 or 1, not a tagged Value — codegen branches on this
// raw result directly for if/while conditions). null is always false;
// bool passes its payload through; int/float are false only at exactly
// zero; string is false only when empty or exactly "0", PHP's one
// string-specific falsy exception.
func (idx *Indices) emitToBool(b *assembler.Builder) {
	body := wasmenc.NewBody()
	// param: 0 = v; locals: 1 = str_ptr, 2 = len

	loadTag(body, 0)
	body.I32Const(TypeNull)
	body.I32Eq()
	body.If()
	body.I32Const(0)
	body.Return()
	body.End()

	loadTag(body, 0)
	body.I32Const(TypeBool)
	body.I32Eq()
	body.If()
	loadIntPayload(body, 0)
	body.I64Eqz()
	body.I32Eqz()
	body.Return()
	body.End()

	loadTag(body, 0)
	body.I32Const(TypeInt)
	body.I32Eq()
	body.If()
	loadIntPayload(body, 0)
	body.I64Eqz()
	body.I32Eqz()
	body.Return()
	body.End()

	loadTag(body, 0)
	body.I32Const(TypeFloat)
	body.I32Eq()
	body.If()
	loadFloatPayload(body, 0)
	body.F64Const(0)
	body.F64Eq()
	body.I32Eqz()
	body.Return()
	body.End()

	loadTag(body, 0)
	body.I32Const(TypeString)
	body.I32Eq()
	body.If()
	body.LocalGet(0)
	body.I32Const(8)
	body.I32Add()
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(1)
	body.LocalGet(1)
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(2)

	body.LocalGet(2)
	body.I32Eqz()
	body.If()
	body.I32Const(0)
	body.Return()
	body.End()

	body.LocalGet(2)
	body.I32Const(1)
	body.I32Eq()
	body.LocalGet(1)
	body.I32Const(8)
	body.I32Add()
	body.I32Load8U(wasmenc.MemArg{})
	body.I32Const('0')
	body.I32Eq()
	body.I32And()
	body.If()
	body.I32Const(0)
	body.Return()
	body.End()

	body.I32Const(1)
	body.Return()
	body.End()

	// arrays/objects/resources/references: truthy by default (spec.md
	// §4.2 leaves them out of scope beyond the scalar set above).
	body.I32Const(1)

	b.SetFunctionAt(idx.ToBool, idx.tUnaryI32, []wasmenc.Local{
		{Count: 2, Type: wasmenc.ValI32},
	}, body)
}

// toString(v) -> i32 (a tagged String Value pointer). null -> "", bool ->
// "1"/"" (PHP's convention: true stringifies to "1", false to the empty
// string), int/float route through the real formatting helpers
// (format.go), string passes through its own pointer unchanged.
func (idx *Indices) emitToString(b *assembler.Builder) {
	emptyRef := b.AddStringObject("")
	trueRef := b.AddStringObject("1")

	body := wasmenc.NewBody()
	// param: 0 = v; locals: 1 = result_ptr, 2 = str_obj
	//
	// Each branch below sets local 2 to a raw string-object pointer and
	// br(1)s out of the enclosing Block to the shared wrap-and-return
	// tail; the final (string/fallback) branch falls off the end of the
	// Block into that same tail.

	body.Block()

	loadTag(body, 0)
	body.I32Const(TypeNull)
	body.I32Eq()
	body.If()
	body.I32Const(int32(emptyRef.Start + 8))
	body.I32Const(int32(emptyRef.Len))
	body.Call(idx.AllocString)
	body.LocalSet(2)
	body.Br(1)
	body.End()

	loadTag(body, 0)
	body.I32Const(TypeBool)
	body.I32Eq()
	body.If()
	loadIntPayload(body, 0)
	body.I64Eqz()
	body.If()
	body.I32Const(int32(emptyRef.Start + 8))
	body.I32Const(int32(emptyRef.Len))
	body.Call(idx.AllocString)
	body.LocalSet(2)
	body.Else()
	body.I32Const(int32(trueRef.Start + 8))
	body.I32Const(int32(trueRef.Len))
	body.Call(idx.AllocString)
	body.LocalSet(2)
	body.End()
	body.Br(1)
	body.End()

	loadTag(body, 0)
	body.I32Const(TypeInt)
	body.I32Eq()
	body.If()
	loadIntPayload(body, 0)
	body.Call(idx.intToStringObj)
	body.LocalSet(2)
	body.Br(1)
	body.End()

	loadTag(body, 0)
	body.I32Const(TypeFloat)
	body.I32Eq()
	body.If()
	loadFloatPayload(body, 0)
	body.Call(idx.floatToStringObj)
	body.LocalSet(2)
	body.Br(1)
	body.End()

	// TypeString (or any other tag): pass the existing payload through
	// unchanged rather than fabricating a representation for it.
	body.LocalGet(0)
	body.I32Const(8)
	body.I32Add()
	body.I32Load(wasmenc.MemArg{Align: 2})
	body.LocalSet(2)

	body.End() // outer Block; falls through here too

	body.Call(idx.AllocValue)
	body.LocalSet(1)
	body.LocalGet(1)
	body.I32Const(TypeString)
	body.I32Store8(wasmenc.MemArg{})
	body.LocalGet(1)
	body.I32Const(8)
	body.I32Add()
	body.LocalGet(2)
	body.I32Store(wasmenc.MemArg{Align: 2})

	body.LocalGet(1)

	b.SetFunctionAt(idx.ToString, idx.tUnaryI32, []wasmenc.Local{
		{Count: 2, Type: wasmenc.ValI32},
	}, body)
}

// isNull(v) -> i32 (0 or 1): true exactly when v's tag is Null.
func (idx *Indices) emitIsNull(b *assembler.Builder) {
	body := wasmenc.NewBody()
	loadTag(body, 0)
	body.I32Const(TypeNull)
	body.I32Eq()
	b.SetFunctionAt(idx.IsNull, idx.tUnaryI32, nil, body)
}

// isset(v) -> i32 (0 or 1): PHP's isset() is false for null and true for
// every other tag, including false/0/"" (unlike empty()).
func (idx *Indices) emitIsset(b *assembler.Builder) {
	body := wasmenc.NewBody()
	loadTag(body, 0)
	body.I32Const(TypeNull)
	body.I32Eq()
	body.I32Eqz()
	b.SetFunctionAt(idx.Isset, idx.tUnaryI32, nil, body)
}

// empty(v) -> i32 (0 or 1): true when v is null or when to_bool(v) is
// false, PHP's empty() being "not set, or falsy".
func (idx *Indices) emitEmpty(b *assembler.Builder) {
	body := wasmenc.NewBody()
	body.LocalGet(0)
	body.Call(idx.ToBool)
	body.I32Eqz()
	b.SetFunctionAt(idx.Empty, idx.tUnaryI32, nil, body)
}
