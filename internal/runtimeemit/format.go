package runtimeemit

import (
	"github.com/maravilla-labs/edgephp-wasmc/internal/assembler"
	"github.com/maravilla-labs/edgephp-wasmc/internal/wasmenc"
)

// emitFormat builds the real int/float-to-string formatting SPEC_FULL.md
// calls for in place of the reference's hard-coded "42"/"10"/"3.14"
// scratch strings (spec.md §9 flags that shortcut directly: "a faithful
// implementation must format f64 per §4.2 to_string"). uintToDigitsEnd is
// shared plumbing; intToStringObj/floatToStringObj are the two entry
// points to_string (typeops.go) calls.
func (idx *Indices) emitFormat(b *assembler.Builder) {
	idx.emitUintToDigitsEnd(b)
	idx.emitIntToStringObj(b)
	idx.emitFloatToStringObj(b)
}

// uintToDigitsEnd(v, endPos) -> startPos. Writes the decimal digits of
// the unsigned value v (as an i64, assumed non-negative) into memory,
// ending just before endPos and growing backward; writes a single '0'
// when v is zero. Returns the address of the first digit written.
func (idx *Indices) emitUintToDigitsEnd(b *assembler.Builder) {
	body := wasmenc.NewBody()
	// params: 0 = v (i64), 1 = endPos (i32)
	// locals: 2 = pos (i32), 3 = digit (i64)
	body.LocalGet(1)
	body.LocalSet(2)

	body.LocalGet(0)
	body.I64Eqz()
	body.If()
	body.LocalGet(2)
	body.I32Const(1)
	body.I32Sub()
	body.LocalSet(2)
	body.LocalGet(2)
	body.I32Const('0')
	body.I32Store8(wasmenc.MemArg{})
	body.LocalGet(2)
	body.Return()
	body.End()

	body.Block()
	body.Loop()
	body.LocalGet(0)
	body.I64Eqz()
	body.BrIf(1)

	body.LocalGet(2)
	body.I32Const(1)
	body.I32Sub()
	body.LocalSet(2)

	body.LocalGet(0)
	body.I64Const(10)
	body.I64RemS()
	body.LocalSet(3)

	body.LocalGet(2)
	body.LocalGet(3)
	body.I32WrapI64()
	body.I32Const('0')
	body.I32Add()
	body.I32Store8(wasmenc.MemArg{})

	body.LocalGet(0)
	body.I64Const(10)
	body.I64DivS()
	body.LocalSet(0)

	body.Br(0)
	body.End() // loop
	body.End() // block

	body.LocalGet(2)

	b.SetFunctionAt(idx.uintToDigitsEnd, idx.tI64I32I32,
		[]wasmenc.Local{{Count: 1, Type: wasmenc.ValI32}, {Count: 1, Type: wasmenc.ValI64}}, body)
}

// intToStringObj(v) -> i32. Writes the decimal (optionally signed)
// representation of v into scratchBuf and hands the byte range to
// alloc_string.
func (idx *Indices) emitIntToStringObj(b *assembler.Builder) {
	const end = scratchBuf + 24

	body := wasmenc.NewBody()
	// param: 0 = v (i64)
	// locals: 1 = neg (i32), 2 = start (i32)
	body.LocalGet(0)
	body.I64Const(0)
	body.I64LtS()
	body.LocalSet(1)

	body.LocalGet(1)
	body.If()
	body.I64Const(0)
	body.LocalGet(0)
	body.I64Sub()
	body.LocalSet(0)
	body.End()

	body.LocalGet(0)
	body.I32Const(end)
	body.Call(idx.uintToDigitsEnd)
	body.LocalSet(2)

	body.LocalGet(1)
	body.If()
	body.LocalGet(2)
	body.I32Const(1)
	body.I32Sub()
	body.LocalSet(2)
	body.LocalGet(2)
	body.I32Const('-')
	body.I32Store8(wasmenc.MemArg{})
	body.End()

	body.LocalGet(2)
	body.I32Const(end)
	body.LocalGet(2)
	body.I32Sub()
	body.Call(idx.AllocString)

	b.SetFunctionAt(idx.intToStringObj, idx.tI64I32,
		[]wasmenc.Local{{Count: 2, Type: wasmenc.ValI32}}, body)
}

// floatToStringObj(f) -> i32. Splits f into a sign, an integer part
// (digits via uintToDigitsEnd), and a 6-digit fractional part rounded to
// the nearest micro-unit, trims trailing fractional zeros, and omits the
// decimal point entirely when the fraction rounds to zero — so 3.14 ->
// "3.14", and 42.0 -> "42", matching PHP's float-to-string convention
// (SPEC_FULL.md §6.2).
func (idx *Indices) emitFloatToStringObj(b *assembler.Builder) {
	const fracEnd = scratchBuf + 40
	const fracStart = fracEnd - 6
	const dotPos = fracStart - 1
	const intEnd = dotPos

	body := wasmenc.NewBody()
	// param: 0 = f (f64)
	// locals:
	//  1 = neg (i32)
	//  2 = intPart (i64)
	//  3 = fracF (f64)
	//  4 = scaled (i64)
	//  5 = trimmedEnd (i32)
	//  6 = intStart (i32)
	//  7 = pos (i32) scratch for unrolled digit stores

	body.LocalGet(0)
	body.F64Const(0)
	body.F64Lt()
	body.LocalSet(1)

	body.LocalGet(1)
	body.If()
	body.F64Const(0)
	body.LocalGet(0)
	body.F64Sub()
	body.LocalSet(0)
	body.End()

	body.LocalGet(0)
	body.I64TruncF64S()
	body.LocalSet(2)

	// fracF = f - float(intPart)
	body.LocalGet(0)
	body.LocalGet(2)
	body.F64ConvertI64S()
	body.F64Sub()
	body.LocalSet(3)

	// scaled = trunc(fracF * 1e6 + 0.5)
	body.LocalGet(3)
	body.F64Const(1000000)
	body.F64Mul()
	body.F64Const(0.5)
	body.F64Add()
	body.I64TruncF64S()
	body.LocalSet(4)

	// carry: scaled == 1_000_000 rounds up into the integer part
	body.LocalGet(4)
	body.I64Const(1000000)
	body.I64GeS()
	body.If()
	body.LocalGet(4)
	body.I64Const(1000000)
	body.I64Sub()
	body.LocalSet(4)
	body.LocalGet(2)
	body.I64Const(1)
	body.I64Add()
	body.LocalSet(2)
	body.End()

	// unroll 6 fixed-width digit stores into [fracStart, fracEnd)
	for i := 0; i < 6; i++ {
		pos := fracEnd - 1 - i
		body.LocalGet(4)
		body.I64Const(10)
		body.I64RemS()
		body.I32WrapI64()
		body.I32Const('0')
		body.I32Add()
		body.LocalSet(7)
		body.I32Const(int32(pos))
		body.LocalGet(7)
		body.I32Store8(wasmenc.MemArg{})
		body.LocalGet(4)
		body.I64Const(10)
		body.I64DivS()
		body.LocalSet(4)
	}

	// trim trailing '0's: trimmedEnd starts at fracEnd, shrinks while the
	// preceding byte is '0' and we haven't reached fracStart.
	body.I32Const(fracEnd)
	body.LocalSet(5)
	body.Block()
	body.Loop()
	body.LocalGet(5)
	body.I32Const(fracStart)
	body.I32LeU()
	body.BrIf(1)
	body.LocalGet(5)
	body.I32Const(1)
	body.I32Sub()
	body.I32Load8U(wasmenc.MemArg{})
	body.I32Const('0')
	body.I32Ne()
	body.BrIf(1)
	body.LocalGet(5)
	body.I32Const(1)
	body.I32Sub()
	body.LocalSet(5)
	body.Br(0)
	body.End() // loop
	body.End() // block

	// write integer digits ending at intEnd
	body.LocalGet(2)
	body.I32Const(intEnd)
	body.Call(idx.uintToDigitsEnd)
	body.LocalSet(6)

	body.LocalGet(1)
	body.If()
	body.LocalGet(6)
	body.I32Const(1)
	body.I32Sub()
	body.LocalSet(6)
	body.LocalGet(6)
	body.I32Const('-')
	body.I32Store8(wasmenc.MemArg{})
	body.End()

	// if trimmedEnd == fracStart the fraction rounded to zero: emit the
	// integer digits only. Otherwise write '.' and splice the kept
	// fractional digits on (memory between intEnd/dotPos and fracStart is
	// contiguous by construction).
	body.LocalGet(5)
	body.I32Const(fracStart)
	body.I32Eq()
	body.IfResult(wasmenc.ValI32)
	body.LocalGet(6)
	body.I32Const(intEnd)
	body.LocalGet(6)
	body.I32Sub()
	body.Call(idx.AllocString)
	body.Else()
	body.I32Const(dotPos)
	body.I32Const('.')
	body.I32Store8(wasmenc.MemArg{})
	body.LocalGet(6)
	body.LocalGet(5)
	body.LocalGet(6)
	body.I32Sub()
	body.Call(idx.AllocString)
	body.End()

	b.SetFunctionAt(idx.floatToStringObj, idx.tF64I32,
		[]wasmenc.Local{
			{Count: 1, Type: wasmenc.ValI32}, // neg
			{Count: 1, Type: wasmenc.ValI64}, // intPart
			{Count: 1, Type: wasmenc.ValF64}, // fracF
			{Count: 1, Type: wasmenc.ValI64}, // scaled
			{Count: 3, Type: wasmenc.ValI32}, // trimmedEnd, intStart, pos
		}, body)
}
