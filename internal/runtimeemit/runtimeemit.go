// Package runtimeemit is the Runtime Emitter (spec.md §4.2): before any
// user statement is lowered, it reserves and fills a function slot for
// each entry of the fixed helper catalog — value/string
// allocation, ref-counting, arithmetic with coercion, comparisons,
// concatenation, truthiness, and the is_null/isset/empty predicates.
//
// It is grounded on original_source/packages/compiler/src/
// compiler_manual_gc/{memory,gc,types}.rs instruction-by-instruction
// (see DESIGN.md), on packages/runtime/src/operations.rs for the
// arithmetic/comparison/coercion semantics the manual-GC backend itself
// never implemented in its reserved arithmetic/comparison slots, and on
// SPEC_FULL.md's supplemented-feature list for the parts the reference
// left as placeholders: real DJB2 hashing inside alloc_string (instead of
// always writing a hash of 0) and real int/float-to-string formatting
// (instead of the hard-coded "42"/"3.14" scratch strings the reference
// wired up for its own demo scenarios).
package runtimeemit

import (
	"github.com/maravilla-labs/edgephp-wasmc/internal/assembler"
	"github.com/maravilla-labs/edgephp-wasmc/internal/wasmenc"
)

// Type tags, matching the byte values spec.md §3 assigns to the tagged
// value's byte 0.
const (
	TypeNull     = 0
	TypeBool     = 1
	TypeInt      = 2
	TypeFloat    = 3
	TypeString   = 4
	TypeArray    = 5
	TypeObject   = 6
	TypeResource = 7
	TypeRef      = 8
)

// scratchBuf is where int_to_string/float_to_string build their decimal
// digits before handing the byte range to alloc_string, inside spec.md
// §3's runtime-data region [0x1000, 0x10000).
const scratchBuf = 0x1000

// Indices names every function this package emits, resolved before any
// user code is lowered so internal/codegen can freely call them.
type Indices struct {
	Print uint32 // env.print import

	AllocValue  uint32
	AllocString uint32
	Incref      uint32
	Decref      uint32
	FreeValue   uint32
	FreeString  uint32

	Add      uint32
	Sub      uint32
	Mul      uint32
	Div      uint32
	Mod      uint32
	Concat   uint32
	UnaryNeg uint32

	Equal          uint32
	NotEqual       uint32
	LessThan       uint32
	LessOrEqual    uint32
	GreaterThan    uint32
	GreaterOrEqual uint32

	ToBool   uint32
	ToString uint32
	IsNull   uint32
	Isset    uint32
	Empty    uint32

	// uintToDigitsEnd, intToStringObj and floatToStringObj are internal
	// helpers (not part of spec.md's public catalog) that together
	// implement to_string's real int/float formatting.
	uintToDigitsEnd  uint32
	intToStringObj   uint32
	floatToStringObj uint32

	// Cached type indices for the handful of signatures every helper
	// above reuses, so codegen and this package share one deduplicated
	// set instead of re-adding the same FuncType repeatedly.
	tUnaryVoid uint32 // (i32) -> ()
	tUnaryI32  uint32 // (i32) -> i32
	tBinaryI32 uint32 // (i32,i32) -> i32
	tNullaryI32 uint32 // () -> i32, used by alloc_value
	tI64I32    uint32 // (i64) -> i32
	tI64I32I32 uint32 // (i64,i32) -> i32
	tF64I32    uint32 // (f64) -> i32
	tCmp       uint32 // (i32,i32) -> i64, lazily added by emitCompareValues
}

// Emit reserves and fills every runtime helper slot, returning the
// indices internal/codegen needs to call them.
func Emit(b *assembler.Builder) *Indices {
	idx := &Indices{}

	printType := b.AddType(wasmenc.FuncType{Params: []wasmenc.ValType{wasmenc.ValI32, wasmenc.ValI32}})
	idx.Print = b.AddImportFunc("env", "print", printType)

	idx.tUnaryVoid = b.AddType(wasmenc.FuncType{Params: []wasmenc.ValType{wasmenc.ValI32}})
	idx.tUnaryI32 = b.AddType(wasmenc.FuncType{Params: []wasmenc.ValType{wasmenc.ValI32}, Results: []wasmenc.ValType{wasmenc.ValI32}})
	idx.tBinaryI32 = b.AddType(wasmenc.FuncType{Params: []wasmenc.ValType{wasmenc.ValI32, wasmenc.ValI32}, Results: []wasmenc.ValType{wasmenc.ValI32}})
	idx.tNullaryI32 = b.AddType(wasmenc.FuncType{Results: []wasmenc.ValType{wasmenc.ValI32}})
	idx.tI64I32 = b.AddType(wasmenc.FuncType{Params: []wasmenc.ValType{wasmenc.ValI64}, Results: []wasmenc.ValType{wasmenc.ValI32}})
	idx.tI64I32I32 = b.AddType(wasmenc.FuncType{Params: []wasmenc.ValType{wasmenc.ValI64, wasmenc.ValI32}, Results: []wasmenc.ValType{wasmenc.ValI32}})
	idx.tF64I32 = b.AddType(wasmenc.FuncType{Params: []wasmenc.ValType{wasmenc.ValF64}, Results: []wasmenc.ValType{wasmenc.ValI32}})

	idx.AllocValue = b.ReserveFunctionIndex()
	idx.AllocString = b.ReserveFunctionIndex()
	idx.Incref = b.ReserveFunctionIndex()
	idx.Decref = b.ReserveFunctionIndex()
	idx.FreeValue = b.ReserveFunctionIndex()
	idx.FreeString = b.ReserveFunctionIndex()

	idx.Add = b.ReserveFunctionIndex()
	idx.Sub = b.ReserveFunctionIndex()
	idx.Mul = b.ReserveFunctionIndex()
	idx.Div = b.ReserveFunctionIndex()
	idx.Mod = b.ReserveFunctionIndex()
	idx.Concat = b.ReserveFunctionIndex()
	idx.UnaryNeg = b.ReserveFunctionIndex()

	idx.Equal = b.ReserveFunctionIndex()
	idx.NotEqual = b.ReserveFunctionIndex()
	idx.LessThan = b.ReserveFunctionIndex()
	idx.LessOrEqual = b.ReserveFunctionIndex()
	idx.GreaterThan = b.ReserveFunctionIndex()
	idx.GreaterOrEqual = b.ReserveFunctionIndex()

	idx.ToBool = b.ReserveFunctionIndex()
	idx.ToString = b.ReserveFunctionIndex()
	idx.IsNull = b.ReserveFunctionIndex()
	idx.Isset = b.ReserveFunctionIndex()
	idx.Empty = b.ReserveFunctionIndex()

	idx.uintToDigitsEnd = b.ReserveFunctionIndex()
	idx.intToStringObj = b.ReserveFunctionIndex()
	idx.floatToStringObj = b.ReserveFunctionIndex()

	idx.emitMemory(b)
	idx.emitGC(b)
	idx.emitFormat(b)
	idx.emitArith(b)
	idx.emitCompare(b)
	idx.emitTypePredicates(b)

	return idx
}
