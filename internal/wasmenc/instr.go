package wasmenc

import "math"

// Body accumulates the raw instruction byte stream of a single function.
// It plays the role the reference implementation gave to
// Vec<Instruction<'static>> (original_source's compiler_manual_gc/*.rs):
// internal/codegen appends to it one opcode at a time, and CodeSection
// (called from internal/assembler) wraps the finished stream with a locals
// vector and a trailing "end" opcode in the function's Code-section entry.
type Body struct {
	buf []byte
}

// NewBody returns an empty instruction stream.
func NewBody() *Body { return &Body{} }

// Bytes returns the accumulated instruction bytes (without a trailing end
// opcode; CodeSection appends that once per function).
func (b *Body) Bytes() []byte { return b.buf }

// MemArg is the alignment/offset pair every load/store instruction carries.
// Align is the log2 of the natural alignment (2 for 4-byte accesses, 3 for
// 8-byte accesses, 0 for byte accesses), matching wasm_encoder's MemArg.
type MemArg struct {
	Offset uint32
	Align  uint32
}

func (b *Body) memArg(opcode byte, m MemArg) {
	b.buf = append(b.buf, opcode)
	b.buf = PutUvarint(b.buf, uint64(m.Align))
	b.buf = PutUvarint(b.buf, uint64(m.Offset))
}

// Control flow.

func (b *Body) Block() { b.buf = append(b.buf, 0x02, 0x40) }
func (b *Body) Loop()  { b.buf = append(b.buf, 0x03, 0x40) }
func (b *Body) If()    { b.buf = append(b.buf, 0x04, 0x40) }

// IfResult opens an if/else whose arms each leave one value of type t on
// the stack (blocktype = t instead of the empty blocktype If emits).
func (b *Body) IfResult(t ValType) { b.buf = append(b.buf, 0x04, byte(t)) }
func (b *Body) Else()              { b.buf = append(b.buf, 0x05) }
func (b *Body) End()           { b.buf = append(b.buf, 0x0B) }
func (b *Body) Br(depth uint32) {
	b.buf = append(b.buf, 0x0C)
	b.buf = PutUvarint(b.buf, uint64(depth))
}
func (b *Body) BrIf(depth uint32) {
	b.buf = append(b.buf, 0x0D)
	b.buf = PutUvarint(b.buf, uint64(depth))
}
func (b *Body) Return() { b.buf = append(b.buf, 0x0F) }
func (b *Body) Call(funcIdx uint32) {
	b.buf = append(b.buf, 0x10)
	b.buf = PutUvarint(b.buf, uint64(funcIdx))
}
func (b *Body) Drop() { b.buf = append(b.buf, 0x1A) }

// Locals and globals.

func (b *Body) LocalGet(idx uint32) {
	b.buf = append(b.buf, 0x20)
	b.buf = PutUvarint(b.buf, uint64(idx))
}
func (b *Body) LocalSet(idx uint32) {
	b.buf = append(b.buf, 0x21)
	b.buf = PutUvarint(b.buf, uint64(idx))
}
func (b *Body) LocalTee(idx uint32) {
	b.buf = append(b.buf, 0x22)
	b.buf = PutUvarint(b.buf, uint64(idx))
}

// Memory access. Offsets/alignments follow spec.md §3's layout: tag at
// offset 0 (align 0, byte access), int/float/bool payload at offset 4
// (align 3, 8-byte access for i64/f64), string pointer at offset 8 (align
// 2, 4-byte access).

func (b *Body) I32Load(m MemArg)   { b.memArg(0x28, m) }
func (b *Body) I64Load(m MemArg)   { b.memArg(0x29, m) }
func (b *Body) F64Load(m MemArg)   { b.memArg(0x2B, m) }
func (b *Body) I32Load8U(m MemArg) { b.memArg(0x2D, m) }
func (b *Body) I32Store(m MemArg)  { b.memArg(0x36, m) }
func (b *Body) I64Store(m MemArg)  { b.memArg(0x37, m) }
func (b *Body) F64Store(m MemArg)  { b.memArg(0x39, m) }
func (b *Body) I32Store8(m MemArg) { b.memArg(0x3A, m) }

// Constants.

func (b *Body) I32Const(v int32) {
	b.buf = append(b.buf, 0x41)
	b.buf = PutVarint(b.buf, int64(v))
}
func (b *Body) I64Const(v int64) {
	b.buf = append(b.buf, 0x42)
	b.buf = PutVarint(b.buf, v)
}
func (b *Body) F64Const(v float64) {
	b.buf = append(b.buf, 0x44)
	bits := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		b.buf = append(b.buf, byte(bits>>(8*i)))
	}
}

// Comparisons and arithmetic. Named to match the WebAssembly spec's
// mnemonic, not the Rust wasm_encoder enum variant names, since Go callers
// (internal/runtimeemit, internal/codegen) read more naturally that way.

func (b *Body) I32Eqz() { b.buf = append(b.buf, 0x45) }
func (b *Body) I32Eq()  { b.buf = append(b.buf, 0x46) }
func (b *Body) I32Ne()  { b.buf = append(b.buf, 0x47) }
func (b *Body) I32LtU() { b.buf = append(b.buf, 0x49) }
func (b *Body) I32GtU() { b.buf = append(b.buf, 0x4B) }
func (b *Body) I32LeU() { b.buf = append(b.buf, 0x4D) }
func (b *Body) I32GeU() { b.buf = append(b.buf, 0x4F) }

func (b *Body) I64Eqz() { b.buf = append(b.buf, 0x50) }
func (b *Body) I64Eq()  { b.buf = append(b.buf, 0x51) }
func (b *Body) I64Ne()  { b.buf = append(b.buf, 0x52) }
func (b *Body) I64LtS() { b.buf = append(b.buf, 0x53) }
func (b *Body) I64GtS() { b.buf = append(b.buf, 0x55) }
func (b *Body) I64LeS() { b.buf = append(b.buf, 0x57) }
func (b *Body) I64GeS() { b.buf = append(b.buf, 0x59) }

func (b *Body) F64Eq() { b.buf = append(b.buf, 0x61) }
func (b *Body) F64Ne() { b.buf = append(b.buf, 0x62) }
func (b *Body) F64Lt() { b.buf = append(b.buf, 0x63) }
func (b *Body) F64Gt() { b.buf = append(b.buf, 0x64) }
func (b *Body) F64Le() { b.buf = append(b.buf, 0x65) }
func (b *Body) F64Ge() { b.buf = append(b.buf, 0x66) }

func (b *Body) I32Add() { b.buf = append(b.buf, 0x6A) }
func (b *Body) I32Sub() { b.buf = append(b.buf, 0x6B) }
func (b *Body) I32Mul() { b.buf = append(b.buf, 0x6C) }
func (b *Body) I32And()  { b.buf = append(b.buf, 0x71) }
func (b *Body) I32Or()   { b.buf = append(b.buf, 0x72) }
func (b *Body) I32Shl()  { b.buf = append(b.buf, 0x74) }
func (b *Body) I32ShrU() { b.buf = append(b.buf, 0x76) }

func (b *Body) I64Add()  { b.buf = append(b.buf, 0x7C) }
func (b *Body) I64Sub()  { b.buf = append(b.buf, 0x7D) }
func (b *Body) I64Mul()  { b.buf = append(b.buf, 0x7E) }
func (b *Body) I64DivS() { b.buf = append(b.buf, 0x7F) }
func (b *Body) I64RemS() { b.buf = append(b.buf, 0x81) }

func (b *Body) F64Neg() { b.buf = append(b.buf, 0x9A) }
func (b *Body) F64Add() { b.buf = append(b.buf, 0xA0) }
func (b *Body) F64Sub() { b.buf = append(b.buf, 0xA1) }
func (b *Body) F64Mul() { b.buf = append(b.buf, 0xA2) }
func (b *Body) F64Div() { b.buf = append(b.buf, 0xA3) }

// Conversions, needed to bridge the tagged Int(i64)/Float(f64) payload
// representation during coercion (spec.md §4.2's add/sub/mul/div table).

func (b *Body) I32WrapI64()      { b.buf = append(b.buf, 0xA7) }
func (b *Body) I64ExtendI32S()   { b.buf = append(b.buf, 0xAC) }
func (b *Body) F64ConvertI64S()  { b.buf = append(b.buf, 0xB9) }
func (b *Body) I64TruncF64S()    { b.buf = append(b.buf, 0xB0) }
