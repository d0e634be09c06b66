package wasmenc

// Magic and version preamble every binary module starts with
// (https://webassembly.github.io/spec/core/binary/modules.html#binary-module).
var (
	Magic   = [4]byte{0x00, 0x61, 0x73, 0x6D} // "\0asm"
	Version = [4]byte{0x01, 0x00, 0x00, 0x00}
)

// Module holds one already-encoded byte slice per section, in the order
// internal/assembler built them. Assemble concatenates them in the
// canonical section order; a nil section is simply omitted, matching how
// the reference's wasm_encoder::Module skips empty sections.
type Module struct {
	Types     []byte
	Imports   []byte
	Functions []byte
	Memory    []byte
	Globals   []byte
	Exports   []byte
	Code      []byte
	Data      []byte
}

// Assemble concatenates the preamble and every present section, in the
// fixed order the binary format requires: Type, Import, Function, Memory,
// Global, Export, Code, Data.
func (m Module) Assemble() []byte {
	out := make([]byte, 0, 4096)
	out = append(out, Magic[:]...)
	out = append(out, Version[:]...)
	for _, sec := range [][]byte{m.Types, m.Imports, m.Functions, m.Memory, m.Globals, m.Exports, m.Code, m.Data} {
		out = append(out, sec...)
	}
	return out
}
