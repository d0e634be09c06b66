package wasmenc

// ValType is a WebAssembly value type, encoded as its single-byte binary
// opcode. The constants mirror teacher's api.ValueType (api/wasm.go) byte
// for byte, since both encode the same MVP numeric types.
type ValType byte

const (
	ValI32 ValType = 0x7f
	ValI64 ValType = 0x7e
	ValF32 ValType = 0x7d
	ValF64 ValType = 0x7c
)

// FuncType is a function signature: zero or more parameter types mapping
// to zero or more result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// encode appends the binary encoding of a FuncType (the 0x60 functype
// tag, then the params vector, then the results vector).
func (t FuncType) encode(buf []byte) []byte {
	buf = append(buf, 0x60)
	buf = PutUvarint(buf, uint64(len(t.Params)))
	for _, p := range t.Params {
		buf = append(buf, byte(p))
	}
	buf = PutUvarint(buf, uint64(len(t.Results)))
	for _, r := range t.Results {
		buf = append(buf, byte(r))
	}
	return buf
}

// Equal reports whether two FuncTypes have identical params and results,
// used by internal/assembler to dedup type-section entries.
func (t FuncType) Equal(o FuncType) bool {
	if len(t.Params) != len(o.Params) || len(t.Results) != len(o.Results) {
		return false
	}
	for i, p := range t.Params {
		if p != o.Params[i] {
			return false
		}
	}
	for i, r := range t.Results {
		if r != o.Results[i] {
			return false
		}
	}
	return true
}

// ExportKind is the single-byte tag distinguishing export/import entity
// kinds in the binary format.
type ExportKind byte

const (
	ExportFunc   ExportKind = 0x00
	ExportTable  ExportKind = 0x01
	ExportMemory ExportKind = 0x02
	ExportGlobal ExportKind = 0x03
)
