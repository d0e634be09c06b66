package wasmenc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModule_Assemble_empty(t *testing.T) {
	mod := Module{}
	expected := append(append([]byte{}, Magic[:]...), Version[:]...)
	require.Equal(t, expected, mod.Assemble())
}

func TestTypeSection(t *testing.T) {
	types := []FuncType{
		{},
		{Params: []ValType{ValI32, ValI32}, Results: []ValType{ValI32}},
	}
	got := TypeSection(types)
	expected := []byte{
		secType, 0x0a, // section id, byte length
		0x02,             // 2 types
		0x60, 0x00, 0x00, // func, no params, no results
		0x60, 0x02, byte(ValI32), byte(ValI32), 0x01, byte(ValI32),
	}
	require.Equal(t, expected, got)
}

func TestFuncType_Equal(t *testing.T) {
	a := FuncType{Params: []ValType{ValI32}, Results: []ValType{ValI64}}
	b := FuncType{Params: []ValType{ValI32}, Results: []ValType{ValI64}}
	c := FuncType{Params: []ValType{ValI32, ValI32}, Results: []ValType{ValI64}}
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestMemorySection_noMax(t *testing.T) {
	got := MemorySection(MemoryLimits{Min: 64})
	expected := []byte{secMemory, 0x03, 0x01, 0x00, 0x40}
	require.Equal(t, expected, got)
}

func TestDataSection_activeSegment(t *testing.T) {
	got := DataSection([]Data{{Offset: 0x1000, Bytes: []byte("hi")}})
	expected := []byte{
		secData, 0x09,
		0x01,             // 1 segment
		0x00,             // active, memory 0
		0x41, 0x80, 0x20, // i32.const 0x1000
		0x0B,             // end
		0x02, 'h', 'i', // length-prefixed bytes
	}
	require.Equal(t, expected, got)
}

func TestCodeSection_localsAndBody(t *testing.T) {
	body := NewBody()
	body.LocalGet(0)
	body.I32Const(5)
	body.I32Add()

	got := CodeSection([]Func{{Locals: []Local{{Count: 1, Type: ValI32}}, Body: body}})

	innerBody := []byte{
		0x01, 0x01, byte(ValI32), // 1 local decl group: 1 x i32
		0x20, 0x00, // local.get 0
		0x41, 0x05, // i32.const 5
		0x6A,       // i32.add
		0x0B,       // end
	}
	expected := append([]byte{secCode, byte(len(innerBody) + 2), 0x01, byte(len(innerBody))}, innerBody...)
	require.Equal(t, expected, got)
}
