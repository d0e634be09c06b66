package runtimeemit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maravilla-labs/edgephp-wasmc/internal/assembler"
	"github.com/maravilla-labs/edgephp-wasmc/internal/wasmenc"
)

func TestEmit_assignsDistinctFunctionIndices(t *testing.T) {
	b := assembler.New()
	idx := Emit(b)

	seen := map[uint32]string{}
	indices := map[string]uint32{
		"Print":          idx.Print,
		"AllocValue":     idx.AllocValue,
		"AllocString":    idx.AllocString,
		"Incref":         idx.Incref,
		"Decref":         idx.Decref,
		"FreeValue":      idx.FreeValue,
		"FreeString":     idx.FreeString,
		"Add":            idx.Add,
		"Sub":            idx.Sub,
		"Mul":            idx.Mul,
		"Div":            idx.Div,
		"Mod":            idx.Mod,
		"Concat":         idx.Concat,
		"UnaryNeg":       idx.UnaryNeg,
		"Equal":          idx.Equal,
		"NotEqual":       idx.NotEqual,
		"LessThan":       idx.LessThan,
		"LessOrEqual":    idx.LessOrEqual,
		"GreaterThan":    idx.GreaterThan,
		"GreaterOrEqual": idx.GreaterOrEqual,
		"ToBool":         idx.ToBool,
		"ToString":       idx.ToString,
		"IsNull":         idx.IsNull,
		"Isset":          idx.Isset,
		"Empty":          idx.Empty,
	}
	for name, fnIdx := range indices {
		if prev, ok := seen[fnIdx]; ok {
			t.Fatalf("function index %d reused by both %s and %s", fnIdx, prev, name)
		}
		seen[fnIdx] = name
	}
}

func TestEmit_producesWellFormedModule(t *testing.T) {
	b := assembler.New()
	Emit(b)
	out, err := b.Finalize(1)
	require.NoError(t, err)

	require.Equal(t, wasmenc.Magic[:], out[:4])
	require.Equal(t, wasmenc.Version[:], out[4:8])
	require.Greater(t, len(out), 8)
}

func TestEmit_printImportIsFirstImportedFunction(t *testing.T) {
	b := assembler.New()
	idx := Emit(b)
	require.Equal(t, uint32(0), idx.Print)
	require.Greater(t, idx.AllocValue, idx.Print)
}

func TestEmit_memoryHelpersPrecedeArithHelpers(t *testing.T) {
	// Grounded on core.rs's runtime-function ordering: memory/gc helpers
	// are reserved and filled before arithmetic so the arithmetic bodies
	// (which call alloc_value) can reference already-known indices.
	b := assembler.New()
	idx := Emit(b)
	require.Less(t, idx.AllocValue, idx.Add)
	require.Less(t, idx.AllocString, idx.Add)
	require.Less(t, idx.Incref, idx.Add)
	require.Less(t, idx.Decref, idx.Add)
}

func TestDjb2HashMatchesAllocStringPass(t *testing.T) {
	tests := []struct {
		name string
		s    string
	}{
		{"empty", ""},
		{"single char", "x"},
		{"word", "hello"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var want uint32 = 5381
			for _, c := range []byte(tc.s) {
				want = want*33 + uint32(c)
			}

			b := assembler.New()
			ref := b.AddStringObject(tc.s)
			require.Equal(t, uint32(len(tc.s)), ref.Len)

			out, err := b.Finalize(1)
			require.NoError(t, err)
			header := wasmenc.PutUint32LE(wasmenc.PutUint32LE(nil, ref.Len), want)
			require.Equal(t, append(header, tc.s...), out[len(out)-8-len(tc.s):])
		})
	}
}
