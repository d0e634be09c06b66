package assembler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maravilla-labs/edgephp-wasmc/internal/wasmenc"
)

func TestBuilder_AddType_dedups(t *testing.T) {
	b := New()
	i1 := b.AddType(wasmenc.FuncType{Params: []wasmenc.ValType{wasmenc.ValI32}})
	i2 := b.AddType(wasmenc.FuncType{Params: []wasmenc.ValType{wasmenc.ValI32}})
	i3 := b.AddType(wasmenc.FuncType{Params: []wasmenc.ValType{wasmenc.ValI64}})
	require.Equal(t, i1, i2)
	require.NotEqual(t, i1, i3)
}

func TestBuilder_reserveThenSet_outOfOrder(t *testing.T) {
	b := New()
	voidType := b.AddType(wasmenc.FuncType{})

	// The entry point's index is reserved before the helper it calls has
	// been compiled; the helper is filled first and the entry point last.
	mainIdx := b.ReserveFunctionIndex()
	helperIdx := b.AddFunction(voidType, nil, wasmenc.NewBody())
	require.Greater(t, helperIdx, mainIdx)

	mainBody := wasmenc.NewBody()
	mainBody.Call(helperIdx)
	b.SetFunctionAt(mainIdx, voidType, nil, mainBody)

	out, err := b.Finalize(1)
	require.NoError(t, err)
	require.Equal(t, wasmenc.Magic[:], out[:4])
	require.Equal(t, wasmenc.Version[:], out[4:8])
}

func TestBuilder_SetFunctionAt_unreservedIndexPanics(t *testing.T) {
	b := New()
	voidType := b.AddType(wasmenc.FuncType{})
	require.Panics(t, func() {
		b.SetFunctionAt(7, voidType, nil, wasmenc.NewBody())
	})
}

func TestBuilder_Finalize_unfilledReservationIsError(t *testing.T) {
	b := New()
	b.ReserveFunctionIndex()
	_, err := b.Finalize(1)
	require.Error(t, err)
}

func TestBuilder_AddStringObject_hashMatchesDJB2(t *testing.T) {
	b := New()
	ref := b.AddStringObject("hi")
	require.Equal(t, uint32(2), ref.Len)

	var want uint32 = 5381
	for _, c := range []byte("hi") {
		want = want*33 + uint32(c)
	}
	require.Equal(t, want, djb2([]byte("hi")))
}

func TestBuilder_AddString_alignsTo4Bytes(t *testing.T) {
	b := New()
	first := b.AddString("abc") // 3 bytes, rounds next offset up to +4
	second := b.AddString("x")
	require.Equal(t, uint32(3), first.Len)
	require.Equal(t, first.Start+4, second.Start)
}

// Every interned literal must land in the single data segment at 0x10000,
// with no two literals overlapping.
func TestBuilder_coalescedData_singleSegmentAtRegionStart(t *testing.T) {
	b := New()
	a := b.AddString("alpha")
	c := b.AddStringObject("beta")

	segments := b.coalescedData()
	require.Len(t, segments, 1)
	require.Equal(t, uint32(runtimeDataStart), segments[0].Offset)

	require.GreaterOrEqual(t, c.Start, a.Start+a.Len)
	require.Equal(t, "alpha", string(segments[0].Bytes[a.Start-runtimeDataStart:][:a.Len]))
	require.Equal(t, "beta", string(segments[0].Bytes[c.Start-runtimeDataStart+8:][:c.Len]))
}

func TestBuilder_Finalize_omitsEmptySections(t *testing.T) {
	b := New()
	out, err := b.Finalize(1)
	require.NoError(t, err)
	// magic(4) + version(4) + memory section only (no types/imports/etc.)
	require.Equal(t, wasmenc.MemorySection(wasmenc.MemoryLimits{Min: 1}), out[8:])
}
