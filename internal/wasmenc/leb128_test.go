package wasmenc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutUvarint(t *testing.T) {
	tests := []struct {
		name     string
		input    uint64
		expected []byte
	}{
		{name: "zero", input: 0, expected: []byte{0x00}},
		{name: "one byte", input: 0x7f, expected: []byte{0x7f}},
		{name: "two bytes", input: 0x80, expected: []byte{0x80, 0x01}},
		{name: "three bytes", input: 0x4000, expected: []byte{0x80, 0x80, 0x01}},
		{name: "624485", input: 624485, expected: []byte{0xe5, 0x8e, 0x26}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, PutUvarint(nil, tc.input))
		})
	}
}

func TestPutVarint(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected []byte
	}{
		{name: "zero", input: 0, expected: []byte{0x00}},
		{name: "positive small", input: 2, expected: []byte{0x02}},
		{name: "negative small", input: -2, expected: []byte{0x7e}},
		{name: "negative 624485", input: -624485, expected: []byte{0x9b, 0xf1, 0x59}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, PutVarint(nil, tc.input))
		})
	}
}

func TestPutUint32LE(t *testing.T) {
	require.Equal(t, []byte{0x2a, 0x00, 0x00, 0x00}, PutUint32LE(nil, 42))
}
