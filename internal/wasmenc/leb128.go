package wasmenc

// LEB128 encoders for the WebAssembly binary format
// (https://webassembly.github.io/spec/core/binary/values.html#binary-int).
// Sizes, offsets, and vector lengths use unsigned LEB128; i32.const/i64.const
// immediates use signed LEB128.

// PutUvarint appends the unsigned LEB128 encoding of v to buf.
func PutUvarint(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			return buf
		}
	}
}

// PutVarint appends the signed LEB128 encoding of v to buf.
func PutVarint(buf []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			buf = append(buf, b)
			return buf
		}
		buf = append(buf, b|0x80)
	}
}

// PutUint32LE appends v to buf as 4 raw little-endian bytes (used for data
// segment payloads such as the string-heap length/hash header, and for the
// sizeof(u32) constants baked into interned-literal bookkeeping).
func PutUint32LE(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
