package testutils

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/klauspost/compress/zlib"
)

/*
General purpose test utilities. The byte builders produce little-endian wire
values so that tests can spell out demo bytes field by field.
*/

////////////////////////////////////////////////////////////////////////////////

// Flatten concatenates slices of the same type.
func Flatten[T any](slices ...[]T) []T {
	result := []T{}
	for _, s := range slices {
		result = append(result, s...)
	}
	return result
}

// U8b returns a byte slice containing a single uint8 value.
func U8b(v uint8) []byte {
	return []byte{v}
}

// I8b returns a byte slice containing a single int8 value.
func I8b(v int8) []byte {
	return []byte{byte(v)}
}

// U16b returns a byte slice containing a single uint16 value.
func U16b(v uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return buf
}

// I16b returns a byte slice containing a single int16 value.
func I16b(v int16) []byte {
	return U16b(uint16(v))
}

// U32b returns a byte slice containing a single uint32 value.
func U32b(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

// I32b returns a byte slice containing a single int32 value.
func I32b(v int32) []byte {
	return U32b(uint32(v))
}

func U64b(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

func F32b(v float32) []byte {
	return U32b(math.Float32bits(v))
}

// Cstr returns s followed by a zero byte.
func Cstr(s string) []byte {
	return append([]byte(s), 0)
}

// Bool returns a single byte boolean.
func Bool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// Frame returns a demo frame: a u16 length prefix, the message type code and
// the payload.
func Frame(code uint8, payload ...[]byte) []byte {
	body := append([]byte{code}, Flatten(payload...)...)
	return append(U16b(uint16(len(body))), body...)
}

// Deflate compresses data into the zlib container used for demo files.
func Deflate(data []byte) []byte {
	buf := &bytes.Buffer{}
	w := zlib.NewWriter(buf)
	if _, err := w.Write(data); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
