package codec

import (
	"errors"

	"github.com/wkalt/prdemo/buffer"
)

/*
Package codec is a declarative binary codec. A Schema is an ordered list of
named fields; decoding walks the fields in order against a buffer.Cursor and
produces a Record, encoding walks the same list and appends bytes. Fields are
primitives (fixed-width numbers, bools), null-terminated strings, timestamps,
bitflag groups, nested Schemas, and Lists of Schemas.

Decoding is tolerant of truncated input. When a field runs out of bytes the
record decoded so far is returned without error; callers detect incomplete
records by inspecting which fields are present. Any other failure is returned.
*/

////////////////////////////////////////////////////////////////////////////////

// Record is a decoded composite value, keyed by field name.
type Record map[string]any

// Field is a single wire element. Decode consumes exactly the bytes of one
// value from the cursor, or fails with buffer.ErrBufferUnderrun. Encode
// appends the wire form of v to dst.
type Field interface {
	Decode(c *buffer.Cursor) (any, error)
	Encode(dst []byte, v any) ([]byte, error)
}

// FixedSizer is implemented by fields with a constant wire size.
type FixedSizer interface {
	FixedSize() int
}

// Unmarshal decodes a top-level value from c. Running out of bytes is treated
// as the end of the data: Schemas return the partial record and Lists return
// the elements decoded so far.
func Unmarshal(f Field, c *buffer.Cursor) (any, error) {
	switch f := f.(type) {
	case *Schema:
		return f.DecodeRecord(c)
	case *List:
		return f.DecodeList(c)
	default:
		return f.Decode(c)
	}
}

// Marshal encodes a top-level value.
func Marshal(f Field, v any) ([]byte, error) {
	return f.Encode(nil, v)
}

func isUnderrun(err error) bool {
	return errors.Is(err, buffer.ErrBufferUnderrun)
}

func asRecord(v any) (Record, bool) {
	switch v := v.(type) {
	case Record:
		return v, true
	case map[string]any:
		return Record(v), true
	default:
		return nil, false
	}
}
