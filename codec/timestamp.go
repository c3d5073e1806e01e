package codec

import (
	"fmt"
	"time"

	"github.com/wkalt/prdemo/buffer"
)

// TimestampField is an integer field holding Unix epoch seconds, decoded as a
// UTC time.Time.
type TimestampField struct {
	p Primitive
}

// Timestamp returns a timestamp field stored as the integer primitive p. It
// panics if p is not an integer type.
func Timestamp(p Primitive) TimestampField {
	if !p.typ.integer() {
		panic(fmt.Sprintf("codec: timestamp over non-integer type %s", p.typ))
	}
	return TimestampField{p: p}
}

// FixedSize returns the wire width in bytes.
func (f TimestampField) FixedSize() int {
	return f.p.FixedSize()
}

// Decode reads the epoch seconds and converts them to a UTC instant.
func (f TimestampField) Decode(c *buffer.Cursor) (any, error) {
	raw, err := f.p.Decode(c)
	if err != nil {
		return nil, err
	}
	secs, ok := toInt64(raw)
	if !ok {
		return nil, fmt.Errorf("timestamp %v out of range", raw)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// Encode appends the epoch seconds of a time.Time.
func (f TimestampField) Encode(dst []byte, v any) ([]byte, error) {
	t, ok := v.(time.Time)
	if !ok {
		return dst, ValueTypeError{Want: "timestamp", Value: v}
	}
	return f.p.Encode(dst, t.Unix())
}
