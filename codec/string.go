package codec

import (
	"strings"

	"github.com/wkalt/prdemo/buffer"
	"golang.org/x/text/encoding/charmap"
)

// String is a null-terminated string field. Each wire byte is one character
// of ISO-8859-1, so every byte sequence decodes and re-encodes unchanged.
var String Field = stringField{} // nolint:gochecknoglobals

type stringField struct{}

// Decode reads bytes up to and including a zero byte. Running out of bytes
// before the terminator is not an error; the characters read so far are
// returned.
func (stringField) Decode(c *buffer.Cursor) (any, error) {
	sb := strings.Builder{}
	for {
		b, err := c.ReadByte()
		if err != nil || b == 0 {
			break
		}
		sb.WriteRune(charmap.ISO8859_1.DecodeByte(b))
	}
	return sb.String(), nil
}

// Encode appends the characters of v followed by a zero byte.
func (stringField) Encode(dst []byte, v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return dst, ValueTypeError{Want: "string", Value: v}
	}
	for _, r := range s {
		b, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok || b == 0 {
			return dst, ValueTypeError{Want: "string", Value: v}
		}
		dst = append(dst, b)
	}
	return append(dst, 0), nil
}

func (stringField) String() string {
	return "string"
}
