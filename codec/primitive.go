package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wkalt/prdemo/buffer"
)

// PrimitiveType identifies the numeric interpretation of a fixed-width field.
type PrimitiveType int

const (
	INT8 PrimitiveType = iota + 1
	INT16
	INT32
	INT64
	UINT8
	UINT16
	UINT32
	UINT64
	FLOAT32
	FLOAT64
	BOOL
)

var primitiveNames = map[PrimitiveType]string{ // nolint:gochecknoglobals
	INT8:    "int8",
	INT16:   "int16",
	INT32:   "int32",
	INT64:   "int64",
	UINT8:   "uint8",
	UINT16:  "uint16",
	UINT32:  "uint32",
	UINT64:  "uint64",
	FLOAT32: "float32",
	FLOAT64: "float64",
	BOOL:    "bool",
}

func (t PrimitiveType) String() string {
	if name, ok := primitiveNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PrimitiveType(%d)", int(t))
}

// Size returns the wire width of the type in bytes.
func (t PrimitiveType) Size() int {
	switch t {
	case INT8, UINT8, BOOL:
		return 1
	case INT16, UINT16:
		return 2
	case INT32, UINT32, FLOAT32:
		return 4
	case INT64, UINT64, FLOAT64:
		return 8
	default:
		return 0
	}
}

func (t PrimitiveType) integer() bool {
	switch t {
	case INT8, INT16, INT32, INT64, UINT8, UINT16, UINT32, UINT64:
		return true
	default:
		return false
	}
}

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Primitive is a fixed-width numeric or boolean field with a byte order.
type Primitive struct {
	typ   PrimitiveType
	order byteOrder
}

// Little-endian primitive fields.
var (
	Int8    = Primitive{INT8, binary.LittleEndian}    // nolint:gochecknoglobals
	Int16   = Primitive{INT16, binary.LittleEndian}   // nolint:gochecknoglobals
	Int32   = Primitive{INT32, binary.LittleEndian}   // nolint:gochecknoglobals
	Int64   = Primitive{INT64, binary.LittleEndian}   // nolint:gochecknoglobals
	Uint8   = Primitive{UINT8, binary.LittleEndian}   // nolint:gochecknoglobals
	Uint16  = Primitive{UINT16, binary.LittleEndian}  // nolint:gochecknoglobals
	Uint32  = Primitive{UINT32, binary.LittleEndian}  // nolint:gochecknoglobals
	Uint64  = Primitive{UINT64, binary.LittleEndian}  // nolint:gochecknoglobals
	Float32 = Primitive{FLOAT32, binary.LittleEndian} // nolint:gochecknoglobals
	Float64 = Primitive{FLOAT64, binary.LittleEndian} // nolint:gochecknoglobals
	Bool    = Primitive{BOOL, binary.LittleEndian}    // nolint:gochecknoglobals
)

// BigEndian returns a copy of p that reads and writes big-endian.
func (p Primitive) BigEndian() Primitive {
	return Primitive{typ: p.typ, order: binary.BigEndian}
}

// Type returns the primitive type.
func (p Primitive) Type() PrimitiveType {
	return p.typ
}

// FixedSize returns the wire width in bytes.
func (p Primitive) FixedSize() int {
	return p.typ.Size()
}

func (p Primitive) String() string {
	if p.order == binary.BigEndian {
		return p.typ.String() + "be"
	}
	return p.typ.String()
}

// Decode reads one value. The result has the exact Go type named by the
// primitive type.
func (p Primitive) Decode(c *buffer.Cursor) (any, error) {
	data, err := c.Read(p.FixedSize())
	if err != nil {
		return nil, err
	}
	switch p.typ {
	case INT8:
		return int8(data[0]), nil
	case UINT8:
		return data[0], nil
	case BOOL:
		return data[0] != 0, nil
	case INT16:
		return int16(p.order.Uint16(data)), nil
	case UINT16:
		return p.order.Uint16(data), nil
	case INT32:
		return int32(p.order.Uint32(data)), nil
	case UINT32:
		return p.order.Uint32(data), nil
	case INT64:
		return int64(p.order.Uint64(data)), nil
	case UINT64:
		return p.order.Uint64(data), nil
	case FLOAT32:
		return math.Float32frombits(p.order.Uint32(data)), nil
	case FLOAT64:
		return math.Float64frombits(p.order.Uint64(data)), nil
	default:
		return nil, fmt.Errorf("unsupported primitive type %s", p.typ)
	}
}

// Encode appends v. Any Go integer or float whose value is representable in
// the wire type is accepted.
func (p Primitive) Encode(dst []byte, v any) ([]byte, error) {
	switch p.typ {
	case BOOL:
		b, ok := v.(bool)
		if !ok {
			return dst, ValueTypeError{Want: p.String(), Value: v}
		}
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case INT8, INT16, INT32, INT64:
		x, ok := toInt64(v)
		bits := 8 * p.FixedSize()
		if !ok || bits < 64 && (x < -(1<<(bits-1)) || x >= 1<<(bits-1)) {
			return dst, ValueTypeError{Want: p.String(), Value: v}
		}
		return p.appendUint(dst, uint64(x)), nil
	case UINT8, UINT16, UINT32, UINT64:
		x, ok := toUint64(v)
		bits := 8 * p.FixedSize()
		if !ok || bits < 64 && x >= 1<<bits {
			return dst, ValueTypeError{Want: p.String(), Value: v}
		}
		return p.appendUint(dst, x), nil
	case FLOAT32:
		f, ok := toFloat64(v)
		if !ok {
			return dst, ValueTypeError{Want: p.String(), Value: v}
		}
		return p.order.AppendUint32(dst, math.Float32bits(float32(f))), nil
	case FLOAT64:
		f, ok := toFloat64(v)
		if !ok {
			return dst, ValueTypeError{Want: p.String(), Value: v}
		}
		return p.order.AppendUint64(dst, math.Float64bits(f)), nil
	default:
		return dst, fmt.Errorf("unsupported primitive type %s", p.typ)
	}
}

func (p Primitive) appendUint(dst []byte, x uint64) []byte {
	switch p.FixedSize() {
	case 1:
		return append(dst, byte(x))
	case 2:
		return p.order.AppendUint16(dst, uint16(x))
	case 4:
		return p.order.AppendUint32(dst, uint32(x))
	default:
		return p.order.AppendUint64(dst, x)
	}
}

func toInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), uint64(v) <= math.MaxInt64
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	default:
		return 0, false
	}
}

func toUint64(v any) (uint64, bool) {
	switch v := v.(type) {
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	default:
		x, ok := toInt64(v)
		return uint64(x), ok && x >= 0
	}
}

func toFloat64(v any) (float64, bool) {
	switch v := v.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		x, ok := toInt64(v)
		return float64(x), ok
	}
}
