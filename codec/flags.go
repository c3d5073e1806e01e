package codec

import (
	"fmt"

	"github.com/wkalt/prdemo/buffer"
)

/*
A bitflag group is an unsigned integer field whose bits carry names. Besides
being a value in its own right, the decoded set gates later fields of the same
record: a field whose flag name maps to false is not on the wire.
*/

////////////////////////////////////////////////////////////////////////////////

// Flag names a bit value within a FlagsField.
type Flag struct {
	Name string
	Bit  uint64
}

// FlagSet is the decoded form of a FlagsField: every defined flag name mapped
// to whether its bits are set.
type FlagSet map[string]bool

// FlagsField is a bitflag group over an unsigned integer primitive.
type FlagsField struct {
	p     Primitive
	flags []Flag
}

// Flags returns a bitflag group stored as p. It panics if p is not an
// unsigned integer type or if a bit does not fit in it.
func Flags(p Primitive, flags ...Flag) *FlagsField {
	switch p.typ {
	case UINT8, UINT16, UINT32, UINT64:
	default:
		panic(fmt.Sprintf("codec: flags over non-unsigned type %s", p.typ))
	}
	for _, f := range flags {
		if p.FixedSize() < 8 && f.Bit >= 1<<(8*p.FixedSize()) {
			panic(fmt.Sprintf("codec: flag %s (%d) does not fit in %s", f.Name, f.Bit, p.typ))
		}
	}
	return &FlagsField{p: p, flags: flags}
}

// FixedSize returns the wire width in bytes.
func (f *FlagsField) FixedSize() int {
	return f.p.FixedSize()
}

// Flags returns the defined flags in declaration order.
func (f *FlagsField) Flags() []Flag {
	out := make([]Flag, len(f.flags))
	copy(out, f.flags)
	return out
}

// Decode reads the integer and returns a FlagSet with an entry for every
// defined flag.
func (f *FlagsField) Decode(c *buffer.Cursor) (any, error) {
	raw, err := f.p.Decode(c)
	if err != nil {
		return nil, err
	}
	bits, _ := toUint64(raw)
	return f.Unpack(bits), nil
}

// Unpack converts raw bits to a FlagSet.
func (f *FlagsField) Unpack(bits uint64) FlagSet {
	set := make(FlagSet, len(f.flags))
	for _, flag := range f.flags {
		set[flag.Name] = bits&flag.Bit == flag.Bit
	}
	return set
}

// Pack sums the bits of every flag set to true.
func (f *FlagsField) Pack(set FlagSet) (uint64, error) {
	var bits uint64
	for name, on := range set {
		flag, ok := f.lookup(name)
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", name)
		}
		if on {
			bits |= flag.Bit
		}
	}
	return bits, nil
}

// Encode appends the integer form of a FlagSet or map[string]bool.
func (f *FlagsField) Encode(dst []byte, v any) ([]byte, error) {
	set, ok := asFlagSet(v)
	if !ok {
		return dst, ValueTypeError{Want: "flags", Value: v}
	}
	bits, err := f.Pack(set)
	if err != nil {
		return dst, err
	}
	return f.p.Encode(dst, bits)
}

// Synthesize derives a FlagSet from a record: a flag is set when the record
// holds a non-nil value under the flag's name. Schemas also set a flag for
// present fields bound with WithFlag.
func (f *FlagsField) Synthesize(rec Record) FlagSet {
	set := make(FlagSet, len(f.flags))
	for _, flag := range f.flags {
		v, ok := rec[flag.Name]
		set[flag.Name] = ok && v != nil
	}
	return set
}

func (f *FlagsField) lookup(name string) (Flag, bool) {
	for _, flag := range f.flags {
		if flag.Name == name {
			return flag, true
		}
	}
	return Flag{}, false
}

func asFlagSet(v any) (FlagSet, bool) {
	switch v := v.(type) {
	case FlagSet:
		return v, true
	case map[string]bool:
		return FlagSet(v), true
	default:
		return nil, false
	}
}
