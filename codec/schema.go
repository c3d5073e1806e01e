package codec

import (
	"errors"
	"fmt"

	"github.com/wkalt/prdemo/buffer"
)

/*
A Schema is assembled once, at definition time, from an ordered list of
members. Declaration order is wire order. Extend builds a schema on top of a
base: inherited fields come first, a re-declared name replaces the inherited
field in place, and new names are appended.

Decoding a record:
  - a field gated off by the most recent bitflag group in the record is
    skipped and consumes nothing;
  - running out of bytes stops the record, and what was decoded is returned;
  - a validator may discard a field with ErrSkipField, rolling the cursor back
    to where the field started;
  - nested schemas decode against the same cursor.

Encoding mirrors this. A field with a validator may be absent from the record
being encoded, since decoding may have discarded it.
*/

////////////////////////////////////////////////////////////////////////////////

// Validator inspects a freshly decoded value along with the fields decoded
// before it. Returning ErrSkipField discards the field; any other error fails
// the decode.
type Validator func(value any, rec Record) error

// Descriptor is a field bound to a name within a schema.
type Descriptor struct {
	name  string
	flag  string
	field Field
}

// Name returns the field name.
func (d Descriptor) Name() string {
	return d.name
}

// Flag returns the name looked up in the record's bitflag group to decide
// whether the field is present. It defaults to the field name.
func (d Descriptor) Flag() string {
	return d.flag
}

// Field returns the wire field.
func (d Descriptor) Field() Field {
	return d.field
}

// Schema is an ordered composite record definition.
type Schema struct {
	name       string
	fields     []Descriptor
	validators map[string]Validator
}

type builder struct {
	schema   *Schema
	declared map[string]bool
}

// Member declares part of a schema. See Bind and Validate.
type Member func(b *builder)

// BindOption modifies a bound field.
type BindOption func(d *Descriptor)

// WithFlag gates the field on a flag name other than its own name.
func WithFlag(flag string) BindOption {
	return func(d *Descriptor) {
		d.flag = flag
	}
}

// Bind declares a named field.
func Bind(name string, field Field, opts ...BindOption) Member {
	return func(b *builder) {
		if b.declared[name] {
			panic(fmt.Sprintf("codec: field %s declared twice in %s", name, b.schema.name))
		}
		b.declared[name] = true
		d := Descriptor{name: name, flag: name, field: field}
		for _, opt := range opts {
			opt(&d)
		}
		for i, existing := range b.schema.fields {
			if existing.name == name {
				b.schema.fields[i] = d
				return
			}
		}
		b.schema.fields = append(b.schema.fields, d)
	}
}

// Validate attaches a validator to a named field.
func Validate(name string, fn Validator) Member {
	return func(b *builder) {
		b.schema.validators[name] = fn
	}
}

// NewSchema defines a schema from members in declaration order. It panics on
// a malformed definition.
func NewSchema(name string, members ...Member) *Schema {
	return Extend(nil, name, members...)
}

// Extend defines a schema that inherits the fields and validators of base.
func Extend(base *Schema, name string, members ...Member) *Schema {
	s := &Schema{name: name, validators: make(map[string]Validator)}
	if base != nil {
		s.fields = append(s.fields, base.fields...)
		for k, v := range base.validators {
			s.validators[k] = v
		}
	}
	b := &builder{schema: s, declared: make(map[string]bool)}
	for _, m := range members {
		m(b)
	}
	for fieldName := range s.validators {
		if _, ok := s.lookup(fieldName); !ok {
			panic(fmt.Sprintf("codec: validator for unknown field %s in %s", fieldName, name))
		}
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// Fields returns the bound fields in wire order.
func (s *Schema) Fields() []Descriptor {
	out := make([]Descriptor, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Schema) lookup(name string) (Descriptor, bool) {
	for _, d := range s.fields {
		if d.name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

func (s *Schema) String() string {
	return s.name
}

// DecodeRecord decodes one record. Running out of bytes is not an error: the
// fields decoded up to that point are returned.
func (s *Schema) DecodeRecord(c *buffer.Cursor) (Record, error) {
	rec, err := s.decode(c)
	if err != nil && !isUnderrun(err) {
		return rec, err
	}
	return rec, nil
}

// Decode implements Field for nested use. If the record was cut short by
// underrun, the partial record is returned together with the underrun error
// so that the enclosing record stops too. A record with no fields at all is
// returned as nil.
func (s *Schema) Decode(c *buffer.Cursor) (any, error) {
	rec, err := s.decode(c)
	if err != nil && len(rec) == 0 {
		return nil, err
	}
	return rec, err
}

func (s *Schema) decode(c *buffer.Cursor) (Record, error) {
	rec := make(Record, len(s.fields))
	var flags FlagSet
	for _, d := range s.fields {
		if on, gated := flags[d.flag]; gated && !on {
			continue
		}
		start := c.Pos()
		value, err := d.field.Decode(c)
		if err != nil {
			if isUnderrun(err) {
				if partial, ok := value.(Record); ok && len(partial) > 0 {
					rec[d.name] = partial
				}
				return rec, err
			}
			return rec, fmt.Errorf("failed to decode %s.%s: %w", s.name, d.name, err)
		}
		if validate, ok := s.validators[d.name]; ok {
			if err := validate(value, rec); err != nil {
				if errors.Is(err, ErrSkipField) {
					c.Rewind(start)
					continue
				}
				return rec, fmt.Errorf("invalid %s.%s: %w", s.name, d.name, err)
			}
		}
		if set, ok := value.(FlagSet); ok {
			flags = set
		}
		rec[d.name] = value
	}
	return rec, nil
}

// EncodeRecord encodes one record.
func (s *Schema) EncodeRecord(rec Record) ([]byte, error) {
	return s.encode(nil, rec)
}

// Encode implements Field. v must be a Record or map[string]any.
func (s *Schema) Encode(dst []byte, v any) ([]byte, error) {
	rec, ok := asRecord(v)
	if !ok {
		return dst, ValueTypeError{Want: s.name, Value: v}
	}
	return s.encode(dst, rec)
}

func (s *Schema) encode(dst []byte, rec Record) ([]byte, error) {
	var flags FlagSet
	for _, d := range s.fields {
		if on, gated := flags[d.flag]; gated && !on {
			continue
		}
		value, present := rec[d.name]
		if group, ok := d.field.(*FlagsField); ok {
			set := s.synthesize(group, rec)
			if present {
				if set, ok = asFlagSet(value); !ok {
					return dst, fmt.Errorf("failed to encode %s.%s: %w", s.name, d.name, ValueTypeError{Want: "flags", Value: value})
				}
			}
			var err error
			if dst, err = group.Encode(dst, set); err != nil {
				return dst, fmt.Errorf("failed to encode %s.%s: %w", s.name, d.name, err)
			}
			flags = set
			continue
		}
		if !present {
			if _, optional := s.validators[d.name]; optional {
				continue
			}
			return dst, MissingFieldError{Schema: s.name, Field: d.name}
		}
		var err error
		if dst, err = d.field.Encode(dst, value); err != nil {
			return dst, fmt.Errorf("failed to encode %s.%s: %w", s.name, d.name, err)
		}
	}
	return dst, nil
}

// synthesize derives a group's flags from the record, counting fields gated
// on a flag through WithFlag as well as fields named after it.
func (s *Schema) synthesize(group *FlagsField, rec Record) FlagSet {
	set := group.Synthesize(rec)
	for _, d := range s.fields {
		if _, ok := set[d.flag]; !ok || d.flag == d.name {
			continue
		}
		if v, present := rec[d.name]; present && v != nil {
			set[d.flag] = true
		}
	}
	return set
}
