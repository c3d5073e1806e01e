package codec

import (
	"fmt"

	"github.com/wkalt/prdemo/buffer"
)

// List is a sequence of records of one schema, running to the end of the
// data. There is no count on the wire: decoding stops at the first element
// that decodes to an empty record.
type List struct {
	elem *Schema
}

// ListOf returns a list of elem records.
func ListOf(elem *Schema) *List {
	return &List{elem: elem}
}

// Elem returns the element schema.
func (l *List) Elem() *Schema {
	return l.elem
}

func (l *List) String() string {
	return "[]" + l.elem.name
}

// DecodeList decodes elements until one comes back empty, consumes no bytes,
// or the data runs out. A partially decoded final element is kept.
func (l *List) DecodeList(c *buffer.Cursor) ([]Record, error) {
	out := []Record{}
	for {
		start := c.Pos()
		rec, err := l.elem.decode(c)
		if err != nil && !isUnderrun(err) {
			return out, fmt.Errorf("failed to decode element %d of %s: %w", len(out), l, err)
		}
		if len(rec) == 0 || c.Pos() == start {
			return out, nil
		}
		out = append(out, rec)
		if err != nil {
			return out, nil
		}
	}
}

// Decode implements Field. It never reports underrun.
func (l *List) Decode(c *buffer.Cursor) (any, error) {
	return l.DecodeList(c)
}

// EncodeList concatenates the encodings of records.
func (l *List) EncodeList(records []Record) ([]byte, error) {
	var dst []byte
	for i, rec := range records {
		var err error
		if dst, err = l.elem.encode(dst, rec); err != nil {
			return nil, fmt.Errorf("failed to encode element %d of %s: %w", i, l, err)
		}
	}
	return dst, nil
}

// Encode implements Field. v may be a []Record, []map[string]any or []any of
// records.
func (l *List) Encode(dst []byte, v any) ([]byte, error) {
	var items []any
	switch v := v.(type) {
	case []Record:
		for _, rec := range v {
			items = append(items, rec)
		}
	case []map[string]any:
		for _, rec := range v {
			items = append(items, rec)
		}
	case []any:
		items = v
	default:
		return dst, ValueTypeError{Want: l.String(), Value: v}
	}
	for i, item := range items {
		var err error
		if dst, err = l.elem.Encode(dst, item); err != nil {
			return dst, fmt.Errorf("failed to encode element %d of %s: %w", i, l, err)
		}
	}
	return dst, nil
}
