package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/relvacode/iso8601"
	"github.com/wkalt/prdemo/codec"
)

/*
A Filter selects decoded records by comparing fields with literals. Paths are
dotted and descend into nested records and flag groups. A comparison against a
field the record does not have, or whose value has a different kind than the
literal, is false. Operators a kind does not support are errors.

Numbers compare numerically regardless of width. Strings compare lexically, and
~ matches a regular expression. Booleans support = and != only. Timestamps
compare against quoted ISO 8601 literals.
*/

////////////////////////////////////////////////////////////////////////////////

// Filter is a compiled filter expression.
type Filter struct {
	text    string
	expr    *Expression
	regexps map[*Condition]*regexp.Regexp
	times   map[*Condition]time.Time
}

// Parse compiles a filter expression.
func Parse(text string) (*Filter, error) {
	expr, err := parser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse filter: %w", err)
	}
	f := &Filter{
		text:    text,
		expr:    expr,
		regexps: make(map[*Condition]*regexp.Regexp),
		times:   make(map[*Condition]time.Time),
	}
	if err := f.compile(expr); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Filter) compile(expr *Expression) error {
	for _, and := range expr.Or {
		for _, cond := range and.And {
			if cond.Subexpression != nil {
				if err := f.compile(cond.Subexpression); err != nil {
					return err
				}
				continue
			}
			if cond.Value.Text == nil {
				if cond.Op == "~" {
					return fmt.Errorf("operator ~ requires a string literal: %s ~ %s", cond.Path, cond.Value)
				}
				continue
			}
			if cond.Op == "~" {
				re, err := regexp.Compile(*cond.Value.Text)
				if err != nil {
					return fmt.Errorf("invalid pattern for %s: %w", cond.Path, err)
				}
				f.regexps[cond] = re
			}
			if t, err := iso8601.Parse([]byte(*cond.Value.Text)); err == nil {
				f.times[cond] = t
			}
		}
	}
	return nil
}

// String returns the source text of the filter.
func (f *Filter) String() string {
	return f.text
}

// Match reports whether rec satisfies the filter.
func (f *Filter) Match(rec codec.Record) (bool, error) {
	return f.eval(f.expr, rec)
}

// MatchValue matches a decoded payload: a record, or a list of records of
// which at least one must match.
func (f *Filter) MatchValue(v any) (bool, error) {
	switch v := v.(type) {
	case codec.Record:
		return f.Match(v)
	case []codec.Record:
		for _, rec := range v {
			ok, err := f.Match(rec)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

func (f *Filter) eval(expr *Expression, rec codec.Record) (bool, error) {
	for _, and := range expr.Or {
		ok, err := f.evalAnd(and, rec)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (f *Filter) evalAnd(and *AndCondition, rec codec.Record) (bool, error) {
	for _, cond := range and.And {
		var ok bool
		var err error
		if cond.Subexpression != nil {
			ok, err = f.eval(cond.Subexpression, rec)
		} else {
			ok, err = f.compare(cond, rec)
		}
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func lookup(rec codec.Record, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = rec
	for _, part := range parts {
		switch node := current.(type) {
		case codec.Record:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			current = v
		case codec.FlagSet:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			current = v
		default:
			return nil, false
		}
	}
	return current, true
}

func (f *Filter) compare(cond *Condition, rec codec.Record) (bool, error) {
	field, ok := lookup(rec, cond.Path)
	if !ok {
		return false, nil
	}
	lit := cond.Value
	switch field := field.(type) {
	case string:
		if lit.Text == nil {
			return false, nil
		}
		if cond.Op == "~" {
			return f.regexps[cond].MatchString(field), nil
		}
		return ordered(cond.Op, strings.Compare(field, *lit.Text))
	case bool:
		if lit.Bool == nil {
			return false, nil
		}
		switch cond.Op {
		case "=":
			return field == bool(*lit.Bool), nil
		case "!=":
			return field != bool(*lit.Bool), nil
		}
		return false, fmt.Errorf("operator %s is not supported for boolean field %s", cond.Op, cond.Path)
	case time.Time:
		t, ok := f.times[cond]
		if !ok {
			return false, nil
		}
		if cond.Op == "~" {
			return false, fmt.Errorf("operator ~ is not supported for timestamp field %s", cond.Path)
		}
		return ordered(cond.Op, field.Compare(t))
	}
	number, ok := toFloat(field)
	if !ok {
		return false, nil
	}
	if cond.Op == "~" {
		return false, fmt.Errorf("operator ~ is not supported for numeric field %s", cond.Path)
	}
	var want float64
	switch {
	case lit.Integer != nil:
		want = float64(*lit.Integer)
	case lit.Float != nil:
		want = *lit.Float
	default:
		return false, nil
	}
	switch {
	case number < want:
		return ordered(cond.Op, -1)
	case number > want:
		return ordered(cond.Op, 1)
	default:
		return ordered(cond.Op, 0)
	}
}

func ordered(op string, cmp int) (bool, error) {
	switch op {
	case "=":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	}
	return false, fmt.Errorf("unsupported operator %s", op)
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
