package filter

import (
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

/*
This file contains a participle grammar for record filters, e.g.

	weapon ~ "knife" and (attacker = 3 or victim = 3)
	position.x > -100 and flags.kit_name = true
	start_time >= "2020-06-01"
*/

////////////////////////////////////////////////////////////////////////////////

var (
	Options = []participle.Option{ // nolint:gochecknoglobals
		participle.Lexer(
			lexer.MustSimple([]lexer.SimpleRule{
				{Name: "QuotedString", Pattern: `"(?:\\.|[^"])*"`},
				{Name: "Float", Pattern: `[-+]?\d*\.\d+([eE][-+]?\d+)?`},
				{Name: "Integer", Pattern: `[-+]?[0-9]+`},
				{Name: "Word", Pattern: `[a-zA-Z_][a-zA-Z0-9_\.]*`},
				{Name: "whitespace", Pattern: `\s+`},
				{Name: "Operators", Pattern: `[()]`},
				{Name: "BinaryOperator", Pattern: `=|!=|<=|>=|<|>|~`},
			}),
		),
		participle.Unquote("QuotedString"),
	}

	parser = participle.MustBuild[Expression](Options...) // nolint:gochecknoglobals
)

// Expression is a disjunction of conjunctions.
type Expression struct {
	Or []*AndCondition `@@ ( "or" @@ )*`
}

type AndCondition struct {
	And []*Condition `@@ ( "and" @@ )*`
}

// Condition is a parenthesized subexpression or a comparison of the field
// at Path with a literal.
type Condition struct {
	Subexpression *Expression `( "(" @@ ")"`
	Path          string      `| @Word`
	Op            string      `  @BinaryOperator`
	Value         *Value      `  @@ )`
}

// Boolean captures the literals true and false.
type Boolean bool

func (b *Boolean) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

// Value is a literal.
type Value struct {
	Text    *string  `  @QuotedString`
	Float   *float64 `| @Float`
	Integer *int64   `| @Integer`
	Bool    *Boolean `| @("true" | "false")`
}

// String returns the literal as written, minus quoting.
func (v Value) String() string {
	switch {
	case v.Text != nil:
		return *v.Text
	case v.Float != nil:
		return strconv.FormatFloat(*v.Float, 'f', -1, 64)
	case v.Integer != nil:
		return strconv.FormatInt(*v.Integer, 10)
	case v.Bool != nil:
		return strconv.FormatBool(bool(*v.Bool))
	}
	return ""
}
