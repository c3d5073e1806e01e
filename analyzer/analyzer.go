package analyzer

import (
	"context"
	"fmt"
	"iter"
	"slices"
)

/*
An Analyzer is a named handler function together with the events it declares it
emits and the upstream events it listens to. Analyzers are wired into a graph
by the runner package; this package only records the declarations.

Handlers receive the data emitted upstream and the event that carried it, and
return a Result holding zero, one, or a lazily produced sequence of emissions.
*/

////////////////////////////////////////////////////////////////////////////////

// Emission is a value produced by a handler under one of its event names.
type Emission struct {
	Value any
	Event string
}

// Result is the return of a handler invocation.
type Result struct {
	seq iter.Seq2[Emission, error]
}

// One returns a result with a single emission.
func One(value any, event string) Result {
	return Result{seq: func(yield func(Emission, error) bool) {
		yield(Emission{Value: value, Event: event}, nil)
	}}
}

// Many returns a result backed by a lazy sequence. The sequence is consumed
// once, one element at a time. A non-nil error in the sequence stops
// consumption.
func Many(seq iter.Seq2[Emission, error]) Result {
	return Result{seq: seq}
}

// None returns a result with no emissions.
func None() Result {
	return Result{}
}

// All returns the emissions of the result.
func (r Result) All() iter.Seq2[Emission, error] {
	if r.seq == nil {
		return func(func(Emission, error) bool) {}
	}
	return r.seq
}

// Func is the signature of a handler. origin is the event that delivered data;
// it is the zero Event for the start of a run.
type Func func(ctx context.Context, data any, origin Event) (Result, error)

// Event identifies a named output of an analyzer. Events are comparable and two
// events with the same analyzer and name are equal.
type Event struct {
	Analyzer *Analyzer
	Name     string
}

// String returns the event as name@analyzer.
func (e Event) String() string {
	if e.Analyzer == nil {
		return e.Name + "@<nil>"
	}
	return e.Name + "@" + e.Analyzer.name
}

// IsZero reports whether e is the zero Event.
func (e Event) IsZero() bool {
	return e.Analyzer == nil && e.Name == ""
}

// Analyzer is a handler with its declared connections.
type Analyzer struct {
	name    string
	fn      Func
	emits   []string
	listens []Event
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// Emits declares event names the analyzer produces.
func Emits(names ...string) Option {
	return func(a *Analyzer) {
		for _, name := range names {
			if !slices.Contains(a.emits, name) {
				a.emits = append(a.emits, name)
			}
		}
	}
}

// Listens subscribes the analyzer to an event of upstream.
func Listens(upstream *Analyzer, event string) Option {
	if upstream == nil {
		panic(fmt.Sprintf("analyzer: listen to %q of nil analyzer", event))
	}
	return func(a *Analyzer) {
		ev := upstream.Event(event)
		if !slices.Contains(a.listens, ev) {
			a.listens = append(a.listens, ev)
		}
	}
}

// New returns an analyzer wrapping fn.
func New(name string, fn Func, opts ...Option) *Analyzer {
	if fn == nil {
		panic(fmt.Sprintf("analyzer: %s has no handler", name))
	}
	a := &Analyzer{name: name, fn: fn}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the analyzer name.
func (a *Analyzer) Name() string {
	return a.name
}

func (a *Analyzer) String() string {
	return a.name
}

// Emitted returns the declared event names, in declaration order.
func (a *Analyzer) Emitted() []string {
	return slices.Clone(a.emits)
}

// Listened returns the upstream events, in declaration order.
func (a *Analyzer) Listened() []Event {
	return slices.Clone(a.listens)
}

// Declares reports whether the analyzer declares that it emits name.
func (a *Analyzer) Declares(name string) bool {
	return slices.Contains(a.emits, name)
}

// Event returns the event of this analyzer with the given name.
func (a *Analyzer) Event(name string) Event {
	return Event{Analyzer: a, Name: name}
}

// Call invokes the handler.
func (a *Analyzer) Call(ctx context.Context, data any, origin Event) (Result, error) {
	return a.fn(ctx, data, origin)
}
