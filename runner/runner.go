package runner

import (
	"context"
	"fmt"
	"slices"

	"github.com/wkalt/prdemo/analyzer"
	"github.com/wkalt/prdemo/util/log"
)

/*
The runner wires analyzers into a dependency graph and dispatches data through
it.

Construction walks backward from each terminal event. An event's producer is
the analyzer that owns it; the producer's listened events are the next step
back. The walk ends at the start analyzer. A producer other than the start that
listens to nothing means the terminal cannot be reached, and construction fails
with a DependencyError. The edges found on the way are kept in the forward
direction: for every event, the analyzers that listen to it.

Dispatch is depth-first. When a handler emits a value, every dependent of that
event runs to completion, including everything downstream of it, before the
handler's next emission is pulled.
*/

////////////////////////////////////////////////////////////////////////////////

// DependencyError is returned when the graph cannot be built.
type DependencyError struct {
	Event  analyzer.Event
	Reason string
}

func (e DependencyError) Error() string {
	return fmt.Sprintf("dependency error at %s: %s", e.Event, e.Reason)
}

func (e DependencyError) Is(err error) bool {
	_, ok := err.(DependencyError)
	return ok
}

// Runner dispatches data from a start analyzer through a validated graph.
type Runner struct {
	start  *analyzer.Analyzer
	graph  map[analyzer.Event][]*analyzer.Analyzer
	events []analyzer.Event
}

type walkState int

const (
	unvisited walkState = iota
	visiting
	visited
)

type builder struct {
	start  *analyzer.Analyzer
	state  map[*analyzer.Analyzer]walkState
	graph  map[analyzer.Event][]*analyzer.Analyzer
	events []analyzer.Event
}

// New builds a runner. Every event in ends must be reachable from start.
func New(start *analyzer.Analyzer, ends []analyzer.Event) (*Runner, error) {
	if start == nil {
		return nil, fmt.Errorf("runner requires a start analyzer")
	}
	if len(ends) == 0 {
		return nil, fmt.Errorf("runner requires at least one terminal event")
	}
	b := &builder{
		start: start,
		state: make(map[*analyzer.Analyzer]walkState),
		graph: make(map[analyzer.Event][]*analyzer.Analyzer),
	}
	for _, end := range ends {
		if err := b.walk(end); err != nil {
			return nil, err
		}
	}
	return &Runner{start: start, graph: b.graph, events: b.events}, nil
}

func (b *builder) walk(ev analyzer.Event) error {
	producer := ev.Analyzer
	if producer == nil {
		return DependencyError{Event: ev, Reason: "event has no analyzer"}
	}
	if !producer.Declares(ev.Name) {
		return DependencyError{Event: ev, Reason: fmt.Sprintf("%s does not emit %q", producer, ev.Name)}
	}
	if producer == b.start {
		return nil
	}
	switch b.state[producer] {
	case visited:
		return nil
	case visiting:
		return DependencyError{Event: ev, Reason: fmt.Sprintf("cycle through %s", producer)}
	}
	upstream := producer.Listened()
	if len(upstream) == 0 {
		return DependencyError{Event: ev, Reason: fmt.Sprintf("%s listens to nothing and is not the start", producer)}
	}
	b.state[producer] = visiting
	for _, up := range upstream {
		if _, ok := b.graph[up]; !ok {
			b.events = append(b.events, up)
		}
		b.graph[up] = append(b.graph[up], producer)
		if err := b.walk(up); err != nil {
			return err
		}
	}
	b.state[producer] = visited
	return nil
}

// Start returns the start analyzer.
func (r *Runner) Start() *analyzer.Analyzer {
	return r.start
}

// Events returns every event with at least one dependent, in the order the
// graph walk found them.
func (r *Runner) Events() []analyzer.Event {
	return slices.Clone(r.events)
}

// Dependents returns the analyzers listening to ev.
func (r *Runner) Dependents(ev analyzer.Event) []*analyzer.Analyzer {
	return slices.Clone(r.graph[ev])
}

// Run dispatches data to the start analyzer. The first handler error stops
// the run and is returned.
func (r *Runner) Run(ctx context.Context, data any) error {
	return r.dispatch(ctx, r.start, data, analyzer.Event{})
}

func (r *Runner) dispatch(ctx context.Context, a *analyzer.Analyzer, data any, origin analyzer.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := a.Call(ctx, data, origin)
	if err != nil {
		log.Debugw(ctx, "handler failed", "analyzer", a.Name(), "origin", origin.String(), "error", err)
		return fmt.Errorf("analyzer %s: %w", a, err)
	}
	for emission, err := range result.All() {
		if err != nil {
			log.Debugw(ctx, "handler failed", "analyzer", a.Name(), "origin", origin.String(), "error", err)
			return fmt.Errorf("analyzer %s: %w", a, err)
		}
		ev := a.Event(emission.Event)
		dependents, ok := r.graph[ev]
		if !ok {
			if !a.Declares(emission.Event) {
				log.Debugw(ctx, "undeclared emission", "event", ev.String())
			}
			continue
		}
		for _, dependent := range dependents {
			if err := r.dispatch(ctx, dependent, emission.Value, ev); err != nil {
				return err
			}
		}
	}
	return nil
}
