package analyzer

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateAnalyzer is returned when a name is registered twice.
var ErrDuplicateAnalyzer = errors.New("duplicate analyzer")

// ErrUnknownAnalyzer is returned when a name is not registered.
var ErrUnknownAnalyzer = errors.New("unknown analyzer")

// Registry is a set of analyzers addressed by name.
type Registry struct {
	mtx       sync.RWMutex
	analyzers map[string]*Analyzer
	order     []*Analyzer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{analyzers: make(map[string]*Analyzer)}
}

// Register adds a to the registry.
func (r *Registry) Register(a *Analyzer) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.analyzers[a.name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAnalyzer, a.name)
	}
	r.analyzers[a.name] = a
	r.order = append(r.order, a)
	return nil
}

// Handle builds an analyzer from fn and registers it.
func (r *Registry) Handle(name string, fn Func, opts ...Option) (*Analyzer, error) {
	a := New(name, fn, opts...)
	if err := r.Register(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Lookup returns the analyzer registered under name.
func (r *Registry) Lookup(name string) (*Analyzer, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	a, ok := r.analyzers[name]
	return a, ok
}

// Event resolves an event by analyzer name.
func (r *Registry) Event(analyzer, name string) (Event, error) {
	a, ok := r.Lookup(analyzer)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownAnalyzer, analyzer)
	}
	return a.Event(name), nil
}

// Analyzers returns every registered analyzer in registration order.
func (r *Registry) Analyzers() []*Analyzer {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	out := make([]*Analyzer, len(r.order))
	copy(out, r.order)
	return out
}
