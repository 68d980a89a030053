package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// ErrSourceNotFound is returned when an input names a source nobody registered.
var ErrSourceNotFound = errors.New("option source not found")

// OptionSource supplies the choices of a select/radio/checkbox input at render time.
// It receives the current value bag so that choices can depend on earlier answers.
type OptionSource func(ctx context.Context, values domain.Values) ([]domain.Option, error)

// Static returns a source that always yields the same choices.
func Static(options ...domain.Option) OptionSource {
	return func(context.Context, domain.Values) ([]domain.Option, error) {
		return slices.Clone(options), nil
	}
}

// Registry manages the available option sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]OptionSource
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]OptionSource),
	}
}

// Register adds a source to the registry.
// If a source with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn OptionSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = fn
}

// Names lists the registered sources in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve looks up a source by name and runs it.
func (r *Registry) Resolve(ctx context.Context, name string, values domain.Values) ([]domain.Option, error) {
	r.mu.RLock()
	fn, ok := r.sources[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
	}
	return fn(ctx, values)
}

// Options returns the choices of an input: the resolved source when one is named,
// else the static options. A nil registry only serves static options.
func (r *Registry) Options(ctx context.Context, in *domain.InputData, values domain.Values) ([]domain.Option, error) {
	if in == nil {
		return nil, nil
	}
	if in.Source == "" || r == nil {
		return in.Options, nil
	}
	return r.Resolve(ctx, in.Source, values)
}
