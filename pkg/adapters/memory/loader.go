package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Loader implements ports.FlowLoader using an in-memory map.
// Flows can be replaced at runtime with Put, which notifies watchers.
type Loader struct {
	mu       sync.RWMutex
	flows    map[string][]byte
	watchers []chan string
}

// NewLoader creates a new Loader with the provided raw documents (JSON or YAML).
func NewLoader(data map[string]string) *Loader {
	flows := make(map[string][]byte)
	for k, v := range data {
		flows[k] = []byte(v)
	}
	return &Loader{
		flows: flows,
	}
}

// NewFromGraphs creates a new Loader from domain objects, keyed by Graph.ID.
// This handles serialization automatically, improving DX for tests.
func NewFromGraphs(graphs ...*domain.Graph) (*Loader, error) {
	data := make(map[string][]byte)
	for _, g := range graphs {
		if g.ID == "" {
			return nil, fmt.Errorf("graph missing ID")
		}
		bytes, err := json.Marshal(g)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal flow %s: %w", g.ID, err)
		}
		data[g.ID] = bytes
	}
	return &Loader{flows: data}, nil
}

// GetFlow retrieves the raw definition of a flow by ID.
func (l *Loader) GetFlow(id string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	content, ok := l.flows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, id)
	}
	return content, nil
}

// ListFlows returns all available flow IDs.
func (l *Loader) ListFlows() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.flows))
	for k := range l.flows {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}

// Put stores or replaces a flow document and notifies watchers.
func (l *Loader) Put(id string, data []byte) {
	l.mu.Lock()
	l.flows[id] = data
	watchers := append([]chan string(nil), l.watchers...)
	l.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- id:
		default:
		}
	}
}

// Watch implements ports.Watchable. The channel closes when ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 16)

	l.mu.Lock()
	l.watchers = append(l.watchers, ch)
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, w := range l.watchers {
			if w == ch {
				l.watchers = append(l.watchers[:i], l.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}
