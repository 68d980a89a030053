package memory

import (
	"context"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Bus implements ports.DiffBus inside one process.
// Slow subscribers drop diffs instead of blocking publishers.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]chan *domain.ViewDiff
}

// NewBus creates an empty in-process diff bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]chan *domain.ViewDiff)}
}

// Publish delivers the diff to current subscribers of its session.
func (b *Bus) Publish(_ context.Context, diff *domain.ViewDiff) error {
	if diff == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[diff.SessionID] {
		select {
		case ch <- diff:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done.
func (b *Bus) Subscribe(ctx context.Context, sessionID string) (<-chan *domain.ViewDiff, error) {
	ch := make(chan *domain.ViewDiff, 8)

	b.mu.Lock()
	b.subs[sessionID] = append(b.subs[sessionID], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[sessionID]
		for i, c := range subs {
			if c == ch {
				b.subs[sessionID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(b.subs[sessionID]) == 0 {
			delete(b.subs, sessionID)
		}
		close(ch)
	}()
	return ch, nil
}
