package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Bus implements ports.DiffBus over Redis Pub/Sub so that every replica serving a
// session's SSE stream sees diffs produced by any other replica.
type Bus struct {
	client *backend.Client
	prefix string
	logger *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger sets the logger used for undecodable messages.
func WithBusLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

// NewBus creates a diff bus on the given client. Channels are "<prefix>diff:<session>".
func NewBus(client *backend.Client, prefix string, opts ...BusOption) *Bus {
	b := &Bus{client: client, prefix: prefix, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) channel(sessionID string) string {
	return b.prefix + "diff:" + sessionID
}

// Publish sends the diff as JSON.
func (b *Bus) Publish(ctx context.Context, diff *domain.ViewDiff) error {
	if diff == nil {
		return nil
	}
	data, err := json.Marshal(diff)
	if err != nil {
		return fmt.Errorf("failed to marshal diff: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(diff.SessionID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish diff: %w", err)
	}
	return nil
}

// Subscribe listens on the session channel until ctx is done.
func (b *Bus) Subscribe(ctx context.Context, sessionID string) (<-chan *domain.ViewDiff, error) {
	sub := b.client.Subscribe(ctx, b.channel(sessionID))
	// Wait for the subscription confirmation so no publish is missed after return.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan *domain.ViewDiff, 8)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var diff domain.ViewDiff
				if err := json.Unmarshal([]byte(msg.Payload), &diff); err != nil {
					b.logger.Warn("dropping undecodable diff", "session_id", sessionID, "error", err)
					continue
				}
				select {
				case out <- &diff:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
