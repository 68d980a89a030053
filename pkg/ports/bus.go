package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// DiffBus fans out session view diffs to subscribers (SSE clients, other replicas).
type DiffBus interface {
	// Publish sends a diff to every subscriber of diff.SessionID.
	Publish(ctx context.Context, diff *domain.ViewDiff) error

	// Subscribe returns a channel of diffs for one session.
	// The channel is closed when ctx is done.
	Subscribe(ctx context.Context, sessionID string) (<-chan *domain.ViewDiff, error)
}
