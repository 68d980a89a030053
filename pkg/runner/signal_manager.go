package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalManager ties the runner's input context to SIGINT/SIGTERM.
// A Ctrl+C while waiting for an answer cancels the read; the form state saved so far
// is kept.
type SignalManager struct {
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager starts listening for signals on top of parent.
func NewSignalManager(parent context.Context) *SignalManager {
	if parent == nil {
		parent = context.Background()
	}
	sm := &SignalManager{parent: parent}
	sm.Reset()
	return sm
}

// Context returns the current signal context.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Interrupted reports whether the current context was cancelled by a signal rather
// than by the parent.
func (sm *SignalManager) Interrupted() bool {
	return sm.ctx.Err() != nil && sm.parent.Err() == nil
}

// Reset re-arms the signal listener.
func (sm *SignalManager) Reset() {
	if sm.cancel != nil {
		sm.cancel()
	}
	sm.ctx, sm.cancel = signal.NotifyContext(sm.parent, os.Interrupt, syscall.SIGTERM)
}

// Stop permanently stops the signal listener.
func (sm *SignalManager) Stop() {
	if sm.cancel != nil {
		sm.cancel()
	}
}

// CheckRace waits briefly to see if a context cancellation follows an input error.
// On some terminals Ctrl+C surfaces as EOF slightly before the signal is delivered.
func (sm *SignalManager) CheckRace() {
	if sm.ctx.Err() != nil {
		return
	}
	select {
	case <-sm.ctx.Done():
	case <-time.After(100 * time.Millisecond):
	}
}
