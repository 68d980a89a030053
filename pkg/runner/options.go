package runner

import (
	"log/slog"

	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/session"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithSessions persists every step through a session manager.
// It requires WithSessionID; a run with an existing id resumes that session.
func WithSessions(m *session.Manager) Option {
	return func(r *Runner) {
		r.Sessions = m
	}
}

// WithSessionID sets the session id used for persistence and events.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithRegistry configures the option sources for inputs that name one.
func WithRegistry(reg *registry.Registry) Option {
	return func(r *Runner) {
		r.Registry = reg
	}
}

// WithHeadless suppresses the banner and the submission summary.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}
