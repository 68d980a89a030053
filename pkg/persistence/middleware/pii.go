package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Mask replaces values whose key matches a PII pattern.
const Mask = "***"

type piiMiddleware struct {
	next          ports.StateStore
	patterns      []*regexp.Regexp
	submittedOnly bool
}

// PIIOption configures the PII middleware.
type PIIOption func(*piiMiddleware)

// MaskSubmittedOnly leaves active sessions untouched and masks a session once it is
// submitted. Active sessions keep evaluating conditions and patterns against their
// stored values, so masking them would break resumption.
func MaskSubmittedOnly() PIIOption {
	return func(m *piiMiddleware) {
		m.submittedOnly = true
	}
}

// NewPIIMiddleware creates a middleware that masks values whose node id (or nested
// map key) matches one of the patterns before they reach the store. Masking is one
// way: loading returns the masked values.
func NewPIIMiddleware(patternStrings []string, opts ...PIIOption) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.StateStore) ports.StateStore {
		m := &piiMiddleware{next: next, patterns: patterns}
		for _, opt := range opts {
			opt(m)
		}
		return m
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	if m.submittedOnly && state.Status != domain.StatusSubmitted {
		return m.next.Save(ctx, sessionID, state)
	}
	// The engine keeps using state after Save, so mask a copy.
	masked := state.Snapshot()
	maskMap(masked.Values, m.patterns)
	maskMap(masked.Synced, m.patterns)

	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if matchesAny(k, patterns) {
			m[k] = Mask
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			maskMap(t, patterns)
		case []any:
			for _, item := range t {
				if sub, ok := item.(map[string]any); ok {
					maskMap(sub, patterns)
				}
			}
		}
	}
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
