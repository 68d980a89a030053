package observability

import (
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// LoggingHooks writes one structured record per lifecycle event.
// Values are never logged, only field ids, since they may carry personal data.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	if logger == nil {
		return domain.LifecycleHooks{}
	}
	return domain.LifecycleHooks{
		OnChange: func(e *domain.ChangeEvent) {
			logger.Debug("form_change",
				"flow_id", e.FlowID,
				"session_id", e.SessionID,
				"changed", e.Changed)
		},
		OnSubmit: func(e *domain.SubmitEvent) {
			logger.Info("form_submit",
				"flow_id", e.FlowID,
				"session_id", e.SessionID,
				"fields", len(e.Values))
		},
		OnValidate: func(e *domain.ValidationEvent) {
			logger.Debug("form_validate",
				"flow_id", e.FlowID,
				"session_id", e.SessionID,
				"valid", e.Valid,
				"errors", len(e.Errors))
		},
		OnVisibility: func(e *domain.VisibilityEvent) {
			logger.Debug("form_visibility",
				"flow_id", e.FlowID,
				"session_id", e.SessionID,
				"shown", e.Shown,
				"hidden", e.Hidden)
		},
	}
}
