package observability

import (
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "arbor"

// Metrics holds the Prometheus collectors fed by form lifecycle hooks and by the
// transport adapters. All methods are safe for concurrent use.
//
// Exposed series:
//
//	arbor_changes_total{flow_id}
//	arbor_submissions_total{flow_id}
//	arbor_validations_total{flow_id,result}
//	arbor_field_errors_total{flow_id,field}
//	arbor_visibility_changes_total{flow_id,direction}
//	arbor_operation_duration_seconds{operation,status}
type Metrics struct {
	changes     *prometheus.CounterVec
	submissions *prometheus.CounterVec
	validations *prometheus.CounterVec
	fieldErrors *prometheus.CounterVec
	visibility  *prometheus.CounterVec
	operations  *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors. A nil registry means the
// global default registerer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		changes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "changes_total",
			Help:      "Settled value changes applied to form sessions",
		}, []string{"flow_id"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "submissions_total",
			Help:      "Valid form submissions",
		}, []string{"flow_id"}),
		validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validations_total",
			Help:      "Validation passes by outcome",
		}, []string{"flow_id", "result"}), // result: valid, invalid
		fieldErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "field_errors_total",
			Help:      "Field errors reported by validation passes",
		}, []string{"flow_id", "field"}),
		visibility: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "visibility_changes_total",
			Help:      "Nodes shown or hidden after a visibility recompute",
		}, []string{"flow_id", "direction"}), // direction: shown, hidden
		operations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of engine operations served by an adapter",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"operation", "status"}), // status: ok, error
	}
}

// Hooks returns lifecycle hooks that record every form event.
// Merge them with other hooks through domain.LifecycleHooks.Merge.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnChange: func(e *domain.ChangeEvent) {
			m.changes.WithLabelValues(e.FlowID).Inc()
		},
		OnSubmit: func(e *domain.SubmitEvent) {
			m.submissions.WithLabelValues(e.FlowID).Inc()
		},
		OnValidate: func(e *domain.ValidationEvent) {
			result := "valid"
			if !e.Valid {
				result = "invalid"
			}
			m.validations.WithLabelValues(e.FlowID, result).Inc()
			for field := range e.Errors {
				m.fieldErrors.WithLabelValues(e.FlowID, field).Inc()
			}
		},
		OnVisibility: func(e *domain.VisibilityEvent) {
			if len(e.Shown) > 0 {
				m.visibility.WithLabelValues(e.FlowID, "shown").Add(float64(len(e.Shown)))
			}
			if len(e.Hidden) > 0 {
				m.visibility.WithLabelValues(e.FlowID, "hidden").Add(float64(len(e.Hidden)))
			}
		},
	}
}

// ObserveOperation records how long an engine operation took.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}
