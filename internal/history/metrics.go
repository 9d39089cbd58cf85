package history

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	recorded *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewMetrics registers the recorder counters on reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		recorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workhub",
			Subsystem: "history",
			Name:      "records_total",
			Help:      "History records appended, by type and action.",
		}, []string{"type", "action"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workhub",
			Subsystem: "history",
			Name:      "record_failures_total",
			Help:      "History record attempts that failed, by type and reason.",
		}, []string{"type", "reason"}),
	}
}

func (m *Metrics) observeRecorded(t Type, a Action) {
	if m == nil {
		return
	}
	m.recorded.WithLabelValues(string(t), string(a)).Inc()
}

func (m *Metrics) observeFailure(t Type, err error) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(string(t), failureReason(err)).Inc()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrAuthenticationRequired):
		return "authentication"
	case errors.Is(err, ErrDataIntegrity):
		return "data_integrity"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "unknown"
	}
}
