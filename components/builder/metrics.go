package builder

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusTelemetry counts builder events and tracks the outbox depth.
type PrometheusTelemetry struct {
	Events  *prometheus.CounterVec
	Pending prometheus.Gauge
}

// NewPrometheusTelemetry registers the builder collectors on reg. A nil
// registerer selects prometheus.DefaultRegisterer.
func NewPrometheusTelemetry(reg prometheus.Registerer) (*PrometheusTelemetry, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	t := &PrometheusTelemetry{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emailbuilder",
			Name:      "events_total",
			Help:      "Total number of email builder events by name",
		}, []string{"event"}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "emailbuilder",
			Name:      "pending_changes",
			Help:      "Changes waiting to be pushed to the repository",
		}),
	}
	for _, c := range []prometheus.Collector{t.Events, t.Pending} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Record satisfies Telemetry.
func (t *PrometheusTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	if t == nil || t.Events == nil {
		return
	}
	t.Events.WithLabelValues(event).Inc()
	if t.Pending == nil {
		return
	}
	if pending, ok := payload["pending"].(int); ok {
		t.Pending.Set(float64(pending))
	}
}
