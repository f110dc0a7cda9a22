package dashboard

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// PrometheusTelemetry counts telemetry events and the repeat clones they
// report. Collectors are registered on first use.
type PrometheusTelemetry struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	events *prometheus.CounterVec
	clones *prometheus.CounterVec
}

var _ Telemetry = (*PrometheusTelemetry)(nil)

// NewPrometheusTelemetry uses prometheus.DefaultRegisterer when reg is nil and
// the "dashgrid" namespace when namespace is empty.
func NewPrometheusTelemetry(reg prometheus.Registerer, namespace string) *PrometheusTelemetry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "dashgrid"
	}
	return &PrometheusTelemetry{reg: reg, namespace: namespace}
}

func (p *PrometheusTelemetry) ensureRegistered() {
	p.once.Do(func() {
		p.events = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "dashboard",
			Name:      "events_total",
			Help:      "Dashboard events recorded by operation.",
		}, []string{"event"})
		p.clones = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "repeat",
			Name:      "clones_total",
			Help:      "Repeat clones by outcome (created, reused, removed).",
		}, []string{"outcome"})
		p.reg.MustRegister(p.events)
		p.reg.MustRegister(p.clones)
	})
}

// Record increments the event counter and, when the payload carries repeat
// counts, the clone counters.
func (p *PrometheusTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	p.ensureRegistered()
	p.events.WithLabelValues(event).Inc()
	for _, outcome := range []string{"created", "reused", "removed"} {
		if n, ok := payload[outcome].(int); ok && n > 0 {
			p.clones.WithLabelValues(outcome).Add(float64(n))
		}
	}
}
