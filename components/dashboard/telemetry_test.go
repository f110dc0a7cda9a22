package dashboard

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusTelemetryCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	telemetry := NewPrometheusTelemetry(reg, "test")
	ctx := context.Background()

	telemetry.Record(ctx, "dashboard.repeat.process", map[string]any{"created": 2, "reused": 0, "removed": 1})
	telemetry.Record(ctx, "dashboard.repeat.process", map[string]any{"created": 1})
	telemetry.Record(ctx, "dashboard.document.load", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(telemetry.events.WithLabelValues("dashboard.repeat.process")))
	assert.Equal(t, 1.0, testutil.ToFloat64(telemetry.events.WithLabelValues("dashboard.document.load")))
	assert.Equal(t, 3.0, testutil.ToFloat64(telemetry.clones.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(telemetry.clones.WithLabelValues("removed")))
	assert.Equal(t, 2, testutil.CollectAndCount(telemetry.events))
}

func TestNormalizeTelemetry(t *testing.T) {
	assert.IsType(t, noopTelemetry{}, normalizeTelemetry(nil))

	custom := &recordingTelemetry{}
	assert.Same(t, custom, normalizeTelemetry(custom))
}

type recordingTelemetry struct {
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.events = append(r.events, event)
}
