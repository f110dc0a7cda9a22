package commands

import (
	"context"

	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

// Telemetry receives one "dashboard.command.<name>" event per successful
// command. Any dashboard.Telemetry, including PrometheusTelemetry, fits.
type Telemetry = dashboard.Telemetry

type discardTelemetry struct{}

func (discardTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return discardTelemetry{}
	}
	return t
}

// record tags the payload with the acting user before emitting it.
func record(ctx context.Context, t Telemetry, name string, payload map[string]any) {
	if actor := dashboard.ActorFrom(ctx).ID; actor != "" {
		payload["actor"] = actor
	}
	t.Record(ctx, "dashboard.command."+name, payload)
}
