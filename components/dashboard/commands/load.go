package commands

import (
	"context"
	"encoding/json"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

// LoadDocumentInput carries a raw dashboard to load under UID.
type LoadDocumentInput struct {
	UID      string          `json:"uid"`
	Document json.RawMessage `json:"document"`
	ActorID  string          `json:"actor_id"`
}

type loadService interface {
	Load(ctx context.Context, uid string, data []byte) (*dashboard.Document, error)
}

// LoadDocumentCommand wraps Service.Load so transports can hand over raw
// payloads without linking against the service.
type LoadDocumentCommand struct {
	service   loadService
	telemetry Telemetry
}

// NewLoadDocumentCommand creates the command.
func NewLoadDocumentCommand(service loadService, telemetry Telemetry) *LoadDocumentCommand {
	return &LoadDocumentCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoadDocumentInput] = (*LoadDocumentCommand)(nil)

// Execute loads and stores the document.
func (c *LoadDocumentCommand) Execute(ctx context.Context, msg LoadDocumentInput) error {
	if c.service == nil {
		return errors.New("load command requires service")
	}
	if len(msg.Document) == 0 {
		return errors.New("load command requires document")
	}
	ctx = withActor(ctx, msg.ActorID)
	doc, err := c.service.Load(ctx, msg.UID, msg.Document)
	if err != nil {
		return err
	}
	record(ctx, c.telemetry, "load", map[string]any{
		"uid":    doc.UID,
		"panels": len(doc.Panels),
	})
	return nil
}

func withActor(ctx context.Context, actorID string) context.Context {
	if actorID == "" {
		return ctx
	}
	return dashboard.ContextWithActor(ctx, dashboard.Actor{ID: actorID})
}
