package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// ToggleRowInput collapses or expands a row panel.
type ToggleRowInput struct {
	UID     string `json:"uid"`
	PanelID int    `json:"panel_id"`
	ActorID string `json:"actor_id"`
}

type rowService interface {
	ToggleRow(ctx context.Context, uid string, panelID int) error
}

// ToggleRowCommand wraps Service.ToggleRow.
type ToggleRowCommand struct {
	service   rowService
	telemetry Telemetry
}

// NewToggleRowCommand creates the command.
func NewToggleRowCommand(service rowService, telemetry Telemetry) *ToggleRowCommand {
	return &ToggleRowCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleRowInput] = (*ToggleRowCommand)(nil)

// Execute toggles the row.
func (c *ToggleRowCommand) Execute(ctx context.Context, msg ToggleRowInput) error {
	if c.service == nil {
		return errors.New("toggle command requires service")
	}
	if msg.PanelID <= 0 {
		return errors.New("toggle command requires panel id")
	}
	ctx = withActor(ctx, msg.ActorID)
	if err := c.service.ToggleRow(ctx, msg.UID, msg.PanelID); err != nil {
		return err
	}
	record(ctx, c.telemetry, "toggle", map[string]any{
		"uid":      msg.UID,
		"panel_id": msg.PanelID,
	})
	return nil
}

// PersistDocumentInput identifies the document to persist.
type PersistDocumentInput struct {
	UID     string `json:"uid"`
	ActorID string `json:"actor_id"`
}

type persistService interface {
	Persist(ctx context.Context, uid string) ([]byte, error)
}

// PersistDocumentCommand wraps Service.Persist.
type PersistDocumentCommand struct {
	service   persistService
	telemetry Telemetry
}

// NewPersistDocumentCommand creates the command.
func NewPersistDocumentCommand(service persistService, telemetry Telemetry) *PersistDocumentCommand {
	return &PersistDocumentCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[PersistDocumentInput] = (*PersistDocumentCommand)(nil)

// Execute validates and snapshots the document.
func (c *PersistDocumentCommand) Execute(ctx context.Context, msg PersistDocumentInput) error {
	if c.service == nil {
		return errors.New("persist command requires service")
	}
	ctx = withActor(ctx, msg.ActorID)
	data, err := c.service.Persist(ctx, msg.UID)
	if err != nil {
		return err
	}
	record(ctx, c.telemetry, "persist", map[string]any{
		"uid":   msg.UID,
		"bytes": len(data),
	})
	return nil
}
