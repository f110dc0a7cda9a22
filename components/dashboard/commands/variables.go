package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

// SelectVariableInput changes the selection of one template variable.
type SelectVariableInput struct {
	UID      string   `json:"uid"`
	Variable string   `json:"variable"`
	Values   []string `json:"values"`
	ActorID  string   `json:"actor_id"`
}

type selectService interface {
	SelectVariable(ctx context.Context, uid, name string, values ...string) (dashboard.RepeatResult, error)
}

// SelectVariableCommand wraps Service.SelectVariable.
type SelectVariableCommand struct {
	service   selectService
	telemetry Telemetry
}

// NewSelectVariableCommand creates the command.
func NewSelectVariableCommand(service selectService, telemetry Telemetry) *SelectVariableCommand {
	return &SelectVariableCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SelectVariableInput] = (*SelectVariableCommand)(nil)

// Execute applies the selection and reprocesses repeats.
func (c *SelectVariableCommand) Execute(ctx context.Context, msg SelectVariableInput) error {
	if c.service == nil {
		return errors.New("select command requires service")
	}
	if msg.Variable == "" {
		return errors.New("select command requires variable name")
	}
	ctx = withActor(ctx, msg.ActorID)
	result, err := c.service.SelectVariable(ctx, msg.UID, msg.Variable, msg.Values...)
	if err != nil {
		return err
	}
	record(ctx, c.telemetry, "select", map[string]any{
		"uid":      msg.UID,
		"variable": msg.Variable,
		"changed":  result.Changed(),
	})
	return nil
}

// ProcessRepeatsInput identifies the document to re-expand.
type ProcessRepeatsInput struct {
	UID     string `json:"uid"`
	ActorID string `json:"actor_id"`
}

type repeatService interface {
	ProcessRepeats(ctx context.Context, uid string) (dashboard.RepeatResult, error)
}

// ProcessRepeatsCommand wraps Service.ProcessRepeats.
type ProcessRepeatsCommand struct {
	service   repeatService
	telemetry Telemetry
}

// NewProcessRepeatsCommand creates the command.
func NewProcessRepeatsCommand(service repeatService, telemetry Telemetry) *ProcessRepeatsCommand {
	return &ProcessRepeatsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ProcessRepeatsInput] = (*ProcessRepeatsCommand)(nil)

// Execute re-expands every repeat source of the document.
func (c *ProcessRepeatsCommand) Execute(ctx context.Context, msg ProcessRepeatsInput) error {
	if c.service == nil {
		return errors.New("repeat command requires service")
	}
	ctx = withActor(ctx, msg.ActorID)
	result, err := c.service.ProcessRepeats(ctx, msg.UID)
	if err != nil {
		return err
	}
	record(ctx, c.telemetry, "repeat", map[string]any{
		"uid":       msg.UID,
		"iteration": result.Iteration,
	})
	return nil
}
