package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// SaveLayoutInput requests an immediate flush of pending changes.
type SaveLayoutInput struct {
	Actor
}

type saveService interface {
	Save(ctx context.Context) error
}

// SaveLayoutCommand wraps Session.Save.
type SaveLayoutCommand struct {
	service   saveService
	telemetry Telemetry
}

// NewSaveLayoutCommand creates the command.
func NewSaveLayoutCommand(service saveService, telemetry Telemetry) *SaveLayoutCommand {
	return &SaveLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveLayoutInput] = (*SaveLayoutCommand)(nil)

// Execute flushes the session.
func (c *SaveLayoutCommand) Execute(ctx context.Context, msg SaveLayoutInput) error {
	if c.service == nil {
		return errors.New("save command requires service")
	}
	ctx = msg.Actor.apply(ctx)
	if err := c.service.Save(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventSave, nil)
	return nil
}
