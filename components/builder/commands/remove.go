package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// RemoveBlockInput identifies the block to delete.
type RemoveBlockInput struct {
	BlockID string `json:"block_id"`
	Actor
}

type removeService interface {
	DeleteBlock(ctx context.Context, id string) error
}

// RemoveBlockCommand wraps Session.DeleteBlock.
type RemoveBlockCommand struct {
	service   removeService
	telemetry Telemetry
}

// NewRemoveBlockCommand builds a command instance.
func NewRemoveBlockCommand(service removeService, telemetry Telemetry) *RemoveBlockCommand {
	return &RemoveBlockCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemoveBlockInput] = (*RemoveBlockCommand)(nil)

// Execute removes the block.
func (c *RemoveBlockCommand) Execute(ctx context.Context, msg RemoveBlockInput) error {
	if c.service == nil {
		return errors.New("remove command requires service")
	}
	if msg.BlockID == "" {
		return errors.New("remove command requires block id")
	}
	ctx = msg.Actor.apply(ctx)
	if err := c.service.DeleteBlock(ctx, msg.BlockID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventRemove, map[string]any{"block_id": msg.BlockID})
	return nil
}
