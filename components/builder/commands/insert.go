package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-emailbuilder/components/builder"
)

// InsertBlockInput places a new block. Output receives the stored block.
type InsertBlockInput struct {
	builder.InsertBlockRequest
	Actor
	Output *builder.Block `json:"-"`
}

type insertService interface {
	InsertBlock(ctx context.Context, req builder.InsertBlockRequest) (builder.Block, error)
}

// InsertBlockCommand wraps Session.InsertBlock.
type InsertBlockCommand struct {
	service   insertService
	telemetry Telemetry
}

// NewInsertBlockCommand creates the command.
func NewInsertBlockCommand(service insertService, telemetry Telemetry) *InsertBlockCommand {
	return &InsertBlockCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[InsertBlockInput] = (*InsertBlockCommand)(nil)

// Execute inserts the block.
func (c *InsertBlockCommand) Execute(ctx context.Context, msg InsertBlockInput) error {
	if c.service == nil {
		return errors.New("insert command requires service")
	}
	if msg.BlockType == "" {
		return errors.New("insert command requires block type")
	}
	ctx = msg.Actor.apply(ctx)
	block, err := c.service.InsertBlock(ctx, msg.InsertBlockRequest)
	if err != nil {
		return err
	}
	if msg.Output != nil {
		*msg.Output = block
	}
	c.telemetry.Record(ctx, EventInsert, map[string]any{
		"block_id":   block.ID,
		"block_type": block.BlockType,
	})
	return nil
}
