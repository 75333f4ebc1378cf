package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-emailbuilder/components/builder"
)

// MoveBlockInput moves a block to a new start cell.
type MoveBlockInput struct {
	BlockID string `json:"block_id"`
	Row     int    `json:"row_position"`
	Column  int    `json:"column_position"`
	Actor
	Output *builder.Block `json:"-"`
}

type moveService interface {
	MoveBlock(ctx context.Context, id string, row, column int) (builder.Block, error)
}

// MoveBlockCommand wraps Session.MoveBlock.
type MoveBlockCommand struct {
	service   moveService
	telemetry Telemetry
}

// NewMoveBlockCommand creates the command.
func NewMoveBlockCommand(service moveService, telemetry Telemetry) *MoveBlockCommand {
	return &MoveBlockCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[MoveBlockInput] = (*MoveBlockCommand)(nil)

// Execute moves the block.
func (c *MoveBlockCommand) Execute(ctx context.Context, msg MoveBlockInput) error {
	if c.service == nil {
		return errors.New("move command requires service")
	}
	if msg.BlockID == "" {
		return errors.New("move command requires block id")
	}
	ctx = msg.Actor.apply(ctx)
	block, err := c.service.MoveBlock(ctx, msg.BlockID, msg.Row, msg.Column)
	if err != nil {
		return err
	}
	if msg.Output != nil {
		*msg.Output = block
	}
	c.telemetry.Record(ctx, EventMove, map[string]any{
		"block_id": msg.BlockID,
		"row":      msg.Row,
		"column":   msg.Column,
	})
	return nil
}
