package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-emailbuilder/components/builder"
)

// UpdateBlockInput captures block edits. Only the set fields are applied and
// they commit together: one rejected field rejects the whole update.
type UpdateBlockInput struct {
	BlockID    string         `json:"block_id"`
	Name       *string        `json:"name,omitempty"`
	ColumnSpan *int           `json:"column_span,omitempty"`
	Content    map[string]any `json:"content,omitempty"`
	Styling    map[string]any `json:"styling,omitempty"`
	Actor
	Output *builder.Block `json:"-"`
}

type updateService interface {
	Block(id string) (builder.Block, error)
	UpdateBlock(ctx context.Context, id string, edit builder.BlockEdit) (builder.Block, error)
}

// UpdateBlockCommand applies a block update through the session.
type UpdateBlockCommand struct {
	service   updateService
	telemetry Telemetry
}

// NewUpdateBlockCommand creates the command.
func NewUpdateBlockCommand(service updateService, telemetry Telemetry) *UpdateBlockCommand {
	return &UpdateBlockCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateBlockInput] = (*UpdateBlockCommand)(nil)

// Execute applies the update.
func (c *UpdateBlockCommand) Execute(ctx context.Context, msg UpdateBlockInput) error {
	if c.service == nil {
		return errors.New("update command requires service")
	}
	if msg.BlockID == "" {
		return errors.New("update command requires block id")
	}
	ctx = msg.Actor.apply(ctx)
	edit := builder.BlockEdit{
		Name:       msg.Name,
		ColumnSpan: msg.ColumnSpan,
		Content:    msg.Content,
		Styling:    msg.Styling,
	}
	var (
		block builder.Block
		err   error
	)
	if edit.Empty() {
		block, err = c.service.Block(msg.BlockID)
	} else {
		block, err = c.service.UpdateBlock(ctx, msg.BlockID, edit)
	}
	if err != nil {
		return err
	}
	if msg.Output != nil {
		*msg.Output = block
	}
	c.telemetry.Record(ctx, EventUpdate, map[string]any{
		"block_id": msg.BlockID,
		"fields":   updatedFields(msg),
	})
	return nil
}

func updatedFields(msg UpdateBlockInput) []string {
	var fields []string
	if msg.Name != nil {
		fields = append(fields, "name")
	}
	if msg.ColumnSpan != nil {
		fields = append(fields, "column_span")
	}
	if msg.Content != nil {
		fields = append(fields, "content")
	}
	if msg.Styling != nil {
		fields = append(fields, "styling")
	}
	return fields
}
