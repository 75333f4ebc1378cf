package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-emailbuilder/components/builder"
)

// UpdateLayoutInput patches the active layout's presentation settings.
type UpdateLayoutInput struct {
	builder.LayoutPatch
	Actor
	Output *builder.Layout `json:"-"`
}

type layoutService interface {
	UpdateLayoutSettings(ctx context.Context, patch builder.LayoutPatch) (builder.Layout, error)
}

// UpdateLayoutCommand wraps Session.UpdateLayoutSettings.
type UpdateLayoutCommand struct {
	service   layoutService
	telemetry Telemetry
}

// NewUpdateLayoutCommand creates the command.
func NewUpdateLayoutCommand(service layoutService, telemetry Telemetry) *UpdateLayoutCommand {
	return &UpdateLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateLayoutInput] = (*UpdateLayoutCommand)(nil)

// Execute applies the patch.
func (c *UpdateLayoutCommand) Execute(ctx context.Context, msg UpdateLayoutInput) error {
	if c.service == nil {
		return errors.New("layout command requires service")
	}
	ctx = msg.Actor.apply(ctx)
	layout, err := c.service.UpdateLayoutSettings(ctx, msg.LayoutPatch)
	if err != nil {
		return err
	}
	if msg.Output != nil {
		*msg.Output = layout
	}
	c.telemetry.Record(ctx, EventLayout, map[string]any{"layout_id": layout.ID})
	return nil
}
