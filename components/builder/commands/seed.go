package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-emailbuilder/components/builder"
)

// CreateLayoutInput starts a new layout, optionally seeded with the starter
// blocks.
type CreateLayoutInput struct {
	Settings builder.LayoutSettings `json:"layout"`
	Seed     bool                   `json:"seed"`
	Actor
	Output *builder.LayoutDocument `json:"-"`
}

// CreateLayoutCommand creates (and seeds) the session layout.
type CreateLayoutCommand struct {
	session   *builder.Session
	telemetry Telemetry
}

// NewCreateLayoutCommand wires dependencies.
func NewCreateLayoutCommand(session *builder.Session, telemetry Telemetry) *CreateLayoutCommand {
	return &CreateLayoutCommand{session: session, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CreateLayoutInput] = (*CreateLayoutCommand)(nil)

// Execute runs the bootstrap pipeline.
func (c *CreateLayoutCommand) Execute(ctx context.Context, msg CreateLayoutInput) error {
	if c.session == nil {
		return errors.New("create layout command requires session")
	}
	ctx = msg.Actor.apply(ctx)
	var (
		doc builder.LayoutDocument
		err error
	)
	if msg.Seed {
		doc, err = builder.SeedLayout(ctx, c.session, msg.Settings)
	} else if _, err = c.session.CreateLayout(ctx, msg.Settings); err == nil {
		doc, err = c.session.Document()
	}
	if err != nil {
		return err
	}
	if msg.Output != nil {
		*msg.Output = doc
	}
	c.telemetry.Record(ctx, EventCreateLayout, map[string]any{
		"layout_id": doc.Layout.ID,
		"seed":      msg.Seed,
	})
	return nil
}
