package builder

import (
	"context"
	"fmt"
)

// Preview formats.
const (
	FormatHTML = "html"
	FormatText = "text"
)

// Preview is a rendered export ready to hand to a transport.
type Preview struct {
	Format      string
	ContentType string
	Body        string
}

// Controller orchestrates previews for HTTP handlers/routes.
type Controller struct {
	session *Session
}

// NewController wires the session into a controller.
func NewController(session *Session) *Controller {
	return &Controller{session: session}
}

// Session returns the controlled session.
func (c *Controller) Session() *Session { return c.session }

// Preview exports the session in the requested format. An empty format means HTML.
func (c *Controller) Preview(ctx context.Context, format string) (Preview, error) {
	if c.session == nil {
		return Preview{}, ErrNoActiveLayout
	}
	switch format {
	case "", FormatHTML:
		body, err := c.session.Export(ctx)
		if err != nil {
			return Preview{}, err
		}
		return Preview{Format: FormatHTML, ContentType: "text/html; charset=utf-8", Body: body}, nil
	case FormatText:
		body, err := c.session.ExportText(ctx)
		if err != nil {
			return Preview{}, err
		}
		return Preview{Format: FormatText, ContentType: "text/plain; charset=utf-8", Body: body}, nil
	default:
		return Preview{}, fmt.Errorf("builder: unsupported preview format %q", format)
	}
}
