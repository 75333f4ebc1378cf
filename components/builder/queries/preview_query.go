package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-emailbuilder/components/builder"
)

// PreviewInput selects the export format.
type PreviewInput struct {
	Format string `json:"format"`
}

type previewService interface {
	Preview(ctx context.Context, format string) (builder.Preview, error)
}

// PreviewQuery exports the session for display.
type PreviewQuery struct {
	service previewService
}

// NewPreviewQuery builds the query.
func NewPreviewQuery(service previewService) *PreviewQuery {
	return &PreviewQuery{service: service}
}

var _ gocommand.Querier[PreviewInput, builder.Preview] = (*PreviewQuery)(nil)

// Query renders the preview.
func (q *PreviewQuery) Query(ctx context.Context, input PreviewInput) (builder.Preview, error) {
	return q.service.Preview(ctx, input.Format)
}
