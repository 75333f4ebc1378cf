package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-emailbuilder/components/builder"
)

// DocumentInput requests the active layout with its blocks.
type DocumentInput struct{}

type documentService interface {
	Document() (builder.LayoutDocument, error)
}

// DocumentQuery reads the session's layout document.
type DocumentQuery struct {
	service documentService
}

// NewDocumentQuery builds the query.
func NewDocumentQuery(service documentService) *DocumentQuery {
	return &DocumentQuery{service: service}
}

var _ gocommand.Querier[DocumentInput, builder.LayoutDocument] = (*DocumentQuery)(nil)

// Query returns the document with blocks in (row, column) order.
func (q *DocumentQuery) Query(_ context.Context, _ DocumentInput) (builder.LayoutDocument, error) {
	doc, err := q.service.Document()
	if err != nil {
		return builder.LayoutDocument{}, err
	}
	doc.Blocks = builder.SortBlocks(doc.Blocks)
	return doc, nil
}
