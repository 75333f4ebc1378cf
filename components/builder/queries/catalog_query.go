package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-emailbuilder/components/builder"
)

// CatalogInput filters the palette. An empty Category lists every type.
type CatalogInput struct {
	Locale   string `json:"locale"`
	Category string `json:"category"`
}

// CatalogEntry is a block type as shown in the editor palette.
type CatalogEntry struct {
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	DisplayName string         `json:"display_name"`
	Description string         `json:"description,omitempty"`
	IsPremium   bool           `json:"is_premium"`
	Schema      map[string]any `json:"schema,omitempty"`
}

type catalogSource interface {
	ListBlockTypes(ctx context.Context) ([]builder.BlockTypeDefinition, error)
}

// CatalogQuery lists block types with names resolved for the locale.
type CatalogQuery struct {
	source catalogSource
}

// NewCatalogQuery builds the query.
func NewCatalogQuery(source catalogSource) *CatalogQuery {
	return &CatalogQuery{source: source}
}

var _ gocommand.Querier[CatalogInput, []CatalogEntry] = (*CatalogQuery)(nil)

// Query returns the palette entries in catalog order.
func (q *CatalogQuery) Query(ctx context.Context, input CatalogInput) ([]CatalogEntry, error) {
	defs, err := q.source.ListBlockTypes(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]CatalogEntry, 0, len(defs))
	for _, def := range defs {
		if input.Category != "" && def.Category != input.Category {
			continue
		}
		entries = append(entries, CatalogEntry{
			Name:        def.Name,
			Category:    def.Category,
			DisplayName: def.NameForLocale(input.Locale),
			Description: def.DescriptionForLocale(input.Locale),
			IsPremium:   def.IsPremium,
			Schema:      def.Schema,
		})
	}
	return entries, nil
}
