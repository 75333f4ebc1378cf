package builder

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// PresetSpans are the column spans offered by the editor toolbar. Engines
// only enforce them when EngineOptions.Spans is set.
var PresetSpans = []int{1, 2, 3, 4, 6, 12}

// FullWidthSpan is the span of a block inserted without one.
const FullWidthSpan = 12

// EngineOptions configures the placement Engine.
type EngineOptions struct {
	Store       *LayoutStore
	Catalog     *Catalog
	Validator   ContentValidator
	IDGenerator func() string
	// Spans restricts column spans to a fixed set. Nil accepts any span
	// that fits the grid.
	Spans []int
}

// Engine enforces placement invariants and is the only writer of the store.
// Every operation validates against current occupancy and either commits the
// whole change or returns an error with the store untouched.
type Engine struct {
	mu        sync.Mutex
	store     *LayoutStore
	catalog   *Catalog
	validator ContentValidator
	newID     func() string
	spans     []int
}

// NewEngine builds an Engine with safe defaults.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Store == nil {
		opts.Store = NewLayoutStore(StoreOptions{})
	}
	if opts.Catalog == nil {
		opts.Catalog = NewCatalog()
	}
	if opts.Validator == nil {
		opts.Validator = noopContentValidator{}
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}
	return &Engine{
		store:     opts.Store,
		catalog:   opts.Catalog,
		validator: opts.Validator,
		newID:     opts.IDGenerator,
		spans:     append([]int(nil), opts.Spans...),
	}
}

// Store exposes the underlying layout store for reads.
func (e *Engine) Store() *LayoutStore { return e.store }

// Catalog exposes the block type catalog.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// InsertBlockRequest captures a new block placement. ColumnSpan 0 selects the
// default full width. Content and Styling are merged over the catalog defaults.
type InsertBlockRequest struct {
	BlockType  string         `json:"block_type" yaml:"block_type"`
	Name       string         `json:"name,omitempty" yaml:"name,omitempty"`
	Row        int            `json:"row_position" yaml:"row_position"`
	Column     int            `json:"column_position" yaml:"column_position"`
	ColumnSpan int            `json:"column_span,omitempty" yaml:"column_span,omitempty"`
	Content    map[string]any `json:"content,omitempty" yaml:"content,omitempty"`
	Styling    map[string]any `json:"styling,omitempty" yaml:"styling,omitempty"`
}

// DefaultSpan returns the span of a block inserted without one: full width
// (12) clamped to the grid, or the widest of spans that fits when spans is set.
func DefaultSpan(gridSystem int, spans []int) int {
	limit := min(FullWidthSpan, gridSystem)
	if len(spans) == 0 {
		return max(limit, 1)
	}
	span := 0
	for _, candidate := range spans {
		if candidate <= limit && candidate > span {
			span = candidate
		}
	}
	if span == 0 {
		return spans[0]
	}
	return span
}

// ValidateSpan checks that a block starting at column with span fits the
// grid. A non-empty spans restricts the span to that set.
func ValidateSpan(gridSystem, column, span int, spans []int) error {
	if column < 0 || column >= gridSystem {
		return fmt.Errorf("%w: column %d outside grid of %d", ErrInvalidSpan, column, gridSystem)
	}
	if span < 1 {
		return fmt.Errorf("%w: span %d must be positive", ErrInvalidSpan, span)
	}
	if len(spans) > 0 && !slices.Contains(spans, span) {
		return fmt.Errorf("%w: span %d not in %v", ErrInvalidSpan, span, spans)
	}
	if column+span > gridSystem {
		return fmt.Errorf("%w: column %d + span %d exceeds grid of %d", ErrInvalidSpan, column, span, gridSystem)
	}
	return nil
}

// InsertBlock places a new block seeded from the catalog defaults.
func (e *Engine) InsertBlock(req InsertBlockRequest) (Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	layout, ok := e.store.Layout()
	if !ok {
		return Block{}, ErrNoActiveLayout
	}
	def, err := e.catalog.Type(req.BlockType)
	if err != nil {
		return Block{}, err
	}
	if req.Row < 0 {
		return Block{}, fmt.Errorf("%w: row %d", ErrInvalidPosition, req.Row)
	}
	span := req.ColumnSpan
	if span == 0 {
		span = DefaultSpan(layout.GridSystem, e.spans)
	}
	if err := ValidateSpan(layout.GridSystem, req.Column, span, e.spans); err != nil {
		return Block{}, err
	}
	if occupant, taken := e.store.Occupant(req.Row, req.Column); taken {
		return Block{}, fmt.Errorf("%w: (%d,%d) held by %s", ErrCellOccupied, req.Row, req.Column, occupant)
	}
	content := mergeMap(def.DefaultConfig, req.Content)
	if err := e.validator.Validate(def, content); err != nil {
		return Block{}, err
	}
	block := Block{
		ID:         e.newID(),
		LayoutID:   layout.ID,
		BlockType:  def.Name,
		Name:       req.Name,
		Row:        req.Row,
		Column:     req.Column,
		ColumnSpan: span,
		Content:    content,
		Styling:    mergeMap(def.DefaultStyles, req.Styling),
	}
	if err := e.store.Apply(BlockMutation{Kind: MutationInsert, Block: block}); err != nil {
		return Block{}, err
	}
	return block.Clone(), nil
}

// MoveBlock changes a block's start cell. Moving onto the block's own cell
// succeeds without change; moving onto another block's cell is rejected.
func (e *Engine) MoveBlock(id string, row, column int) (Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	layout, block, err := e.lookup(id)
	if err != nil {
		return Block{}, err
	}
	if block.Row == row && block.Column == column {
		return block, nil
	}
	if row < 0 {
		return Block{}, fmt.Errorf("%w: row %d", ErrInvalidPosition, row)
	}
	if err := ValidateSpan(layout.GridSystem, column, block.ColumnSpan, nil); err != nil {
		return Block{}, err
	}
	if occupant, taken := e.store.Occupant(row, column); taken && occupant != id {
		return Block{}, fmt.Errorf("%w: (%d,%d) held by %s", ErrCellOccupied, row, column, occupant)
	}
	block.Row = row
	block.Column = column
	return e.commitUpdate(block)
}

// BlockEdit groups edits to one block that commit together. Content and
// Styling are shallow-merged; nil values remove keys.
type BlockEdit struct {
	Name       *string
	ColumnSpan *int
	Content    map[string]any
	Styling    map[string]any
}

// Empty reports whether the edit changes nothing.
func (e BlockEdit) Empty() bool {
	return e.Name == nil && e.ColumnSpan == nil && e.Content == nil && e.Styling == nil
}

// UpdateBlock checks every field of edit against the current state and then
// commits them as one update. A rejected field leaves the block unchanged.
func (e *Engine) UpdateBlock(id string, edit BlockEdit) (Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	layout, block, err := e.lookup(id)
	if err != nil {
		return Block{}, err
	}
	if edit.Name != nil {
		block.Name = *edit.Name
	}
	if edit.ColumnSpan != nil {
		if err := ValidateSpan(layout.GridSystem, block.Column, *edit.ColumnSpan, e.spans); err != nil {
			return Block{}, err
		}
		block.ColumnSpan = *edit.ColumnSpan
	}
	if edit.Content != nil {
		content := mergeMap(block.Content, edit.Content)
		if def, err := e.catalog.Type(block.BlockType); err == nil {
			if err := e.validator.Validate(def, content); err != nil {
				return Block{}, err
			}
		}
		block.Content = content
	}
	if edit.Styling != nil {
		block.Styling = mergeMap(block.Styling, edit.Styling)
	}
	return e.commitUpdate(block)
}

// UpdateBlockContent shallow-merges patch into the block content. Nil values
// remove keys.
func (e *Engine) UpdateBlockContent(id string, patch map[string]any) (Block, error) {
	if patch == nil {
		patch = map[string]any{}
	}
	return e.UpdateBlock(id, BlockEdit{Content: patch})
}

// UpdateBlockStyle shallow-merges patch into the block styling.
func (e *Engine) UpdateBlockStyle(id string, patch map[string]any) (Block, error) {
	if patch == nil {
		patch = map[string]any{}
	}
	return e.UpdateBlock(id, BlockEdit{Styling: patch})
}

// UpdateBlockSpan resizes a block in place.
func (e *Engine) UpdateBlockSpan(id string, span int) (Block, error) {
	return e.UpdateBlock(id, BlockEdit{ColumnSpan: &span})
}

// RenameBlock sets the user-facing label of a block.
func (e *Engine) RenameBlock(id, name string) (Block, error) {
	return e.UpdateBlock(id, BlockEdit{Name: &name})
}

// DeleteBlock removes a block. Remaining blocks keep their positions.
func (e *Engine) DeleteBlock(id string) (Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, block, err := e.lookup(id)
	if err != nil {
		return Block{}, err
	}
	if err := e.store.Apply(BlockMutation{Kind: MutationDelete, Block: block}); err != nil {
		return Block{}, err
	}
	return block, nil
}

func (e *Engine) lookup(id string) (Layout, Block, error) {
	layout, ok := e.store.Layout()
	if !ok {
		return Layout{}, Block{}, ErrNoActiveLayout
	}
	block, ok := e.store.Block(id)
	if !ok {
		return Layout{}, Block{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return layout, block, nil
}

func (e *Engine) commitUpdate(block Block) (Block, error) {
	if err := e.store.Apply(BlockMutation{Kind: MutationUpdate, Block: block}); err != nil {
		return Block{}, err
	}
	return block.Clone(), nil
}
