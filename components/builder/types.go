package builder

import (
	"context"
	"time"
)

// Layout types are informational; they never constrain placement.
const (
	LayoutSingleColumn = "single-column"
	LayoutTwoColumn    = "two-column"
	LayoutFreeform     = "freeform"
)

// DefaultGridSystem is the column count used when settings omit one.
const DefaultGridSystem = 12

// Repository is the remote layout/block store the auto-saver pushes to.
// Every call is scoped by an opaque session id supplied by the editor.
type Repository interface {
	CreateLayout(ctx context.Context, sessionID string, settings LayoutSettings) (Layout, error)
	GetLayout(ctx context.Context, layoutID, sessionID string) (LayoutDocument, error)
	CreateBlock(ctx context.Context, layoutID, sessionID string, req CreateBlockRequest) (Block, error)
	UpdateBlock(ctx context.Context, blockID, sessionID string, patch BlockPatch) (Block, error)
	DeleteBlock(ctx context.Context, blockID, sessionID string) error
	UpdateLayout(ctx context.Context, layoutID, sessionID string, patch LayoutPatch) (Layout, error)
}

// CatalogSource lists the block types available to an editor at startup.
type CatalogSource interface {
	ListBlockTypes(ctx context.Context) ([]BlockTypeDefinition, error)
}

// ChangeHook notifies transports (REST/WebSocket) about layout changes.
type ChangeHook interface {
	LayoutChanged(ctx context.Context, event ChangeEvent) error
}

// Layout is the container configuration of one email template.
type Layout struct {
	ID                string         `json:"id" yaml:"id"`
	Name              string         `json:"name,omitempty" yaml:"name,omitempty"`
	LayoutType        string         `json:"layout_type" yaml:"layout_type"`
	GridSystem        int            `json:"grid_system" yaml:"grid_system"`
	BackgroundColor   string         `json:"background_color,omitempty" yaml:"background_color,omitempty"`
	ContainerSettings map[string]any `json:"container_settings,omitempty" yaml:"container_settings,omitempty"`
	CreatedAt         time.Time      `json:"created_at" yaml:"-"`
	UpdatedAt         time.Time      `json:"updated_at" yaml:"-"`
}

// LayoutSettings seeds a new Layout.
type LayoutSettings struct {
	Name              string         `json:"name,omitempty" yaml:"name,omitempty"`
	LayoutType        string         `json:"layout_type,omitempty" yaml:"layout_type,omitempty"`
	GridSystem        int            `json:"grid_system" yaml:"grid_system"`
	BackgroundColor   string         `json:"background_color,omitempty" yaml:"background_color,omitempty"`
	ContainerSettings map[string]any `json:"container_settings,omitempty" yaml:"container_settings,omitempty"`
}

// LayoutPatch updates presentation fields only. Nil fields are left as-is and
// ContainerSettings entries are merged key by key; a nil value removes the key.
type LayoutPatch struct {
	Name              *string        `json:"name,omitempty"`
	BackgroundColor   *string        `json:"background_color,omitempty"`
	ContainerSettings map[string]any `json:"container_settings,omitempty"`
}

// Block is a positioned content unit on a Layout grid.
type Block struct {
	ID         string         `json:"id" yaml:"id"`
	LayoutID   string         `json:"layout_id" yaml:"layout_id,omitempty"`
	BlockType  string         `json:"block_type" yaml:"block_type"`
	Name       string         `json:"name,omitempty" yaml:"name,omitempty"`
	Row        int            `json:"row_position" yaml:"row_position"`
	Column     int            `json:"column_position" yaml:"column_position"`
	ColumnSpan int            `json:"column_span" yaml:"column_span"`
	Content    map[string]any `json:"content" yaml:"content,omitempty"`
	Styling    map[string]any `json:"styling" yaml:"styling,omitempty"`
}

// LayoutDocument bundles a layout with its blocks, as loaded from persistence.
type LayoutDocument struct {
	Layout Layout  `json:"layout" yaml:"layout"`
	Blocks []Block `json:"blocks" yaml:"blocks"`
}

// CreateBlockRequest is sent to the Repository when a new block is saved.
type CreateBlockRequest struct {
	ClientID   string         `json:"client_id,omitempty"`
	BlockType  string         `json:"block_type"`
	Name       string         `json:"name,omitempty"`
	Row        int            `json:"row_position"`
	Column     int            `json:"column_position"`
	ColumnSpan int            `json:"column_span"`
	Content    map[string]any `json:"content"`
	Styling    map[string]any `json:"styling"`
}

// BlockPatch carries block fields to update remotely. Nil fields are skipped.
type BlockPatch struct {
	Name       *string        `json:"name,omitempty"`
	Row        *int           `json:"row_position,omitempty"`
	Column     *int           `json:"column_position,omitempty"`
	ColumnSpan *int           `json:"column_span,omitempty"`
	Content    map[string]any `json:"content,omitempty"`
	Styling    map[string]any `json:"styling,omitempty"`
}

// ChangeEvent describes a committed change transports might care about.
type ChangeEvent struct {
	LayoutID string `json:"layout_id"`
	BlockID  string `json:"block_id,omitempty"`
	Reason   string `json:"reason"`
	Block    *Block `json:"block,omitempty"`
}

// Change reasons emitted through ChangeHook and Telemetry.
const (
	ReasonLayoutCreated = "layout.create"
	ReasonLayoutOpened  = "layout.open"
	ReasonLayoutUpdated = "layout.update"
	ReasonBlockInserted = "block.insert"
	ReasonBlockMoved    = "block.move"
	ReasonBlockUpdated  = "block.update"
	ReasonBlockDeleted  = "block.delete"
	ReasonSaved         = "save.ok"
	ReasonSaveFailed    = "save.failed"
)

// Clone returns a deep copy of the layout.
func (l Layout) Clone() Layout {
	l.ContainerSettings = cloneMap(l.ContainerSettings)
	return l
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	b.Content = cloneMap(b.Content)
	b.Styling = cloneMap(b.Styling)
	return b
}

// Settings reports the creation settings of the layout.
func (l Layout) Settings() LayoutSettings {
	return LayoutSettings{
		Name:              l.Name,
		LayoutType:        l.LayoutType,
		GridSystem:        l.GridSystem,
		BackgroundColor:   l.BackgroundColor,
		ContainerSettings: cloneMap(l.ContainerSettings),
	}
}

func (b Block) createRequest() CreateBlockRequest {
	return CreateBlockRequest{
		ClientID:   b.ID,
		BlockType:  b.BlockType,
		Name:       b.Name,
		Row:        b.Row,
		Column:     b.Column,
		ColumnSpan: b.ColumnSpan,
		Content:    cloneMap(b.Content),
		Styling:    cloneMap(b.Styling),
	}
}

// fullPatch carries the complete current state so the remote copy converges
// on the latest local edit.
func (b Block) fullPatch() BlockPatch {
	name, row, col, span := b.Name, b.Row, b.Column, b.ColumnSpan
	return BlockPatch{
		Name:       &name,
		Row:        &row,
		Column:     &col,
		ColumnSpan: &span,
		Content:    cloneMap(b.Content),
		Styling:    cloneMap(b.Styling),
	}
}

func (l Layout) fullPatch() LayoutPatch {
	name, bg := l.Name, l.BackgroundColor
	return LayoutPatch{
		Name:              &name,
		BackgroundColor:   &bg,
		ContainerSettings: cloneMap(l.ContainerSettings),
	}
}

// Apply returns block with the non-nil patch fields set. Content and Styling
// replace the stored maps wholesale.
func (p BlockPatch) Apply(block Block) Block {
	block = block.Clone()
	if p.Name != nil {
		block.Name = *p.Name
	}
	if p.Row != nil {
		block.Row = *p.Row
	}
	if p.Column != nil {
		block.Column = *p.Column
	}
	if p.ColumnSpan != nil {
		block.ColumnSpan = *p.ColumnSpan
	}
	if p.Content != nil {
		block.Content = cloneMap(p.Content)
	}
	if p.Styling != nil {
		block.Styling = cloneMap(p.Styling)
	}
	return block
}

// Apply returns layout with the patch merged in.
func (p LayoutPatch) Apply(layout Layout) Layout {
	layout = layout.Clone()
	if p.Name != nil {
		layout.Name = *p.Name
	}
	if p.BackgroundColor != nil {
		layout.BackgroundColor = *p.BackgroundColor
	}
	if p.ContainerSettings != nil {
		layout.ContainerSettings = mergeMap(layout.ContainerSettings, p.ContainerSettings)
	}
	return layout
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

// mergeMap shallow-merges patch over base. Nil patch values delete the key.
func mergeMap(base, patch map[string]any) map[string]any {
	out := cloneMap(base)
	if out == nil {
		out = map[string]any{}
	}
	for key, value := range patch {
		if value == nil {
			delete(out, key)
			continue
		}
		out[key] = cloneValue(value)
	}
	return out
}
