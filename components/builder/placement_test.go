package builder

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, grid int, spans ...int) *Engine {
	t.Helper()
	store := NewLayoutStore(StoreOptions{IDGenerator: sequentialIDs("layout-")})
	engine := NewEngine(EngineOptions{
		Store:       store,
		Catalog:     NewCatalog(),
		Validator:   NewJSONSchemaValidator(),
		IDGenerator: sequentialIDs("b"),
		Spans:       spans,
	})
	_, err := store.CreateLayout(LayoutSettings{GridSystem: grid})
	require.NoError(t, err)
	return engine
}

func TestInsertIntoOccupiedCellIsRejected(t *testing.T) {
	engine := newTestEngine(t, 12)
	block, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: 0, Column: 0, ColumnSpan: 12})
	require.NoError(t, err)
	assert.Equal(t, 12, block.ColumnSpan)

	_, err = engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: 0, Column: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCellOccupied))
	assert.Len(t, engine.Store().Blocks(), 1)
}

func TestUpdateBlockSpanBounds(t *testing.T) {
	engine := newTestEngine(t, 12)
	button, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockButton, Row: 1, Column: 0, ColumnSpan: 4})
	require.NoError(t, err)

	resized, err := engine.UpdateBlockSpan(button.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, resized.ColumnSpan)

	_, err = engine.UpdateBlockSpan(button.ID, 13)
	assert.ErrorIs(t, err, ErrInvalidSpan)
	_, err = engine.UpdateBlockSpan(button.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidSpan)

	current, ok := engine.Store().Block(button.ID)
	require.True(t, ok)
	assert.Equal(t, 10, current.ColumnSpan)
}

func TestSpanPresetsAreEnforcedWhenConfigured(t *testing.T) {
	engine := newTestEngine(t, 12, PresetSpans...)
	block, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: 0, Column: 0, ColumnSpan: 4})
	require.NoError(t, err)

	_, err = engine.UpdateBlockSpan(block.ID, 5)
	assert.ErrorIs(t, err, ErrInvalidSpan)
	_, err = engine.UpdateBlockSpan(block.ID, 6)
	assert.NoError(t, err)
}

func TestInsertSpanMustFitGrid(t *testing.T) {
	engine := newTestEngine(t, 12)
	_, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: 0, Column: 6})
	assert.ErrorIs(t, err, ErrInvalidSpan, "default full width cannot start mid-row")

	block, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: 0, Column: 6, ColumnSpan: 6})
	require.NoError(t, err)
	assert.Equal(t, 6, block.Column)

	_, err = engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: 0, Column: 12, ColumnSpan: 1})
	assert.ErrorIs(t, err, ErrInvalidSpan)
	_, err = engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: 0, Column: -1, ColumnSpan: 1})
	assert.ErrorIs(t, err, ErrInvalidSpan)
	_, err = engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: -1, Column: 0})
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestDefaultSpan(t *testing.T) {
	assert.Equal(t, 12, DefaultSpan(12, nil))
	assert.Equal(t, 12, DefaultSpan(24, nil))
	assert.Equal(t, 5, DefaultSpan(5, nil))
	assert.Equal(t, 4, DefaultSpan(5, PresetSpans))
	assert.Equal(t, 1, DefaultSpan(1, PresetSpans))
}

func TestInsertNarrowGridDefaultsToGridWidth(t *testing.T) {
	engine := newTestEngine(t, 6)
	block, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockText})
	require.NoError(t, err)
	assert.Equal(t, 6, block.ColumnSpan)
}

func TestInsertUnknownTypeAndNoLayout(t *testing.T) {
	engine := newTestEngine(t, 12)
	_, err := engine.InsertBlock(InsertBlockRequest{BlockType: "carousel"})
	assert.ErrorIs(t, err, ErrUnknownBlockType)

	empty := NewEngine(EngineOptions{})
	_, err = empty.InsertBlock(InsertBlockRequest{BlockType: BlockText})
	assert.ErrorIs(t, err, ErrNoActiveLayout)
	_, err = empty.MoveBlock("x", 0, 0)
	assert.ErrorIs(t, err, ErrNoActiveLayout)
}

func TestInsertSeedsCatalogDefaults(t *testing.T) {
	engine := newTestEngine(t, 12)
	block, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockButton, Row: 0, Column: 0})
	require.NoError(t, err)
	assert.Equal(t, "Button", block.Content["text"])
	assert.Equal(t, "#", block.Content["url"])
	assert.Equal(t, "#007bff", block.Styling["background_color"])

	custom, err := engine.InsertBlock(InsertBlockRequest{
		BlockType: BlockButton,
		Row:       1,
		Content:   map[string]any{"url": "https://example.com", "tracking": "abc"},
		Styling:   map[string]any{"color": "#000000"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Button", custom.Content["text"])
	assert.Equal(t, "https://example.com", custom.Content["url"])
	assert.Equal(t, "abc", custom.Content["tracking"], "extra keys are kept")
	assert.Equal(t, "#000000", custom.Styling["color"])
}

func TestInsertRejectsContentViolatingSchema(t *testing.T) {
	engine := newTestEngine(t, 12)
	_, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockHeading, Content: map[string]any{"level": 9}})
	assert.ErrorIs(t, err, ErrInvalidContent)
	assert.Empty(t, engine.Store().Blocks())
}

func TestMoveBlock(t *testing.T) {
	engine := newTestEngine(t, 12)
	a, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: 0, ColumnSpan: 6})
	require.NoError(t, err)
	b, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockImage, Row: 1, ColumnSpan: 6})
	require.NoError(t, err)

	moved, err := engine.MoveBlock(a.ID, 0, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, moved.Column)
	assert.Equal(t, 6, moved.ColumnSpan)
	assert.Equal(t, a.Content, moved.Content)

	_, err = engine.MoveBlock(b.ID, 0, 6)
	assert.ErrorIs(t, err, ErrCellOccupied, "no implicit swap")

	_, err = engine.MoveBlock(b.ID, 0, 8)
	assert.ErrorIs(t, err, ErrInvalidSpan)

	_, err = engine.MoveBlock("missing", 0, 0)
	assert.ErrorIs(t, err, ErrBlockNotFound)

	moved, err = engine.MoveBlock(b.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Row)
}

func TestNoOpMoveChangesNothing(t *testing.T) {
	engine := newTestEngine(t, 12)
	block, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: 2, Column: 0})
	require.NoError(t, err)
	before := engine.Store().Blocks()
	layoutBefore, _ := engine.Store().Layout()

	moved, err := engine.MoveBlock(block.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, block, moved)
	assert.Equal(t, before, engine.Store().Blocks())
	layoutAfter, _ := engine.Store().Layout()
	assert.Equal(t, layoutBefore.UpdatedAt, layoutAfter.UpdatedAt)
}

func TestUpdateContentAndStyleShallowMerge(t *testing.T) {
	engine := newTestEngine(t, 12)
	block, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockImage})
	require.NoError(t, err)

	updated, err := engine.UpdateBlockContent(block.ID, map[string]any{"src": "https://cdn.example.com/a.png", "alt": nil})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", updated.Content["src"])
	_, hasAlt := updated.Content["alt"]
	assert.False(t, hasAlt)

	styled, err := engine.UpdateBlockStyle(block.ID, map[string]any{"border": "1px solid #ccc"})
	require.NoError(t, err)
	assert.Equal(t, "1px solid #ccc", styled.Styling["border"])
	assert.Equal(t, "100%", styled.Styling["width"])
	assert.Equal(t, "https://cdn.example.com/a.png", styled.Content["src"])

	renamed, err := engine.RenameBlock(block.ID, "Hero")
	require.NoError(t, err)
	assert.Equal(t, "Hero", renamed.Name)
}

func TestUpdateBlockCommitsAllFieldsOrNone(t *testing.T) {
	engine := newTestEngine(t, 12)
	block, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockText})
	require.NoError(t, err)

	span := 6
	name := "Intro"
	_, err = engine.UpdateBlock(block.ID, BlockEdit{
		Name:       &name,
		ColumnSpan: &span,
		Content:    map[string]any{"text": 42},
		Styling:    map[string]any{"color": "#ff0000"},
	})
	require.ErrorIs(t, err, ErrInvalidContent)

	after, ok := engine.Store().Block(block.ID)
	require.True(t, ok)
	assert.Equal(t, block, after)

	tooWide := 13
	_, err = engine.UpdateBlock(block.ID, BlockEdit{Name: &name, ColumnSpan: &tooWide})
	require.ErrorIs(t, err, ErrInvalidSpan)
	after, _ = engine.Store().Block(block.ID)
	assert.Equal(t, block, after)

	updated, err := engine.UpdateBlock(block.ID, BlockEdit{
		Name:       &name,
		ColumnSpan: &span,
		Content:    map[string]any{"text": "Hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Intro", updated.Name)
	assert.Equal(t, 6, updated.ColumnSpan)
	assert.Equal(t, "Hello", updated.Content["text"])
}

func TestDeleteDoesNotCompactRows(t *testing.T) {
	engine := newTestEngine(t, 12)
	first, err := engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: 0})
	require.NoError(t, err)
	_, err = engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: 1})
	require.NoError(t, err)

	_, err = engine.DeleteBlock(first.ID)
	require.NoError(t, err)
	blocks := engine.Store().Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, 1, blocks[0].Row)
	assert.Equal(t, 0, blocks[0].Column)

	_, err = engine.DeleteBlock(first.ID)
	assert.ErrorIs(t, err, ErrBlockNotFound)

	// the freed cell is usable again
	_, err = engine.InsertBlock(InsertBlockRequest{BlockType: BlockText, Row: 0})
	assert.NoError(t, err)
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	const grid = 12
	engine := newTestEngine(t, grid)
	rng := rand.New(rand.NewSource(42))
	types := []string{BlockText, BlockHeading, BlockImage, BlockButton, BlockDivider, BlockSpacer, "unknown"}
	spans := []int{0, 1, 2, 3, 4, 6, 12, 5, 13}

	for i := 0; i < 2000; i++ {
		before := engine.Store().Blocks()
		var err error
		switch op := rng.Intn(5); {
		case op == 0 || len(before) == 0:
			_, err = engine.InsertBlock(InsertBlockRequest{
				BlockType:  types[rng.Intn(len(types))],
				Row:        rng.Intn(6) - 1,
				Column:     rng.Intn(grid+2) - 1,
				ColumnSpan: spans[rng.Intn(len(spans))],
			})
		case op == 1:
			_, err = engine.MoveBlock(before[rng.Intn(len(before))].ID, rng.Intn(6)-1, rng.Intn(grid+2)-1)
		case op == 2:
			_, err = engine.UpdateBlockSpan(before[rng.Intn(len(before))].ID, spans[rng.Intn(len(spans))])
		case op == 3:
			if rng.Intn(4) == 0 {
				_, err = engine.DeleteBlock(before[rng.Intn(len(before))].ID)
			} else {
				_, err = engine.MoveBlock(fmt.Sprintf("ghost-%d", i), 0, 0)
			}
		default:
			_, err = engine.UpdateBlockContent(before[rng.Intn(len(before))].ID, map[string]any{"level": rng.Intn(9)})
		}

		after := engine.Store().Blocks()
		if err != nil {
			require.Equal(t, before, after, "failed op %d mutated state: %v", i, err)
		}
		seen := map[string]string{}
		for _, block := range after {
			key := CellKey(block.Row, block.Column)
			if other, ok := seen[key]; ok {
				t.Fatalf("op %d: blocks %s and %s share cell %s", i, other, block.ID, key)
			}
			seen[key] = block.ID
			require.GreaterOrEqual(t, block.Column, 0)
			require.LessOrEqual(t, block.Column+block.ColumnSpan, grid)
			require.GreaterOrEqual(t, block.Row, 0)
		}
	}
}
