package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	layout, err := repo.CreateLayout(ctx, "s1", LayoutSettings{Name: "News", GridSystem: 12, ContainerSettings: map[string]any{"max_width": "600px"}})
	require.NoError(t, err)
	assert.NotEmpty(t, layout.ID)

	block, err := repo.CreateBlock(ctx, layout.ID, "s1", CreateBlockRequest{BlockType: BlockText, ColumnSpan: 12, Content: map[string]any{"text": "a"}})
	require.NoError(t, err)
	assert.Equal(t, layout.ID, block.LayoutID)

	name := "Intro"
	row := 3
	updated, err := repo.UpdateBlock(ctx, block.ID, "s1", BlockPatch{Name: &name, Row: &row, Content: map[string]any{"text": "b"}})
	require.NoError(t, err)
	assert.Equal(t, "Intro", updated.Name)
	assert.Equal(t, 3, updated.Row)
	assert.Equal(t, 12, updated.ColumnSpan)
	assert.Equal(t, map[string]any{"text": "b"}, updated.Content)

	bg := "#000000"
	patched, err := repo.UpdateLayout(ctx, layout.ID, "s1", LayoutPatch{BackgroundColor: &bg, ContainerSettings: map[string]any{"padding": "8px"}})
	require.NoError(t, err)
	assert.Equal(t, "#000000", patched.BackgroundColor)
	assert.Equal(t, map[string]any{"max_width": "600px", "padding": "8px"}, patched.ContainerSettings)

	doc, err := repo.GetLayout(ctx, layout.ID, "s1")
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)

	require.NoError(t, repo.DeleteBlock(ctx, block.ID, "s1"))
	doc, err = repo.GetLayout(ctx, layout.ID, "s1")
	require.NoError(t, err)
	assert.Empty(t, doc.Blocks)
	assert.ErrorIs(t, repo.DeleteBlock(ctx, block.ID, "s1"), ErrRecordNotFound)
}

func TestMemoryRepositoryScopesBySession(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	layout, err := repo.CreateLayout(ctx, "s1", LayoutSettings{GridSystem: 12})
	require.NoError(t, err)
	block, err := repo.CreateBlock(ctx, layout.ID, "s1", CreateBlockRequest{BlockType: BlockText})
	require.NoError(t, err)

	_, err = repo.GetLayout(ctx, layout.ID, "s2")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	_, err = repo.CreateBlock(ctx, layout.ID, "s2", CreateBlockRequest{BlockType: BlockText})
	assert.ErrorIs(t, err, ErrRecordNotFound)
	_, err = repo.UpdateBlock(ctx, block.ID, "s2", BlockPatch{})
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.ErrorIs(t, repo.DeleteBlock(ctx, block.ID, "s2"), ErrRecordNotFound)

	assert.Equal(t, []string{layout.ID}, repo.Layouts("s1"))
	assert.Empty(t, repo.Layouts("s2"))

	_, err = repo.CreateLayout(ctx, "s1", LayoutSettings{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
