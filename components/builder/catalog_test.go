package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeNames(defs []BlockTypeDefinition) []string {
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	return names
}

func TestDefaultCatalogOrder(t *testing.T) {
	cat := NewEmptyCatalog()
	for _, def := range DefaultBlockTypes() {
		require.NoError(t, cat.Register(def))
	}
	assert.Equal(t, []string{"text", "heading", "image", "button", "divider", "spacer", "html"}, typeNames(cat.Types()))
	assert.Equal(t, []string{"basic", "media", "actions", "layout", "advanced"}, cat.Categories())
}

func TestCatalogGroupsByFirstSeenCategory(t *testing.T) {
	cat := NewEmptyCatalog()
	require.NoError(t, cat.Register(BlockTypeDefinition{Name: "a", Category: "basic"}))
	require.NoError(t, cat.Register(BlockTypeDefinition{Name: "b", Category: "media"}))
	require.NoError(t, cat.Register(BlockTypeDefinition{Name: "c", Category: "basic"}))

	assert.Equal(t, []string{"a", "c", "b"}, typeNames(cat.Types()))

	// re-registering keeps the original slot
	require.NoError(t, cat.Register(BlockTypeDefinition{Name: "a", Category: "basic", Description: "updated"}))
	assert.Equal(t, []string{"a", "c", "b"}, typeNames(cat.Types()))
	def, err := cat.Type("a")
	require.NoError(t, err)
	assert.Equal(t, "updated", def.Description)
}

func TestCatalogRegisterDefaults(t *testing.T) {
	cat := NewEmptyCatalog()
	require.Error(t, cat.Register(BlockTypeDefinition{}))
	require.NoError(t, cat.Register(BlockTypeDefinition{Name: "social_links"}))

	def, err := cat.Type("social_links")
	require.NoError(t, err)
	assert.Equal(t, "Social Links", def.DisplayName)
	assert.Equal(t, "custom", def.Category)
}

func TestCatalogTypeUnknown(t *testing.T) {
	cat := NewCatalog()
	_, err := cat.Type("carousel")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownBlockType))
	assert.False(t, cat.Has("carousel"))
	assert.True(t, cat.Has(BlockButton))
}

func TestCatalogReturnsCopies(t *testing.T) {
	cat := NewCatalog()
	def, err := cat.Type(BlockText)
	require.NoError(t, err)
	def.DefaultConfig["text"] = "mutated"
	def.DefaultStyles["color"] = "red"

	again, err := cat.Type(BlockText)
	require.NoError(t, err)
	assert.Equal(t, DefaultText, again.DefaultConfig["text"])
	assert.Equal(t, "#333333", again.DefaultStyles["color"])
}

func TestCatalogHooksApplyToNewCatalogs(t *testing.T) {
	globalHookMu.Lock()
	saved := globalHooks
	globalHookMu.Unlock()
	t.Cleanup(func() {
		globalHookMu.Lock()
		globalHooks = saved
		globalHookMu.Unlock()
	})

	RegisterCatalogHook(func(cat *Catalog) error {
		return cat.Register(BlockTypeDefinition{Name: "video", Category: "media"})
	})
	cat := NewCatalog()
	assert.True(t, cat.Has("video"))
	assert.Equal(t, []string{"image", "video"}, typeNames(filterCategory(cat.Types(), "media")))
}

func filterCategory(defs []BlockTypeDefinition, category string) []BlockTypeDefinition {
	var out []BlockTypeDefinition
	for _, def := range defs {
		if def.Category == category {
			out = append(out, def)
		}
	}
	return out
}

type staticSource struct {
	defs []BlockTypeDefinition
	err  error
}

func (s staticSource) ListBlockTypes(context.Context) ([]BlockTypeDefinition, error) {
	return s.defs, s.err
}

func TestNewCatalogFromSource(t *testing.T) {
	cat, err := NewCatalogFromSource(context.Background(), staticSource{defs: []BlockTypeDefinition{
		{Name: "text", Category: "basic"},
		{Name: "quote", Category: "basic"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"text", "quote"}, typeNames(cat.Types()))

	_, err = NewCatalogFromSource(context.Background(), staticSource{err: errors.New("offline")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")

	_, err = NewCatalogFromSource(context.Background(), nil)
	assert.ErrorIs(t, err, errMissingCatalog)
}

func TestCatalogListBlockTypesSatisfiesSource(t *testing.T) {
	var src CatalogSource = NewCatalog()
	defs, err := src.ListBlockTypes(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, defs)
}
