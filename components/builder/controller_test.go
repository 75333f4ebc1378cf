package builder

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerPreview(t *testing.T) {
	ctx := context.Background()
	session := NewSession(SessionOptions{})
	controller := NewController(session)
	assert.Same(t, session, controller.Session())

	_, err := controller.Preview(ctx, FormatHTML)
	assert.ErrorIs(t, err, ErrNoActiveLayout)

	_, err = SeedLayout(ctx, session, LayoutSettings{GridSystem: 12})
	require.NoError(t, err)

	html, err := controller.Preview(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, html.Format)
	assert.Equal(t, "text/html; charset=utf-8", html.ContentType)
	assert.Contains(t, html.Body, "Welcome aboard")

	text, err := controller.Preview(ctx, FormatText)
	require.NoError(t, err)
	assert.Contains(t, text.Body, "WELCOME ABOARD")
	assert.Contains(t, text.Body, "Get started: https://example.com/start")

	_, err = controller.Preview(ctx, "pdf")
	assert.Error(t, err)

	_, err = NewController(nil).Preview(ctx, FormatHTML)
	assert.ErrorIs(t, err, ErrNoActiveLayout)
}

func TestDocumentCacheExpires(t *testing.T) {
	now := time.Unix(0, 0)
	cache := NewDocumentCache(time.Minute)
	cache.now = func() time.Time { return now }
	renders := 0
	render := func() (string, error) {
		renders++
		return "body", nil
	}

	_, err := cache.GetOrRender("k", render)
	require.NoError(t, err)
	_, err = cache.GetOrRender("k", render)
	require.NoError(t, err)
	assert.Equal(t, 1, renders)

	now = now.Add(2 * time.Minute)
	_, err = cache.GetOrRender("k", render)
	require.NoError(t, err)
	assert.Equal(t, 2, renders)

	disabled := NewDocumentCache(0)
	_, _ = disabled.GetOrRender("k", render)
	_, _ = disabled.GetOrRender("k", render)
	assert.Equal(t, 4, renders)
	assert.Equal(t, 0, disabled.Len())
}

func TestDocumentCacheSweepsExpiredEntries(t *testing.T) {
	now := time.Unix(0, 0)
	cache := NewDocumentCache(time.Minute)
	cache.now = func() time.Time { return now }
	render := func() (string, error) { return "body", nil }

	for i := 0; i < 50; i++ {
		_, err := cache.GetOrRender(fmt.Sprintf("edit-%d", i), render)
		require.NoError(t, err)
	}
	assert.Equal(t, 50, cache.Len())

	now = now.Add(2 * time.Minute)
	_, err := cache.GetOrRender("latest", render)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())
}

func TestDocumentCacheEvictsOldestAtCapacity(t *testing.T) {
	now := time.Unix(0, 0)
	cache := NewDocumentCache(time.Hour)
	cache.maxEntries = 3
	cache.now = func() time.Time { return now }
	renders := map[string]int{}
	render := func(key string) func() (string, error) {
		return func() (string, error) {
			renders[key]++
			return key, nil
		}
	}

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("k%d", i)
		_, err := cache.GetOrRender(key, render(key))
		require.NoError(t, err)
		now = now.Add(time.Second)
	}
	assert.Equal(t, 3, cache.Len())

	_, err := cache.GetOrRender("k4", render("k4"))
	require.NoError(t, err)
	assert.Equal(t, 1, renders["k4"])
	_, err = cache.GetOrRender("k0", render("k0"))
	require.NoError(t, err)
	assert.Equal(t, 2, renders["k0"])
}
