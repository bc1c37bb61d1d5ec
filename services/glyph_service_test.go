package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"glyphAPI/internal/repository/memory"
	"glyphAPI/internal/types/glyph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGlyphValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	poor := 25.0

	cases := []struct {
		name string
		req  glyph.CreateGlyphRequest
		want error
	}{
		{"bad latitude", glyph.CreateGlyphRequest{Latitude: 95, Text: "x", Category: glyph.CategoryHint}, ErrInvalidCoordinate},
		{"empty text", glyph.CreateGlyphRequest{Text: "   ", Category: glyph.CategoryHint}, ErrInvalidText},
		{"long text", glyph.CreateGlyphRequest{Text: strings.Repeat("a", 281), Category: glyph.CategoryHint}, ErrInvalidText},
		{"bad category", glyph.CreateGlyphRequest{Text: "x", Category: "Gossip"}, ErrInvalidCategory},
		{"poor accuracy", glyph.CreateGlyphRequest{Text: "x", Category: glyph.CategoryHint, AccuracyMeters: &poor}, ErrInsufficientAccuracy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.glyphs.CreateGlyph(ctx, "author", tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, IsValidation(err))
		})
	}

	list, err := env.store.ListActiveGlyphs(ctx, glyph.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateGlyphTrimsAndAcceptsMaxLength(t *testing.T) {
	env := newTestEnv(t)
	text := strings.Repeat("é", glyph.MaxTextLength)

	g, err := env.glyphs.CreateGlyph(context.Background(), "author", glyph.CreateGlyphRequest{
		Latitude: 1, Longitude: 2, Text: "  " + text + "\n", Category: glyph.CategorySecret,
	})
	require.NoError(t, err)
	assert.Equal(t, text, g.Text)
	assert.True(t, g.IsActive)
	require.NotNil(t, g.UserID)
	assert.Equal(t, "author", *g.UserID)
}

func TestCreateAnonymousGlyphHasNoOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g, err := env.glyphs.CreateGlyph(ctx, "author", glyph.CreateGlyphRequest{
		Latitude: 1, Longitude: 2, Text: "who wrote this", Category: glyph.CategoryLore, Anonymous: true,
	})
	require.NoError(t, err)
	assert.Nil(t, g.UserID)

	assert.ErrorIs(t, env.glyphs.DeleteGlyph(ctx, "author", g.ID), ErrNotOwner)
}

func TestUpdateAndDeleteRequireOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.createGlyph(t, "author", nyc, "original")

	newText := "edited"
	_, err := env.glyphs.UpdateGlyph(ctx, "intruder", g.ID, glyph.UpdateGlyphRequest{Text: &newText})
	assert.ErrorIs(t, err, ErrNotOwner)

	cat := glyph.CategoryPraise
	updated, err := env.glyphs.UpdateGlyph(ctx, "author", g.ID, glyph.UpdateGlyphRequest{Text: &newText, Category: &cat})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)
	assert.Equal(t, glyph.CategoryPraise, updated.Category)
	assert.NotNil(t, updated.UpdatedAt)

	assert.ErrorIs(t, env.glyphs.DeleteGlyph(ctx, "intruder", g.ID), ErrNotOwner)
	require.NoError(t, env.glyphs.DeleteGlyph(ctx, "author", g.ID))

	_, err = env.glyphs.GetGlyph(ctx, g.ID)
	assert.ErrorIs(t, err, ErrGlyphNotFound)
	assert.ErrorIs(t, env.glyphs.DeleteGlyph(ctx, "author", g.ID), ErrGlyphNotFound)
}

func TestListGlyphsFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGlyph(t, "alice", nyc, "hint by alice")
	_, err := env.glyphs.CreateGlyph(ctx, "bob", glyph.CreateGlyphRequest{
		Latitude: nyc.Lat, Longitude: nyc.Lng, Text: "warning by bob", Category: glyph.CategoryWarning,
	})
	require.NoError(t, err)

	all, err := env.glyphs.ListGlyphs(ctx, glyph.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cat := glyph.CategoryWarning
	warnings, err := env.glyphs.ListGlyphs(ctx, glyph.Filter{Category: &cat})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "warning by bob", warnings[0].Text)

	alice := "alice"
	mine, err := env.glyphs.ListGlyphs(ctx, glyph.Filter{UserID: &alice})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "hint by alice", mine[0].Text)

	bad := glyph.Category("nope")
	_, err = env.glyphs.ListGlyphs(ctx, glyph.Filter{Category: &bad})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

type fakeCache struct {
	snapshot    []glyph.Glyph
	has         bool
	getErr      error
	sets        int
	invalidates int
}

func (f *fakeCache) GetActive(context.Context) ([]glyph.Glyph, bool, error) {
	return f.snapshot, f.has, f.getErr
}

func (f *fakeCache) SetActive(_ context.Context, glyphs []glyph.Glyph) error {
	f.sets++
	f.snapshot, f.has = glyphs, true
	return nil
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.invalidates++
	f.snapshot, f.has = nil, false
	return nil
}

func TestListActiveUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := &fakeCache{}
	svc := NewGlyphService(memory.New(), cache, 10)

	_, err := svc.CreateGlyph(ctx, "author", glyph.CreateGlyphRequest{Latitude: 1, Longitude: 1, Text: "a", Category: glyph.CategoryHint})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidates)

	first, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 1)
	assert.Equal(t, 1, cache.sets, "served from cache")
}

func TestListActiveFallsBackWhenCacheFails(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cache := &fakeCache{getErr: errors.New("redis down")}
	svc := NewGlyphService(store, cache, 10)

	_, err := svc.CreateGlyph(ctx, "author", glyph.CreateGlyphRequest{Latitude: 1, Longitude: 1, Text: "a", Category: glyph.CategoryHint})
	require.NoError(t, err)

	glyphs, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, glyphs, 1)
}
