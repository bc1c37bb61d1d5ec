package services

import (
	"context"
	"testing"
	"time"

	"glyphAPI/internal/geo"
	"glyphAPI/internal/repository/memory"
	"glyphAPI/internal/types/glyph"

	"github.com/stretchr/testify/require"
)

var (
	nyc     = geo.Point{Lat: 40.7128, Lng: -74.0060}
	nycNear = geo.Point{Lat: 40.7129, Lng: -74.0061}
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advanceDays(n int) { c.t = c.t.AddDate(0, 0, n) }

type testEnv struct {
	store     *memory.Store
	clock     *testClock
	glyphs    *GlyphService
	streaks   *StreakService
	discovery *DiscoveryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)}
	store := memory.New()

	glyphs := NewGlyphService(store, nil, 10)
	glyphs.now = clock.now

	streaks := NewStreakService(store, time.UTC)
	streaks.now = clock.now

	disc := NewDiscoveryService(glyphs, store, streaks, 50, 5000)
	disc.now = clock.now

	return &testEnv{store: store, clock: clock, glyphs: glyphs, streaks: streaks, discovery: disc}
}

func (e *testEnv) createGlyph(t *testing.T, owner string, at geo.Point, text string) *glyph.Glyph {
	t.Helper()
	g, err := e.glyphs.CreateGlyph(context.Background(), owner, glyph.CreateGlyphRequest{
		Latitude:  at.Lat,
		Longitude: at.Lng,
		Text:      text,
		Category:  glyph.CategoryHint,
	})
	require.NoError(t, err)
	return g
}
