package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"glyphAPI/internal/repository"
	"glyphAPI/internal/types/discovery"
	"glyphAPI/internal/types/glyph"
	"glyphAPI/internal/types/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGlyph(t *testing.T, s *Store, id string, active bool) glyph.Glyph {
	t.Helper()
	g, err := s.CreateGlyph(context.Background(), glyph.Glyph{
		ID: id, Latitude: 1, Longitude: 1, Text: "hi", Category: glyph.CategoryHint, IsActive: active,
	})
	require.NoError(t, err)
	return *g
}

func TestInsertDiscoveryIsUniquePerUserAndGlyph(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedGlyph(t, s, "g1", true)

	first, created, err := s.InsertDiscovery(ctx, discovery.Discovery{ID: "d1", UserID: "u1", GlyphID: "g1"})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := s.InsertDiscovery(ctx, discovery.Discovery{ID: "d2", UserID: "u1", GlyphID: "g1"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	_, created, err = s.InsertDiscovery(ctx, discovery.Discovery{ID: "d3", UserID: "u2", GlyphID: "g1"})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestInsertDiscoveryConcurrentCreatesOnce(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := s.InsertDiscovery(ctx, discovery.Discovery{ID: "d", UserID: "u1", GlyphID: "g1"})
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, createdCount)
}

func TestInactiveGlyphsAreHidden(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedGlyph(t, s, "active", true)
	seedGlyph(t, s, "gone", false)

	_, err := s.GetActiveGlyph(ctx, "gone")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := s.ListActiveGlyphs(ctx, glyph.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "active", list[0].ID)

	_, _, err = s.InsertDiscovery(ctx, discovery.Discovery{ID: "d", UserID: "u1", GlyphID: "gone"})
	require.NoError(t, err)
	discovered, err := s.ListDiscoveredGlyphs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, discovered)

	hits, err := s.ListDiscoveryCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestUpsertRatingRecomputesAggregate(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedGlyph(t, s, "g1", true)

	_, err := s.UpsertRating(ctx, glyph.Rating{GlyphID: "g1", UserID: "u1", Rating: 5})
	require.NoError(t, err)
	_, err = s.UpsertRating(ctx, glyph.Rating{GlyphID: "g1", UserID: "u2", Rating: 2})
	require.NoError(t, err)
	_, err = s.UpsertRating(ctx, glyph.Rating{GlyphID: "g1", UserID: "u1", Rating: 4})
	require.NoError(t, err)

	g, err := s.GetActiveGlyph(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 2, g.RatingCount)
	assert.InDelta(t, 3.0, g.RatingAverage, 1e-9)
}

func TestCommentsResolveUsernameAndAuthorship(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.UpsertUser(ctx, user.User{ID: "u1", Username: "mira"}))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := s.CreateComment(ctx, glyph.Comment{ID: "c1", GlyphID: "g1", UserID: "u1", Comment: "old", CreatedAt: base})
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, glyph.Comment{ID: "c2", GlyphID: "g1", UserID: "ghost", Comment: "new", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	comments, err := s.ListComments(ctx, "g1", 10)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c2", comments[0].ID)
	assert.Equal(t, user.AnonymousUsername, comments[0].Username)
	assert.Equal(t, "mira", comments[1].Username)

	limited, err := s.ListComments(ctx, "g1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = s.UpdateComment(ctx, "c1", "ghost", "hijack")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.DeleteComment(ctx, "c1", "ghost"), repository.ErrNotFound)
	assert.NoError(t, s.DeleteComment(ctx, "c1", "u1"))
}
