package services

import (
	"context"

	"glyphAPI/internal/types/discovery"
	"glyphAPI/internal/types/glyph"
	"glyphAPI/internal/types/streak"
	"glyphAPI/internal/types/user"
)

type GlyphStore interface {
	CreateGlyph(ctx context.Context, g glyph.Glyph) (*glyph.Glyph, error)
	GetActiveGlyph(ctx context.Context, id string) (*glyph.Glyph, error)
	ListActiveGlyphs(ctx context.Context, filter glyph.Filter) ([]glyph.Glyph, error)
	SaveGlyph(ctx context.Context, g glyph.Glyph) (*glyph.Glyph, error)
}

type DiscoveryStore interface {
	InsertDiscovery(ctx context.Context, d discovery.Discovery) (*discovery.Discovery, bool, error)
	DiscoveryExists(ctx context.Context, userID, glyphID string) (bool, error)
	ListDiscoveredGlyphIDs(ctx context.Context, userID string) (map[string]struct{}, error)
	ListDiscoveredGlyphs(ctx context.Context, userID string) ([]discovery.DiscoveredGlyph, error)
	ListDiscoveryCategories(ctx context.Context, userID string) ([]discovery.CategoryHit, error)
}

type StreakStore interface {
	GetStreak(ctx context.Context, userID string) (*streak.Streak, error)
	UpsertStreak(ctx context.Context, s streak.Streak) (*streak.Streak, error)
}

type InteractionStore interface {
	UpsertRating(ctx context.Context, r glyph.Rating) (*glyph.Rating, error)
	GetRating(ctx context.Context, glyphID, userID string) (*glyph.Rating, error)
	CreateComment(ctx context.Context, c glyph.Comment) (*glyph.Comment, error)
	ListComments(ctx context.Context, glyphID string, limit int) ([]glyph.Comment, error)
	UpdateComment(ctx context.Context, id, userID, text string) (*glyph.Comment, error)
	DeleteComment(ctx context.Context, id, userID string) error
}

type UserStore interface {
	UpsertUser(ctx context.Context, u user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Store is everything the services need from persistence.
type Store interface {
	GlyphStore
	DiscoveryStore
	StreakStore
	InteractionStore
	UserStore
	Ping(ctx context.Context) error
}

// GlyphCache is an optional snapshot of the active glyph set.
type GlyphCache interface {
	GetActive(ctx context.Context) ([]glyph.Glyph, bool, error)
	SetActive(ctx context.Context, glyphs []glyph.Glyph) error
	Invalidate(ctx context.Context) error
}

// ActiveGlyphLister supplies candidate glyphs to discovery.
type ActiveGlyphLister interface {
	ListActive(ctx context.Context) ([]glyph.Glyph, error)
	GetGlyph(ctx context.Context, id string) (*glyph.Glyph, error)
}

// StreakRecorder receives the single streak event per new discovery.
type StreakRecorder interface {
	RecordDiscoveryEvent(ctx context.Context, userID string) (*streak.Update, error)
}
