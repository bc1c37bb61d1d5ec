package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"glyphAPI/internal/geo"
	"glyphAPI/internal/repository"
	"glyphAPI/internal/types/glyph"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type GlyphService struct {
	store          GlyphStore
	cache          GlyphCache
	maxGPSAccuracy float64
	now            func() time.Time
}

// NewGlyphService builds the authoring service. cache may be nil.
func NewGlyphService(store GlyphStore, cache GlyphCache, maxGPSAccuracy float64) *GlyphService {
	return &GlyphService{
		store:          store,
		cache:          cache,
		maxGPSAccuracy: maxGPSAccuracy,
		now:            time.Now,
	}
}

// validID rejects ids that cannot name a stored row so they never reach a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func normalizeText(text string, max int) (string, bool) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	return text, n > 0 && n <= max
}

func (s *GlyphService) CreateGlyph(ctx context.Context, userID string, req glyph.CreateGlyphRequest) (*glyph.Glyph, error) {
	if !geo.IsValidCoordinate(req.Latitude, req.Longitude) {
		return nil, ErrInvalidCoordinate
	}
	text, ok := normalizeText(req.Text, glyph.MaxTextLength)
	if !ok {
		return nil, fmt.Errorf("%w: must be 1 to %d characters", ErrInvalidText, glyph.MaxTextLength)
	}
	if !req.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
	}
	if req.AccuracyMeters != nil && !geo.IsAccuracySufficient(*req.AccuracyMeters, s.maxGPSAccuracy) {
		return nil, fmt.Errorf("%w: %.0fm (%s), need %.0fm or better",
			ErrInsufficientAccuracy, *req.AccuracyMeters, geo.AccuracyDescription(*req.AccuracyMeters), s.maxGPSAccuracy)
	}

	g := glyph.Glyph{
		ID:        uuid.New().String(),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Text:      text,
		Category:  req.Category,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if !req.Anonymous && userID != "" {
		owner := userID
		g.UserID = &owner
	}

	created, err := s.store.CreateGlyph(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("failed to create glyph: %w", err)
	}
	s.invalidate(ctx)

	log.Info().Str("glyph_id", created.ID).Str("category", string(created.Category)).Msg("Glyph created")
	return created, nil
}

func (s *GlyphService) GetGlyph(ctx context.Context, id string) (*glyph.Glyph, error) {
	if !validID(id) {
		return nil, ErrGlyphNotFound
	}
	g, err := s.store.GetActiveGlyph(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGlyphNotFound
		}
		return nil, fmt.Errorf("failed to get glyph: %w", err)
	}
	return g, nil
}

func (s *GlyphService) ListGlyphs(ctx context.Context, filter glyph.Filter) ([]glyph.Glyph, error) {
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, *filter.Category)
	}
	if filter.Category == nil && filter.UserID == nil {
		return s.ListActive(ctx)
	}
	glyphs, err := s.store.ListActiveGlyphs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list glyphs: %w", err)
	}
	return glyphs, nil
}

// ListActive returns every active glyph, served from the cache when possible.
func (s *GlyphService) ListActive(ctx context.Context) ([]glyph.Glyph, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetActive(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Active glyph cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	glyphs, err := s.store.ListActiveGlyphs(ctx, glyph.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list active glyphs: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetActive(ctx, glyphs); err != nil {
			log.Warn().Err(err).Msg("Active glyph cache write failed")
		}
	}
	return glyphs, nil
}

func (s *GlyphService) ownedGlyph(ctx context.Context, userID, id string) (*glyph.Glyph, error) {
	g, err := s.GetGlyph(ctx, id)
	if err != nil {
		return nil, err
	}
	if !g.OwnedBy(userID) {
		return nil, ErrNotOwner
	}
	return g, nil
}

func (s *GlyphService) UpdateGlyph(ctx context.Context, userID, id string, req glyph.UpdateGlyphRequest) (*glyph.Glyph, error) {
	var text string
	if req.Text != nil {
		var ok bool
		if text, ok = normalizeText(*req.Text, glyph.MaxTextLength); !ok {
			return nil, fmt.Errorf("%w: must be 1 to %d characters", ErrInvalidText, glyph.MaxTextLength)
		}
	}
	if req.Category != nil && !req.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, *req.Category)
	}

	g, err := s.ownedGlyph(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Text != nil {
		g.Text = text
	}
	if req.Category != nil {
		g.Category = *req.Category
	}
	return s.save(ctx, *g)
}

// DeleteGlyph deactivates the glyph. Discoveries, ratings and comments are kept.
func (s *GlyphService) DeleteGlyph(ctx context.Context, userID, id string) error {
	g, err := s.ownedGlyph(ctx, userID, id)
	if err != nil {
		return err
	}
	g.IsActive = false
	if _, err := s.save(ctx, *g); err != nil {
		return err
	}
	log.Info().Str("glyph_id", id).Str("user_id", userID).Msg("Glyph deactivated")
	return nil
}

func (s *GlyphService) AttachPhoto(ctx context.Context, userID, id, photoURL string) (*glyph.Glyph, error) {
	g, err := s.ownedGlyph(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	g.PhotoURL = &photoURL
	return s.save(ctx, *g)
}

func (s *GlyphService) DetachPhoto(ctx context.Context, userID, id string) (*glyph.Glyph, error) {
	g, err := s.ownedGlyph(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	g.PhotoURL = nil
	return s.save(ctx, *g)
}

func (s *GlyphService) save(ctx context.Context, g glyph.Glyph) (*glyph.Glyph, error) {
	saved, err := s.store.SaveGlyph(ctx, g)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGlyphNotFound
		}
		return nil, fmt.Errorf("failed to save glyph: %w", err)
	}
	s.invalidate(ctx)
	return saved, nil
}

func (s *GlyphService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Active glyph cache invalidation failed")
	}
}
