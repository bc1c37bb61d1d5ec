package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"glyphAPI/internal/repository"
	"glyphAPI/internal/types/glyph"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCommentLimit = 50
	MaxCommentLimit     = 100
)

type InteractionService struct {
	glyphs ActiveGlyphLister
	store  InteractionStore
	cache  GlyphCache
	now    func() time.Time
}

// NewInteractionService builds the ratings and comments service. cache may be nil.
func NewInteractionService(glyphs ActiveGlyphLister, store InteractionStore, cache GlyphCache) *InteractionService {
	return &InteractionService{glyphs: glyphs, store: store, cache: cache, now: time.Now}
}

// RateGlyph sets userID's rating of the glyph, replacing any earlier one.
func (s *InteractionService) RateGlyph(ctx context.Context, glyphID, userID string, rating int) (*glyph.Rating, error) {
	if rating < glyph.MinRating || rating > glyph.MaxRating {
		return nil, ErrInvalidRating
	}
	if _, err := s.glyphs.GetGlyph(ctx, glyphID); err != nil {
		return nil, err
	}

	saved, err := s.store.UpsertRating(ctx, glyph.Rating{GlyphID: glyphID, UserID: userID, Rating: rating})
	if err != nil {
		return nil, fmt.Errorf("failed to rate glyph: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("Active glyph cache invalidation failed")
		}
	}
	log.Debug().Str("glyph_id", glyphID).Str("user_id", userID).Int("rating", rating).Msg("Glyph rated")
	return saved, nil
}

// GetUserRating returns nil without error when the user has not rated the glyph.
func (s *InteractionService) GetUserRating(ctx context.Context, glyphID, userID string) (*glyph.Rating, error) {
	if !validID(glyphID) {
		return nil, ErrGlyphNotFound
	}
	r, err := s.store.GetRating(ctx, glyphID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return r, nil
}

func (s *InteractionService) AddComment(ctx context.Context, glyphID, userID, text string) (*glyph.Comment, error) {
	text, ok := normalizeText(text, glyph.MaxCommentLength)
	if !ok {
		return nil, fmt.Errorf("%w: comment must be 1 to %d characters", ErrInvalidText, glyph.MaxCommentLength)
	}
	if _, err := s.glyphs.GetGlyph(ctx, glyphID); err != nil {
		return nil, err
	}

	c, err := s.store.CreateComment(ctx, glyph.Comment{
		ID:        uuid.New().String(),
		GlyphID:   glyphID,
		UserID:    userID,
		Comment:   text,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return c, nil
}

// ListComments returns newest first. limit <= 0 means the default; it is capped at MaxCommentLimit.
func (s *InteractionService) ListComments(ctx context.Context, glyphID string, limit int) ([]glyph.Comment, error) {
	if !validID(glyphID) {
		return nil, ErrGlyphNotFound
	}
	switch {
	case limit <= 0:
		limit = DefaultCommentLimit
	case limit > MaxCommentLimit:
		limit = MaxCommentLimit
	}

	comments, err := s.store.ListComments(ctx, glyphID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (s *InteractionService) UpdateComment(ctx context.Context, commentID, userID, text string) (*glyph.Comment, error) {
	text, ok := normalizeText(text, glyph.MaxCommentLength)
	if !ok {
		return nil, fmt.Errorf("%w: comment must be 1 to %d characters", ErrInvalidText, glyph.MaxCommentLength)
	}
	if !validID(commentID) {
		return nil, ErrCommentNotFound
	}

	c, err := s.store.UpdateComment(ctx, commentID, userID, text)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return c, nil
}

func (s *InteractionService) DeleteComment(ctx context.Context, commentID, userID string) error {
	if !validID(commentID) {
		return ErrCommentNotFound
	}
	if err := s.store.DeleteComment(ctx, commentID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
