package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"glyphAPI/internal/geo"
	"glyphAPI/internal/metrics"
	"glyphAPI/internal/types/discovery"
	"glyphAPI/internal/types/glyph"
	"glyphAPI/internal/types/streak"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type DiscoveryService struct {
	glyphs          ActiveGlyphLister
	store           DiscoveryStore
	streaks         StreakRecorder
	discoveryRadius float64
	maxSearchRadius float64
	now             func() time.Time
}

func NewDiscoveryService(glyphs ActiveGlyphLister, store DiscoveryStore, streaks StreakRecorder, discoveryRadius, maxSearchRadius float64) *DiscoveryService {
	return &DiscoveryService{
		glyphs:          glyphs,
		store:           store,
		streaks:         streaks,
		discoveryRadius: discoveryRadius,
		maxSearchRadius: maxSearchRadius,
		now:             time.Now,
	}
}

func (s *DiscoveryService) DiscoveryRadius() float64 {
	return s.discoveryRadius
}

func (s *DiscoveryService) checkRadius(radius float64) error {
	if !(radius > 0) || radius > s.maxSearchRadius {
		return fmt.Errorf("%w: %.0fm, must be in (0, %.0f]", ErrInvalidRadius, radius, s.maxSearchRadius)
	}
	return nil
}

// LoadCandidates returns the active glyphs within radius meters of center.
func (s *DiscoveryService) LoadCandidates(ctx context.Context, center geo.Point, radius float64) ([]glyph.Glyph, error) {
	if !center.Valid() {
		return nil, ErrInvalidCoordinate
	}
	if err := s.checkRadius(radius); err != nil {
		return nil, err
	}

	active, err := s.glyphs.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	candidates := make([]glyph.Glyph, 0)
	for _, g := range active {
		if s.IsDiscoverable(center, g, radius) {
			candidates = append(candidates, g)
		}
	}
	return candidates, nil
}

// Nearby is LoadCandidates annotated for display and sorted nearest first.
func (s *DiscoveryService) Nearby(ctx context.Context, center geo.Point, radius float64) ([]glyph.NearbyGlyph, error) {
	candidates, err := s.LoadCandidates(ctx, center, radius)
	if err != nil {
		return nil, err
	}

	nearby := make([]glyph.NearbyGlyph, 0, len(candidates))
	for _, g := range candidates {
		d := geo.Distance(center, g.Location())
		b := geo.Bearing(center, g.Location())
		nearby = append(nearby, glyph.NearbyGlyph{
			Glyph:          g,
			DistanceMeters: d,
			DistanceStr:    geo.FormatDistance(d),
			Bearing:        b,
			Compass:        geo.BearingToCompass(b),
			Discoverable:   d <= s.DiscoveryRadius(),
		})
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].DistanceMeters < nearby[j].DistanceMeters })
	return nearby, nil
}

func (s *DiscoveryService) IsDiscoverable(user geo.Point, g glyph.Glyph, radius float64) bool {
	return g.IsActive && geo.IsWithinRadius(user, g.Location(), radius)
}

func (s *DiscoveryService) HasDiscovered(ctx context.Context, userID, glyphID string) (bool, error) {
	if !validID(glyphID) {
		return false, nil
	}
	found, err := s.store.DiscoveryExists(ctx, userID, glyphID)
	if err != nil {
		return false, fmt.Errorf("failed to check discovery: %w", err)
	}
	return found, nil
}

// RecordDiscovery stores the (user, glyph) pair at most once. A repeat is not
// an error: it returns OutcomeAlreadyRecorded with the original row.
func (s *DiscoveryService) RecordDiscovery(ctx context.Context, userID, glyphID string, at geo.Point) (*discovery.RecordResult, error) {
	if !at.Valid() {
		return nil, ErrInvalidCoordinate
	}
	if !validID(glyphID) {
		return nil, ErrGlyphNotFound
	}

	d, created, err := s.store.InsertDiscovery(ctx, discovery.Discovery{
		ID:           uuid.New().String(),
		UserID:       userID,
		GlyphID:      glyphID,
		Latitude:     at.Lat,
		Longitude:    at.Lng,
		DiscoveredAt: s.now(),
	})
	if err != nil {
		metrics.Discoveries.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to record discovery: %w", err)
	}

	outcome := discovery.OutcomeAlreadyRecorded
	if created {
		outcome = discovery.OutcomeCreated
	}
	metrics.Discoveries.WithLabelValues(string(outcome)).Inc()
	log.Debug().Str("user_id", userID).Str("glyph_id", glyphID).Str("outcome", string(outcome)).Msg("Discovery recorded")

	return &discovery.RecordResult{Outcome: outcome, Discovery: *d}, nil
}

func (s *DiscoveryService) GetUserDiscoveries(ctx context.Context, userID string) ([]discovery.DiscoveredGlyph, error) {
	out, err := s.store.ListDiscoveredGlyphs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get discoveries: %w", err)
	}
	return out, nil
}

func (s *DiscoveryService) GetDiscoveryStats(ctx context.Context, userID string) (*discovery.Stats, error) {
	hits, err := s.store.ListDiscoveryCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get discovery stats: %w", err)
	}

	stats := &discovery.Stats{
		TotalDiscoveries:     len(hits),
		CategoriesDiscovered: make(map[glyph.Category]int),
	}
	for _, h := range hits {
		stats.CategoriesDiscovered[h.Category]++
		at := h.DiscoveredAt
		if stats.FirstDiscoveryAt == nil || at.Before(*stats.FirstDiscoveryAt) {
			stats.FirstDiscoveryAt = &at
		}
		if stats.LastDiscoveryAt == nil || at.After(*stats.LastDiscoveryAt) {
			stats.LastDiscoveryAt = &at
		}
	}
	return stats, nil
}

// SearchDiscoveredGlyphs matches term case-insensitively against text and
// category of the user's discovered glyphs. An empty term matches everything.
func (s *DiscoveryService) SearchDiscoveredGlyphs(ctx context.Context, userID, term string) ([]discovery.DiscoveredGlyph, error) {
	all, err := s.GetUserDiscoveries(ctx, userID)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return all, nil
	}

	matches := make([]discovery.DiscoveredGlyph, 0)
	for _, dg := range all {
		if strings.Contains(strings.ToLower(dg.Text), term) || strings.Contains(strings.ToLower(string(dg.Category)), term) {
			matches = append(matches, dg)
		}
	}
	return matches, nil
}

// AutoDiscoverNearby records every in-range glyph the user has not yet
// discovered and returns only the ones created by this call. It stops at the
// first store failure and returns the discoveries made so far with the error.
func (s *DiscoveryService) AutoDiscoverNearby(ctx context.Context, userID string, at geo.Point, radius float64) ([]discovery.NewDiscovery, error) {
	candidates, err := s.LoadCandidates(ctx, at, radius)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []discovery.NewDiscovery{}, nil
	}

	known, err := s.store.ListDiscoveredGlyphIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load discovered glyphs: %w", err)
	}

	found := make([]discovery.NewDiscovery, 0)
	for _, g := range candidates {
		if _, ok := known[g.ID]; ok {
			continue
		}
		// Candidates may come from a cached snapshot; confirm the glyph is still active.
		current, err := s.glyphs.GetGlyph(ctx, g.ID)
		if errors.Is(err, ErrGlyphNotFound) {
			continue
		}
		if err != nil {
			return found, fmt.Errorf("failed to auto-discover: %w", err)
		}
		res, err := s.RecordDiscovery(ctx, userID, current.ID, at)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("glyph_id", g.ID).Int("recorded", len(found)).Msg("Auto discovery failed")
			return found, fmt.Errorf("failed to auto-discover: %w", err)
		}
		if res.Created() {
			found = append(found, discovery.NewDiscovery{Glyph: *current, Discovery: res.Discovery})
		}
	}
	return found, nil
}

// Discover is the tap-to-discover flow: range check, record, then one streak
// event if the discovery is new. A streak failure does not fail the discovery.
func (s *DiscoveryService) Discover(ctx context.Context, userID, glyphID string, at geo.Point) (*discovery.DiscoverResult, error) {
	if !at.Valid() {
		return nil, ErrInvalidCoordinate
	}
	g, err := s.glyphs.GetGlyph(ctx, glyphID)
	if err != nil {
		return nil, err
	}
	if !s.IsDiscoverable(at, *g, s.discoveryRadius) {
		metrics.Discoveries.WithLabelValues("out_of_range").Inc()
		return nil, fmt.Errorf("%w: %s away, must be within %s",
			ErrOutOfRange, geo.FormatDistance(geo.Distance(at, g.Location())), geo.FormatDistance(s.discoveryRadius))
	}

	rec, err := s.RecordDiscovery(ctx, userID, g.ID, at)
	if err != nil {
		return nil, err
	}

	result := &discovery.DiscoverResult{RecordResult: *rec, Glyph: *g}
	if rec.Created() {
		result.Streak, result.StreakError = s.recordStreak(ctx, userID)
	}
	return result, nil
}

// Sweep auto-discovers at the discovery radius and counts the day once if anything was new.
// On a store failure the partial result is returned alongside the error; discoveries
// already persisted still count toward the streak.
func (s *DiscoveryService) Sweep(ctx context.Context, userID string, at geo.Point) (*discovery.SweepResult, error) {
	found, err := s.AutoDiscoverNearby(ctx, userID, at, s.discoveryRadius)
	if err != nil && len(found) == 0 {
		return nil, err
	}

	result := &discovery.SweepResult{Discovered: found}
	if len(found) > 0 {
		result.Streak, result.StreakError = s.recordStreak(ctx, userID)
	}
	return result, err
}

func (s *DiscoveryService) recordStreak(ctx context.Context, userID string) (*streak.Update, string) {
	if s.streaks == nil {
		return nil, ""
	}
	update, err := s.streaks.RecordDiscoveryEvent(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Streak update after discovery failed")
		return nil, "streak update failed"
	}
	return update, ""
}
