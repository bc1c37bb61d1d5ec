// Package memory is a process-local store with the same uniqueness and
// visibility rules as the Postgres repositories.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"glyphAPI/internal/repository"
	"glyphAPI/internal/types/discovery"
	"glyphAPI/internal/types/glyph"
	"glyphAPI/internal/types/streak"
	"glyphAPI/internal/types/user"
)

type ratingKey struct{ glyphID, userID string }

type discoveryKey struct{ userID, glyphID string }

type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	glyphs      map[string]glyph.Glyph
	discoveries map[discoveryKey]discovery.Discovery
	streaks     map[string]streak.Streak
	ratings     map[ratingKey]glyph.Rating
	comments    map[string]glyph.Comment
	users       map[string]user.User
}

func New() *Store {
	return &Store{
		now:         time.Now,
		glyphs:      make(map[string]glyph.Glyph),
		discoveries: make(map[discoveryKey]discovery.Discovery),
		streaks:     make(map[string]streak.Streak),
		ratings:     make(map[ratingKey]glyph.Rating),
		comments:    make(map[string]glyph.Comment),
		users:       make(map[string]user.User),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateGlyph(_ context.Context, g glyph.Glyph) (*glyph.Glyph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	s.glyphs[g.ID] = g
	return &g, nil
}

func (s *Store) GetActiveGlyph(_ context.Context, id string) (*glyph.Glyph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.glyphs[id]
	if !ok || !(glyph.Filter{}).Matches(g) {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (s *Store) ListActiveGlyphs(_ context.Context, filter glyph.Filter) ([]glyph.Glyph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]glyph.Glyph, 0)
	for _, g := range s.glyphs {
		if filter.Matches(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SaveGlyph(_ context.Context, g glyph.Glyph) (*glyph.Glyph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.glyphs[g.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	now := s.now()
	current.Text = g.Text
	current.Category = g.Category
	current.IsActive = g.IsActive
	current.PhotoURL = g.PhotoURL
	current.UpdatedAt = &now
	s.glyphs[g.ID] = current
	return &current, nil
}

func (s *Store) InsertDiscovery(_ context.Context, d discovery.Discovery) (*discovery.Discovery, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := discoveryKey{d.UserID, d.GlyphID}
	if existing, ok := s.discoveries[key]; ok {
		return &existing, false, nil
	}
	if d.DiscoveredAt.IsZero() {
		d.DiscoveredAt = s.now()
	}
	s.discoveries[key] = d
	return &d, true, nil
}

func (s *Store) DiscoveryExists(_ context.Context, userID, glyphID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.discoveries[discoveryKey{userID, glyphID}]
	return ok, nil
}

func (s *Store) ListDiscoveredGlyphIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{})
	for key := range s.discoveries {
		if key.userID == userID {
			ids[key.glyphID] = struct{}{}
		}
	}
	return ids, nil
}

func (s *Store) ListDiscoveredGlyphs(_ context.Context, userID string) ([]discovery.DiscoveredGlyph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]discovery.DiscoveredGlyph, 0)
	for key, d := range s.discoveries {
		if key.userID != userID {
			continue
		}
		g, ok := s.glyphs[d.GlyphID]
		if !ok || !(glyph.Filter{}).Matches(g) {
			continue
		}
		out = append(out, discovery.DiscoveredGlyph{
			Glyph:             g,
			DiscoveredAt:      d.DiscoveredAt,
			DiscoveryLocation: d.Location(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DiscoveredAt.After(out[j].DiscoveredAt) })
	return out, nil
}

func (s *Store) ListDiscoveryCategories(_ context.Context, userID string) ([]discovery.CategoryHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hits := make([]discovery.CategoryHit, 0)
	for key, d := range s.discoveries {
		if key.userID != userID {
			continue
		}
		g, ok := s.glyphs[d.GlyphID]
		if !ok {
			continue
		}
		hits = append(hits, discovery.CategoryHit{Category: g.Category, DiscoveredAt: d.DiscoveredAt})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].DiscoveredAt.Before(hits[j].DiscoveredAt) })
	return hits, nil
}

func (s *Store) GetStreak(_ context.Context, userID string) (*streak.Streak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.streaks[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (s *Store) UpsertStreak(_ context.Context, st streak.Streak) (*streak.Streak, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	st.UpdatedAt = &now
	s.streaks[st.UserID] = st
	return &st, nil
}

func (s *Store) UpsertRating(_ context.Context, r glyph.Rating) (*glyph.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ratingKey{r.GlyphID, r.UserID}
	now := s.now()
	if existing, ok := s.ratings[key]; ok {
		r.CreatedAt = existing.CreatedAt
	} else {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	s.ratings[key] = r

	if g, ok := s.glyphs[r.GlyphID]; ok {
		sum, count := 0, 0
		for k, rt := range s.ratings {
			if k.glyphID == r.GlyphID {
				sum += rt.Rating
				count++
			}
		}
		g.RatingCount = count
		g.RatingAverage = float64(sum) / float64(count)
		s.glyphs[r.GlyphID] = g
	}
	return &r, nil
}

func (s *Store) GetRating(_ context.Context, glyphID, userID string) (*glyph.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[ratingKey{glyphID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *Store) withUsername(c glyph.Comment) glyph.Comment {
	c.Username = user.AnonymousUsername
	if u, ok := s.users[c.UserID]; ok && u.Username != "" {
		c.Username = u.Username
	}
	return c
}

func (s *Store) CreateComment(_ context.Context, c glyph.Comment) (*glyph.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.comments[c.ID] = c
	out := s.withUsername(c)
	return &out, nil
}

func (s *Store) ListComments(_ context.Context, glyphID string, limit int) ([]glyph.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]glyph.Comment, 0)
	for _, c := range s.comments {
		if c.GlyphID == glyphID {
			out = append(out, s.withUsername(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpdateComment(_ context.Context, id, userID, text string) (*glyph.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrNotFound
	}
	now := s.now()
	c.Comment = text
	c.UpdatedAt = &now
	s.comments[id] = c
	out := s.withUsername(c)
	return &out, nil
}

func (s *Store) DeleteComment(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok || c.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *Store) UpsertUser(_ context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if existing, ok := s.users[u.ID]; ok {
		u.CreatedAt = existing.CreatedAt
	} else {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}
