package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"glyphAPI/internal/achievement"
	"glyphAPI/internal/metrics"
	"glyphAPI/internal/repository"
	"glyphAPI/internal/types/streak"

	"github.com/rs/zerolog/log"
)

const streakLockStripes = 64

type StreakService struct {
	store StreakStore
	loc   *time.Location
	now   func() time.Time

	// read-modify-write of one user's row is serialized within this process
	locks [streakLockStripes]sync.Mutex
}

func NewStreakService(store StreakStore, loc *time.Location) *StreakService {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakService{store: store, loc: loc, now: time.Now}
}

func (s *StreakService) today() time.Time {
	return streak.DateOf(s.now(), s.loc)
}

func (s *StreakService) lock(userID string) func() {
	h := fnv.New32a()
	h.Write([]byte(userID))
	m := &s.locks[h.Sum32()%streakLockStripes]
	m.Lock()
	return m.Unlock
}

// GetUserStreak returns the stored streak, or the zero state for a user
// without a row. The zero state is not persisted.
func (s *StreakService) GetUserStreak(ctx context.Context, userID string) (*streak.Streak, error) {
	st, err := s.store.GetStreak(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			empty := streak.Empty(userID)
			return &empty, nil
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return st, nil
}

// RecordDiscoveryEvent counts today for userID. A second call on the same day
// is a no-op and reports Counted=false.
func (s *StreakService) RecordDiscoveryEvent(ctx context.Context, userID string) (*streak.Update, error) {
	unlock := s.lock(userID)
	defer unlock()

	before, err := s.GetUserStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	after, transition := before.Advance(s.today())
	if transition == streak.TransitionSameDay {
		metrics.StreakUpdates.WithLabelValues(string(transition)).Inc()
		update := streak.NewUpdate(*before, *before, transition)
		return &update, nil
	}

	saved, err := s.store.UpsertStreak(ctx, after)
	if err != nil {
		return nil, fmt.Errorf("failed to save streak: %w", err)
	}
	metrics.StreakUpdates.WithLabelValues(string(transition)).Inc()

	update := streak.NewUpdate(*before, *saved, transition)
	event := log.Info().
		Str("user_id", userID).
		Str("transition", string(transition)).
		Int("current_streak", saved.CurrentStreak).
		Int("longest_streak", saved.LongestStreak)
	if crossed := achievement.Crossed(before.LongestStreak, saved.LongestStreak); len(crossed) > 0 {
		event = event.Ints("milestones", crossed)
	}
	event.Msg("Streak updated")

	return &update, nil
}

// CheckAndReconcile zeroes a lapsed streak. It never fails: a read error
// yields the zero state and a write error yields the state as read.
func (s *StreakService) CheckAndReconcile(ctx context.Context, userID string) (*streak.Streak, error) {
	unlock := s.lock(userID)
	defer unlock()

	st, err := s.GetUserStreak(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Streak reconciliation read failed")
		empty := streak.Empty(userID)
		return &empty, nil
	}
	if !st.Lapsed(s.today()) {
		return st, nil
	}

	reset := *st
	reset.CurrentStreak = 0
	saved, err := s.store.UpsertStreak(ctx, reset)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Streak reconciliation write failed")
		return st, nil
	}
	metrics.StreakUpdates.WithLabelValues(string(streak.TransitionReset)).Inc()
	log.Info().Str("user_id", userID).Int("lost_streak", st.CurrentStreak).Msg("Streak lapsed")
	return saved, nil
}

// Status reconciles the user's streak and adds the display fields.
func (s *StreakService) Status(ctx context.Context, userID string) (*streak.Status, error) {
	st, err := s.CheckAndReconcile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &streak.Status{
		Streak:          *st,
		DiscoveredToday: s.HasDiscoveredToday(*st),
		DaysUntilRisk:   s.DaysUntilRisk(*st),
		NextMilestone:   achievement.Next(st.LongestStreak),
		Message:         s.EncouragementMessage(*st),
	}, nil
}

func (s *StreakService) Achievements(ctx context.Context, userID string) ([]achievement.Milestone, error) {
	st, err := s.CheckAndReconcile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return achievement.ForStreak(st.CurrentStreak, st.LongestStreak), nil
}

func (s *StreakService) HasDiscoveredToday(st streak.Streak) bool {
	return st.DiscoveredOn(s.today())
}

func (s *StreakService) EncouragementMessage(st streak.Streak) string {
	if !s.HasDiscoveredToday(st) {
		return "Discover a glyph today to continue your streak!"
	}
	switch n := st.CurrentStreak; {
	case n <= 1:
		return "Great start! Discovery streak begun."
	case n < 7:
		return fmt.Sprintf("%d day streak! Keep exploring.", n)
	case n < 30:
		return fmt.Sprintf("%d days strong! You're building a great habit.", n)
	default:
		return fmt.Sprintf("Amazing %d day streak! You're a true explorer.", n)
	}
}

// DaysUntilRisk is 0 while an active streak still needs today's discovery and
// nil when today is already counted or there is nothing to lose.
func (s *StreakService) DaysUntilRisk(st streak.Streak) *int {
	if s.HasDiscoveredToday(st) || st.CurrentStreak == 0 {
		return nil
	}
	zero := 0
	return &zero
}
