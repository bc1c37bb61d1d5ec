package repository

import (
	"context"
	"errors"
	"fmt"

	"glyphAPI/internal/types/streak"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const streakColumns = `user_id, current_streak, longest_streak, last_discovery_date, total_discovery_days, updated_at`

type StreakRepository struct {
	db *pgxpool.Pool
}

func NewStreakRepository(db *pgxpool.Pool) *StreakRepository {
	return &StreakRepository{db: db}
}

func scanStreak(row pgx.Row) (*streak.Streak, error) {
	var s streak.Streak
	err := row.Scan(&s.UserID, &s.CurrentStreak, &s.LongestStreak, &s.LastDiscoveryDate, &s.TotalDiscoveryDays, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StreakRepository) GetStreak(ctx context.Context, userID string) (*streak.Streak, error) {
	s, err := scanStreak(r.db.QueryRow(ctx, `SELECT `+streakColumns+` FROM user_streaks WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get streak for %s: %w", userID, err)
	}
	return s, nil
}

// UpsertStreak writes s keyed by user_id, creating the row on first use.
func (r *StreakRepository) UpsertStreak(ctx context.Context, s streak.Streak) (*streak.Streak, error) {
	query := `
		INSERT INTO user_streaks (user_id, current_streak, longest_streak, last_discovery_date, total_discovery_days, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_discovery_date = EXCLUDED.last_discovery_date,
			total_discovery_days = EXCLUDED.total_discovery_days,
			updated_at = NOW()
		RETURNING ` + streakColumns

	saved, err := scanStreak(r.db.QueryRow(ctx, query,
		s.UserID, s.CurrentStreak, s.LongestStreak, s.LastDiscoveryDate, s.TotalDiscoveryDays,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert streak for %s: %w", s.UserID, err)
	}
	return saved, nil
}
