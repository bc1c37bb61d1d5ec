package streak

import (
	"time"
)

const dateLayout = "2006-01-02"

type Streak struct {
	UserID             string     `json:"user_id" db:"user_id"`
	CurrentStreak      int        `json:"current_streak" db:"current_streak"`
	LongestStreak      int        `json:"longest_streak" db:"longest_streak"`
	LastDiscoveryDate  *time.Time `json:"last_discovery_date" db:"last_discovery_date"`
	TotalDiscoveryDays int        `json:"total_discovery_days" db:"total_discovery_days"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Empty is the lazily-created zero state for a user with no streak row.
func Empty(userID string) Streak {
	return Streak{UserID: userID}
}

// DateOf truncates t to its calendar date in loc, expressed as midnight UTC so
// that it compares equal to a Postgres DATE scanned by pgx.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func sameDate(a *time.Time, b time.Time) bool {
	if a == nil {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DiscoveredOn reports whether the last counted discovery day is today.
func (s Streak) DiscoveredOn(today time.Time) bool {
	return sameDate(s.LastDiscoveryDate, today)
}

func (s Streak) DiscoveredDayBefore(today time.Time) bool {
	return sameDate(s.LastDiscoveryDate, today.AddDate(0, 0, -1))
}

// Lapsed reports whether an active streak has a gap of two or more days as of today.
func (s Streak) Lapsed(today time.Time) bool {
	if s.LastDiscoveryDate == nil || s.CurrentStreak == 0 {
		return false
	}
	return !s.DiscoveredOn(today) && !s.DiscoveredDayBefore(today)
}

type Transition string

const (
	TransitionSameDay   Transition = "same_day"
	TransitionContinued Transition = "continued"
	TransitionRestarted Transition = "restarted"
	TransitionReset     Transition = "reset"
)

// Advance applies a discovery on today to s. When today was already counted s
// is returned unchanged with TransitionSameDay.
func (s Streak) Advance(today time.Time) (Streak, Transition) {
	if s.DiscoveredOn(today) {
		return s, TransitionSameDay
	}

	next := s
	transition := TransitionRestarted
	if s.DiscoveredDayBefore(today) {
		next.CurrentStreak = s.CurrentStreak + 1
		transition = TransitionContinued
	} else {
		next.CurrentStreak = 1
	}

	next.TotalDiscoveryDays = s.TotalDiscoveryDays + 1
	date := today
	next.LastDiscoveryDate = &date
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	return next, transition
}

// Update describes the effect of one discovery event on a user's streak.
type Update struct {
	Streak          Streak     `json:"streak"`
	Transition      Transition `json:"transition"`
	Counted         bool       `json:"counted"`
	StreakIncreased bool       `json:"streak_increased"`
	NewRecord       bool       `json:"new_record"`
	IsNewStreak     bool       `json:"is_new_streak"`
}

func NewUpdate(before, after Streak, transition Transition) Update {
	return Update{
		Streak:          after,
		Transition:      transition,
		Counted:         transition != TransitionSameDay,
		StreakIncreased: after.CurrentStreak > before.CurrentStreak,
		NewRecord:       after.LongestStreak > before.LongestStreak,
		IsNewStreak:     after.CurrentStreak == 1 && before.CurrentStreak == 0,
	}
}

// Status is the reconciled streak plus the derived display fields.
type Status struct {
	Streak
	DiscoveredToday bool   `json:"discovered_today"`
	DaysUntilRisk   *int   `json:"days_until_risk"`
	NextMilestone   *int   `json:"next_milestone"`
	Message         string `json:"message"`
}
