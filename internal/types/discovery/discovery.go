package discovery

import (
	"time"

	"glyphAPI/internal/geo"
	"glyphAPI/internal/types/glyph"
	"glyphAPI/internal/types/streak"
)

type Discovery struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	GlyphID      string    `json:"glyph_id" db:"glyph_id"`
	Latitude     float64   `json:"discovery_location_lat" db:"discovery_location_lat"`
	Longitude    float64   `json:"discovery_location_lng" db:"discovery_location_lng"`
	DiscoveredAt time.Time `json:"discovered_at" db:"discovered_at"`
}

func (d Discovery) Location() geo.Point {
	return geo.Point{Lat: d.Latitude, Lng: d.Longitude}
}

// Outcome distinguishes a fresh insert from a duplicate of an existing (user, glyph) row.
type Outcome string

const (
	OutcomeCreated         Outcome = "created"
	OutcomeAlreadyRecorded Outcome = "already_recorded"
)

type RecordResult struct {
	Outcome   Outcome   `json:"outcome"`
	Discovery Discovery `json:"discovery"`
}

func (r RecordResult) Created() bool {
	return r.Outcome == OutcomeCreated
}

// DiscoveredGlyph is an active glyph joined with the user's discovery of it.
type DiscoveredGlyph struct {
	glyph.Glyph
	DiscoveredAt      time.Time `json:"discovered_at"`
	DiscoveryLocation geo.Point `json:"discovery_location"`
}

type CategoryHit struct {
	Category     glyph.Category
	DiscoveredAt time.Time
}

type Stats struct {
	TotalDiscoveries     int                    `json:"total_discoveries"`
	CategoriesDiscovered map[glyph.Category]int `json:"categories_discovered"`
	FirstDiscoveryAt     *time.Time             `json:"first_discovery_at"`
	LastDiscoveryAt      *time.Time             `json:"last_discovery_at"`
}

type NewDiscovery struct {
	Glyph     glyph.Glyph `json:"glyph"`
	Discovery Discovery   `json:"discovery"`
}

type LocationRequest struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

func (r LocationRequest) Point() geo.Point {
	return geo.NewPoint(r.Latitude, r.Longitude)
}

// DiscoverResult reports a proximity-triggered discovery and, when it counted, the streak change.
type DiscoverResult struct {
	RecordResult
	Glyph       glyph.Glyph    `json:"glyph"`
	Streak      *streak.Update `json:"streak,omitempty"`
	StreakError string         `json:"streak_error,omitempty"`
}

type SweepResult struct {
	Discovered  []NewDiscovery `json:"discovered"`
	Streak      *streak.Update `json:"streak,omitempty"`
	StreakError string         `json:"streak_error,omitempty"`
}
