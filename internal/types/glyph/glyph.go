package glyph

import (
	"time"

	"glyphAPI/internal/geo"
)

type Category string

const (
	CategoryHint    Category = "Hint"
	CategoryWarning Category = "Warning"
	CategorySecret  Category = "Secret"
	CategoryPraise  Category = "Praise"
	CategoryLore    Category = "Lore"
)

var Categories = []Category{CategoryHint, CategoryWarning, CategorySecret, CategoryPraise, CategoryLore}

var categoryIcons = map[Category]string{
	CategoryHint:    "💡",
	CategoryWarning: "⚠️",
	CategorySecret:  "💰",
	CategoryPraise:  "❤️",
	CategoryLore:    "👁️",
}

func (c Category) Valid() bool {
	_, ok := categoryIcons[c]
	return ok
}

func (c Category) Icon() string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return "📍"
}

const (
	MaxTextLength    = 280
	MaxCommentLength = 500
	MinRating        = 1
	MaxRating        = 5
)

type Glyph struct {
	ID            string     `json:"id" db:"id"`
	Latitude      float64    `json:"latitude" db:"latitude"`
	Longitude     float64    `json:"longitude" db:"longitude"`
	Text          string     `json:"text" db:"text"`
	Category      Category   `json:"category" db:"category"`
	UserID        *string    `json:"user_id" db:"user_id"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	PhotoURL      *string    `json:"photo_url,omitempty" db:"photo_url"`
	RatingAverage float64    `json:"rating_average" db:"rating_average"`
	RatingCount   int        `json:"rating_count" db:"rating_count"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

func (g Glyph) Location() geo.Point {
	return geo.Point{Lat: g.Latitude, Lng: g.Longitude}
}

// OwnedBy reports whether userID authored the glyph. Anonymous glyphs have no owner.
func (g Glyph) OwnedBy(userID string) bool {
	return g.UserID != nil && *g.UserID == userID
}

// Filter is the shared read predicate for glyphs. Inactive glyphs never match.
type Filter struct {
	Category *Category
	UserID   *string
}

func (f Filter) Matches(g Glyph) bool {
	if !g.IsActive {
		return false
	}
	if f.Category != nil && g.Category != *f.Category {
		return false
	}
	if f.UserID != nil && (g.UserID == nil || *g.UserID != *f.UserID) {
		return false
	}
	return true
}

type CreateGlyphRequest struct {
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Text           string   `json:"text"`
	Category       Category `json:"category"`
	AccuracyMeters *float64 `json:"accuracy_meters,omitempty"`
	Anonymous      bool     `json:"anonymous"`
}

type UpdateGlyphRequest struct {
	Text     *string   `json:"text,omitempty"`
	Category *Category `json:"category,omitempty"`
}

// NearbyGlyph is a candidate glyph annotated for map display.
type NearbyGlyph struct {
	Glyph
	DistanceMeters float64 `json:"distance_meters"`
	DistanceStr    string  `json:"distance_str"`
	Bearing        float64 `json:"bearing"`
	Compass        string  `json:"compass"`
	Discoverable   bool    `json:"discoverable"`
}

type Rating struct {
	GlyphID   string    `json:"glyph_id" db:"glyph_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Comment struct {
	ID        string     `json:"id" db:"id"`
	GlyphID   string     `json:"glyph_id" db:"glyph_id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Username  string     `json:"username" db:"username"`
	Comment   string     `json:"comment" db:"comment"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
