package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"glyphAPI/internal/types/glyph"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const glyphColumns = `id, latitude, longitude, text, category, user_id, is_active, photo_url, rating_average, rating_count, created_at, updated_at`

// activeGlyphPredicate is shared by every read that must hide deactivated glyphs.
const activeGlyphPredicate = "is_active = true"

type glyphQuery struct {
	where []string
	args  []any
}

func activeGlyphQuery(filter glyph.Filter) *glyphQuery {
	q := &glyphQuery{where: []string{activeGlyphPredicate}}
	if filter.Category != nil {
		q.and("category", string(*filter.Category))
	}
	if filter.UserID != nil {
		q.and("user_id", *filter.UserID)
	}
	return q
}

func (q *glyphQuery) and(column string, value any) *glyphQuery {
	q.args = append(q.args, value)
	q.where = append(q.where, fmt.Sprintf("%s = $%d", column, len(q.args)))
	return q
}

func (q *glyphQuery) sql() string {
	return "SELECT " + glyphColumns + " FROM glyphs WHERE " + strings.Join(q.where, " AND ") + " ORDER BY created_at DESC"
}

func scanGlyph(row pgx.Row) (*glyph.Glyph, error) {
	var g glyph.Glyph
	err := row.Scan(
		&g.ID,
		&g.Latitude,
		&g.Longitude,
		&g.Text,
		&g.Category,
		&g.UserID,
		&g.IsActive,
		&g.PhotoURL,
		&g.RatingAverage,
		&g.RatingCount,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

type GlyphRepository struct {
	db *pgxpool.Pool
}

func NewGlyphRepository(db *pgxpool.Pool) *GlyphRepository {
	return &GlyphRepository{db: db}
}

func (r *GlyphRepository) CreateGlyph(ctx context.Context, g glyph.Glyph) (*glyph.Glyph, error) {
	query := `
		INSERT INTO glyphs (id, latitude, longitude, text, category, user_id, is_active, photo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + glyphColumns

	created, err := scanGlyph(r.db.QueryRow(ctx, query,
		g.ID, g.Latitude, g.Longitude, g.Text, string(g.Category), g.UserID, g.IsActive, g.PhotoURL, g.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert glyph: %w", err)
	}
	return created, nil
}

func (r *GlyphRepository) GetActiveGlyph(ctx context.Context, id string) (*glyph.Glyph, error) {
	q := activeGlyphQuery(glyph.Filter{}).and("id", id)
	g, err := scanGlyph(r.db.QueryRow(ctx, q.sql(), q.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get glyph %s: %w", id, err)
	}
	return g, nil
}

func (r *GlyphRepository) ListActiveGlyphs(ctx context.Context, filter glyph.Filter) ([]glyph.Glyph, error) {
	q := activeGlyphQuery(filter)
	rows, err := r.db.Query(ctx, q.sql(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query glyphs: %w", err)
	}
	defer rows.Close()

	glyphs := make([]glyph.Glyph, 0)
	for rows.Next() {
		g, err := scanGlyph(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan glyph: %w", err)
		}
		glyphs = append(glyphs, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate glyphs: %w", err)
	}
	return glyphs, nil
}

// SaveGlyph writes the mutable fields of g and stamps updated_at.
func (r *GlyphRepository) SaveGlyph(ctx context.Context, g glyph.Glyph) (*glyph.Glyph, error) {
	query := `
		UPDATE glyphs
		SET text = $2, category = $3, is_active = $4, photo_url = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + glyphColumns

	saved, err := scanGlyph(r.db.QueryRow(ctx, query, g.ID, g.Text, string(g.Category), g.IsActive, g.PhotoURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update glyph %s: %w", g.ID, err)
	}
	return saved, nil
}
