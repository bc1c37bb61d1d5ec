package repository

import (
	"context"
	"errors"
	"fmt"

	"glyphAPI/internal/types/discovery"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const discoveryColumns = `id, user_id, glyph_id, discovery_location_lat, discovery_location_lng, discovered_at`

type DiscoveryRepository struct {
	db *pgxpool.Pool
}

func NewDiscoveryRepository(db *pgxpool.Pool) *DiscoveryRepository {
	return &DiscoveryRepository{db: db}
}

func scanDiscovery(row pgx.Row) (*discovery.Discovery, error) {
	var d discovery.Discovery
	if err := row.Scan(&d.ID, &d.UserID, &d.GlyphID, &d.Latitude, &d.Longitude, &d.DiscoveredAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// InsertDiscovery inserts d unless the (user, glyph) pair already exists. The
// boolean is true when the row was created; otherwise the stored row is returned.
func (r *DiscoveryRepository) InsertDiscovery(ctx context.Context, d discovery.Discovery) (*discovery.Discovery, bool, error) {
	insert := `
		INSERT INTO glyph_discoveries (` + discoveryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, glyph_id) DO NOTHING
		RETURNING ` + discoveryColumns

	created, err := scanDiscovery(r.db.QueryRow(ctx, insert, d.ID, d.UserID, d.GlyphID, d.Latitude, d.Longitude, d.DiscoveredAt))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert discovery: %w", err)
	}

	existing, err := scanDiscovery(r.db.QueryRow(ctx,
		`SELECT `+discoveryColumns+` FROM glyph_discoveries WHERE user_id = $1 AND glyph_id = $2`,
		d.UserID, d.GlyphID,
	))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing discovery: %w", err)
	}
	return existing, false, nil
}

func (r *DiscoveryRepository) DiscoveryExists(ctx context.Context, userID, glyphID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM glyph_discoveries WHERE user_id = $1 AND glyph_id = $2)`,
		userID, glyphID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check discovery: %w", err)
	}
	return exists, nil
}

// ListDiscoveredGlyphIDs returns the ids of every glyph userID has discovered.
func (r *DiscoveryRepository) ListDiscoveredGlyphIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT glyph_id FROM glyph_discoveries WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query discovered glyph ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan glyph id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// ListDiscoveredGlyphs joins the user's discoveries with the glyphs that are still active, newest first.
func (r *DiscoveryRepository) ListDiscoveredGlyphs(ctx context.Context, userID string) ([]discovery.DiscoveredGlyph, error) {
	query := `
		SELECT
			g.id, g.latitude, g.longitude, g.text, g.category, g.user_id, g.is_active, g.photo_url,
			g.rating_average, g.rating_count, g.created_at, g.updated_at,
			d.discovered_at, d.discovery_location_lat, d.discovery_location_lng
		FROM glyph_discoveries d
		JOIN glyphs g ON g.id = d.glyph_id
		WHERE d.user_id = $1 AND g.` + activeGlyphPredicate + `
		ORDER BY d.discovered_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query discovered glyphs: %w", err)
	}
	defer rows.Close()

	out := make([]discovery.DiscoveredGlyph, 0)
	for rows.Next() {
		var dg discovery.DiscoveredGlyph
		err := rows.Scan(
			&dg.ID, &dg.Latitude, &dg.Longitude, &dg.Text, &dg.Category, &dg.UserID, &dg.IsActive, &dg.PhotoURL,
			&dg.RatingAverage, &dg.RatingCount, &dg.CreatedAt, &dg.UpdatedAt,
			&dg.DiscoveredAt, &dg.DiscoveryLocation.Lat, &dg.DiscoveryLocation.Lng,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan discovered glyph: %w", err)
		}
		out = append(out, dg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discovered glyphs: %w", err)
	}
	return out, nil
}

// ListDiscoveryCategories returns one hit per discovery, including glyphs deactivated since.
func (r *DiscoveryRepository) ListDiscoveryCategories(ctx context.Context, userID string) ([]discovery.CategoryHit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT g.category, d.discovered_at
		FROM glyph_discoveries d
		JOIN glyphs g ON g.id = d.glyph_id
		WHERE d.user_id = $1
		ORDER BY d.discovered_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query discovery categories: %w", err)
	}
	defer rows.Close()

	hits := make([]discovery.CategoryHit, 0)
	for rows.Next() {
		var h discovery.CategoryHit
		if err := rows.Scan(&h.Category, &h.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("failed to scan discovery category: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
