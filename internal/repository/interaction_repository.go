package repository

import (
	"context"
	"errors"
	"fmt"

	"glyphAPI/internal/types/glyph"
	"glyphAPI/internal/types/user"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InteractionRepository struct {
	db *pgxpool.Pool
}

func NewInteractionRepository(db *pgxpool.Pool) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// UpsertRating stores one rating per (glyph, user) and recomputes the glyph
// aggregate in the same transaction.
func (r *InteractionRepository) UpsertRating(ctx context.Context, rating glyph.Rating) (*glyph.Rating, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var saved glyph.Rating
	err = tx.QueryRow(ctx, `
		INSERT INTO glyph_ratings (glyph_id, user_id, rating, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (glyph_id, user_id) DO UPDATE SET rating = EXCLUDED.rating, updated_at = NOW()
		RETURNING glyph_id, user_id, rating, created_at, updated_at
	`, rating.GlyphID, rating.UserID, rating.Rating).Scan(
		&saved.GlyphID, &saved.UserID, &saved.Rating, &saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert rating: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE glyphs SET
			rating_average = COALESCE((SELECT AVG(rating)::float8 FROM glyph_ratings WHERE glyph_id = $1), 0),
			rating_count = (SELECT COUNT(*) FROM glyph_ratings WHERE glyph_id = $1)
		WHERE id = $1
	`, rating.GlyphID)
	if err != nil {
		return nil, fmt.Errorf("failed to update rating aggregate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rating: %w", err)
	}
	return &saved, nil
}

func (r *InteractionRepository) GetRating(ctx context.Context, glyphID, userID string) (*glyph.Rating, error) {
	var rt glyph.Rating
	err := r.db.QueryRow(ctx, `
		SELECT glyph_id, user_id, rating, created_at, updated_at
		FROM glyph_ratings WHERE glyph_id = $1 AND user_id = $2
	`, glyphID, userID).Scan(&rt.GlyphID, &rt.UserID, &rt.Rating, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return &rt, nil
}

const commentSelect = `
	SELECT c.id, c.glyph_id, c.user_id, COALESCE(NULLIF(u.username, ''), $%d), c.comment, c.created_at, c.updated_at
	FROM glyph_comments c
	LEFT JOIN users u ON u.id = c.user_id
`

func scanComment(row pgx.Row) (*glyph.Comment, error) {
	var c glyph.Comment
	if err := row.Scan(&c.ID, &c.GlyphID, &c.UserID, &c.Username, &c.Comment, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *InteractionRepository) getComment(ctx context.Context, id string) (*glyph.Comment, error) {
	query := fmt.Sprintf(commentSelect, 2) + ` WHERE c.id = $1`
	c, err := scanComment(r.db.QueryRow(ctx, query, id, user.AnonymousUsername))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get comment %s: %w", id, err)
	}
	return c, nil
}

func (r *InteractionRepository) CreateComment(ctx context.Context, c glyph.Comment) (*glyph.Comment, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO glyph_comments (id, glyph_id, user_id, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.GlyphID, c.UserID, c.Comment, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}
	return r.getComment(ctx, c.ID)
}

func (r *InteractionRepository) ListComments(ctx context.Context, glyphID string, limit int) ([]glyph.Comment, error) {
	query := fmt.Sprintf(commentSelect, 3) + ` WHERE c.glyph_id = $1 ORDER BY c.created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, glyphID, limit, user.AnonymousUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := make([]glyph.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// UpdateComment rewrites a comment authored by userID. ErrNotFound covers both
// a missing comment and one written by someone else.
func (r *InteractionRepository) UpdateComment(ctx context.Context, id, userID, text string) (*glyph.Comment, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE glyph_comments SET comment = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, userID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.getComment(ctx, id)
}

func (r *InteractionRepository) DeleteComment(ctx context.Context, id, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM glyph_comments WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
