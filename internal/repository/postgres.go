package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres groups the per-table repositories over one pool.
type Postgres struct {
	*GlyphRepository
	*DiscoveryRepository
	*StreakRepository
	*InteractionRepository
	*UserRepository

	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{
		GlyphRepository:       NewGlyphRepository(db),
		DiscoveryRepository:   NewDiscoveryRepository(db),
		StreakRepository:      NewStreakRepository(db),
		InteractionRepository: NewInteractionRepository(db),
		UserRepository:        NewUserRepository(db),
		db:                    db,
	}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}
