package services

import (
	"context"
	"errors"
	"fmt"

	"glyphAPI/internal/repository"
	"glyphAPI/internal/types/clerk"
	"glyphAPI/internal/types/user"

	"github.com/rs/zerolog/log"
)

// UserService mirrors auth provider users into the local directory used to
// label comments.
type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

func (s *UserService) SyncUser(ctx context.Context, data clerk.UserData) error {
	if data.ID == "" {
		return errors.New("user payload has no id")
	}
	u := user.User{
		ID:       data.ID,
		Username: data.DisplayName(),
		ImageURL: data.ImageURL,
	}
	if err := s.store.UpsertUser(ctx, u); err != nil {
		return fmt.Errorf("failed to sync user: %w", err)
	}
	log.Info().Str("user_id", u.ID).Str("username", u.Username).Msg("User synced")
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	log.Info().Str("user_id", userID).Msg("User deleted")
	return nil
}

// GetUser returns nil without error for unknown ids.
func (s *UserService) GetUser(ctx context.Context, userID string) (*user.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
