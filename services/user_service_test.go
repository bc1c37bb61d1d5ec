package services

import (
	"context"
	"testing"

	"glyphAPI/internal/repository/memory"
	"glyphAPI/internal/types/clerk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncAndDeleteUser(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(memory.New())

	require.NoError(t, svc.SyncUser(ctx, clerk.UserData{
		ID:             "user_1",
		EmailAddresses: []clerk.EmailAddress{{EmailAddress: "mira@example.com"}},
	}))
	u, err := svc.GetUser(ctx, "user_1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "mira", u.Username)

	require.NoError(t, svc.SyncUser(ctx, clerk.UserData{ID: "user_1", Username: "mira_k"}))
	u, err = svc.GetUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "mira_k", u.Username)

	require.NoError(t, svc.DeleteUser(ctx, "user_1"))
	u, err = svc.GetUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Nil(t, u)

	assert.Error(t, svc.SyncUser(ctx, clerk.UserData{}))
}
