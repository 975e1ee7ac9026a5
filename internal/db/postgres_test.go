package db_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuwenbin0122/lingolink/internal/db"
	"github.com/wuwenbin0122/lingolink/internal/models"
	"github.com/wuwenbin0122/lingolink/internal/utils"
)

func TestPostgresUsersCRUD(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	store, err := db.NewPostgres(context.Background(), utils.PostgresConfig{
		DSN:            dsn,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.EnsureSchema(ctx))

	users := db.NewPostgresUsers(store.Pool)
	email := uuid.NewString() + "@example.com"

	user := &models.User{FullName: "A B", Email: email, PasswordHash: "hash"}
	require.NoError(t, users.Create(ctx, user))
	defer store.Pool.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID)

	err = users.Create(ctx, &models.User{FullName: "Dup", Email: email, PasswordHash: "x"})
	assert.ErrorIs(t, err, db.ErrDuplicate)

	found, err := users.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Empty(t, found.Friends)

	updated, err := users.UpdateProfile(ctx, user.ID, models.ProfileUpdate{Bio: "hello", Location: "Rome"})
	require.NoError(t, err)
	assert.True(t, updated.IsOnboarded)
	assert.Equal(t, "A B", updated.FullName)
	assert.Equal(t, "hello", updated.Bio)

	_, err = users.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, db.ErrNotFound)
}
