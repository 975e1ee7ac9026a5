package db_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuwenbin0122/lingolink/internal/db"
	"github.com/wuwenbin0122/lingolink/internal/models"
	"github.com/wuwenbin0122/lingolink/internal/utils"
)

func TestMongoUsersCRUD(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set; skipping mongo integration test")
	}

	cfg := utils.MongoConfig{
		URI:            uri,
		Database:       "lingolink_test_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		ConnectTimeout: 5 * time.Second,
	}

	mongoStore, err := db.NewMongo(context.Background(), cfg)
	require.NoError(t, err)
	defer func() {
		ctx := context.Background()
		mongoStore.Database.Drop(ctx)
		mongoStore.Close(ctx)
	}()

	ctx := context.Background()
	require.NoError(t, mongoStore.EnsureCollections(ctx))

	users := db.NewMongoUsers(mongoStore.Users)

	user := &models.User{FullName: "A B", Email: "a@b.com", PasswordHash: "hash"}
	require.NoError(t, users.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	err = users.Create(ctx, &models.User{FullName: "Dup", Email: "A@B.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, db.ErrDuplicate)

	found, err := users.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)

	updated, err := users.UpdateProfile(ctx, user.ID, models.ProfileUpdate{Bio: "hello", Location: "Rome", FullName: "A B"})
	require.NoError(t, err)
	assert.True(t, updated.IsOnboarded)
	assert.Equal(t, "Rome", updated.Location)

	_, err = users.FindByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = users.UpdateProfile(ctx, "000000000000000000000000", models.ProfileUpdate{Bio: "x"})
	assert.ErrorIs(t, err, db.ErrNotFound)
}
