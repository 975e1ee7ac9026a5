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
	"github.com/wuwenbin0122/lingolink/internal/utils"
)

func TestRedisRevoker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}

	ctx := context.Background()
	client, err := db.NewRedisClient(ctx, utils.RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	revoker := db.NewRedisRevoker(client)
	tokenID := uuid.NewString()

	revoked, err := revoker.IsRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revoker.Revoke(ctx, tokenID, time.Now().Add(time.Minute)))

	revoked, err = revoker.IsRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	expired := uuid.NewString()
	require.NoError(t, revoker.Revoke(ctx, expired, time.Now().Add(-time.Minute)))
	revoked, err = revoker.IsRevoked(ctx, expired)
	require.NoError(t, err)
	assert.False(t, revoked)
}
