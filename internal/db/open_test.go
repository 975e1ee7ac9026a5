package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuwenbin0122/lingolink/internal/db"
	"github.com/wuwenbin0122/lingolink/internal/utils"
)

var (
	_ db.UserStore = (*db.MemoryUsers)(nil)
	_ db.UserStore = (*db.MongoUsers)(nil)
	_ db.UserStore = (*db.PostgresUsers)(nil)
)

func TestOpenMemoryStore(t *testing.T) {
	ctx := context.Background()

	stores, err := db.Open(ctx, &utils.Config{StoreDriver: utils.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &db.MemoryUsers{}, stores.Users)
	assert.NoError(t, stores.Migrate(ctx))
	assert.NoError(t, stores.Close(ctx))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := db.Open(context.Background(), &utils.Config{StoreDriver: "cassandra"})
	assert.Error(t, err)
}
