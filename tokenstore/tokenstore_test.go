package tokenstore_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	mediagrab "github.com/mediagrab/go-mediagrab"
	"github.com/mediagrab/go-mediagrab/tokenstore"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemory()

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, mediagrab.ErrTokenNotFound)

	require.NoError(t, store.Set(ctx, "tok-abc"))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", got)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clearing twice is a no-op")

	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, mediagrab.ErrTokenNotFound)
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	return bun.NewDB(sqldb, sqlitedialect.New())
}

func TestBunStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewBunStore(newTestDB(t))
	require.NoError(t, store.EnsureSchema(ctx))

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, mediagrab.ErrTokenNotFound)

	require.NoError(t, store.Set(ctx, "tok-1"))
	require.NoError(t, store.Set(ctx, "tok-2"), "set upserts")

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, mediagrab.ErrTokenNotFound)
}

func TestBunStoreEnvironmentKeysIsolate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	prod := tokenstore.NewBunStore(db, tokenstore.WithEnvironmentKey("https://api.example.com"))
	staging := tokenstore.NewBunStore(db, tokenstore.WithEnvironmentKey("https://staging.example.com"))
	require.NoError(t, prod.EnsureSchema(ctx))

	require.NoError(t, prod.Set(ctx, "prod-token"))
	require.NoError(t, staging.Set(ctx, "staging-token"))

	got, err := prod.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "prod-token", got)

	got, err = staging.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "staging-token", got)

	require.NoError(t, staging.Clear(ctx))

	got, err = prod.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "prod-token", got, "clearing one environment leaves the other")
}
