package redisstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-pricetracker-client/credentials"
	"github.com/jrsteele09/go-pricetracker-client/credentials/redisstore"
	"github.com/jrsteele09/go-pricetracker-client/internal/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := redisstore.NewClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := redisstore.New(client, "pricetracker")
	require.NoError(t, err)
	return store, mr
}

func TestStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	store, mr := setupStore(t)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)

	pair := credentials.Pair{AccessToken: "access-1", RefreshToken: "refresh-1", Identity: "john.doe@example.com"}
	require.NoError(t, store.Save(ctx, pair))

	require.Equal(t, "refresh-1", mr.HGet("pricetracker:credentials", "refreshToken"))
	require.Equal(t, "john.doe@example.com", mr.HGet("pricetracker:credentials", "userEmail"))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, pair, *got)

	next := credentials.Pair{AccessToken: "access-2", RefreshToken: "refresh-2", Identity: "john.doe@example.com"}
	require.NoError(t, store.Save(ctx, next))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, next, *got)

	require.NoError(t, store.Clear(ctx))
	require.False(t, mr.Exists("pricetracker:credentials"))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStore_SaveEmptyClears(t *testing.T) {
	ctx := context.Background()
	store, mr := setupStore(t)

	require.NoError(t, store.Save(ctx, credentials.Pair{AccessToken: "a", RefreshToken: "r", Identity: "u@example.com"}))
	require.NoError(t, store.Save(ctx, credentials.Pair{}))
	require.False(t, mr.Exists("pricetracker:credentials"))
}

func TestStore_RejectsPartialPair(t *testing.T) {
	store, mr := setupStore(t)

	err := store.Save(context.Background(), credentials.Pair{AccessToken: "a"})
	require.ErrorIs(t, err, errors.ErrPartialCredentials)
	require.False(t, mr.Exists("pricetracker:credentials"))
}

func TestStore_ServerDown(t *testing.T) {
	ctx := context.Background()
	store, mr := setupStore(t)
	mr.Close()

	_, err := store.Load(ctx)
	require.Error(t, err)
	err = store.Save(ctx, credentials.Pair{AccessToken: "a", RefreshToken: "r", Identity: "u@example.com"})
	require.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	_, err := redisstore.New(nil, "ns")
	require.Error(t, err)

	_, err = redisstore.New(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "")
	require.Error(t, err)
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := redisstore.NewClient(context.Background(), addr, "", 0)
	require.Error(t, err)
}
