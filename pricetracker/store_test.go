package pricetracker_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-pricetracker-client/credentials"
	"github.com/jrsteele09/go-pricetracker-client/internal/config"
	"github.com/jrsteele09/go-pricetracker-client/pricetracker"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	pair := credentials.Pair{AccessToken: "a", RefreshToken: "r", Identity: testUserEmail}

	tests := []struct {
		name  string
		setup func(t *testing.T)
	}{
		{
			name:  "memory",
			setup: func(t *testing.T) { t.Setenv("CREDENTIAL_STORE", "memory") },
		},
		{
			name: "encrypted file",
			setup: func(t *testing.T) {
				t.Setenv("CREDENTIAL_STORE", "file")
				t.Setenv("CREDENTIAL_FILE", filepath.Join(t.TempDir(), "credentials.json"))
				t.Setenv("CREDENTIAL_KEY", strings.Repeat("0f", 32))
			},
		},
		{
			name: "redis",
			setup: func(t *testing.T) {
				mr := miniredis.RunT(t)
				t.Setenv("CREDENTIAL_STORE", "redis")
				t.Setenv("REDIS_ADDR", mr.Addr())
			},
		},
		{
			name: "sqlite",
			setup: func(t *testing.T) {
				t.Setenv("CREDENTIAL_STORE", "sqlite")
				t.Setenv("SQLITE_DSN", "file:"+filepath.Join(t.TempDir(), "credentials.db"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup(t)

			store, closeStore, err := pricetracker.OpenStore(ctx, config.New())
			require.NoError(t, err)
			t.Cleanup(func() { require.NoError(t, closeStore()) })

			require.NoError(t, store.Save(ctx, pair))
			got, err := store.Load(ctx)
			require.NoError(t, err)
			require.Equal(t, pair, *got)
			require.NoError(t, store.Clear(ctx))
		})
	}
}

func TestOpenStore_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("bad key", func(t *testing.T) {
		t.Setenv("CREDENTIAL_STORE", "file")
		t.Setenv("CREDENTIAL_KEY", "abcd")
		_, _, err := pricetracker.OpenStore(ctx, config.New())
		require.Error(t, err)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		t.Setenv("CREDENTIAL_STORE", "redis")
		t.Setenv("REDIS_ADDR", addr)
		_, _, err := pricetracker.OpenStore(ctx, config.New())
		require.Error(t, err)
	})
}
