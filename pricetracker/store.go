package pricetracker

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-pricetracker-client/credentials"
	"github.com/jrsteele09/go-pricetracker-client/credentials/filestore"
	"github.com/jrsteele09/go-pricetracker-client/credentials/redisstore"
	"github.com/jrsteele09/go-pricetracker-client/credentials/sqlstore"
	"github.com/jrsteele09/go-pricetracker-client/internal/config"
)

// OpenStore builds the credential store named by cfg and a function that releases it
func OpenStore(ctx context.Context, cfg config.StoreConfig) (credentials.Store, func() error, error) {
	noop := func() error { return nil }
	namespace := cfg.GetCredentialNamespace()

	switch cfg.GetCredentialStore() {
	case config.MemoryStore:
		return credentials.NewInMemoryStore(), noop, nil

	case config.FileStore:
		key, err := cfg.GetCredentialKey()
		if err != nil {
			return nil, nil, err
		}
		store, err := filestore.New(cfg.GetCredentialFile(), namespace, key)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	case config.RedisStore:
		client, err := redisstore.NewClient(ctx, cfg.GetRedisAddr(), cfg.GetRedisPassword(), cfg.GetRedisDB())
		if err != nil {
			return nil, nil, err
		}
		store, err := redisstore.New(client, namespace)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client.Close, nil

	case config.SQLiteStore:
		db, err := sqlstore.OpenSQLite(cfg.GetSQLiteDSN())
		if err != nil {
			return nil, nil, err
		}
		store, err := sqlstore.New(ctx, db, namespace)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown credential store %q", cfg.GetCredentialStore())
}
