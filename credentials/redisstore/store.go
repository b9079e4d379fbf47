// Package redisstore keeps the credential pair in a single Redis hash so that
// several processes on one host can share a login.
package redisstore

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-pricetracker-client/credentials"
	"github.com/redis/go-redis/v9"
)

const keySuffix = ":credentials"

var _ credentials.Store = (*Store)(nil)

type Store struct {
	client redis.UniversalClient
	key    string
}

func New(client redis.UniversalClient, namespace string) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redisstore: client is required")
	}
	if namespace == "" {
		return nil, fmt.Errorf("redisstore: namespace is required")
	}
	return &Store{client: client, key: namespace + keySuffix}, nil
}

// NewClient opens a client and checks connectivity
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: connect %s: %w", addr, err)
	}
	return client, nil
}

func (s *Store) Load(ctx context.Context) (*credentials.Pair, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: load %s: %w", s.key, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	pair := credentials.FromFields(fields)
	return &pair, nil
}

// Save replaces the hash inside MULTI/EXEC so readers never observe a mix of old and new fields
func (s *Store) Save(ctx context.Context, pair credentials.Pair) error {
	if err := pair.Validate(); err != nil {
		return err
	}
	if pair.Empty() {
		return s.Clear(ctx)
	}
	values := make(map[string]interface{}, 3)
	for k, v := range pair.Fields() {
		values[k] = v
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, values)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: save %s: %w", s.key, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redisstore: clear %s: %w", s.key, err)
	}
	return nil
}
