// Package sqlstore persists the credential pair in a SQL table through bun.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-pricetracker-client/credentials"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var _ credentials.Store = (*Store)(nil)

type credentialRecord struct {
	bun.BaseModel `bun:"table:session_credentials,alias:sc"`

	Namespace    string    `bun:"namespace,pk"`
	AccessToken  string    `bun:"access_token,notnull"`
	RefreshToken string    `bun:"refresh_token,notnull"`
	Identity     string    `bun:"user_email,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

type Store struct {
	db        *bun.DB
	namespace string
}

// New wraps db and creates the table when missing
func New(ctx context.Context, db *bun.DB, namespace string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: db is required")
	}
	if namespace == "" {
		return nil, fmt.Errorf("sqlstore: namespace is required")
	}
	if _, err := db.NewCreateTable().Model((*credentialRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("sqlstore: create table: %w", err)
	}
	return &Store{db: db, namespace: namespace}, nil
}

// OpenSQLite opens a sqlite database for use with New
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

func (s *Store) Load(ctx context.Context) (*credentials.Pair, error) {
	record := new(credentialRecord)
	err := s.db.NewSelect().
		Model(record).
		Where("namespace = ?", s.namespace).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: load: %w", err)
	}
	return &credentials.Pair{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		Identity:     record.Identity,
	}, nil
}

// Save upserts the single row for the namespace; one statement keeps the update atomic
func (s *Store) Save(ctx context.Context, pair credentials.Pair) error {
	if err := pair.Validate(); err != nil {
		return err
	}
	if pair.Empty() {
		return s.Clear(ctx)
	}
	record := &credentialRecord{
		Namespace:    s.namespace,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Identity:     pair.Identity,
		UpdatedAt:    time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (namespace) DO UPDATE").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("user_email = EXCLUDED.user_email").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: save: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*credentialRecord)(nil)).
		Where("namespace = ?", s.namespace).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: clear: %w", err)
	}
	return nil
}
