// Package bunstore provides a durable authclient.Storage backed by Bun and
// SQLite, for clients that need the session mirror to survive restarts.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	authclient "github.com/goliatone/go-auth-client"
)

// EntryModel is the Bun model for one persisted key.
type EntryModel struct {
	bun.BaseModel `bun:"table:auth_session"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Store implements authclient.Storage on a Bun database.
type Store struct {
	db *bun.DB
}

var _ authclient.Storage = (*Store)(nil)

// New wraps an existing Bun database. The session table is created when
// missing.
func New(ctx context.Context, db *bun.DB) (*Store, error) {
	if _, err := db.NewCreateTable().Model((*EntryModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Open opens (or creates) a SQLite-backed store at path. Use ":memory:" for
// an ephemeral store.
func Open(ctx context.Context, path string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, err
	}

	// In-memory sqlite is per-connection; a second pooled connection would
	// see an empty database.
	if path == ":memory:" {
		sqldb.SetMaxOpenConns(1)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	return New(ctx, db)
}

func (s *Store) Get(key string) (string, bool) {
	var entry EntryModel
	err := s.db.NewSelect().
		Model(&entry).
		Where("key = ?", key).
		Scan(context.Background())
	if err != nil {
		return "", false
	}
	return entry.Value, true
}

func (s *Store) Set(key, value string) error {
	entry := &EntryModel{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NewInsert().
		Model(entry).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(context.Background())
	return err
}

func (s *Store) Remove(key string) error {
	_, err := s.db.NewDelete().
		Model((*EntryModel)(nil)).
		Where("key = ?", key).
		Exec(context.Background())
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
