package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLite stores buckets in the kv table created by the migrations in assets/sql.
type SQLite struct{ db *sql.DB }

// NewSQLite wraps an opened, migrated database.
func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

// Bucket returns the bucket for scope.
func (s *SQLite) Bucket(scope string) Bucket {
	return &sqliteBucket{db: s.db, scope: scope}
}

type sqliteBucket struct {
	db    *sql.DB
	scope string
}

func (b *sqliteBucket) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE scope=? AND key=?`, b.scope, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return v, nil
}

func (b *sqliteBucket) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx, `
        INSERT INTO kv (scope, key, value, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(scope, key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		b.scope, key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}
	return nil
}

func (b *sqliteBucket) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM kv WHERE scope=? AND key=?`, b.scope, key); err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}
