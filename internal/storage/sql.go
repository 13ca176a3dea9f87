package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// The same statements run on sqlite and postgres.
const (
	selectBlobQuery = `SELECT blob_value FROM session_blobs WHERE blob_key = $1`
	upsertBlobQuery = `
		INSERT INTO session_blobs (blob_key, blob_value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (blob_key) DO UPDATE SET blob_value = excluded.blob_value, updated_at = excluded.updated_at
	`
	deleteBlobQuery = `DELETE FROM session_blobs WHERE blob_key = $1`
)

// SQLStore persists blobs in a session_blobs table. Use NewSQLiteStore or
// NewPostgresStore, then RunMigrations.
type SQLStore struct {
	db      *sql.DB
	migrate func(db *sql.DB, migrationsPath string) error
}

func (s *SQLStore) RunMigrations(migrationsPath string) error {
	return s.migrate(s.db, migrationsPath)
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, selectBlobQuery, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load blob %s: %w", key, err)
	}
	return blob, nil
}

func (s *SQLStore) Save(ctx context.Context, key string, blob []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertBlobQuery, key, blob, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save blob %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteBlobQuery, key); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
