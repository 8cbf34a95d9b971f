// Package sqlite persists store state as key/blob rows in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"sumator/internal/storage"
)

type Backend struct {
	db            *sql.DB
	now           func() time.Time
	schemaVersion uint
}

var _ storage.Backend = (*Backend)(nil)

// Open creates the database directory if needed, runs migrations and returns
// a ready backend.
func Open(dbPath string) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// single local writer; one connection serializes access
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := Migrate(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Backend{db: db, now: time.Now, schemaVersion: version}, nil
}

func (b *Backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// Save upserts blob under key.
func (b *Backend) Save(ctx context.Context, key string, blob []byte) error {
	if blob == nil {
		blob = []byte{}
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO state (key, blob, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		key, blob, b.now().UTC())
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Load returns the blob stored under key.
func (b *Backend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var blob []byte
	err := b.db.QueryRowContext(ctx, `SELECT blob FROM state WHERE key = ?`, key).Scan(&blob)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	return blob, true, nil
}

// SchemaVersion is the migration version applied when the backend was opened.
func (b *Backend) SchemaVersion() uint { return b.schemaVersion }

// Ping checks that the database is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}
