package kv

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SQLite keeps documents in a single table
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// a single writer keeps read-modify-write of records simple
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info().Str("dsn", dsn).Msg("SQLite store ready")
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS kv_documents (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TIMESTAMP
);
`)
	return errors.Wrap(err, "migrate kv_documents")
}

func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM kv_documents WHERE key = ?`, key)
	var value string
	switch err := row.Scan(&value); err {
	case nil:
		return value, nil
	case sql.ErrNoRows:
		return "", ErrNotFound
	default:
		return "", errors.Wrapf(err, "get %s", key)
	}
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kv_documents (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano))
	return errors.Wrapf(err, "set %s", key)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
