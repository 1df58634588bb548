package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the session token in a local SQLite file, the
// durable default for desktop installs.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLiteStore opens (and if needed creates) the session database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("session store path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS session (
		key TEXT PRIMARY KEY,
		token TEXT NOT NULL,
		saved_at INTEGER NOT NULL
	)`
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create session table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) Get(ctx context.Context) (string, error) {
	var token string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT token FROM session WHERE key = ?`, sessionKey,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	return token, nil
}

func (s *SQLiteStore) Set(ctx context.Context, token string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO session (key, token, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET token = excluded.token, saved_at = excluded.saved_at`,
		sessionKey, token, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM session WHERE key = ?`, sessionKey,
	)
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
