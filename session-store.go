package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
)

// SessionStore keeps the bearer token between two invocations of the CLI.
type SessionStore interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

const sessionTokenKey = "token"

type SQLiteSessionStore struct {
	db *sql.DB
}

func OpenSessionStore(ctx context.Context, path string) (*SQLiteSessionStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open session database '%s': %w", path, err)
	}
	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS session (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session database '%s': %w", path, err)
	}
	return &SQLiteSessionStore{db: db}, nil
}

func (s *SQLiteSessionStore) Get(ctx context.Context) (string, bool, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, sessionTokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session token: %w", err)
	}
	return token, token != "", nil
}

func (s *SQLiteSessionStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("refusing to store an empty session token")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		sessionTokenKey, token)
	if err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, sessionTokenKey)
	if err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) Close() error {
	return s.db.Close()
}
