package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	. "github.com/hamdanlabs/concierge/internal/logging"
)

// SQLiteStore persists the full conversation history for audit while serving
// bounded reads. Append-only: rows are never updated or deleted here;
// retention is an external concern.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the session database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	L_info("session: sqlite store opened", "path", path)
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS turns (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_key TEXT NOT NULL,
			role        TEXT NOT NULL,
			content     TEXT NOT NULL,
			created_at  TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_key, id);
	`)
	return err
}

// Recent returns the last n turns for key in chronological order.
func (s *SQLiteStore) Recent(ctx context.Context, key string, n int) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, created_at FROM turns
		WHERE session_key = ?
		ORDER BY id DESC LIMIT ?`, key, n)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var reversed []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Content, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		reversed = append(reversed, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows came back newest-first; flip to chronological.
	turns := make([]Turn, len(reversed))
	for i, t := range reversed {
		turns[len(reversed)-1-i] = t
	}
	return turns, nil
}

// Append inserts turns in order within one transaction.
func (s *SQLiteStore) Append(ctx context.Context, key string, turns ...Turn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, t := range turns {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO turns (session_key, role, content, created_at)
			VALUES (?, ?, ?, ?)`, key, t.Role, t.Content, t.Timestamp); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert turn: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
