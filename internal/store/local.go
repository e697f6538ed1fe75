// Package store is the SQLite-backed local repository: the stored credential,
// likes, folders of saved docents, visit records and highlights.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// LocalStore implements the credential store and every collaborator the
// coordinator calls into, using one SQLite database.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	logger *zap.Logger
	now    func() time.Time
}

// NewLocalStore opens or creates the database at path. ":memory:" gives a
// throwaway database.
func NewLocalStore(path string, logger *zap.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second pooled connection would see a different :memory: database.
	db.SetMaxOpenConns(1)

	s := &LocalStore{db: db, dbPath: path, logger: logger, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("store opened", zap.String("path", path))
	return s, nil
}

func (s *LocalStore) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS credentials (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			token TEXT NOT NULL,
			user_id INTEGER NOT NULL DEFAULT 0,
			nickname TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS likes (
			target_kind TEXT NOT NULL,
			target_id INTEGER NOT NULL,
			liked_at INTEGER NOT NULL,
			PRIMARY KEY (target_kind, target_id)
		)`,
		`CREATE TABLE IF NOT EXISTS folders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS folder_docents (
			folder_id INTEGER NOT NULL DEFAULT 0,
			docent_id INTEGER NOT NULL,
			saved_at INTEGER NOT NULL,
			PRIMARY KEY (folder_id, docent_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_folder_docents_docent ON folder_docents(docent_id)`,
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS highlights (
			id TEXT PRIMARY KEY,
			docent_id INTEGER NOT NULL,
			paragraph_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_highlights_docent ON highlights(docent_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return RunMigrations(s.db, s.logger)
}

// Path returns the database location.
func (s *LocalStore) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) stamp() int64 {
	return s.now().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
