// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store is the host-side persistence used by grobid-jats: submission
// file records and plugin settings in SQLite, file content on disk, and the
// per-user notification log.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/grobid-jats/pkg/types"
)

const (
	dbFile      = "grobid.db"
	filesDir    = "files"
	submissions = "submissions"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store manages the SQLite database and the content tree under DataDir.
type Store struct {
	db      *sql.DB
	dataDir string
	now     func() time.Time
}

// NewStore opens or creates the database at dataDir/grobid.db and creates
// the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(filepath.Join(dataDir, filesDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:      db,
		dataDir: dataDir,
		now:     time.Now,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id INTEGER PRIMARY KEY,
			context_id INTEGER NOT NULL,
			locale TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS submission_files (
			file_id INTEGER NOT NULL,
			revision INTEGER NOT NULL,
			submission_id INTEGER NOT NULL REFERENCES submissions(id),
			submission_locale TEXT NOT NULL DEFAULT '',
			genre_id INTEGER NOT NULL DEFAULT 0,
			file_stage INTEGER NOT NULL DEFAULT 0,
			path TEXT NOT NULL,
			original_file_name TEXT NOT NULL,
			file_type TEXT NOT NULL,
			file_size INTEGER NOT NULL,
			uploader_user_id INTEGER NOT NULL DEFAULT 0,
			date_uploaded TEXT NOT NULL,
			date_modified TEXT NOT NULL,
			source_file_id INTEGER NOT NULL DEFAULT 0,
			source_revision INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (file_id, revision)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submission_files_submission ON submission_files(submission_id)`,
		`CREATE INDEX IF NOT EXISTS idx_submission_files_source ON submission_files(source_file_id, source_revision)`,
		`CREATE TABLE IF NOT EXISTS plugin_settings (
			context_id INTEGER NOT NULL,
			plugin_name TEXT NOT NULL,
			setting_name TEXT NOT NULL,
			setting_value TEXT NOT NULL,
			PRIMARY KEY (context_id, plugin_name, setting_name)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			level TEXT NOT NULL,
			contents TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// PutSubmission inserts or updates a submission.
func (s *Store) PutSubmission(ctx context.Context, sub types.Submission) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, context_id, locale) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET context_id=excluded.context_id, locale=excluded.locale`,
		sub.ID, sub.ContextID, sub.Locale,
	)
	if err != nil {
		return fmt.Errorf("upserting submission %d: %w", sub.ID, err)
	}
	return nil
}

// Submission returns the submission with the given id.
func (s *Store) Submission(ctx context.Context, id int64) (types.Submission, error) {
	sub := types.Submission{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT context_id, locale FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ContextID, &sub.Locale)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Submission{}, fmt.Errorf("submission %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Submission{}, fmt.Errorf("querying submission %d: %w", id, err)
	}
	return sub, nil
}

// submissionDir is where content of a submission's files lives.
func (s *Store) submissionDir(submissionID int64) string {
	return filepath.Join(s.dataDir, filesDir, submissions, strconv.FormatInt(submissionID, 10))
}

// ReadFile returns the content stored at path.
func (s *Store) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// FileSize returns the size in bytes of the file at path.
func (s *Store) FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
