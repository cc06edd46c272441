// Package store is the tracking store for the import bot: one SQLite
// file recording every upload attempt and every page visited. It is the
// sole source of "already done" truth across runs, so the uploader and
// processor re-query it instead of caching results.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Upload statuses. A key holds only its latest status; failed and
// duplicate rows allow re-attempts, success rows do not.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusDuplicate = "duplicate"
)

// Store wraps the tracking database. Methods are safe to call across
// process restarts; every write runs in its own scoped transaction.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the tracking store at path with the
// production pragmas applied. Parent directories are created.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// RecordUpload upserts the outcome of an upload attempt, keyed by
// (filename, language). The timestamp is refreshed so the row always
// reflects the most recent attempt, not history.
func (s *Store) RecordUpload(ctx context.Context, filename, language, status, errMsg string) error {
	var errVal any
	if errMsg != "" {
		errVal = errMsg
	}
	return s.runTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO uploads (filename, language, status, error, uploaded_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
			filename, language, status, errVal)
		return err
	})
}

// RecordPage upserts a page-processing outcome, keyed by
// (page_title, language). Zero counts are a valid, recorded outcome.
func (s *Store) RecordPage(ctx context.Context, title, language string, templatesFound, filesUploaded int) error {
	return s.runTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO pages (page_title, language, templates_found, files_uploaded, processed_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
			title, language, templatesFound, filesUploaded)
		return err
	})
}

// IsFileUploaded reports whether (filename, language) has a success row.
// Failed and duplicate rows return false so the file can be re-attempted.
func (s *Store) IsFileUploaded(ctx context.Context, filename, language string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM uploads
		WHERE filename = ? AND language = ? AND status = ?`,
		filename, language, StatusSuccess).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: is uploaded: %w", err)
	}
	return n > 0, nil
}

// Statistics are aggregate counters over the store.
type Statistics struct {
	TotalUploads int
	TotalPages   int
}

// Stats counts successful uploads and page rows, optionally filtered by
// language (empty string means all languages).
func (s *Store) Stats(ctx context.Context, language string) (Statistics, error) {
	var st Statistics
	var err error
	if language != "" {
		err = s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM uploads WHERE language = ? AND status = ?`,
			language, StatusSuccess).Scan(&st.TotalUploads)
		if err == nil {
			err = s.db.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM pages WHERE language = ?`, language).Scan(&st.TotalPages)
		}
	} else {
		err = s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM uploads WHERE status = ?`, StatusSuccess).Scan(&st.TotalUploads)
		if err == nil {
			err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&st.TotalPages)
		}
	}
	if err != nil {
		return Statistics{}, fmt.Errorf("store: stats: %w", err)
	}
	return st, nil
}
