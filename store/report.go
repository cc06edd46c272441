package store

import (
	"context"
	"database/sql"
	"fmt"
)

// LanguageCount is the number of successful uploads for one language.
type LanguageCount struct {
	Language    string `json:"language"`
	UploadCount int    `json:"upload_count"`
}

// UploadError is one failed upload row, for report listings.
type UploadError struct {
	Filename   string `json:"filename"`
	Language   string `json:"language"`
	Error      string `json:"error"`
	UploadedAt string `json:"uploaded_at"`
}

// UploadsByLanguage returns successful upload counts per language,
// largest first.
func (s *Store) UploadsByLanguage(ctx context.Context) ([]LanguageCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT language, COUNT(*) AS upload_count
		FROM uploads
		WHERE status = ?
		GROUP BY language
		ORDER BY upload_count DESC`, StatusSuccess)
	if err != nil {
		return nil, fmt.Errorf("store: uploads by language: %w", err)
	}
	defer rows.Close()

	var out []LanguageCount
	for rows.Next() {
		var lc LanguageCount
		if err := rows.Scan(&lc.Language, &lc.UploadCount); err != nil {
			return nil, fmt.Errorf("store: scan language count: %w", err)
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

// RecentErrors returns the most recent failed uploads, newest first,
// capped at limit.
func (s *Store) RecentErrors(ctx context.Context, limit int) ([]UploadError, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT filename, language, error, uploaded_at
		FROM uploads
		WHERE status = ?
		ORDER BY uploaded_at DESC, id DESC
		LIMIT ?`, StatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent errors: %w", err)
	}
	defer rows.Close()

	var out []UploadError
	for rows.Next() {
		var e UploadError
		var errMsg sql.NullString
		if err := rows.Scan(&e.Filename, &e.Language, &errMsg, &e.UploadedAt); err != nil {
			return nil, fmt.Errorf("store: scan error row: %w", err)
		}
		e.Error = errMsg.String
		out = append(out, e)
	}
	return out, rows.Err()
}
