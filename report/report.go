// Package report builds JSON summaries of the tracking store: overall
// totals, successful uploads by language, and the most recent failures.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ncwikibot/ncimport/store"
)

// recentErrorLimit caps the failure tail in a summary.
const recentErrorLimit = 10

// Totals are the overall counters.
type Totals struct {
	TotalUploads int `json:"total_uploads"`
	TotalPages   int `json:"total_pages"`
}

// Summary is the full report document.
type Summary struct {
	Total        Totals                `json:"total"`
	ByLanguage   []store.LanguageCount `json:"by_language"`
	RecentErrors []store.UploadError   `json:"recent_errors"`
}

// Generate reads the whole summary out of the store.
func Generate(ctx context.Context, st *store.Store) (*Summary, error) {
	stats, err := st.Stats(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("overall stats: %w", err)
	}
	byLang, err := st.UploadsByLanguage(ctx)
	if err != nil {
		return nil, fmt.Errorf("uploads by language: %w", err)
	}
	recent, err := st.RecentErrors(ctx, recentErrorLimit)
	if err != nil {
		return nil, fmt.Errorf("recent errors: %w", err)
	}
	return &Summary{
		Total: Totals{
			TotalUploads: stats.TotalUploads,
			TotalPages:   stats.TotalPages,
		},
		ByLanguage:   byLang,
		RecentErrors: recent,
	}, nil
}

// Write renders the summary as indented JSON at path, creating parent
// directories as needed.
func Write(summary *Summary, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
