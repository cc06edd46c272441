package store

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s.db.SetMaxOpenConns(1)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesSchema(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"uploads", "pages"} {
		var name string
		err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestRecordUpload_UpsertKeepsLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordUpload(ctx, "x.jpg", "en", StatusSuccess, ""); err != nil {
		t.Fatalf("record success: %v", err)
	}
	if err := s.RecordUpload(ctx, "x.jpg", "en", StatusFailed, "boom"); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM uploads WHERE filename='x.jpg' AND language='en'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("rows for key: got %d, want 1", n)
	}

	var status, errMsg string
	if err := s.db.QueryRow(`SELECT status, error FROM uploads WHERE filename='x.jpg' AND language='en'`).Scan(&status, &errMsg); err != nil {
		t.Fatal(err)
	}
	if status != StatusFailed {
		t.Errorf("status: got %q, want %q", status, StatusFailed)
	}
	if errMsg != "boom" {
		t.Errorf("error: got %q, want %q", errMsg, "boom")
	}
}

func TestIsFileUploaded(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	up, err := s.IsFileUploaded(ctx, "a.jpg", "en")
	if err != nil {
		t.Fatal(err)
	}
	if up {
		t.Error("unseen file should not be uploaded")
	}

	s.RecordUpload(ctx, "a.jpg", "en", StatusFailed, "network")
	if up, _ = s.IsFileUploaded(ctx, "a.jpg", "en"); up {
		t.Error("failed row must allow re-attempt")
	}

	s.RecordUpload(ctx, "a.jpg", "en", StatusDuplicate, "")
	if up, _ = s.IsFileUploaded(ctx, "a.jpg", "en"); up {
		t.Error("duplicate row must allow re-attempt")
	}

	s.RecordUpload(ctx, "a.jpg", "en", StatusSuccess, "")
	if up, _ = s.IsFileUploaded(ctx, "a.jpg", "en"); !up {
		t.Error("success row should report uploaded")
	}

	// Same filename on another language is independent.
	if up, _ = s.IsFileUploaded(ctx, "a.jpg", "fr"); up {
		t.Error("language key must be independent")
	}
}

func TestRecordPage_ZeroCountsValid(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordPage(ctx, "Empty page", "en", 0, 0); err != nil {
		t.Fatalf("record page: %v", err)
	}
	st, err := s.Stats(ctx, "en")
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalPages != 1 {
		t.Errorf("pages: got %d, want 1", st.TotalPages)
	}
	if st.TotalUploads != 0 {
		t.Errorf("uploads: got %d, want 0", st.TotalUploads)
	}
}

func TestStats_LanguageFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.RecordUpload(ctx, "a.jpg", "en", StatusSuccess, "")
	s.RecordUpload(ctx, "b.jpg", "en", StatusSuccess, "")
	s.RecordUpload(ctx, "c.jpg", "fr", StatusSuccess, "")
	s.RecordUpload(ctx, "d.jpg", "en", StatusFailed, "x")
	s.RecordPage(ctx, "P1", "en", 2, 2)
	s.RecordPage(ctx, "P2", "fr", 1, 1)

	st, err := s.Stats(ctx, "en")
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalUploads != 2 || st.TotalPages != 1 {
		t.Errorf("en stats: got %+v", st)
	}

	all, err := s.Stats(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if all.TotalUploads != 3 || all.TotalPages != 2 {
		t.Errorf("overall stats: got %+v", all)
	}
}

func TestUploadsByLanguage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.RecordUpload(ctx, "a.jpg", "ar", StatusSuccess, "")
	s.RecordUpload(ctx, "b.jpg", "ar", StatusSuccess, "")
	s.RecordUpload(ctx, "c.jpg", "en", StatusSuccess, "")
	s.RecordUpload(ctx, "d.jpg", "en", StatusFailed, "x")

	counts, err := s.UploadsByLanguage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 {
		t.Fatalf("languages: got %d, want 2", len(counts))
	}
	if counts[0].Language != "ar" || counts[0].UploadCount != 2 {
		t.Errorf("first: got %+v", counts[0])
	}
	if counts[1].Language != "en" || counts[1].UploadCount != 1 {
		t.Errorf("second: got %+v", counts[1])
	}
}

func TestRecentErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.RecordUpload(ctx, "ok.jpg", "en", StatusSuccess, "")
	s.RecordUpload(ctx, "e1.jpg", "en", StatusFailed, "first error")
	s.RecordUpload(ctx, "e2.jpg", "fr", StatusFailed, "second error")

	errs, err := s.RecentErrors(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) != 2 {
		t.Fatalf("errors: got %d, want 2", len(errs))
	}
	// Same-second timestamps: id DESC tiebreak puts the later insert first.
	if errs[0].Filename != "e2.jpg" {
		t.Errorf("newest first: got %q", errs[0].Filename)
	}
	if errs[0].Error != "second error" {
		t.Errorf("error text: got %q", errs[0].Error)
	}

	one, err := s.RecentErrors(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(one) != 1 {
		t.Errorf("limit: got %d rows, want 1", len(one))
	}
}
