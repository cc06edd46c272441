package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakePageSite struct {
	text     string
	fetchErr error
	saveErr  error
	saved    string
	summary  string
	saves    int
}

func (f *fakePageSite) FetchPageText(ctx context.Context, title string) (string, error) {
	return f.text, f.fetchErr
}

func (f *fakePageSite) SavePage(ctx context.Context, title, text, summary string) error {
	f.saves++
	f.saved = text
	f.summary = summary
	return f.saveErr
}

// fakeFileUploader reports true for filenames in ok.
type fakeFileUploader struct {
	ok    map[string]bool
	calls []string
}

func (f *fakeFileUploader) UploadFile(ctx context.Context, filename string) bool {
	f.calls = append(f.calls, filename)
	return f.ok[filename]
}

func newTestProcessor(pages *fakePageSite, up *fakeFileUploader, tr *fakeTracker) *Processor {
	return NewProcessor(pages, up, tr, "en", "Category:Imported files", discardLogger())
}

func TestProcessPage_RewritesMarkers(t *testing.T) {
	pages := &fakePageSite{text: "Intro.\n{{NC|Heart.jpg|The heart}}\nMore text."}
	up := &fakeFileUploader{ok: map[string]bool{"Heart.jpg": true}}
	tr := newFakeTracker()
	p := newTestProcessor(pages, up, tr)

	if !p.ProcessPage(context.Background(), "Anatomy") {
		t.Fatal("expected page to be modified")
	}
	if strings.Contains(pages.saved, "{{NC|") {
		t.Errorf("marker survived rewrite: %q", pages.saved)
	}
	if !strings.Contains(pages.saved, "[[File:Heart.jpg|thumb|The heart]]") {
		t.Errorf("embed syntax missing: %q", pages.saved)
	}
	if !strings.Contains(pages.saved, "[[Category:Imported files]]") {
		t.Errorf("category missing: %q", pages.saved)
	}
	if !strings.Contains(pages.summary, "1 file(s)") {
		t.Errorf("summary: got %q", pages.summary)
	}
	if rec := tr.pages["Anatomy"]; rec.found != 1 || rec.uploaded != 1 {
		t.Errorf("page record: got %+v", rec)
	}
}

func TestProcessPage_NoMarkers(t *testing.T) {
	pages := &fakePageSite{text: "Just prose, no markers."}
	up := &fakeFileUploader{}
	tr := newFakeTracker()
	p := newTestProcessor(pages, up, tr)

	if p.ProcessPage(context.Background(), "Plain") {
		t.Fatal("expected false for unmarked page")
	}
	if pages.saves != 0 {
		t.Error("unmarked page was saved")
	}
	// The visit is still recorded.
	if rec, ok := tr.pages["Plain"]; !ok || rec.found != 0 || rec.uploaded != 0 {
		t.Errorf("page record: got %+v (present=%v)", rec, ok)
	}
}

func TestProcessPage_PartialUploads(t *testing.T) {
	pages := &fakePageSite{text: "{{NC|Ok.jpg|fine}}\n{{NC|Bad.jpg|broken}}"}
	up := &fakeFileUploader{ok: map[string]bool{"Ok.jpg": true}}
	tr := newFakeTracker()
	p := newTestProcessor(pages, up, tr)

	if !p.ProcessPage(context.Background(), "Mixed") {
		t.Fatal("expected page to be modified")
	}
	if !strings.Contains(pages.saved, "[[File:Ok.jpg|thumb|fine]]") {
		t.Errorf("uploaded marker not rewritten: %q", pages.saved)
	}
	// The failed file's marker stays for the next run.
	if !strings.Contains(pages.saved, "{{NC|Bad.jpg|broken}}") {
		t.Errorf("failed marker removed: %q", pages.saved)
	}
	if rec := tr.pages["Mixed"]; rec.found != 2 || rec.uploaded != 1 {
		t.Errorf("page record: got %+v", rec)
	}
}

func TestProcessPage_NothingUploaded(t *testing.T) {
	pages := &fakePageSite{text: "{{NC|Bad.jpg|broken}}"}
	up := &fakeFileUploader{}
	tr := newFakeTracker()
	p := newTestProcessor(pages, up, tr)

	if p.ProcessPage(context.Background(), "Stuck") {
		t.Fatal("expected false when nothing uploads")
	}
	if pages.saves != 0 {
		t.Error("page saved without changes")
	}
	if rec := tr.pages["Stuck"]; rec.found != 1 || rec.uploaded != 0 {
		t.Errorf("page record: got %+v", rec)
	}
}

func TestProcessPage_CategoryNotDuplicated(t *testing.T) {
	pages := &fakePageSite{text: "{{NC|A.jpg|a}}\n[[Category:Imported files]]"}
	up := &fakeFileUploader{ok: map[string]bool{"A.jpg": true}}
	tr := newFakeTracker()
	p := newTestProcessor(pages, up, tr)

	if !p.ProcessPage(context.Background(), "Tagged") {
		t.Fatal("expected page to be modified")
	}
	if n := strings.Count(pages.saved, "[[Category:Imported files]]"); n != 1 {
		t.Errorf("category count: got %d, want 1", n)
	}
}

func TestProcessPage_IdenticalMarkersCollapse(t *testing.T) {
	pages := &fakePageSite{text: "{{NC|A.jpg|a}} and again {{NC|A.jpg|a}}"}
	up := &fakeFileUploader{ok: map[string]bool{"A.jpg": true}}
	tr := newFakeTracker()
	p := newTestProcessor(pages, up, tr)

	if !p.ProcessPage(context.Background(), "Twice") {
		t.Fatal("expected page to be modified")
	}
	if strings.Contains(pages.saved, "{{NC|") {
		t.Errorf("marker survived rewrite: %q", pages.saved)
	}
	if n := strings.Count(pages.saved, "[[File:A.jpg|thumb|a]]"); n != 2 {
		t.Errorf("embeds: got %d, want 2", n)
	}
}

func TestProcessPage_FetchFails(t *testing.T) {
	pages := &fakePageSite{fetchErr: errors.New("timeout")}
	up := &fakeFileUploader{}
	tr := newFakeTracker()
	p := newTestProcessor(pages, up, tr)

	if p.ProcessPage(context.Background(), "Gone") {
		t.Fatal("expected false on fetch failure")
	}
	if len(tr.pages) != 0 {
		t.Error("unfetched page was recorded")
	}
}

func TestProcessPage_SaveFails(t *testing.T) {
	pages := &fakePageSite{
		text:    "{{NC|A.jpg|a}}",
		saveErr: errors.New("edit conflict"),
	}
	up := &fakeFileUploader{ok: map[string]bool{"A.jpg": true}}
	tr := newFakeTracker()
	p := newTestProcessor(pages, up, tr)

	if p.ProcessPage(context.Background(), "Conflicted") {
		t.Fatal("expected false on save failure")
	}
	// The upload itself happened and stays recorded.
	if rec := tr.pages["Conflicted"]; rec.found != 1 || rec.uploaded != 1 {
		t.Errorf("page record: got %+v", rec)
	}
}
