package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ncwikibot/ncimport/wikitext"
)

// PageSite is the slice of the destination wiki the processor needs.
type PageSite interface {
	FetchPageText(ctx context.Context, title string) (string, error)
	SavePage(ctx context.Context, title, text, summary string) error
}

// FileUploader uploads one file and reports whether it was newly
// uploaded. Satisfied by *Uploader.
type FileUploader interface {
	UploadFile(ctx context.Context, filename string) bool
}

// Processor rewrites one page at a time: upload every marked file, swap
// each marker for native embed syntax, tag the page with the tracking
// category, and record the outcome.
type Processor struct {
	pages    PageSite
	uploader FileUploader
	tracker  Tracker
	lang     string
	category string
	logger   *slog.Logger
}

// NewProcessor wires a processor for one language edition.
func NewProcessor(pages PageSite, uploader FileUploader, tracker Tracker, lang, category string, logger *slog.Logger) *Processor {
	return &Processor{
		pages:    pages,
		uploader: uploader,
		tracker:  tracker,
		lang:     lang,
		category: category,
		logger:   logger,
	}
}

// ProcessPage imports the files marked on title and rewrites the page.
// It returns true only when the page was modified and saved. Faults are
// logged and swallowed so one bad page never stops the run; a page with
// markers always gets a page record, even when nothing uploads.
func (p *Processor) ProcessPage(ctx context.Context, title string) bool {
	text, err := p.pages.FetchPageText(ctx, title)
	if err != nil {
		p.logger.Error("fetching page failed", "page", title, "error", err)
		return false
	}

	reqs := wikitext.ExtractImportRequests(text)
	if len(reqs) == 0 {
		p.logger.Info("no import markers on page", "page", title)
		p.recordPage(ctx, title, 0, 0)
		return false
	}
	p.logger.Info("processing page", "page", title, "markers", len(reqs))

	type replacement struct {
		old, new string
	}
	var repls []replacement
	uploaded := 0
	for _, r := range reqs {
		if p.uploader.UploadFile(ctx, r.Filename) {
			repls = append(repls, replacement{old: r.SourceText, new: r.EmbedSyntax()})
			uploaded++
		}
	}

	p.recordPage(ctx, title, len(reqs), uploaded)

	if len(repls) == 0 {
		p.logger.Info("nothing uploaded, page unchanged", "page", title)
		return false
	}

	// Keys are the original marker substrings, so two identical markers
	// collapse to the same substitution.
	newText := text
	for _, r := range repls {
		newText = strings.ReplaceAll(newText, r.old, r.new)
	}

	category := "[[" + p.category + "]]"
	if !strings.Contains(newText, category) {
		newText += "\n" + category
	}

	summary := fmt.Sprintf("Bot: imported %d file(s) from NC Commons", uploaded)
	if err := p.pages.SavePage(ctx, title, newText, summary); err != nil {
		p.logger.Error("saving page failed", "page", title, "error", err)
		return false
	}
	p.logger.Info("page updated", "page", title, "files_imported", uploaded)
	return true
}

func (p *Processor) recordPage(ctx context.Context, title string, found, uploaded int) {
	if err := p.tracker.RecordPage(ctx, title, p.lang, found, uploaded); err != nil {
		p.logger.Error("recording page outcome failed", "page", title, "error", err)
	}
}
