// Package bot wires the import pipeline: discover languages, walk the
// pages transcluding the import marker on each language edition, and
// move every marked file from the source repository to the destination
// wiki. Processing is sequential throughout; the tracking store makes
// repeated runs idempotent.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ncwikibot/ncimport/mediawiki"
	"github.com/ncwikibot/ncimport/retry"
	"github.com/ncwikibot/ncimport/store"
	"github.com/ncwikibot/ncimport/wikitext"
)

// importMarkerTemplate is the transclusion searched for on every
// destination wiki.
const importMarkerTemplate = "Template:NC"

// Bot is one configured run of the importer.
type Bot struct {
	cfg    *Config
	creds  *Credentials
	store  *store.Store
	source *mediawiki.Repository
	policy retry.Policy
	logger *slog.Logger
}

// New connects to the source repository and prepares a run. No
// destination site is contacted until Run.
func New(cfg *Config, creds *Credentials, st *store.Store, logger *slog.Logger) (*Bot, error) {
	policy := cfg.RetryPolicy()
	srcClient, err := mediawiki.NewClient(cfg.NCCommons.Site, creds.SourceUsername, creds.SourcePassword, policy, logger)
	if err != nil {
		return nil, fmt.Errorf("source client: %w", err)
	}
	return &Bot{
		cfg:    cfg,
		creds:  creds,
		store:  st,
		source: mediawiki.NewRepository(srcClient),
		policy: policy,
		logger: logger,
	}, nil
}

// RunStats summarises a whole run.
type RunStats struct {
	LanguagesProcessed int
	PagesProcessed     int
	PagesModified      int
	Errors             int
}

// Run processes every language in langs, or every language on the
// configured language-list page when langs is empty. Per-language
// faults are logged and skipped; only context cancellation ends the
// run early.
func (b *Bot) Run(ctx context.Context, langs []string) (RunStats, error) {
	var stats RunStats

	b.logger = b.logger.With("run_id", uuid.NewString())
	if len(langs) == 0 {
		var err error
		langs, err = b.discoverLanguages(ctx)
		if err != nil {
			return stats, fmt.Errorf("discover languages: %w", err)
		}
	}
	b.logger.Info("starting run", "languages", len(langs))

	for _, lang := range langs {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		ls, err := b.processLanguage(ctx, lang)
		stats.PagesProcessed += ls.PagesProcessed
		stats.PagesModified += ls.PagesModified
		stats.Errors += ls.Errors
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			b.logger.Error("language failed", "lang", lang, "error", err)
			stats.Errors++
			continue
		}
		stats.LanguagesProcessed++
	}

	total, err := b.store.Stats(ctx, "")
	if err == nil {
		b.logger.Info("run complete",
			"languages", stats.LanguagesProcessed,
			"pages_processed", stats.PagesProcessed,
			"pages_modified", stats.PagesModified,
			"errors", stats.Errors,
			"total_uploads", total.TotalUploads,
			"total_pages", total.TotalPages)
	}
	return stats, nil
}

// discoverLanguages reads the language-list page on the source site.
// Duplicates are kept as listed; the store keeps a repeated language
// from uploading anything twice.
func (b *Bot) discoverLanguages(ctx context.Context) ([]string, error) {
	text, err := b.source.FetchPageText(ctx, b.cfg.NCCommons.LanguagePage)
	if err != nil {
		return nil, err
	}
	langs := wikitext.ParseLanguageList(text)
	if len(langs) == 0 {
		return nil, fmt.Errorf("no languages found on %q", b.cfg.NCCommons.LanguagePage)
	}
	b.logger.Info("languages discovered", "page", b.cfg.NCCommons.LanguagePage, "count", len(langs))
	return langs, nil
}

// LanguageStats summarises one language edition.
type LanguageStats struct {
	PagesProcessed int
	PagesModified  int
	Errors         int
}

func (b *Bot) processLanguage(ctx context.Context, lang string) (LanguageStats, error) {
	var stats LanguageStats

	b.logger.Info("processing language", "lang", lang)
	client, err := mediawiki.NewClient(lang+".wikipedia.org", b.creds.WikiUsername, b.creds.WikiPassword, b.policy, b.logger)
	if err != nil {
		return stats, err
	}
	wiki := mediawiki.NewWiki(client, lang)

	uploader := NewUploader(b.source, wiki, b.store, lang,
		b.cfg.Wikipedia.UploadComment, b.cfg.Wikipedia.Category, b.logger)
	processor := NewProcessor(wiki, uploader, b.store, lang,
		b.cfg.Wikipedia.Category, b.logger)

	pages, err := wiki.PagesTranscluding(ctx, importMarkerTemplate, b.cfg.Processing.MaxPagesPerLanguage)
	if err != nil {
		return stats, err
	}
	b.logger.Info("pages found", "lang", lang, "count", len(pages))

	for i, title := range pages {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		b.logger.Info("page", "lang", lang, "n", i+1, "of", len(pages), "title", title)
		if processor.ProcessPage(ctx, title) {
			stats.PagesModified++
		}
		stats.PagesProcessed++
	}

	if langStats, err := b.store.Stats(ctx, lang); err == nil {
		b.logger.Info("language complete", "lang", lang,
			"pages_processed", stats.PagesProcessed,
			"pages_modified", stats.PagesModified,
			"total_uploads", langStats.TotalUploads)
	}
	return stats, nil
}
