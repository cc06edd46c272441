package bot

import (
	"context"
	"log/slog"
	"os"

	"github.com/ncwikibot/ncimport/mediawiki"
	"github.com/ncwikibot/ncimport/store"
	"github.com/ncwikibot/ncimport/wikitext"
)

// SourceFiles is the slice of the source repository the uploader needs.
type SourceFiles interface {
	FileDirectURL(ctx context.Context, filename string) (string, error)
	FileDescription(ctx context.Context, filename string) (string, error)
	DownloadTo(ctx context.Context, srcURL, path string) error
}

// UploadSite is the slice of the destination wiki the uploader needs.
type UploadSite interface {
	UploadFromURL(ctx context.Context, filename, srcURL, description, comment string) (bool, error)
	UploadFromFile(ctx context.Context, filename, path, description, comment string) (bool, error)
}

// Tracker is the slice of the tracking store shared by the uploader and
// the page processor.
type Tracker interface {
	IsFileUploaded(ctx context.Context, filename, language string) (bool, error)
	RecordUpload(ctx context.Context, filename, language, status, errMsg string) error
	RecordPage(ctx context.Context, title, language string, templatesFound, filesUploaded int) error
}

// Uploader moves one file from the source repository to the destination
// wiki: remote-URL upload first, download-then-upload when the wiki has
// that mode disabled. Every attempt ends in exactly one tracking record.
type Uploader struct {
	source  SourceFiles
	wiki    UploadSite
	tracker Tracker
	lang    string
	comment string
	// category is appended to every imported file description, e.g.
	// "Category:Files from NC Commons".
	category string
	logger   *slog.Logger
}

// NewUploader wires an uploader for one language edition.
func NewUploader(source SourceFiles, wiki UploadSite, tracker Tracker, lang, comment, category string, logger *slog.Logger) *Uploader {
	return &Uploader{
		source:   source,
		wiki:     wiki,
		tracker:  tracker,
		lang:     lang,
		comment:  comment,
		category: category,
		logger:   logger,
	}
}

// UploadFile imports filename, returning true only for a fresh upload.
// Already-done, duplicate, and failed outcomes all return false; the
// distinction lives in the tracking record, and no error ever escapes —
// failures are terminal here and observable only through the store.
func (u *Uploader) UploadFile(ctx context.Context, filename string) bool {
	done, err := u.tracker.IsFileUploaded(ctx, filename, u.lang)
	if err != nil {
		u.logger.Error("tracking lookup failed", "file", filename, "error", err)
		u.record(ctx, filename, store.StatusFailed, err.Error())
		return false
	}
	if done {
		u.logger.Debug("file already uploaded", "file", filename, "lang", u.lang)
		return false
	}

	uploaded, err := u.attempt(ctx, filename)
	if err != nil {
		u.logger.Error("upload failed", "file", filename, "lang", u.lang, "error", err)
		u.record(ctx, filename, store.StatusFailed, err.Error())
		return false
	}
	return uploaded
}

func (u *Uploader) attempt(ctx context.Context, filename string) (bool, error) {
	fileURL, err := u.source.FileDirectURL(ctx, filename)
	if err != nil {
		return false, err
	}
	desc, err := u.source.FileDescription(ctx, filename)
	if err != nil {
		return false, err
	}
	desc = u.prepareDescription(desc)

	uploaded, err := u.wiki.UploadFromURL(ctx, filename, fileURL, desc, u.comment)
	switch {
	case err == nil && uploaded:
		u.logger.Info("uploaded via remote url", "file", filename, "lang", u.lang)
		u.record(ctx, filename, store.StatusSuccess, "")
		return true, nil
	case err == nil:
		u.logger.Info("duplicate file", "file", filename, "lang", u.lang)
		u.record(ctx, filename, store.StatusDuplicate, "")
		return false, nil
	case mediawiki.IsUploadDisabled(err):
		u.logger.Info("remote-url upload disabled, falling back to download", "file", filename)
		return u.uploadViaDownload(ctx, filename, fileURL, desc)
	default:
		return false, err
	}
}

// uploadViaDownload fetches the file to a temporary path and uploads it
// locally. The temp file is removed on every exit path.
func (u *Uploader) uploadViaDownload(ctx context.Context, filename, fileURL, desc string) (bool, error) {
	tmp, err := os.CreateTemp("", "ncimport_*.tmp")
	if err != nil {
		return false, err
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := u.source.DownloadTo(ctx, fileURL, path); err != nil {
		return false, err
	}

	uploaded, err := u.wiki.UploadFromFile(ctx, filename, path, desc, u.comment)
	if err != nil {
		return false, err
	}
	if uploaded {
		u.logger.Info("uploaded via local file", "file", filename, "lang", u.lang)
		u.record(ctx, filename, store.StatusSuccess, "")
		return true, nil
	}
	u.logger.Info("duplicate file", "file", filename, "lang", u.lang)
	u.record(ctx, filename, store.StatusDuplicate, "")
	return false, nil
}

// prepareDescription strips the source wiki's categories and appends the
// tracking category.
func (u *Uploader) prepareDescription(desc string) string {
	return wikitext.StripCategories(desc) + "\n[[" + u.category + "]]"
}

func (u *Uploader) record(ctx context.Context, filename, status, errMsg string) {
	if err := u.tracker.RecordUpload(ctx, filename, u.lang, status, errMsg); err != nil {
		u.logger.Error("recording upload outcome failed", "file", filename, "status", status, "error", err)
	}
}
