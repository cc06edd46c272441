package mediawiki

import (
	"context"
	"fmt"
	"strings"
)

// Repository is the source file site: the wiki files are imported FROM.
// It composes the generic client with the two file-metadata lookups the
// uploader needs.
type Repository struct {
	*Client
}

// NewRepository wraps an existing client session.
func NewRepository(c *Client) *Repository {
	return &Repository{Client: c}
}

// FileDirectURL resolves the direct download URL of a file. The File:
// namespace prefix is added when missing.
func (r *Repository) FileDirectURL(ctx context.Context, filename string) (string, error) {
	title := normalizeFileTitle(filename)
	var fileURL string
	err := r.policy.Do(ctx, r.logger, "imageinfo "+title, func() error {
		params := r.params("query")
		params.Set("prop", "imageinfo")
		params.Set("iiprop", "url")
		params.Set("titles", title)
		env, err := r.get(ctx, params)
		if err != nil {
			return err
		}
		if env.Query == nil || len(env.Query.Pages) == 0 {
			return fmt.Errorf("mediawiki: file not found: %s", title)
		}
		page := env.Query.Pages[0]
		if page.Missing || len(page.ImageInfo) == 0 || page.ImageInfo[0].URL == "" {
			return fmt.Errorf("mediawiki: no image info for %s", title)
		}
		fileURL = page.ImageInfo[0].URL
		return nil
	})
	return fileURL, err
}

// FileDescription fetches the wikitext of the file's description page.
func (r *Repository) FileDescription(ctx context.Context, filename string) (string, error) {
	return r.FetchPageText(ctx, normalizeFileTitle(filename))
}

func normalizeFileTitle(filename string) string {
	if strings.HasPrefix(filename, "File:") || strings.HasPrefix(filename, "file:") {
		return filename
	}
	return "File:" + filename
}
