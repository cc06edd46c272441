package mediawiki

import (
	"context"
	"net/url"
	"strings"
)

// Wiki is the destination encyclopedia for one language edition. It
// composes the generic client with transclusion search and the two
// upload modes.
type Wiki struct {
	*Client
	Lang string
}

// NewWiki wraps an existing client session for a language edition.
func NewWiki(c *Client, lang string) *Wiki {
	return &Wiki{Client: c, Lang: lang}
}

// PagesTranscluding lists titles of pages that transclude template, in
// API order, capped at limit. The Template: prefix is added when
// missing; pagination is followed transparently.
func (w *Wiki) PagesTranscluding(ctx context.Context, template string, limit int) ([]string, error) {
	if !strings.HasPrefix(template, "Template:") {
		template = "Template:" + template
	}
	var titles []string
	cont := map[string]string{}
	for limit <= 0 || len(titles) < limit {
		var env *envelope
		err := w.policy.Do(ctx, w.logger, "embeddedin "+template, func() error {
			params := w.params("query")
			params.Set("list", "embeddedin")
			params.Set("eititle", template)
			remaining := 500
			if limit > 0 {
				remaining = limit - len(titles)
			}
			params.Set("eilimit", limitParam(remaining))
			for k, v := range cont {
				params.Set(k, v)
			}
			var err error
			env, err = w.get(ctx, params)
			return err
		})
		if err != nil {
			return nil, err
		}
		if env.Query != nil {
			for _, p := range env.Query.EmbeddedIn {
				titles = append(titles, p.Title)
				if limit > 0 && len(titles) == limit {
					return titles, nil
				}
			}
		}
		if len(env.Continue) == 0 {
			break
		}
		cont = env.Continue
	}
	return titles, nil
}

// UploadFromURL asks the wiki to fetch srcURL server-side and store it
// as filename. Returns false with nil error when the file is a
// duplicate or the name already exists.
func (w *Wiki) UploadFromURL(ctx context.Context, filename, srcURL, description, comment string) (bool, error) {
	if err := w.Login(ctx); err != nil {
		return false, err
	}
	var uploaded bool
	err := w.policy.Do(ctx, w.logger, "upload-url "+filename, func() error {
		token, err := w.token(ctx, "csrf")
		if err != nil {
			return err
		}
		params := w.uploadParams(filename, description, comment, token)
		params.Set("url", srcURL)
		env, err := w.postForm(ctx, params)
		if err != nil {
			return err
		}
		uploaded, err = interpretUpload(env)
		return err
	})
	return uploaded, err
}

// UploadFromFile uploads the local file at path as filename. Same
// duplicate semantics as UploadFromURL.
func (w *Wiki) UploadFromFile(ctx context.Context, filename, path, description, comment string) (bool, error) {
	if err := w.Login(ctx); err != nil {
		return false, err
	}
	var uploaded bool
	err := w.policy.Do(ctx, w.logger, "upload-file "+filename, func() error {
		token, err := w.token(ctx, "csrf")
		if err != nil {
			return err
		}
		params := w.uploadParams(filename, description, comment, token)
		env, err := w.postFile(ctx, params, path)
		if err != nil {
			return err
		}
		uploaded, err = interpretUpload(env)
		return err
	})
	return uploaded, err
}

func (w *Wiki) uploadParams(filename, description, comment, token string) url.Values {
	params := w.params("upload")
	params.Set("filename", strings.TrimPrefix(strings.TrimPrefix(filename, "File:"), "file:"))
	params.Set("text", description)
	params.Set("comment", comment)
	params.Set("token", token)
	return params
}
