// Package mediawiki speaks the MediaWiki action API over HTTP. A generic
// Client carries the session (cookies, tokens, login) and the page
// primitives; Repository and Wiki compose it with the handful of
// site-specific operations each side of the import needs. Every network
// call goes through the bot's bounded retry policy, so callers see
// either a result or the final failure.
package mediawiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ncwikibot/ncimport/retry"
)

const defaultUserAgent = "ncimport-bot/1.0 (https://github.com/ncwikibot/ncimport)"

// Client is a session against one MediaWiki site.
type Client struct {
	host      string
	apiURL    string
	userAgent string
	username  string
	password  string

	httpClient *http.Client
	logger     *slog.Logger
	policy     retry.Policy

	loggedIn bool
}

// Option customises a Client.
type Option func(*Client)

// WithAPIURL overrides the derived https://<host>/w/api.php endpoint.
func WithAPIURL(u string) Option { return func(c *Client) { c.apiURL = u } }

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option { return func(c *Client) { c.userAgent = ua } }

// NewClient creates a session for host. Credentials may be empty for
// read-only use; login happens lazily before the first write.
func NewClient(host, username, password string, policy retry.Policy, logger *slog.Logger, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("mediawiki: cookie jar: %w", err)
	}
	c := &Client{
		host:      host,
		apiURL:    "https://" + host + "/w/api.php",
		userAgent: defaultUserAgent,
		username:  username,
		password:  password,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 60 * time.Second,
		},
		logger: logger,
		policy: policy,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Host returns the site hostname the client was built for.
func (c *Client) Host() string { return c.host }

// Login authenticates the session. Idempotent; a client without
// credentials stays anonymous.
func (c *Client) Login(ctx context.Context) error {
	if c.loggedIn || c.username == "" {
		return nil
	}
	return c.policy.Do(ctx, c.logger, "login "+c.host, func() error {
		token, err := c.token(ctx, "login")
		if err != nil {
			return err
		}
		params := c.params("login")
		params.Set("lgname", c.username)
		params.Set("lgpassword", c.password)
		params.Set("lgtoken", token)
		env, err := c.postForm(ctx, params)
		if err != nil {
			return err
		}
		if env.Login == nil || env.Login.Result != "Success" {
			reason := "no login result"
			if env.Login != nil {
				reason = env.Login.Result + " " + env.Login.Reason
			}
			return fmt.Errorf("mediawiki: login as %s on %s failed: %s", c.username, c.host, reason)
		}
		c.logger.Info("logged in", "site", c.host, "user", c.username)
		c.loggedIn = true
		return nil
	})
}

// FetchPageText returns the current wikitext of title, or the empty
// string for a page that does not exist.
func (c *Client) FetchPageText(ctx context.Context, title string) (string, error) {
	var text string
	err := c.policy.Do(ctx, c.logger, "fetch "+title, func() error {
		params := c.params("query")
		params.Set("prop", "revisions")
		params.Set("rvprop", "content")
		params.Set("rvslots", "main")
		params.Set("titles", title)
		env, err := c.get(ctx, params)
		if err != nil {
			return err
		}
		text = ""
		if env.Query == nil || len(env.Query.Pages) == 0 {
			return nil
		}
		page := env.Query.Pages[0]
		if page.Missing || len(page.Revisions) == 0 {
			return nil
		}
		text = page.Revisions[0].Slots["main"].Content
		return nil
	})
	return text, err
}

// SavePage writes text to title with the given edit summary.
func (c *Client) SavePage(ctx context.Context, title, text, summary string) error {
	if err := c.Login(ctx); err != nil {
		return err
	}
	return c.policy.Do(ctx, c.logger, "save "+title, func() error {
		token, err := c.token(ctx, "csrf")
		if err != nil {
			return err
		}
		params := c.params("edit")
		params.Set("title", title)
		params.Set("text", text)
		params.Set("summary", summary)
		params.Set("bot", "1")
		params.Set("token", token)
		env, err := c.postForm(ctx, params)
		if err != nil {
			return err
		}
		if env.Edit == nil || env.Edit.Result != "Success" {
			return fmt.Errorf("mediawiki: save %s on %s did not succeed", title, c.host)
		}
		return nil
	})
}

// DownloadTo streams url into path. Only https sources are accepted.
func (c *Client) DownloadTo(ctx context.Context, srcURL, path string) error {
	parsed, err := url.Parse(srcURL)
	if err != nil {
		return fmt.Errorf("mediawiki: parse download url: %w", err)
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("mediawiki: refusing %q download: only https sources are allowed", parsed.Scheme)
	}
	return c.policy.Do(ctx, c.logger, "download "+srcURL, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
		if err != nil {
			return fmt.Errorf("mediawiki: new request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("mediawiki: download: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("mediawiki: download %s: http %d", srcURL, resp.StatusCode)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("mediawiki: create %s: %w", path, err)
		}
		if _, err := io.Copy(f, resp.Body); err != nil {
			f.Close()
			return fmt.Errorf("mediawiki: write %s: %w", path, err)
		}
		return f.Close()
	})
}

func (c *Client) token(ctx context.Context, kind string) (string, error) {
	params := c.params("query")
	params.Set("meta", "tokens")
	params.Set("type", kind)
	env, err := c.get(ctx, params)
	if err != nil {
		return "", err
	}
	if env.Query == nil {
		return "", fmt.Errorf("mediawiki: no %s token in response", kind)
	}
	token, ok := env.Query.Tokens[kind+"token"]
	if !ok || token == "" {
		return "", fmt.Errorf("mediawiki: no %s token in response", kind)
	}
	return token, nil
}

func (c *Client) params(action string) url.Values {
	v := url.Values{}
	v.Set("action", action)
	v.Set("format", "json")
	v.Set("formatversion", "2")
	return v
}

func (c *Client) get(ctx context.Context, params url.Values) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("mediawiki: new request: %w", err)
	}
	return c.do(req)
}

func (c *Client) postForm(ctx context.Context, params url.Values) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("mediawiki: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// postFile sends params plus the file at path as a multipart upload.
// The file is re-read from disk on every call so retries see a clean
// stream.
func (c *Client) postFile(ctx context.Context, params url.Values, path string) (*envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mediawiki: open upload file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for key, vals := range params {
		for _, v := range vals {
			if err := w.WriteField(key, v); err != nil {
				return nil, fmt.Errorf("mediawiki: multipart field: %w", err)
			}
		}
	}
	// The Content-Disposition filename is not interpreted by the API;
	// an ascii placeholder sidesteps non-ascii encoding issues.
	part, err := w.CreateFormFile("file", "upload.bin")
	if err != nil {
		return nil, fmt.Errorf("mediawiki: multipart file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("mediawiki: read upload file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("mediawiki: multipart close: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &body)
	if err != nil {
		return nil, fmt.Errorf("mediawiki: new request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mediawiki: %s: %w", c.host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mediawiki: %s: http %d", c.host, resp.StatusCode)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("mediawiki: decode response from %s: %w", c.host, err)
	}
	if env.Error != nil {
		return nil, env.Error
	}
	return &env, nil
}

// envelope is the subset of the action API response the bot reads.
type envelope struct {
	Error    *APIError         `json:"error"`
	Query    *queryData        `json:"query"`
	Login    *loginData        `json:"login"`
	Edit     *editData         `json:"edit"`
	Upload   *uploadData       `json:"upload"`
	Continue map[string]string `json:"continue"`
}

type queryData struct {
	Tokens     map[string]string `json:"tokens"`
	Pages      []pageData        `json:"pages"`
	EmbeddedIn []titleData       `json:"embeddedin"`
}

type pageData struct {
	Title     string          `json:"title"`
	Missing   bool            `json:"missing"`
	Revisions []revisionData  `json:"revisions"`
	ImageInfo []imageInfoData `json:"imageinfo"`
}

type revisionData struct {
	Slots map[string]slotData `json:"slots"`
}

type slotData struct {
	Content string `json:"content"`
}

type imageInfoData struct {
	URL string `json:"url"`
}

type titleData struct {
	Title string `json:"title"`
}

type loginData struct {
	Result string `json:"result"`
	Reason string `json:"reason"`
}

type editData struct {
	Result string `json:"result"`
}

type uploadData struct {
	Result   string                     `json:"result"`
	Warnings map[string]json.RawMessage `json:"warnings"`
}

// interpretUpload maps an upload response to (newly uploaded, error).
// Duplicate-content and name-exists warnings are normal false outcomes,
// not faults, so they never feed the retry loop.
func interpretUpload(env *envelope) (bool, error) {
	if env.Upload == nil {
		return false, fmt.Errorf("mediawiki: empty upload response")
	}
	if env.Upload.Result == "Success" {
		return true, nil
	}
	if _, ok := env.Upload.Warnings["duplicate"]; ok {
		return false, nil
	}
	if _, ok := env.Upload.Warnings["exists"]; ok {
		return false, nil
	}
	keys := make([]string, 0, len(env.Upload.Warnings))
	for k := range env.Upload.Warnings {
		keys = append(keys, k)
	}
	return false, fmt.Errorf("mediawiki: upload result %q, warnings %v", env.Upload.Result, keys)
}

func limitParam(remaining int) string {
	if remaining > 500 {
		remaining = 500
	}
	return strconv.Itoa(remaining)
}
