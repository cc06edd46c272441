package mediawiki

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is the standard MediaWiki error envelope surfaced as a Go
// error. Code is the machine-readable error code, Info the human text.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki: %s: %s", e.Code, e.Info)
}

// IsUploadDisabled reports whether err means the remote-URL upload mode
// is switched off on the target wiki, which triggers the
// download-then-upload fallback. Detection is the API error code plus a
// message-substring match; keep every call site on this predicate so
// the sniffing can be hardened in one place if the server wording
// changes.
func IsUploadDisabled(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == "copyuploaddisabled" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "copyupload") || strings.Contains(msg, "upload by url")
}

// IsPermissionDenied reports whether err is a permission or token fault,
// which no amount of retrying will fix.
func IsPermissionDenied(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case "permissiondenied", "badtoken", "mwoauth-invalid-authorization":
		return true
	}
	return false
}

// IsRateLimited reports whether err is a throttling response.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == "ratelimited" || apiErr.Code == "throttled" ||
		strings.Contains(apiErr.Code, "rate")
}
