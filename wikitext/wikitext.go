// Package wikitext provides pure functions over MediaWiki markup: finding
// marker templates, reading their positional arguments, and rewriting
// markers into native file-embed syntax. It performs no I/O.
package wikitext

import (
	"regexp"
	"strings"
)

// Marker names recognised by the extractor. Matching is case-insensitive
// and treats underscores as spaces, the way MediaWiki normalises titles.
const (
	importMarkerName   = "nc"
	languageLineMarker = "user:mr. ibrahem/import bot/line"
)

// ImportRequest is one occurrence of the import marker on a page.
// SourceText is the exact original substring, kept verbatim so the
// processor can replace it by exact match.
type ImportRequest struct {
	SourceText string
	Filename   string
	Caption    string
}

// EmbedSyntax renders the native file-embed wikitext for the request:
// [[File:name|thumb|caption]]. An empty caption keeps its trailing
// segment. The File: namespace prefix is stripped from the name first.
func (r ImportRequest) EmbedSyntax() string {
	name := strings.TrimPrefix(strings.TrimPrefix(r.Filename, "File:"), "file:")
	return "[[File:" + name + "|thumb|" + r.Caption + "]]"
}

// ExtractImportRequests finds every import marker in page text, in
// document order. Argument 1 is the filename, argument 2 the optional
// caption; both are trimmed. Markers with an empty filename are dropped.
func ExtractImportRequests(text string) []ImportRequest {
	var out []ImportRequest
	for _, t := range scanTemplates(text) {
		if normalizeName(t.name) != importMarkerName {
			continue
		}
		filename := strings.TrimSpace(t.arg(1))
		if filename == "" {
			continue
		}
		out = append(out, ImportRequest{
			SourceText: t.raw,
			Filename:   filename,
			Caption:    strings.TrimSpace(t.arg(2)),
		})
	}
	return out
}

// ParseLanguageList reads language codes from the language-list page:
// one code per language-line marker, first positional argument, trimmed.
// Duplicates are kept in document order; callers rely on the tracking
// store for idempotence rather than on dedup here.
func ParseLanguageList(text string) []string {
	var langs []string
	for _, t := range scanTemplates(text) {
		if !strings.Contains(normalizeName(t.name), languageLineMarker) {
			continue
		}
		if code := strings.TrimSpace(t.arg(1)); code != "" {
			langs = append(langs, code)
		}
	}
	return langs
}

var categoryRe = regexp.MustCompile(`(?is)\[\[category:.*?\]\]`)

// StripCategories removes every category link from text, case-insensitive
// and across newlines, and trims surrounding whitespace.
func StripCategories(text string) string {
	return strings.TrimSpace(categoryRe.ReplaceAllString(text, ""))
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", " ")
}
