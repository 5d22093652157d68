// Package subject derives the normalized page titles used as the unit of
// resolution, cache key, and dedup key.
package subject

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Subject is a normalized page title. It is immutable once derived.
type Subject string

const articlePrefix = "/wiki/"

// Normalize strips any fragment, percent-decodes, and NFC-normalizes raw.
// Malformed escapes leave the text undecoded rather than dropping it.
func Normalize(raw string) Subject {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return Subject(strings.TrimSpace(norm.NFC.String(raw)))
}

// FromHref derives a subject from an article href such as
// "/wiki/Inception#Plot". It reports false for anything that is not an
// article link.
func FromHref(href string) (Subject, bool) {
	href = strings.TrimSpace(href)
	if !strings.HasPrefix(href, articlePrefix) {
		return "", false
	}
	rest := strings.TrimPrefix(href, articlePrefix)
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}
	s := Normalize(rest)
	if s == "" {
		return "", false
	}
	return s, true
}

// FromPath derives the current page subject from a URL path such as
// "/wiki/The_Matrix". Anything without the article prefix is treated as a
// bare title.
func FromPath(path string) Subject {
	if s, ok := FromHref(path); ok {
		return s
	}
	return Normalize(path)
}

func (s Subject) String() string { return string(s) }
