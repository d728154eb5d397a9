// Package domain turns free-form source references into canonical registrable hostnames.
package domain

import (
	"net/url"
	"strings"
	"unicode"
)

// Resolve accepts a bare hostname or a full URL and returns the lower-cased host
// without leading "www." labels. Empty input and input containing any whitespace,
// leading or trailing included, are rejected.
func Resolve(raw string) (string, bool) {
	if raw == "" || strings.IndexFunc(raw, unicode.IsSpace) >= 0 {
		return "", false
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimSuffix(host, ".")
	for strings.HasPrefix(host, "www.") {
		host = strings.TrimPrefix(host, "www.")
	}
	if host == "" {
		return "", false
	}
	return host, true
}
