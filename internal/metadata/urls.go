// Package metadata finds links in message content and resolves link-preview
// metadata and hosted media for them.
package metadata

import (
	"regexp"
	"strings"
	"unicode"
)

var urlPattern = regexp.MustCompile(`(?i)https://[^\s<>"]+`)

const trailingPunctuation = ".,;:')]"

// ExtractURLs returns the distinct https URLs in content in order of first
// appearance. Trailing punctuation is trimmed and candidates holding control
// characters are dropped.
func ExtractURLs(content string) []string {
	if content == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var urls []string
	for _, candidate := range urlPattern.FindAllString(content, -1) {
		u := strings.TrimRight(candidate, trailingPunctuation)
		if len(u) <= len("https://") || strings.IndexFunc(u, unicode.IsControl) >= 0 {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}
