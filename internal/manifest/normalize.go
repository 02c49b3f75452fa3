package manifest

import (
	"regexp"
	"strings"
)

// DefaultTagPrefix is stripped from release tags unless a product configures another one.
const DefaultTagPrefix = "v"

var htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)

// StripComments removes HTML comments from a release body and trims leading
// and trailing line breaks. Applying it twice yields the same result as
// applying it once.
func StripComments(body string) string {
	// Removing one comment can splice two halves of an outer marker into a new one.
	for {
		stripped := htmlComment.ReplaceAllString(body, "")
		if stripped == body {
			break
		}
		body = stripped
	}
	return strings.Trim(body, "\r\n")
}

// NormalizeTag strips prefix from tag once and removes redundant leading
// zeroes from every numeric component, so "v1.02.03" becomes "1.2.3".
// Non-numeric components are left untouched.
func NormalizeTag(tag, prefix string) string {
	parts := strings.Split(strings.TrimPrefix(tag, prefix), ".")
	for i, part := range parts {
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			continue
		}
		trimmed := strings.TrimLeft(part, "0")
		if trimmed == "" {
			trimmed = "0"
		}
		parts[i] = trimmed
	}
	return strings.Join(parts, ".")
}

// ParseTag normalizes tag with NormalizeTag and parses the result.
// The returned error wraps ErrMalformedVersion.
func ParseTag(tag, prefix string) (Version, error) {
	return ParseVersion(NormalizeTag(tag, prefix))
}
