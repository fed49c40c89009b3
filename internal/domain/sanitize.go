package domain

import (
	"html"
	"regexp"
	"strings"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// SanitizeText strips HTML tags and escapes the remaining markup characters.
// Applied to every free-text request field before it can reach a render
// prompt or a persisted record.
func SanitizeText(v string) string {
	if v == "" {
		return v
	}
	stripped := htmlTagPattern.ReplaceAllString(v, "")
	return html.EscapeString(strings.TrimSpace(stripped))
}
