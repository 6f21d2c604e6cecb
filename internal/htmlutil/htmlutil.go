// Package htmlutil converts LMS-provided HTML fragments into plain text
// suitable for calendar event notes.
package htmlutil

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[ \t\r\f]+`)
	blankLinePattern  = regexp.MustCompile(`\n{3,}`)
)

// RemoveTags strips HTML markup from a fragment and returns readable plain
// text: entities decoded, runs of whitespace collapsed, at most one blank
// line in a row.
func RemoveTags(fragment string) string {
	if fragment == "" {
		return ""
	}

	// Keep line structure for the common block-level breaks
	text := strings.NewReplacer(
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
		"</p>", "\n", "</div>", "\n", "</li>", "\n",
	).Replace(fragment)

	text = tagPattern.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = whitespacePattern.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLinePattern.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
