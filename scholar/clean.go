package scholar

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var spaceRuns = regexp.MustCompile(`\s+`)

// cleanText strips markup from provider titles and snippets. Scholar results
// routinely embed <b> highlights and HTML entities; downstream prompts want
// plain text.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsRune(s, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRuns.ReplaceAllString(s, " "))
}
