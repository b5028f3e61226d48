// Package htmlsanitize cleans the free-form notes musicians attach to songs,
// setlists and setlist items. Notes may be plain text (lyrics, chord charts)
// or light HTML pasted from elsewhere.
package htmlsanitize

import (
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		// chord charts are usually pasted as preformatted text
		policy.AllowElements("pre", "code", "u", "s", "sub", "sup", "mark")
		policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("pre", "code", "span")

		// links open outside the app
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return policy
}

// Sanitize removes dangerous elements and attributes from HTML notes.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return getPolicy().Sanitize(html)
}

// SanitizeToHTML sanitizes input and returns it as template.HTML.
func SanitizeToHTML(html string) template.HTML {
	return template.HTML(Sanitize(html))
}

// IsPlainText reports whether content has no HTML tags.
func IsPlainText(content string) bool {
	if content == "" {
		return true
	}
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}

// PlainTextToHTML escapes text and keeps its line structure. Text that
// looks like a chord chart (several lines with runs of spaces) is kept in a
// <pre> block so columns stay aligned.
func PlainTextToHTML(text string) string {
	if text == "" {
		return ""
	}
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	if looksLikeChart(text) {
		return `<pre class="chart">` + escaped + "</pre>"
	}
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

func looksLikeChart(text string) bool {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return false
	}
	aligned := 0
	for _, l := range lines {
		if strings.Contains(l, "   ") {
			aligned++
		}
	}
	return aligned*2 >= len(lines)
}

// PrepareForDisplay returns notes as safe template.HTML whether they were
// stored as plain text or HTML.
func PrepareForDisplay(content string) template.HTML {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if IsPlainText(content) {
		return template.HTML(PlainTextToHTML(content))
	}
	return SanitizeToHTML(content)
}
