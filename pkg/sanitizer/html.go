package sanitizer

import "github.com/microcosm-cc/bluemonday"

// Policies are safe for concurrent use once built.
var (
	textPolicy = bluemonday.StrictPolicy()
	richPolicy = newRichPolicy()
)

// newRichPolicy allows the markup a free-text column may carry back into a
// page: paragraphs, emphasis, lists, code and nofollow links.
func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "b", "em", "i", "ul", "ol", "li", "code", "pre", "blockquote")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return p
}

// StripHTML drops every tag. The remaining text stays HTML-escaped.
func StripHTML(s string) string {
	return textPolicy.Sanitize(s)
}

// SanitizeHTML keeps the rich text subset and removes the rest.
func SanitizeHTML(s string) string {
	return richPolicy.Sanitize(s)
}
