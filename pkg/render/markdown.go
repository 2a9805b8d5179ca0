package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/gabrielmiguelok/commentkit/pkg/security"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
)

// markdownSanitizer re-checks converted output against the tag allow-list,
// so markdown never widens what a comment may contain.
var markdownSanitizer = security.NewSanitizer(security.CommentOptions{
	AllowHTML:  true,
	AllowLinks: true,
	MaxLength:  10000,
})

// renderMarkdown converts comment text to HTML and pushes the result back
// through the sanitizer.
func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return security.SanitizeComment(content)
	}
	return markdownSanitizer.SanitizeComment(buf.String())
}
