// Package security provides the sanitization pipeline for user-submitted
// comment content. Raw text is sanitized at render time; stored content is
// never modified.
package security

import (
	"html"
	"regexp"
	"strings"

	"github.com/gabrielmiguelok/commentkit/pkg/comment"
)

// RemovedPlaceholder replaces any sanitized result that still trips the
// denylist backstop.
const RemovedPlaceholder = "[Comment removed for security]"

// ForcedLinkRel is applied to every surviving anchor tag.
const ForcedLinkRel = "noopener noreferrer nofollow ugc"

// CommentOptions configures comment sanitization.
type CommentOptions struct {
	// AllowHTML permits a fixed allow-list of tags. When false (the
	// default) every tag is stripped and only text survives.
	AllowHTML bool

	// AllowLinks keeps the "a" tag in the allow-list. Ignored unless
	// AllowHTML is set.
	AllowLinks bool

	// ConvertNewlines replaces line breaks with literal <br> tokens after
	// tag stripping. Only applies when AllowHTML is false.
	ConvertNewlines bool

	// MaxLength truncates input before any other processing.
	MaxLength int
}

// DefaultCommentOptions returns the MVP defaults: text only, newlines
// converted, 5000 character cap.
func DefaultCommentOptions() CommentOptions {
	return CommentOptions{
		AllowHTML:       false,
		AllowLinks:      false,
		ConvertNewlines: true,
		MaxLength:       5000,
	}
}

// allowedTags is the fixed tag allow-list for AllowHTML mode. "a" is added
// per-sanitizer when AllowLinks is set.
var allowedTags = map[string]bool{
	"p":      true,
	"br":     true,
	"strong": true,
	"em":     true,
	"code":   true,
}

// forbiddenTags are dropped unconditionally, never escaped into view.
// For container tags the enclosed content is dropped too.
var forbiddenTags = map[string]bool{
	"script": true,
	"iframe": true,
	"object": true,
	"embed":  true,
	"style":  true,
	"img":    true,
}

var (
	attrRegex    = regexp.MustCompile(`([a-zA-Z-]+)\s*=\s*["']([^"']*)["']`)
	handlerRegex = regexp.MustCompile(`\bon\w+\s*=`)
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	newlineRegex = regexp.MustCompile(`\r\n|\r|\n`)
)

// denylist is the final defense-in-depth scan over sanitized output.
var denylist = []string{
	"javascript:",
	"data:text/html",
	"vbscript:",
	"<script",
	"<iframe",
}

// Sanitizer applies the comment sanitization pipeline.
type Sanitizer struct {
	opts CommentOptions
}

// NewSanitizer creates a sanitizer with the given options.
func NewSanitizer(opts CommentOptions) *Sanitizer {
	return &Sanitizer{opts: opts}
}

// SanitizeComment sanitizes raw comment text with the default options.
func SanitizeComment(text string) string {
	return NewSanitizer(DefaultCommentOptions()).SanitizeComment(text)
}

// SanitizeComment turns raw comment text into safe, limited-HTML output.
func (s *Sanitizer) SanitizeComment(text string) string {
	text = truncate(text, s.opts.MaxLength)

	var out string
	if s.opts.AllowHTML {
		out = s.sanitizeHTML(text)
	} else {
		out = html.EscapeString(stripTags(text))
		if s.opts.ConvertNewlines {
			out = newlineRegex.ReplaceAllString(out, "<br>")
		}
	}

	if hitsDenylist(out) {
		return RemovedPlaceholder
	}
	return out
}

// SanitizeText escapes a publicly displayed string; no tags ever survive.
func SanitizeText(text string) string {
	return html.EscapeString(stripTags(text))
}

// SanitizeEmail validates a local@domain.tld shape. It returns the
// lowercased, trimmed address, or ok=false when the input does not parse.
func SanitizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return "", false
	}
	return email, true
}

// SanitizeCommentTree returns a deep copy of the comment with sanitized
// content, escaped author name, validated email, and approval codes coerced
// into range. Replies are sanitized recursively.
func (s *Sanitizer) SanitizeCommentTree(c *comment.Comment) *comment.Comment {
	if c == nil {
		return nil
	}
	cp := c.Clone()
	cp.Content = s.SanitizeComment(cp.Content)
	cp.AuthorName = SanitizeText(cp.AuthorName)
	if email, ok := SanitizeEmail(cp.AuthorEmail); ok {
		cp.AuthorEmail = email
	} else {
		cp.AuthorEmail = ""
	}
	cp.Approval = cp.Approval.Coerce()
	for i, r := range cp.Replies {
		cp.Replies[i] = s.SanitizeCommentTree(r)
	}
	return cp
}

// sanitizeHTML scans the input keeping only allow-listed tags with
// sanitized attributes. Everything else is escaped, except forbidden tags
// which are dropped outright.
func (s *Sanitizer) sanitizeHTML(input string) string {
	var result strings.Builder
	i := 0

	for i < len(input) {
		if input[i] != '<' {
			j := strings.IndexByte(input[i:], '<')
			if j == -1 {
				result.WriteString(html.EscapeString(input[i:]))
				break
			}
			result.WriteString(html.EscapeString(input[i : i+j]))
			i += j
			continue
		}

		end := strings.IndexByte(input[i:], '>')
		if end == -1 {
			// Malformed trailing tag, escape the rest.
			result.WriteString(html.EscapeString(input[i:]))
			break
		}

		tag := input[i : i+end+1]
		name := tagName(tag)

		switch {
		case forbiddenTags[name]:
			i += end + 1
			// Drop enclosed content up to the matching close tag.
			if !strings.HasPrefix(tag, "</") && name != "img" && name != "embed" {
				if close := strings.Index(strings.ToLower(input[i:]), "</"+name); close != -1 {
					i += close
					if gt := strings.IndexByte(input[i:], '>'); gt != -1 {
						i += gt + 1
					} else {
						i = len(input)
					}
				}
			}
		case s.tagAllowed(name):
			result.WriteString(s.rebuildTag(tag, name))
			i += end + 1
		default:
			result.WriteString(html.EscapeString(tag))
			i += end + 1
		}
	}

	return result.String()
}

func (s *Sanitizer) tagAllowed(name string) bool {
	if name == "a" {
		return s.opts.AllowLinks
	}
	return allowedTags[name]
}

// rebuildTag reconstructs an allowed tag from scratch so that no attribute
// survives unless explicitly kept.
func (s *Sanitizer) rebuildTag(tag, name string) string {
	if strings.HasPrefix(tag, "</") {
		return "</" + name + ">"
	}

	if name != "a" {
		// Only anchors carry attributes.
		return "<" + name + ">"
	}

	href := ""
	for _, m := range attrRegex.FindAllStringSubmatch(tag, -1) {
		if strings.ToLower(m[1]) == "href" {
			href = sanitizeHref(m[2])
		}
	}

	var b strings.Builder
	b.WriteString("<a")
	if href != "" {
		b.WriteString(` href="` + html.EscapeString(href) + `"`)
	}
	b.WriteString(` rel="` + ForcedLinkRel + `">`)
	return b.String()
}

// sanitizeHref keeps only http/https URLs.
func sanitizeHref(href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return href
	}
	return ""
}

func tagName(tag string) string {
	content := strings.TrimPrefix(tag, "<")
	content = strings.TrimSuffix(content, ">")
	content = strings.TrimPrefix(content, "/")
	content = strings.TrimSpace(content)
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSuffix(fields[0], "/"))
}

// stripTags removes every tag, keeping only text content. Script and style
// bodies are dropped along with their tags.
func stripTags(input string) string {
	var result strings.Builder
	i := 0
	for i < len(input) {
		if input[i] != '<' {
			j := strings.IndexByte(input[i:], '<')
			if j == -1 {
				result.WriteString(input[i:])
				break
			}
			result.WriteString(input[i : i+j])
			i += j
			continue
		}
		end := strings.IndexByte(input[i:], '>')
		if end == -1 {
			result.WriteString(input[i:])
			break
		}
		name := tagName(input[i : i+end+1])
		i += end + 1
		if name == "script" || name == "style" {
			if close := strings.Index(strings.ToLower(input[i:]), "</"+name); close != -1 {
				i += close
				if gt := strings.IndexByte(input[i:], '>'); gt != -1 {
					i += gt + 1
				} else {
					i = len(input)
				}
			}
		}
	}
	return result.String()
}

func hitsDenylist(out string) bool {
	lower := strings.ToLower(out)
	for _, needle := range denylist {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return handlerRegex.MatchString(lower)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
