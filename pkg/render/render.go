// Package render turns a widget state snapshot into an HTML string. It is
// a pure mapping: no I/O, no mutation, identical output for identical
// input.
package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gabrielmiguelok/commentkit/pkg/comment"
	"github.com/gabrielmiguelok/commentkit/pkg/security"
	"github.com/gabrielmiguelok/commentkit/pkg/theme"
)

// DefaultMaxDepth bounds how deep the reply action is offered. Deeper
// replies still render, as non-repliable leaves.
const DefaultMaxDepth = 3

// indentCap bounds visual nesting so pathological payloads cannot push
// content off-screen.
const indentCap = 6

// Input is the state snapshot the renderer consumes.
type Input struct {
	Comments   []*comment.Comment
	Loading    bool
	Error      string
	Theme      string
	ReplyingTo *int64
}

// Options configure presentation.
type Options struct {
	// MaxDepth is the deepest level the reply action appears at.
	// Zero means DefaultMaxDepth.
	MaxDepth int

	// ShowThemeSelector adds the theme dropdown to the header.
	ShowThemeSelector bool

	// Markdown renders comment content as markdown instead of plain text.
	Markdown bool

	// Now fixes the clock for date formatting. Nil means time.Now.
	Now func() time.Time
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Renderer renders widget state against a theme registry.
type Renderer struct {
	themes *theme.Registry
	opts   Options
}

// New creates a renderer. A nil registry gets the built-in themes.
func New(themes *theme.Registry, opts Options) *Renderer {
	if themes == nil {
		themes = theme.NewRegistry()
	}
	return &Renderer{themes: themes, opts: opts}
}

// Widget renders the full widget: style, header, panels, comment tree and
// form.
func (r *Renderer) Widget(in Input) string {
	def := r.themes.Lookup(in.Theme)
	now := time.Now()
	if r.opts.Now != nil {
		now = r.opts.Now()
	}

	var sb strings.Builder
	sb.WriteString(`<style>`)
	sb.WriteString(theme.CSS(def))
	sb.WriteString("</style>\n")
	sb.WriteString(`<div class="ck-widget">` + "\n")

	r.writeHeader(&sb, in)

	switch {
	case in.Error != "":
		fmt.Fprintf(&sb, `<div class="ck-error" role="alert">%s</div>`+"\n", html.EscapeString(in.Error))
	case in.Loading:
		sb.WriteString(`<div class="ck-loading">Loading comments…</div>` + "\n")
	}

	r.writeComments(&sb, in.Comments, now)

	// The form is hidden while an operation is outstanding or failed, so a
	// submit can never race a load or stack onto an error state.
	if !in.Loading && in.Error == "" {
		r.writeForm(&sb, in)
	}

	sb.WriteString(`</div>`)
	return sb.String()
}

func (r *Renderer) writeHeader(sb *strings.Builder, in Input) {
	sb.WriteString(`<div class="ck-header">`)
	fmt.Fprintf(sb, `<span class="ck-title">Comments</span><span class="ck-count">%d</span>`,
		comment.Count(in.Comments))

	if r.opts.ShowThemeSelector {
		current := r.themes.Resolve(in.Theme)
		sb.WriteString(`<select class="ck-theme-select" data-action="set-theme">`)
		for _, id := range r.themes.IDs() {
			selected := ""
			if id == current {
				selected = ` selected`
			}
			fmt.Fprintf(sb, `<option value="%s"%s>%s</option>`,
				html.EscapeString(id), selected, html.EscapeString(r.themes.Lookup(id).Label))
		}
		sb.WriteString(`</select>`)
	}
	sb.WriteString("</div>\n")
}

func (r *Renderer) writeComments(sb *strings.Builder, comments []*comment.Comment, now time.Time) {
	if len(comments) == 0 {
		sb.WriteString(`<div class="ck-empty">No comments yet. Be the first to comment!</div>` + "\n")
		return
	}
	sb.WriteString(`<div class="ck-comments">` + "\n")
	for _, c := range comments {
		r.writeComment(sb, c, 0, now)
	}
	sb.WriteString("</div>\n")
}

func (r *Renderer) writeComment(sb *strings.Builder, c *comment.Comment, level int, now time.Time) {
	fmt.Fprintf(sb, `<div class="ck-comment" data-comment-id="%d">`, c.ID)

	sb.WriteString(`<div class="ck-comment-meta">`)
	fmt.Fprintf(sb, `<span class="ck-author">%s</span>`, security.SanitizeText(c.AuthorName))
	fmt.Fprintf(sb, `<span class="ck-date">%s</span>`, FormatTimestamp(c.CreatedAt, now))
	sb.WriteString(`</div>`)

	fmt.Fprintf(sb, `<div class="ck-content">%s</div>`, r.content(c.Content))

	if level < r.opts.maxDepth() {
		fmt.Fprintf(sb, `<button class="ck-reply-btn" data-action="reply" data-comment-id="%d">Reply</button>`, c.ID)
	}
	sb.WriteString("</div>\n")

	if len(c.Replies) == 0 {
		return
	}
	// Nesting wrappers stop at the indent cap; deeper replies render as
	// siblings at the capped indentation.
	if level < indentCap {
		sb.WriteString(`<div class="ck-replies">` + "\n")
		for _, reply := range c.Replies {
			r.writeComment(sb, reply, level+1, now)
		}
		sb.WriteString("</div>\n")
		return
	}
	for _, reply := range c.Replies {
		r.writeComment(sb, reply, level+1, now)
	}
}

// content sanitizes raw comment text for display. Raw state is never
// modified; this is a derived value.
func (r *Renderer) content(raw string) string {
	if r.opts.Markdown {
		return renderMarkdown(raw)
	}
	return security.SanitizeComment(raw)
}

func (r *Renderer) writeForm(sb *strings.Builder, in Input) {
	label := "Post Comment"
	parentID := ""
	sb.WriteString(`<form class="ck-form" data-action="submit">` + "\n")

	if in.ReplyingTo != nil {
		label = "Post Reply"
		parentID = fmt.Sprintf("%d", *in.ReplyingTo)
		fmt.Fprintf(sb, `<div class="ck-reply-banner">Replying to comment #%s <button type="button" class="ck-cancel-reply" data-action="cancel-reply">Cancel</button></div>`+"\n", parentID)
	}

	fmt.Fprintf(sb, `<input type="hidden" name="parent_id" value="%s">`+"\n", parentID)
	sb.WriteString(`<input type="text" name="author_name" placeholder="Your name" required>` + "\n")
	sb.WriteString(`<input type="email" name="author_email" placeholder="Your email (never shown)" required>` + "\n")
	sb.WriteString(`<textarea name="content" rows="4" placeholder="Write a comment…" required></textarea>` + "\n")
	fmt.Fprintf(sb, `<button type="submit" class="ck-submit">%s</button>`+"\n", label)
	sb.WriteString("</form>\n")
}
