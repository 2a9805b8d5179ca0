package widget

import (
	"strconv"

	"github.com/gabrielmiguelok/commentkit/pkg/comment"
	"github.com/gabrielmiguelok/commentkit/pkg/render"
)

// Attribute names the host page sets on the widget element.
const (
	AttrThreadID          = "thread-id"
	AttrAPIBaseURL        = "api-base-url"
	AttrTheme             = "theme"
	AttrMaxDepth          = "max-depth"
	AttrShowThemeSelector = "show-theme-selector"
	AttrMarkdown          = "markdown"
)

// Config is the resolved widget configuration.
type Config struct {
	// ThreadID identifies the comment thread. When the host page sets no
	// numeric thread-id, one is derived from the page URL.
	ThreadID int64

	// APIBaseURL overrides the backend endpoint. Empty uses the default.
	APIBaseURL string

	// Theme is the initial theme identifier.
	Theme string

	// MaxDepth bounds how deep the reply action is offered.
	MaxDepth int

	// ShowThemeSelector adds the theme dropdown.
	ShowThemeSelector bool

	// Markdown renders comment content as markdown.
	Markdown bool

	// PageURL is the embedding page, used for thread-id derivation.
	PageURL string
}

// ConfigFromAttributes resolves element attributes into a Config. Absent
// or unparseable attributes fall back to defaults rather than failing: an
// embedded widget must come up with whatever the host page gave it.
func ConfigFromAttributes(attrs map[string]string, pageURL string) Config {
	cfg := Config{
		Theme:    attrs[AttrTheme],
		PageURL:  pageURL,
		MaxDepth: render.DefaultMaxDepth,
	}

	if v, err := strconv.ParseInt(attrs[AttrThreadID], 10, 64); err == nil && v > 0 {
		cfg.ThreadID = v
	} else {
		cfg.ThreadID = NumericThreadID(pageURL)
	}

	cfg.APIBaseURL = attrs[AttrAPIBaseURL]

	if v, err := strconv.Atoi(attrs[AttrMaxDepth]); err == nil && v > 0 {
		cfg.MaxDepth = v
	}

	cfg.ShowThemeSelector = boolAttr(attrs, AttrShowThemeSelector)
	cfg.Markdown = boolAttr(attrs, AttrMarkdown)

	return cfg
}

// boolAttr follows HTML boolean-attribute semantics: present means true
// unless the value explicitly parses false.
func boolAttr(attrs map[string]string, name string) bool {
	v, ok := attrs[name]
	if !ok {
		return false
	}
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

// NumericThreadID folds the page-URL digest into a positive int64, so a
// page without an explicit thread id still maps to a stable thread.
func NumericThreadID(pageURL string) int64 {
	hexID := comment.DeriveThreadID(pageURL)
	v, err := strconv.ParseUint(hexID, 16, 64)
	if err != nil {
		return 1
	}
	id := int64(v & (1<<63 - 1))
	if id == 0 {
		return 1
	}
	return id
}
