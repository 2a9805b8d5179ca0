// Package theme maps theme identifiers to style definitions and renders
// them to CSS. Unknown identifiers always resolve to the default theme so
// the widget never renders with undefined styling.
package theme

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultID is the identifier every failed lookup falls back to.
const DefaultID = "default"

// Colors are the semantic color roles the renderer and generated CSS rely
// on. Every role must be set; Validate enforces completeness.
type Colors struct {
	Primary    string
	Background string
	Surface    string
	Text       string
	TextMuted  string
	Border     string
	Danger     string
	Success    string
}

// Definition is a full visual theme.
type Definition struct {
	ID           string
	Label        string
	Colors       Colors
	FontFamily   string
	FontSize     string
	Spacing      string
	BorderRadius string
	Transition   string
}

// Validate reports the first missing field, if any. A definition with a
// missing color role is rejected at registration, never at lookup.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("theme: missing id")
	}
	roles := map[string]string{
		"primary":    d.Colors.Primary,
		"background": d.Colors.Background,
		"surface":    d.Colors.Surface,
		"text":       d.Colors.Text,
		"textMuted":  d.Colors.TextMuted,
		"border":     d.Colors.Border,
		"danger":     d.Colors.Danger,
		"success":    d.Colors.Success,
	}
	for role, v := range roles {
		if v == "" {
			return fmt.Errorf("theme %q: missing color role %q", d.ID, role)
		}
	}
	if d.FontFamily == "" || d.Spacing == "" {
		return fmt.Errorf("theme %q: missing presentation parameters", d.ID)
	}
	return nil
}

// Registry maps theme identifiers to definitions.
type Registry struct {
	mu     sync.RWMutex
	themes map[string]Definition
}

// NewRegistry creates a registry seeded with the built-in themes.
func NewRegistry() *Registry {
	r := &Registry{themes: make(map[string]Definition)}
	for _, d := range builtins() {
		r.themes[d.ID] = d
	}
	return r
}

// Register adds or replaces a theme definition.
func (r *Registry) Register(d Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.themes[d.ID] = d
	return nil
}

// Lookup resolves an identifier, falling back to the default theme on any
// miss.
func (r *Registry) Lookup(id string) Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.themes[id]; ok {
		return d
	}
	return r.themes[DefaultID]
}

// Has reports whether an identifier is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.themes[id]
	return ok
}

// Resolve returns id when registered, otherwise the default identifier.
func (r *Registry) Resolve(id string) string {
	if r.Has(id) {
		return id
	}
	return DefaultID
}

// IDs returns the sorted registered identifiers, for the theme selector.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.themes))
	for id := range r.themes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var systemFont = `system-ui, -apple-system, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif`

// builtins returns the fixed set of shipped themes.
func builtins() []Definition {
	return []Definition{
		{
			ID:    DefaultID,
			Label: "Default",
			Colors: Colors{
				Primary:    "#2563EB",
				Background: "#FFFFFF",
				Surface:    "#F8FAFC",
				Text:       "#0F172A",
				TextMuted:  "#64748B",
				Border:     "#E2E8F0",
				Danger:     "#DC2626",
				Success:    "#16A34A",
			},
			FontFamily:   systemFont,
			FontSize:     "15px",
			Spacing:      "1rem",
			BorderRadius: "8px",
			Transition:   "all 0.2s ease",
		},
		{
			ID:    "dark",
			Label: "Dark",
			Colors: Colors{
				Primary:    "#60A5FA",
				Background: "#0F172A",
				Surface:    "#1E293B",
				Text:       "#F8FAFC",
				TextMuted:  "#94A3B8",
				Border:     "#334155",
				Danger:     "#F87171",
				Success:    "#34D399",
			},
			FontFamily:   systemFont,
			FontSize:     "15px",
			Spacing:      "1rem",
			BorderRadius: "8px",
			Transition:   "all 0.2s ease",
		},
		{
			ID:    "minimal",
			Label: "Minimal",
			Colors: Colors{
				Primary:    "#111111",
				Background: "#FFFFFF",
				Surface:    "#FFFFFF",
				Text:       "#111111",
				TextMuted:  "#777777",
				Border:     "#DDDDDD",
				Danger:     "#B91C1C",
				Success:    "#15803D",
			},
			FontFamily:   `Georgia, 'Times New Roman', serif`,
			FontSize:     "16px",
			Spacing:      "0.75rem",
			BorderRadius: "0",
			Transition:   "none",
		},
		{
			ID:    "rounded",
			Label: "Rounded",
			Colors: Colors{
				Primary:    "#7C3AED",
				Background: "#FAF5FF",
				Surface:    "#FFFFFF",
				Text:       "#1E1B4B",
				TextMuted:  "#6D28D9",
				Border:     "#DDD6FE",
				Danger:     "#DB2777",
				Success:    "#059669",
			},
			FontFamily:   systemFont,
			FontSize:     "15px",
			Spacing:      "1.25rem",
			BorderRadius: "16px",
			Transition:   "all 0.25s ease-in-out",
		},
		{
			ID:    "compact",
			Label: "Compact",
			Colors: Colors{
				Primary:    "#0369A1",
				Background: "#FFFFFF",
				Surface:    "#F0F9FF",
				Text:       "#082F49",
				TextMuted:  "#475569",
				Border:     "#BAE6FD",
				Danger:     "#BE123C",
				Success:    "#047857",
			},
			FontFamily:   systemFont,
			FontSize:     "13px",
			Spacing:      "0.5rem",
			BorderRadius: "4px",
			Transition:   "all 0.15s ease",
		},
	}
}
