package theme

import (
	"fmt"
	"strings"
)

// CSSOption customizes the generated stylesheet.
type CSSOption func(*cssConfig)

type cssConfig struct {
	scope        string
	includeReset bool
}

// WithScope overrides the selector the stylesheet is scoped under. The
// default keeps all rules inside the widget container so host-page styles
// are never touched.
func WithScope(selector string) CSSOption {
	return func(cfg *cssConfig) {
		cfg.scope = selector
	}
}

// WithReset includes a minimal reset for the widget subtree.
func WithReset(include bool) CSSOption {
	return func(cfg *cssConfig) {
		cfg.includeReset = include
	}
}

// CSS renders the complete scoped stylesheet for a theme definition.
func CSS(d Definition, opts ...CSSOption) string {
	cfg := &cssConfig{
		scope:        ".ck-widget",
		includeReset: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var sb strings.Builder

	if cfg.includeReset {
		sb.WriteString(cssReset(cfg.scope))
	}
	sb.WriteString(cssVariables(cfg.scope, d))
	sb.WriteString(cssBase(cfg.scope))
	sb.WriteString(cssHeader(cfg.scope))
	sb.WriteString(cssPanels(cfg.scope))
	sb.WriteString(cssComments(cfg.scope))
	sb.WriteString(cssForm(cfg.scope))

	return sb.String()
}

func cssReset(scope string) string {
	return fmt.Sprintf(`
%[1]s,%[1]s *{box-sizing:border-box;margin:0;padding:0}
%[1]s button,%[1]s input,%[1]s textarea,%[1]s select{font:inherit;color:inherit}
%[1]s a{color:inherit}
`, scope)
}

func cssVariables(scope string, d Definition) string {
	vars := []string{
		fmt.Sprintf("--ck-primary:%s", d.Colors.Primary),
		fmt.Sprintf("--ck-bg:%s", d.Colors.Background),
		fmt.Sprintf("--ck-surface:%s", d.Colors.Surface),
		fmt.Sprintf("--ck-text:%s", d.Colors.Text),
		fmt.Sprintf("--ck-text-muted:%s", d.Colors.TextMuted),
		fmt.Sprintf("--ck-border:%s", d.Colors.Border),
		fmt.Sprintf("--ck-danger:%s", d.Colors.Danger),
		fmt.Sprintf("--ck-success:%s", d.Colors.Success),
		fmt.Sprintf("--ck-spacing:%s", d.Spacing),
		fmt.Sprintf("--ck-radius:%s", d.BorderRadius),
		fmt.Sprintf("--ck-transition:%s", d.Transition),
		fmt.Sprintf("--ck-font:%s", d.FontFamily),
		fmt.Sprintf("--ck-font-size:%s", d.FontSize),
	}
	return fmt.Sprintf("%s{%s}\n", scope, strings.Join(vars, ";"))
}

func cssBase(scope string) string {
	return fmt.Sprintf(`
%[1]s{font-family:var(--ck-font);font-size:var(--ck-font-size);line-height:1.6;color:var(--ck-text);background:var(--ck-bg);padding:var(--ck-spacing);border:1px solid var(--ck-border);border-radius:var(--ck-radius)}
`, scope)
}

func cssHeader(scope string) string {
	return fmt.Sprintf(`
%[1]s .ck-header{display:flex;align-items:center;justify-content:space-between;gap:var(--ck-spacing);margin-bottom:var(--ck-spacing)}
%[1]s .ck-title{font-size:1.15em;font-weight:700}
%[1]s .ck-count{color:var(--ck-text-muted);font-size:0.9em}
%[1]s .ck-theme-select{padding:0.25rem 0.5rem;background:var(--ck-surface);border:1px solid var(--ck-border);border-radius:var(--ck-radius)}
`, scope)
}

func cssPanels(scope string) string {
	return fmt.Sprintf(`
%[1]s .ck-error{padding:var(--ck-spacing);border:1px solid var(--ck-danger);border-radius:var(--ck-radius);color:var(--ck-danger);margin-bottom:var(--ck-spacing)}
%[1]s .ck-loading{padding:var(--ck-spacing);color:var(--ck-text-muted);text-align:center}
%[1]s .ck-empty{padding:var(--ck-spacing);color:var(--ck-text-muted);text-align:center;font-style:italic}
`, scope)
}

func cssComments(scope string) string {
	return fmt.Sprintf(`
%[1]s .ck-comment{background:var(--ck-surface);border:1px solid var(--ck-border);border-radius:var(--ck-radius);padding:var(--ck-spacing);margin-bottom:var(--ck-spacing);transition:var(--ck-transition)}
%[1]s .ck-comment-meta{display:flex;gap:0.5rem;align-items:baseline;margin-bottom:0.4rem}
%[1]s .ck-author{font-weight:600}
%[1]s .ck-date{color:var(--ck-text-muted);font-size:0.85em}
%[1]s .ck-content{overflow-wrap:break-word}
%[1]s .ck-content a{color:var(--ck-primary);text-decoration:underline}
%[1]s .ck-reply-btn{margin-top:0.4rem;background:none;border:none;color:var(--ck-primary);cursor:pointer;font-size:0.85em;padding:0}
%[1]s .ck-replies{border-left:2px solid var(--ck-border);padding-left:var(--ck-spacing)}
`, scope)
}

func cssForm(scope string) string {
	return fmt.Sprintf(`
%[1]s .ck-form{display:flex;flex-direction:column;gap:0.5rem;margin-top:var(--ck-spacing)}
%[1]s .ck-form input,%[1]s .ck-form textarea{padding:0.5rem;background:var(--ck-bg);border:1px solid var(--ck-border);border-radius:var(--ck-radius)}
%[1]s .ck-form input:focus,%[1]s .ck-form textarea:focus{outline:2px solid var(--ck-primary);outline-offset:1px}
%[1]s .ck-submit{padding:0.5rem 1rem;background:var(--ck-primary);color:var(--ck-bg);border:none;border-radius:var(--ck-radius);cursor:pointer;transition:var(--ck-transition);align-self:flex-start}
%[1]s .ck-cancel-reply{background:none;border:none;color:var(--ck-text-muted);cursor:pointer;font-size:0.85em;padding:0;align-self:flex-start}
%[1]s .ck-field-error{color:var(--ck-danger);font-size:0.85em}
%[1]s .ck-reply-banner{color:var(--ck-text-muted);font-size:0.9em}
`, scope)
}
