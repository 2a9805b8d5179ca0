package render

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gabrielmiguelok/commentkit/pkg/comment"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestRenderer(opts Options) *Renderer {
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	return New(nil, opts)
}

func deepChain(depth int) []*comment.Comment {
	root := &comment.Comment{ID: 1, AuthorName: "A", Content: "level 0 content here", CreatedAt: testNow}
	cur := root
	for i := 1; i <= depth; i++ {
		pid := cur.ID
		next := &comment.Comment{
			ID:         int64(i + 1),
			ParentID:   &pid,
			AuthorName: "A",
			Content:    fmt.Sprintf("level %d content here", i),
			CreatedAt:  testNow,
		}
		cur.Replies = []*comment.Comment{next}
		cur = next
	}
	return []*comment.Comment{root}
}

func TestWidget_Idempotent(t *testing.T) {
	r := newTestRenderer(Options{ShowThemeSelector: true})
	in := Input{Comments: deepChain(4), Theme: "dark"}

	first := r.Widget(in)
	second := r.Widget(in)
	if first != second {
		t.Errorf("renderer is not idempotent for identical input")
	}
}

func TestWidget_ReplyHiddenBeyondMaxDepth(t *testing.T) {
	r := newTestRenderer(Options{MaxDepth: 2})
	out := r.Widget(Input{Comments: deepChain(4)})

	// Levels 0 and 1 get a reply button; 2 and beyond do not.
	for id := int64(1); id <= 5; id++ {
		btn := fmt.Sprintf(`data-action="reply" data-comment-id="%d"`, id)
		has := strings.Contains(out, btn)
		wantBtn := id <= 2 // comment N sits at level N-1
		if has != wantBtn {
			t.Errorf("comment %d: reply button present = %v, want %v", id, has, wantBtn)
		}
		// The comment itself always renders, reply action or not.
		if !strings.Contains(out, fmt.Sprintf(`data-comment-id="%d">`, id)) {
			t.Errorf("comment %d missing from output", id)
		}
	}
}

func TestWidget_EmptyState(t *testing.T) {
	r := newTestRenderer(Options{})
	out := r.Widget(Input{})
	if !strings.Contains(out, "No comments yet") {
		t.Errorf("empty comment list did not render the placeholder")
	}
}

func TestWidget_ErrorPanelHidesForm(t *testing.T) {
	r := newTestRenderer(Options{})
	out := r.Widget(Input{Error: "Server error. Please try again later."})

	if !strings.Contains(out, `class="ck-error"`) {
		t.Errorf("error panel missing")
	}
	if strings.Contains(out, `class="ck-form"`) {
		t.Errorf("form rendered despite error state")
	}
}

func TestWidget_LoadingHidesForm(t *testing.T) {
	r := newTestRenderer(Options{})
	out := r.Widget(Input{Loading: true})

	if !strings.Contains(out, "Loading comments") {
		t.Errorf("loading panel missing")
	}
	if strings.Contains(out, `class="ck-form"`) {
		t.Errorf("form rendered while loading")
	}
}

func TestWidget_ReplyMode(t *testing.T) {
	r := newTestRenderer(Options{})
	target := int64(7)
	out := r.Widget(Input{ReplyingTo: &target})

	if !strings.Contains(out, `name="parent_id" value="7"`) {
		t.Errorf("reply mode does not carry the parent id")
	}
	if !strings.Contains(out, "Post Reply") {
		t.Errorf("form label did not switch to reply mode")
	}
	if !strings.Contains(out, `data-action="cancel-reply"`) {
		t.Errorf("cancel-reply affordance missing")
	}

	normal := r.Widget(Input{})
	if !strings.Contains(normal, "Post Comment") || strings.Contains(normal, "cancel-reply") {
		t.Errorf("non-reply form shows reply affordances")
	}
}

func TestWidget_EscapesAuthorAndError(t *testing.T) {
	r := newTestRenderer(Options{})
	in := Input{
		Comments: []*comment.Comment{{
			ID:         1,
			AuthorName: `<img src=x onerror=alert(1)>`,
			Content:    "harmless content here",
			CreatedAt:  testNow,
		}},
	}
	out := r.Widget(in)
	if strings.Contains(out, "<img") {
		t.Errorf("author name interpolated unescaped")
	}

	out = r.Widget(Input{Error: `<b>boom</b>`})
	if strings.Contains(out, "<b>boom</b>") {
		t.Errorf("error message interpolated unescaped")
	}
}

func TestWidget_ThemeSelectorPreselected(t *testing.T) {
	r := newTestRenderer(Options{ShowThemeSelector: true})
	out := r.Widget(Input{Theme: "minimal"})
	if !strings.Contains(out, `value="minimal" selected`) {
		t.Errorf("current theme not pre-selected")
	}

	// Unknown theme pre-selects the default.
	out = r.Widget(Input{Theme: "nonexistent"})
	if !strings.Contains(out, `value="default" selected`) {
		t.Errorf("unknown theme did not fall back to default in selector")
	}
}

func TestWidget_IndentationCapped(t *testing.T) {
	r := newTestRenderer(Options{})
	out := r.Widget(Input{Comments: deepChain(20)})

	// A 20-deep chain only opens nesting wrappers up to the cap; comments
	// past it render flat at the capped indentation.
	if got := strings.Count(out, `<div class="ck-replies">`); got != indentCap {
		t.Errorf("opened %d nesting wrappers, want %d", got, indentCap)
	}
	// All 21 comments still render.
	if got := strings.Count(out, `class="ck-comment"`); got != 21 {
		t.Errorf("rendered %d comments, want 21", got)
	}
}

func TestWidget_MarkdownMode(t *testing.T) {
	r := newTestRenderer(Options{Markdown: true})
	in := Input{Comments: []*comment.Comment{{
		ID:         1,
		AuthorName: "A",
		Content:    "some **bold** text here",
		CreatedAt:  testNow,
	}}}
	out := r.Widget(in)
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("markdown emphasis not rendered: %s", out)
	}

	in.Comments[0].Content = "try <script>alert(1)</script> this one"
	out = r.Widget(in)
	if strings.Contains(out, "<script") {
		t.Errorf("markdown mode let script markup through")
	}
}
