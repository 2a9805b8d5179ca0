package security

import (
	"strings"
	"testing"

	"github.com/gabrielmiguelok/commentkit/pkg/comment"
)

func TestSanitizeComment_StripsScript(t *testing.T) {
	out := SanitizeComment("Hello <script>alert(1)</script>")

	if strings.Contains(out, "<script") {
		t.Errorf("output contains <script: %q", out)
	}
	if strings.Contains(out, "alert(1)") {
		t.Errorf("script body survived: %q", out)
	}
	if !strings.Contains(out, "Hello") {
		t.Errorf("text content lost: %q", out)
	}
}

func TestSanitizeComment_ConvertsNewlines(t *testing.T) {
	out := SanitizeComment("Line 1\nLine 2")

	if out != "Line 1<br>Line 2" {
		t.Errorf("got %q, want %q", out, "Line 1<br>Line 2")
	}
}

func TestSanitizeComment_CRLFIsOneBreak(t *testing.T) {
	out := SanitizeComment("a\r\nb")
	if out != "a<br>b" {
		t.Errorf("got %q, want %q", out, "a<br>b")
	}
}

func TestSanitizeComment_NoNewlineConversion(t *testing.T) {
	s := NewSanitizer(CommentOptions{ConvertNewlines: false, MaxLength: 5000})
	out := s.SanitizeComment("a\nb")
	if out != "a\nb" {
		t.Errorf("got %q", out)
	}
}

func TestSanitizeComment_TruncatesFirst(t *testing.T) {
	s := NewSanitizer(CommentOptions{ConvertNewlines: true, MaxLength: 5})
	out := s.SanitizeComment("abcdefghij")
	if out != "abcde" {
		t.Errorf("got %q, want %q", out, "abcde")
	}
}

func TestSanitizeComment_EscapesPlainHTMLEntities(t *testing.T) {
	out := SanitizeComment("1 < 2 & 3 > 2")
	if strings.Contains(out, "<") && !strings.Contains(out, "&lt;") {
		t.Errorf("angle brackets not escaped: %q", out)
	}
}

func TestSanitizeComment_AllowHTMLKeepsAllowList(t *testing.T) {
	s := NewSanitizer(CommentOptions{AllowHTML: true, MaxLength: 5000})
	out := s.SanitizeComment("<p>hi <strong>there</strong> <em>friend</em> <code>x</code></p>")

	for _, tag := range []string{"<p>", "<strong>", "</strong>", "<em>", "<code>", "</p>"} {
		if !strings.Contains(out, tag) {
			t.Errorf("allowed tag %s missing from %q", tag, out)
		}
	}
}

func TestSanitizeComment_AllowHTMLDropsForbidden(t *testing.T) {
	s := NewSanitizer(CommentOptions{AllowHTML: true, MaxLength: 5000})
	out := s.SanitizeComment(`before <iframe src="https://evil.example"></iframe> after`)

	if strings.Contains(strings.ToLower(out), "iframe") {
		t.Errorf("iframe survived: %q", out)
	}
	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Errorf("surrounding text lost: %q", out)
	}
}

func TestSanitizeComment_LinksDisabledByDefault(t *testing.T) {
	s := NewSanitizer(CommentOptions{AllowHTML: true, MaxLength: 5000})
	out := s.SanitizeComment(`<a href="https://example.com">x</a>`)

	if strings.Contains(out, "<a ") || strings.Contains(out, "<a>") {
		t.Errorf("anchor survived with AllowLinks=false: %q", out)
	}
}

func TestSanitizeComment_LinkAttributesForced(t *testing.T) {
	s := NewSanitizer(CommentOptions{AllowHTML: true, AllowLinks: true, MaxLength: 5000})
	out := s.SanitizeComment(`<a href="https://example.com" target="_blank" rel="opener" id="z">x</a>`)

	if !strings.Contains(out, `href="https://example.com"`) {
		t.Errorf("href lost: %q", out)
	}
	if !strings.Contains(out, `rel="noopener noreferrer nofollow ugc"`) {
		t.Errorf("rel not forced: %q", out)
	}
	if strings.Contains(out, "target=") || strings.Contains(out, "id=") {
		t.Errorf("disallowed attribute survived: %q", out)
	}
}

func TestSanitizeComment_JavascriptHrefStripped(t *testing.T) {
	s := NewSanitizer(CommentOptions{AllowHTML: true, AllowLinks: true, MaxLength: 5000})
	out := s.SanitizeComment(`<a href="javascript:alert(1)">x</a>`)

	if strings.Contains(out, "href=") {
		t.Errorf("javascript href survived: %q", out)
	}
}

func TestSanitizeComment_DenylistBackstop(t *testing.T) {
	// The scheme reaches the output as plain text, which the backstop
	// still refuses to ship.
	out := SanitizeComment("click javascript:alert(1) now")
	if out != RemovedPlaceholder {
		t.Errorf("got %q, want placeholder", out)
	}

	out = SanitizeComment(`x <b onmouseover="steal()">y</b>`)
	if strings.Contains(out, "onmouseover=") && out != RemovedPlaceholder {
		t.Errorf("event handler text shipped: %q", out)
	}
}

func TestSanitizeText(t *testing.T) {
	out := SanitizeText(`Bob <img src=x onerror=hack()>`)
	if strings.Contains(out, "<") {
		t.Errorf("tag survived SanitizeText: %q", out)
	}
	if !strings.Contains(out, "Bob") {
		t.Errorf("text lost: %q", out)
	}
}

func TestSanitizeEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"  User@Example.COM ", "user@example.com", true},
		{"a@b.com", "a@b.com", true},
		{"no-at-sign", "", false},
		{"a@b", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := SanitizeEmail(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("SanitizeEmail(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestSanitizeCommentTree_Recursive(t *testing.T) {
	pid := int64(1)
	c := &comment.Comment{
		ID:          1,
		AuthorName:  "<b>Eve</b>",
		AuthorEmail: "EVE@EXAMPLE.COM",
		Content:     "root <script>x()</script>",
		Approval:    comment.ApprovalStatus(9),
		Replies: []*comment.Comment{
			{ID: 2, ParentID: &pid, AuthorEmail: "broken", Content: "child <iframe>"},
		},
	}

	s := NewSanitizer(DefaultCommentOptions())
	out := s.SanitizeCommentTree(c)

	if strings.Contains(out.Content, "<script") {
		t.Errorf("root content unsafe: %q", out.Content)
	}
	if strings.Contains(out.AuthorName, "<") {
		t.Errorf("author name unsafe: %q", out.AuthorName)
	}
	if out.AuthorEmail != "eve@example.com" {
		t.Errorf("email not normalized: %q", out.AuthorEmail)
	}
	if out.Approval != comment.StatusPending {
		t.Errorf("approval not coerced: %v", out.Approval)
	}
	if strings.Contains(out.Replies[0].Content, "<iframe") {
		t.Errorf("reply content unsafe: %q", out.Replies[0].Content)
	}
	if out.Replies[0].AuthorEmail != "" {
		t.Errorf("invalid reply email kept: %q", out.Replies[0].AuthorEmail)
	}

	// Original must be untouched.
	if !strings.Contains(c.Content, "<script>") {
		t.Errorf("sanitization mutated the source comment")
	}
}
