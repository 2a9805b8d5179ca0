// Package comment defines the comment data model shared by the widget
// runtime: the Comment tree, approval states, and derived views over them.
package comment

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// ApprovalStatus is the backend-assigned moderation state of a comment.
// The wire encoding is numeric: 0 pending, 1 approved, 2 rejected.
type ApprovalStatus int

const (
	StatusPending ApprovalStatus = iota
	StatusApproved
	StatusRejected
)

func (s ApprovalStatus) String() string {
	switch s {
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Coerce maps any out-of-range code to pending rather than rejecting it.
func (s ApprovalStatus) Coerce() ApprovalStatus {
	if s < StatusPending || s > StatusRejected {
		return StatusPending
	}
	return s
}

// Comment is a single comment node. Replies form a tree: every entry in
// Replies has ParentID equal to this comment's ID.
type Comment struct {
	ID       int64  `json:"id"`
	ThreadID int64  `json:"thread_id"`
	ParentID *int64 `json:"parent_id,omitempty"`

	AuthorName string `json:"author_name"`
	// AuthorEmail is stored and validated but never rendered.
	AuthorEmail string `json:"author_email,omitempty"`

	// Content is the raw text as submitted. Sanitized output is derived at
	// render time and never written back here.
	Content string `json:"content"`

	CreatedAt time.Time      `json:"created_at"`
	Approval  ApprovalStatus `json:"is_approved"`

	Replies []*Comment `json:"replies,omitempty"`
}

// IsTopLevel reports whether the comment has no parent.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// Clone returns a deep copy of the comment and its reply subtree.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	cp := *c
	if c.ParentID != nil {
		pid := *c.ParentID
		cp.ParentID = &pid
	}
	if c.Replies != nil {
		cp.Replies = CloneAll(c.Replies)
	}
	return &cp
}

// CloneAll deep-copies a slice of comment trees.
func CloneAll(comments []*Comment) []*Comment {
	if comments == nil {
		return nil
	}
	out := make([]*Comment, len(comments))
	for i, c := range comments {
		out[i] = c.Clone()
	}
	return out
}

// Thread is the external collection of comments a widget instance displays.
type Thread struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	ExternalPageID string `json:"external_page_id"`
}

// Pagination describes what has been fetched so far.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// Submission is a client-side comment draft headed for the backend.
type Submission struct {
	ThreadID    int64  `json:"thread_id"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Content     string `json:"content"`
	ParentID    *int64 `json:"parent_id,omitempty"`
}

// DeriveThreadID produces a stable thread identifier from a page URL:
// the first 16 hex characters of its MD5 digest.
func DeriveThreadID(pageURL string) string {
	sum := md5.Sum([]byte(pageURL))
	return hex.EncodeToString(sum[:])[:16]
}
