package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/h2non/gock"

	"github.com/gabrielmiguelok/commentkit/pkg/comment"
)

const testBase = "http://backend.test"

func newTestClient() (*Client, *http.Client) {
	hc := &http.Client{}
	gock.InterceptClient(hc)
	return New(testBase, WithHTTPClient(hc)), hc
}

func TestListComments(t *testing.T) {
	defer gock.Off()
	c, _ := newTestClient()

	gock.New(testBase).
		Get("/widget/comments/7").
		MatchParam("thread_id", "7").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"comments": []map[string]any{
				{
					"id": 1, "thread_id": 7, "author_name": "Ana",
					"content": "hello", "is_approved": 1,
					"created_at": "2025-03-01T12:00:00Z",
					"replies": []map[string]any{
						{"id": 2, "thread_id": 7, "parent_id": 1, "author_name": "Ben",
							"content": "hi back", "is_approved": 0,
							"created_at": "2025-03-01T13:00:00Z"},
					},
				},
			},
			"total": 2, "page": 1, "limit": 50,
		})

	list, err := c.ListComments(context.Background(), 7, ListOptions{})
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(list.Comments) != 1 {
		t.Fatalf("got %d top-level comments, want 1", len(list.Comments))
	}
	root := list.Comments[0]
	if root.AuthorName != "Ana" || root.Approval != comment.StatusApproved {
		t.Errorf("unexpected root: %+v", root)
	}
	if len(root.Replies) != 1 || *root.Replies[0].ParentID != 1 {
		t.Errorf("nested reply lost: %+v", root.Replies)
	}
	if p := list.Pagination(); p.Total != 2 || p.Page != 1 {
		t.Errorf("pagination: %+v", p)
	}
}

func TestCreateComment(t *testing.T) {
	defer gock.Off()
	c, _ := newTestClient()

	gock.New(testBase).
		Post("/comments").
		MatchType("json").
		JSON(map[string]any{
			"thread_id":    7,
			"author_name":  "Ana",
			"author_email": "a@b.com",
			"content":      "a fine comment",
		}).
		Reply(http.StatusCreated).
		JSON(map[string]any{
			"id": 11, "thread_id": 7, "author_name": "Ana",
			"content": "a fine comment", "is_approved": 0,
			"created_at": "2025-03-01T12:00:00Z",
		})

	got, err := c.CreateComment(context.Background(), comment.Submission{
		ThreadID:    7,
		AuthorName:  "Ana",
		AuthorEmail: "a@b.com",
		Content:     "a fine comment",
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if got.ID != 11 || got.Approval != comment.StatusPending {
		t.Errorf("unexpected comment: %+v", got)
	}
}

func TestErrorDetailParsed(t *testing.T) {
	defer gock.Off()
	c, _ := newTestClient()

	gock.New(testBase).
		Post("/comments").
		Reply(http.StatusUnprocessableEntity).
		JSON(map[string]string{"detail": "content too short"})

	_, err := c.CreateComment(context.Background(), comment.Submission{ThreadID: 7})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Detail != "content too short" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestErrorFallbackMessage(t *testing.T) {
	defer gock.Off()
	c, _ := newTestClient()

	gock.New(testBase).
		Get("/threads/3").
		Reply(http.StatusNotFound).
		BodyString("<html>gateway</html>")

	_, err := c.GetThread(context.Background(), 3)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T: %v", err, err)
	}
	if apiErr.Error() != "HTTP 404: Not Found" {
		t.Errorf("fallback message = %q", apiErr.Error())
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	defer gock.Off()
	c, _ := newTestClient()

	gock.New(testBase).
		Get("/health").
		ReplyError(errors.New("connection refused"))

	err := c.Health(context.Background())
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("want *NetworkError, got %T: %v", err, err)
	}
	if err.Error() != NetworkMessage {
		t.Errorf("message = %q, want %q", err.Error(), NetworkMessage)
	}
}

func TestDeleteComment(t *testing.T) {
	defer gock.Off()
	c, _ := newTestClient()

	gock.New(testBase).
		Delete("/comments/5").
		Reply(http.StatusNoContent)

	if err := c.DeleteComment(context.Background(), 5); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
}

func TestModerateComment_CoercesStatus(t *testing.T) {
	defer gock.Off()
	c, _ := newTestClient()

	gock.New(testBase).
		Put("/comments/5/moderate").
		MatchType("json").
		JSON(map[string]int{"is_approved": 0}).
		Reply(http.StatusOK).
		JSON(map[string]any{"id": 5, "is_approved": 0})

	got, err := c.ModerateComment(context.Background(), 5, comment.ApprovalStatus(9))
	if err != nil {
		t.Fatalf("ModerateComment: %v", err)
	}
	if got.Approval != comment.StatusPending {
		t.Errorf("approval = %v", got.Approval)
	}
}

func TestStats(t *testing.T) {
	defer gock.Off()
	c, _ := newTestClient()

	gock.New(testBase).
		Get("/api/comments/stats").
		Reply(http.StatusOK).
		JSON(map[string]int{"total": 10, "approved": 6, "pending": 3, "rejected": 1})

	s, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.Total != 10 || s.Approved != 6 {
		t.Errorf("stats = %+v", s)
	}
}

func TestBaseURLNormalized(t *testing.T) {
	c := New("http://backend.test///")
	if c.BaseURL() != "http://backend.test" {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
	if New("").BaseURL() != DefaultBaseURL {
		t.Errorf("empty base should fall back to default endpoint")
	}
}
