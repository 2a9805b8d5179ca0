// Package api is the REST client for the comment backend. It exposes one
// operation per backend action and converts failures into the error
// taxonomy consumed by the retry decorator and the widget controller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gabrielmiguelok/commentkit/pkg/comment"
	"github.com/gabrielmiguelok/commentkit/pkg/logging"
)

// DefaultBaseURL is the production endpoint used when none is configured.
const DefaultBaseURL = "https://api.commentkit.dev"

// Client talks to the comment backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client against the given base URL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: trimTrailingSlash(baseURL),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

// ListOptions narrows a comment listing.
type ListOptions struct {
	Page  int
	Limit int
	// ApprovedOnly limits the listing to approved comments.
	ApprovedOnly bool
}

// CommentList is the widget listing payload.
type CommentList struct {
	Comments []*comment.Comment `json:"comments"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	Limit    int                `json:"limit"`
}

// Pagination converts the listing envelope to the state representation.
func (l *CommentList) Pagination() comment.Pagination {
	return comment.Pagination{Page: l.Page, Limit: l.Limit, Total: l.Total}
}

// ListComments fetches the comment tree for a thread.
// GET /widget/comments/{threadId}?thread_id=...
func (c *Client) ListComments(ctx context.Context, threadID int64, opts ListOptions) (*CommentList, error) {
	q := url.Values{}
	q.Set("thread_id", strconv.FormatInt(threadID, 10))
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.ApprovedOnly {
		q.Set("is_approved", strconv.Itoa(int(comment.StatusApproved)))
	}

	var out CommentList
	path := fmt.Sprintf("/widget/comments/%d", threadID)
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateComment posts a new comment. POST /comments
func (c *Client) CreateComment(ctx context.Context, sub comment.Submission) (*comment.Comment, error) {
	var out comment.Comment
	if err := c.do(ctx, http.MethodPost, "/comments", nil, sub, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateComment updates comment fields. PUT /comments/{id}
func (c *Client) UpdateComment(ctx context.Context, id int64, fields map[string]any) (*comment.Comment, error) {
	var out comment.Comment
	path := fmt.Sprintf("/comments/%d", id)
	if err := c.do(ctx, http.MethodPut, path, nil, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteComment removes a comment. DELETE /comments/{id}
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/comments/%d", id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ModerateComment sets a comment's approval status.
// PUT /comments/{id}/moderate
func (c *Client) ModerateComment(ctx context.Context, id int64, status comment.ApprovalStatus) (*comment.Comment, error) {
	var out comment.Comment
	path := fmt.Sprintf("/comments/%d/moderate", id)
	body := map[string]int{"is_approved": int(status.Coerce())}
	if err := c.do(ctx, http.MethodPut, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkModerate applies a moderation action to several comments at once.
// POST /moderate
func (c *Client) BulkModerate(ctx context.Context, ids []int64, action string) error {
	body := map[string]any{"comment_ids": ids, "action": action}
	return c.do(ctx, http.MethodPost, "/moderate", nil, body, nil)
}

// GetThread fetches a thread. GET /threads/{id}
func (c *Client) GetThread(ctx context.Context, id int64) (*comment.Thread, error) {
	var out comment.Thread
	path := fmt.Sprintf("/threads/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateThread registers a thread. POST /threads
func (c *Client) CreateThread(ctx context.Context, t comment.Thread) (*comment.Thread, error) {
	var out comment.Thread
	if err := c.do(ctx, http.MethodPost, "/threads", nil, t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches backend-wide comment statistics. GET /api/comments/stats
func (c *Client) Stats(ctx context.Context) (comment.Stats, error) {
	var out comment.Stats
	err := c.do(ctx, http.MethodGet, "/api/comments/stats", nil, nil, &out)
	return out, err
}

// Health pings the backend. GET /health
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// errorBody is the structured error payload the backend returns.
type errorBody struct {
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request transport failure",
			logging.String("method", method),
			logging.String("path", path),
			logging.Err(err),
		)
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.asAPIError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// asAPIError parses the structured {detail} payload, falling back to a
// generic status line when the body is not parseable.
func (c *Client) asAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(data) > 0 {
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Detail != "" {
			apiErr.Detail = eb.Detail
		}
	}
	if apiErr.Detail == "" {
		apiErr.Detail = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	c.logger.Warn("backend error response",
		logging.Int("status", resp.StatusCode),
		logging.String("detail", apiErr.Detail),
	)
	return apiErr
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
