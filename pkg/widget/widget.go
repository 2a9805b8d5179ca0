// Package widget is the controller tying the comment widget together: it
// loads data through the API client, commits every change through the
// state store, and re-renders exclusively from store subscriptions.
package widget

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/gabrielmiguelok/commentkit/pkg/api"
	"github.com/gabrielmiguelok/commentkit/pkg/comment"
	"github.com/gabrielmiguelok/commentkit/pkg/forms"
	"github.com/gabrielmiguelok/commentkit/pkg/logging"
	"github.com/gabrielmiguelok/commentkit/pkg/pubsub"
	"github.com/gabrielmiguelok/commentkit/pkg/render"
	"github.com/gabrielmiguelok/commentkit/pkg/retry"
	"github.com/gabrielmiguelok/commentkit/pkg/state"
	"github.com/gabrielmiguelok/commentkit/pkg/theme"
)

// ThemeTopic is the page-level broadcast topic widgets coordinate themes
// over, so several widgets on one page switch together.
const ThemeTopic = "commentkit:theme"

// Widget orchestrates one embedded widget instance.
type Widget struct {
	id     string
	cfg    Config
	store  *state.Store
	client *api.Client
	themes *theme.Registry
	rend   *render.Renderer
	retry  *retry.Config
	sink   NotificationSink
	bus    pubsub.PubSub
	logger logging.Logger

	// output receives every rendered frame.
	output func(html string)

	// loadSeq orders comment loads; a response only lands if no newer
	// load has started since.
	loadSeq  atomic.Int64
	detached atomic.Bool

	unsubs   []func()
	themeSub pubsub.Subscription
}

// Option configures a Widget.
type Option func(*Widget)

// WithClient injects the API client.
func WithClient(c *api.Client) Option {
	return func(w *Widget) { w.client = c }
}

// WithStore injects a pre-built state store.
func WithStore(s *state.Store) Option {
	return func(w *Widget) { w.store = s }
}

// WithThemes injects the theme registry.
func WithThemes(r *theme.Registry) Option {
	return func(w *Widget) { w.themes = r }
}

// WithRetryConfig overrides the retry policy for API calls.
func WithRetryConfig(cfg *retry.Config) Option {
	return func(w *Widget) { w.retry = cfg }
}

// WithNotificationSink injects where transient notifications go.
func WithNotificationSink(s NotificationSink) Option {
	return func(w *Widget) { w.sink = s }
}

// WithBus joins the widget to a page-level broadcast bus.
func WithBus(b pubsub.PubSub) Option {
	return func(w *Widget) { w.bus = b }
}

// WithLogger injects the logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Widget) { w.logger = l }
}

// WithOutput sets the render target. Every committed state change
// produces one call with the full widget HTML.
func WithOutput(fn func(html string)) Option {
	return func(w *Widget) { w.output = fn }
}

// New builds a widget instance. Nothing is fetched until Mount.
func New(cfg Config, opts ...Option) *Widget {
	w := &Widget{
		id:     uuid.NewString(),
		cfg:    cfg,
		sink:   NopSink{},
		logger: logging.NopLogger{},
		output: func(string) {},
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.client == nil {
		w.client = api.New(cfg.APIBaseURL)
	}
	if w.themes == nil {
		w.themes = theme.NewRegistry()
	}
	if w.store == nil {
		defaults := map[string]any{}
		if cfg.Theme != "" {
			defaults[state.KeyTheme] = w.themes.Resolve(cfg.Theme)
		}
		w.store = state.New(state.WithDefaults(defaults), state.WithLogger(w.logger))
	}
	if w.retry == nil {
		r := retry.DefaultConfig()
		r.RetryIf = api.IsRetryable
		w.retry = r
	}
	if w.retry.RetryIf == nil {
		w.retry.RetryIf = api.IsRetryable
	}

	w.rend = render.New(w.themes, render.Options{
		MaxDepth:          cfg.MaxDepth,
		ShowThemeSelector: cfg.ShowThemeSelector,
		Markdown:          cfg.Markdown,
	})

	// Subscriptions are the sole re-render trigger: render always reflects
	// committed state.
	for _, key := range []string{
		state.KeyComments, state.KeyLoading, state.KeyError,
		state.KeyTheme, state.KeyReplyingTo,
	} {
		w.unsubs = append(w.unsubs, w.store.Subscribe(key, func(_, _ any) {
			w.renderFrame()
		}))
	}

	return w
}

// ID is the unique instance identifier.
func (w *Widget) ID() string { return w.id }

// State exposes the underlying store, for hosts that want derived views.
func (w *Widget) State() *state.Store { return w.store }

// GetComments returns a deep-copied snapshot of the comment tree.
func (w *Widget) GetComments() []*comment.Comment { return w.store.Comments() }

// GetTheme returns the active theme identifier.
func (w *Widget) GetTheme() string { return w.store.Theme() }

// Mount attaches the widget: restores persisted state and cache, paints
// the initial frame, then fetches fresh comments.
func (w *Widget) Mount(ctx context.Context) error {
	w.store.LoadFromStorage()
	if w.store.LoadCache() {
		w.logger.Debug("painted from cache", logging.Int("comments", w.store.CommentCount()))
	}

	if w.bus != nil {
		sub, err := w.bus.Subscribe(ThemeTopic, w.onThemeBroadcast)
		if err != nil {
			w.logger.Warn("theme broadcast unavailable", logging.Err(err))
		} else {
			w.themeSub = sub
		}
	}

	w.renderFrame() // initial mount paint

	return w.Refresh(ctx)
}

// Refresh fetches the comment list. A response that arrives after a newer
// refresh has started is discarded.
func (w *Widget) Refresh(ctx context.Context) error {
	seq := w.loadSeq.Add(1)
	w.store.Set(map[string]any{
		state.KeyLoading: true,
		state.KeyError:   "",
	})

	list, err := retry.DoWithResult(ctx, w.retry, func() (*api.CommentList, error) {
		return w.client.ListComments(ctx, w.cfg.ThreadID, api.ListOptions{ApprovedOnly: true})
	})

	if w.detached.Load() || seq != w.loadSeq.Load() {
		w.logger.Debug("discarding stale load response", logging.Int64("seq", seq))
		return nil
	}

	if err != nil {
		return w.fail("comment load failed", err)
	}

	w.store.Set(map[string]any{
		state.KeyComments:   list.Comments,
		state.KeyPagination: list.Pagination(),
		state.KeyLoading:    false,
	})
	if err := w.store.SaveCache(); err != nil {
		w.logger.Warn("cache save failed", logging.Err(err))
	}
	return nil
}

// Submit validates and posts a comment draft. Validation failures surface
// immediately, before any network call. On success the full list is
// re-fetched and reply mode is cleared; on failure the error is recorded
// and re-raised so the host can keep the user's draft.
func (w *Widget) Submit(ctx context.Context, params map[string]any) error {
	cs := forms.CommentChangeset(params)
	if err := cs.Err(); err != nil {
		w.surface(err)
		return err
	}

	sub := cs.Submission(w.cfg.ThreadID)
	if sub.ParentID == nil {
		if id, ok := w.store.ReplyingTo(); ok {
			sub.ParentID = &id
		}
	}

	w.store.Set(map[string]any{
		state.KeyLoading: true,
		state.KeyError:   "",
	})

	_, err := retry.DoWithResult(ctx, w.retry, func() (*comment.Comment, error) {
		return w.client.CreateComment(ctx, sub)
	})
	if w.detached.Load() {
		return nil
	}
	if err != nil {
		return w.fail("comment submit failed", err)
	}

	w.store.Set(map[string]any{state.KeyReplyingTo: nil})
	w.sink.Notify(Notification{Level: LevelSuccess, Message: "Comment posted!"})

	return w.Refresh(ctx)
}

// Reply switches the form into reply mode targeting a comment.
func (w *Widget) Reply(commentID int64) {
	w.store.Set(map[string]any{state.KeyReplyingTo: commentID})
}

// CancelReply leaves reply mode.
func (w *Widget) CancelReply() {
	w.store.Set(map[string]any{state.KeyReplyingTo: nil})
}

// SetTheme switches the active theme, persists the choice, and announces
// it on the page bus so sibling widgets follow.
func (w *Widget) SetTheme(id string) {
	resolved := w.themes.Resolve(id)
	w.store.Set(map[string]any{state.KeyTheme: resolved})
	if err := w.store.SaveToStorage(); err != nil {
		w.logger.Warn("theme persist failed", logging.Err(err))
	}

	if w.bus != nil {
		payload, _ := json.Marshal(themeBroadcast{Theme: resolved, Sender: w.id})
		if err := w.bus.Publish(ThemeTopic, payload); err != nil {
			w.logger.Warn("theme broadcast failed", logging.Err(err))
		}
	}
}

// Undo rolls back the last committed change.
func (w *Widget) Undo() bool { return w.store.Undo() }

// Reset restores the store to defaults.
func (w *Widget) Reset() { w.store.Reset() }

// Detach tears the widget down: responses still in flight are discarded,
// subscriptions are dropped, and current state is persisted.
func (w *Widget) Detach() {
	if !w.detached.CompareAndSwap(false, true) {
		return
	}
	if w.themeSub != nil {
		w.themeSub.Unsubscribe()
	}
	for _, unsub := range w.unsubs {
		unsub()
	}
	w.unsubs = nil

	if err := w.store.SaveToStorage(); err != nil {
		w.logger.Warn("state persist on detach failed", logging.Err(err))
	}
	if err := w.store.SaveCache(); err != nil {
		w.logger.Warn("cache save on detach failed", logging.Err(err))
	}
}

type themeBroadcast struct {
	Theme  string `json:"theme"`
	Sender string `json:"sender"`
}

func (w *Widget) onThemeBroadcast(msg []byte) {
	var b themeBroadcast
	if err := json.Unmarshal(msg, &b); err != nil || b.Sender == w.id {
		return
	}
	resolved := w.themes.Resolve(b.Theme)
	if resolved == w.store.Theme() {
		return
	}
	w.store.Set(map[string]any{state.KeyTheme: resolved})
	if err := w.store.SaveToStorage(); err != nil {
		w.logger.Warn("theme persist failed", logging.Err(err))
	}
}

// fail records a failed operation: loading cleared, error committed,
// notification pushed, original error re-raised.
func (w *Widget) fail(msg string, err error) error {
	w.logger.Warn(msg, logging.Err(err))
	w.surface(err)
	return err
}

func (w *Widget) surface(err error) {
	class := api.Classify(err)
	w.store.Set(map[string]any{
		state.KeyError:   class.Message,
		state.KeyLoading: false,
	})
	w.sink.Notify(Notification{Level: LevelError, Message: class.Message})
}

func (w *Widget) renderFrame() {
	if w.detached.Load() {
		return
	}
	replyingTo, ok := w.store.ReplyingTo()
	in := render.Input{
		Comments: w.store.Comments(),
		Loading:  w.store.Loading(),
		Error:    w.store.ErrorMessage(),
		Theme:    w.store.Theme(),
	}
	if ok {
		in.ReplyingTo = &replyingTo
	}
	w.output(w.rend.Widget(in))
}
