// Package demosrv hosts the comment widget for local development: it
// serves the loader assets, runs server-side widget instances, and pushes
// theme broadcasts to connected pages over a websocket.
package demosrv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/gabrielmiguelok/commentkit/client"
	"github.com/gabrielmiguelok/commentkit/pkg/logging"
	"github.com/gabrielmiguelok/commentkit/pkg/pubsub"
	"github.com/gabrielmiguelok/commentkit/pkg/theme"
	"github.com/gabrielmiguelok/commentkit/pkg/widget"
)

// Config configures the demo server.
type Config struct {
	Addr       string
	APIBaseURL string
	Theme      string

	// SessionTTL evicts widget instances idle longer than this.
	SessionTTL time.Duration
}

// DefaultConfig returns the local-development defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:       ":3000",
		Theme:      theme.DefaultID,
		SessionTTL: 10 * time.Minute,
	}
}

// Server is the demo host.
type Server struct {
	cfg    *Config
	logger logging.Logger
	bus    *pubsub.MemoryPubSub
	themes *theme.Registry

	mu       sync.Mutex
	sessions map[string]*session
}

// session is one server-side widget instance plus its latest frame.
type session struct {
	w        *widget.Widget
	mu       sync.Mutex
	frame    string
	lastSeen time.Time
}

func (s *session) setFrame(html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = html
}

func (s *session) latestFrame() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

func (s *session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

// New creates a demo server.
func New(cfg *Config, logger logging.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		bus:      pubsub.NewMemoryPubSub(),
		themes:   theme.NewRegistry(),
		sessions: make(map[string]*session),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(logging.RequestLogger(s.logger))

	r.HandleFunc("/", s.handleDemoPage).Methods(http.MethodGet)
	r.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", client.Handler()))
	r.HandleFunc("/widget/frame", s.handleFrame).Methods(http.MethodGet)
	r.HandleFunc("/widget/event", s.handleEvent).Methods(http.MethodPost)
	r.HandleFunc("/widget/ws", s.handleThemeSocket)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	return r
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Router(),
	}

	go s.sweepSessions(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("demo server listening", logging.String("addr", s.cfg.Addr))
	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// lookup returns the session for an instance id, creating one from the
// request when the id is unknown or absent. A freshly created session is
// mounted before the handler responds, so the first frame is never blank.
func (s *Server) lookup(r *http.Request) *session {
	sess, created := s.findOrCreate(r)
	if created {
		mountCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sess.w.Mount(mountCtx); err != nil {
			s.logger.Warn("widget mount failed",
				logging.WidgetID(sess.w.ID()), logging.Err(err))
		}
	}
	return sess
}

func (s *Server) findOrCreate(r *http.Request) (*session, bool) {
	id := r.URL.Query().Get("instance")

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.touch()
		return sess, false
	}

	attrs := map[string]string{}
	for _, attr := range []string{
		widget.AttrThreadID, widget.AttrTheme, widget.AttrMaxDepth,
		widget.AttrShowThemeSelector, widget.AttrMarkdown,
	} {
		if v := r.URL.Query().Get(attr); v != "" || r.URL.Query().Has(attr) {
			attrs[attr] = v
		}
	}
	cfg := widget.ConfigFromAttributes(attrs, r.URL.Query().Get("page-url"))
	cfg.APIBaseURL = s.cfg.APIBaseURL
	if cfg.Theme == "" {
		cfg.Theme = s.cfg.Theme
	}

	sess := &session{lastSeen: time.Now()}
	sess.w = widget.New(cfg,
		widget.WithThemes(s.themes),
		widget.WithBus(s.bus),
		widget.WithLogger(s.logger),
		widget.WithNotificationSink(widget.LogSink{Logger: s.logger}),
		widget.WithOutput(sess.setFrame),
	)
	s.sessions[sess.w.ID()] = sess
	return sess, true
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sess := s.lookup(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Widget-Instance", sess.w.ID())
	fmt.Fprint(w, sess.latestFrame())
}

type widgetEvent struct {
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	sess := s.lookup(r)
	log := logging.L(r.Context())

	var ev widgetEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "malformed event", http.StatusBadRequest)
		return
	}

	switch ev.Action {
	case "submit":
		if err := sess.w.Submit(r.Context(), ev.Payload); err != nil {
			log.Warn("submit rejected", logging.Err(err))
		}
	case "reply":
		if id, ok := eventCommentID(ev.Payload); ok {
			sess.w.Reply(id)
		}
	case "cancel-reply":
		sess.w.CancelReply()
	case "set-theme":
		if t, ok := ev.Payload["theme"].(string); ok {
			sess.w.SetTheme(t)
		}
	case "refresh":
		if err := sess.w.Refresh(r.Context()); err != nil {
			log.Warn("refresh failed", logging.Err(err))
		}
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Widget-Instance", sess.w.ID())
	fmt.Fprint(w, sess.latestFrame())
}

// eventCommentID reads a comment id that arrived as JSON (string or
// number).
func eventCommentID(payload map[string]any) (int64, bool) {
	switch v := payload["comment_id"].(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	case float64:
		return int64(v), true
	}
	return 0, false
}

// handleThemeSocket streams page-level theme broadcasts to the browser so
// widgets in other tabs of the demo follow along.
func (s *Server) handleThemeSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", logging.Err(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	msgs := make(chan []byte, 8)
	sub, err := s.bus.Subscribe(widget.ThemeTopic, func(msg []byte) {
		select {
		case msgs <- msg:
		default: // slow client, drop
		}
	})
	if err != nil {
		return
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-msgs:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// sweepSessions detaches widget instances nobody has polled recently.
func (s *Server) sweepSessions(ctx context.Context) {
	ttl := s.cfg.SessionTTL
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-ttl)
			s.mu.Lock()
			for id, sess := range s.sessions {
				if sess.idleSince(cutoff) {
					sess.w.Detach()
					delete(s.sessions, id)
					s.logger.Debug("evicted idle widget session", logging.WidgetID(id))
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) handleDemoPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, demoPageHTML)
}

const demoPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>CommentKit Demo</title>
    <link rel="stylesheet" href="/assets/commentkit.css">
    <style>
        body {
            font-family: system-ui, -apple-system, 'Segoe UI', Roboto, sans-serif;
            padding: 2rem;
            max-width: 720px;
            margin: 0 auto;
        }
        h1 { color: #333; }
    </style>
</head>
<body>
    <h1>CommentKit Demo</h1>
    <p>An embeddable comment widget. Pick a theme from the selector; other
    open tabs follow along.</p>

    <comment-kit thread-id="1" show-theme-selector></comment-kit>

    <script src="/assets/commentkit.js"></script>
</body>
</html>`
