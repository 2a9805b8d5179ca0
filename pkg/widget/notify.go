package widget

import (
	"sync"

	"github.com/gabrielmiguelok/commentkit/pkg/logging"
)

// NotificationLevel grades a transient on-screen notification.
type NotificationLevel int

const (
	LevelInfo NotificationLevel = iota
	LevelSuccess
	LevelError
)

func (l NotificationLevel) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a transient user-facing message.
type Notification struct {
	Level   NotificationLevel
	Message string
}

// NotificationSink receives notifications the widget emits. The host page
// decides how to display them; the controller never touches the document
// directly.
type NotificationSink interface {
	Notify(n Notification)
}

// NopSink discards notifications.
type NopSink struct{}

func (NopSink) Notify(Notification) {}

// LogSink forwards notifications to a logger.
type LogSink struct {
	Logger logging.Logger
}

func (s LogSink) Notify(n Notification) {
	switch n.Level {
	case LevelError:
		s.Logger.Warn("widget notification", logging.String("message", n.Message))
	default:
		s.Logger.Info("widget notification",
			logging.String("level", n.Level.String()),
			logging.String("message", n.Message))
	}
}

// RecordingSink collects notifications, for tests and the demo page.
type RecordingSink struct {
	mu   sync.Mutex
	seen []Notification
}

func (s *RecordingSink) Notify(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, n)
}

// All returns a copy of everything recorded so far.
func (s *RecordingSink) All() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.seen))
	copy(out, s.seen)
	return out
}
