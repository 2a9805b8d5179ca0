// Package state is the widget's reactive state container: deep-copied
// snapshots, per-key subscriptions, a bounded undo history, and partial
// persistence to durable key-value storage.
package state

import (
	"reflect"
	"sort"
	"sync"

	"github.com/gabrielmiguelok/commentkit/pkg/comment"
	"github.com/gabrielmiguelok/commentkit/pkg/logging"
)

// Well-known state keys.
const (
	KeyComments   = "comments"
	KeyLoading    = "loading"
	KeyError      = "error"
	KeyTheme      = "theme"
	KeyReplyingTo = "replyingTo"
	KeyPagination = "pagination"
	KeyUser       = "user"
)

// DefaultHistoryCapacity bounds the undo history; the oldest snapshot is
// discarded on overflow.
const DefaultHistoryCapacity = 50

// DefaultTheme is the fallback theme identifier.
const DefaultTheme = "default"

// Defaults returns the initial widget state.
func Defaults() map[string]any {
	return map[string]any{
		KeyComments:   []*comment.Comment(nil),
		KeyLoading:    false,
		KeyError:      nil,
		KeyTheme:      DefaultTheme,
		KeyReplyingTo: nil,
		KeyPagination: comment.Pagination{Page: 1, Limit: 50},
	}
}

// Callback receives the new and previous value of a subscribed key.
type Callback func(newValue, oldValue any)

type subscription struct {
	key string
	fn  Callback
}

// Store holds widget state. All operations are synchronous and never fail;
// subscriber callbacks run on the calling goroutine.
type Store struct {
	mu         sync.RWMutex
	data       map[string]any
	defaults   map[string]any
	history    []map[string]any
	historyCap int
	subs       map[string][]*subscription

	storage    Storage
	storageKey string
	logger     logging.Logger
}

// Option configures the store.
type Option func(*Store)

// WithHistoryCapacity bounds the undo history.
func WithHistoryCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyCap = n
		}
	}
}

// WithStorage sets the durable key-value backend for Save/Load.
func WithStorage(st Storage) Option {
	return func(s *Store) {
		s.storage = st
	}
}

// WithStorageKey overrides the fixed persistence key.
func WithStorageKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.storageKey = key
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithDefaults overrides individual initial values.
func WithDefaults(overrides map[string]any) Option {
	return func(s *Store) {
		for k, v := range overrides {
			s.defaults[k] = deepCopyValue(v)
		}
	}
}

// New creates a store initialized to the defaults.
func New(opts ...Option) *Store {
	s := &Store{
		defaults:   Defaults(),
		historyCap: DefaultHistoryCapacity,
		subs:       make(map[string][]*subscription),
		storage:    NewMemoryStorage(),
		storageKey: PersistKey,
		logger:     logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.data = deepCopyState(s.defaults)
	return s
}

// Snapshot returns a deep copy of the current state. Mutating the returned
// value never affects the store.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepCopyState(s.data)
}

// Get returns a deep copy of one key's value.
func (s *Store) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepCopyValue(s.data[key])
}

// Set shallow-merges the partial into the state, pushes the pre-merge
// snapshot onto the history, and synchronously notifies subscribers of
// every key present in the partial.
func (s *Store) Set(partial map[string]any) {
	if len(partial) == 0 {
		return
	}

	s.mu.Lock()
	s.pushHistory()

	type change struct {
		key      string
		old, new any
	}
	changes := make([]change, 0, len(partial))
	for _, key := range sortedKeys(partial) {
		old := s.data[key]
		val := deepCopyValue(partial[key])
		s.data[key] = val
		changes = append(changes, change{key: key, old: old, new: deepCopyValue(val)})
	}
	s.mu.Unlock()

	for _, ch := range changes {
		s.notify(ch.key, ch.new, ch.old)
	}
}

// Subscribe registers a callback for changes to one key. The returned
// function removes exactly that callback.
func (s *Store) Subscribe(key string, fn Callback) func() {
	sub := &subscription{key: key, fn: fn}

	s.mu.Lock()
	s.subs[key] = append(s.subs[key], sub)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.subs[key]
		for i, candidate := range list {
			if candidate == sub {
				s.subs[key] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// Undo restores the most recent history snapshot and notifies subscribers
// of keys that actually changed. It returns false when history is empty.
func (s *Store) Undo() bool {
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return false
	}

	snapshot := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]

	replaced := s.data
	s.data = snapshot
	changed := diffKeys(replaced, snapshot)
	notifications := s.collectNotifications(changed, replaced)
	s.mu.Unlock()

	s.dispatch(notifications)
	return true
}

// Reset restores the initial defaults, clears the history, and notifies
// subscribers for every field that actually changed.
func (s *Store) Reset() {
	s.mu.Lock()
	replaced := s.data
	s.data = deepCopyState(s.defaults)
	s.history = nil
	changed := diffKeys(replaced, s.data)
	notifications := s.collectNotifications(changed, replaced)
	s.mu.Unlock()

	s.dispatch(notifications)
}

// HistoryLen reports how many undo snapshots are held.
func (s *Store) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Typed accessors

// Comments returns a deep copy of the comment trees.
func (s *Store) Comments() []*comment.Comment {
	if v, ok := s.Get(KeyComments).([]*comment.Comment); ok {
		return v
	}
	return nil
}

// Loading reports whether an async load or submit is outstanding.
func (s *Store) Loading() bool {
	v, _ := s.Get(KeyLoading).(bool)
	return v
}

// ErrorMessage returns the user-facing error, or "" when none.
func (s *Store) ErrorMessage() string {
	v, _ := s.Get(KeyError).(string)
	return v
}

// Theme returns the active theme identifier.
func (s *Store) Theme() string {
	if v, ok := s.Get(KeyTheme).(string); ok && v != "" {
		return v
	}
	return DefaultTheme
}

// ReplyingTo returns the comment id targeted by the open reply form.
func (s *Store) ReplyingTo() (int64, bool) {
	v, ok := s.Get(KeyReplyingTo).(int64)
	return v, ok
}

// Pagination describes what has been fetched.
func (s *Store) Pagination() comment.Pagination {
	v, _ := s.Get(KeyPagination).(comment.Pagination)
	return v
}

// Derived read-only views, computed on read.

// CommentCount counts all comments including nested replies.
func (s *Store) CommentCount() int {
	return comment.Count(s.Comments())
}

// PartitionByStatus tallies comments by approval status.
func (s *Store) PartitionByStatus() comment.Stats {
	return comment.Partition(s.Comments())
}

// CommentsByStatus returns the flattened comments with the given status.
func (s *Store) CommentsByStatus(status comment.ApprovalStatus) []*comment.Comment {
	return comment.FilterByStatus(s.Comments(), status)
}

// internals

// pushHistory appends a deep copy of the current state. Caller holds mu.
func (s *Store) pushHistory() {
	if len(s.history) >= s.historyCap {
		s.history = s.history[1:]
	}
	s.history = append(s.history, deepCopyState(s.data))
}

type notification struct {
	key      string
	new, old any
}

// collectNotifications snapshots callback arguments for the changed keys.
// Caller holds mu.
func (s *Store) collectNotifications(changed []string, replaced map[string]any) []notification {
	out := make([]notification, 0, len(changed))
	for _, key := range changed {
		out = append(out, notification{
			key: key,
			new: deepCopyValue(s.data[key]),
			old: replaced[key],
		})
	}
	return out
}

func (s *Store) dispatch(notifications []notification) {
	for _, n := range notifications {
		s.notify(n.key, n.new, n.old)
	}
}

func (s *Store) notify(key string, newVal, oldVal any) {
	s.mu.RLock()
	subs := append([]*subscription(nil), s.subs[key]...)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(newVal, oldVal)
	}
}

// diffKeys returns the sorted union of keys whose values differ.
func diffKeys(a, b map[string]any) []string {
	seen := make(map[string]bool)
	var keys []string
	for k := range a {
		seen[k] = true
		keys = append(keys, k)
	}
	for k := range b {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var changed []string
	for _, k := range keys {
		if !reflect.DeepEqual(a[k], b[k]) {
			changed = append(changed, k)
		}
	}
	return changed
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// deepCopyState deep-copies a whole state map.
func deepCopyState(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

// deepCopyValue copies mutable values so snapshots never share state.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []*comment.Comment:
		return comment.CloneAll(val)
	case *comment.Comment:
		return val.Clone()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		// Primitives and small value structs copy by assignment.
		return v
	}
}
