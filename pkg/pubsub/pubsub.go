// Package pubsub carries page-level broadcasts between widget instances,
// so several widgets embedded on one page stay coordinated (theme changes
// today; anything topic-shaped tomorrow).
package pubsub

import (
	"errors"
	"sync"
)

// ErrClosed reports an operation on a closed bus.
var ErrClosed = errors.New("pubsub is closed")

// PubSub is the broadcast bus widgets attach to.
type PubSub interface {
	// Subscribe registers a handler for a topic.
	Subscribe(topic string, handler func(msg []byte)) (Subscription, error)

	// Publish delivers a message to every subscriber of a topic.
	Publish(topic string, msg []byte) error

	// Close shuts the bus down; further operations fail with ErrClosed.
	Close() error
}

// Subscription is an active topic registration.
type Subscription interface {
	Unsubscribe() error
	Topic() string
}

// MemoryPubSub is the in-process bus. Delivery is synchronous: Publish
// returns after every handler has run, which keeps widget updates ordered
// the way a single-threaded page would see them.
type MemoryPubSub struct {
	mu     sync.RWMutex
	topics map[string]map[int]*memorySubscription
	nextID int
	closed bool
}

// NewMemoryPubSub creates an empty bus.
func NewMemoryPubSub() *MemoryPubSub {
	return &MemoryPubSub{topics: make(map[string]map[int]*memorySubscription)}
}

func (ps *MemoryPubSub) Subscribe(topic string, handler func(msg []byte)) (Subscription, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.closed {
		return nil, ErrClosed
	}
	if ps.topics[topic] == nil {
		ps.topics[topic] = make(map[int]*memorySubscription)
	}

	ps.nextID++
	sub := &memorySubscription{
		id:      ps.nextID,
		topic:   topic,
		handler: handler,
		ps:      ps,
	}
	ps.topics[topic][sub.id] = sub
	return sub, nil
}

func (ps *MemoryPubSub) Publish(topic string, msg []byte) error {
	ps.mu.RLock()
	if ps.closed {
		ps.mu.RUnlock()
		return ErrClosed
	}
	// Snapshot handlers so they run outside the lock; a handler may
	// subscribe or unsubscribe without deadlocking.
	subs := make([]*memorySubscription, 0, len(ps.topics[topic]))
	for _, sub := range ps.topics[topic] {
		subs = append(subs, sub)
	}
	ps.mu.RUnlock()

	cp := make([]byte, len(msg))
	copy(cp, msg)
	for _, sub := range subs {
		if !sub.unsubscribed() {
			sub.handler(cp)
		}
	}
	return nil
}

func (ps *MemoryPubSub) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		return nil
	}
	ps.closed = true
	ps.topics = make(map[string]map[int]*memorySubscription)
	return nil
}

// SubscriberCount reports active subscriptions on a topic.
func (ps *MemoryPubSub) SubscriberCount(topic string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.topics[topic])
}

type memorySubscription struct {
	id      int
	topic   string
	handler func(msg []byte)
	ps      *MemoryPubSub

	mu   sync.Mutex
	done bool
}

func (s *memorySubscription) Unsubscribe() error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	s.mu.Unlock()

	s.ps.mu.Lock()
	defer s.ps.mu.Unlock()
	if subs := s.ps.topics[s.topic]; subs != nil {
		delete(subs, s.id)
		if len(subs) == 0 {
			delete(s.ps.topics, s.topic)
		}
	}
	return nil
}

func (s *memorySubscription) Topic() string { return s.topic }

func (s *memorySubscription) unsubscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
