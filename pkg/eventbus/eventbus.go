package eventbus

import (
	"context"
	"sync"
)

// Bus is a simple event bus with topic-based publish/subscribe for messages of type T.
type Bus[T any] struct {
	subscribers map[string]map[*subscriber[T]]func(T) bool
	mu          sync.Mutex
}

type Subscriber[T any] interface {
	C() <-chan T
	Unsubscribe()
}

type subscriber[T any] struct {
	mu     sync.Mutex
	ch     chan T
	closed bool
}

func MatchAll[T any](T) bool {
	return true
}

// New returns an initialized Bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{
		subscribers: make(map[string]map[*subscriber[T]]func(T) bool),
	}
}

// Publish a message to a topic (best-effort). Subscribers with a full receive queue miss the message.
func (eb *Bus[T]) Publish(topic string, message T) {
	_ = eb.send(context.Background(), false, topic, message)
}

// Deliver a message to a topic, blocking until every matching subscriber accepted it or ctx is done.
func (eb *Bus[T]) Deliver(ctx context.Context, topic string, message T) error {
	return eb.send(ctx, true, topic, message)
}

// send skips full subscribers unless block is set.
func (eb *Bus[T]) send(ctx context.Context, block bool, topic string, message T) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for sub, filter := range eb.subscribers[topic] {
		sub.mu.Lock()
		// Clean up closed subscribers
		if sub.closed {
			sub.mu.Unlock()
			delete(eb.subscribers[topic], sub)
			continue
		}
		if !filter(message) {
			sub.mu.Unlock()
			continue
		}

		if !block {
			select {
			case sub.ch <- message:
			default:
			}
			sub.mu.Unlock()
			continue
		}

		select {
		case sub.ch <- message:
			sub.mu.Unlock()
		case <-ctx.Done():
			sub.mu.Unlock()
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe to a topic with a filter function. Returns a channel with given buffer size.
func (eb *Bus[T]) Subscribe(topic string, bufSize int, filter func(T) bool) Subscriber[T] {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	sub := &subscriber[T]{
		ch: make(chan T, bufSize),
	}

	if _, ok := eb.subscribers[topic]; !ok {
		eb.subscribers[topic] = make(map[*subscriber[T]]func(T) bool)
	}
	eb.subscribers[topic][sub] = filter

	return sub
}

// Close unsubscribes every subscriber. Buffered messages can still be drained from their channels.
func (eb *Bus[T]) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for topic, subs := range eb.subscribers {
		for sub := range subs {
			sub.Unsubscribe()
		}
		delete(eb.subscribers, topic)
	}
}

func (s *subscriber[T]) C() <-chan T {
	return s.ch
}

func (s *subscriber[T]) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	close(s.ch)
	s.closed = true
}
