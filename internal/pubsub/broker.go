// package pubsub fans out in-process events to subscribers
package pubsub

import (
	"context"
	"errors"
	"sync"
)

// subBufferSize is the buffer size of the channel for each subscription.
const subBufferSize = 256

// ErrSubscriptionTerminated is for use by subscribers to indicate that their subscription has
// been terminated by the broker.
var ErrSubscriptionTerminated = errors.New("broker terminated the subscription")

// Logger is the part of a logger the broker reports to.
type Logger interface {
	Error(msg any, keyvals ...any)
}

// EventType describes what happened to a payload.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event is a published payload.
type Event[T any] struct {
	Type    EventType
	Payload T
}

// Broker allows clients to publish events and subscribe to events
type Broker[T any] struct {
	subs map[chan Event[T]]struct{}
	mu   sync.Mutex

	logger Logger
}

func NewBroker[T any](logger Logger) *Broker[T] {
	return &Broker[T]{subs: make(map[chan Event[T]]struct{}), logger: logger}
}

// Subscribe subscribes the caller to a stream of events. The subscription ends when ctx is
// canceled, and the channel is then closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(chan Event[T], subBufferSize)
	b.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.unsubscribe(sub)
	}()

	return sub
}

// Publish an event to subscribers. Subscribers whose buffer is full are unsubscribed.
func (b *Broker[T]) Publish(t EventType, payload T) {
	var full []chan Event[T]

	b.mu.Lock()
	for sub := range b.subs {
		select {
		case sub <- Event[T]{Type: t, Payload: payload}:
		default:
			full = append(full, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range full {
		if b.logger != nil {
			b.logger.Error("unsubscribing full subscriber", "queue_length", subBufferSize)
		}
		b.unsubscribe(sub)
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broker[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broker[T]) unsubscribe(sub chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; !ok {
		return
	}
	close(sub)
	delete(b.subs, sub)
}
