// Package pubsub provides an in-process publish/subscribe broker used to fan
// out state-change notifications between the storefront state managers and
// their consumers.
package pubsub

import (
	"sync"

	"github.com/google/uuid"
)

// Handler receives the payload published on a topic.
type Handler func(payload any)

// Broker is a process-wide subscription registry. Delivery is synchronous and
// in the caller's goroutine; handlers must not block.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[uuid.UUID]Handler
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[uuid.UUID]Handler),
	}
}

// Subscription is a handle for a registered handler. It guarantees clean
// removal even when the same handler function is registered twice.
type Subscription struct {
	topic  string
	id     uuid.UUID
	broker *Broker
}

// Subscribe registers a handler for a topic and returns its Subscription.
func (b *Broker) Subscribe(topic string, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uuid.UUID]Handler)
	}
	b.subs[topic][id] = h
	return Subscription{topic: topic, id: id, broker: b}
}

// Unsubscribe removes the handler associated with the subscription.
// It is safe to call more than once.
func (s Subscription) Unsubscribe() {
	if s.broker == nil {
		return
	}
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()

	if handlers, ok := s.broker.subs[s.topic]; ok {
		delete(handlers, s.id)
		if len(handlers) == 0 {
			delete(s.broker.subs, s.topic)
		}
	}
}

// Publish delivers payload to every handler subscribed to the topic.
func (b *Broker) Publish(topic string, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}
