package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Publisher is the narrow interface producers depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Bus fans events out to in-process subscribers and appends them to the
// event log. Delivery never blocks: a full subscriber misses the event.
type Bus struct {
	mu     sync.RWMutex
	byType map[string][]chan Event
	all    []chan Event
	store  *EventLog // may be nil
	log    *slog.Logger
	closed bool
}

// NewBus creates an event bus. store may be nil to disable persistence.
func NewBus(store *EventLog, log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		byType: make(map[string][]chan Event),
		store:  store,
		log:    log.With("component", "events"),
	}
}

// Publish persists e and delivers it to matching subscribers.
// Persistence failures are logged, not returned.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if b.store != nil {
		if _, err := b.store.Append(ctx, e); err != nil {
			b.log.Error("persist event failed", "type", e.EventType(), "error", err)
		}
	}

	// Sends happen under the read lock so Unsubscribe and Close cannot
	// close a channel mid-delivery.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, ch := range slices.Concat(b.byType[e.EventType()], b.all) {
		select {
		case ch <- e:
		default:
			b.log.Warn("subscriber full, dropping event",
				"type", e.EventType(),
				"entity_type", e.EntityType(),
				"entity_id", e.EntityID())
		}
	}
	return nil
}

// Subscribe returns a channel receiving events of one type.
func (b *Bus) Subscribe(eventType string, bufferSize int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, bufferSize)
	b.byType[eventType] = append(b.byType[eventType], ch)
	return ch
}

// SubscribeAll returns a channel receiving every event.
func (b *Bus) SubscribeAll(bufferSize int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, bufferSize)
	b.all = append(b.all, ch)
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	match := func(sub chan Event) bool { return sub == ch }
	for eventType, subs := range b.byType {
		if i := slices.IndexFunc(subs, match); i >= 0 {
			close(subs[i])
			b.byType[eventType] = slices.Delete(subs, i, i+1)
			return
		}
	}
	if i := slices.IndexFunc(b.all, match); i >= 0 {
		close(b.all[i])
		b.all = slices.Delete(b.all, i, i+1)
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.byType {
		for _, ch := range subs {
			close(ch)
		}
	}
	for _, ch := range b.all {
		close(ch)
	}
	b.byType = nil
	b.all = nil
	return nil
}
