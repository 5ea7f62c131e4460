package events

import (
	"encoding/json"
	"fmt"
)

// EventFactory creates a new zero-value event of a specific type.
type EventFactory func() Event

// Registry maps event types to their factories for deserialization.
type Registry struct {
	factories map[string]EventFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]EventFactory)}
}

// Register adds an event type to the registry.
func (r *Registry) Register(eventType string, factory EventFactory) {
	r.factories[eventType] = factory
}

// Unmarshal decodes a persisted event into its concrete type.
func (r *Registry) Unmarshal(raw RawEvent) (Event, error) {
	factory, ok := r.factories[raw.EventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", raw.EventType)
	}

	event := factory()
	if err := json.Unmarshal([]byte(raw.Payload), event); err != nil {
		return nil, fmt.Errorf("unmarshal event payload: %w", err)
	}
	return event, nil
}

// DefaultRegistry returns a registry with every event type in this package.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(EventDebridStatusChanged, func() Event { return &DebridStatusChanged{} })
	r.Register(EventAutoResolveCompleted, func() Event { return &AutoResolveCompleted{} })
	r.Register(EventAutoResolveFailed, func() Event { return &AutoResolveFailed{} })
	r.Register(EventBulkResolveFinished, func() Event { return &BulkResolveFinished{} })
	r.Register(EventCatalogRefreshed, func() Event { return &CatalogRefreshed{} })
	r.Register(EventCatalogApplied, func() Event { return &CatalogApplied{} })
	return r
}
