package events

// EventKind represents the type of domain event produced by the engine.
type EventKind string

const (
	EventFactStored  EventKind = "fact_stored"
	EventFactUpdated EventKind = "fact_updated"
	EventFactDeleted EventKind = "fact_deleted"
)

// Event carries the minimum data an observer needs; consumers can
// query the full record from the store by id.
type Event struct {
	Kind   EventKind
	UserID string
	FactID string
}

// Bus is a lightweight in-process pub-sub implementation backed by a
// buffered channel. It is injected into the engine as an observability
// sink; a nil *Bus is valid and drops every event.
type Bus struct {
	ch chan Event
}

// NewBus creates a bus with the given buffer size.
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish attempts to enqueue the event without blocking.
// Returns true if published, false if the bus is nil or full.
func (b *Bus) Publish(evt Event) bool {
	if b == nil {
		return false
	}
	select {
	case b.ch <- evt:
		return true
	default:
		return false
	}
}

// Subscribe returns a read-only channel for consumers.
func (b *Bus) Subscribe() <-chan Event {
	return b.ch
}
