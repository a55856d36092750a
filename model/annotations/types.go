// Package annotations provides a low-overhead event system for tracking
// document store operations and their latency.
package annotations

import (
	"sync"
	"time"
)

// Event names, hierarchical like "store/put"
const (
	StorePut    = "store/put"
	StoreGet    = "store/get"
	StoreDelete = "store/delete"
	StoreScan   = "store/scan"
	StoreCount  = "store/count"

	ErrorBackend = "error/backend"
)

// Event is a single annotated operation.
type Event struct {
	Name    string         // Event name, one of the constants above
	Start   time.Time      // Start timestamp
	End     time.Time      // End timestamp
	Latency time.Duration  // End - Start
	Data    map[string]any // Event-specific details
}

// Handler processes events as they occur.
type Handler func(event Event)

// Collector accumulates events and forwards them to a handler.
// A collector with a nil handler records nothing.
type Collector struct {
	enabled bool
	retain  bool
	handler Handler

	mu     sync.Mutex
	events []Event
}

// NewCollector creates a new annotation collector.
func NewCollector(handler Handler) *Collector {
	return &Collector{
		enabled: handler != nil,
		retain:  true,
		handler: handler,
		events:  make([]Event, 0, 16),
	}
}

// NewForwarder creates a collector that passes events to handler without
// keeping them. Events always returns nil. Long-lived owners such as
// stores use it.
func NewForwarder(handler Handler) *Collector {
	return &Collector{
		enabled: handler != nil,
		handler: handler,
	}
}

// Enabled reports whether events are recorded
func (c *Collector) Enabled() bool {
	return c != nil && c.enabled
}

// Add records a new event.
// Thread-safe for concurrent access.
func (c *Collector) Add(event Event) {
	if !c.Enabled() {
		return
	}

	if c.retain {
		c.mu.Lock()
		c.events = append(c.events, event)
		c.mu.Unlock()
	}

	// Call handler outside the lock to avoid deadlocks
	c.handler(event)
}

// AddTiming records an event that started at start and ends now.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]any) {
	if !c.Enabled() {
		return
	}

	end := time.Now()
	c.Add(Event{
		Name:    name,
		Start:   start,
		End:     end,
		Latency: end.Sub(start),
		Data:    data,
	})
}

// Events returns a copy of all collected events.
func (c *Collector) Events() []Event {
	if c == nil || !c.retain {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	eventsCopy := make([]Event, len(c.events))
	copy(eventsCopy, c.events)
	return eventsCopy
}

// Reset clears collected events, keeping the handler.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
}
