// Package realtime provides the fire-and-forget publish channel used to
// push events to connected organization clients.
package realtime

import (
	"context"
	"sync"
)

// Publisher pushes an event to every subscriber of a room. Publishing is
// best-effort; implementations must not block on slow consumers.
type Publisher interface {
	Publish(ctx context.Context, room, event string, payload map[string]any) error
}

// PublishedEvent is one captured event from the in-memory publisher.
type PublishedEvent struct {
	Room    string
	Event   string
	Payload map[string]any
}

// MemoryPublisher records published events; used in tests and as a safe
// default when no realtime backend is configured.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// NewMemoryPublisher creates an in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, room, event string, payload map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, PublishedEvent{Room: room, Event: event, Payload: payload})

	return nil
}

// Events returns a copy of the captured events.
func (p *MemoryPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)

	return out
}
