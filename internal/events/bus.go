// Package events carries the engine's in-process events over a
// kelindar/event dispatcher: ticks, errors, and control-surface mutations.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(ChannelTickEvent{...})
func (b *Bus) Publish(ev Event) {
	// Use type switch to call the generic Publish with the correct type
	switch e := ev.(type) {
	case ChannelTickEvent:
		event.Publish(b.dispatcher, e)
	case ChannelErrorEvent:
		event.Publish(b.dispatcher, e)
	case FormatChangedEvent:
		event.Publish(b.dispatcher, e)
	case LayerLoadedEvent:
		event.Publish(b.dispatcher, e)
	case LayerClearedEvent:
		event.Publish(b.dispatcher, e)
	case ConsumerAddedEvent:
		event.Publish(b.dispatcher, e)
	case ConsumerRemovedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives (type inference)
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e ChannelTickEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ChannelTickEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ChannelErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FormatChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LayerLoadedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LayerClearedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ConsumerAddedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ConsumerRemovedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}
