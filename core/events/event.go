package events

import "relpchain/core/types"

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. the journal).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Payload extracts the raw event carried by an envelope, if any.
func Payload(evt Event) (*types.Event, bool) {
	env, ok := evt.(interface{ Event() *types.Event })
	if !ok || env.Event() == nil {
		return nil, false
	}
	return env.Event(), true
}

// Buffer collects emitted payloads in order. It is not safe for concurrent use.
type Buffer struct {
	events []*types.Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if payload, ok := Payload(evt); ok {
		b.events = append(b.events, payload)
	}
}

// Drain returns the collected events and resets the buffer.
func (b *Buffer) Drain() []*types.Event {
	out := b.events
	b.events = nil
	return out
}
