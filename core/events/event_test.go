package events

import (
	"testing"

	"relpchain/core/types"
)

type envelope struct{ evt *types.Event }

func (e envelope) EventType() string    { return e.evt.Type }
func (e envelope) Event() *types.Event { return e.evt }

type bare struct{}

func (bare) EventType() string { return "bare" }

func TestBufferCollectsPayloads(t *testing.T) {
	var buf Buffer
	buf.Emit(envelope{evt: &types.Event{Type: "relp.minted"}})
	buf.Emit(bare{})
	buf.Emit(envelope{evt: &types.Event{Type: "relp.burned"}})

	drained := buf.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 events, got %d", len(drained))
	}
	if drained[0].Type != "relp.minted" || drained[1].Type != "relp.burned" {
		t.Fatalf("unexpected order: %s, %s", drained[0].Type, drained[1].Type)
	}
	if len(buf.Drain()) != 0 {
		t.Fatalf("buffer not reset")
	}
}

func TestEventClone(t *testing.T) {
	evt := &types.Event{Type: "relp.approved", Attributes: map[string]string{"amount": "5"}}
	clone := evt.Clone()
	clone.Attributes["amount"] = "6"
	if evt.Attribute("amount") != "5" {
		t.Fatalf("clone shares attributes")
	}
	var missing *types.Event
	if missing.Attribute("amount") != "" || missing.Clone() != nil {
		t.Fatalf("nil event helpers misbehave")
	}
}
