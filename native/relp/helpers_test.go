package relp

import (
	"testing"

	"github.com/holiman/uint256"

	"relpchain/core/events"
	"relpchain/core/types"
	"relpchain/crypto"
)

type recordingEmitter struct {
	events []*types.Event
}

func (r *recordingEmitter) Emit(evt events.Event) {
	if payload, ok := events.Payload(evt); ok {
		r.events = append(r.events, payload)
	}
}

func (r *recordingEmitter) ofType(kind string) []*types.Event {
	var out []*types.Event
	for _, evt := range r.events {
		if evt.Type == kind {
			out = append(out, evt)
		}
	}
	return out
}

func newTestEngine(t *testing.T, params Params) (*Engine, *MemoryState, *recordingEmitter) {
	t.Helper()
	engine, err := NewEngine(params)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	state := NewMemoryState()
	emitter := &recordingEmitter{}
	engine.SetState(state)
	engine.SetEmitter(emitter)
	return engine, state, emitter
}

func testAddr(b byte) crypto.Address {
	var addr crypto.Address
	addr[19] = b
	addr[0] = 0xAA
	return addr
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func mustMint(t *testing.T, e *Engine, block uint64, to crypto.Address, amount uint64) {
	t.Helper()
	e.SetBlockHeight(block)
	if err := e.Mint(to, u(amount)); err != nil {
		t.Fatalf("mint %d at %d: %v", amount, block, err)
	}
}

func mustBurn(t *testing.T, e *Engine, block uint64, from crypto.Address, amount uint64) {
	t.Helper()
	e.SetBlockHeight(block)
	if err := e.Burn(from, u(amount)); err != nil {
		t.Fatalf("burn %d at %d: %v", amount, block, err)
	}
}

func mustTransfer(t *testing.T, e *Engine, block uint64, from, to crypto.Address, amount uint64) {
	t.Helper()
	e.SetBlockHeight(block)
	if err := e.Transfer(from, to, u(amount)); err != nil {
		t.Fatalf("transfer %d at %d: %v", amount, block, err)
	}
}

func mustAnnounce(t *testing.T, e *Engine, block uint64, pool PoolID, amount uint64) {
	t.Helper()
	e.SetBlockHeight(block)
	if _, err := e.AnnounceLumpSumAward(pool, u(amount)); err != nil {
		t.Fatalf("announce %d at %d: %v", amount, block, err)
	}
}

func expectInt(t *testing.T, label string, got *uint256.Int, want *uint256.Int) {
	t.Helper()
	if got.Cmp(want) != 0 {
		t.Fatalf("%s: got %s want %s", label, got.Dec(), want.Dec())
	}
}

func expectTotalCoinday(t *testing.T, e *Engine, want uint64) {
	t.Helper()
	info, err := e.TotalCoinday()
	if err != nil {
		t.Fatalf("total coinday: %v", err)
	}
	expectInt(t, "total coinday", &info.Amount, u(want))
}

func expectCoinday(t *testing.T, e *Engine, addr crypto.Address, want uint64) {
	t.Helper()
	info, err := e.CoindayOf(addr)
	if err != nil {
		t.Fatalf("coinday: %v", err)
	}
	expectInt(t, "coinday of "+addr.Hex(), &info.Amount, u(want))
}

func expectPoolReward(t *testing.T, e *Engine, pool PoolID, addr crypto.Address, want *uint256.Int) {
	t.Helper()
	got, err := e.PoolRewardOf(pool, addr)
	if err != nil {
		t.Fatalf("pool reward: %v", err)
	}
	expectInt(t, pool.String()+" reward of "+addr.Hex(), got, want)
}

func expectBalance(t *testing.T, e *Engine, addr crypto.Address, want uint64) {
	t.Helper()
	got, err := e.BalanceOf(addr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	expectInt(t, "balance of "+addr.Hex(), got, u(want))
}

func sum(values ...uint64) *uint256.Int {
	total := new(uint256.Int)
	for _, v := range values {
		total.Add(total, u(v))
	}
	return total
}
