package relp

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestDecreaseCoindayIsProportional(t *testing.T) {
	g := &Global{}
	g.TotalCoinday.Amount.SetUint64(500_000_000)
	acc := &Account{}
	acc.Balance.SetUint64(90)
	acc.Coinday.Amount.SetUint64(306_000_000)

	removed, err := decreaseCoinday(g, acc, u(30), &acc.Balance)
	if err != nil {
		t.Fatalf("decrease: %v", err)
	}
	expectInt(t, "removed", removed, u(102_000_000))
	expectInt(t, "remaining", &acc.Coinday.Amount, u(204_000_000))
	expectInt(t, "global", &g.TotalCoinday.Amount, u(398_000_000))

	empty := &Account{}
	removed, err = decreaseCoinday(g, empty, u(5), &empty.Balance)
	if err != nil {
		t.Fatalf("decrease on empty balance: %v", err)
	}
	if !removed.IsZero() {
		t.Fatalf("expected no adjustment for empty balance, got %s", removed.Dec())
	}
}

func TestBurnCoindayScenario(t *testing.T) {
	engine, _, emitter := newTestEngine(t, DefaultParams())
	a := testAddr(1)

	mustMint(t, engine, 0, a, 90)
	// 90 * 1000 blocks * 3000ms = 270_000_000
	mustBurn(t, engine, 1_000, a, 30)
	expectCoinday(t, engine, a, 180_000_000)
	expectTotalCoinday(t, engine, 180_000_000)
	expectBalance(t, engine, a, 60)

	burned := emitter.ofType(EventTypeBurned)
	if len(burned) != 1 {
		t.Fatalf("burn events: got %d want 1", len(burned))
	}
	if burned[0].Attributes["coindayRemoved"] != "90000000" {
		t.Fatalf("coindayRemoved attribute: %q", burned[0].Attributes["coindayRemoved"])
	}
}

func TestNewEngineRejectsInvalidParams(t *testing.T) {
	params := DefaultParams()
	params.BlockTimeMs = 7
	if _, err := NewEngine(params); err == nil {
		t.Fatalf("expected block time that does not divide a day to be rejected")
	}
	params = DefaultParams()
	params.AwardScale = 0
	if engine, err := NewEngine(params); err == nil || engine != nil {
		t.Fatalf("expected zero award scale to be rejected, got %v", err)
	}
}

func TestLedgerRejectsInvalidCalls(t *testing.T) {
	engine, _, emitter := newTestEngine(t, DefaultParams())
	a, b := testAddr(1), testAddr(2)
	mustMint(t, engine, 10, a, 5)

	engine.SetBlockHeight(20)
	if err := engine.Mint(a, u(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero mint: %v", err)
	}
	if err := engine.Burn(a, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("nil burn: %v", err)
	}
	if err := engine.Burn(a, u(6)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("over burn: %v", err)
	}
	if err := engine.Transfer(a, b, u(6)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("over transfer: %v", err)
	}
	if err := engine.Transfer(b, a, u(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("transfer from empty account: %v", err)
	}

	engine.SetBlockHeight(5)
	if err := engine.Mint(a, u(1)); !errors.Is(err, ErrStaleBlock) {
		t.Fatalf("stale block: %v", err)
	}

	var nilState Engine
	if err := nilState.Mint(a, u(1)); !errors.Is(err, ErrNilState) {
		t.Fatalf("nil state: %v", err)
	}

	if got := len(emitter.ofType(EventTypeMinted)); got != 1 {
		t.Fatalf("failed calls must not emit: got %d mint events", got)
	}
}

func TestFailedCallLeavesStateUntouched(t *testing.T) {
	engine, _, _ := newTestEngine(t, DefaultParams())
	a, b := testAddr(1), testAddr(2)
	mustMint(t, engine, 100, a, 10)
	mustAnnounce(t, engine, 150, PoolStable, 50)

	before, err := engine.GlobalState()
	if err != nil {
		t.Fatalf("global: %v", err)
	}
	accBefore, _ := engine.AccountOf(a)

	engine.SetBlockHeight(400)
	if err := engine.Transfer(a, b, u(11)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	after, _ := engine.GlobalState()
	accAfter, _ := engine.AccountOf(a)
	if *after != *before {
		t.Fatalf("global state changed by failed call")
	}
	if *accAfter != *accBefore {
		t.Fatalf("account changed by failed call")
	}
}

func TestOverflowIsRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t, DefaultParams())
	a := testAddr(1)
	huge := new(uint256.Int).Lsh(u(1), 128)

	engine.SetBlockHeight(1)
	if err := engine.Mint(a, huge); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	supply, _ := engine.TotalSupply()
	expectInt(t, "supply after overflow", supply, u(0))
}

func TestSelfTransferOnlySettles(t *testing.T) {
	engine, _, emitter := newTestEngine(t, DefaultParams())
	a := testAddr(1)
	mustMint(t, engine, 100, a, 10)

	mustTransfer(t, engine, 200, a, a, 4)
	expectBalance(t, engine, a, 10)
	expectCoinday(t, engine, a, 3_000_000)
	expectTotalCoinday(t, engine, 3_000_000)

	if got := len(emitter.ofType(EventTypeTransferred)); got != 1 {
		t.Fatalf("transfer events: got %d want 1", got)
	}
}

func TestLocksGuardDebits(t *testing.T) {
	engine, _, _ := newTestEngine(t, DefaultParams())
	a, b := testAddr(1), testAddr(2)
	mustMint(t, engine, 10, a, 10)

	engine.SetBlockHeight(20)
	if err := engine.SetLock(a, u(11), 50); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("lock above balance: %v", err)
	}
	if err := engine.SetLock(a, u(6), 50); err != nil {
		t.Fatalf("set lock: %v", err)
	}
	if err := engine.Transfer(a, b, u(5)); !errors.Is(err, ErrBalanceLocked) {
		t.Fatalf("transfer into lock: %v", err)
	}
	if err := engine.Burn(a, u(5)); !errors.Is(err, ErrBalanceLocked) {
		t.Fatalf("burn into lock: %v", err)
	}
	mustTransfer(t, engine, 30, a, b, 4)

	lock, err := engine.LockOf(a)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !lock.Active(49) || lock.Active(50) {
		t.Fatalf("lock activity window wrong: %+v", lock)
	}

	mustBurn(t, engine, 50, a, 6)
	expectBalance(t, engine, a, 0)
}

func TestAllowanceTransfers(t *testing.T) {
	engine, _, emitter := newTestEngine(t, DefaultParams())
	owner, spender, to := testAddr(1), testAddr(2), testAddr(3)
	mustMint(t, engine, 10, owner, 10)

	engine.SetBlockHeight(20)
	if err := engine.Approve(owner, spender, u(6)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := engine.TransferFrom(spender, owner, to, u(7)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("transfer above allowance: %v", err)
	}
	if err := engine.TransferFrom(spender, owner, to, u(4)); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	allowance, err := engine.Allowance(owner, spender)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	expectInt(t, "remaining allowance", allowance, u(2))
	expectBalance(t, engine, to, 4)
	expectBalance(t, engine, owner, 6)

	transfers := emitter.ofType(EventTypeTransferred)
	if len(transfers) != 1 || transfers[0].Attributes["spender"] != spender.String() {
		t.Fatalf("unexpected transfer events: %+v", transfers)
	}
}

func TestUpdateBlockAwardsFeedsNativePool(t *testing.T) {
	params := DefaultParams()
	params.BlockAwardDaily = *u(28_800)
	engine, _, _ := newTestEngine(t, params)
	a, b := testAddr(1), testAddr(2)

	mustMint(t, engine, 0, a, 10)
	mustMint(t, engine, 0, b, 30)

	engine.SetBlockHeight(1_000)
	released, err := engine.UpdateBlockAwards()
	if err != nil {
		t.Fatalf("update block awards: %v", err)
	}
	expectInt(t, "released", released, u(1_000))

	released, err = engine.UpdateBlockAwards()
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if !released.IsZero() {
		t.Fatalf("second update in the same block released %s", released.Dec())
	}

	engine.SetBlockHeight(1_500)
	if err := engine.Touch(a); err != nil {
		t.Fatalf("touch: %v", err)
	}
	expectPoolReward(t, engine, PoolNative, a, u(250))
	pending, _ := engine.PendingPoolReward(PoolNative, b)
	expectInt(t, "pending native of b", pending, u(750))
}
