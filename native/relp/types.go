package relp

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// PoolID selects one of the lump-sum reward pools.
type PoolID uint8

const (
	// PoolStable receives externally announced stable-asset increments.
	PoolStable PoolID = iota
	// PoolNative receives native-token block-reward tranches.
	PoolNative

	poolCount
)

// Pools lists every lump-sum pool in index order.
var Pools = []PoolID{PoolStable, PoolNative}

func (p PoolID) String() string {
	switch p {
	case PoolStable:
		return "stable"
	case PoolNative:
		return "native"
	default:
		return fmt.Sprintf("pool(%d)", uint8(p))
	}
}

// Valid reports whether the identifier names a served pool.
func (p PoolID) Valid() bool { return p < poolCount }

// ParsePoolID resolves a pool from its textual name.
func ParsePoolID(s string) (PoolID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stable", "elc":
		return PoolStable, nil
	case "native", "elp":
		return PoolNative, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPool, s)
	}
}

// CoindayInfo is a balance-weighted elapsed-milliseconds accumulator.
type CoindayInfo struct {
	Amount    uint256.Int
	LastBlock uint64
}

// PoolPosition tracks an account's lazily settled share of a lump-sum pool.
type PoolPosition struct {
	// NextAward is the index of the first award not yet charged to the account.
	NextAward uint64
	Reward    uint256.Int
}

// FarmPosition tracks an account's share of the continuous farm.
type FarmPosition struct {
	Reward uint256.Int
	Debt   uint256.Int
}

// Lock reserves part of a balance until UntilBlock. A zero UntilBlock locks
// indefinitely.
type Lock struct {
	Amount     uint256.Int
	UntilBlock uint64
}

// Active reports whether the lock still binds at the given height.
func (l Lock) Active(block uint64) bool {
	if l.Amount.IsZero() {
		return false
	}
	return l.UntilBlock == 0 || block < l.UntilBlock
}

// Account is the full per-holder record. Accounts are created implicitly with
// zero values and never deleted.
type Account struct {
	Balance uint256.Int
	Coinday CoindayInfo
	Pools   [poolCount]PoolPosition
	Farm    FarmPosition
	Lock    Lock
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{}
	}
	clone := *a
	return &clone
}

// FreeBalance returns the part of the balance not held by an active lock.
func (a *Account) FreeBalance(block uint64) *uint256.Int {
	if !a.Lock.Active(block) {
		return cloneInt(&a.Balance)
	}
	if a.Balance.Lt(&a.Lock.Amount) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(&a.Balance, &a.Lock.Amount)
}

// PoolState summarises a lump-sum pool.
type PoolState struct {
	AwardCount uint64
	Announced  uint256.Int
	// Distributed is the sum of credits charged to accounts so far.
	Distributed uint256.Int
}

// EmissionRecord is the state of a daily emission schedule. Emitted is the
// part of the current day's award already released since DayStart.
type EmissionRecord struct {
	Daily    uint256.Int
	Emitted  uint256.Int
	DayStart uint64
}

// FarmState is the global side of the continuous farm.
type FarmState struct {
	AccPerShare uint256.Int
	TotalReward uint256.Int
	// Unallocated collects emission released while the supply was zero.
	Unallocated uint256.Int
	// Dust is the per-share division remainder that no holder receives.
	Dust     uint256.Int
	Emission EmissionRecord
}

// Global holds the ledger-wide aggregates.
type Global struct {
	Initialized    bool
	TotalSupply    uint256.Int
	TotalCoinday   CoindayInfo
	Pools          [poolCount]PoolState
	Farm           FarmState
	NativeSchedule EmissionRecord
	LastBlock      uint64
}

// Clone returns a deep copy of the global record.
func (g *Global) Clone() *Global {
	if g == nil {
		return &Global{}
	}
	clone := *g
	return &clone
}

// Award is an announced lump-sum tranche. TotalCoinday is the global coinday
// at the announcement block; a zero value marks a zero-weight award.
type Award struct {
	Amount       uint256.Int
	TotalCoinday uint256.Int
	Block        uint64
}

// Clone returns a copy of the award.
func (a *Award) Clone() *Award {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
