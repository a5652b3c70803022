package relp

import (
	"github.com/holiman/uint256"

	"relpchain/crypto"
)

// Queries read committed state only. Stored accumulators are returned as of
// the last call that touched them; use Touch or the Pending helpers for live
// values.

func (e *Engine) readGlobal() (*Global, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	stored, err := e.state.RELPGlobalGet()
	if err != nil {
		return nil, err
	}
	g := stored.Clone()
	e.initGlobal(g)
	return g, nil
}

func (e *Engine) readAccount(addr crypto.Address) (*Account, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	stored, err := e.state.RELPAccountGet(addr)
	if err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

func (e *Engine) readAward(pool PoolID, index uint64) (*Award, error) {
	stored, err := e.state.RELPAwardGet(pool, index)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrIndexOutOfRange
	}
	return stored.Clone(), nil
}

// AccountOf returns a copy of the full account record.
func (e *Engine) AccountOf(addr crypto.Address) (*Account, error) {
	return e.readAccount(addr)
}

// GlobalState returns a copy of the ledger-wide aggregates.
func (e *Engine) GlobalState() (*Global, error) {
	return e.readGlobal()
}

func (e *Engine) BalanceOf(addr crypto.Address) (*uint256.Int, error) {
	acc, err := e.readAccount(addr)
	if err != nil {
		return nil, err
	}
	return cloneInt(&acc.Balance), nil
}

func (e *Engine) TotalSupply() (*uint256.Int, error) {
	g, err := e.readGlobal()
	if err != nil {
		return nil, err
	}
	return cloneInt(&g.TotalSupply), nil
}

// CoindayOf returns the account's stored coinday without extrapolation.
func (e *Engine) CoindayOf(addr crypto.Address) (CoindayInfo, error) {
	acc, err := e.readAccount(addr)
	if err != nil {
		return CoindayInfo{}, err
	}
	return acc.Coinday, nil
}

// TotalCoinday returns the stored global coinday.
func (e *Engine) TotalCoinday() (CoindayInfo, error) {
	g, err := e.readGlobal()
	if err != nil {
		return CoindayInfo{}, err
	}
	return g.TotalCoinday, nil
}

// AwardsLength returns the number of awards announced into pool.
func (e *Engine) AwardsLength(pool PoolID) (uint64, error) {
	if !pool.Valid() {
		return 0, ErrUnknownPool
	}
	g, err := e.readGlobal()
	if err != nil {
		return 0, err
	}
	return g.Pools[pool].AwardCount, nil
}

// Award returns the award at index in pool.
func (e *Engine) Award(pool PoolID, index uint64) (*Award, error) {
	if !pool.Valid() {
		return nil, ErrUnknownPool
	}
	g, err := e.readGlobal()
	if err != nil {
		return nil, err
	}
	if index >= g.Pools[pool].AwardCount {
		return nil, ErrIndexOutOfRange
	}
	return e.readAward(pool, index)
}

// PoolState returns the aggregate bookkeeping of pool.
func (e *Engine) PoolState(pool PoolID) (PoolState, error) {
	if !pool.Valid() {
		return PoolState{}, ErrUnknownPool
	}
	g, err := e.readGlobal()
	if err != nil {
		return PoolState{}, err
	}
	return g.Pools[pool], nil
}

// PoolRewardOf returns the settled lump-sum reward of the account in pool.
func (e *Engine) PoolRewardOf(pool PoolID, addr crypto.Address) (*uint256.Int, error) {
	if !pool.Valid() {
		return nil, ErrUnknownPool
	}
	acc, err := e.readAccount(addr)
	if err != nil {
		return nil, err
	}
	return cloneInt(&acc.Pools[pool].Reward), nil
}

// PendingPoolReward returns the settled reward plus the credit the account
// would receive from awards it has not been charged against yet.
func (e *Engine) PendingPoolReward(pool PoolID, addr crypto.Address) (*uint256.Int, error) {
	if !pool.Valid() {
		return nil, ErrUnknownPool
	}
	g, err := e.readGlobal()
	if err != nil {
		return nil, err
	}
	acc, err := e.readAccount(addr)
	if err != nil {
		return nil, err
	}
	credit, err := e.unsettledPoolCredit(e.readAward, g, acc, pool)
	if err != nil {
		return nil, err
	}
	total, overflow := credit.AddOverflow(credit, &acc.Pools[pool].Reward)
	if overflow {
		return nil, ErrOverflow
	}
	return total, nil
}

// RewardOf returns the settled farm reward of the account.
func (e *Engine) RewardOf(addr crypto.Address) (*uint256.Int, error) {
	acc, err := e.readAccount(addr)
	if err != nil {
		return nil, err
	}
	return cloneInt(&acc.Farm.Reward), nil
}

// PendingReward projects the account's farm reward to the current block.
func (e *Engine) PendingReward(addr crypto.Address) (*uint256.Int, error) {
	g, err := e.readGlobal()
	if err != nil {
		return nil, err
	}
	acc, err := e.readAccount(addr)
	if err != nil {
		return nil, err
	}
	return e.pendingFarm(g, acc, e.blockHeight)
}

func (e *Engine) TotalReward() (*uint256.Int, error) {
	g, err := e.readGlobal()
	if err != nil {
		return nil, err
	}
	return cloneInt(&g.Farm.TotalReward), nil
}

func (e *Engine) AccPerShare() (*uint256.Int, error) {
	g, err := e.readGlobal()
	if err != nil {
		return nil, err
	}
	return cloneInt(&g.Farm.AccPerShare), nil
}

func (e *Engine) RewardDebtOf(addr crypto.Address) (*uint256.Int, error) {
	acc, err := e.readAccount(addr)
	if err != nil {
		return nil, err
	}
	return cloneInt(&acc.Farm.Debt), nil
}

// DailyAward returns the farm's current per-day emission.
func (e *Engine) DailyAward() (*uint256.Int, error) {
	g, err := e.readGlobal()
	if err != nil {
		return nil, err
	}
	return cloneInt(&g.Farm.Emission.Daily), nil
}

func (e *Engine) Allowance(owner, spender crypto.Address) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	stored, err := e.state.RELPAllowanceGet(owner, spender)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return new(uint256.Int), nil
	}
	return cloneInt(stored), nil
}

func (e *Engine) LockOf(addr crypto.Address) (Lock, error) {
	acc, err := e.readAccount(addr)
	if err != nil {
		return Lock{}, err
	}
	return acc.Lock, nil
}
