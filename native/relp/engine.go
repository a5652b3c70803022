package relp

import (
	"fmt"

	"github.com/holiman/uint256"

	"relpchain/core/events"
	"relpchain/core/types"
	"relpchain/crypto"
)

// engineState is the persistence surface the engine needs. Getters return a
// nil record, and no error, for keys that were never written.
type engineState interface {
	RELPGlobalGet() (*Global, error)
	RELPGlobalPut(global *Global) error
	RELPAccountGet(addr crypto.Address) (*Account, error)
	RELPAccountPut(addr crypto.Address, account *Account) error
	RELPAwardGet(pool PoolID, index uint64) (*Award, error)
	RELPAwardPut(pool PoolID, index uint64, award *Award) error
	RELPAllowanceGet(owner, spender crypto.Address) (*uint256.Int, error)
	RELPAllowancePut(owner, spender crypto.Address, amount *uint256.Int) error
}

// Engine is the ledger orchestrator. Every mutating call settles reward
// state against pre-mutation balances, applies the ledger change and
// refreshes the reward snapshots, all inside one buffered transaction.
type Engine struct {
	state       engineState
	emitter     events.Emitter
	params      Params
	blockHeight uint64
}

// NewEngine constructs an engine with the supplied parameters.
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		emitter: events.NoopEmitter{},
		params:  params,
	}, nil
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetBlockHeight records the height every subsequent call executes at.
func (e *Engine) SetBlockHeight(height uint64) {
	if e == nil {
		return
	}
	e.blockHeight = height
}

// BlockHeight returns the height calls currently execute at.
func (e *Engine) BlockHeight() uint64 {
	if e == nil {
		return 0
	}
	return e.blockHeight
}

// Params returns the engine parameters.
func (e *Engine) Params() Params { return e.params }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) initGlobal(g *Global) {
	if g.Initialized {
		return
	}
	g.Initialized = true
	g.Farm.Emission = EmissionRecord{DayStart: e.params.GenesisBlock}
	g.Farm.Emission.Daily.Set(&e.params.DailyAward)
	g.NativeSchedule = EmissionRecord{DayStart: e.params.GenesisBlock}
	g.NativeSchedule.Daily.Set(&e.params.BlockAwardDaily)
}

// execute runs fn inside a transaction. The global coinday and the farm
// schedule are brought to the current block before fn runs; writes and
// events are released only when fn succeeds.
func (e *Engine) execute(fn func(tx *txn, g *Global, block uint64) error) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	tx := newTxn(e.state)
	g, err := tx.loadGlobal()
	if err != nil {
		return err
	}
	e.initGlobal(g)
	block := e.blockHeight
	if block < g.LastBlock {
		return fmt.Errorf("%w: %d < %d", ErrStaleBlock, block, g.LastBlock)
	}
	if err := e.accrueCoinday(&g.TotalCoinday, &g.TotalSupply, block); err != nil {
		return err
	}
	if err := e.advanceFarm(g, block); err != nil {
		return err
	}
	if err := fn(tx, g, block); err != nil {
		return err
	}
	g.LastBlock = block
	if err := tx.commit(); err != nil {
		return err
	}
	for _, evt := range tx.events {
		e.emit(evt)
	}
	return nil
}

// settleAccount charges pending lump-sum awards, credits the farm reward and
// accrues coinday, all against the account's current balance.
func (e *Engine) settleAccount(tx *txn, g *Global, addr crypto.Address, acc *Account, block uint64) error {
	for _, pool := range Pools {
		credit, err := e.settlePool(tx, g, acc, pool)
		if err != nil {
			return err
		}
		if !credit.IsZero() {
			tx.emit(RewardSettledEvent(addr, pool.String(), credit, block))
		}
	}
	credit, err := settleFarm(g, acc)
	if err != nil {
		return err
	}
	if !credit.IsZero() {
		tx.emit(RewardSettledEvent(addr, RewardSourceFarm, credit, block))
	}
	return e.accrueCoinday(&acc.Coinday, &acc.Balance, block)
}

func validAmount(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

// Mint credits amount to the account.
func (e *Engine) Mint(to crypto.Address, amount *uint256.Int) error {
	return e.execute(func(tx *txn, g *Global, block uint64) error {
		if err := validAmount(amount); err != nil {
			return err
		}
		acc, err := tx.account(to)
		if err != nil {
			return err
		}
		if err := e.settleAccount(tx, g, to, acc, block); err != nil {
			return err
		}
		if err := ledgerMint(g, acc, amount); err != nil {
			return err
		}
		if err := refreshDebt(g, acc); err != nil {
			return err
		}
		tx.emit(MintedEvent(to, amount, &acc.Balance, block))
		return nil
	})
}

// Burn removes amount from the account together with the proportional share
// of its coinday.
func (e *Engine) Burn(from crypto.Address, amount *uint256.Int) error {
	return e.execute(func(tx *txn, g *Global, block uint64) error {
		if err := validAmount(amount); err != nil {
			return err
		}
		acc, err := tx.account(from)
		if err != nil {
			return err
		}
		if err := checkDebit(acc, amount, block); err != nil {
			return err
		}
		if err := e.settleAccount(tx, g, from, acc, block); err != nil {
			return err
		}
		removed, err := decreaseCoinday(g, acc, amount, &acc.Balance)
		if err != nil {
			return err
		}
		if err := ledgerBurn(g, acc, amount, block); err != nil {
			return err
		}
		if err := refreshDebt(g, acc); err != nil {
			return err
		}
		tx.emit(BurnedEvent(from, amount, &acc.Balance, removed, block))
		return nil
	})
}

// Transfer moves amount between accounts. The sender loses the proportional
// share of its coinday; the receiver's coinday is only accrued.
func (e *Engine) Transfer(from, to crypto.Address, amount *uint256.Int) error {
	return e.execute(func(tx *txn, g *Global, block uint64) error {
		if err := e.transfer(tx, g, from, to, amount, block); err != nil {
			return err
		}
		tx.emit(TransferredEvent(from, to, "", amount, block))
		return nil
	})
}

// TransferFrom moves amount from one account to another on behalf of a
// spender holding a sufficient allowance.
func (e *Engine) TransferFrom(spender, from, to crypto.Address, amount *uint256.Int) error {
	return e.execute(func(tx *txn, g *Global, block uint64) error {
		if err := validAmount(amount); err != nil {
			return err
		}
		allowance, err := tx.allowance(from, spender)
		if err != nil {
			return err
		}
		if allowance.Lt(amount) {
			return ErrInsufficientAllowance
		}
		if err := e.transfer(tx, g, from, to, amount, block); err != nil {
			return err
		}
		tx.setAllowance(from, spender, new(uint256.Int).Sub(allowance, amount))
		tx.emit(TransferredEvent(from, to, spender.String(), amount, block))
		return nil
	})
}

func (e *Engine) transfer(tx *txn, g *Global, from, to crypto.Address, amount *uint256.Int, block uint64) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	sender, err := tx.account(from)
	if err != nil {
		return err
	}
	if err := checkDebit(sender, amount, block); err != nil {
		return err
	}
	if err := e.settleAccount(tx, g, from, sender, block); err != nil {
		return err
	}
	if from == to {
		return refreshDebt(g, sender)
	}
	receiver, err := tx.account(to)
	if err != nil {
		return err
	}
	if err := e.settleAccount(tx, g, to, receiver, block); err != nil {
		return err
	}
	if _, err := decreaseCoinday(g, sender, amount, &sender.Balance); err != nil {
		return err
	}
	if err := ledgerTransfer(sender, receiver, amount, block); err != nil {
		return err
	}
	if err := refreshDebt(g, sender); err != nil {
		return err
	}
	return refreshDebt(g, receiver)
}

// Approve sets the amount spender may move out of owner's account.
func (e *Engine) Approve(owner, spender crypto.Address, amount *uint256.Int) error {
	return e.execute(func(tx *txn, g *Global, block uint64) error {
		if amount == nil {
			return ErrInvalidAmount
		}
		if err := fitsStored(amount); err != nil {
			return err
		}
		tx.setAllowance(owner, spender, amount)
		tx.emit(ApprovedEvent(owner, spender, amount))
		return nil
	})
}

// SetLock reserves amount of the account's balance until untilBlock. A zero
// amount clears the lock.
func (e *Engine) SetLock(addr crypto.Address, amount *uint256.Int, untilBlock uint64) error {
	return e.execute(func(tx *txn, g *Global, block uint64) error {
		if amount == nil {
			return ErrInvalidAmount
		}
		acc, err := tx.account(addr)
		if err != nil {
			return err
		}
		if amount.Gt(&acc.Balance) {
			return ErrInsufficientBalance
		}
		acc.Lock = Lock{UntilBlock: untilBlock}
		acc.Lock.Amount.Set(amount)
		if amount.IsZero() {
			acc.Lock.UntilBlock = 0
		}
		tx.emit(LockedEvent(addr, amount, acc.Lock.UntilBlock))
		return nil
	})
}

// Touch settles the account at the current block without changing its
// balance, so subsequent queries reflect live values.
func (e *Engine) Touch(addr crypto.Address) error {
	return e.execute(func(tx *txn, g *Global, block uint64) error {
		acc, err := tx.account(addr)
		if err != nil {
			return err
		}
		if err := e.settleAccount(tx, g, addr, acc, block); err != nil {
			return err
		}
		return refreshDebt(g, acc)
	})
}

// AnnounceLumpSumAward records an award of amount into pool and returns its
// index. An award announced while the total coinday is zero carries no weight.
func (e *Engine) AnnounceLumpSumAward(pool PoolID, amount *uint256.Int) (uint64, error) {
	var index uint64
	err := e.execute(func(tx *txn, g *Global, block uint64) error {
		if amount == nil {
			return ErrInvalidAmount
		}
		idx, award, err := announce(tx, g, pool, amount, block)
		if err != nil {
			return err
		}
		index = idx
		tx.emit(AwardAnnouncedEvent(pool, idx, award))
		return nil
	})
	return index, err
}

// UpdateBlockAwards releases the native block-award emission accumulated
// since the previous call into the native pool. It returns the announced
// amount, which is zero when nothing was released.
func (e *Engine) UpdateBlockAwards() (*uint256.Int, error) {
	released := new(uint256.Int)
	err := e.execute(func(tx *txn, g *Global, block uint64) error {
		amount, err := advanceEmission(&g.NativeSchedule, block, e.params.BlocksPerDay(), e.params.BlockAwardDecayBps)
		if err != nil {
			return err
		}
		if amount.IsZero() {
			return nil
		}
		idx, award, err := announce(tx, g, PoolNative, amount, block)
		if err != nil {
			return err
		}
		released.Set(amount)
		tx.emit(AwardAnnouncedEvent(PoolNative, idx, award))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// SetDailyAward changes the farm emission rate effective from the current
// block. Emission up to this block is released at the previous rate.
func (e *Engine) SetDailyAward(amount *uint256.Int) error {
	return e.execute(func(tx *txn, g *Global, block uint64) error {
		if amount == nil {
			return ErrInvalidAmount
		}
		if err := fitsStored(amount); err != nil {
			return err
		}
		g.Farm.Emission = EmissionRecord{DayStart: block}
		g.Farm.Emission.Daily.Set(amount)
		tx.emit(DailyAwardSetEvent(amount, block))
		return nil
	})
}
