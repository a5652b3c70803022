package state

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"relpchain/crypto"
	"relpchain/native/relp"
)

type coindayRecord struct {
	Amount    *big.Int
	LastBlock uint64
}

type poolPositionRecord struct {
	NextAward uint64
	Reward    *big.Int
}

type accountRecord struct {
	Balance    *big.Int
	Coinday    coindayRecord
	Pools      []poolPositionRecord
	FarmReward *big.Int
	FarmDebt   *big.Int
	LockAmount *big.Int
	LockUntil  uint64
}

type poolStateRecord struct {
	AwardCount  uint64
	Announced   *big.Int
	Distributed *big.Int
}

type emissionRecord struct {
	Daily    *big.Int
	Emitted  *big.Int
	DayStart uint64
}

type globalRecord struct {
	Initialized    bool
	TotalSupply    *big.Int
	TotalCoinday   coindayRecord
	Pools          []poolStateRecord
	AccPerShare    *big.Int
	TotalReward    *big.Int
	Unallocated    *big.Int
	Dust           *big.Int
	FarmEmission   emissionRecord
	NativeSchedule emissionRecord
	LastBlock      uint64
}

type awardRecord struct {
	Amount       *big.Int
	TotalCoinday *big.Int
	Block        uint64
}

func toBig(x *uint256.Int) *big.Int {
	return x.ToBig()
}

func fromBig(dst *uint256.Int, b *big.Int) error {
	if b == nil {
		dst.Clear()
		return nil
	}
	if b.Sign() < 0 {
		return fmt.Errorf("state: negative amount %s", b)
	}
	if overflow := dst.SetFromBig(b); overflow {
		return fmt.Errorf("state: amount %s exceeds 256 bits", b)
	}
	return nil
}

func newCoindayRecord(info *relp.CoindayInfo) coindayRecord {
	return coindayRecord{Amount: toBig(&info.Amount), LastBlock: info.LastBlock}
}

func (r coindayRecord) decode(info *relp.CoindayInfo) error {
	info.LastBlock = r.LastBlock
	return fromBig(&info.Amount, r.Amount)
}

func newEmissionRecord(rec *relp.EmissionRecord) emissionRecord {
	return emissionRecord{Daily: toBig(&rec.Daily), Emitted: toBig(&rec.Emitted), DayStart: rec.DayStart}
}

func (r emissionRecord) decode(rec *relp.EmissionRecord) error {
	rec.DayStart = r.DayStart
	if err := fromBig(&rec.Daily, r.Daily); err != nil {
		return err
	}
	return fromBig(&rec.Emitted, r.Emitted)
}

// RELPGlobalGet loads the ledger-wide aggregates. It returns nil when the
// ledger has never been written.
func (m *Manager) RELPGlobalGet() (*relp.Global, error) {
	var rec globalRecord
	ok, err := m.KVGet(RELPGlobalKey(), &rec)
	if err != nil || !ok {
		return nil, err
	}
	g := &relp.Global{Initialized: rec.Initialized, LastBlock: rec.LastBlock}
	if err := fromBig(&g.TotalSupply, rec.TotalSupply); err != nil {
		return nil, err
	}
	if err := rec.TotalCoinday.decode(&g.TotalCoinday); err != nil {
		return nil, err
	}
	for i := range g.Pools {
		if i >= len(rec.Pools) {
			break
		}
		g.Pools[i].AwardCount = rec.Pools[i].AwardCount
		if err := fromBig(&g.Pools[i].Announced, rec.Pools[i].Announced); err != nil {
			return nil, err
		}
		if err := fromBig(&g.Pools[i].Distributed, rec.Pools[i].Distributed); err != nil {
			return nil, err
		}
	}
	for _, pair := range []struct {
		dst *uint256.Int
		src *big.Int
	}{
		{&g.Farm.AccPerShare, rec.AccPerShare},
		{&g.Farm.TotalReward, rec.TotalReward},
		{&g.Farm.Unallocated, rec.Unallocated},
		{&g.Farm.Dust, rec.Dust},
	} {
		if err := fromBig(pair.dst, pair.src); err != nil {
			return nil, err
		}
	}
	if err := rec.FarmEmission.decode(&g.Farm.Emission); err != nil {
		return nil, err
	}
	if err := rec.NativeSchedule.decode(&g.NativeSchedule); err != nil {
		return nil, err
	}
	return g, nil
}

// RELPGlobalPut stores the ledger-wide aggregates.
func (m *Manager) RELPGlobalPut(g *relp.Global) error {
	if g == nil {
		return fmt.Errorf("state: nil relp global")
	}
	rec := globalRecord{
		Initialized:    g.Initialized,
		TotalSupply:    toBig(&g.TotalSupply),
		TotalCoinday:   newCoindayRecord(&g.TotalCoinday),
		Pools:          make([]poolStateRecord, len(g.Pools)),
		AccPerShare:    toBig(&g.Farm.AccPerShare),
		TotalReward:    toBig(&g.Farm.TotalReward),
		Unallocated:    toBig(&g.Farm.Unallocated),
		Dust:           toBig(&g.Farm.Dust),
		FarmEmission:   newEmissionRecord(&g.Farm.Emission),
		NativeSchedule: newEmissionRecord(&g.NativeSchedule),
		LastBlock:      g.LastBlock,
	}
	for i := range g.Pools {
		rec.Pools[i] = poolStateRecord{
			AwardCount:  g.Pools[i].AwardCount,
			Announced:   toBig(&g.Pools[i].Announced),
			Distributed: toBig(&g.Pools[i].Distributed),
		}
	}
	return m.KVPut(RELPGlobalKey(), rec)
}

// RELPAccountGet loads an account record, or nil if it was never written.
func (m *Manager) RELPAccountGet(addr crypto.Address) (*relp.Account, error) {
	var rec accountRecord
	ok, err := m.KVGet(RELPAccountKey(addr), &rec)
	if err != nil || !ok {
		return nil, err
	}
	acc := &relp.Account{}
	if err := fromBig(&acc.Balance, rec.Balance); err != nil {
		return nil, err
	}
	if err := rec.Coinday.decode(&acc.Coinday); err != nil {
		return nil, err
	}
	for i := range acc.Pools {
		if i >= len(rec.Pools) {
			break
		}
		acc.Pools[i].NextAward = rec.Pools[i].NextAward
		if err := fromBig(&acc.Pools[i].Reward, rec.Pools[i].Reward); err != nil {
			return nil, err
		}
	}
	if err := fromBig(&acc.Farm.Reward, rec.FarmReward); err != nil {
		return nil, err
	}
	if err := fromBig(&acc.Farm.Debt, rec.FarmDebt); err != nil {
		return nil, err
	}
	if err := fromBig(&acc.Lock.Amount, rec.LockAmount); err != nil {
		return nil, err
	}
	acc.Lock.UntilBlock = rec.LockUntil
	return acc, nil
}

// RELPAccountPut stores an account record.
func (m *Manager) RELPAccountPut(addr crypto.Address, acc *relp.Account) error {
	if acc == nil {
		return fmt.Errorf("state: nil relp account")
	}
	rec := accountRecord{
		Balance:    toBig(&acc.Balance),
		Coinday:    newCoindayRecord(&acc.Coinday),
		Pools:      make([]poolPositionRecord, len(acc.Pools)),
		FarmReward: toBig(&acc.Farm.Reward),
		FarmDebt:   toBig(&acc.Farm.Debt),
		LockAmount: toBig(&acc.Lock.Amount),
		LockUntil:  acc.Lock.UntilBlock,
	}
	for i := range acc.Pools {
		rec.Pools[i] = poolPositionRecord{NextAward: acc.Pools[i].NextAward, Reward: toBig(&acc.Pools[i].Reward)}
	}
	return m.KVPut(RELPAccountKey(addr), rec)
}

// RELPAwardGet loads the award at index in pool, or nil if absent.
func (m *Manager) RELPAwardGet(pool relp.PoolID, index uint64) (*relp.Award, error) {
	var rec awardRecord
	ok, err := m.KVGet(RELPAwardKey(uint8(pool), index), &rec)
	if err != nil || !ok {
		return nil, err
	}
	award := &relp.Award{Block: rec.Block}
	if err := fromBig(&award.Amount, rec.Amount); err != nil {
		return nil, err
	}
	if err := fromBig(&award.TotalCoinday, rec.TotalCoinday); err != nil {
		return nil, err
	}
	return award, nil
}

// RELPAwardPut stores the award at index in pool.
func (m *Manager) RELPAwardPut(pool relp.PoolID, index uint64, award *relp.Award) error {
	if award == nil {
		return fmt.Errorf("state: nil relp award")
	}
	return m.KVPut(RELPAwardKey(uint8(pool), index), awardRecord{
		Amount:       toBig(&award.Amount),
		TotalCoinday: toBig(&award.TotalCoinday),
		Block:        award.Block,
	})
}

// RELPAllowanceGet loads the allowance owner granted spender, or nil.
func (m *Manager) RELPAllowanceGet(owner, spender crypto.Address) (*uint256.Int, error) {
	var stored *big.Int
	ok, err := m.KVGet(RELPAllowanceKey(owner, spender), &stored)
	if err != nil || !ok {
		return nil, err
	}
	amount := new(uint256.Int)
	if err := fromBig(amount, stored); err != nil {
		return nil, err
	}
	return amount, nil
}

// RELPAllowancePut stores the allowance owner granted spender.
func (m *Manager) RELPAllowancePut(owner, spender crypto.Address, amount *uint256.Int) error {
	if amount == nil {
		amount = new(uint256.Int)
	}
	return m.KVPut(RELPAllowanceKey(owner, spender), toBig(amount))
}
