package relp

import "github.com/holiman/uint256"

// announce appends an award to pool. The global coinday must already be
// accrued to block; its value becomes the award's weight denominator.
func announce(tx *txn, g *Global, pool PoolID, amount *uint256.Int, block uint64) (uint64, *Award, error) {
	if !pool.Valid() {
		return 0, nil, ErrUnknownPool
	}
	if err := fitsStored(amount); err != nil {
		return 0, nil, err
	}
	state := &g.Pools[pool]
	if err := addTo(&state.Announced, amount); err != nil {
		return 0, nil, err
	}
	award := &Award{Block: block}
	award.Amount.Set(amount)
	award.TotalCoinday.Set(&g.TotalCoinday.Amount)
	index := state.AwardCount
	tx.appendAward(pool, index, award)
	state.AwardCount++
	return index, award, nil
}

// awardScale returns the multiplier applied to credits of pool. Stable awards
// are announced in whole units and credited in the asset's smallest unit;
// native tranches are already expressed in base units.
func (e *Engine) awardScale(pool PoolID) *uint256.Int {
	if pool == PoolStable {
		return uint256.NewInt(e.params.AwardScale)
	}
	return uint256.NewInt(1)
}

// awardCredit is the account's share of a single award, evaluated with the
// coinday it held at the award block.
func (e *Engine) awardCredit(pool PoolID, award *Award, coinday *CoindayInfo, balance *uint256.Int) (*uint256.Int, error) {
	if award.TotalCoinday.IsZero() || award.Amount.IsZero() {
		return new(uint256.Int), nil
	}
	held, err := coindayAt(coinday, balance, award.Block, e.params.BlockTimeMs)
	if err != nil {
		return nil, err
	}
	if held.IsZero() {
		return held, nil
	}
	weight, err := mul(held, &award.Amount)
	if err != nil {
		return nil, err
	}
	return mulDiv(weight, e.awardScale(pool), &award.TotalCoinday)
}

// unsettledPoolCredit sums the account's credit over every award it has not
// yet been charged against. The account must not be accrued past its last
// settlement.
func (e *Engine) unsettledPoolCredit(load func(PoolID, uint64) (*Award, error), g *Global, acc *Account, pool PoolID) (*uint256.Int, error) {
	pos := &acc.Pools[pool]
	count := g.Pools[pool].AwardCount
	total := new(uint256.Int)
	if pos.NextAward >= count {
		return total, nil
	}
	if acc.Balance.IsZero() && acc.Coinday.Amount.IsZero() {
		return total, nil
	}
	for i := pos.NextAward; i < count; i++ {
		award, err := load(pool, i)
		if err != nil {
			return nil, err
		}
		credit, err := e.awardCredit(pool, award, &acc.Coinday, &acc.Balance)
		if err != nil {
			return nil, err
		}
		if _, overflow := total.AddOverflow(total, credit); overflow {
			return nil, ErrOverflow
		}
	}
	return total, nil
}

// settlePool charges every pending award of pool to the account.
func (e *Engine) settlePool(tx *txn, g *Global, acc *Account, pool PoolID) (*uint256.Int, error) {
	credit, err := e.unsettledPoolCredit(tx.award, g, acc, pool)
	if err != nil {
		return nil, err
	}
	pos := &acc.Pools[pool]
	if err := addTo(&pos.Reward, credit); err != nil {
		return nil, err
	}
	if err := addTo(&g.Pools[pool].Distributed, credit); err != nil {
		return nil, err
	}
	pos.NextAward = g.Pools[pool].AwardCount
	return credit, nil
}
