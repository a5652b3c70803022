package relp

import "github.com/holiman/uint256"

// advanceFarm releases the farm emission up to block and folds it into the
// per-share accumulator. While the supply is zero the schedule restarts at the
// current block and the released amount is parked in Unallocated.
func (e *Engine) advanceFarm(g *Global, block uint64) error {
	farm := &g.Farm
	delta, err := advanceEmission(&farm.Emission, block, e.params.BlocksPerDay(), e.params.DailyDecayBps)
	if err != nil {
		return err
	}
	if g.TotalSupply.IsZero() {
		restartEmission(&farm.Emission, block)
		return addTo(&farm.Unallocated, delta)
	}
	if delta.IsZero() {
		return nil
	}
	perShare, remainder := new(uint256.Int), new(uint256.Int)
	perShare.DivMod(delta, &g.TotalSupply, remainder)
	if err := addTo(&farm.TotalReward, delta); err != nil {
		return err
	}
	if err := addTo(&farm.AccPerShare, perShare); err != nil {
		return err
	}
	return addTo(&farm.Dust, remainder)
}

// farmEntitlement returns accPerShare*balance - debt for a settled balance.
func farmEntitlement(accPerShare *uint256.Int, pos *FarmPosition, balance *uint256.Int) (*uint256.Int, error) {
	gross, err := mul(accPerShare, balance)
	if err != nil {
		return nil, err
	}
	if gross.Lt(&pos.Debt) {
		return nil, ErrUnderflow
	}
	return gross.Sub(gross, &pos.Debt), nil
}

// settleFarm credits the account with the reward earned by its current
// balance since the last debt snapshot.
func settleFarm(g *Global, acc *Account) (*uint256.Int, error) {
	credit, err := farmEntitlement(&g.Farm.AccPerShare, &acc.Farm, &acc.Balance)
	if err != nil {
		return nil, err
	}
	if err := addTo(&acc.Farm.Reward, credit); err != nil {
		return nil, err
	}
	return credit, nil
}

// refreshDebt snapshots accPerShare*balance after a balance change.
func refreshDebt(g *Global, acc *Account) error {
	debt, err := mul(&g.Farm.AccPerShare, &acc.Balance)
	if err != nil {
		return err
	}
	if err := fitsStored(debt); err != nil {
		return err
	}
	acc.Farm.Debt.Set(debt)
	return nil
}

// pendingFarm projects the account's farm reward to block without mutating
// any record.
func (e *Engine) pendingFarm(g *Global, acc *Account, block uint64) (*uint256.Int, error) {
	projected := g.Clone()
	if block > projected.LastBlock {
		if err := e.advanceFarm(projected, block); err != nil {
			return nil, err
		}
	}
	credit, err := farmEntitlement(&projected.Farm.AccPerShare, &acc.Farm, &acc.Balance)
	if err != nil {
		return nil, err
	}
	total, overflow := new(uint256.Int).AddOverflow(&acc.Farm.Reward, credit)
	if overflow {
		return nil, ErrOverflow
	}
	return total, nil
}
