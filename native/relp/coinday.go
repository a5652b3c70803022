package relp

import "github.com/holiman/uint256"

// accrueCoinday brings info forward to block using the balance held since its
// last update.
func (e *Engine) accrueCoinday(info *CoindayInfo, balance *uint256.Int, block uint64) error {
	if block <= info.LastBlock {
		return nil
	}
	gained, err := weighted(balance, block-info.LastBlock, e.params.BlockTimeMs)
	if err != nil {
		return err
	}
	if err := addTo(&info.Amount, gained); err != nil {
		return err
	}
	info.LastBlock = block
	return nil
}

// coindayAt extrapolates info to block without mutating it.
func coindayAt(info *CoindayInfo, balance *uint256.Int, block, blockTimeMs uint64) (*uint256.Int, error) {
	if block <= info.LastBlock {
		return cloneInt(&info.Amount), nil
	}
	gained, err := weighted(balance, block-info.LastBlock, blockTimeMs)
	if err != nil {
		return nil, err
	}
	total, overflow := new(uint256.Int).AddOverflow(&info.Amount, gained)
	if overflow {
		return nil, ErrOverflow
	}
	return total, nil
}

// decreaseCoinday removes floor(coinday*delta/oldBalance) from the account and
// the global total. Both accumulators must already be accrued to the current
// block.
func decreaseCoinday(g *Global, acc *Account, delta, oldBalance *uint256.Int) (*uint256.Int, error) {
	if oldBalance.IsZero() || delta.IsZero() {
		return new(uint256.Int), nil
	}
	removed, err := mulDiv(&acc.Coinday.Amount, delta, oldBalance)
	if err != nil {
		return nil, err
	}
	if removed.Gt(&acc.Coinday.Amount) {
		removed.Set(&acc.Coinday.Amount)
	}
	if err := subFrom(&acc.Coinday.Amount, removed); err != nil {
		return nil, err
	}
	if err := subFrom(&g.TotalCoinday.Amount, removed); err != nil {
		return nil, err
	}
	return removed, nil
}
