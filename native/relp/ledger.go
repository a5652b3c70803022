package relp

import "github.com/holiman/uint256"

// checkDebit verifies that amount can leave the account at the given height.
func checkDebit(acc *Account, amount *uint256.Int, block uint64) error {
	if amount.Gt(&acc.Balance) {
		return ErrInsufficientBalance
	}
	if amount.Gt(acc.FreeBalance(block)) {
		return ErrBalanceLocked
	}
	return nil
}

func ledgerMint(g *Global, acc *Account, amount *uint256.Int) error {
	if err := addTo(&g.TotalSupply, amount); err != nil {
		return err
	}
	return addTo(&acc.Balance, amount)
}

func ledgerBurn(g *Global, acc *Account, amount *uint256.Int, block uint64) error {
	if err := checkDebit(acc, amount, block); err != nil {
		return err
	}
	if err := subFrom(&acc.Balance, amount); err != nil {
		return err
	}
	return subFrom(&g.TotalSupply, amount)
}

func ledgerTransfer(from, to *Account, amount *uint256.Int, block uint64) error {
	if err := checkDebit(from, amount, block); err != nil {
		return err
	}
	if err := subFrom(&from.Balance, amount); err != nil {
		return err
	}
	return addTo(&to.Balance, amount)
}
