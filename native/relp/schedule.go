package relp

import "github.com/holiman/uint256"

// advanceEmission moves rec forward to block and returns the reward released
// since its previous position. Each completed day releases the day's award in
// full and shrinks the award by decayBps; the running day releases a linear
// share of its award.
func advanceEmission(rec *EmissionRecord, block, blocksPerDay, decayBps uint64) (*uint256.Int, error) {
	if block <= rec.DayStart || blocksPerDay == 0 {
		return new(uint256.Int), nil
	}
	elapsed := block - rec.DayStart
	days := elapsed / blocksPerDay
	rem := elapsed % blocksPerDay

	award := cloneInt(&rec.Daily)
	sum := new(uint256.Int)
	if decayBps == 0 {
		full, err := mul(award, uint256.NewInt(days))
		if err != nil {
			return nil, err
		}
		sum = full
	} else {
		for i := uint64(0); i < days && !award.IsZero(); i++ {
			if _, overflow := sum.AddOverflow(sum, award); overflow {
				return nil, ErrOverflow
			}
			award = decay(award, decayBps)
		}
	}

	partial, err := mulDiv(award, uint256.NewInt(rem), uint256.NewInt(blocksPerDay))
	if err != nil {
		return nil, err
	}
	released, overflow := new(uint256.Int).AddOverflow(sum, partial)
	if overflow {
		return nil, ErrOverflow
	}
	if released.Lt(&rec.Emitted) {
		return nil, ErrUnderflow
	}
	released.Sub(released, &rec.Emitted)

	rec.Daily.Set(award)
	rec.Emitted.Set(partial)
	rec.DayStart += days * blocksPerDay
	return released, nil
}

// restartEmission anchors a schedule at block without releasing anything.
func restartEmission(rec *EmissionRecord, block uint64) {
	rec.Emitted.Clear()
	rec.DayStart = block
}

func decay(award *uint256.Int, bps uint64) *uint256.Int {
	if bps == 0 {
		return award
	}
	if bps >= basisPoints {
		return new(uint256.Int)
	}
	next, _ := new(uint256.Int).MulDivOverflow(award, uint256.NewInt(basisPoints-bps), uint256.NewInt(basisPoints))
	return next
}
