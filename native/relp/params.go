package relp

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// DefaultBlockTimeMs is the block interval of the host chain in milliseconds.
	DefaultBlockTimeMs = 3000
	// DefaultAwardScale expresses stable-pool credits in the stable asset's
	// smallest unit (8 decimals).
	DefaultAwardScale = 100_000_000

	msPerDay    = 86_400_000
	basisPoints = 10_000
)

// Params configures the engine's time base and emission schedules.
type Params struct {
	BlockTimeMs uint64
	// AwardScale multiplies every stable-pool credit before the division by
	// the announcement's total coinday.
	AwardScale uint64
	// DailyAward is the initial per-day emission of the continuous farm.
	DailyAward uint256.Int
	// DailyDecayBps shrinks the farm emission by the given basis points at
	// every completed day. Zero keeps the rate constant.
	DailyDecayBps uint64
	// BlockAwardDaily is the per-day native reward funnelled into the native
	// lump-sum pool by UpdateBlockAwards.
	BlockAwardDaily    uint256.Int
	BlockAwardDecayBps uint64
	// GenesisBlock anchors both emission schedules.
	GenesisBlock uint64
}

// DefaultParams returns the parameters of the reference deployment.
func DefaultParams() Params {
	daily := uint256.NewInt(20_000)
	daily.Mul(daily, uint256.NewInt(100_000_000))
	return Params{
		BlockTimeMs:     DefaultBlockTimeMs,
		AwardScale:      DefaultAwardScale,
		DailyAward:      *daily,
		BlockAwardDaily: *daily,
	}
}

// BlocksPerDay returns the number of blocks produced in one day.
func (p Params) BlocksPerDay() uint64 {
	if p.BlockTimeMs == 0 {
		return 0
	}
	return msPerDay / p.BlockTimeMs
}

// Validate ensures the parameters describe a usable schedule.
func (p Params) Validate() error {
	if p.BlockTimeMs == 0 {
		return fmt.Errorf("relp params: block time must be positive")
	}
	if msPerDay%p.BlockTimeMs != 0 {
		return fmt.Errorf("relp params: block time %dms does not divide a day", p.BlockTimeMs)
	}
	if p.AwardScale == 0 {
		return fmt.Errorf("relp params: award scale must be positive")
	}
	if p.DailyDecayBps > basisPoints {
		return fmt.Errorf("relp params: daily decay %d exceeds %d bps", p.DailyDecayBps, basisPoints)
	}
	if p.BlockAwardDecayBps > basisPoints {
		return fmt.Errorf("relp params: block award decay %d exceeds %d bps", p.BlockAwardDecayBps, basisPoints)
	}
	if p.DailyAward.BitLen() > storedBits || p.BlockAwardDaily.BitLen() > storedBits {
		return fmt.Errorf("relp params: daily award exceeds 128 bits")
	}
	return nil
}
