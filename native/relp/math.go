package relp

import "github.com/holiman/uint256"

// storedBits bounds every persisted quantity. Intermediate products may use
// the full 256-bit range.
const storedBits = 128

func fitsStored(x *uint256.Int) error {
	if x.BitLen() > storedBits {
		return ErrOverflow
	}
	return nil
}

// addTo sets dst = dst + x.
func addTo(dst, x *uint256.Int) error {
	sum, overflow := new(uint256.Int).AddOverflow(dst, x)
	if overflow {
		return ErrOverflow
	}
	if err := fitsStored(sum); err != nil {
		return err
	}
	dst.Set(sum)
	return nil
}

// subFrom sets dst = dst - x.
func subFrom(dst, x *uint256.Int) error {
	if dst.Lt(x) {
		return ErrUnderflow
	}
	dst.Sub(dst, x)
	return nil
}

func mul(x, y *uint256.Int) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return product, nil
}

// mulDiv returns floor(x*y/d) using a 512-bit intermediate. A zero divisor
// yields zero.
func mulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return new(uint256.Int), nil
	}
	quotient, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	return quotient, nil
}

// weighted returns amount * blocks * blockTimeMs, the coinday contributed by a
// balance held over the block span.
func weighted(amount *uint256.Int, blocks, blockTimeMs uint64) (*uint256.Int, error) {
	if amount.IsZero() || blocks == 0 {
		return new(uint256.Int), nil
	}
	span, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(blocks), uint256.NewInt(blockTimeMs))
	if overflow {
		return nil, ErrOverflow
	}
	return mul(amount, span)
}

func cloneInt(x *uint256.Int) *uint256.Int {
	return new(uint256.Int).Set(x)
}
