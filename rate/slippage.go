package rate

import (
	"errors"
	"math/big"
)

var (
	ErrBelowMinOut  = errors.New("calculated output below the user slippage floor")
	ErrAboveCeiling = errors.New("calculated output above the platform slippage ceiling")
)

const bpsDenominator = 10_000

// SlippageCeiling returns expectedOut * (10000 + bps) / 10000, the largest
// settlement the protocol accepts against a quote. The ceiling bounds price
// movement between quote and settlement; the floor is user-chosen.
func SlippageCeiling(expectedOut *big.Int, bps uint32) *big.Int {
	ceiling := new(big.Int).Mul(expectedOut, big.NewInt(int64(bpsDenominator)+int64(bps)))
	return ceiling.Div(ceiling, big.NewInt(bpsDenominator))
}

// CheckWindow verifies minOut <= calculatedOut <= ceiling(expectedOut, bps).
// Both bounds are inclusive.
func CheckWindow(calculatedOut, minOut, expectedOut *big.Int, bps uint32) error {
	if calculatedOut.Cmp(minOut) < 0 {
		return ErrBelowMinOut
	}
	if calculatedOut.Cmp(SlippageCeiling(expectedOut, bps)) > 0 {
		return ErrAboveCeiling
	}
	return nil
}
