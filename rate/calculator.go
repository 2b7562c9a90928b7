// Package rate computes cross-asset output amounts from oracle prices.
// It is pure: the same calculation runs once when quoting on the sending
// side and once more when verifying on the receiving side.
package rate

import (
	"errors"
	"math/big"

	"github.com/portalnet-io/bridge-go/agreement"
	"github.com/portalnet-io/bridge-go/oracle"
)

var ErrAmountNotPositive = errors.New("amount must be positive")

type Calculator struct {
	oracle *oracle.Adapter
}

func NewCalculator(o *oracle.Adapter) *Calculator {
	return &Calculator{oracle: o}
}

// AmountOut converts amountIn of source into the target asset:
//
//	amountOut = amountIn * price(target) / price(source)
//
// with both prices in canonical 1e18 fixed point. Identical source and
// target is an identity conversion and skips the oracle entirely.
func (c *Calculator) AmountOut(source, target agreement.AssetId, amountIn *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrAmountNotPositive
	}

	if source == target {
		return new(big.Int).Set(amountIn), nil
	}

	sourcePrice, err := c.oracle.Price(source)
	if err != nil {
		return nil, err
	}
	targetPrice, err := c.oracle.Price(target)
	if err != nil {
		return nil, err
	}

	out := new(big.Int).Mul(amountIn, targetPrice)
	return out.Div(out, sourcePrice), nil
}
