// Package oracle wraps an external price source and serves normalized
// prices to the rate calculator. All prices leaving this package are in
// canonical 1e18 fixed point regardless of the feed's own decimals.
package oracle

import (
	"errors"
	"math/big"
	"time"

	"github.com/portalnet-io/bridge-go/agreement"
)

var (
	ErrPriceNotFound = errors.New("no price feed configured for identifier")
	ErrInvalidPrice  = errors.New("price is non-positive")
	ErrStalePrice    = errors.New("price observation is stale")
)

// CanonicalDecimals is the fixed-point unit shared by the whole protocol.
const CanonicalDecimals = 18

type Config struct {
	// MaxAge is the oldest acceptable observation. Zero disables the
	// staleness check (static feeds in tests carry no timestamps).
	MaxAge time.Duration

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Adapter normalizes a PriceSource to the canonical fixed-point unit and
// rejects non-positive or stale observations. It is a pure read wrapper,
// safe to call redundantly on both legs of the protocol.
type Adapter struct {
	source agreement.PriceSource
	cfg    Config
}

func NewAdapter(source agreement.PriceSource, cfg Config) *Adapter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Adapter{source: source, cfg: cfg}
}

// Price returns the canonical 1e18 fixed-point price for an asset.
func (a *Adapter) Price(asset agreement.AssetId) (*big.Int, error) {
	var (
		obs agreement.PricedAt
		err error
	)
	if asset.IsNative() {
		obs, err = a.source.GetNativePrice(asset.Network)
	} else {
		obs, err = a.source.GetTokenPrice(asset.Token)
	}
	if err != nil {
		return nil, err
	}

	if obs.Price == nil || obs.Price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if a.cfg.MaxAge > 0 {
		age := a.cfg.Now().Unix() - obs.Timestamp
		if age > int64(a.cfg.MaxAge/time.Second) {
			return nil, ErrStalePrice
		}
	}

	return normalize(obs.Price, obs.Decimals), nil
}

// normalize rescales a price from the feed's decimals to 1e18.
func normalize(price *big.Int, decimals uint8) *big.Int {
	p := new(big.Int).Set(price)
	switch {
	case decimals < CanonicalDecimals:
		exp := big.NewInt(int64(CanonicalDecimals - decimals))
		return p.Mul(p, new(big.Int).Exp(big.NewInt(10), exp, nil))
	case decimals > CanonicalDecimals:
		exp := big.NewInt(int64(decimals - CanonicalDecimals))
		return p.Div(p, new(big.Int).Exp(big.NewInt(10), exp, nil))
	default:
		return p
	}
}
