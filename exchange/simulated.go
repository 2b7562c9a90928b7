// Package exchange provides the swap primitive the bridge falls back on
// when a payout vault is short of the target asset. The real exchange is
// an external collaborator; this simulated one fills orders from a funded
// reserve account at par.
package exchange

import (
	"errors"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/portalnet-io/bridge-go/agreement"
)

var (
	ErrNoMarket        = errors.New("no market configured for asset")
	ErrReserveDepleted = errors.New("exchange reserve depleted")
)

type market struct {
	asset   agreement.AssetId
	reserve ethcommon.Address
	push    func(from, to ethcommon.Address, amount *big.Int) error
	balance func(owner ethcommon.Address) *big.Int
}

// SimulatedExchange fills swaps out of per-asset reserve accounts.
type SimulatedExchange struct {
	mu      sync.Mutex
	markets map[agreement.AssetId]market
}

func NewSimulatedExchange() *SimulatedExchange {
	return &SimulatedExchange{markets: make(map[agreement.AssetId]market)}
}

// AddNativeMarket configures a native-coin market backed by a reserve account.
func (e *SimulatedExchange) AddNativeMarket(asset agreement.AssetId, reserve ethcommon.Address, binding agreement.NativeBinding) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markets[asset] = market{
		asset:   asset,
		reserve: reserve,
		push:    binding.Transfer,
		balance: binding.BalanceOf,
	}
}

// AddTokenMarket configures a token market backed by a reserve account.
func (e *SimulatedExchange) AddTokenMarket(asset agreement.AssetId, reserve ethcommon.Address, binding agreement.TokenBinding) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markets[asset] = market{
		asset:   asset,
		reserve: reserve,
		push:    binding.Transfer,
		balance: binding.BalanceOf,
	}
}

// Swap delivers amount of asset to recipient and returns the amount
// actually delivered.
func (e *SimulatedExchange) Swap(asset agreement.AssetId, amount *big.Int, recipient ethcommon.Address) (*big.Int, error) {
	e.mu.Lock()
	m, ok := e.markets[asset]
	e.mu.Unlock()
	if !ok {
		return nil, ErrNoMarket
	}

	if m.balance(m.reserve).Cmp(amount) < 0 {
		return nil, ErrReserveDepleted
	}
	if err := m.push(m.reserve, recipient, amount); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"asset":  asset.String(),
		"amount": amount.String(),
	}).Debug("exchange swap filled")

	return new(big.Int).Set(amount), nil
}
