package oracle

import (
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/portalnet-io/bridge-go/agreement"
)

// StaticSource is an in-memory PriceSource. It backs the demo node and the
// tests; production deployments plug a real feed behind the same interface.
type StaticSource struct {
	mu     sync.RWMutex
	native map[agreement.NetworkId]agreement.PricedAt
	tokens map[ethcommon.Address]agreement.PricedAt
}

func NewStaticSource() *StaticSource {
	return &StaticSource{
		native: make(map[agreement.NetworkId]agreement.PricedAt),
		tokens: make(map[ethcommon.Address]agreement.PricedAt),
	}
}

func (s *StaticSource) SetNativePrice(network agreement.NetworkId, price *big.Int, decimals uint8, timestamp int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.native[network] = agreement.PricedAt{Price: price, Decimals: decimals, Timestamp: timestamp}
}

func (s *StaticSource) SetTokenPrice(token ethcommon.Address, price *big.Int, decimals uint8, timestamp int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = agreement.PricedAt{Price: price, Decimals: decimals, Timestamp: timestamp}
}

func (s *StaticSource) GetNativePrice(network agreement.NetworkId) (agreement.PricedAt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obs, ok := s.native[network]
	if !ok {
		return agreement.PricedAt{}, ErrPriceNotFound
	}
	return obs, nil
}

func (s *StaticSource) GetTokenPrice(token ethcommon.Address) (agreement.PricedAt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obs, ok := s.tokens[token]
	if !ok {
		return agreement.PricedAt{}, ErrPriceNotFound
	}
	return obs, nil
}
