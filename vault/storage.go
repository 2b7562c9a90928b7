package vault

import "math/big"

// VaultStorage is the persistence backend for a vault's two ledgers:
// per-depositor stakes and per-remote-network liquidity. Implementations
// must return zero (not an error) for unknown keys.
type VaultStorage interface {
	// GetStake retrieves a depositor's recorded stake.
	GetStake(depositor string) (*big.Int, error)

	// SetStake overwrites a depositor's recorded stake.
	SetStake(depositor string, amount *big.Int) error

	// AllStakes lists every depositor with a non-zero stake.
	AllStakes() ([]StakeEntry, error)

	// GetLiquidity retrieves the liquidity earmarked for a remote network.
	GetLiquidity(network uint64) (*big.Int, error)

	// SetLiquidity overwrites the liquidity earmarked for a remote network.
	SetLiquidity(network uint64, amount *big.Int) error

	// AllLiquidity lists every route with non-zero liquidity.
	AllLiquidity() ([]LiquidityEntry, error)
}
