package vault

import (
	"errors"
	"math/big"
)

var (
	ErrOnlyBridge                = errors.New("caller is not the registered bridge controller")
	ErrInsufficientStakedBalance = errors.New("staked balance below requested amount")
	ErrInsufficientBalance       = errors.New("vault holdings below requested amount")
	ErrInsufficientLiquidity     = errors.New("route liquidity below requested amount")
	ErrFailedTransfer            = errors.New("underlying asset transfer failed")
	ErrAmountNotPositive         = errors.New("amount must be positive")
)

// StakeEntry is one depositor's recorded stake.
type StakeEntry struct {
	Depositor string // hex address, no 0x prefix
	Amount    *big.Int
}

// LiquidityEntry is the amount of the vault's asset earmarked as available
// for one remote network route.
type LiquidityEntry struct {
	Network uint64
	Amount  *big.Int
}
