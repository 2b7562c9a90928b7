// Package vault implements the per-asset treasury holding bridged
// liquidity on one chain. A vault keeps two ledgers: stakes (who supplied
// liquidity and may withdraw it) and route liquidity (how much of the
// asset is earmarked as available for each remote network). Funds only
// ever leave through Withdraw (depositor-restricted) or TransferOut
// (bridge-controller-restricted).
package vault

import (
	"fmt"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/portalnet-io/bridge-go/agreement"
)

// assetAccess unifies the native-coin and token bindings behind the two
// moves a vault performs: push funds out of its own account, and pull a
// depositor-authorized amount in.
type assetAccess interface {
	BalanceOf(owner ethcommon.Address) *big.Int
	Push(from, to ethcommon.Address, amount *big.Int) error
	Pull(from, to ethcommon.Address, amount *big.Int) error
}

type nativeAccess struct {
	binding agreement.NativeBinding
}

func (a nativeAccess) BalanceOf(owner ethcommon.Address) *big.Int {
	return a.binding.BalanceOf(owner)
}

func (a nativeAccess) Push(from, to ethcommon.Address, amount *big.Int) error {
	return a.binding.Transfer(from, to, amount)
}

func (a nativeAccess) Pull(from, to ethcommon.Address, amount *big.Int) error {
	// attaching coins to the deposit call needs no allowance
	return a.binding.Transfer(from, to, amount)
}

type tokenAccess struct {
	binding agreement.TokenBinding
	vault   ethcommon.Address
}

func (a tokenAccess) BalanceOf(owner ethcommon.Address) *big.Int {
	return a.binding.BalanceOf(owner)
}

func (a tokenAccess) Push(from, to ethcommon.Address, amount *big.Int) error {
	return a.binding.Transfer(from, to, amount)
}

func (a tokenAccess) Pull(from, to ethcommon.Address, amount *big.Int) error {
	// depositor must have approved the vault
	return a.binding.TransferFrom(a.vault, from, to, amount)
}

// Vault is the shared treasury core. NewNativeVault and NewTokenVault are
// the two concrete variants of the same contract.
type Vault struct {
	asset      agreement.AssetId
	address    ethcommon.Address // the vault's own account on the asset ledger
	controller ethcommon.Address // the registered bridge
	access     assetAccess
	storage    VaultStorage

	updateMu sync.Mutex // serializes ledger updates
}

func NewNativeVault(
	asset agreement.AssetId,
	address, controller ethcommon.Address,
	binding agreement.NativeBinding,
	storage VaultStorage,
) *Vault {
	return &Vault{
		asset:      asset,
		address:    address,
		controller: controller,
		access:     nativeAccess{binding: binding},
		storage:    storage,
	}
}

func NewTokenVault(
	asset agreement.AssetId,
	address, controller ethcommon.Address,
	binding agreement.TokenBinding,
	storage VaultStorage,
) *Vault {
	return &Vault{
		asset:      asset,
		address:    address,
		controller: controller,
		access:     tokenAccess{binding: binding, vault: address},
		storage:    storage,
	}
}

func (v *Vault) Asset() agreement.AssetId { return v.asset }

func (v *Vault) Address() ethcommon.Address { return v.address }

// Holdings returns the funds the vault actually controls on the asset
// ledger, as opposed to what its bookkeeping says.
func (v *Vault) Holdings() *big.Int {
	return v.access.BalanceOf(v.address)
}

func (v *Vault) StakeOf(depositor ethcommon.Address) (*big.Int, error) {
	return v.storage.GetStake(addrKey(depositor))
}

func (v *Vault) Liquidity(network agreement.NetworkId) (*big.Int, error) {
	return v.storage.GetLiquidity(uint64(network))
}

// Deposit pulls amount from the depositor into the vault, records the
// stake, and earmarks the amount as liquidity for the given remote
// network. Anyone may deposit.
func (v *Vault) Deposit(depositor ethcommon.Address, network agreement.NetworkId, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountNotPositive
	}

	v.updateMu.Lock()
	defer v.updateMu.Unlock()

	if err := v.access.Pull(depositor, v.address, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedTransfer, err)
	}

	if err := v.addStake(depositor, amount); err != nil {
		return err
	}
	if err := v.addLiquidity(network, amount); err != nil {
		return err
	}

	logger.WithFields(logger.Fields{
		"asset":   v.asset.String(),
		"network": network,
		"amount":  amount.String(),
	}).Debug("vault deposit")

	return nil
}

// Withdraw returns amount of the caller's stake, un-earmarking it from the
// given route. Only the depositor's own stake can be withdrawn.
func (v *Vault) Withdraw(caller ethcommon.Address, network agreement.NetworkId, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountNotPositive
	}

	v.updateMu.Lock()
	defer v.updateMu.Unlock()

	stake, err := v.storage.GetStake(addrKey(caller))
	if err != nil {
		return err
	}
	if stake.Cmp(amount) < 0 {
		return ErrInsufficientStakedBalance
	}

	liquidity, err := v.storage.GetLiquidity(uint64(network))
	if err != nil {
		return err
	}
	if liquidity.Cmp(amount) < 0 {
		return ErrInsufficientLiquidity
	}

	if v.Holdings().Cmp(amount) < 0 {
		// ledger says the stake exists but the funds are gone:
		// an invariant violation that must be surfaced
		logger.WithFields(logger.Fields{
			"asset":    v.asset.String(),
			"holdings": v.Holdings().String(),
			"amount":   amount.String(),
		}).Error("vault holdings short of recorded stake")
		return ErrInsufficientBalance
	}

	if err := v.storage.SetStake(addrKey(caller), new(big.Int).Sub(stake, amount)); err != nil {
		return err
	}
	if err := v.storage.SetLiquidity(uint64(network), new(big.Int).Sub(liquidity, amount)); err != nil {
		return err
	}

	if err := v.access.Push(v.address, caller, amount); err != nil {
		// restore bookkeeping before surfacing
		_ = v.storage.SetStake(addrKey(caller), stake)
		_ = v.storage.SetLiquidity(uint64(network), liquidity)
		return fmt.Errorf("%w: %v", ErrFailedTransfer, err)
	}

	return nil
}

// TransferOut releases vault funds to an arbitrary recipient. Only the
// registered bridge controller may call it; it backs payouts and refunds.
func (v *Vault) TransferOut(caller, to ethcommon.Address, amount *big.Int) error {
	if caller != v.controller {
		return ErrOnlyBridge
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountNotPositive
	}

	v.updateMu.Lock()
	defer v.updateMu.Unlock()

	if v.Holdings().Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := v.access.Push(v.address, to, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedTransfer, err)
	}
	return nil
}

// DebitLiquidity consumes route liquidity; the entry never goes negative.
// Controller only.
func (v *Vault) DebitLiquidity(caller ethcommon.Address, network agreement.NetworkId, amount *big.Int) error {
	if caller != v.controller {
		return ErrOnlyBridge
	}

	v.updateMu.Lock()
	defer v.updateMu.Unlock()

	liquidity, err := v.storage.GetLiquidity(uint64(network))
	if err != nil {
		return err
	}
	if liquidity.Cmp(amount) < 0 {
		return ErrInsufficientLiquidity
	}
	return v.storage.SetLiquidity(uint64(network), new(big.Int).Sub(liquidity, amount))
}

// CreditLiquidity restores or grows route liquidity. Controller only.
func (v *Vault) CreditLiquidity(caller ethcommon.Address, network agreement.NetworkId, amount *big.Int) error {
	if caller != v.controller {
		return ErrOnlyBridge
	}

	v.updateMu.Lock()
	defer v.updateMu.Unlock()

	return v.addLiquidity(network, amount)
}

func (v *Vault) addStake(depositor ethcommon.Address, amount *big.Int) error {
	stake, err := v.storage.GetStake(addrKey(depositor))
	if err != nil {
		return err
	}
	return v.storage.SetStake(addrKey(depositor), new(big.Int).Add(stake, amount))
}

func (v *Vault) addLiquidity(network agreement.NetworkId, amount *big.Int) error {
	liquidity, err := v.storage.GetLiquidity(uint64(network))
	if err != nil {
		return err
	}
	return v.storage.SetLiquidity(uint64(network), new(big.Int).Add(liquidity, amount))
}

func addrKey(addr ethcommon.Address) string {
	return addr.Hex()[2:]
}
