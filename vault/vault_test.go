package vault

import (
	"database/sql"
	"math/big"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portalnet-io/bridge-go/agreement"
	"github.com/portalnet-io/bridge-go/assets"
	"github.com/portalnet-io/bridge-go/common"
)

const remoteNet = agreement.NetworkId(2)

func newStorage(t *testing.T) *SQLiteVaultStorage {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s, err := NewSQLiteVaultStorageWithDB(db, "test")
	require.NoError(t, err)
	return s
}

func TestDepositAndWithdraw(t *testing.T) {
	native := assets.NewSimulatedNative()
	vaultAddr := common.RandEthAddress()
	controller := common.RandEthAddress()
	depositor := common.RandEthAddress()

	v := NewNativeVault(agreement.NativeAsset(1), vaultAddr, controller, native, newStorage(t))

	native.Mint(depositor, big.NewInt(1000))
	require.NoError(t, v.Deposit(depositor, remoteNet, big.NewInt(600)))

	assert.Equal(t, big.NewInt(600), v.Holdings())
	stake, err := v.StakeOf(depositor)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), stake)
	liq, err := v.Liquidity(remoteNet)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), liq)

	// withdrawing more than the stake
	err = v.Withdraw(depositor, remoteNet, big.NewInt(601))
	assert.ErrorIs(t, err, ErrInsufficientStakedBalance)

	// someone with no stake at all
	err = v.Withdraw(common.RandEthAddress(), remoteNet, big.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientStakedBalance)

	require.NoError(t, v.Withdraw(depositor, remoteNet, big.NewInt(200)))
	assert.Equal(t, big.NewInt(400), v.Holdings())
	assert.Equal(t, big.NewInt(600), native.BalanceOf(depositor))

	stake, err = v.StakeOf(depositor)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), stake)
}

func TestWithdrawSurfacesMissingFunds(t *testing.T) {
	native := assets.NewSimulatedNative()
	vaultAddr := common.RandEthAddress()
	controller := common.RandEthAddress()
	depositor := common.RandEthAddress()

	v := NewNativeVault(agreement.NativeAsset(1), vaultAddr, controller, native, newStorage(t))

	native.Mint(depositor, big.NewInt(100))
	require.NoError(t, v.Deposit(depositor, remoteNet, big.NewInt(100)))

	// drain the vault account behind the ledger's back
	require.NoError(t, native.Transfer(vaultAddr, common.RandEthAddress(), big.NewInt(100)))

	err := v.Withdraw(depositor, remoteNet, big.NewInt(100))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// the recorded stake must be intact after the failed withdraw
	stake, err2 := v.StakeOf(depositor)
	require.NoError(t, err2)
	assert.Equal(t, big.NewInt(100), stake)
}

func TestTransferOutOnlyBridge(t *testing.T) {
	native := assets.NewSimulatedNative()
	vaultAddr := common.RandEthAddress()
	controller := common.RandEthAddress()
	recipient := common.RandEthAddress()

	v := NewNativeVault(agreement.NativeAsset(1), vaultAddr, controller, native, newStorage(t))
	native.Mint(vaultAddr, big.NewInt(50))

	err := v.TransferOut(common.RandEthAddress(), recipient, big.NewInt(10))
	assert.ErrorIs(t, err, ErrOnlyBridge)

	err = v.TransferOut(controller, recipient, big.NewInt(51))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, v.TransferOut(controller, recipient, big.NewInt(50)))
	assert.Equal(t, big.NewInt(50), native.BalanceOf(recipient))
	assert.Equal(t, big.NewInt(0), v.Holdings())
}

func TestTokenVaultDeposit(t *testing.T) {
	token := assets.NewSimulatedToken()
	tokenAddr := common.RandEthAddress()
	vaultAddr := common.RandEthAddress()
	controller := common.RandEthAddress()
	depositor := common.RandEthAddress()

	v := NewTokenVault(agreement.TokenAsset(1, tokenAddr), vaultAddr, controller, token, newStorage(t))

	token.Mint(depositor, big.NewInt(100))

	// token pull requires approval to the vault
	err := v.Deposit(depositor, remoteNet, big.NewInt(100))
	assert.ErrorIs(t, err, ErrFailedTransfer)

	token.Approve(depositor, vaultAddr, big.NewInt(100))
	require.NoError(t, v.Deposit(depositor, remoteNet, big.NewInt(100)))
	assert.Equal(t, big.NewInt(100), v.Holdings())
}

func TestLiquidityLedger(t *testing.T) {
	native := assets.NewSimulatedNative()
	controller := common.RandEthAddress()

	v := NewNativeVault(agreement.NativeAsset(1), common.RandEthAddress(), controller, native, newStorage(t))

	err := v.DebitLiquidity(common.RandEthAddress(), remoteNet, big.NewInt(1))
	assert.ErrorIs(t, err, ErrOnlyBridge)
	err = v.CreditLiquidity(common.RandEthAddress(), remoteNet, big.NewInt(1))
	assert.ErrorIs(t, err, ErrOnlyBridge)

	// the entry never goes negative
	err = v.DebitLiquidity(controller, remoteNet, big.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	require.NoError(t, v.CreditLiquidity(controller, remoteNet, big.NewInt(30)))
	require.NoError(t, v.DebitLiquidity(controller, remoteNet, big.NewInt(30)))

	liq, err := v.Liquidity(remoteNet)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), liq)
}

func TestStorageRoundTrip(t *testing.T) {
	s := newStorage(t)

	big128, _ := new(big.Int).SetString("170141183460469231731687303715884105727", 10)
	require.NoError(t, s.SetStake("ab", big128))
	got, err := s.GetStake("ab")
	require.NoError(t, err)
	assert.Equal(t, big128, got)

	// unknown keys read as zero
	got, err = s.GetStake("cd")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), got)

	require.NoError(t, s.SetLiquidity(9, big.NewInt(5)))
	entries, err := s.AllLiquidity()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(9), entries[0].Network)
	assert.Equal(t, big.NewInt(5), entries[0].Amount)
}
