package exchange

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portalnet-io/bridge-go/agreement"
	"github.com/portalnet-io/bridge-go/assets"
	"github.com/portalnet-io/bridge-go/common"
)

func TestSwapFromNativeReserve(t *testing.T) {
	native := assets.NewSimulatedNative()
	reserve := common.RandEthAddress()
	recipient := common.RandEthAddress()
	native.Mint(reserve, big.NewInt(1000))

	asset := agreement.NativeAsset(1)
	ex := NewSimulatedExchange()
	ex.AddNativeMarket(asset, reserve, native)

	filled, err := ex.Swap(asset, big.NewInt(400), recipient)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), filled)
	assert.Equal(t, big.NewInt(400), native.BalanceOf(recipient))
	assert.Equal(t, big.NewInt(600), native.BalanceOf(reserve))
}

func TestSwapTokenMarket(t *testing.T) {
	token := assets.NewSimulatedToken()
	reserve := common.RandEthAddress()
	recipient := common.RandEthAddress()
	token.Mint(reserve, big.NewInt(50))

	asset := agreement.TokenAsset(1, common.RandEthAddress())
	ex := NewSimulatedExchange()
	ex.AddTokenMarket(asset, reserve, token)

	_, err := ex.Swap(asset, big.NewInt(51), recipient)
	assert.ErrorIs(t, err, ErrReserveDepleted)

	filled, err := ex.Swap(asset, big.NewInt(50), recipient)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), filled)
}

func TestSwapUnknownMarket(t *testing.T) {
	ex := NewSimulatedExchange()
	_, err := ex.Swap(agreement.NativeAsset(9), big.NewInt(1), common.RandEthAddress())
	assert.ErrorIs(t, err, ErrNoMarket)
}
