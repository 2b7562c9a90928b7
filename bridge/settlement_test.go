package bridge

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portalnet-io/bridge-go/agreement"
	"github.com/portalnet-io/bridge-go/codec"
	"github.com/portalnet-io/bridge-go/common"
	"github.com/portalnet-io/bridge-go/exchange"
)

func TestSettleNativeAtParity(t *testing.T) {
	w := newWorld(t)
	sender := w.a.fundNativeSender(e18(10))
	recipient := common.RandEthAddress()

	targetBefore := w.b.nativeVault.Holdings()

	seq, err := w.a.bridge.Send(sender, nativeRequest(w, recipient, e18(10), e18(10)))
	require.NoError(t, err)

	_, err = w.relay.DeliverAll()
	require.NoError(t, err)

	// recipient paid on the target ledger, out of the target vault
	assert.Equal(t, e18(10), w.b.native.BalanceOf(recipient))
	assert.Equal(t, new(big.Int).Sub(targetBefore, e18(10)), w.b.nativeVault.Holdings())

	tr, ok, err := w.a.bridge.StateDB().GetOutbound(channelAB, seq)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OutboundStatusCompleted, tr.Status)

	has, status, err := w.b.bridge.StateDB().HasInbound(channelAB, seq)
	require.NoError(t, err)
	require.True(t, has)
	assert.Equal(t, InboundStatusAccepted, status)

	// receiver earmarks the settled amount as liquidity toward the source
	liq, err := w.b.nativeVault.Liquidity(netA)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Add(e18(1_000), e18(10)), liq)
}

func TestSettleTokenToNativeCrossRate(t *testing.T) {
	w := newWorld(t)
	// token quoted at 500, target native at 2000: 8 tokens buy 32 native
	sender := w.a.fundTokenSender(e18(8))
	recipient := common.RandEthAddress()

	req := &SendRequest{
		ChannelId:      channelAB,
		TransferType:   agreement.TokenToNative,
		SourceAsset:    w.a.tokenAsset,
		TargetNetwork:  netB,
		TargetAsset:    w.b.nativeAsset,
		Recipient:      recipient,
		Amount:         e18(8),
		MinOut:         e18(32),
		TimeoutSeconds: 3600,
	}
	_, err := w.a.bridge.Send(sender, req)
	require.NoError(t, err)
	_, err = w.relay.DeliverAll()
	require.NoError(t, err)

	assert.Equal(t, e18(32), w.b.native.BalanceOf(recipient))
	assert.Zero(t, w.a.token.BalanceOf(sender).Sign())
	// escrow stays in the source token vault
	assert.Equal(t, new(big.Int).Add(e18(1_000), e18(8)), w.a.tokenVault.Holdings())
}

func TestSettleTokenToTokenRoundTrip(t *testing.T) {
	w := newWorld(t)
	sender := w.a.fundTokenSender(e18(40))
	recipient := common.RandEthAddress()

	req := &SendRequest{
		ChannelId:      channelAB,
		TransferType:   agreement.TokenToToken,
		SourceAsset:    w.a.tokenAsset,
		TargetNetwork:  netB,
		TargetAsset:    w.b.tokenAsset,
		Recipient:      recipient,
		Amount:         e18(40),
		MinOut:         e18(40),
		TimeoutSeconds: 3600,
	}
	_, err := w.a.bridge.Send(sender, req)
	require.NoError(t, err)
	_, err = w.relay.DeliverAll()
	require.NoError(t, err)

	// both tokens quoted equally, so output matches input
	assert.Equal(t, e18(40), w.b.token.BalanceOf(recipient))
}

func TestReceiverRateDropRefunds(t *testing.T) {
	w := newWorld(t)
	sender := w.a.fundNativeSender(e18(10))
	recipient := common.RandEthAddress()

	seq, err := w.a.bridge.Send(sender, nativeRequest(w, recipient, e18(10), e18(10)))
	require.NoError(t, err)

	// target price collapses on the receiver's oracle before delivery,
	// pushing the recomputed output under the floor
	w.b.prices.SetNativePrice(netB, e18(1000), 18, w.now.Unix())

	_, err = w.relay.DeliverAll()
	require.NoError(t, err)

	assert.Zero(t, w.b.native.BalanceOf(recipient).Sign())
	assert.Equal(t, e18(10), w.a.native.BalanceOf(sender))

	tr, _, err := w.a.bridge.StateDB().GetOutbound(channelAB, seq)
	require.NoError(t, err)
	assert.Equal(t, OutboundStatusRefunded, tr.Status)
	assert.Equal(t, "calculated output below slippage floor", tr.Detail)

	has, status, err := w.b.bridge.StateDB().HasInbound(channelAB, seq)
	require.NoError(t, err)
	require.True(t, has)
	assert.Equal(t, InboundStatusRejected, status)

	// refund restores the route liquidity debited at send
	liq, err := w.a.nativeVault.Liquidity(netB)
	require.NoError(t, err)
	assert.Equal(t, e18(1_000), liq)
}

func TestReceiverRateSpikeRejectedAtCeiling(t *testing.T) {
	w := newWorld(t)
	sender := w.a.fundNativeSender(e18(10))
	recipient := common.RandEthAddress()

	seq, err := w.a.bridge.Send(sender, nativeRequest(w, recipient, e18(10), nil))
	require.NoError(t, err)

	// doubling the target quote lands far above the 5% platform ceiling
	w.b.prices.SetNativePrice(netB, e18(4000), 18, w.now.Unix())

	_, err = w.relay.DeliverAll()
	require.NoError(t, err)

	assert.Equal(t, e18(10), w.a.native.BalanceOf(sender))
	tr, _, err := w.a.bridge.StateDB().GetOutbound(channelAB, seq)
	require.NoError(t, err)
	assert.Equal(t, OutboundStatusRefunded, tr.Status)
	assert.Equal(t, "calculated output above platform ceiling", tr.Detail)
}

func TestTimeoutRefundsSender(t *testing.T) {
	w := newWorld(t)
	sender := w.a.fundNativeSender(e18(10))
	recipient := common.RandEthAddress()

	req := nativeRequest(w, recipient, e18(10), nil)
	req.TimeoutSeconds = 60
	seq, err := w.a.bridge.Send(sender, req)
	require.NoError(t, err)

	// the packet is lost and its timeout passes
	require.NoError(t, w.relay.DropNext())
	w.advance(2 * time.Minute)

	n, err := w.relay.ExpireTimeouts()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, e18(10), w.a.native.BalanceOf(sender))
	assert.Zero(t, w.b.native.BalanceOf(recipient).Sign())

	tr, _, err := w.a.bridge.StateDB().GetOutbound(channelAB, seq)
	require.NoError(t, err)
	assert.Equal(t, OutboundStatusRefunded, tr.Status)
	assert.Equal(t, "timeout", tr.Detail)

	liq, err := w.a.nativeVault.Liquidity(netB)
	require.NoError(t, err)
	assert.Equal(t, e18(1_000), liq)
}

func TestInsolventVaultRejects(t *testing.T) {
	w := newWorld(t)
	// the target vault only holds 1000 but A's route allows more after
	// an extra LP deposit
	w.a.native.Mint(w.a.lp, e18(2_000))
	require.NoError(t, w.a.nativeVault.Deposit(w.a.lp, netB, e18(2_000)))

	sender := w.a.fundNativeSender(e18(1_500))
	recipient := common.RandEthAddress()

	seq, err := w.a.bridge.Send(sender, nativeRequest(w, recipient, e18(1_500), nil))
	require.NoError(t, err)
	_, err = w.relay.DeliverAll()
	require.NoError(t, err)

	assert.Equal(t, e18(1_500), w.a.native.BalanceOf(sender))
	tr, _, err := w.a.bridge.StateDB().GetOutbound(channelAB, seq)
	require.NoError(t, err)
	assert.Equal(t, OutboundStatusRefunded, tr.Status)
	assert.Equal(t, "target vault insolvent", tr.Detail)
}

func TestExchangeCoversShortfall(t *testing.T) {
	w := newWorld(t)
	w.a.native.Mint(w.a.lp, e18(2_000))
	require.NoError(t, w.a.nativeVault.Deposit(w.a.lp, netB, e18(2_000)))

	// a funded exchange market lets the target vault cover the payout
	ex := exchange.NewSimulatedExchange()
	reserve := common.RandEthAddress()
	w.b.native.Mint(reserve, e18(10_000))
	ex.AddNativeMarket(w.b.nativeAsset, reserve, w.b.native)
	require.NoError(t, w.b.bridge.Registry().SetExchange(w.b.admin, ex))

	sender := w.a.fundNativeSender(e18(1_500))
	recipient := common.RandEthAddress()

	seq, err := w.a.bridge.Send(sender, nativeRequest(w, recipient, e18(1_500), nil))
	require.NoError(t, err)
	_, err = w.relay.DeliverAll()
	require.NoError(t, err)

	assert.Equal(t, e18(1_500), w.b.native.BalanceOf(recipient))
	tr, _, err := w.a.bridge.StateDB().GetOutbound(channelAB, seq)
	require.NoError(t, err)
	assert.Equal(t, OutboundStatusCompleted, tr.Status)
}

func TestMaliciousRecipientRefunds(t *testing.T) {
	w := newWorld(t)
	sender := w.a.fundNativeSender(e18(10))
	recipient := common.RandEthAddress()
	w.b.native.RejectTransfersTo(recipient)

	seq, err := w.a.bridge.Send(sender, nativeRequest(w, recipient, e18(10), nil))
	require.NoError(t, err)
	_, err = w.relay.DeliverAll()
	require.NoError(t, err)

	assert.Equal(t, e18(10), w.a.native.BalanceOf(sender))
	tr, _, err := w.a.bridge.StateDB().GetOutbound(channelAB, seq)
	require.NoError(t, err)
	assert.Equal(t, OutboundStatusRefunded, tr.Status)
	assert.Equal(t, "payout transfer failed", tr.Detail)
}

func TestExactlyOnceSettlement(t *testing.T) {
	w := newWorld(t)
	sender := w.a.fundNativeSender(e18(10))
	recipient := common.RandEthAddress()

	seq, err := w.a.bridge.Send(sender, nativeRequest(w, recipient, e18(10), nil))
	require.NoError(t, err)

	tr, _, err := w.a.bridge.StateDB().GetOutbound(channelAB, seq)
	require.NoError(t, err)
	packet := &agreement.Packet{
		ChannelId:        channelAB,
		Sequence:         seq,
		Data:             mustEncode(t, tr.Intent),
		TimeoutTimestamp: tr.TimeoutTimestamp,
	}

	_, err = w.relay.DeliverAll()
	require.NoError(t, err)

	// a replayed packet must not pay out twice
	_, err = w.b.bridge.OnRecvPacket(w.b.dispatcher, packet)
	assert.ErrorIs(t, err, ErrDuplicatePacket)
	assert.Equal(t, e18(10), w.b.native.BalanceOf(recipient))

	// a replayed acknowledgement must not touch a settled transfer
	err = w.a.bridge.OnAcknowledgementPacket(w.a.dispatcher, packet, agreement.AckFailure("replay"))
	assert.ErrorIs(t, err, ErrAlreadySettled)
	assert.Zero(t, w.a.native.BalanceOf(sender).Sign())

	// same for a late timeout
	err = w.a.bridge.OnTimeoutPacket(w.a.dispatcher, packet)
	assert.ErrorIs(t, err, ErrAlreadySettled)
}

func TestHandlersRequireDispatcher(t *testing.T) {
	w := newWorld(t)
	stranger := common.RandEthAddress()
	packet := &agreement.Packet{ChannelId: channelAB, Sequence: 1}

	_, err := w.b.bridge.OnRecvPacket(stranger, packet)
	assert.ErrorIs(t, err, ErrOnlyTransport)
	assert.ErrorIs(t, w.a.bridge.OnAcknowledgementPacket(stranger, packet, agreement.AckSuccess()), ErrOnlyTransport)
	assert.ErrorIs(t, w.a.bridge.OnTimeoutPacket(stranger, packet), ErrOnlyTransport)
}

func TestMalformedPayloadRejected(t *testing.T) {
	w := newWorld(t)
	packet := &agreement.Packet{
		ChannelId: channelAB,
		Sequence:  7,
		Data:      []byte{0xff, 0x01, 0x02},
	}

	ack, err := w.b.bridge.OnRecvPacket(w.b.dispatcher, packet)
	require.NoError(t, err)
	assert.False(t, ack.Success)
	assert.Equal(t, "malformed payload", ack.Reason)

	has, status, err := w.b.bridge.StateDB().HasInbound(channelAB, 7)
	require.NoError(t, err)
	require.True(t, has)
	assert.Equal(t, InboundStatusRejected, status)
}

// Funds are conserved on both ledgers whether a transfer settles or
// refunds: escrow, payout, and refund only move value between accounts.
func TestConservationAcrossOutcomes(t *testing.T) {
	w := newWorld(t)
	sender := w.a.fundNativeSender(e18(30))
	recipient := common.RandEthAddress()

	totalA := func() *big.Int {
		sum := new(big.Int).Add(w.a.native.BalanceOf(sender), w.a.nativeVault.Holdings())
		return sum.Add(sum, w.a.native.BalanceOf(w.a.lp))
	}
	totalB := func() *big.Int {
		sum := new(big.Int).Add(w.b.native.BalanceOf(recipient), w.b.nativeVault.Holdings())
		return sum.Add(sum, w.b.native.BalanceOf(w.b.lp))
	}
	startA, startB := totalA(), totalB()

	// settled transfer
	_, err := w.a.bridge.Send(sender, nativeRequest(w, recipient, e18(10), nil))
	require.NoError(t, err)
	_, err = w.relay.DeliverAll()
	require.NoError(t, err)
	assert.Equal(t, startA, totalA())
	assert.Equal(t, startB, totalB())

	// refunded transfer
	w.b.prices.SetNativePrice(netB, e18(1000), 18, w.now.Unix())
	_, err = w.a.bridge.Send(sender, nativeRequest(w, recipient, e18(10), e18(10)))
	require.NoError(t, err)
	_, err = w.relay.DeliverAll()
	require.NoError(t, err)
	assert.Equal(t, startA, totalA())
	assert.Equal(t, startB, totalB())
}

func mustEncode(t *testing.T, intent *agreement.BridgeIntent) []byte {
	t.Helper()
	data, err := codec.Encode(intent)
	require.NoError(t, err)
	return data
}
