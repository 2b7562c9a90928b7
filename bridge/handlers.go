package bridge

import (
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/portalnet-io/bridge-go/agreement"
	"github.com/portalnet-io/bridge-go/codec"
	"github.com/portalnet-io/bridge-go/rate"
	"github.com/portalnet-io/bridge-go/vault"
)

// Rejection reasons carried in failure acknowledgements. The sender logs
// them verbatim, so they are stable strings rather than error values.
const (
	reasonMalformed      = "malformed payload"
	reasonWrongNetwork   = "packet not destined for this network"
	reasonUnknownChannel = "channel not registered on receiver"
	reasonInvalidPrice   = "invalid price"
	reasonSlippageFloor  = "calculated output below slippage floor"
	reasonSlippageCeil   = "calculated output above platform ceiling"
	reasonNoVault        = "no vault for target asset"
	reasonInsolvent      = "target vault insolvent"
	reasonPayoutFailed   = "payout transfer failed"

	detailTimeout = "timeout"
)

func (b *Bridge) requireDispatcher(caller ethcommon.Address) error {
	if caller != b.registry.Dispatcher() {
		return ErrOnlyTransport
	}
	return nil
}

// OnRecvPacket settles an inbound transfer. Economic failures become
// failure acknowledgements, never errors: the packet was honestly
// delivered and the negative outcome must travel back to the sender.
func (b *Bridge) OnRecvPacket(caller ethcommon.Address, packet *agreement.Packet) (agreement.Acknowledgement, error) {
	if err := b.requireDispatcher(caller); err != nil {
		return agreement.Acknowledgement{}, err
	}

	seen, _, err := b.statedb.HasInbound(packet.ChannelId, packet.Sequence)
	if err != nil {
		return agreement.Acknowledgement{}, err
	}
	if seen {
		return agreement.Acknowledgement{}, ErrDuplicatePacket
	}

	intent, err := codec.Decode(packet.Data)
	if err != nil {
		return b.rejectInbound(packet, nil, reasonMalformed)
	}

	if intent.TargetNetwork != b.cfg.LocalNetwork {
		return b.rejectInbound(packet, intent, reasonWrongNetwork)
	}
	remote, ok := b.registry.ChannelNetwork(packet.ChannelId)
	if !ok || remote != intent.SourceNetwork {
		return b.rejectInbound(packet, intent, reasonUnknownChannel)
	}

	// recompute the output with this side's own oracle
	calculatedOut, err := b.registry.Calculator().AmountOut(intent.SourceAsset(), intent.TargetAsset(), intent.Amount)
	if err != nil {
		return b.rejectInbound(packet, intent, reasonInvalidPrice)
	}

	switch err := rate.CheckWindow(calculatedOut, intent.MinOut, intent.ExpectedOut, b.cfg.PlatformSlippageBps); err {
	case nil:
	case rate.ErrBelowMinOut:
		return b.rejectInbound(packet, intent, reasonSlippageFloor)
	default:
		return b.rejectInbound(packet, intent, reasonSlippageCeil)
	}

	targetVault, ok := b.registry.VaultFor(intent.TargetAsset())
	if !ok {
		return b.rejectInbound(packet, intent, reasonNoVault)
	}

	if err := b.ensureSolvency(targetVault, intent, calculatedOut); err != nil {
		return b.rejectInbound(packet, intent, reasonInsolvent)
	}

	// a failing recipient-side transfer is caught and reported as a
	// rejection so the acknowledgement stays honest
	if err := targetVault.TransferOut(b.cfg.BridgeAddress, intent.Recipient, calculatedOut); err != nil {
		return b.rejectInbound(packet, intent, reasonPayoutFailed)
	}

	if err := targetVault.CreditLiquidity(b.cfg.BridgeAddress, intent.SourceNetwork, calculatedOut); err != nil {
		return agreement.Acknowledgement{}, err
	}

	record := &InboundTransfer{
		ChannelId:  packet.ChannelId,
		Sequence:   packet.Sequence,
		Payload:    packet.Data,
		Intent:     intent,
		Commitment: codec.PacketCommitment(packet),
		AmountOut:  calculatedOut,
		Status:     InboundStatusAccepted,
	}
	if err := b.statedb.InsertInbound(record); err != nil {
		return agreement.Acknowledgement{}, err
	}

	logger.WithFields(logger.Fields{
		"channel":   packet.ChannelId,
		"seq":       packet.Sequence,
		"recipient": intent.Recipient.Hex(),
		"amountOut": calculatedOut.String(),
	}).Info("bridge transfer settled")

	return agreement.AckSuccess(), nil
}

// ensureSolvency tops the vault up through the registered exchange when
// holdings fall short of the payout.
func (b *Bridge) ensureSolvency(v *vault.Vault, intent *agreement.BridgeIntent, payout *big.Int) error {
	holdings := v.Holdings()
	if holdings.Cmp(payout) >= 0 {
		return nil
	}

	ex := b.registry.Exchange()
	if ex == nil {
		return fmt.Errorf("vault short by %s", new(big.Int).Sub(payout, holdings))
	}

	shortfall := new(big.Int).Sub(payout, holdings)
	if _, err := ex.Swap(intent.TargetAsset(), shortfall, v.Address()); err != nil {
		return err
	}
	if v.Holdings().Cmp(payout) < 0 {
		return fmt.Errorf("vault still short after swap")
	}

	logger.WithFields(logger.Fields{
		"asset":     intent.TargetAsset().String(),
		"shortfall": shortfall.String(),
	}).Warn("vault topped up through exchange")

	return nil
}

func (b *Bridge) rejectInbound(packet *agreement.Packet, intent *agreement.BridgeIntent, reason string) (agreement.Acknowledgement, error) {
	record := &InboundTransfer{
		ChannelId:  packet.ChannelId,
		Sequence:   packet.Sequence,
		Payload:    packet.Data,
		Intent:     intent,
		Commitment: codec.PacketCommitment(packet),
		AmountOut:  new(big.Int),
		Status:     InboundStatusRejected,
		Detail:     reason,
	}
	if err := b.statedb.InsertInbound(record); err != nil {
		return agreement.Acknowledgement{}, err
	}

	logger.WithFields(logger.Fields{
		"channel": packet.ChannelId,
		"seq":     packet.Sequence,
		"reason":  reason,
	}).Info("bridge transfer rejected")

	return agreement.AckFailure(reason), nil
}

// OnAcknowledgementPacket finalizes or refunds a sent transfer. The
// transport invokes it exactly once per packet; a transfer already in a
// terminal state fails with ErrAlreadySettled.
func (b *Bridge) OnAcknowledgementPacket(caller ethcommon.Address, packet *agreement.Packet, ack agreement.Acknowledgement) error {
	if err := b.requireDispatcher(caller); err != nil {
		return err
	}

	if ack.Success {
		if err := b.statedb.SettleOutbound(packet.ChannelId, packet.Sequence, OutboundStatusCompleted, ""); err != nil {
			return err
		}
		logger.WithFields(logger.Fields{
			"channel": packet.ChannelId,
			"seq":     packet.Sequence,
		}).Info("bridge transfer completed")
		return nil
	}

	return b.refund(packet, ack.Reason)
}

// OnTimeoutPacket refunds a transfer whose packet was never acknowledged.
// Economically identical to a failure acknowledgement: escrowed funds
// must never stay locked without a refund path.
func (b *Bridge) OnTimeoutPacket(caller ethcommon.Address, packet *agreement.Packet) error {
	if err := b.requireDispatcher(caller); err != nil {
		return err
	}
	return b.refund(packet, detailTimeout)
}

// refund reverses a send: escrow back to the original sender, route
// liquidity restored. The intent is reconstructed from the original
// packet data the transport hands back.
func (b *Bridge) refund(packet *agreement.Packet, detail string) error {
	ok, status, err := b.statedb.HasOutbound(packet.ChannelId, packet.Sequence)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownTransfer
	}
	if status != OutboundStatusSent {
		return ErrAlreadySettled
	}

	intent, err := codec.Decode(packet.Data)
	if err != nil {
		return err
	}

	srcVault, ok := b.registry.VaultFor(intent.SourceAsset())
	if !ok {
		return ErrVaultNotRegistered
	}

	if err := srcVault.TransferOut(b.cfg.BridgeAddress, intent.Sender, intent.Amount); err != nil {
		return fmt.Errorf("refund transfer failed: %w", err)
	}
	if err := srcVault.CreditLiquidity(b.cfg.BridgeAddress, intent.TargetNetwork, intent.Amount); err != nil {
		return err
	}

	if err := b.statedb.SettleOutbound(packet.ChannelId, packet.Sequence, OutboundStatusRefunded, detail); err != nil {
		return err
	}

	logger.WithFields(logger.Fields{
		"channel": packet.ChannelId,
		"seq":     packet.Sequence,
		"sender":  intent.Sender.Hex(),
		"amount":  intent.Amount.String(),
		"detail":  detail,
	}).Info("bridge transfer refunded")

	return nil
}
