// Package bridge implements the settlement core: the send path that
// escrows funds and emits a packet, and the three transport callbacks
// that settle, refund, or reject a transfer. State per transfer is kept
// explicitly in the statedb, keyed by (channel, sequence); funds never
// move on the remote side except through a received packet.
package bridge

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/portalnet-io/bridge-go/agreement"
	"github.com/portalnet-io/bridge-go/codec"
	"github.com/portalnet-io/bridge-go/vault"
)

type Bridge struct {
	cfg       *Config
	registry  *Registry
	statedb   *StateDB
	transport agreement.PacketSender

	// guards the escrow+send sequence against reentrant asset callbacks
	guardMu sync.Mutex
	entered bool
}

func New(cfg *Config, registry *Registry, statedb *StateDB, transport agreement.PacketSender) *Bridge {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Bridge{
		cfg:       cfg,
		registry:  registry,
		statedb:   statedb,
		transport: transport,
	}
}

// SetTransport installs the packet sender after construction. The
// transport endpoint needs the handler to exist first, so wiring a
// bridge to its endpoint is a two-step affair.
func (b *Bridge) SetTransport(t agreement.PacketSender) { b.transport = t }

func (b *Bridge) Registry() *Registry { return b.registry }

func (b *Bridge) StateDB() *StateDB { return b.statedb }

func (b *Bridge) Address() ethcommon.Address { return b.cfg.BridgeAddress }

func (b *Bridge) enter() error {
	b.guardMu.Lock()
	defer b.guardMu.Unlock()
	if b.entered {
		return ErrReentrantCall
	}
	b.entered = true
	return nil
}

func (b *Bridge) leave() {
	b.guardMu.Lock()
	defer b.guardMu.Unlock()
	b.entered = false
}

// Send escrows amount into the source vault, quotes the expected output,
// and hands the encoded intent to the transport. It returns the sequence
// number assigned to the packet.
func (b *Bridge) Send(caller ethcommon.Address, req *SendRequest) (uint64, error) {
	if err := b.enter(); err != nil {
		return 0, err
	}
	defer b.leave()

	if req.Recipient == (ethcommon.Address{}) {
		return 0, ErrZeroRecipient
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return 0, ErrZeroAmount
	}
	if err := b.checkRoute(req); err != nil {
		return 0, err
	}

	srcVault, ok := b.registry.VaultFor(req.SourceAsset)
	if !ok {
		return 0, ErrVaultNotRegistered
	}

	if err := b.checkFunds(caller, req); err != nil {
		return 0, err
	}

	expectedOut, err := b.registry.Calculator().AmountOut(req.SourceAsset, req.TargetAsset, req.Amount)
	if err != nil {
		return 0, err
	}
	minOut := req.MinOut
	if minOut == nil {
		minOut = new(big.Int)
	}
	if minOut.Cmp(expectedOut) > 0 {
		return 0, ErrMinOutAboveExpected
	}

	intent := &agreement.BridgeIntent{
		TransferType:  req.TransferType,
		SourceNetwork: b.cfg.LocalNetwork,
		TargetNetwork: req.TargetNetwork,
		SourceToken:   req.SourceAsset.Token,
		TargetToken:   req.TargetAsset.Token,
		Sender:        caller,
		Recipient:     req.Recipient,
		Amount:        new(big.Int).Set(req.Amount),
		ExpectedOut:   expectedOut,
		MinOut:        minOut,
	}
	payload, err := codec.Encode(intent)
	if err != nil {
		return 0, err
	}

	// optimistic route-liquidity decrement; restored on refund
	if err := srcVault.DebitLiquidity(b.cfg.BridgeAddress, req.TargetNetwork, req.Amount); err != nil {
		return 0, err
	}

	if err := b.escrow(caller, req, srcVault); err != nil {
		_ = srcVault.CreditLiquidity(b.cfg.BridgeAddress, req.TargetNetwork, req.Amount)
		return 0, err
	}

	timeout := uint64(b.cfg.Now().Add(time.Duration(req.TimeoutSeconds) * time.Second).UnixNano())
	sequence, err := b.transport.SendPacket(req.ChannelId, payload, timeout)
	if err != nil {
		// undo the escrow; the packet never left
		_ = srcVault.TransferOut(b.cfg.BridgeAddress, caller, req.Amount)
		_ = srcVault.CreditLiquidity(b.cfg.BridgeAddress, req.TargetNetwork, req.Amount)
		return 0, fmt.Errorf("transport send failed: %w", err)
	}

	record := &OutboundTransfer{
		ChannelId: req.ChannelId,
		Sequence:  sequence,
		Intent:    intent,
		Commitment: codec.PacketCommitment(&agreement.Packet{
			ChannelId:        req.ChannelId,
			Sequence:         sequence,
			Data:             payload,
			TimeoutTimestamp: timeout,
		}),
		TimeoutTimestamp: timeout,
		Status:           OutboundStatusSent,
	}
	if err := b.statedb.InsertOutbound(record); err != nil {
		return 0, err
	}

	logger.WithFields(logger.Fields{
		"channel": req.ChannelId,
		"seq":     sequence,
		"type":    req.TransferType.String(),
		"amount":  req.Amount.String(),
	}).Info("bridge transfer sent")

	return sequence, nil
}

func (b *Bridge) checkRoute(req *SendRequest) error {
	if !req.TransferType.Valid() {
		return codec.ErrUnknownTransferType
	}
	if typeOf(req.SourceAsset, req.TargetAsset) != req.TransferType {
		return ErrTransferTypeMismatch
	}

	remote, ok := b.registry.ChannelNetwork(req.ChannelId)
	if !ok {
		return ErrUnsupportedChannel
	}
	if remote != req.TargetNetwork {
		return ErrChannelNetworkMismatch
	}

	if !b.registry.IsSupported(req.SourceAsset) || !b.registry.IsSupported(req.TargetAsset) {
		return ErrUnsupportedAsset
	}
	return nil
}

// checkFunds verifies balance (and allowance for tokens) before any state
// changes, so precondition failures leave no partial effects.
func (b *Bridge) checkFunds(sender ethcommon.Address, req *SendRequest) error {
	if req.SourceAsset.IsNative() {
		binding := b.registry.NativeBinding()
		if binding == nil {
			return ErrBindingNotRegistered
		}
		if binding.BalanceOf(sender).Cmp(req.Amount) < 0 {
			return ErrInsufficientBalance
		}
		return nil
	}

	binding, ok := b.registry.TokenFor(req.SourceAsset)
	if !ok {
		return ErrBindingNotRegistered
	}
	if binding.Allowance(sender, b.cfg.BridgeAddress).Cmp(req.Amount) < 0 {
		return ErrInsufficientAllowance
	}
	if binding.BalanceOf(sender).Cmp(req.Amount) < 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// escrow moves amount from the sender into the source vault's account.
func (b *Bridge) escrow(sender ethcommon.Address, req *SendRequest, srcVault *vault.Vault) error {
	if req.SourceAsset.IsNative() {
		binding := b.registry.NativeBinding()
		if err := binding.Transfer(sender, srcVault.Address(), req.Amount); err != nil {
			return fmt.Errorf("%w: %v", vault.ErrFailedTransfer, err)
		}
		return nil
	}

	binding, _ := b.registry.TokenFor(req.SourceAsset)
	if err := binding.TransferFrom(b.cfg.BridgeAddress, sender, srcVault.Address(), req.Amount); err != nil {
		return fmt.Errorf("%w: %v", vault.ErrFailedTransfer, err)
	}
	return nil
}

// typeOf derives the transfer type implied by an asset pair.
func typeOf(source, target agreement.AssetId) agreement.TransferType {
	switch {
	case source.IsNative() && target.IsNative():
		return agreement.NativeToNative
	case source.IsNative():
		return agreement.NativeToToken
	case target.IsNative():
		return agreement.TokenToNative
	default:
		return agreement.TokenToToken
	}
}
