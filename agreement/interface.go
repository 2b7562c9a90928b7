package agreement

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// PacketSender is the single outbound primitive the bridge calls on the
// transport. The transport assigns the per-channel sequence number and
// guarantees ordered, exactly-once-per-sequence delivery with timeout.
type PacketSender interface {
	SendPacket(channelId string, data []byte, timeoutTimestamp uint64) (uint64, error)
}

// PacketHandler is implemented by the bridge core. The transport dispatcher
// is the only caller; each entry point is a single atomic state transition.
type PacketHandler interface {
	// OnRecvPacket settles an inbound transfer and returns the
	// acknowledgement to relay back. It never returns a transport error
	// for a business rejection.
	OnRecvPacket(caller ethcommon.Address, packet *Packet) (Acknowledgement, error)

	// OnAcknowledgementPacket is invoked exactly once per sent packet.
	OnAcknowledgementPacket(caller ethcommon.Address, packet *Packet, ack Acknowledgement) error

	// OnTimeoutPacket is invoked when no acknowledgement arrived before
	// the packet's timeout. It must refund like a failure ack.
	OnTimeoutPacket(caller ethcommon.Address, packet *Packet) error
}

// PricedAt carries one price observation from a feed. Price is in the
// feed's own decimals; the adapter normalizes it to 1e18 fixed point.
type PricedAt struct {
	Price     *big.Int
	Decimals  uint8
	Timestamp int64 // unix seconds of the observation
}

// PriceSource is the read-only oracle boundary. Both lookups fail with a
// not-found error when the identifier has no configured feed.
type PriceSource interface {
	GetNativePrice(network NetworkId) (PricedAt, error)
	GetTokenPrice(token ethcommon.Address) (PricedAt, error)
}

// Exchange is the black-box swap primitive used as a payout-liquidity
// fallback on the receiving side.
type Exchange interface {
	Swap(asset AssetId, amount *big.Int, recipient ethcommon.Address) (*big.Int, error)
}

// TokenBinding is the hook surface the bridge needs from a fungible token.
// Transfer/TransferFrom return an error instead of reverting so the caller
// can convert a misbehaving token into a rejection.
type TokenBinding interface {
	BalanceOf(owner ethcommon.Address) *big.Int
	Allowance(owner, spender ethcommon.Address) *big.Int
	Transfer(from, to ethcommon.Address, amount *big.Int) error
	TransferFrom(spender, from, to ethcommon.Address, amount *big.Int) error
}

// NativeBinding is the hook surface for the chain's native coin ledger.
type NativeBinding interface {
	BalanceOf(owner ethcommon.Address) *big.Int
	Transfer(from, to ethcommon.Address, amount *big.Int) error
}
