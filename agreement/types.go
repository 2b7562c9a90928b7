// Global agreement on types shared by the bridge packages.

package agreement

import (
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// NetworkId identifies one of the two ledgers a bridge leg connects.
type NetworkId uint64

// AssetKind tags the variant held in an AssetId.
type AssetKind uint8

const (
	AssetNative AssetKind = iota + 1 // the chain's native coin
	AssetToken                       // a fungible token contract
)

// AssetId is a tagged union over {Native(network), Token(network, address)}.
// It is comparable and used as a map key on both sides of a bridge leg.
type AssetId struct {
	Kind    AssetKind
	Network NetworkId
	Token   ethcommon.Address // zero unless Kind == AssetToken
}

func NativeAsset(network NetworkId) AssetId {
	return AssetId{Kind: AssetNative, Network: network}
}

func TokenAsset(network NetworkId, token ethcommon.Address) AssetId {
	return AssetId{Kind: AssetToken, Network: network, Token: token}
}

func (a AssetId) IsNative() bool {
	return a.Kind == AssetNative
}

func (a AssetId) String() string {
	if a.Kind == AssetToken {
		return fmt.Sprintf("token(%d:%s)", a.Network, a.Token.Hex())
	}
	return fmt.Sprintf("native(%d)", a.Network)
}

// TransferType selects the payload schema of a bridge packet.
// The set is closed; the numeric value is the wire tag.
type TransferType uint8

const (
	NativeToNative TransferType = iota + 1
	NativeToToken
	TokenToNative
	TokenToToken
)

func (t TransferType) Valid() bool {
	return t >= NativeToNative && t <= TokenToToken
}

func (t TransferType) String() string {
	switch t {
	case NativeToNative:
		return "native2native"
	case NativeToToken:
		return "native2token"
	case TokenToNative:
		return "token2native"
	case TokenToToken:
		return "token2token"
	default:
		return fmt.Sprintf("transfertype(%d)", uint8(t))
	}
}

// BridgeIntent is the full content of one bridge transfer. It is created
// on the sending side, serialized into a packet, and decoded unchanged on
// the receiving side. It is never mutated after creation.
type BridgeIntent struct {
	TransferType  TransferType
	SourceNetwork NetworkId
	TargetNetwork NetworkId
	SourceToken   ethcommon.Address // zero for native source
	TargetToken   ethcommon.Address // zero for native target
	Sender        ethcommon.Address
	Recipient     ethcommon.Address
	Amount        *big.Int // amount escrowed on the source side
	ExpectedOut   *big.Int // quote computed by the sender's oracle
	MinOut        *big.Int // user slippage floor, MinOut <= ExpectedOut
}

// SourceAsset reconstructs the asset escrowed on the sending chain.
func (bi *BridgeIntent) SourceAsset() AssetId {
	if bi.TransferType == NativeToNative || bi.TransferType == NativeToToken {
		return NativeAsset(bi.SourceNetwork)
	}
	return TokenAsset(bi.SourceNetwork, bi.SourceToken)
}

// TargetAsset reconstructs the asset paid out on the receiving chain.
func (bi *BridgeIntent) TargetAsset() AssetId {
	if bi.TransferType == NativeToNative || bi.TransferType == TokenToNative {
		return NativeAsset(bi.TargetNetwork)
	}
	return TokenAsset(bi.TargetNetwork, bi.TargetToken)
}

func (bi *BridgeIntent) String() string {
	return fmt.Sprintf("%+v", *bi)
}

// Packet is the transport-level envelope. Data is opaque to the transport;
// its schema is determined solely by the leading transfer type tag.
type Packet struct {
	ChannelId        string
	Sequence         uint64
	Data             []byte
	TimeoutTimestamp uint64 // unix nanoseconds, transport convention
}

func (p *Packet) String() string {
	return fmt.Sprintf("channel=%s seq=%d timeout=%d len=%d",
		p.ChannelId, p.Sequence, p.TimeoutTimestamp, len(p.Data))
}

// Acknowledgement is the transport-delivered outcome of one packet.
// A failed settlement is a business outcome, not a transport fault, so it
// travels back as Success == false rather than as an error.
type Acknowledgement struct {
	Success bool
	Reason  string
}

func AckSuccess() Acknowledgement {
	return Acknowledgement{Success: true}
}

func AckFailure(reason string) Acknowledgement {
	return Acknowledgement{Success: false, Reason: reason}
}
