package bridge

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/portalnet-io/bridge-go/agreement"
)

// OutboundStatus is the explicit state of a transfer this side sent.
// sent -> completed (success ack) | refunded (failure ack or timeout)
type OutboundStatus string

const (
	OutboundStatusSent      OutboundStatus = "sent"
	OutboundStatusCompleted OutboundStatus = "completed"
	OutboundStatusRefunded  OutboundStatus = "refunded"
)

// InboundStatus is the recorded outcome of a packet this side received.
type InboundStatus string

const (
	InboundStatusAccepted InboundStatus = "accepted"
	InboundStatusRejected InboundStatus = "rejected"
)

// OutboundTransfer is one row of the outbound state machine, keyed by
// (channel, sequence).
type OutboundTransfer struct {
	ChannelId        string
	Sequence         uint64
	Intent           *agreement.BridgeIntent
	Commitment       ethcommon.Hash
	TimeoutTimestamp uint64
	Status           OutboundStatus
	Detail           string // ack reason or "timeout" for refunds
}

// InboundTransfer records the settlement outcome of a received packet.
// Payload is kept verbatim so malformed envelopes are still auditable;
// Intent is nil when the payload did not decode.
type InboundTransfer struct {
	ChannelId  string
	Sequence   uint64
	Payload    []byte
	Intent     *agreement.BridgeIntent
	Commitment ethcommon.Hash
	AmountOut  *big.Int // settled output, zero when rejected
	Status     InboundStatus
	Detail     string // rejection reason
}

// SendRequest carries the user-facing parameters of a send call.
type SendRequest struct {
	ChannelId      string
	TransferType   agreement.TransferType
	SourceAsset    agreement.AssetId
	TargetNetwork  agreement.NetworkId
	TargetAsset    agreement.AssetId
	Recipient      ethcommon.Address
	Amount         *big.Int
	MinOut         *big.Int
	TimeoutSeconds uint64
}

// JSONTransfer is the reporter's view of an outbound transfer.
type JSONTransfer struct {
	ChannelId   string `json:"channel_id"`
	Sequence    uint64 `json:"sequence"`
	Type        string `json:"type"`
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	Amount      string `json:"amount"`
	ExpectedOut string `json:"expected_out"`
	MinOut      string `json:"min_out"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	Commitment  string `json:"commitment"`
}

// JSONInbound is the reporter's view of an inbound settlement. Sender
// and recipient are empty when the payload never decoded.
type JSONInbound struct {
	ChannelId  string `json:"channel_id"`
	Sequence   uint64 `json:"sequence"`
	Sender     string `json:"sender,omitempty"`
	Recipient  string `json:"recipient,omitempty"`
	AmountOut  string `json:"amount_out"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
	Commitment string `json:"commitment"`
}

func (tr *InboundTransfer) ToJSON() JSONInbound {
	j := JSONInbound{
		ChannelId:  tr.ChannelId,
		Sequence:   tr.Sequence,
		AmountOut:  tr.AmountOut.String(),
		Status:     string(tr.Status),
		Detail:     tr.Detail,
		Commitment: tr.Commitment.Hex(),
	}
	if tr.Intent != nil {
		j.Sender = tr.Intent.Sender.Hex()
		j.Recipient = tr.Intent.Recipient.Hex()
	}
	return j
}

func (tr *OutboundTransfer) ToJSON() JSONTransfer {
	return JSONTransfer{
		ChannelId:   tr.ChannelId,
		Sequence:    tr.Sequence,
		Type:        tr.Intent.TransferType.String(),
		Sender:      tr.Intent.Sender.Hex(),
		Recipient:   tr.Intent.Recipient.Hex(),
		Amount:      tr.Intent.Amount.String(),
		ExpectedOut: tr.Intent.ExpectedOut.String(),
		MinOut:      tr.Intent.MinOut.String(),
		Status:      string(tr.Status),
		Detail:      tr.Detail,
		Commitment:  tr.Commitment.Hex(),
	}
}
