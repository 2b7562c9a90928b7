// Package codec serializes bridge payloads into the opaque byte envelopes
// carried by the packet transport. The layout is the one
// compatibility-bearing format of the protocol and must not change:
//
//	tag(1) | sourceNetwork(8 BE) | targetNetwork(8 BE) |
//	sender(20) | recipient(20) |
//	amountIn(32 BE) | expectedOut(32 BE) | minOut(32 BE) |
//	per-type token address suffix (see below)
//
// Suffixes: NATIVE_TO_TOKEN appends targetToken(20); TOKEN_TO_NATIVE
// appends sourceToken(20); TOKEN_TO_TOKEN appends sourceToken(20) then
// targetToken(20); NATIVE_TO_NATIVE has no suffix. Amount words are
// unsigned 256-bit big-endian.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/portalnet-io/bridge-go/agreement"
)

var (
	ErrUnknownTransferType = errors.New("unknown transfer type tag")
	ErrPayloadLength       = errors.New("payload length does not match transfer type schema")
	ErrAmountOverflow      = errors.New("amount does not fit in 256 bits")
	ErrNilAmount           = errors.New("intent amount field is nil or negative")
)

const (
	headLen    = 1 + 8 + 8 + 20 + 20 + 32 + 32 + 32
	addressLen = 20
	wordLen    = 32
)

// payloadLen returns the exact envelope size for a transfer type.
func payloadLen(t agreement.TransferType) (int, error) {
	switch t {
	case agreement.NativeToNative:
		return headLen, nil
	case agreement.NativeToToken, agreement.TokenToNative:
		return headLen + addressLen, nil
	case agreement.TokenToToken:
		return headLen + 2*addressLen, nil
	default:
		return 0, ErrUnknownTransferType
	}
}

// Encode serializes an intent into its wire envelope.
func Encode(bi *agreement.BridgeIntent) ([]byte, error) {
	size, err := payloadLen(bi.TransferType)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, size)
	buf = append(buf, byte(bi.TransferType))
	buf = binary.BigEndian.AppendUint64(buf, uint64(bi.SourceNetwork))
	buf = binary.BigEndian.AppendUint64(buf, uint64(bi.TargetNetwork))
	buf = append(buf, bi.Sender.Bytes()...)
	buf = append(buf, bi.Recipient.Bytes()...)

	for _, amount := range []*big.Int{bi.Amount, bi.ExpectedOut, bi.MinOut} {
		word, err := amountWord(amount)
		if err != nil {
			return nil, err
		}
		buf = append(buf, word[:]...)
	}

	switch bi.TransferType {
	case agreement.NativeToToken:
		buf = append(buf, bi.TargetToken.Bytes()...)
	case agreement.TokenToNative:
		buf = append(buf, bi.SourceToken.Bytes()...)
	case agreement.TokenToToken:
		buf = append(buf, bi.SourceToken.Bytes()...)
		buf = append(buf, bi.TargetToken.Bytes()...)
	}

	return buf, nil
}

// Decode parses a wire envelope back into an intent. An unrecognized tag
// fails before any payload interpretation; a length mismatch fails before
// any field is read.
func Decode(data []byte) (*agreement.BridgeIntent, error) {
	if len(data) == 0 {
		return nil, ErrPayloadLength
	}

	t := agreement.TransferType(data[0])
	size, err := payloadLen(t)
	if err != nil {
		return nil, fmt.Errorf("%w: tag=%d", ErrUnknownTransferType, data[0])
	}
	if len(data) != size {
		return nil, fmt.Errorf("%w: type=%s want=%d got=%d", ErrPayloadLength, t, size, len(data))
	}

	bi := &agreement.BridgeIntent{TransferType: t}
	off := 1
	bi.SourceNetwork = agreement.NetworkId(binary.BigEndian.Uint64(data[off : off+8]))
	off += 8
	bi.TargetNetwork = agreement.NetworkId(binary.BigEndian.Uint64(data[off : off+8]))
	off += 8
	bi.Sender = ethcommon.BytesToAddress(data[off : off+addressLen])
	off += addressLen
	bi.Recipient = ethcommon.BytesToAddress(data[off : off+addressLen])
	off += addressLen

	bi.Amount = wordAmount(data[off : off+wordLen])
	off += wordLen
	bi.ExpectedOut = wordAmount(data[off : off+wordLen])
	off += wordLen
	bi.MinOut = wordAmount(data[off : off+wordLen])
	off += wordLen

	switch t {
	case agreement.NativeToToken:
		bi.TargetToken = ethcommon.BytesToAddress(data[off : off+addressLen])
	case agreement.TokenToNative:
		bi.SourceToken = ethcommon.BytesToAddress(data[off : off+addressLen])
	case agreement.TokenToToken:
		bi.SourceToken = ethcommon.BytesToAddress(data[off : off+addressLen])
		bi.TargetToken = ethcommon.BytesToAddress(data[off+addressLen : off+2*addressLen])
	}

	return bi, nil
}

// amountWord renders a non-negative big int as a 32-byte big-endian word.
func amountWord(amount *big.Int) ([32]byte, error) {
	if amount == nil || amount.Sign() < 0 {
		return [32]byte{}, ErrNilAmount
	}
	word, overflow := uint256.FromBig(amount)
	if overflow {
		return [32]byte{}, ErrAmountOverflow
	}
	return word.Bytes32(), nil
}

func wordAmount(b []byte) *big.Int {
	return new(uint256.Int).SetBytes(b).ToBig()
}
