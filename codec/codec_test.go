package codec

import (
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portalnet-io/bridge-go/agreement"
	"github.com/portalnet-io/bridge-go/common"
)

func randIntent(t agreement.TransferType) *agreement.BridgeIntent {
	bi := &agreement.BridgeIntent{
		TransferType:  t,
		SourceNetwork: agreement.NetworkId(common.RandBigInt(2).Uint64()),
		TargetNetwork: agreement.NetworkId(common.RandBigInt(2).Uint64()),
		Sender:        common.RandEthAddress(),
		Recipient:     common.RandEthAddress(),
		Amount:        common.RandBigInt(32),
		ExpectedOut:   common.RandBigInt(32),
		MinOut:        common.RandBigInt(32),
	}
	switch t {
	case agreement.NativeToToken:
		bi.TargetToken = common.RandEthAddress()
	case agreement.TokenToNative:
		bi.SourceToken = common.RandEthAddress()
	case agreement.TokenToToken:
		bi.SourceToken = common.RandEthAddress()
		bi.TargetToken = common.RandEthAddress()
	}
	return bi
}

func TestRoundTripAllTransferTypes(t *testing.T) {
	types := []agreement.TransferType{
		agreement.NativeToNative,
		agreement.NativeToToken,
		agreement.TokenToNative,
		agreement.TokenToToken,
	}

	for _, tt := range types {
		t.Run(tt.String(), func(t *testing.T) {
			for i := 0; i < 16; i++ {
				bi := randIntent(tt)
				data, err := Encode(bi)
				require.NoError(t, err)

				got, err := Decode(data)
				require.NoError(t, err)
				assert.Equal(t, bi, got)
			}
		})
	}
}

func TestEnvelopeLayout(t *testing.T) {
	bi := randIntent(agreement.TokenToToken)
	data, err := Encode(bi)
	require.NoError(t, err)

	// tag + 2 networks + 2 addresses + 3 amount words + 2 token addresses
	assert.Len(t, data, 1+8+8+20+20+3*32+2*20)
	assert.Equal(t, byte(agreement.TokenToToken), data[0])

	// amounts are right-aligned 32-byte big-endian words
	small := randIntent(agreement.NativeToNative)
	small.Amount = big.NewInt(1)
	data, err = Encode(small)
	require.NoError(t, err)
	amountWord := data[1+8+8+20+20 : 1+8+8+20+20+32]
	assert.Equal(t, byte(1), amountWord[31])
	assert.Equal(t, make([]byte, 31), amountWord[:31])
}

func TestDecodeUnknownTag(t *testing.T) {
	bi := randIntent(agreement.NativeToNative)
	data, err := Encode(bi)
	require.NoError(t, err)

	for _, tag := range []byte{0, 5, 0xff} {
		bad := append([]byte{tag}, data[1:]...)
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrUnknownTransferType)
	}
}

func TestDecodeLengthMismatch(t *testing.T) {
	bi := randIntent(agreement.NativeToToken)
	data, err := Encode(bi)
	require.NoError(t, err)

	_, err = Decode(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrPayloadLength)

	_, err = Decode(append(data, 0))
	assert.ErrorIs(t, err, ErrPayloadLength)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrPayloadLength)
}

func TestEncodeBadAmounts(t *testing.T) {
	bi := randIntent(agreement.NativeToNative)
	bi.Amount = nil
	_, err := Encode(bi)
	assert.ErrorIs(t, err, ErrNilAmount)

	bi = randIntent(agreement.NativeToNative)
	bi.ExpectedOut = new(big.Int).Lsh(big.NewInt(1), 256)
	_, err = Encode(bi)
	assert.ErrorIs(t, err, ErrAmountOverflow)
}

func TestAckRoundTrip(t *testing.T) {
	for _, ack := range []agreement.Acknowledgement{
		agreement.AckSuccess(),
		agreement.AckFailure("slippage out of bounds"),
		agreement.AckFailure(""),
	} {
		got, err := DecodeAck(EncodeAck(ack))
		require.NoError(t, err)
		assert.Equal(t, ack, got)
	}

	_, err := DecodeAck([]byte{1})
	assert.ErrorIs(t, err, ErrAckLength)
	_, err = DecodeAck([]byte{2, 0, 0})
	assert.ErrorIs(t, err, ErrAckResult)
	_, err = DecodeAck([]byte{1, 0, 5, 'x'})
	assert.ErrorIs(t, err, ErrAckLength)
}

func TestPacketCommitment(t *testing.T) {
	p := &agreement.Packet{
		ChannelId:        "channel-0",
		Sequence:         7,
		Data:             common.RandBytes(64),
		TimeoutTimestamp: 12345,
	}

	c1 := PacketCommitment(p)
	assert.NotEqual(t, ethcommon.Hash{}, c1)
	assert.Equal(t, c1, PacketCommitment(p))

	q := *p
	q.Sequence = 8
	assert.NotEqual(t, c1, PacketCommitment(&q))
}
