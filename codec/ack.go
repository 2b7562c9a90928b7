package codec

import (
	"encoding/binary"
	"errors"

	"github.com/portalnet-io/bridge-go/agreement"
)

// Acknowledgement wire layout: result(1: 1 success / 0 failure) |
// reasonLen(2 BE) | reason(reasonLen). The original packet data is not
// echoed here; the transport hands the sender's callback the original
// packet alongside the ack, which is what the refund path decodes.

var (
	ErrAckLength = errors.New("acknowledgement payload length invalid")
	ErrAckResult = errors.New("acknowledgement result byte invalid")
)

const maxAckReasonLen = 1024

func EncodeAck(ack agreement.Acknowledgement) []byte {
	reason := []byte(ack.Reason)
	if len(reason) > maxAckReasonLen {
		reason = reason[:maxAckReasonLen]
	}

	buf := make([]byte, 0, 3+len(reason))
	if ack.Success {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(reason)))
	return append(buf, reason...)
}

func DecodeAck(data []byte) (agreement.Acknowledgement, error) {
	if len(data) < 3 {
		return agreement.Acknowledgement{}, ErrAckLength
	}
	if data[0] > 1 {
		return agreement.Acknowledgement{}, ErrAckResult
	}

	reasonLen := int(binary.BigEndian.Uint16(data[1:3]))
	if len(data) != 3+reasonLen {
		return agreement.Acknowledgement{}, ErrAckLength
	}

	return agreement.Acknowledgement{
		Success: data[0] == 1,
		Reason:  string(data[3:]),
	}, nil
}
