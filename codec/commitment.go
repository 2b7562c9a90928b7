package codec

import (
	"encoding/binary"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"github.com/portalnet-io/bridge-go/agreement"
)

// PacketCommitment hashes the identifying fields of a packet. The bridge
// stores it with each transfer record so an auditor can match database
// rows against relayer logs without trusting either side's payload copy.
func PacketCommitment(p *agreement.Packet) ethcommon.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(p.ChannelId))

	var word [8]byte
	binary.BigEndian.PutUint64(word[:], p.Sequence)
	h.Write(word[:])
	binary.BigEndian.PutUint64(word[:], p.TimeoutTimestamp)
	h.Write(word[:])

	h.Write(p.Data)

	return ethcommon.BytesToHash(h.Sum(nil))
}
