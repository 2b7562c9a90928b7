// Package transport provides an in-process packet relay connecting two
// bridge handlers over named channels. It models an asynchronous
// transport: packets queue in flight until delivered, acknowledgements
// travel back over the same wire encoding, and undelivered packets can
// expire and trigger timeout callbacks on the origin.
package transport

import (
	"errors"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/portalnet-io/bridge-go/agreement"
	"github.com/portalnet-io/bridge-go/codec"
)

var (
	ErrChannelExists   = errors.New("channel already linked")
	ErrUnknownChannel  = errors.New("channel not linked")
	ErrWrongChannel    = errors.New("endpoint does not serve this channel")
	ErrNothingInFlight = errors.New("no packet in flight")
)

// Clock supplies the relay's notion of time. Tests inject a fixed or
// stepped clock to exercise timeouts deterministically.
type Clock func() time.Time

type Relay struct {
	mu       sync.Mutex
	now      Clock
	channels map[string]*channel

	// delivered but unacknowledged packets never exist here: delivery
	// and acknowledgement happen in one synchronous step, so the only
	// queues are inflight (deliverable) and lost (expirable only).
	inflight []*inflightPacket
	lost     []*inflightPacket
}

type channel struct {
	id          string
	left, right *Endpoint
}

type inflightPacket struct {
	packet *agreement.Packet
	origin *Endpoint
}

func NewRelay(now Clock) *Relay {
	if now == nil {
		now = time.Now
	}
	return &Relay{
		now:      now,
		channels: make(map[string]*channel),
	}
}

// Endpoint is one side of a linked channel. It implements
// agreement.PacketSender for the bridge that owns it.
type Endpoint struct {
	relay   *Relay
	ch      *channel
	peer    *Endpoint
	handler agreement.PacketHandler
	// caller is the dispatcher address the relay presents to the
	// handler, satisfying its transport-only authorization.
	caller  ethcommon.Address
	nextSeq uint64
}

func (e *Endpoint) Caller() ethcommon.Address { return e.caller }

// Link wires a channel between two handlers and returns the endpoint
// each side sends through. Sequences are per endpoint, starting at 1.
func (r *Relay) Link(channelId string, leftHandler agreement.PacketHandler, leftCaller ethcommon.Address,
	rightHandler agreement.PacketHandler, rightCaller ethcommon.Address) (*Endpoint, *Endpoint, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[channelId]; ok {
		return nil, nil, ErrChannelExists
	}

	ch := &channel{id: channelId}
	left := &Endpoint{relay: r, ch: ch, handler: leftHandler, caller: leftCaller, nextSeq: 1}
	right := &Endpoint{relay: r, ch: ch, handler: rightHandler, caller: rightCaller, nextSeq: 1}
	left.peer = right
	right.peer = left
	ch.left = left
	ch.right = right
	r.channels[channelId] = ch

	return left, right, nil
}

// SendPacket queues a packet for delivery to the peer endpoint and
// returns its sequence number.
func (e *Endpoint) SendPacket(channelId string, data []byte, timeoutTimestamp uint64) (uint64, error) {
	e.relay.mu.Lock()
	defer e.relay.mu.Unlock()

	if channelId != e.ch.id {
		return 0, ErrWrongChannel
	}

	seq := e.nextSeq
	e.nextSeq++

	p := &agreement.Packet{
		ChannelId:        channelId,
		Sequence:         seq,
		Data:             append([]byte(nil), data...),
		TimeoutTimestamp: timeoutTimestamp,
	}
	e.relay.inflight = append(e.relay.inflight, &inflightPacket{packet: p, origin: e})

	logger.WithFields(logger.Fields{
		"channel": channelId,
		"seq":     seq,
	}).Debug("packet queued")

	return seq, nil
}

// DeliverNext delivers the oldest in-flight packet: the peer handler
// receives it, its acknowledgement crosses the wire encoding, and the
// origin handler is invoked with the decoded result. A packet whose
// timeout has already passed is not delivered; it times out instead.
// Returns false when nothing is in flight.
func (r *Relay) DeliverNext() (bool, error) {
	r.mu.Lock()
	if len(r.inflight) == 0 {
		r.mu.Unlock()
		return false, nil
	}
	ip := r.inflight[0]
	r.inflight = r.inflight[1:]
	now := uint64(r.now().UnixNano())
	r.mu.Unlock()

	if ip.packet.TimeoutTimestamp != 0 && now >= ip.packet.TimeoutTimestamp {
		return true, ip.origin.handler.OnTimeoutPacket(ip.origin.caller, ip.packet)
	}

	ack, err := ip.origin.peer.handler.OnRecvPacket(ip.origin.peer.caller, ip.packet)
	if err != nil {
		return true, err
	}

	// round-trip the acknowledgement through the wire form
	decoded, err := codec.DecodeAck(codec.EncodeAck(ack))
	if err != nil {
		return true, err
	}

	return true, ip.origin.handler.OnAcknowledgementPacket(ip.origin.caller, ip.packet, decoded)
}

// DeliverAll drains the in-flight queue in order, stopping at the first
// delivery error. Returns the number of packets processed.
func (r *Relay) DeliverAll() (int, error) {
	n := 0
	for {
		delivered, err := r.DeliverNext()
		if err != nil {
			return n, err
		}
		if !delivered {
			return n, nil
		}
		n++
	}
}

// DropNext discards the oldest in-flight packet without delivering it,
// simulating loss. The packet remains eligible for expiry.
func (r *Relay) DropNext() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.inflight) == 0 {
		return ErrNothingInFlight
	}
	ip := r.inflight[0]
	r.inflight = r.inflight[1:]
	r.lost = append(r.lost, ip)

	logger.WithFields(logger.Fields{
		"channel": ip.packet.ChannelId,
		"seq":     ip.packet.Sequence,
	}).Debug("packet dropped")

	return nil
}

// ExpireTimeouts fires OnTimeoutPacket on the origin of every queued or
// lost packet whose timeout has passed, and removes those packets.
// Returns the number of expired packets.
func (r *Relay) ExpireTimeouts() (int, error) {
	r.mu.Lock()
	now := uint64(r.now().UnixNano())
	var expired []*inflightPacket
	r.inflight = splitExpired(r.inflight, now, &expired)
	r.lost = splitExpired(r.lost, now, &expired)
	r.mu.Unlock()

	for i, ip := range expired {
		if err := ip.origin.handler.OnTimeoutPacket(ip.origin.caller, ip.packet); err != nil {
			return i, err
		}
	}
	return len(expired), nil
}

func splitExpired(queue []*inflightPacket, now uint64, expired *[]*inflightPacket) []*inflightPacket {
	kept := queue[:0]
	for _, ip := range queue {
		if ip.packet.TimeoutTimestamp != 0 && now >= ip.packet.TimeoutTimestamp {
			*expired = append(*expired, ip)
		} else {
			kept = append(kept, ip)
		}
	}
	return kept
}

// InFlight reports the number of queued, deliverable packets.
func (r *Relay) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}
