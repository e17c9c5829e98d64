package transport

import (
	"sync"

	"github.com/hxrts/aura/ids"
)

// DefaultMaxBufferSize bounds per-peer inbound buffering (spec.md §4.6).
const DefaultMaxBufferSize = 256

// Network is a shared in-memory fabric connecting multiple MemoryTransport
// endpoints — the simulator's substitute for a real network, and the
// substrate every choreography/sync unit test sends through.
type Network struct {
	mu       sync.Mutex
	nodes    map[ids.AuthorityId]*MemoryTransport
	partitioned map[ids.AuthorityId]struct{}
}

// NewNetwork returns an empty shared fabric.
func NewNetwork() *Network {
	return &Network{nodes: map[ids.AuthorityId]*MemoryTransport{}, partitioned: map[ids.AuthorityId]struct{}{}}
}

// Join registers self on the network and returns its Transport. Every
// peer already joined becomes reachable immediately; peers joining
// later become reachable as soon as they join.
func (n *Network) Join(self ids.AuthorityId) *MemoryTransport {
	n.mu.Lock()
	defer n.mu.Unlock()
	t := &MemoryTransport{
		self:      self,
		net:       n,
		inbound:   map[ids.AuthorityId][]Message{},
		events:    make(chan PeerEvent, 64),
		maxBuffer: DefaultMaxBufferSize,
	}
	n.nodes[self] = t
	for peer, other := range n.nodes {
		if peer == self {
			continue
		}
		t.notifyConnected(peer)
		other.notifyConnected(self)
	}
	return t
}

// Partition marks peer as unreachable from the rest of the network
// until Heal is called — the simulator's way of injecting
// transport.NetworkPartition scenarios deterministically.
func (n *Network) Partition(peer ids.AuthorityId) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.partitioned[peer] = struct{}{}
}

// Heal clears a prior Partition.
func (n *Network) Heal(peer ids.AuthorityId) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.partitioned, peer)
}

func (n *Network) isPartitioned(peer ids.AuthorityId) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.partitioned[peer]
	return ok
}

// MemoryTransport is one endpoint on a Network. It implements Transport.
type MemoryTransport struct {
	self ids.AuthorityId
	net  *Network

	mu        sync.Mutex
	inbound   map[ids.AuthorityId][]Message
	maxBuffer int
	events    chan PeerEvent
}

func (t *MemoryTransport) notifyConnected(peer ids.AuthorityId) {
	select {
	case t.events <- PeerEvent{Peer: peer, Kind: PeerConnected}:
	default:
	}
}

// deliver is called by the sender's Send/Broadcast; it appends to the
// recipient's buffer, dropping the oldest entry on overflow.
func (t *MemoryTransport) deliver(from ids.AuthorityId, payload []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	buf := t.inbound[from]
	if len(buf) >= t.maxBuffer {
		buf = buf[1:]
	}
	buf = append(buf, Message{From: from, To: t.self, Payload: payload})
	t.inbound[from] = buf
}

func (t *MemoryTransport) Send(peer ids.AuthorityId, msg Message) error {
	if t.net.isPartitioned(peer) || t.net.isPartitioned(t.self) {
		return &PeerUnreachable{Peer: peer}
	}
	t.net.mu.Lock()
	recipient, ok := t.net.nodes[peer]
	t.net.mu.Unlock()
	if !ok {
		return &PeerUnreachable{Peer: peer}
	}
	recipient.deliver(t.self, msg.Payload)
	return nil
}

func (t *MemoryTransport) Broadcast(msg Message) error {
	t.net.mu.Lock()
	peers := make([]ids.AuthorityId, 0, len(t.net.nodes))
	for peer := range t.net.nodes {
		if peer != t.self {
			peers = append(peers, peer)
		}
	}
	t.net.mu.Unlock()
	var firstErr error
	for _, peer := range peers {
		if err := t.Send(peer, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Receive drains any one peer's buffer, preferring none in particular
// (spec.md §4.6: "ordering is not guaranteed across peers").
func (t *MemoryTransport) Receive() (Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for from, buf := range t.inbound {
		if len(buf) == 0 {
			continue
		}
		msg := buf[0]
		t.inbound[from] = buf[1:]
		return msg, nil
	}
	return Message{}, &ReceiveFailed{Reason: "no buffered messages"}
}

// ReceiveFrom drains peer's buffer first, per spec.md §4.6.
func (t *MemoryTransport) ReceiveFrom(peer ids.AuthorityId) (Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	buf := t.inbound[peer]
	if len(buf) == 0 {
		return Message{}, &ReceiveFailed{Reason: "no buffered messages from peer"}
	}
	msg := buf[0]
	t.inbound[peer] = buf[1:]
	return msg, nil
}

func (t *MemoryTransport) ConnectedPeers() []ids.AuthorityId {
	t.net.mu.Lock()
	defer t.net.mu.Unlock()
	out := make([]ids.AuthorityId, 0, len(t.net.nodes))
	for peer := range t.net.nodes {
		if peer != t.self && !t.net.isPartitionedLocked(peer) {
			out = append(out, peer)
		}
	}
	return out
}

func (n *Network) isPartitionedLocked(peer ids.AuthorityId) bool {
	_, ok := n.partitioned[peer]
	return ok
}

func (t *MemoryTransport) IsPeerConnected(peer ids.AuthorityId) bool {
	t.net.mu.Lock()
	_, ok := t.net.nodes[peer]
	partitioned := t.net.isPartitionedLocked(peer)
	t.net.mu.Unlock()
	return ok && !partitioned
}

func (t *MemoryTransport) SubscribePeerEvents() <-chan PeerEvent { return t.events }
