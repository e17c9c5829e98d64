// Package sync implements the gossip set-reconciliation layer spec.md
// §4.7 describes: content-addressed envelopes, an OpLog summary digest
// for comparing two peers' holdings, the sync request/response state
// machine, and neighbor promotion/demotion with exponential backoff.
// Grounded on the teacher's networking/benchlist peer-health bookkeeping
// and the retry backoff already wired into transport.SendWithRetry.
package sync

import (
	"github.com/hxrts/aura/hashlattice"
	"github.com/hxrts/aura/ids"
)

// EnvelopeHeader is the routing metadata spec.md §3 defines for a
// gossiped envelope. RoutingTag is a fixed 16-byte opaque tag (e.g. a
// topic or shard hint); it does not participate in the content hash's
// uniqueness guarantee beyond being part of the hashed bytes.
type EnvelopeHeader struct {
	Version        uint32
	Epoch          int64
	Counter        uint64
	RoutingTag     [16]byte
	TTLEpochs      int64
	CID            ids.Hash32
	ExpiresAtEpoch int64
}

// Envelope is a content-addressed gossip message. CID is the content
// hash of the full envelope (header sans CID itself, plus ciphertext).
type Envelope struct {
	Header     EnvelopeHeader
	Ciphertext []byte
}

// NewEnvelope builds an envelope whose header.CID is the content hash of
// (version, epoch, counter, routingTag, ttlEpochs, ciphertext), and whose
// ExpiresAtEpoch is epoch+ttlEpochs.
func NewEnvelope(version uint32, epoch int64, counter uint64, routingTag [16]byte, ttlEpochs int64, ciphertext []byte) Envelope {
	h := EnvelopeHeader{
		Version:        version,
		Epoch:          epoch,
		Counter:        counter,
		RoutingTag:     routingTag,
		TTLEpochs:      ttlEpochs,
		ExpiresAtEpoch: epoch + ttlEpochs,
	}
	h.CID = contentHash(h, ciphertext)
	return Envelope{Header: h, Ciphertext: ciphertext}
}

func contentHash(h EnvelopeHeader, ciphertext []byte) ids.Hash32 {
	buf := make([]byte, 0, 4+8+8+16+8+len(ciphertext))
	buf = appendUint32(buf, h.Version)
	buf = appendUint64(buf, uint64(h.Epoch))
	buf = appendUint64(buf, h.Counter)
	buf = append(buf, h.RoutingTag[:]...)
	buf = appendUint64(buf, uint64(h.TTLEpochs))
	buf = append(buf, ciphertext...)
	return hashlattice.Hash(buf)
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendUint64(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// AttestedOp pairs an envelope with its CID for OpLog storage; the name
// follows spec.md §3's "OpLog... set of AttestedOp keyed by Cid".
type AttestedOp struct {
	CID      ids.Hash32
	Envelope Envelope
}
