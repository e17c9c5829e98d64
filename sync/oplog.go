package sync

import (
	"sort"
	"sync"

	"github.com/hxrts/aura/ids"
	"golang.org/x/exp/maps"
)

// SummaryVersion is the wire version of a Summary digest.
const SummaryVersion = 1

// Summary is the compact digest spec.md §4.7 calls "OpLog summary": a
// version tag, the total operation count, and the sorted set of CIDs
// held, used for set reconciliation between two peers.
type Summary struct {
	Version        uint32
	OperationCount int
	CIDs           []ids.Hash32
}

// MissingCIDs returns the CIDs present in a but absent from b.
func MissingCIDs(a, b Summary) []ids.Hash32 {
	have := make(map[ids.Hash32]struct{}, len(b.CIDs))
	for _, c := range b.CIDs {
		have[c] = struct{}{}
	}
	var missing []ids.Hash32
	for _, c := range a.CIDs {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// OpLog is a set of AttestedOp keyed by CID (spec.md §3), with expiry-GC
// and set-reconciliation summaries.
type OpLog struct {
	mu  sync.RWMutex
	ops map[ids.Hash32]AttestedOp
}

// NewOpLog returns an empty OpLog.
func NewOpLog() *OpLog {
	return &OpLog{ops: make(map[ids.Hash32]AttestedOp)}
}

// Publish records op, keyed by its envelope's CID. Publishing an
// already-known CID overwrites it (gossip is idempotent on content hash).
func (l *OpLog) Publish(env Envelope) AttestedOp {
	l.mu.Lock()
	defer l.mu.Unlock()
	op := AttestedOp{CID: env.Header.CID, Envelope: env}
	l.ops[op.CID] = op
	return op
}

// Get returns the op for cid, if present.
func (l *OpLog) Get(cid ids.Hash32) (AttestedOp, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	op, ok := l.ops[cid]
	return op, ok
}

// Count returns the number of envelopes currently held.
func (l *OpLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ops)
}

// Summary returns the current set-reconciliation digest, CIDs in
// canonical sorted order.
func (l *OpLog) Summary() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cids := maps.Keys(l.ops)
	ids.SortID32s(cids)
	return Summary{Version: SummaryVersion, OperationCount: len(cids), CIDs: cids}
}

// Fetch returns up to max ops for the requested CIDs plus any CIDs that
// were requested but not held locally, and whether more remain beyond
// max — the OperationResponse triple spec.md §4.7 describes.
func (l *OpLog) Fetch(cids []ids.Hash32, max int) (ops []AttestedOp, missing []ids.Hash32, hasMore bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, c := range cids {
		op, ok := l.ops[c]
		if !ok {
			missing = append(missing, c)
			continue
		}
		if max > 0 && len(ops) >= max {
			hasMore = true
			continue
		}
		ops = append(ops, op)
	}
	return ops, missing, hasMore
}

// GC evicts every envelope whose ExpiresAtEpoch is at or before
// currentEpoch, returning the evicted CIDs in ascending order (spec.md
// §8 scenario 6).
func (l *OpLog) GC(currentEpoch int64) []ids.Hash32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var evicted []ids.Hash32
	for cid, op := range l.ops {
		if op.Envelope.Header.ExpiresAtEpoch <= currentEpoch {
			evicted = append(evicted, cid)
			delete(l.ops, cid)
		}
	}
	sort.Slice(evicted, func(i, j int) bool { return evicted[i].Compare(evicted[j]) < 0 })
	return evicted
}
