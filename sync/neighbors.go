package sync

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hxrts/aura/ids"
)

// NeighborState is a peer's standing in the gossip overlay.
type NeighborState int

const (
	// NeighborKnown peers are candidates for promotion but are not
	// eagerly sent envelopes.
	NeighborKnown NeighborState = iota
	// NeighborActive peers exchange envelopes eagerly.
	NeighborActive
)

type peerRecord struct {
	state            NeighborState
	consecutiveFails int
	nextAttemptAt    time.Time
	backoff          *backoff.ExponentialBackOff
}

// NeighborManagerConfig bounds the active set and the demotion trigger
// (spec.md §4.7).
type NeighborManagerConfig struct {
	MaxActiveNeighbors int
	DemotionThreshold  int
	InitialBackoff     time.Duration
	MaxBackoff         time.Duration
}

// DefaultNeighborManagerConfig mirrors the teacher's benchlist defaults
// in spirit: a handful of consecutive failures before a peer is pulled
// out of the active rotation, with backoff capped well below a minute so
// a transient blip doesn't strand the overlay.
func DefaultNeighborManagerConfig() NeighborManagerConfig {
	return NeighborManagerConfig{
		MaxActiveNeighbors: 8,
		DemotionThreshold:  3,
		InitialBackoff:     500 * time.Millisecond,
		MaxBackoff:         30 * time.Second,
	}
}

// NeighborManager tracks known and active gossip peers, promoting known
// peers into the active set (up to MaxActiveNeighbors), demoting active
// peers back to known after DemotionThreshold consecutive merge
// failures, and guarding each peer's next merge attempt behind an
// exponential-backoff timer. Grounded on the teacher's
// networking/benchlist.manager: a mutex-guarded per-peer map recording
// consecutive failures, generalised from "bench for a fixed duration" to
// "demote, and back off the next attempt exponentially".
type NeighborManager struct {
	mu     sync.Mutex
	cfg    NeighborManagerConfig
	peers  map[ids.AuthorityId]*peerRecord
	active int
}

// NewNeighborManager returns an empty manager.
func NewNeighborManager(cfg NeighborManagerConfig) *NeighborManager {
	return &NeighborManager{cfg: cfg, peers: make(map[ids.AuthorityId]*peerRecord)}
}

func newPeerRecord(cfg NeighborManagerConfig) *peerRecord {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	b.MaxInterval = cfg.MaxBackoff
	b.MaxElapsedTime = 0
	return &peerRecord{state: NeighborKnown, backoff: b}
}

// Discover adds peer as known if it isn't already tracked (spec.md
// §4.7: "new peers are discovered from neighbors' peer lists").
func (m *NeighborManager) Discover(peer ids.AuthorityId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.peers[peer]; !ok {
		m.peers[peer] = newPeerRecord(m.cfg)
	}
}

// ReadyForAttempt reports whether peer's backoff timer has elapsed,
// i.e. a merge attempt may be made now.
func (m *NeighborManager) ReadyForAttempt(peer ids.AuthorityId, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.peers[peer]
	if !ok {
		return true
	}
	return !now.Before(rec.nextAttemptAt)
}

// Promote moves a known peer into the active set if there is room
// (bounded by MaxActiveNeighbors); a no-op if peer is already active or
// the active set is full.
func (m *NeighborManager) Promote(peer ids.AuthorityId) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.peers[peer]
	if !ok {
		rec = newPeerRecord(m.cfg)
		m.peers[peer] = rec
	}
	if rec.state == NeighborActive {
		return true
	}
	if m.active >= m.cfg.MaxActiveNeighbors {
		return false
	}
	rec.state = NeighborActive
	m.active++
	return true
}

// demote moves peer from active back to known. Caller must hold m.mu.
func (m *NeighborManager) demote(rec *peerRecord) {
	if rec.state == NeighborActive {
		rec.state = NeighborKnown
		m.active--
	}
}

// RecordFailure accounts a failed merge attempt against peer, advancing
// its backoff timer and demoting it to known once DemotionThreshold
// consecutive failures accrue.
func (m *NeighborManager) RecordFailure(peer ids.AuthorityId, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.peers[peer]
	if !ok {
		rec = newPeerRecord(m.cfg)
		m.peers[peer] = rec
	}
	rec.consecutiveFails++
	rec.nextAttemptAt = now.Add(rec.backoff.NextBackOff())
	if rec.consecutiveFails >= m.cfg.DemotionThreshold {
		m.demote(rec)
	}
}

// RecordSuccess resets peer's failure count and backoff timer.
func (m *NeighborManager) RecordSuccess(peer ids.AuthorityId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.peers[peer]
	if !ok {
		return
	}
	rec.consecutiveFails = 0
	rec.backoff.Reset()
	rec.nextAttemptAt = time.Time{}
}

// State returns peer's current standing, or NeighborKnown if untracked.
func (m *NeighborManager) State(peer ids.AuthorityId) NeighborState {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.peers[peer]
	if !ok {
		return NeighborKnown
	}
	return rec.state
}

// ActiveNeighbors returns the canonically-ordered set of active peers.
func (m *NeighborManager) ActiveNeighbors() []ids.AuthorityId {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ids.AuthorityId, 0, m.active)
	for p, rec := range m.peers {
		if rec.state == NeighborActive {
			out = append(out, p)
		}
	}
	ids.SortID32s(out)
	return out
}
