package journal

import (
	"sync"
	"time"

	"github.com/hxrts/aura/ids"
)

// AppendOutcome is returned by a successful Append.
type AppendOutcome struct {
	EventID      ids.EventId
	LamportClock uint64
	StateHash    ids.Hash32
}

// Snapshot is the compaction artifact spec.md §4.1 describes: replaying
// events with LamportClock > LastClock on top of it reproduces a
// bit-identical AccountState.
type Snapshot struct {
	StateHash     ids.Hash32
	EventCount    uint64
	LastEventHash ids.Hash32
	LastClock     uint64
	State         *AccountState
}

// Store is the journal's contract (spec.md §4.1). Append validates and,
// on success, folds the event into state; every other method is a pure
// read over the current fold.
type Store interface {
	Append(e Event) (AppendOutcome, error)
	Fold() (*AccountState, error)
	ComputeStateHash() (ids.Hash32, error)
	ActiveSessions() ([]Session, error)
	CleanupExpiredSessions(now time.Time) (int, error)
	LastEventHash() (ids.Hash32, error)
	LamportClock() (uint64, error)
	Compact() (Snapshot, error)
}

// MemStore is an in-memory Store, used by the simulator and by tests
// that don't need durability. PersistentStore (bolt_store.go) wraps
// the same fold/validate logic with bbolt-backed durability.
type MemStore struct {
	mu     sync.RWMutex
	events []Event
	state  *AccountState
}

// NewMemStore returns an empty journal for accountID.
func NewMemStore(accountID ids.AccountId) *MemStore {
	return &MemStore{state: newAccountState(accountID)}
}

func (m *MemStore) Append(e Event) (AppendOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := validate(m.state, e, m.state.SessionEpoch); err != nil {
		return AppendOutcome{}, err
	}

	next := apply(m.state, e, e.Timestamp)
	m.events = append(m.events, e)
	m.state = next

	return AppendOutcome{
		EventID:      e.EventID,
		LamportClock: next.LamportClock,
		StateHash:    next.LastEventHash,
	}, nil
}

func (m *MemStore) Fold() (*AccountState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone(), nil
}

func (m *MemStore) ComputeStateHash() (ids.Hash32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return computeStateHash(m.state)
}

func (m *MemStore) ActiveSessions() ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Session
	for _, sess := range m.state.Sessions {
		if sess.Status == SessionActive {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (m *MemStore) CleanupExpiredSessions(now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, sess := range m.state.Sessions {
		if sess.Status != SessionActive {
			continue
		}
		deadline := sess.StartedAt.Add(time.Duration(sess.TTLEpochs) * time.Millisecond)
		if now.After(deadline) {
			sess.Status = SessionExpired
			m.state.Sessions[id] = sess
			removed++
		}
	}
	return removed, nil
}

func (m *MemStore) LastEventHash() (ids.Hash32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.LastEventHash, nil
}

func (m *MemStore) LamportClock() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.LamportClock, nil
}

func (m *MemStore) Compact() (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hash, err := computeStateHash(m.state)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		StateHash:     hash,
		EventCount:    m.state.EventCount,
		LastEventHash: m.state.LastEventHash,
		LastClock:     m.state.LamportClock,
		State:         m.state.clone(),
	}, nil
}

// computeStateHash hashes the subset of AccountState that determines
// observable behaviour; it intentionally excludes UpdatedAt so that
// replaying the same events from a snapshot always yields the same
// hash regardless of wall-clock skew between runs.
func computeStateHash(s *AccountState) (ids.Hash32, error) {
	return hashStateFields(s)
}
