package choreography

import (
	"sync"

	"github.com/hxrts/aura/hashlattice"
	"github.com/hxrts/aura/ids"
)

// RoundCollector gathers one contribution per (round, authority) and
// detects equivocation: two submissions from the same authority in the
// same round with different content (spec.md §4.4). Per spec.md §9 Open
// Question 4, neither conflicting value is treated as authoritative —
// both are discarded and the caller is told to mark the authority
// byzantine.
type RoundCollector struct {
	mu      sync.Mutex
	byRound map[int]map[ids.AuthorityId]roundEntry
}

type roundEntry struct {
	hash  ids.Hash32
	value []byte
}

func NewRoundCollector() *RoundCollector {
	return &RoundCollector{byRound: map[int]map[ids.AuthorityId]roundEntry{}}
}

// Submit records authority's contribution to round. It returns true if
// this submission conflicts with a prior submission from the same
// authority in the same round, in which case both values are discarded
// from the round and the caller should mark authority byzantine.
func (r *RoundCollector) Submit(round int, authority ids.AuthorityId, value []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byRound[round]
	if !ok {
		m = map[ids.AuthorityId]roundEntry{}
		r.byRound[round] = m
	}
	h := hashlattice.Hash(value)
	prev, existed := m[authority]
	if existed {
		if prev.hash != h {
			delete(m, authority)
			return true
		}
		return false
	}
	m[authority] = roundEntry{hash: h, value: value}
	return false
}

// Count returns the number of non-conflicting contributions recorded
// for round (irrespective of whether their authorities were later
// marked byzantine for conflicts in a different round).
func (r *RoundCollector) Count(round int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byRound[round])
}

// Contributors returns, in canonical order, the authorities with a
// recorded contribution to round.
func (r *RoundCollector) Contributors(round int) []ids.AuthorityId {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.byRound[round]
	out := make([]ids.AuthorityId, 0, len(m))
	for a := range m {
		out = append(out, a)
	}
	ids.SortID32s(out)
	return out
}

// Get returns authority's recorded contribution to round, if any.
func (r *RoundCollector) Get(round int, authority ids.AuthorityId) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byRound[round]
	if !ok {
		return nil, false
	}
	e, ok := m[authority]
	return e.value, ok
}

// HonestContributions returns round's recorded contributions, excluding
// any authority sess has marked byzantine (from this round or another).
func (r *RoundCollector) HonestContributions(round int, sess *Session) map[ids.AuthorityId][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[ids.AuthorityId][]byte{}
	for a, e := range r.byRound[round] {
		if sess.IsByzantine(a) {
			continue
		}
		out[a] = e.value
	}
	return out
}
