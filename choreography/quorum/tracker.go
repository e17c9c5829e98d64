// Package quorum tracks per-round vote/response tallies against a
// configurable threshold. Its Tracker is grounded on the teacher's
// threshold.Threshold interface shape (Add/Check/Reset/SetThreshold/
// GetThreshold) in threshold/threshold.go, generalised from node-poll
// sampling to the choreography engine's phase-quorum gather (spec.md
// §4.4's "all parties collect a quorum before proceeding").
package quorum

import (
	"sync"

	"github.com/hxrts/aura/ids"
)

// Result mirrors the teacher's poll Result: a snapshot of whether the
// threshold has been met and who contributed to it.
type Result struct {
	Achieved     bool
	Count        int
	Threshold    int
	Participants []ids.AuthorityId
}

// Tracker accumulates one boolean response per authority and reports
// whether at least Threshold of them are affirmative.
type Tracker struct {
	mu        sync.Mutex
	threshold int
	votes     map[ids.AuthorityId]bool
}

// NewTracker returns a Tracker requiring at least threshold affirmative
// responses before Check().Achieved is true.
func NewTracker(threshold int) *Tracker {
	return &Tracker{threshold: threshold, votes: map[ids.AuthorityId]bool{}}
}

// Add records authority's response, overwriting any prior response from
// the same authority (the last response wins, matching a re-vote).
func (t *Tracker) Add(authority ids.AuthorityId, affirmative bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.votes[authority] = affirmative
}

// Check reports the current tally against Threshold.
func (t *Tracker) Check() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	participants := make([]ids.AuthorityId, 0, len(t.votes))
	for a, v := range t.votes {
		if v {
			participants = append(participants, a)
		}
	}
	ids.SortID32s(participants)
	return Result{
		Achieved:     len(participants) >= t.threshold,
		Count:        len(participants),
		Threshold:    t.threshold,
		Participants: participants,
	}
}

// Reset clears all recorded responses, keeping the configured threshold.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.votes = map[ids.AuthorityId]bool{}
}

func (t *Tracker) SetThreshold(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threshold = n
}

func (t *Tracker) GetThreshold() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.threshold
}
