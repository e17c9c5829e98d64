// Package choreography implements the session-typed protocol engine of
// spec.md §4.4: each choreography is a phase sequence executed by a set
// of roles, with canonical-order equivocation detection, per-phase
// quorum, and a typed failure taxonomy. It is grounded on the teacher's
// poll/threshold engines (the same "gather responses against a
// threshold, then advance" shape), generalised from single-round
// consensus polling to a multi-phase session state machine.
package choreography

import (
	"github.com/hxrts/aura/ids"
)

// State is the session state machine of spec.md §4.4: Initialized ->
// ExecutingPhase(k) -> {AwaitingCondition|WritingToLedger|
// ExecutingSubProtocol} -> ... -> {Completed,Failed,Cancelled}.
type State int

const (
	StateInitialized State = iota
	StateExecutingPhase
	StateAwaitingCondition
	StateWritingToLedger
	StateExecutingSubProtocol
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "Initialized"
	case StateExecutingPhase:
		return "ExecutingPhase"
	case StateAwaitingCondition:
		return "AwaitingCondition"
	case StateWritingToLedger:
		return "WritingToLedger"
	case StateExecutingSubProtocol:
		return "ExecutingSubProtocol"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// FailureReason tags why a session transitioned to Failed.
type FailureReason string

const (
	FailureNone             FailureReason = ""
	FailureTimeout          FailureReason = "Timeout"
	FailureQuorumNotMet     FailureReason = "QuorumNotMet"
	FailureDisputed         FailureReason = "Disputed"
	FailureTooManyByzantine FailureReason = "TooManyByzantine"
	FailureInvalidProposal  FailureReason = "InvalidProposal"
	FailureCancelled        FailureReason = "Cancelled"
)

// Session is the engine's in-memory run of one choreography. It is
// distinct from journal.Session (the folded, durable record) — Session
// is the live state machine; its completion is what causes a
// SessionStarted/SessionCompleted pair to be appended to the journal.
type Session struct {
	ID                    ids.SessionId
	ProtocolType          string
	Participants          []ids.AuthorityId // canonical order
	Threshold             int
	State                 State
	Phase                 int
	ByzantineParticipants map[ids.AuthorityId]struct{}
	FailureReason         FailureReason
}

// NewSession returns a fresh Initialized session with participants
// sorted into the canonical AuthorityId order spec.md §4.4 requires for
// equivocation detection and deterministic aggregation.
func NewSession(id ids.SessionId, protocolType string, participants []ids.AuthorityId, threshold int) *Session {
	return &Session{
		ID:                    id,
		ProtocolType:          protocolType,
		Participants:          CanonicalOrder(participants),
		Threshold:             threshold,
		State:                 StateInitialized,
		ByzantineParticipants: map[ids.AuthorityId]struct{}{},
	}
}

// CanonicalOrder returns participants sorted by AuthorityId, the
// ordering every round's equivocation check and aggregation step use.
func CanonicalOrder(participants []ids.AuthorityId) []ids.AuthorityId {
	out := make([]ids.AuthorityId, len(participants))
	copy(out, participants)
	ids.SortID32s(out)
	return out
}

// MarkByzantine records authority as an equivocator; its contributions
// are excluded from every subsequent aggregation in this session.
func (s *Session) MarkByzantine(authority ids.AuthorityId) {
	s.ByzantineParticipants[authority] = struct{}{}
}

func (s *Session) IsByzantine(authority ids.AuthorityId) bool {
	_, ok := s.ByzantineParticipants[authority]
	return ok
}

// HonestParticipants returns Participants minus ByzantineParticipants,
// in canonical order.
func (s *Session) HonestParticipants() []ids.AuthorityId {
	out := make([]ids.AuthorityId, 0, len(s.Participants))
	for _, p := range s.Participants {
		if !s.IsByzantine(p) {
			out = append(out, p)
		}
	}
	return out
}

// Fail transitions the session to Failed with reason, if not already in
// a final state (Complete/Fail/Cancel are all idempotent terminal
// transitions per spec.md §4.4's abort semantics).
func (s *Session) Fail(reason FailureReason) {
	if s.isFinal() {
		return
	}
	s.State = StateFailed
	s.FailureReason = reason
}

func (s *Session) Complete() {
	if s.isFinal() {
		return
	}
	s.State = StateCompleted
}

// Cancel handles a SessionAbort: idempotent, and a no-op once the
// session already reached a final state (spec.md §4.4).
func (s *Session) Cancel() {
	if s.isFinal() {
		return
	}
	s.State = StateCancelled
	s.FailureReason = FailureCancelled
}

func (s *Session) isFinal() bool {
	return s.State == StateCompleted || s.State == StateFailed || s.State == StateCancelled
}
