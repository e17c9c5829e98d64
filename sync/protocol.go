package sync

import (
	"fmt"

	"github.com/hxrts/aura/ids"
)

// State is a sync session's position in spec.md §4.7's state machine:
// Idle -> WaitingForResponse -> ExchangingOperations -> {Completed, Failed}.
type State int

const (
	StateIdle State = iota
	StateWaitingForResponse
	StateExchangingOperations
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateWaitingForResponse:
		return "WaitingForResponse"
	case StateExchangingOperations:
		return "ExchangingOperations"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// SyncRequest opens a sync round by advertising the initiator's summary.
type SyncRequest struct {
	Peer    ids.AuthorityId
	Summary Summary
}

// SyncResponse accepts or rejects a SyncRequest.
type SyncResponse struct {
	Accept bool
	Reason string
}

// OperationRequest asks for up to Max of the listed CIDs.
type OperationRequest struct {
	CIDs []ids.Hash32
	Max  int
}

// OperationResponse answers an OperationRequest: the ops found, the
// requested CIDs that weren't held, and whether more remain beyond Max.
type OperationResponse struct {
	Ops     []AttestedOp
	Missing []ids.Hash32
	HasMore bool
}

// SyncComplete closes a sync round, carrying the responder's final
// summary so the initiator can detect if more rounds are needed.
type SyncComplete struct {
	Summary Summary
}

// Session drives one peer-to-peer sync round through spec.md §4.7's
// protocol: SyncRequest -> SyncResponse -> OperationRequest ->
// OperationResponse (repeated while HasMore) -> SyncComplete.
type Session struct {
	Peer  ids.AuthorityId
	State State
	local *OpLog

	pending []ids.Hash32
	fetched int
}

// NewSession starts a sync round against local for the given peer.
func NewSession(peer ids.AuthorityId, local *OpLog) *Session {
	return &Session{Peer: peer, State: StateIdle, local: local}
}

// Request builds the initiating SyncRequest and transitions to
// WaitingForResponse.
func (s *Session) Request() SyncRequest {
	s.State = StateWaitingForResponse
	return SyncRequest{Peer: s.Peer, Summary: s.local.Summary()}
}

// Respond answers a SyncRequest with an acceptance plus the CIDs the
// responder holds that the request's summary lacks, or with a rejection.
// It holds no session state; the initiator's HandleResponse makes the
// transition to ExchangingOperations or Failed.
func Respond(local *OpLog, req SyncRequest, accept bool, reason string) (SyncResponse, []ids.Hash32) {
	if !accept {
		return SyncResponse{Accept: false, Reason: reason}, nil
	}
	missing := MissingCIDs(local.Summary(), req.Summary)
	return SyncResponse{Accept: true}, missing
}

// HandleResponse processes the responder's SyncResponse. A rejection
// fails the session; acceptance moves to ExchangingOperations and
// records the CIDs still to be fetched.
func (s *Session) HandleResponse(resp SyncResponse, missingFromRemote []ids.Hash32) error {
	if s.State != StateWaitingForResponse {
		return fmt.Errorf("sync: HandleResponse called in state %s", s.State)
	}
	if !resp.Accept {
		s.State = StateFailed
		return fmt.Errorf("sync: peer %s rejected sync: %s", s.Peer, resp.Reason)
	}
	s.State = StateExchangingOperations
	s.pending = missingFromRemote
	return nil
}

// NextRequest returns the OperationRequest for the remaining pending
// CIDs, capped at max per round.
func (s *Session) NextRequest(max int) (OperationRequest, bool) {
	if s.State != StateExchangingOperations || len(s.pending) == 0 {
		return OperationRequest{}, false
	}
	upper := len(s.pending)
	if max > 0 && max < upper {
		upper = max
	}
	return OperationRequest{CIDs: s.pending[:upper], Max: max}, true
}

// Serve answers an OperationRequest from the responder's OpLog.
func Serve(local *OpLog, req OperationRequest) OperationResponse {
	ops, missing, hasMore := local.Fetch(req.CIDs, req.Max)
	return OperationResponse{Ops: ops, Missing: missing, HasMore: hasMore}
}

// ApplyResponse ingests an OperationResponse into the initiator's local
// OpLog, advances the pending-CID cursor, and reports whether the round
// is exhausted (no more pending CIDs and the responder signalled no more
// data).
func (s *Session) ApplyResponse(resp OperationResponse) (done bool, err error) {
	if s.State != StateExchangingOperations {
		return false, fmt.Errorf("sync: ApplyResponse called in state %s", s.State)
	}
	for _, op := range resp.Ops {
		s.local.Publish(op.Envelope)
		s.fetched++
	}
	consumed := len(resp.Ops) + len(resp.Missing)
	if consumed > len(s.pending) {
		consumed = len(s.pending)
	}
	s.pending = s.pending[consumed:]
	return len(s.pending) == 0 && !resp.HasMore, nil
}

// Complete transitions the session to Completed once all pending CIDs
// have been exchanged.
func (s *Session) Complete() SyncComplete {
	s.State = StateCompleted
	return SyncComplete{Summary: s.local.Summary()}
}

// Fail transitions the session to Failed with no further negotiation.
func (s *Session) Fail() {
	s.State = StateFailed
}
