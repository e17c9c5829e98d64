package choreography

import (
	"fmt"

	"github.com/hxrts/aura/choreography/quorum"
	"github.com/hxrts/aura/effects"
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
)

// MembershipResult reports whether a proposed membership change (device
// or guardian add/remove, threshold change) applied.
type MembershipResult struct {
	Applied      bool
	Votes        quorum.Result
	NewThreshold int
	NewTotal     int
	Session      *Session
}

// RunMembershipChange executes the Proposal -> votes -> apply
// choreography of spec.md §4.4: "A change applies iff votes ≥ current
// threshold of current participants. New threshold must remain in
// [1, new_total]." currentThreshold is evaluated against the committee
// as it stood before this change; votes maps each voting authority to
// its approve/reject response.
func RunMembershipChange(
	store journal.Store,
	eff effects.Effects,
	sess *Session,
	currentThreshold int,
	newThreshold int,
	newTotal int,
	votes map[ids.AuthorityId]bool,
) (*MembershipResult, error) {
	if newThreshold < 1 || newThreshold > newTotal {
		sess.Fail(FailureInvalidProposal)
		return nil, fmt.Errorf("choreography: new threshold %d out of [1,%d]", newThreshold, newTotal)
	}

	sess.State = StateExecutingPhase
	if _, err := appendEvent(store, eff, journal.EventKindSessionStarted, journal.Payload{
		SessionID:    sess.ID,
		ProtocolType: sess.ProtocolType,
	}, journal.LifecycleInternal()); err != nil {
		return nil, err
	}

	tracker := quorum.NewTracker(currentThreshold)
	for voter, approve := range votes {
		tracker.Add(voter, approve)
		if _, err := appendEvent(store, eff, journal.EventKindMembershipVote, journal.Payload{
			VoterAuthority: voter,
			Approve:        approve,
			NewThreshold:   uint32(newThreshold),
			NewTotal:       uint32(newTotal),
		}, journal.LifecycleInternal()); err != nil {
			return nil, err
		}
	}
	result := tracker.Check()

	if !result.Achieved {
		sess.Fail(FailureQuorumNotMet)
		if err := completeSessionOnFailure(store, eff, sess); err != nil {
			return nil, err
		}
		return &MembershipResult{Applied: false, Votes: result, Session: sess}, nil
	}

	if _, err := appendEvent(store, eff, journal.EventKindMembershipProposal, journal.Payload{
		NewThreshold: uint32(newThreshold),
		NewTotal:     uint32(newTotal),
	}, journal.ThresholdSignature(result.Participants, nil)); err != nil {
		return nil, err
	}

	sess.Complete()
	logSessionCompleted(eff, sess)
	if _, err := appendEvent(store, eff, journal.EventKindSessionCompleted, journal.Payload{
		SessionID: sess.ID,
		Status:    "Completed",
	}, journal.LifecycleInternal()); err != nil {
		return nil, err
	}

	return &MembershipResult{
		Applied:      true,
		Votes:        result,
		NewThreshold: newThreshold,
		NewTotal:     newTotal,
		Session:      sess,
	}, nil
}
