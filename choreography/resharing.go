package choreography

import (
	"fmt"

	"github.com/hxrts/aura/effects"
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/thresholdcrypto"
)

// ResharingResult is the output of a completed resharing run: the same
// group public key the committee started with (spec.md §8: "the group
// public key is identical before and after a successful resharing"),
// held now by a new committee at a possibly different threshold.
type ResharingResult struct {
	GroupPublicKey  thresholdcrypto.PublicKey
	NewParticipants []ids.AuthorityId
	NewThreshold    int
	Session         *Session
}

// RunResharing executes proposal, old-committee re-encryption, and
// new-committee aggregation (spec.md §4.4). The deterministic crypto
// backend has no real re-encryption primitive, so each old participant's
// contribution is modelled as a single one-way-hash binding of
// (old participant, group key) — sufficient to drive the protocol's
// quorum and equivocation bookkeeping without depending on a fixed curve
// (spec.md §1 non-goals). No per-new-participant sub-shares are produced;
// newParticipants only shapes the returned committee and threshold check.
func RunResharing(
	store journal.Store,
	eff effects.Effects,
	sess *Session,
	oldParticipants []ids.AuthorityId,
	newParticipants []ids.AuthorityId,
	newThreshold int,
	groupPublicKey thresholdcrypto.PublicKey,
) (*ResharingResult, error) {
	if newThreshold < 1 || newThreshold > len(newParticipants) {
		sess.Fail(FailureInvalidProposal)
		return nil, fmt.Errorf("choreography: resharing threshold %d out of [1,%d]", newThreshold, len(newParticipants))
	}

	sess.State = StateExecutingPhase
	if _, err := appendEvent(store, eff, journal.EventKindSessionStarted, journal.Payload{
		SessionID:    sess.ID,
		ProtocolType: sess.ProtocolType,
	}, journal.LifecycleInternal()); err != nil {
		return nil, err
	}

	// Old-committee re-encryption: each old participant submits one
	// binding of its own id to the group key.
	subShares := NewRoundCollector()
	for _, old := range oldParticipants {
		bound := eff.Crypto.Hash(append(append([]byte{}, old[:]...), groupPublicKey...))
		subShares.Submit(0, old, bound[:])
	}
	if subShares.Count(0) < sess.Threshold {
		sess.Fail(FailureQuorumNotMet)
		return nil, completeSessionOnFailure(store, eff, sess)
	}

	// New-committee aggregation is a no-op on the key itself: resharing
	// redistributes shares without reconstructing or altering the group
	// secret, so the committed root is the unchanged group key.
	root, err := ids.ID32FromBytes(groupPublicKey)
	if err != nil {
		return nil, err
	}
	if _, err := appendEvent(store, eff, journal.EventKindDkdCommitmentRoot, journal.Payload{
		CommitmentRoot: root,
	}, journal.LifecycleInternal()); err != nil {
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

	return &ResharingResult{
		GroupPublicKey:  groupPublicKey,
		NewParticipants: CanonicalOrder(newParticipants),
		NewThreshold:    newThreshold,
		Session:         sess,
	}, nil
}
