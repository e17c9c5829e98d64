package choreography

import (
	"fmt"

	"github.com/hxrts/aura/effects"
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/thresholdcrypto"
)

// DKDResult is the output of a completed Distributed Key Derivation run
// (spec.md §4.4): a 32-byte group public key, deterministic in
// (seed, participants, threshold).
type DKDResult struct {
	GroupPublicKey thresholdcrypto.PublicKey
	Session        *Session
}

// RunDKD executes the three DKD phases — commit, reveal, aggregate —
// against store. Every honest participant commits to a per-participant
// share derived from seed, reveals it, and the engine aggregates the
// revealed shares into a group key via eff.Crypto.DeriveGroupKey, whose
// determinism is what spec.md §8's "identical inputs -> identical group
// key" property rests on.
func RunDKD(store journal.Store, eff effects.Effects, participants []ids.AuthorityId, threshold int, seed []byte) (*DKDResult, error) {
	if threshold < 1 || threshold > len(participants) {
		return nil, fmt.Errorf("choreography: invalid DKD threshold %d for %d participants", threshold, len(participants))
	}

	sessionID, err := genSessionID(eff)
	if err != nil {
		return nil, err
	}
	sess := NewSession(sessionID, "DKD", participants, threshold)
	sess.State = StateExecutingPhase

	if _, err := appendEvent(store, eff, journal.EventKindSessionStarted, journal.Payload{
		SessionID:    sess.ID,
		ProtocolType: sess.ProtocolType,
		TTLEpochs:    0,
	}, journal.LifecycleInternal()); err != nil {
		return nil, err
	}

	// Phase 1: commit. Each participant publishes a hash commitment to
	// a per-participant share derived from the shared seed.
	commits := NewRoundCollector()
	shares := map[ids.AuthorityId][]byte{}
	for _, p := range sess.Participants {
		share := eff.Crypto.Hash(append(append([]byte{}, seed...), p[:]...))
		shares[p] = share[:]
		commitment := eff.Crypto.Hash(append([]byte("commit"), share[:]...))
		commits.Submit(0, p, commitment[:])
	}
	if commits.Count(0) < sess.Threshold {
		sess.Fail(FailureQuorumNotMet)
		return nil, completeSessionOnFailure(store, eff, sess)
	}

	// Phase 2: reveal. Each committer reveals its share; a mismatch
	// against its own earlier commitment would itself be equivocation,
	// but with shares derived purely from seed there is nothing for an
	// honest participant to disagree with itself about.
	reveals := NewRoundCollector()
	for _, p := range sess.Participants {
		if reveals.Submit(1, p, shares[p]) {
			sess.MarkByzantine(p)
		}
	}

	honest := sess.HonestParticipants()
	if len(honest) < sess.Threshold {
		sess.Fail(FailureTooManyByzantine)
		return nil, completeSessionOnFailure(store, eff, sess)
	}

	// Phase 3: aggregate.
	groupKey, err := eff.Crypto.DeriveGroupKey(seed, honest, sess.Threshold)
	if err != nil {
		sess.Fail(FailureInvalidProposal)
		return nil, completeSessionOnFailure(store, eff, sess)
	}
	root, err := ids.ID32FromBytes(groupKey)
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

	return &DKDResult{GroupPublicKey: groupKey, Session: sess}, nil
}

// logSessionCompleted records a successful session phase transition;
// callers invoke it right after sess.Complete() and before appending the
// SessionCompleted event.
func logSessionCompleted(eff effects.Effects, sess *Session) {
	eff.Log.Info("session phase transition", "session", sess.ID.String(), "protocol", sess.ProtocolType,
		"phase", sess.Phase, "state", sess.State.String())
}

// completeSessionOnFailure journals the SessionCompleted event with the
// session's failure status and returns a typed error describing why.
func completeSessionOnFailure(store journal.Store, eff effects.Effects, sess *Session) error {
	eff.Log.Warn("session phase transition", "session", sess.ID.String(), "protocol", sess.ProtocolType,
		"phase", sess.Phase, "state", sess.State.String(), "reason", string(sess.FailureReason))
	_, err := appendEvent(store, eff, journal.EventKindSessionCompleted, journal.Payload{
		SessionID: sess.ID,
		Status:    "Failed",
	}, journal.LifecycleInternal())
	if err != nil {
		return err
	}
	return fmt.Errorf("choreography: session %s failed: %s", sess.ID, sess.FailureReason)
}
