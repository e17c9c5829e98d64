package choreography

import (
	"time"

	"github.com/hxrts/aura/effects"
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
)

// RecoveryOutcome tags how a guardian-assisted recovery run concluded.
type RecoveryOutcome string

const (
	RecoveryPending    RecoveryOutcome = "Pending"
	RecoveryCompleted  RecoveryOutcome = "Completed"
	RecoveryDisputed   RecoveryOutcome = "Disputed"
	RecoveryOnCooldown RecoveryOutcome = "OnCooldown"
)

// RecoveryResult is the output of one RunGuardianRecovery call.
type RecoveryResult struct {
	Outcome RecoveryOutcome
	Session *Session
}

// RunGuardianRecovery executes spec.md §4.4's guardian-assisted recovery
// choreography: initiation, guardian approvals, a dispute window, and
// finalisation. approvals maps each guardian to the recovery share it
// submitted (empty means no response); disputes maps any guardian that
// filed a dispute within the window to true. A dispute from any guardian
// fails the whole run regardless of how many approvals were gathered
// (spec.md §8 scenario 3): the account's group_public_key is left
// untouched because no RecoveryCompleted event is ever appended.
func RunGuardianRecovery(
	store journal.Store,
	eff effects.Effects,
	sess *Session,
	recoveryID ids.EventId,
	recoveringDevice ids.DeviceId,
	cooldown time.Duration,
	approvals map[ids.GuardianId][]byte,
	disputes map[ids.GuardianId]bool,
	threshold int,
) (*RecoveryResult, error) {
	state, err := store.Fold()
	if err != nil {
		return nil, err
	}
	now := unixMilliToTime(eff.Now())
	if last, ok := state.Cooldowns[journal.RecoveryCooldownKey(recoveringDevice)]; ok && now.Sub(last) < cooldown {
		sess.Fail(FailureInvalidProposal)
		return &RecoveryResult{Outcome: RecoveryOnCooldown, Session: sess}, nil
	}

	sess.State = StateAwaitingCondition
	if _, err := appendEvent(store, eff, journal.EventKindRecoveryInitiated, journal.Payload{
		RecoveryID:       recoveryID,
		RecoveringDevice: recoveringDevice,
	}, journal.LifecycleInternal()); err != nil {
		return nil, err
	}

	approvedGuardians := make([]ids.GuardianId, 0, len(approvals))
	for g, share := range approvals {
		if len(share) == 0 {
			continue
		}
		approvedGuardians = append(approvedGuardians, g)
		if _, err := appendEvent(store, eff, journal.EventKindRecoveryShare, journal.Payload{
			RecoveryID:       recoveryID,
			RecoveringDevice: recoveringDevice,
		}, journal.RecoveryEvidence(map[ids.GuardianId][]byte{g: share})); err != nil {
			return nil, err
		}
	}

	for _, disputed := range disputes {
		if disputed {
			sess.Fail(FailureDisputed)
			return &RecoveryResult{Outcome: RecoveryDisputed, Session: sess}, nil
		}
	}

	if len(approvedGuardians) < threshold {
		sess.Fail(FailureQuorumNotMet)
		return &RecoveryResult{Outcome: RecoveryPending, Session: sess}, nil
	}

	// RecoveryCompleted's witness is the prior chain of RecoveryShare
	// events (each individually authorized by RecoveryEvidence); the
	// completion event itself only needs lifecycle authorization, per
	// the journal's validation pipeline.
	if _, err := appendEvent(store, eff, journal.EventKindRecoveryCompleted, journal.Payload{
		RecoveryID:       recoveryID,
		RecoveringDevice: recoveringDevice,
	}, journal.LifecycleInternal()); err != nil {
		return nil, err
	}

	sess.Complete()
	logSessionCompleted(eff, sess)
	return &RecoveryResult{Outcome: RecoveryCompleted, Session: sess}, nil
}
