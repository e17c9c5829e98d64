package journal

import (
	"time"

	"github.com/hxrts/aura/capability"
	"github.com/hxrts/aura/hashlattice"
	"github.com/hxrts/aura/ids"
)

// apply folds one validated event onto a cloned copy of state and
// returns the new state. Capability-changing events replace the
// grantee's local grant in the authority graph: a grant binds exactly
// the event's atoms and a revoke binds the empty set; neither merges with
// the grant that was there before.
func apply(prev *AccountState, e Event, now time.Time) *AccountState {
	s := prev.clone()

	switch e.Kind {
	case EventKindEpochTick:
		s.SessionEpoch = e.Payload.NewEpoch

	case EventKindDeviceAdded:
		s.Devices[e.Payload.DeviceID] = DeviceMetadata{
			PublicKey:  e.Payload.DevicePublicKey,
			DeviceType: e.Payload.DeviceType,
			JoinedAt:   e.Timestamp,
			LastSeenAt: e.Timestamp,
			UsedNonces: map[uint64]struct{}{},
		}

	case EventKindDeviceRemoved:
		delete(s.Devices, e.Payload.DeviceID)
		s.RemovedDevices[e.Payload.DeviceID] = struct{}{}

	case EventKindGuardianAdded:
		s.Guardians[e.Payload.GuardianID] = struct{}{}

	case EventKindGuardianRemoved:
		delete(s.Guardians, e.Payload.GuardianID)
		s.RemovedGuardians[e.Payload.GuardianID] = struct{}{}

	case EventKindSessionStarted:
		s.Sessions[e.Payload.SessionID] = Session{
			SessionID:    e.Payload.SessionID,
			ProtocolType: e.Payload.ProtocolType,
			StartedAt:    e.Timestamp,
			TTLEpochs:    e.Payload.TTLEpochs,
			Status:       SessionActive,
		}

	case EventKindSessionCompleted:
		if sess, ok := s.Sessions[e.Payload.SessionID]; ok {
			sess.Status = sessionStatusFromString(e.Payload.Status)
			s.Sessions[e.Payload.SessionID] = sess
		}

	case EventKindDkdCommitmentRoot:
		s.DkdCommitmentRoots = append(s.DkdCommitmentRoots, e.Payload.CommitmentRoot)
		s.GroupPublicKey = e.Payload.CommitmentRoot[:]

	case EventKindCapabilityGrant:
		// A grant is a fresh local authority binding at To containing
		// exactly the atoms the event names, never an implicit ⊤ — the
		// overall evaluate() formula already takes the meet of this
		// binding against To's delegations and policy, so the binding
		// itself must never smuggle in more authority than was granted.
		grant := capability.NewSet(e.Payload.Granted...)
		s.AuthorityGraph.SetLocalGrant(e.Payload.To, grant)

	case EventKindCapabilityRevoke:
		s.AuthorityGraph.SetLocalGrant(e.Payload.To, capability.Empty())

	case EventKindMembershipProposal:
		s.Threshold = e.Payload.NewThreshold
		s.TotalParticipants = e.Payload.NewTotal

	case EventKindMembershipVote:
		// Votes themselves don't mutate folded membership state; the
		// choreography engine tracks vote tallies and emits a
		// MembershipProposal once the threshold of votes is reached.

	case EventKindRecoveryInitiated:
		s.Cooldowns[recoveryCooldownKey(e.Payload.RecoveringDevice)] = e.Timestamp

	case EventKindRecoveryShare:
		// Recovery shares accumulate in the choreography session state,
		// not in the folded account state, until RecoveryCompleted.

	case EventKindRecoveryCompleted:
		delete(s.RemovedDevices, e.Payload.RecoveringDevice)
	}

	s.LamportClock++
	s.EventCount++
	s.NextNonce = e.Nonce + 1
	s.UsedNonces[e.Nonce] = struct{}{}
	s.UpdatedAt = now

	content, _ := eventContentHash(e)
	s.LastEventHash = hashlattice.ChainLink(e.ParentHash, content)

	return s
}

func recoveryCooldownKey(deviceID ids.DeviceId) string {
	return "recovery:" + deviceID.String()
}

// RecoveryCooldownKey exposes the Cooldowns map key apply() uses for a
// RecoveryInitiated event, so choreography.RunGuardianRecovery can check
// AccountState.Cooldowns before initiating a new attempt.
func RecoveryCooldownKey(deviceID ids.DeviceId) string {
	return recoveryCooldownKey(deviceID)
}

func sessionStatusFromString(v string) SessionStatus {
	switch v {
	case "Completed":
		return SessionCompleted
	case "Failed":
		return SessionFailed
	case "Cancelled":
		return SessionCancelled
	case "Expired":
		return SessionExpired
	default:
		return SessionActive
	}
}
