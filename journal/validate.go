package journal

import (
	"encoding/json"
)

// eventContentHash computes the event's canonical content hash; callers
// chain it onto ParentHash via hashlattice.ChainLink to get the event's
// position in the hash chain, which becomes the next LastEventHash.
func eventContentHash(e Event) ([]byte, error) {
	// Exclude the fields that are themselves derived from this hash or
	// from chain position, so the content hash is stable under replay.
	type canonical struct {
		Version       uint32
		EventID       [32]byte
		AccountID     [32]byte
		TimestampUnix int64
		Nonce         uint64
		EpochAtWrite  uint64
		Kind          EventKind
		Payload       Payload
		Authorization Authorization
	}
	c := canonical{
		Version:       e.Version,
		EventID:       e.EventID,
		AccountID:     e.AccountID,
		TimestampUnix: e.Timestamp.UnixMilli(),
		Nonce:         e.Nonce,
		EpochAtWrite:  e.EpochAtWrite,
		Kind:          e.Kind,
		Payload:       e.Payload,
		Authorization: e.Authorization,
	}
	return json.Marshal(c)
}

// validate runs the ordered validation pipeline from spec.md §4.1 against
// the candidate event and the state it would apply on top of. It never
// mutates state; on success it returns nil and the caller proceeds to
// apply the event.
func validate(s *AccountState, e Event, currentEpoch uint64) error {
	if e.Version != Version {
		return reject(ReasonUnrecognisedVersion, "")
	}
	if e.AccountID != s.AccountID {
		return reject(ReasonAccountMismatch, "")
	}
	if e.EpochAtWrite > currentEpoch+1 {
		return reject(ReasonEpochNotMonotonic, "epoch_at_write exceeds current_epoch+1")
	}
	if e.Kind == EventKindEpochTick && e.Payload.NewEpoch <= currentEpoch {
		return reject(ReasonEpochNotMonotonic, "new_epoch must exceed previous_epoch")
	}
	if e.IsGenesis {
		if !s.LastEventHash.IsEmpty() || s.EventCount != 0 {
			return reject(ReasonParentHashMismatch, "genesis event on non-empty journal")
		}
	} else if s.EventCount == 0 {
		return reject(ReasonParentHashMismatch, "only a genesis event may start an empty journal")
	} else if e.ParentHash != s.LastEventHash {
		return reject(ReasonParentHashMismatch, "")
	}
	if _, used := s.UsedNonces[e.Nonce]; used {
		return reject(ReasonNonceReused, "")
	}
	if e.Nonce < s.NextNonce {
		return reject(ReasonNonceBehind, "")
	}
	if err := validateAuthorization(s, e); err != nil {
		return err
	}
	if err := validateSemantics(s, e); err != nil {
		return err
	}
	return nil
}

// validateAuthorization checks that the right *kind* of authorization
// was supplied for the event's kind. It does not verify the witness's
// signature or evidence bytes, and event kinds not listed here accept
// any authorization kind.
func validateAuthorization(s *AccountState, e Event) error {
	switch e.Kind {
	case EventKindDeviceAdded, EventKindDeviceRemoved:
		if e.Authorization.Kind != AuthorizationDeviceCertificate && e.Authorization.Kind != AuthorizationLifecycleInternal {
			return reject(ReasonAuthorizationInvalid, "device events require a device certificate or lifecycle authorization")
		}
	case EventKindMembershipProposal, EventKindMembershipVote, EventKindRecoveryCompleted:
		if e.Authorization.Kind != AuthorizationThresholdSignature && e.Authorization.Kind != AuthorizationLifecycleInternal {
			return reject(ReasonAuthorizationInvalid, "membership and recovery-completion events require a threshold signature or lifecycle authorization")
		}
	case EventKindRecoveryShare, EventKindRecoveryInitiated:
		if e.Authorization.Kind != AuthorizationRecoveryEvidence && e.Authorization.Kind != AuthorizationLifecycleInternal {
			return reject(ReasonAuthorizationInvalid, "recovery events require recovery evidence or lifecycle authorization")
		}
	}
	return nil
}

// validateSemantics checks the per-event-type preconditions from
// spec.md §4.1 step 7.
func validateSemantics(s *AccountState, e Event) error {
	switch e.Kind {
	case EventKindDeviceAdded:
		if _, removed := s.RemovedDevices[e.Payload.DeviceID]; removed {
			return reject(ReasonSemanticPrecondition, "device was previously removed")
		}
		if _, exists := s.Devices[e.Payload.DeviceID]; exists {
			return reject(ReasonSemanticPrecondition, "device already present")
		}
	case EventKindDeviceRemoved:
		if _, exists := s.Devices[e.Payload.DeviceID]; !exists {
			return reject(ReasonSemanticPrecondition, "device not present")
		}
	case EventKindGuardianAdded:
		if _, removed := s.RemovedGuardians[e.Payload.GuardianID]; removed {
			return reject(ReasonSemanticPrecondition, "guardian was previously removed")
		}
	case EventKindGuardianRemoved:
		if _, exists := s.Guardians[e.Payload.GuardianID]; !exists {
			return reject(ReasonSemanticPrecondition, "guardian not present")
		}
	case EventKindDkdCommitmentRoot:
		if e.Payload.CommitmentRoot.IsEmpty() {
			return reject(ReasonSemanticPrecondition, "commitment root must not be empty")
		}
	case EventKindMembershipProposal:
		if e.Payload.NewThreshold < 1 || e.Payload.NewThreshold > e.Payload.NewTotal {
			return reject(ReasonSemanticPrecondition, "new threshold must be in [1, new_total]")
		}
	case EventKindEpochTick:
		expected, err := hashStateFields(s)
		if err != nil {
			return reject(ReasonSemanticPrecondition, "unable to compute evidence hash")
		}
		if e.Payload.EvidenceHash != expected {
			return reject(ReasonSemanticPrecondition, "evidence_hash does not match state hash before this tick")
		}
	}
	return nil
}
