// Package journal implements the append-only, hash-chained, Lamport-ordered
// event log that is the sole owner of account state: every device,
// guardian, capability, session, and recovery fact exists because some
// event said so, and AccountState is rebuilt by replaying that log, never
// mutated directly.
package journal

import (
	"time"

	"github.com/hxrts/aura/capability"
	"github.com/hxrts/aura/ids"
)

// Version is the wire version of the event schema this journal
// understands. append_event rejects any event whose Version it doesn't
// recognise.
const Version uint32 = 1

// EventKind tags the variant carried in an Event's Payload.
type EventKind uint32

const (
	EventKindEpochTick EventKind = iota + 1
	EventKindDeviceAdded
	EventKindDeviceRemoved
	EventKindGuardianAdded
	EventKindGuardianRemoved
	EventKindSessionStarted
	EventKindSessionCompleted
	EventKindDkdCommitmentRoot
	EventKindCapabilityGrant
	EventKindCapabilityRevoke
	EventKindMembershipProposal
	EventKindMembershipVote
	EventKindRecoveryInitiated
	EventKindRecoveryShare
	EventKindRecoveryCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventKindEpochTick:
		return "EpochTick"
	case EventKindDeviceAdded:
		return "DeviceAdded"
	case EventKindDeviceRemoved:
		return "DeviceRemoved"
	case EventKindGuardianAdded:
		return "GuardianAdded"
	case EventKindGuardianRemoved:
		return "GuardianRemoved"
	case EventKindSessionStarted:
		return "SessionStarted"
	case EventKindSessionCompleted:
		return "SessionCompleted"
	case EventKindDkdCommitmentRoot:
		return "DkdCommitmentRoot"
	case EventKindCapabilityGrant:
		return "CapabilityGrant"
	case EventKindCapabilityRevoke:
		return "CapabilityRevoke"
	case EventKindMembershipProposal:
		return "MembershipProposal"
	case EventKindMembershipVote:
		return "MembershipVote"
	case EventKindRecoveryInitiated:
		return "RecoveryInitiated"
	case EventKindRecoveryShare:
		return "RecoveryShare"
	case EventKindRecoveryCompleted:
		return "RecoveryCompleted"
	default:
		return "Unknown"
	}
}

// AuthorizationKind tags the variant carried by an Event's Authorization.
type AuthorizationKind uint32

const (
	AuthorizationLifecycleInternal AuthorizationKind = iota + 1
	AuthorizationDeviceCertificate
	AuthorizationThresholdSignature
	AuthorizationRecoveryEvidence
)

// Authorization is the witness that an event was authorized to be
// written. Exactly one of the Kind-tagged fields is meaningful.
type Authorization struct {
	Kind AuthorizationKind

	// DeviceCertificate fields.
	DeviceID  ids.DeviceId
	Signature []byte

	// ThresholdSignature fields.
	Participants []ids.AuthorityId

	// RecoveryEvidence fields.
	GuardianShares map[ids.GuardianId][]byte
}

func LifecycleInternal() Authorization {
	return Authorization{Kind: AuthorizationLifecycleInternal}
}

func DeviceCertificate(deviceID ids.DeviceId, signature []byte) Authorization {
	return Authorization{Kind: AuthorizationDeviceCertificate, DeviceID: deviceID, Signature: signature}
}

func ThresholdSignature(participants []ids.AuthorityId, signature []byte) Authorization {
	return Authorization{Kind: AuthorizationThresholdSignature, Participants: participants, Signature: signature}
}

func RecoveryEvidence(shares map[ids.GuardianId][]byte) Authorization {
	return Authorization{Kind: AuthorizationRecoveryEvidence, GuardianShares: shares}
}

// Payload is the event-type-specific data. Only the fields relevant to
// Kind are populated; this mirrors the tagged-union shape of spec's
// event_type variants using one flat struct rather than an interface,
// so events stay trivially JSON-serialisable through codec.EncodeTagged.
type Payload struct {
	// EpochTick
	NewEpoch     uint64
	EvidenceHash ids.Hash32

	// DeviceAdded / DeviceRemoved
	DeviceID        ids.DeviceId
	DevicePublicKey []byte
	DeviceType      string

	// GuardianAdded / GuardianRemoved
	GuardianID ids.GuardianId

	// SessionStarted / SessionCompleted
	SessionID    ids.SessionId
	ProtocolType string
	TTLEpochs    uint64
	Status       string

	// DkdCommitmentRoot
	CommitmentRoot ids.Hash32

	// CapabilityGrant / CapabilityRevoke. Granted carries the atomic
	// capabilities the grant binds at To — an explicit set, never ⊤, so
	// apply folds it as a local grant rather than a blanket widening.
	From    ids.AuthorityId
	To      ids.AuthorityId
	Granted []capability.Capability

	// MembershipProposal / MembershipVote
	ProposalID      ids.EventId
	NewThreshold    uint32
	NewTotal        uint32
	VoterAuthority  ids.AuthorityId
	Approve         bool

	// RecoveryInitiated / RecoveryShare / RecoveryCompleted
	RecoveryID      ids.EventId
	RecoveringDevice ids.DeviceId
}

// Event is one entry in the journal. Events are immutable once
// constructed; only append_event decides whether one is accepted.
type Event struct {
	Version       uint32
	EventID       ids.EventId
	AccountID     ids.AccountId
	Timestamp     time.Time
	Nonce         uint64
	ParentHash    ids.Hash32
	IsGenesis     bool
	EpochAtWrite  uint64
	LamportClock  uint64
	Kind          EventKind
	Payload       Payload
	Authorization Authorization
}
