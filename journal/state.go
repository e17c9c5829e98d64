package journal

import (
	"time"

	"github.com/hxrts/aura/capability"
	"github.com/hxrts/aura/ids"
)

// DeviceMetadata is the folded record of one registered device.
type DeviceMetadata struct {
	PublicKey        []byte
	DeviceType       string
	JoinedAt         time.Time
	LastSeenAt       time.Time
	DkdCommitments   []ids.Hash32
	UsedNonces       map[uint64]struct{}
	NextNonce        uint64
	KeyShareEpoch    uint64
}

// SessionStatus mirrors spec's Session.status variants.
type SessionStatus int

const (
	SessionActive SessionStatus = iota
	SessionCompleted
	SessionFailed
	SessionCancelled
	SessionExpired
)

func (s SessionStatus) String() string {
	switch s {
	case SessionActive:
		return "Active"
	case SessionCompleted:
		return "Completed"
	case SessionFailed:
		return "Failed"
	case SessionCancelled:
		return "Cancelled"
	case SessionExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// Session is the folded record of one choreography run.
type Session struct {
	SessionID    ids.SessionId
	ProtocolType string
	Participants []ids.AuthorityId
	StartedAt    time.Time
	TTLEpochs    uint64
	Status       SessionStatus
}

// OperationLock records which operation currently holds the account's
// distributed lock, if any (recovery and resharing are mutually
// exclusive, per spec's Operation Locking choreography).
type OperationLock struct {
	OperationID ids.EventId
	HolderKind  string
	AcquiredAt  time.Time
}

// AccountState is the pure fold of the event log: the one place a
// caller reads current truth about an account. It is never mutated
// outside Store.Fold; callers get an immutable snapshot.
type AccountState struct {
	AccountID       ids.AccountId
	GroupPublicKey  []byte
	Devices         map[ids.DeviceId]DeviceMetadata
	RemovedDevices  map[ids.DeviceId]struct{}
	Guardians       map[ids.GuardianId]struct{}
	RemovedGuardians map[ids.GuardianId]struct{}
	SessionEpoch    uint64
	LamportClock    uint64
	DkdCommitmentRoots []ids.Hash32
	Sessions        map[ids.SessionId]Session
	ActiveOperationLock *OperationLock
	Cooldowns       map[string]time.Time
	AuthorityGraph  *capability.AuthorityGraph
	Threshold       uint32
	TotalParticipants uint32
	UsedNonces      map[uint64]struct{}
	NextNonce       uint64
	LastEventHash   ids.Hash32
	EventCount      uint64
	UpdatedAt       time.Time
}

// newAccountState returns the zero-value fold for an account that has
// not yet received its genesis event.
func newAccountState(accountID ids.AccountId) *AccountState {
	return &AccountState{
		AccountID:        accountID,
		Devices:          map[ids.DeviceId]DeviceMetadata{},
		RemovedDevices:   map[ids.DeviceId]struct{}{},
		Guardians:        map[ids.GuardianId]struct{}{},
		RemovedGuardians: map[ids.GuardianId]struct{}{},
		Sessions:         map[ids.SessionId]Session{},
		Cooldowns:        map[string]time.Time{},
		AuthorityGraph:   capability.NewAuthorityGraph(),
		UsedNonces:       map[uint64]struct{}{},
	}
}

// clone produces a deep-enough copy for the fold to mutate in place
// while keeping prior snapshots (e.g. ones a caller is iterating)
// unaffected.
func (s *AccountState) clone() *AccountState {
	out := *s
	out.Devices = make(map[ids.DeviceId]DeviceMetadata, len(s.Devices))
	for k, v := range s.Devices {
		nv := v
		nv.UsedNonces = make(map[uint64]struct{}, len(v.UsedNonces))
		for n := range v.UsedNonces {
			nv.UsedNonces[n] = struct{}{}
		}
		nv.DkdCommitments = append([]ids.Hash32{}, v.DkdCommitments...)
		out.Devices[k] = nv
	}
	out.RemovedDevices = cloneSet(s.RemovedDevices)
	out.Guardians = cloneSet(s.Guardians)
	out.RemovedGuardians = cloneSet(s.RemovedGuardians)
	out.DkdCommitmentRoots = append([]ids.Hash32{}, s.DkdCommitmentRoots...)
	out.Sessions = make(map[ids.SessionId]Session, len(s.Sessions))
	for k, v := range s.Sessions {
		out.Sessions[k] = v
	}
	out.Cooldowns = make(map[string]time.Time, len(s.Cooldowns))
	for k, v := range s.Cooldowns {
		out.Cooldowns[k] = v
	}
	out.UsedNonces = make(map[uint64]struct{}, len(s.UsedNonces))
	for k := range s.UsedNonces {
		out.UsedNonces[k] = struct{}{}
	}
	if s.ActiveOperationLock != nil {
		lock := *s.ActiveOperationLock
		out.ActiveOperationLock = &lock
	}
	return &out
}

func cloneSet[K comparable](m map[K]struct{}) map[K]struct{} {
	out := make(map[K]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}
