package journal

import (
	"sort"

	"github.com/hxrts/aura/hashlattice"
	"github.com/hxrts/aura/ids"
)

// hashStateFields canonicalises AccountState's maps into sorted slices
// (map iteration order is not stable) before hashing, so two folds of the same
// event sequence always produce byte-identical hashes.
func hashStateFields(s *AccountState) (ids.Hash32, error) {
	deviceIDs := make([]ids.DeviceId, 0, len(s.Devices))
	for id := range s.Devices {
		deviceIDs = append(deviceIDs, id)
	}
	ids.SortID16s(deviceIDs)

	type deviceEntry struct {
		ID         ids.DeviceId
		PublicKey  []byte
		DeviceType string
		NextNonce  uint64
	}
	devices := make([]deviceEntry, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		d := s.Devices[id]
		devices = append(devices, deviceEntry{id, d.PublicKey, d.DeviceType, d.NextNonce})
	}

	removedDevices := make([]ids.DeviceId, 0, len(s.RemovedDevices))
	for id := range s.RemovedDevices {
		removedDevices = append(removedDevices, id)
	}
	ids.SortID16s(removedDevices)

	guardians := make([]ids.GuardianId, 0, len(s.Guardians))
	for id := range s.Guardians {
		guardians = append(guardians, id)
	}
	ids.SortID16s(guardians)

	sessionIDs := make([]ids.SessionId, 0, len(s.Sessions))
	for id := range s.Sessions {
		sessionIDs = append(sessionIDs, id)
	}
	ids.SortID32s(sessionIDs)

	type sessionEntry struct {
		ID     ids.SessionId
		Status SessionStatus
	}
	sessions := make([]sessionEntry, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		sessions = append(sessions, sessionEntry{id, s.Sessions[id].Status})
	}

	nonces := make([]uint64, 0, len(s.UsedNonces))
	for n := range s.UsedNonces {
		nonces = append(nonces, n)
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i] < nonces[j] })

	canonical := struct {
		AccountID         ids.AccountId
		GroupPublicKey    []byte
		Devices           []deviceEntry
		RemovedDevices    []ids.DeviceId
		Guardians         []ids.GuardianId
		SessionEpoch      uint64
		LamportClock      uint64
		DkdCommitmentRoots []ids.Hash32
		Sessions          []sessionEntry
		Threshold         uint32
		TotalParticipants uint32
		UsedNonces        []uint64
		NextNonce         uint64
		LastEventHash     ids.Hash32
		EventCount        uint64
	}{
		AccountID:          s.AccountID,
		GroupPublicKey:     s.GroupPublicKey,
		Devices:            devices,
		RemovedDevices:     removedDevices,
		Guardians:          guardians,
		SessionEpoch:       s.SessionEpoch,
		LamportClock:       s.LamportClock,
		DkdCommitmentRoots: s.DkdCommitmentRoots,
		Sessions:           sessions,
		Threshold:          s.Threshold,
		TotalParticipants:  s.TotalParticipants,
		UsedNonces:         nonces,
		NextNonce:          s.NextNonce,
		LastEventHash:      s.LastEventHash,
		EventCount:         s.EventCount,
	}
	return hashlattice.HashJSON(canonical)
}
