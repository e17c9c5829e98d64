// Package ids defines the opaque identifier types shared across the
// journal, capability lattice, choreography engine, and guard chain.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ID32 is a 32-byte opaque identifier with stable lexicographic ordering.
type ID32 [32]byte

// ID16 is a 16-byte opaque identifier with stable lexicographic ordering.
type ID16 [16]byte

var (
	EmptyID32 ID32
	EmptyID16 ID16
)

func (id ID32) Bytes() []byte   { return id[:] }
func (id ID32) String() string  { return hex.EncodeToString(id[:]) }
func (id ID32) IsEmpty() bool   { return id == EmptyID32 }
func (id ID16) Bytes() []byte   { return id[:] }
func (id ID16) String() string  { return hex.EncodeToString(id[:]) }
func (id ID16) IsEmpty() bool   { return id == EmptyID16 }

// Compare returns -1, 0, or 1 for ordering two ID32s, matching bytes.Compare.
func (id ID32) Compare(other ID32) int {
	for i := range id {
		if id[i] != other[i] {
			if id[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Compare returns -1, 0, or 1 for ordering two ID16s, matching bytes.Compare.
func (id ID16) Compare(other ID16) int {
	for i := range id {
		if id[i] != other[i] {
			if id[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (id ID32) MarshalJSON() ([]byte, error)  { return json.Marshal(id.String()) }
func (id ID16) MarshalJSON() ([]byte, error)  { return json.Marshal(id.String()) }

// MarshalText/UnmarshalText let ID32/ID16 serve as JSON object keys
// (encoding/json only accepts map keys whose type implements
// encoding.TextMarshaler, is a string, or is an integer), which the
// journal and choreography packages rely on for maps keyed by
// AuthorityId/DeviceId/GuardianId.
func (id ID32) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ID16) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ID32) UnmarshalText(text []byte) error {
	parsed, err := ID32FromString(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ID16) UnmarshalText(text []byte) error {
	parsed, err := ID16FromString(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ID32) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ID32FromString(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ID16) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ID16FromString(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ID32FromBytes copies b into a new ID32. b must be exactly 32 bytes.
func ID32FromBytes(b []byte) (ID32, error) {
	var id ID32
	if len(b) != len(id) {
		return id, fmt.Errorf("ids: expected %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ID16FromBytes copies b into a new ID16. b must be exactly 16 bytes.
func ID16FromBytes(b []byte) (ID16, error) {
	var id ID16
	if len(b) != len(id) {
		return id, fmt.Errorf("ids: expected %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

func ID32FromString(s string) (ID32, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID32{}, err
	}
	return ID32FromBytes(b)
}

func ID16FromString(s string) (ID16, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID16{}, err
	}
	return ID16FromBytes(b)
}

// GenerateID32 draws a fresh random ID32 from the given entropy source.
// Passing nil uses crypto/rand; tests and simulators should inject a
// deterministic source via effects.Effects.Random instead.
func GenerateID32(random func([]byte) error) (ID32, error) {
	var id ID32
	if random == nil {
		random = func(b []byte) error {
			_, err := rand.Read(b)
			return err
		}
	}
	if err := random(id[:]); err != nil {
		return id, err
	}
	return id, nil
}

func GenerateID16(random func([]byte) error) (ID16, error) {
	var id ID16
	if random == nil {
		random = func(b []byte) error {
			_, err := rand.Read(b)
			return err
		}
	}
	if err := random(id[:]); err != nil {
		return id, err
	}
	return id, nil
}

// Domain identifier aliases. All are 256-bit except DeviceId and
// GuardianId, which are 128-bit: devices and guardians are local to one
// account and don't need global collision resistance at 256 bits.
type (
	AccountId   = ID32
	AuthorityId = ID32
	ContextId   = ID32
	SessionId   = ID32
	EventId     = ID32
	Hash32      = ID32

	DeviceId   = ID16
	GuardianId = ID16
)
