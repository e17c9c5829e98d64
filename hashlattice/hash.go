// Package hashlattice provides the stable content-hash primitive and the
// generic meet-semilattice trait that the capability lattice, the
// journal's hash chain, and the sync/gossip content-addressed envelopes
// all build on.
package hashlattice

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/hxrts/aura/ids"
)

// Hash computes the stable 32-byte content hash of an arbitrary
// canonically-encoded value. It is order-preserving only for identical
// byte sequences; two logically equal values must already agree on their
// canonical JSON encoding (sorted map keys, explicit field order) before
// being hashed, which is the codec package's job, not this one's.
func Hash(b []byte) ids.Hash32 {
	return ids.Hash32(sha256.Sum256(b))
}

// HashJSON canonically encodes v and returns its content hash. Field
// order is controlled by v's declared struct tags; map-typed fields must
// be avoided or pre-sorted by the caller for true canonicality.
func HashJSON(v any) (ids.Hash32, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return ids.Hash32{}, err
	}
	return Hash(b), nil
}

// ChainLink folds a new value into a hash chain: the parent hash is
// domain-separated from the new content so that chaining is not
// confusable with hashing either alone. This is the journal's
// parent_hash construction (spec.md §3, §4.1).
func ChainLink(parent ids.Hash32, content []byte) ids.Hash32 {
	buf := make([]byte, 0, 1+len(parent)+len(content))
	buf = append(buf, 0x01)
	buf = append(buf, parent[:]...)
	buf = append(buf, content...)
	return Hash(buf)
}

// Merkle3 binds three independent roots into one 32-byte digest using
// domain-separated leaves, the way the teacher's crypto/binding.Merkle3
// binds a message root, a BLS aggregate, and a post-quantum batch into
// one commitment. Here it underlies DkdCommitmentRoot composition:
// binding the seed commitment, the participant-set root, and the
// threshold into one root (see thresholdcrypto.DeriveGroupKey).
func Merkle3(a, b, c []byte) ids.Hash32 {
	l0 := Hash(append([]byte{0}, a...))
	l1 := Hash(append([]byte{1}, b...))
	l2 := Hash(append([]byte{2}, c...))
	buf := make([]byte, 0, 3*32)
	buf = append(buf, l0[:]...)
	buf = append(buf, l1[:]...)
	buf = append(buf, l2[:]...)
	return Hash(buf)
}
