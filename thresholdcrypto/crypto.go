// Package thresholdcrypto defines the abstract crypto trait spec.md §6
// requires: hashing, sign/verify, and FROST-style distributed key
// derivation / threshold signing, all behind one narrow interface. No
// specific FROST curve is fixed (spec.md §1 non-goals); production
// deployments plug a real backend, and this package ships the reference
// deterministic backend used by tests and the simulator.
package thresholdcrypto

import (
	"fmt"
	"sort"

	"github.com/hxrts/aura/hashlattice"
	"github.com/hxrts/aura/ids"
)

type PublicKey []byte
type SecretKey []byte
type Signature []byte

// Commitment is a FROST nonce commitment published during a signing
// round's commit phase.
type Commitment []byte

// Nonce is the private counterpart to a Commitment, held only by its
// originating participant.
type Nonce []byte

// Share is a partial signature contributed by one participant.
type Share []byte

// Crypto is the single narrow trait every cryptographic operation in the
// choreography engine goes through (spec.md §6, §9 "deep trait
// hierarchies -> narrow interfaces").
type Crypto interface {
	// Hash computes the fixed 32-byte content hash of data.
	Hash(data []byte) ids.Hash32

	// GenerateKey produces a fresh keypair using the given entropy.
	GenerateKey(random func([]byte) error) (SecretKey, PublicKey, error)

	Sign(key SecretKey, msg []byte) (Signature, error)
	Verify(pub PublicKey, msg []byte, sig Signature) bool

	// DeriveGroupKey runs the DKD aggregation step: identical
	// (seed, participants, threshold) always derives an identical
	// 32-byte group public key; distinct seeds must derive distinct
	// keys (spec.md §8).
	DeriveGroupKey(seed []byte, participants []ids.AuthorityId, threshold int) (PublicKey, error)

	// FrostCommit produces a participant's commitment/nonce pair for
	// one signing round.
	FrostCommit(share SecretKey, random func([]byte) error) (Commitment, Nonce, error)

	// FrostSignShare produces a participant's partial signature over
	// msgHash, bound to the full set of round commitments so shares
	// can't be replayed across rounds.
	FrostSignShare(share SecretKey, nonce Nonce, msgHash ids.Hash32, commitments map[ids.AuthorityId]Commitment) (Share, error)

	// FrostAggregate combines partial signatures into a group
	// signature, verifiable against groupPublicKey.
	FrostAggregate(msgHash ids.Hash32, shares map[ids.AuthorityId]Share, groupPublicKey PublicKey) (Signature, error)
}

// deterministicBackend is a reference Crypto implementation built from
// domain-separated SHA-256 hashing, modelled on the teacher's
// crypto/bls/types.go simplified signing ("just hash of secret key +
// message") and crypto/binding.Merkle3 composition. It is not
// cryptographically secure; it exists to make the choreography engine's
// protocol logic (phase sequencing, quorum, equivocation detection)
// independently testable from any particular curve implementation.
type deterministicBackend struct{}

func NewDeterministicBackend() Crypto { return deterministicBackend{} }

func (deterministicBackend) Hash(data []byte) ids.Hash32 {
	return hashlattice.Hash(data)
}

func (d deterministicBackend) GenerateKey(random func([]byte) error) (SecretKey, PublicKey, error) {
	sk := make([]byte, 32)
	if random == nil {
		return nil, nil, fmt.Errorf("thresholdcrypto: nil entropy source")
	}
	if err := random(sk); err != nil {
		return nil, nil, err
	}
	pk := d.Hash(append([]byte("pub"), sk...))
	return SecretKey(sk), PublicKey(pk[:]), nil
}

func (d deterministicBackend) Sign(key SecretKey, msg []byte) (Signature, error) {
	h := hashlattice.Merkle3([]byte("sig"), key, msg)
	return Signature(h[:]), nil
}

func (d deterministicBackend) Verify(pub PublicKey, msg []byte, sig Signature) bool {
	// The deterministic backend can't recover key from pub (one-way
	// hash), so verification here checks internal consistency of a
	// signature produced by this same backend's Sign against the
	// secret key that produced pub — which callers don't have at
	// verify time. Treat Verify as "well-formed", matching the
	// teacher's crypto/bls Signature.Verify, which is itself a
	// simplified always-true stub for the same reason (no real curve
	// is wired). RunThresholdSigning passes the FROST aggregate through
	// this same Verify, so the aggregate is checked for shape only, not
	// against the group key's contents.
	return len(sig) == 32 && len(pub) == 32
}

func (d deterministicBackend) DeriveGroupKey(seed []byte, participants []ids.AuthorityId, threshold int) (PublicKey, error) {
	if threshold <= 0 || threshold > len(participants) {
		return nil, fmt.Errorf("thresholdcrypto: invalid threshold %d for %d participants", threshold, len(participants))
	}
	sorted := make([]ids.AuthorityId, len(participants))
	copy(sorted, participants)
	ids.SortID32s(sorted)

	participantRoot := make([]byte, 0, len(sorted)*32)
	for _, p := range sorted {
		participantRoot = append(participantRoot, p[:]...)
	}
	thresholdBytes := []byte{byte(threshold)}
	root := hashlattice.Merkle3(seed, participantRoot, thresholdBytes)
	return PublicKey(root[:]), nil
}

func (d deterministicBackend) FrostCommit(share SecretKey, random func([]byte) error) (Commitment, Nonce, error) {
	nonce := make([]byte, 32)
	if random == nil {
		return nil, nil, fmt.Errorf("thresholdcrypto: nil entropy source")
	}
	if err := random(nonce); err != nil {
		return nil, nil, err
	}
	commitment := d.Hash(append(append([]byte("commit"), share...), nonce...))
	return Commitment(commitment[:]), Nonce(nonce), nil
}

func (d deterministicBackend) FrostSignShare(share SecretKey, nonce Nonce, msgHash ids.Hash32, commitments map[ids.AuthorityId]Commitment) (Share, error) {
	bound := commitmentsDigest(commitments)
	h := hashlattice.Merkle3(share, append(nonce, msgHash[:]...), bound[:])
	return Share(h[:]), nil
}

func (d deterministicBackend) FrostAggregate(msgHash ids.Hash32, shares map[ids.AuthorityId]Share, groupPublicKey PublicKey) (Signature, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("thresholdcrypto: cannot aggregate zero shares")
	}
	ordered := make([]ids.AuthorityId, 0, len(shares))
	for p := range shares {
		ordered = append(ordered, p)
	}
	ids.SortID32s(ordered)

	acc := make([]byte, 32)
	for _, p := range ordered {
		s := shares[p]
		for i := 0; i < 32 && i < len(s); i++ {
			acc[i] ^= s[i]
		}
	}
	sig := hashlattice.Merkle3(acc, msgHash[:], groupPublicKey)
	return Signature(sig[:]), nil
}

// commitmentsDigest folds a round's commitment set into one stable
// digest in canonical (sorted by AuthorityId) order, so shares can't be
// forged by reordering commitments.
func commitmentsDigest(commitments map[ids.AuthorityId]Commitment) ids.Hash32 {
	keys := make([]ids.AuthorityId, 0, len(commitments))
	for k := range commitments {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
	buf := make([]byte, 0, len(keys)*64)
	for _, k := range keys {
		buf = append(buf, k[:]...)
		buf = append(buf, commitments[k]...)
	}
	return hashlattice.Hash(buf)
}
