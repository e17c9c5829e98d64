package choreography_test

import (
	"testing"

	"github.com/hxrts/aura/choreography"
	"github.com/hxrts/aura/effects"
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/thresholdcrypto"
	"github.com/stretchr/testify/require"
)

// buildKeys generates one deterministic secret share per participant.
func buildKeys(t *testing.T, eff effects.Effects, p []ids.AuthorityId) map[ids.AuthorityId]thresholdcrypto.SecretKey {
	t.Helper()
	out := make(map[ids.AuthorityId]thresholdcrypto.SecretKey, len(p))
	for i, authority := range p {
		sk, _, err := eff.Crypto.GenerateKey(fixedRandom(byte(50 + i)))
		require.NoError(t, err)
		out[authority] = sk
	}
	return out
}

// honestSubmissions runs the commit+share-exchange steps honestly for
// every participant in keys, producing one ShareSubmission each.
func honestSubmissions(t *testing.T, eff effects.Effects, keys map[ids.AuthorityId]thresholdcrypto.SecretKey, msgHash ids.Hash32) []choreography.ShareSubmission {
	t.Helper()
	commitments := map[ids.AuthorityId]thresholdcrypto.Commitment{}
	nonces := map[ids.AuthorityId]thresholdcrypto.Nonce{}
	for authority, sk := range keys {
		commitment, nonce, err := eff.Crypto.FrostCommit(sk, fixedRandom(byte(80)))
		require.NoError(t, err)
		commitments[authority] = commitment
		nonces[authority] = nonce
	}

	out := make([]choreography.ShareSubmission, 0, len(keys))
	for authority, sk := range keys {
		share, err := eff.Crypto.FrostSignShare(sk, nonces[authority], msgHash, commitments)
		require.NoError(t, err)
		out = append(out, choreography.ShareSubmission{Authority: authority, Shares: [][]byte{share}})
	}
	return out
}

func TestRunThresholdSigningCompletesWithFullQuorum(t *testing.T) {
	p := participants(t, 5)
	eff := testEffects(1)
	store := journal.NewMemStore(mustAccountID(t))

	groupKey, err := eff.Crypto.DeriveGroupKey([]byte("seed"), p, 3)
	require.NoError(t, err)

	msgHash := eff.Crypto.Hash([]byte("message"))
	sess := choreography.NewSession(mustAccountID(t), "ThresholdSigning", p, 3)

	keysByAuth := buildKeys(t, eff, p)
	submissions := honestSubmissions(t, eff, keysByAuth, msgHash)

	result, err := choreography.RunThresholdSigning(store, eff, sess, groupKey, keysByAuth, msgHash, submissions)
	require.NoError(t, err)
	require.Len(t, result.Participants, 5)
	require.Equal(t, choreography.StateCompleted, result.Session.State)
}

func TestRunThresholdSigningExcludesEquivocatorButCompletesWithRemainingQuorum(t *testing.T) {
	p := participants(t, 5)
	eff := testEffects(1)
	store := journal.NewMemStore(mustAccountID(t))

	groupKey, err := eff.Crypto.DeriveGroupKey([]byte("seed"), p, 3)
	require.NoError(t, err)

	msgHash := eff.Crypto.Hash([]byte("message"))
	sess := choreography.NewSession(mustAccountID(t), "ThresholdSigning", p, 3)

	keysByAuth := buildKeys(t, eff, p)
	submissions := honestSubmissions(t, eff, keysByAuth, msgHash)

	// The first canonically-ordered participant submits two different
	// share-reveals in the same round: equivocation (spec.md §8
	// scenario 2).
	equivocator := choreography.CanonicalOrder(p)[0]
	for i, sub := range submissions {
		if sub.Authority == equivocator {
			submissions[i].Shares = append(submissions[i].Shares, []byte("a conflicting reveal"))
		}
	}

	result, err := choreography.RunThresholdSigning(store, eff, sess, groupKey, keysByAuth, msgHash, submissions)
	require.NoError(t, err)

	require.True(t, sess.IsByzantine(equivocator))
	require.Len(t, result.Participants, 4)
	for _, a := range result.Participants {
		require.NotEqual(t, equivocator, a)
	}
	require.Equal(t, choreography.CanonicalOrder(result.Participants), result.Participants)
}

func TestRunThresholdSigningFailsBelowThresholdHonestParticipants(t *testing.T) {
	p := participants(t, 5)
	eff := testEffects(1)
	store := journal.NewMemStore(mustAccountID(t))

	groupKey, err := eff.Crypto.DeriveGroupKey([]byte("seed"), p, 3)
	require.NoError(t, err)
	msgHash := eff.Crypto.Hash([]byte("message"))
	sess := choreography.NewSession(mustAccountID(t), "ThresholdSigning", p, 3)

	// Only two participants have keys/submissions: below the threshold
	// of 3.
	small := p[:2]
	keysByAuth := buildKeys(t, eff, small)
	submissions := honestSubmissions(t, eff, keysByAuth, msgHash)

	_, err = choreography.RunThresholdSigning(store, eff, sess, groupKey, keysByAuth, msgHash, submissions)
	require.Error(t, err)
	require.Equal(t, choreography.StateFailed, sess.State)
}
