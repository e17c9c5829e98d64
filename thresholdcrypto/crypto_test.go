package thresholdcrypto_test

import (
	"testing"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/thresholdcrypto"
	"github.com/stretchr/testify/require"
)

func fixedRandom(seed byte) func([]byte) error {
	return func(b []byte) error {
		for i := range b {
			b[i] = seed
		}
		return nil
	}
}

func participants(t *testing.T, n int) []ids.AuthorityId {
	t.Helper()
	out := make([]ids.AuthorityId, n)
	for i := range out {
		id, err := ids.GenerateID32(fixedRandom(byte(i + 1)))
		require.NoError(t, err)
		out[i] = id
	}
	return out
}

func TestDKDDeterministicForIdenticalInputs(t *testing.T) {
	c := thresholdcrypto.NewDeterministicBackend()
	p := participants(t, 5)

	a, err := c.DeriveGroupKey([]byte("seed-12345"), p, 3)
	require.NoError(t, err)
	b, err := c.DeriveGroupKey([]byte("seed-12345"), p, 3)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, 32)
}

func TestDKDDifferentSeedsDiffer(t *testing.T) {
	c := thresholdcrypto.NewDeterministicBackend()
	p := participants(t, 5)

	a, err := c.DeriveGroupKey([]byte("seed-A"), p, 3)
	require.NoError(t, err)
	b, err := c.DeriveGroupKey([]byte("seed-B"), p, 3)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDKDOrderIndependentOverParticipants(t *testing.T) {
	c := thresholdcrypto.NewDeterministicBackend()
	p := participants(t, 3)
	reversed := []ids.AuthorityId{p[2], p[1], p[0]}

	a, err := c.DeriveGroupKey([]byte("seed"), p, 2)
	require.NoError(t, err)
	b, err := c.DeriveGroupKey([]byte("seed"), reversed, 2)
	require.NoError(t, err)
	require.Equal(t, a, b, "participant order must not affect the derived key; canonical ordering is internal")
}

func TestDKDRejectsInvalidThreshold(t *testing.T) {
	c := thresholdcrypto.NewDeterministicBackend()
	p := participants(t, 3)
	_, err := c.DeriveGroupKey([]byte("seed"), p, 0)
	require.Error(t, err)
	_, err = c.DeriveGroupKey([]byte("seed"), p, 4)
	require.Error(t, err)
}

func TestFrostAggregateIsDeterministicAndExcludesAbsentShares(t *testing.T) {
	c := thresholdcrypto.NewDeterministicBackend()
	p := participants(t, 4)
	groupKey, err := c.DeriveGroupKey([]byte("seed"), p, 3)
	require.NoError(t, err)

	msgHash := c.Hash([]byte("message"))
	shares := map[ids.AuthorityId]thresholdcrypto.Share{}
	for i, authority := range p[:3] {
		sk, _, err := c.GenerateKey(fixedRandom(byte(10 + i)))
		require.NoError(t, err)
		_, nonce, err := c.FrostCommit(sk, fixedRandom(byte(20+i)))
		require.NoError(t, err)
		share, err := c.FrostSignShare(sk, nonce, msgHash, nil)
		require.NoError(t, err)
		shares[authority] = share
	}

	sigA, err := c.FrostAggregate(msgHash, shares, groupKey)
	require.NoError(t, err)
	sigB, err := c.FrostAggregate(msgHash, shares, groupKey)
	require.NoError(t, err)
	require.Equal(t, sigA, sigB)

	delete(shares, p[0])
	sigExcluding, err := c.FrostAggregate(msgHash, shares, groupKey)
	require.NoError(t, err)
	require.NotEqual(t, sigA, sigExcluding, "excluding a contributor must change the aggregate")
}

func TestFrostAggregateRejectsEmptyShares(t *testing.T) {
	c := thresholdcrypto.NewDeterministicBackend()
	_, err := c.FrostAggregate(c.Hash([]byte("m")), map[ids.AuthorityId]thresholdcrypto.Share{}, []byte("pk"))
	require.Error(t, err)
}
