package hashlattice_test

import (
	"testing"

	"github.com/hxrts/aura/hashlattice"
	"github.com/stretchr/testify/require"
)

func TestHashIsDeterministic(t *testing.T) {
	a := hashlattice.Hash([]byte("hello"))
	b := hashlattice.Hash([]byte("hello"))
	require.Equal(t, a, b)
}

func TestHashIsCollisionAvoidingForDistinctInputs(t *testing.T) {
	a := hashlattice.Hash([]byte("hello"))
	b := hashlattice.Hash([]byte("world"))
	require.NotEqual(t, a, b)
}

func TestChainLinkDependsOnParent(t *testing.T) {
	content := []byte("event")
	parentA := hashlattice.Hash([]byte("a"))
	parentB := hashlattice.Hash([]byte("b"))
	require.NotEqual(t, hashlattice.ChainLink(parentA, content), hashlattice.ChainLink(parentB, content))
}

func TestMerkle3IsOrderSensitivePerSlot(t *testing.T) {
	a, b, c := []byte("a"), []byte("b"), []byte("c")
	require.NotEqual(t, hashlattice.Merkle3(a, b, c), hashlattice.Merkle3(b, a, c),
		"swapping two slots must change the root; slots are domain-separated, not commutative")
	require.Equal(t, hashlattice.Merkle3(a, b, c), hashlattice.Merkle3(a, b, c))
}
