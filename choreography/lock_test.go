package choreography_test

import (
	"testing"
	"time"

	"github.com/hxrts/aura/choreography"
	"github.com/hxrts/aura/ids"
	"github.com/stretchr/testify/require"
)

func TestLockAcquireRequiresMajorityAck(t *testing.T) {
	lock := choreography.NewLock()
	opID := mustAccountID(t)
	a, b, c := mustGuardianAuthority(t, 1), mustGuardianAuthority(t, 2), mustGuardianAuthority(t, 3)

	acquired, err := lock.Acquire(opID, "recovery", map[ids.AuthorityId]bool{a: true}, 3, time.Now())
	require.NoError(t, err)
	require.False(t, acquired)

	acquired, err = lock.Acquire(opID, "recovery", map[ids.AuthorityId]bool{a: true, b: true, c: false}, 3, time.Now())
	require.NoError(t, err)
	require.True(t, acquired)
	require.NotNil(t, lock.Holder())
}

func TestLockAcquireFailsWhileHeld(t *testing.T) {
	lock := choreography.NewLock()
	opID := mustAccountID(t)
	a, b := mustGuardianAuthority(t, 1), mustGuardianAuthority(t, 2)

	_, err := lock.Acquire(opID, "recovery", map[ids.AuthorityId]bool{a: true, b: true}, 2, time.Now())
	require.NoError(t, err)

	other := mustAccountID(t)
	_, err = lock.Acquire(other, "resharing", map[ids.AuthorityId]bool{a: true, b: true}, 2, time.Now())
	require.Error(t, err)
}

func TestLockReleaseOnTimeout(t *testing.T) {
	lock := choreography.NewLock()
	opID := mustAccountID(t)
	a, b := mustGuardianAuthority(t, 1), mustGuardianAuthority(t, 2)
	start := time.Now()

	_, err := lock.Acquire(opID, "recovery", map[ids.AuthorityId]bool{a: true, b: true}, 2, start)
	require.NoError(t, err)

	require.False(t, lock.ReleaseOnTimeout(start.Add(time.Minute), time.Hour))
	require.True(t, lock.ReleaseOnTimeout(start.Add(2*time.Hour), time.Hour))
	require.Nil(t, lock.Holder())
}

func mustGuardianAuthority(t *testing.T, seed byte) ids.AuthorityId {
	t.Helper()
	id, err := ids.GenerateID32(fixedRandom(seed))
	require.NoError(t, err)
	return id
}
