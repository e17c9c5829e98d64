package choreography_test

import (
	"testing"

	"github.com/hxrts/aura/choreography"
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/stretchr/testify/require"
)

func TestRunMembershipChangeAppliesWhenVotesMeetThreshold(t *testing.T) {
	p := participants(t, 5)
	eff := testEffects(1)
	store := journal.NewMemStore(mustAccountID(t))
	sess := choreography.NewSession(mustAccountID(t), "MembershipChange", p, 3)

	votes := map[ids.AuthorityId]bool{p[0]: true, p[1]: true, p[2]: true, p[3]: false}

	result, err := choreography.RunMembershipChange(store, eff, sess, 3, 2, 6, votes)
	require.NoError(t, err)
	require.True(t, result.Applied)
	require.Equal(t, 2, result.NewThreshold)
	require.Equal(t, 6, result.NewTotal)

	state, err := store.Fold()
	require.NoError(t, err)
	require.EqualValues(t, 2, state.Threshold)
	require.EqualValues(t, 6, state.TotalParticipants)
}

func TestRunMembershipChangeFailsWhenVotesBelowThreshold(t *testing.T) {
	p := participants(t, 5)
	eff := testEffects(1)
	store := journal.NewMemStore(mustAccountID(t))
	sess := choreography.NewSession(mustAccountID(t), "MembershipChange", p, 3)

	votes := map[ids.AuthorityId]bool{p[0]: true, p[1]: false}

	result, err := choreography.RunMembershipChange(store, eff, sess, 3, 2, 6, votes)
	require.NoError(t, err)
	require.False(t, result.Applied)
	require.Equal(t, choreography.StateFailed, sess.State)
}

func TestRunMembershipChangeRejectsThresholdOutOfBounds(t *testing.T) {
	p := participants(t, 5)
	eff := testEffects(1)
	store := journal.NewMemStore(mustAccountID(t))
	sess := choreography.NewSession(mustAccountID(t), "MembershipChange", p, 3)

	_, err := choreography.RunMembershipChange(store, eff, sess, 3, 7, 6, nil)
	require.Error(t, err)
}
