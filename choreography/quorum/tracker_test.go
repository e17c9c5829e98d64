package quorum_test

import (
	"testing"

	"github.com/hxrts/aura/choreography/quorum"
	"github.com/hxrts/aura/ids"
	"github.com/stretchr/testify/require"
)

func TestTrackerAchievesOnceThresholdMet(t *testing.T) {
	a, _ := ids.GenerateID32(nil)
	b, _ := ids.GenerateID32(nil)
	c, _ := ids.GenerateID32(nil)
	tr := quorum.NewTracker(2)

	tr.Add(a, true)
	require.False(t, tr.Check().Achieved)

	tr.Add(b, true)
	result := tr.Check()
	require.True(t, result.Achieved)
	require.Equal(t, 2, result.Count)

	tr.Add(c, false)
	require.True(t, tr.Check().Achieved, "a negative response from a third authority doesn't undo an already-met threshold")
}

func TestTrackerResetClearsVotesNotThreshold(t *testing.T) {
	a, _ := ids.GenerateID32(nil)
	tr := quorum.NewTracker(1)
	tr.Add(a, true)
	require.True(t, tr.Check().Achieved)

	tr.Reset()
	require.False(t, tr.Check().Achieved)
	require.Equal(t, 1, tr.GetThreshold())
}

func TestTrackerSetThresholdAppliesToFutureChecks(t *testing.T) {
	a, _ := ids.GenerateID32(nil)
	tr := quorum.NewTracker(1)
	tr.Add(a, true)
	require.True(t, tr.Check().Achieved)

	tr.SetThreshold(2)
	require.False(t, tr.Check().Achieved)
}
