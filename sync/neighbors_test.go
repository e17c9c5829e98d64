package sync_test

import (
	"testing"
	"time"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/sync"
	"github.com/stretchr/testify/require"
)

func TestPromoteRespectsMaxActiveNeighbors(t *testing.T) {
	cfg := sync.DefaultNeighborManagerConfig()
	cfg.MaxActiveNeighbors = 1
	mgr := sync.NewNeighborManager(cfg)

	a, err := ids.GenerateID32(nil)
	require.NoError(t, err)
	b, err := ids.GenerateID32(nil)
	require.NoError(t, err)

	require.True(t, mgr.Promote(a))
	require.False(t, mgr.Promote(b))
	require.Equal(t, sync.NeighborActive, mgr.State(a))
	require.Equal(t, sync.NeighborKnown, mgr.State(b))
}

func TestRecordFailureDemotesAfterThreshold(t *testing.T) {
	cfg := sync.DefaultNeighborManagerConfig()
	cfg.DemotionThreshold = 2
	mgr := sync.NewNeighborManager(cfg)

	peer, err := ids.GenerateID32(nil)
	require.NoError(t, err)
	mgr.Promote(peer)

	now := time.Now()
	mgr.RecordFailure(peer, now)
	require.Equal(t, sync.NeighborActive, mgr.State(peer))

	mgr.RecordFailure(peer, now)
	require.Equal(t, sync.NeighborKnown, mgr.State(peer))
}

func TestRecordFailureBacksOffAttemptsExponentially(t *testing.T) {
	cfg := sync.DefaultNeighborManagerConfig()
	cfg.DemotionThreshold = 100
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Minute
	mgr := sync.NewNeighborManager(cfg)

	peer, err := ids.GenerateID32(nil)
	require.NoError(t, err)
	now := time.Now()

	mgr.RecordFailure(peer, now)
	require.False(t, mgr.ReadyForAttempt(peer, now))
	require.True(t, mgr.ReadyForAttempt(peer, now.Add(2*time.Minute)))
}

func TestRecordSuccessResetsBackoff(t *testing.T) {
	mgr := sync.NewNeighborManager(sync.DefaultNeighborManagerConfig())
	peer, err := ids.GenerateID32(nil)
	require.NoError(t, err)
	now := time.Now()

	mgr.RecordFailure(peer, now)
	mgr.RecordSuccess(peer)
	require.True(t, mgr.ReadyForAttempt(peer, now))
}
