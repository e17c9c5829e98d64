package flowbudget_test

import (
	"testing"
	"time"

	"github.com/hxrts/aura/flowbudget"
	"github.com/hxrts/aura/ids"
	"github.com/stretchr/testify/require"
)

func TestChargeDeniesWhenBalanceInsufficient(t *testing.T) {
	now := func() time.Time { return time.Unix(0, 0) }
	ledger := flowbudget.New(flowbudget.DefaultConfig(), now)
	ctx, _ := ids.GenerateID32(nil)
	peer, _ := ids.GenerateID32(nil)
	ledger.SetBalance(ctx, peer, 5)

	_, err := ledger.Charge(ctx, peer, 10, 1)
	require.Error(t, err)
	var denied *flowbudget.DeniedError
	require.ErrorAs(t, err, &denied)
	require.Equal(t, flowbudget.DenyInsufficientBalance, denied.Reason)
}

func TestChargeSucceedsAndDecrementsBalance(t *testing.T) {
	now := func() time.Time { return time.Unix(0, 0) }
	ledger := flowbudget.New(flowbudget.DefaultConfig(), now)
	ctx, _ := ids.GenerateID32(nil)
	peer, _ := ids.GenerateID32(nil)
	ledger.SetBalance(ctx, peer, 100)

	receipt, err := ledger.Charge(ctx, peer, 10, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(10), receipt.Cost)
	require.Equal(t, uint64(90), ledger.Balance(ctx, peer))
}

func TestRateLimitDeniesBeyondWindowLimit(t *testing.T) {
	start := time.Unix(0, 0)
	cur := start
	now := func() time.Time { return cur }
	cfg := flowbudget.DefaultConfig()
	cfg.RateWindow = time.Second
	cfg.RateLimit = 3
	ledger := flowbudget.New(cfg, now)
	ctx, _ := ids.GenerateID32(nil)
	peer, _ := ids.GenerateID32(nil)
	ledger.SetBalance(ctx, peer, 1000)

	for i := 0; i < 3; i++ {
		_, err := ledger.Charge(ctx, peer, 1, uint64(i))
		require.NoError(t, err)
	}
	_, err := ledger.Charge(ctx, peer, 1, 3)
	require.Error(t, err)
	var denied *flowbudget.DeniedError
	require.ErrorAs(t, err, &denied)
	require.Equal(t, flowbudget.DenyRateLimited, denied.Reason)

	cur = cur.Add(2 * time.Second)
	_, err = ledger.Charge(ctx, peer, 1, 4)
	require.NoError(t, err, "window should have slid past the earlier charges")
}

func TestCircuitBreakerOpensAfterConsecutiveFailuresThenRecovers(t *testing.T) {
	start := time.Unix(0, 0)
	cur := start
	now := func() time.Time { return cur }
	cfg := flowbudget.Config{ThresholdK: 3, RecoveryT: 10 * time.Second, RateWindow: time.Second, RateLimit: 1000}
	ledger := flowbudget.New(cfg, now)
	ctx, _ := ids.GenerateID32(nil)
	peer, _ := ids.GenerateID32(nil)
	ledger.SetBalance(ctx, peer, 1000)

	for i := 0; i < 3; i++ {
		ledger.RecordFailure(ctx, peer)
	}
	require.Equal(t, flowbudget.CircuitOpen, ledger.State(ctx, peer))

	_, err := ledger.Charge(ctx, peer, 1, 1)
	require.Error(t, err)
	var denied *flowbudget.DeniedError
	require.ErrorAs(t, err, &denied)
	require.Equal(t, flowbudget.DenyCircuitOpen, denied.Reason)

	cur = cur.Add(11 * time.Second)
	receipt, err := ledger.Charge(ctx, peer, 1, 1)
	require.NoError(t, err, "half-open probe should be allowed through")
	require.Equal(t, flowbudget.CircuitHalfOpen, ledger.State(ctx, peer))
	_ = receipt

	ledger.RecordSuccess(ctx, peer)
	require.Equal(t, flowbudget.CircuitClosed, ledger.State(ctx, peer))
}

func TestCircuitBreakerReopensOnFailedProbe(t *testing.T) {
	start := time.Unix(0, 0)
	cur := start
	now := func() time.Time { return cur }
	cfg := flowbudget.Config{ThresholdK: 2, RecoveryT: 5 * time.Second, RateWindow: time.Second, RateLimit: 1000}
	ledger := flowbudget.New(cfg, now)
	ctx, _ := ids.GenerateID32(nil)
	peer, _ := ids.GenerateID32(nil)

	ledger.RecordFailure(ctx, peer)
	ledger.RecordFailure(ctx, peer)
	require.Equal(t, flowbudget.CircuitOpen, ledger.State(ctx, peer))

	cur = cur.Add(6 * time.Second)
	ledger.SetBalance(ctx, peer, 10)
	_, err := ledger.Charge(ctx, peer, 1, 1)
	require.NoError(t, err)
	require.Equal(t, flowbudget.CircuitHalfOpen, ledger.State(ctx, peer))

	ledger.RecordFailure(ctx, peer)
	require.Equal(t, flowbudget.CircuitOpen, ledger.State(ctx, peer))
}
