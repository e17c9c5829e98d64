package choreography_test

import (
	"testing"
	"time"

	"github.com/hxrts/aura/effects"
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/log"
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

// testEffects returns a fully deterministic effect bundle: a fixed
// clock, seeded entropy, a no-op logger, and the reference crypto
// backend — the simulator configuration spec.md §9 calls for.
func testEffects(seedByte byte) effects.Effects {
	return testEffectsAt(seedByte, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

// testEffectsAt is testEffects with an explicit clock, for tests that
// need to advance time between calls (e.g. a cooldown window).
func testEffectsAt(seedByte byte, at time.Time) effects.Effects {
	clock := at.UnixMilli()
	return effects.Effects{
		Now:    func() int64 { return clock },
		Random: fixedRandom(seedByte),
		Log:    log.NewNoOpLogger(),
		Crypto: thresholdcrypto.NewDeterministicBackend(),
	}
}
