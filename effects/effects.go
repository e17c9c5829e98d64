// Package effects carries the injected effect bundle spec.md §9 requires
// in place of ambient globals: time, randomness, logging, and crypto are
// all fields on Effects, never package-level singletons. Storage is not
// part of the bundle; components take a journal.Store argument directly.
package effects

import (
	"crypto/rand"
	"time"

	"github.com/hxrts/aura/log"
	"github.com/hxrts/aura/thresholdcrypto"
)

// NowFunc returns the current wall-clock time in milliseconds since the
// Unix epoch; spec.md §9 Open Question 3 fixes all on-journal durations
// to milliseconds.
type NowFunc func() int64

// RandomFunc fills b with fresh entropy.
type RandomFunc func(b []byte) error

// Effects bundles every externally-observable effect a component may
// need, so that a simulator can supply a deterministic substitute keyed
// by a seed for reproducible runs (spec.md §9).
type Effects struct {
	Now    NowFunc
	Random RandomFunc
	Log    log.Logger
	Crypto thresholdcrypto.Crypto
}

// System returns the production effect bundle: real wall-clock time,
// crypto/rand entropy, a no-op logger (callers typically override Log),
// and the default simulated-but-deterministic crypto backend.
func System() Effects {
	return Effects{
		Now: func() int64 { return time.Now().UnixMilli() },
		Random: func(b []byte) error {
			_, err := rand.Read(b)
			return err
		},
		Log:    log.NewNoOpLogger(),
		Crypto: thresholdcrypto.NewDeterministicBackend(),
	}
}

// WithLogger returns a copy of e with Log replaced.
func (e Effects) WithLogger(l log.Logger) Effects {
	e.Log = l
	return e
}
