// Package log re-exports the structured logger interface used across
// the journal, guard chain, choreography engine, and transport so that
// effects.Effects can carry a single injectable Logger field. The no-op
// implementation used as effects' default lives in nolog.go.
package log

import (
	"github.com/luxfi/log"
)

// Logger is the structured logger interface threaded through
// effects.Effects. Production code gets a real logger from the caller;
// the simulator and unit tests use NewNoOpLogger.
type Logger = log.Logger