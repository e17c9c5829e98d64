package transport

import (
	"github.com/cenkalti/backoff/v4"

	"github.com/hxrts/aura/flowbudget"
	"github.com/hxrts/aura/ids"
)

// Breaker is the minimal circuit-breaker surface SendWithRetry consults
// before every attempt, satisfied by *flowbudget.Ledger so the same
// per-(context,peer) breaker state backs both the flow-budget charge
// and the transport retry loop.
type Breaker interface {
	State(ctx ids.ContextId, peer ids.AuthorityId) flowbudget.CircuitState
	RecordFailure(ctx ids.ContextId, peer ids.AuthorityId)
	RecordSuccess(ctx ids.ContextId, peer ids.AuthorityId)
}

// SendWithRetry wraps t.Send with exponential backoff (spec.md §4.6),
// re-checking the circuit breaker before every attempt and returning
// RetriesExhausted once cfg.MaxAttempts is reached. An attempt that finds
// the breaker open ends the loop at once with CircuitBreakerOpen.
func SendWithRetry(t Transport, ctx ids.ContextId, peer ids.AuthorityId, msg Message, cfg RetryConfig, breaker Breaker) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	b.MaxInterval = cfg.MaxDelay
	b.MaxElapsedTime = 0

	attempts := 0
	var lastErr error

	operation := func() error {
		attempts++
		if breaker != nil && breaker.State(ctx, peer) == flowbudget.CircuitOpen {
			lastErr = &CircuitBreakerOpen{Reason: "peer circuit open"}
			return backoff.Permanent(lastErr)
		}
		if err := t.Send(peer, msg); err != nil {
			lastErr = err
			if breaker != nil {
				breaker.RecordFailure(ctx, peer)
			}
			if attempts >= cfg.MaxAttempts {
				return backoff.Permanent(err)
			}
			return err
		}
		if breaker != nil {
			breaker.RecordSuccess(ctx, peer)
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithMaxRetries(b, uint64(cfg.MaxAttempts-1)))
	if err == nil {
		return nil
	}
	if open, ok := lastErr.(*CircuitBreakerOpen); ok {
		return open
	}
	return &RetriesExhausted{Attempts: attempts, LastError: lastErr}
}
