// Package flowbudget implements the per-(context,peer) flow-budget
// ledger (spec.md §4.5): balance charging, a sliding-window rate
// limiter, and a consecutive-failure circuit breaker, composed into one
// Charge algorithm the guard chain's FlowGuard calls on every send.
package flowbudget

import (
	"fmt"
	"sync"
	"time"

	"github.com/hxrts/aura/ids"
)

// CircuitState mirrors spec's Closed/Open{opened_at}/HalfOpen breaker
// states, modelled on the teacher's networking/benchlist manager
// (consecutive-failure counter + benched-until deadline), generalized
// here into an explicit three-state machine with a single probe in
// HalfOpen instead of benchlist's "benched or not" binary.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (c CircuitState) String() string {
	switch c {
	case CircuitClosed:
		return "Closed"
	case CircuitOpen:
		return "Open"
	case CircuitHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

// Config parameterises one ledger instance. ThresholdK consecutive
// failures opens the circuit; RecoveryT is how long it stays open
// before allowing one HalfOpen probe.
type Config struct {
	ThresholdK     int
	RecoveryT      time.Duration
	RateWindow     time.Duration
	RateLimit      int
}

// DefaultConfig matches spec.md §8's example parameters.
func DefaultConfig() Config {
	return Config{
		ThresholdK: 5,
		RecoveryT:  30 * time.Second,
		RateWindow: time.Second,
		RateLimit:  100,
	}
}

// Receipt uniquely binds a successful charge to the budget that
// authorised it. Receipts are opaque to callers beyond their fields.
type Receipt struct {
	Context   ids.ContextId
	Peer      ids.AuthorityId
	Cost      uint64
	Nonce     uint64
	ChargedAt time.Time
}

// DenyReason is the typed reason a Charge was denied.
type DenyReason string

const (
	DenyCircuitOpen     DenyReason = "circuit_open"
	DenyRateLimited     DenyReason = "rate_limited"
	DenyInsufficientBalance DenyReason = "insufficient_balance"
)

// DeniedError is returned by Charge on denial.
type DeniedError struct {
	Reason DenyReason
}

func (e *DeniedError) Error() string { return fmt.Sprintf("flowbudget: charge denied: %s", e.Reason) }

type peerKey struct {
	context ids.ContextId
	peer    ids.AuthorityId
}

// entry is the per-(context,peer) mutable state.
type entry struct {
	balance          uint64
	window           []time.Time
	circuit          CircuitState
	consecutiveFails int
	openedAt         time.Time
	nextNonce        uint64
}

// Ledger is the flow-budget store for one account. It is safe for
// concurrent use.
type Ledger struct {
	mu      sync.Mutex
	cfg     Config
	entries map[peerKey]*entry
	now     func() time.Time
}

// New creates a Ledger. now defaults to time.Now if nil; tests and the
// simulator should inject effects.Effects.Now instead.
func New(cfg Config, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{cfg: cfg, entries: map[peerKey]*entry{}, now: now}
}

// SetBalance seeds or tops up the balance for (ctx, peer). Production
// callers typically fund budgets out-of-band (e.g. via a
// CapabilityGrant-adjacent journal event); tests call this directly.
func (l *Ledger) SetBalance(ctx ids.ContextId, peer ids.AuthorityId, balance uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entryFor(peerKey{ctx, peer}).balance = balance
}

func (l *Ledger) entryFor(k peerKey) *entry {
	e, ok := l.entries[k]
	if !ok {
		e = &entry{circuit: CircuitClosed}
		l.entries[k] = e
	}
	return e
}

// Charge runs the four-step algorithm from spec.md §4.5: circuit check,
// rate check, balance check, then decrement + record + receipt. Charge
// is the sole place an emission becomes observable — "charge-before-
// send" (spec.md §4.3 law i).
func (l *Ledger) Charge(ctx ids.ContextId, peer ids.AuthorityId, cost uint64, nonce uint64) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entryFor(peerKey{ctx, peer})
	now := l.now()

	if open, err := l.checkCircuit(e, now); err != nil {
		return Receipt{}, err
	} else if open {
		return Receipt{}, &DeniedError{Reason: DenyCircuitOpen}
	}

	if !withinRateLimit(e, now, l.cfg.RateWindow, l.cfg.RateLimit) {
		return Receipt{}, &DeniedError{Reason: DenyRateLimited}
	}

	if e.balance < cost {
		return Receipt{}, &DeniedError{Reason: DenyInsufficientBalance}
	}

	// No rollback on success — receipts are monotone credits against
	// the budget (spec.md §4.3 law ii).
	e.balance -= cost
	e.window = append(e.window, now)
	if nonce >= e.nextNonce {
		e.nextNonce = nonce + 1
	}

	return Receipt{Context: ctx, Peer: peer, Cost: cost, Nonce: nonce, ChargedAt: now}, nil
}

// checkCircuit returns true if the charge must be denied: the circuit is
// Open, or HalfOpen with its single probe already let through. The
// Open -> HalfOpen transition, once RecoveryT has elapsed, admits that
// probe; RecordSuccess or RecordFailure then settles the state.
func (l *Ledger) checkCircuit(e *entry, now time.Time) (bool, error) {
	switch e.circuit {
	case CircuitOpen:
		if now.Sub(e.openedAt) >= l.cfg.RecoveryT {
			e.circuit = CircuitHalfOpen
			return false, nil
		}
		return true, nil
	case CircuitHalfOpen:
		return true, nil
	default:
		return false, nil
	}
}

// withinRateLimit implements the sliding-window algorithm: drop events
// older than the window from the head, then deny if the remaining count
// is already at the limit.
func withinRateLimit(e *entry, now time.Time, window time.Duration, limit int) bool {
	cutoff := now.Add(-window)
	kept := e.window[:0]
	for _, t := range e.window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	e.window = kept
	return len(e.window) < limit
}

// RecordFailure is called by the guard chain (or transport) when a send
// to peer under ctx failed after a successful charge — e.g. the
// transport couldn't reach the peer. Reaching ThresholdK consecutive
// failures opens the circuit; a HalfOpen probe failing re-opens it.
func (l *Ledger) RecordFailure(ctx ids.ContextId, peer ids.AuthorityId) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entryFor(peerKey{ctx, peer})
	now := l.now()

	if e.circuit == CircuitHalfOpen {
		e.circuit = CircuitOpen
		e.openedAt = now
		e.consecutiveFails = 0
		return
	}

	e.consecutiveFails++
	if e.consecutiveFails >= l.cfg.ThresholdK {
		e.circuit = CircuitOpen
		e.openedAt = now
		e.consecutiveFails = 0
	}
}

// RecordSuccess clears the consecutive-failure count and, from
// HalfOpen, closes the circuit (the probe succeeded).
func (l *Ledger) RecordSuccess(ctx ids.ContextId, peer ids.AuthorityId) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entryFor(peerKey{ctx, peer})
	e.consecutiveFails = 0
	if e.circuit == CircuitHalfOpen {
		e.circuit = CircuitClosed
	}
}

// State returns the current circuit state for (ctx, peer), for tests
// and observability.
func (l *Ledger) State(ctx ids.ContextId, peer ids.AuthorityId) CircuitState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entryFor(peerKey{ctx, peer}).circuit
}

// Balance returns the current balance for (ctx, peer).
func (l *Ledger) Balance(ctx ids.ContextId, peer ids.AuthorityId) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entryFor(peerKey{ctx, peer}).balance
}
