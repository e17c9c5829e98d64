// Package guard implements the send-site predicate (spec.md §4.3): a
// CapGuard -> FlowGuard -> JournalCoupler pipeline that every outbound
// message passes through before it becomes observable.
package guard

import (
	"fmt"
	"time"

	"github.com/hxrts/aura/capability"
	"github.com/hxrts/aura/effects"
	"github.com/hxrts/aura/flowbudget"
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/metrics"
)

// SendGuard is the request evaluated by the chain: who is sending,
// what kind of message, under which context, and at what cost.
type SendGuard struct {
	Authority   ids.AuthorityId
	Context     ids.ContextId
	Peer        ids.AuthorityId
	MessageKind capability.Capability
	Cost        uint64
	Nonce       uint64
	Now         time.Time

	// OperationID, if non-empty, ties this send to a JournalCoupler
	// annotation (spec.md §4.3 "JournalCoupler (optional)").
	OperationID ids.EventId
}

// DenyReason is the typed first-failing-reason a denial carries.
type DenyReason string

const (
	DenyMissingCapability DenyReason = "missing_capability"
	DenyInsufficientBudget DenyReason = "insufficient_budget"
	DenyCircuitOpen       DenyReason = "circuit_open"
	DenyRateLimited       DenyReason = "rate_limited"
	DenyCouplingFailed    DenyReason = "coupling_failed"
)

// SendGuardResult is the outcome of evaluate: either Allowed with a
// flowbudget.Receipt, or Denied with a typed reason and message.
type SendGuardResult struct {
	Allowed bool
	Receipt flowbudget.Receipt
	Reason  DenyReason
	Message string
}

// JournalAnnotation is the delta a JournalCoupler applies after (or
// before, in optimistic mode) a successful send.
type JournalAnnotation struct {
	OperationID ids.EventId
	Apply       func() error
}

// CouplingMode selects whether the coupler runs before or after the
// send (spec.md §4.3).
type CouplingMode int

const (
	CouplingPessimistic CouplingMode = iota
	CouplingOptimistic
)

// Chain is the CapGuard -> FlowGuard -> JournalCoupler pipeline bound
// to one authority graph and one flow-budget ledger.
type Chain struct {
	Graph   *capability.AuthorityGraph
	Budget  *flowbudget.Ledger
	Mode    CouplingMode
	Coupler func(annotation JournalAnnotation) error

	// RetryBackoff bounds the exponential backoff between coupling
	// retries in pessimistic mode (spec.md §4.3).
	RetryBackoff []time.Duration

	// Metrics is optional; a nil value (the zero Chain) silently skips
	// all counter increments.
	Metrics *metrics.GuardMetrics
}

func defaultBackoff() []time.Duration {
	return []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
}

// NewChain builds a Chain with the default bounded-backoff schedule.
func NewChain(graph *capability.AuthorityGraph, budget *flowbudget.Ledger, mode CouplingMode) *Chain {
	return &Chain{Graph: graph, Budget: budget, Mode: mode, RetryBackoff: defaultBackoff()}
}

// Evaluate runs the chain: CapGuard, then FlowGuard, then (if an
// annotation is non-nil) the JournalCoupler. doSend, the caller's actual
// network send, always runs after FlowGuard's charge: in pessimistic
// mode the coupler runs after doSend, in optimistic mode the coupler
// runs after the charge and before doSend.
func (c *Chain) Evaluate(sg SendGuard, eff effects.Effects, doSend func() error, annotation *JournalAnnotation) SendGuardResult {
	if !c.capGuard(sg) {
		c.Metrics.RecordDenial(string(DenyMissingCapability))
		eff.Log.Warn("guard denial", "reason", string(DenyMissingCapability), "authority", sg.Authority.String(), "peer", sg.Peer.String(), "kind", sg.MessageKind.String())
		return SendGuardResult{
			Allowed: false,
			Reason:  DenyMissingCapability,
			Message: fmt.Sprintf("authority %s lacks capability for %s", sg.Authority.String(), sg.MessageKind.String()),
		}
	}

	receipt, flowErr := c.Budget.Charge(sg.Context, sg.Peer, sg.Cost, sg.Nonce)
	if flowErr != nil {
		result := c.flowDenial(sg, flowErr)
		c.Metrics.RecordDenial(string(result.Reason))
		eff.Log.Warn("guard denial", "reason", string(result.Reason), "authority", sg.Authority.String(), "peer", sg.Peer.String(), "kind", sg.MessageKind.String())
		return result
	}

	if annotation != nil && c.Mode == CouplingOptimistic {
		if err := c.coupleWithRetry(*annotation); err != nil {
			// Optimistic: the coupling stands even if send fails, since
			// CRDT monotonicity makes this safe (spec.md §4.3).
			c.Metrics.RecordDenial(string(DenyCouplingFailed))
			eff.Log.Warn("guard denial", "reason", string(DenyCouplingFailed), "authority", sg.Authority.String(), "peer", sg.Peer.String(), "error", err)
			return SendGuardResult{Allowed: false, Reason: DenyCouplingFailed, Message: err.Error()}
		}
	}

	if doSend != nil {
		if err := doSend(); err != nil {
			c.Budget.RecordFailure(sg.Context, sg.Peer)
			eff.Log.Warn("guard send failed", "authority", sg.Authority.String(), "peer", sg.Peer.String(), "error", err)
			return SendGuardResult{Allowed: false, Receipt: receipt, Message: err.Error()}
		}
		c.Budget.RecordSuccess(sg.Context, sg.Peer)
	}

	if annotation != nil && c.Mode == CouplingPessimistic {
		if err := c.coupleWithRetry(*annotation); err != nil {
			c.Metrics.RecordDenial(string(DenyCouplingFailed))
			eff.Log.Warn("guard denial", "reason", string(DenyCouplingFailed), "authority", sg.Authority.String(), "peer", sg.Peer.String(), "error", err)
			return SendGuardResult{Allowed: false, Receipt: receipt, Reason: DenyCouplingFailed, Message: err.Error()}
		}
	}

	c.Metrics.RecordSend()
	eff.Log.Debug("guard send allowed", "authority", sg.Authority.String(), "peer", sg.Peer.String(), "kind", sg.MessageKind.String())
	return SendGuardResult{Allowed: true, Receipt: receipt}
}

// capGuard validates need(message_kind) <= Auth(ctx) by evaluating the
// authority graph and checking Permits. Tie-break among satisfying
// delegations is immaterial because authorization is monotone (spec.md
// §4.3), so Evaluate doesn't need to pick one explicitly.
func (c *Chain) capGuard(sg SendGuard) bool {
	caps := c.Graph.Evaluate(sg.Authority, capability.EvaluationContext{Now: sg.Now, Operation: sg.MessageKind.Op}, 0)
	return caps.Permits(sg.MessageKind)
}

// flowDenial translates a flowbudget denial into the chain's reason.
// CapGuard has already passed when it runs (a capability failure
// returns before the charge), so capability and budget failures are
// never combined into one denial.
func (c *Chain) flowDenial(sg SendGuard, err error) SendGuardResult {
	var reason DenyReason
	var fbErr *flowbudget.DeniedError
	if ok := asFlowbudgetDenied(err, &fbErr); ok {
		switch fbErr.Reason {
		case flowbudget.DenyCircuitOpen:
			reason = DenyCircuitOpen
		case flowbudget.DenyRateLimited:
			reason = DenyRateLimited
		default:
			reason = DenyInsufficientBudget
		}
	} else {
		reason = DenyInsufficientBudget
	}
	return SendGuardResult{Allowed: false, Reason: reason, Message: err.Error()}
}

func asFlowbudgetDenied(err error, target **flowbudget.DeniedError) bool {
	de, ok := err.(*flowbudget.DeniedError)
	if ok {
		*target = de
	}
	return ok
}

// coupleWithRetry applies annotation via c.Coupler, retrying with
// bounded exponential backoff on failure. Both modes use the same retry
// schedule; with a nil Coupler, annotation.Apply runs once with no
// retry.
func (c *Chain) coupleWithRetry(annotation JournalAnnotation) error {
	if c.Coupler == nil {
		return annotation.Apply()
	}
	var lastErr error
	for attempt := 0; attempt <= len(c.RetryBackoff); attempt++ {
		if lastErr = c.Coupler(annotation); lastErr == nil {
			return nil
		}
		if attempt < len(c.RetryBackoff) {
			c.Metrics.RecordCouplingRetry()
			time.Sleep(c.RetryBackoff[attempt])
		}
	}
	return lastErr
}
