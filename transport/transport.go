// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transport abstracts peer-to-peer delivery for the
// choreography engine and sync/gossip layer (spec.md §4.6, §6): send,
// receive, broadcast, peer presence, and a retrying send wrapper fused
// with a circuit breaker.
package transport

import (
	"fmt"
	"time"

	"github.com/hxrts/aura/ids"
)

// Message is one envelope exchanged between two authorities. Payload is
// an opaque, already-serialised blob — the choreography engine owns
// interpreting it.
type Message struct {
	From    ids.AuthorityId
	To      ids.AuthorityId
	Payload []byte
}

// PeerEventKind tags a connectivity change.
type PeerEventKind int

const (
	PeerConnected PeerEventKind = iota
	PeerDisconnected
)

// PeerEvent is delivered to subscribers of SubscribePeerEvents.
type PeerEvent struct {
	Peer ids.AuthorityId
	Kind PeerEventKind
}

// Transport is the send-site's view of the network (spec.md §4.6,
// §6's "Transport trait (outbound)").
type Transport interface {
	Send(peer ids.AuthorityId, msg Message) error
	Receive() (Message, error)
	ReceiveFrom(peer ids.AuthorityId) (Message, error)
	Broadcast(msg Message) error
	ConnectedPeers() []ids.AuthorityId
	IsPeerConnected(peer ids.AuthorityId) bool
	SubscribePeerEvents() <-chan PeerEvent
}

// PeerUnreachable is returned when peer has no known route.
type PeerUnreachable struct{ Peer ids.AuthorityId }

func (e *PeerUnreachable) Error() string { return fmt.Sprintf("transport: peer %s unreachable", e.Peer) }

// ReceiveFailed wraps a lower-level receive failure.
type ReceiveFailed struct{ Reason string }

func (e *ReceiveFailed) Error() string { return fmt.Sprintf("transport: receive failed: %s", e.Reason) }

// Timeout is returned when operation didn't complete within timeout.
type Timeout struct {
	Operation string
	TimeoutMS int64
}

func (e *Timeout) Error() string {
	return fmt.Sprintf("transport: %s timed out after %dms", e.Operation, e.TimeoutMS)
}

// RateLimitExceeded is returned by a rate-limited transport decorator.
type RateLimitExceeded struct {
	Limit     int
	WindowMS  int64
}

func (e *RateLimitExceeded) Error() string {
	return fmt.Sprintf("transport: rate limit %d/%dms exceeded", e.Limit, e.WindowMS)
}

// CircuitBreakerOpen is returned by SendWithRetry when the breaker is
// open for peer.
type CircuitBreakerOpen struct{ Reason string }

func (e *CircuitBreakerOpen) Error() string { return fmt.Sprintf("transport: circuit breaker open: %s", e.Reason) }

// RetriesExhausted is returned by SendWithRetry once max_attempts is
// reached without a successful send.
type RetriesExhausted struct {
	Attempts  int
	LastError error
}

func (e *RetriesExhausted) Error() string {
	return fmt.Sprintf("transport: retries exhausted after %d attempts: %v", e.Attempts, e.LastError)
}

// NetworkPartition indicates the local node believes it's split from
// the rest of the network (used by tests/the simulator to model this
// directly, rather than inferring it from timeouts).
type NetworkPartition struct{ Details string }

func (e *NetworkPartition) Error() string { return fmt.Sprintf("transport: network partition: %s", e.Details) }

// RetryConfig parameterises SendWithRetry.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig matches spec.md §4.6's retry policy shape.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 5, InitialDelay: 50 * time.Millisecond, MaxDelay: 2 * time.Second}
}
