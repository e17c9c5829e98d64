package capability

import "errors"

// ErrDelegationDepthExceeded is returned when a token has propagated
// through more hops than any delegation along its chain allows
// (spec.md §4.2 "Delegation depth").
var ErrDelegationDepthExceeded = errors.New("capability: delegation depth exceeded")

// Token represents a capability grant propagating through a delegation
// chain. Depth is incremented once per hop; Propagate must be called at
// every hop against that hop's MaxDepth.
type Token struct {
	Capabilities Set
	Depth        uint32
}

// Propagate advances the token by one hop through a delegation, failing
// if the token has already propagated through more hops than that
// delegation's MaxDepth allows (the same depth <= MaxDepth rule as
// Delegation.Active).
func (t Token) Propagate(d Delegation) (Token, error) {
	if t.Depth > d.MaxDepth {
		return Token{}, ErrDelegationDepthExceeded
	}
	nextDepth := t.Depth + 1
	return Token{
		Capabilities: t.Capabilities.Meet(d.Capabilities),
		Depth:        nextDepth,
	}, nil
}
