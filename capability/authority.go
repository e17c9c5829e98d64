package capability

import (
	"path"
	"time"

	"github.com/hxrts/aura/ids"
)

// Delegation is a directed labelled edge in the authority graph
// (spec.md §3): capabilities flow from From to To, bounded by MaxDepth
// hops from the delegation's origin and an optional expiry.
type Delegation struct {
	From         ids.AuthorityId
	To           ids.AuthorityId
	Capabilities Set
	MaxDepth     uint32
	Expiry       *time.Time // nil means no expiry
}

// Active reports whether the delegation is usable at time now, given the
// number of hops (depth) it has already propagated through.
func (d Delegation) Active(now time.Time, depth uint32) bool {
	if d.Expiry != nil && !now.Before(*d.Expiry) {
		return false
	}
	return depth <= d.MaxDepth
}

// TimeWindow is a local-check time restriction: capabilities granted by a
// policy only hold between Start and End (inclusive).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

func (w TimeWindow) contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Intersect narrows two time windows to their overlap. If the windows
// don't overlap the result has Start after End, i.e. it admits no time.
func (w TimeWindow) Intersect(o TimeWindow) TimeWindow {
	start := w.Start
	if o.Start.After(start) {
		start = o.Start
	}
	end := w.End
	if o.End.Before(end) {
		end = o.End
	}
	return TimeWindow{Start: start, End: end}
}

// OperationConstraint requires the requested operation pattern to match
// at least one allowed pattern.
type OperationConstraint struct {
	AllowedPatterns []string
}

// ResourceLimit imposes an upper bound that can only narrow through
// composition (meet takes the minimum).
type ResourceLimit struct {
	Name  string
	Limit uint64
}

func (r ResourceLimit) Meet(o ResourceLimit) ResourceLimit {
	if r.Name != o.Name {
		// Different resources don't compose; keep the tighter name
		// lexicographically so Meet stays deterministic.
		if r.Name < o.Name {
			return r
		}
		return o
	}
	if o.Limit < r.Limit {
		return o
	}
	return r
}

// LocalChecks bundles the local-policy constraints evaluated at a single
// authority (spec.md §4.2).
type LocalChecks struct {
	TimeRestrictions     []TimeWindow
	OperationConstraints []OperationConstraint
	ResourceLimits       []ResourceLimit
}

// EvaluationContext carries the request-time parameters evaluate() needs:
// the current time and the requested operation (for operation
// constraints). It carries no resource usage, so LocalChecks.Permits does
// not evaluate ResourceLimits.
type EvaluationContext struct {
	Now       time.Time
	Operation string
}

// Permits reports whether the local checks admit a request at ctx.
func (lc LocalChecks) Permits(ctx EvaluationContext) bool {
	for _, w := range lc.TimeRestrictions {
		if !w.contains(ctx.Now) {
			return false
		}
	}
	for _, oc := range lc.OperationConstraints {
		matched := false
		for _, p := range oc.AllowedPatterns {
			if globMatch(p, ctx.Operation) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func globMatch(pattern, s string) bool {
	ok, err := path.Match(pattern, s)
	return err == nil && (ok || pattern == s)
}

// AuthorityGraph holds local grants, delegation edges, and policy per
// authority, stored in flat maps keyed by AuthorityId (spec.md §9: arenas
// + stable IDs, never owning pointers between graph nodes).
type AuthorityGraph struct {
	localGrants map[ids.AuthorityId]Set
	delegations []Delegation // edges; scanned by To during evaluation
	policies    map[ids.AuthorityId]LocalChecks
}

func NewAuthorityGraph() *AuthorityGraph {
	return &AuthorityGraph{
		localGrants: make(map[ids.AuthorityId]Set),
		policies:    make(map[ids.AuthorityId]LocalChecks),
	}
}

// SetLocalGrant replaces the local grants at an authority with caps; the
// previous Set is discarded, not merged. The journal's fold uses it to
// bind exactly a CapabilityGrant event's atoms, or the empty set for a
// CapabilityRevoke.
func (g *AuthorityGraph) SetLocalGrant(a ids.AuthorityId, caps Set) {
	g.localGrants[a] = caps
}

func (g *AuthorityGraph) SetPolicy(a ids.AuthorityId, lc LocalChecks) {
	g.policies[a] = lc
}

func (g *AuthorityGraph) AddDelegation(d Delegation) {
	g.delegations = append(g.delegations, d)
}

// incomingActive returns the delegations targeting `to` that are active
// at `now` and within `depth` hops.
func (g *AuthorityGraph) incomingActive(to ids.AuthorityId, now time.Time, depth uint32) []Delegation {
	var out []Delegation
	for _, d := range g.delegations {
		if d.To != to {
			continue
		}
		if d.Active(now, depth) {
			out = append(out, d)
		}
	}
	return out
}

// Evaluate computes Caps_A(ctx) per spec.md §4.2's formal rule:
//
//	Caps_A(ctx) = LocalGrants_A ⊓ (⨅ incoming active delegations) ⊓ Policy_A(ctx)
//
// depth is the number of delegation hops already traversed to reach A in
// the current evaluation (0 for a direct request at A).
func (g *AuthorityGraph) Evaluate(a ids.AuthorityId, ctx EvaluationContext, depth uint32) Set {
	caps, ok := g.localGrants[a]
	if !ok {
		caps = Empty()
	}

	for _, d := range g.incomingActive(a, ctx.Now, depth) {
		caps = caps.Meet(d.Capabilities)
	}

	if lc, ok := g.policies[a]; ok && !lc.Permits(ctx) {
		caps = Empty()
	}

	return caps
}
