// Package capability implements the capability meet-semilattice
// (spec.md §3, §4.2, §8 lattice laws) and the authority graph that
// composes local grants, incoming delegations, and policy into the
// effective capability set at an authority.
package capability

import (
	"path"
	"sort"
	"strings"

	"github.com/hxrts/aura/hashlattice"
)

// Kind is the tag of an atomic capability.
type Kind uint8

const (
	KindNone Kind = iota
	KindAll
	KindRead
	KindWrite
	KindExecute
	KindDelegate
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindAll:
		return "All"
	case KindRead:
		return "Read"
	case KindWrite:
		return "Write"
	case KindExecute:
		return "Execute"
	case KindDelegate:
		return "Delegate"
	default:
		return "Unknown"
	}
}

// Capability is a single atomic unit of authority. Pattern is used by
// Read/Write (a glob-style resource pattern); Op is used by Execute (an
// exact operation name); MaxDepth is used by Delegate.
type Capability struct {
	Kind     Kind
	Pattern  string
	Op       string
	MaxDepth uint32
}

func Read(pattern string) Capability    { return Capability{Kind: KindRead, Pattern: pattern} }
func Write(pattern string) Capability   { return Capability{Kind: KindWrite, Pattern: pattern} }
func Execute(op string) Capability      { return Capability{Kind: KindExecute, Op: op} }
func Delegate(depth uint32) Capability  { return Capability{Kind: KindDelegate, MaxDepth: depth} }
func All() Capability                   { return Capability{Kind: KindAll} }
func None() Capability                  { return Capability{Kind: KindNone} }

// String renders a Capability for denial messages and logs.
func (c Capability) String() string {
	switch c.Kind {
	case KindRead, KindWrite:
		return c.Kind.String() + "{" + c.Pattern + "}"
	case KindExecute:
		return c.Kind.String() + "{" + c.Op + "}"
	case KindDelegate:
		return c.Kind.String() + "{" + itoa(c.MaxDepth) + "}"
	default:
		return c.Kind.String()
	}
}

func (c Capability) equal(o Capability) bool {
	return c.Kind == o.Kind && c.Pattern == o.Pattern && c.Op == o.Op && c.MaxDepth == o.MaxDepth
}

func (c Capability) less(o Capability) bool {
	if c.Kind != o.Kind {
		return c.Kind < o.Kind
	}
	if c.Pattern != o.Pattern {
		return c.Pattern < o.Pattern
	}
	if c.Op != o.Op {
		return c.Op < o.Op
	}
	return c.MaxDepth < o.MaxDepth
}

// matches reports whether this capability authorizes the requested one.
// Delegate and All/None are not matched here; they're handled by the
// set-level Permits/evaluation logic.
func (c Capability) matches(req Capability) bool {
	if c.Kind != req.Kind {
		return false
	}
	switch c.Kind {
	case KindRead, KindWrite:
		ok, _ := path.Match(c.Pattern, req.Pattern)
		return ok || c.Pattern == req.Pattern
	case KindExecute:
		return c.Op == req.Op
	default:
		return c.equal(req)
	}
}

// Set is a capability set: a sorted slice of unique atomic capabilities
// forming a meet-semilattice. The zero value is the canonical "no
// authority" representation (spec.md §9 Open Question 1: {None}
// normalises to {}).
type Set struct {
	caps []Capability
}

// Top returns ⊤: the capability set that authorizes everything.
func Top() Set {
	return Set{caps: []Capability{All()}}
}

// Empty returns the canonical "no authority" set.
func Empty() Set { return Set{} }

// NewSet builds a normalised capability set from the given atoms.
func NewSet(atoms ...Capability) Set {
	return normalize(atoms)
}

func normalize(atoms []Capability) Set {
	hasAll := false
	seen := make(map[Capability]struct{}, len(atoms))
	out := make([]Capability, 0, len(atoms))
	for _, a := range atoms {
		if a.Kind == KindNone {
			continue // {None} normalises to {}
		}
		if a.Kind == KindAll {
			hasAll = true
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	if hasAll {
		// {All} absorbs every other atom: All is top, and top is the
		// identity element for meet, so a set containing All is
		// represented as exactly {All}.
		out = []Capability{All()}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return Set{caps: out}
}

func (s Set) Atoms() []Capability {
	out := make([]Capability, len(s.caps))
	copy(out, s.caps)
	return out
}

func (s Set) IsTop() bool {
	return len(s.caps) == 1 && s.caps[0].Kind == KindAll
}

func (s Set) IsEmpty() bool { return len(s.caps) == 0 }

// Equal reports whether two normalised sets contain the same atoms.
func (s Set) Equal(o Set) bool {
	if len(s.caps) != len(o.caps) {
		return false
	}
	for i := range s.caps {
		if !s.caps[i].equal(o.caps[i]) {
			return false
		}
	}
	return true
}

// Meet computes the greatest lower bound (⊓) of s and o: set
// intersection, with All treated as the multiplicative identity. Meet is
// associative, commutative, idempotent, and monotone (spec.md §8).
func (s Set) Meet(o Set) Set {
	if s.IsTop() {
		return o
	}
	if o.IsTop() {
		return s
	}
	oSet := make(map[Capability]struct{}, len(o.caps))
	for _, c := range o.caps {
		oSet[c] = struct{}{}
	}
	out := make([]Capability, 0, len(s.caps))
	for _, c := range s.caps {
		if _, ok := oSet[c]; ok {
			out = append(out, c)
		}
	}
	return normalize(out)
}

// IsSubsetOf reports whether s requires no more authority than o, i.e.
// s ⊑ o in the meet-semilattice ordering (s ⊓ o == s).
func (s Set) IsSubsetOf(o Set) bool {
	return s.Meet(o).Equal(s)
}

// Permits reports whether this capability set authorizes the requested
// atomic capability. All authorizes everything; otherwise at least one
// held capability must structurally match the request.
func (s Set) Permits(req Capability) bool {
	if s.IsTop() {
		return true
	}
	for _, c := range s.caps {
		if c.matches(req) {
			return true
		}
	}
	return false
}

// PermitsAll reports whether every capability in reqs is permitted.
func (s Set) PermitsAll(reqs ...Capability) bool {
	for _, r := range reqs {
		if !s.Permits(r) {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	if s.IsEmpty() {
		return "{}"
	}
	parts := make([]string, len(s.caps))
	for i, c := range s.caps {
		switch c.Kind {
		case KindRead, KindWrite:
			parts[i] = c.Kind.String() + "{" + c.Pattern + "}"
		case KindExecute:
			parts[i] = c.Kind.String() + "{" + c.Op + "}"
		case KindDelegate:
			parts[i] = c.Kind.String() + "{depth<=" + itoa(c.MaxDepth) + "}"
		default:
			parts[i] = c.Kind.String()
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func itoa(u uint32) string {
	if u == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[i:])
}

// ContentHash returns a stable content hash of the set's canonical form,
// used by the journal to commit capability-affecting facts.
func (s Set) ContentHash() ([32]byte, error) {
	h, err := hashlattice.HashJSON(s.caps)
	return h, err
}
