package capability_test

import (
	"testing"
	"time"

	"github.com/hxrts/aura/capability"
	"github.com/hxrts/aura/ids"
	"github.com/stretchr/testify/require"
)

func sample() (a, b, c capability.Set) {
	a = capability.NewSet(capability.Read("docs/*"), capability.Execute("send"))
	b = capability.NewSet(capability.Execute("send"), capability.Write("docs/x"))
	c = capability.NewSet(capability.Read("docs/*"))
	return
}

func TestMeetIsAssociative(t *testing.T) {
	a, b, c := sample()
	require.True(t, a.Meet(b.Meet(c)).Equal(a.Meet(b).Meet(c)))
}

func TestMeetIsCommutative(t *testing.T) {
	a, b, _ := sample()
	require.True(t, a.Meet(b).Equal(b.Meet(a)))
}

func TestMeetIsIdempotent(t *testing.T) {
	a, _, _ := sample()
	require.True(t, a.Meet(a).Equal(a))
}

func TestMeetWithTopIsIdentity(t *testing.T) {
	a, _, _ := sample()
	require.True(t, a.Meet(capability.Top()).Equal(a))
}

func TestMeetIsSubsetOfBoth(t *testing.T) {
	a, b, _ := sample()
	m := a.Meet(b)
	require.True(t, m.IsSubsetOf(a))
	require.True(t, m.IsSubsetOf(b))
}

func TestEmptySetNormalisesNone(t *testing.T) {
	s := capability.NewSet(capability.None())
	require.True(t, s.IsEmpty())
	require.True(t, s.Equal(capability.Empty()))
}

func TestAllAbsorbsOtherAtomsAndDropsNone(t *testing.T) {
	s := capability.NewSet(capability.All(), capability.None(), capability.Read("x"))
	require.True(t, s.IsTop())
}

func TestPermitsWildcardPattern(t *testing.T) {
	s := capability.NewSet(capability.Read("docs/*"))
	require.True(t, s.Permits(capability.Read("docs/a")))
	require.False(t, s.Permits(capability.Read("other/a")))
}

func TestMonotonicRestrictionAcrossGrants(t *testing.T) {
	wide := capability.NewSet(capability.Read("docs/*"), capability.Write("docs/*"))
	narrow := wide.Meet(capability.NewSet(capability.Read("docs/*")))
	require.True(t, narrow.IsSubsetOf(wide))
	require.False(t, wide.IsSubsetOf(narrow) && !wide.Equal(narrow))
}

func TestDelegationDepthExceeded(t *testing.T) {
	tok := capability.Token{Capabilities: capability.Top(), Depth: 0}
	d := capability.Delegation{MaxDepth: 0, Capabilities: capability.Top()}
	_, err := tok.Propagate(d)
	require.NoError(t, err)

	tok2 := capability.Token{Capabilities: capability.Top(), Depth: 1}
	_, err = tok2.Propagate(d)
	require.ErrorIs(t, err, capability.ErrDelegationDepthExceeded)
}

func TestAuthorityGraphEvaluateComposesLocalDelegationsAndPolicy(t *testing.T) {
	g := capability.NewAuthorityGraph()
	alice, err := ids.GenerateID32(nil)
	require.NoError(t, err)
	bob, err := ids.GenerateID32(nil)
	require.NoError(t, err)

	g.SetLocalGrant(alice, capability.NewSet(capability.Read("docs/*"), capability.Write("docs/*")))
	g.AddDelegation(capability.Delegation{
		From:         bob,
		To:           alice,
		Capabilities: capability.NewSet(capability.Read("docs/*")),
		MaxDepth:     2,
	})

	ctx := capability.EvaluationContext{Now: time.Now(), Operation: "read"}
	caps := g.Evaluate(alice, ctx, 0)
	require.True(t, caps.Permits(capability.Read("docs/x")))
	require.False(t, caps.Permits(capability.Write("docs/x")), "delegation narrows local grant to read-only")
}

func TestTimeWindowIntersect(t *testing.T) {
	now := time.Now()
	w1 := capability.TimeWindow{Start: now, End: now.Add(2 * time.Hour)}
	w2 := capability.TimeWindow{Start: now.Add(time.Hour), End: now.Add(3 * time.Hour)}
	merged := w1.Intersect(w2)
	require.Equal(t, w2.Start, merged.Start)
	require.Equal(t, w1.End, merged.End)
}

func TestResourceLimitMeetTakesMinimum(t *testing.T) {
	a := capability.ResourceLimit{Name: "bandwidth", Limit: 100}
	b := capability.ResourceLimit{Name: "bandwidth", Limit: 50}
	require.Equal(t, uint64(50), a.Meet(b).Limit)
}
