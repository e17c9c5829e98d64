package ids_test

import (
	"encoding/json"
	"testing"

	"github.com/hxrts/aura/ids"
	"github.com/stretchr/testify/require"
)

func TestID32RoundTripJSON(t *testing.T) {
	id, err := ids.GenerateID32(nil)
	require.NoError(t, err)

	raw, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded ids.ID32
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, id, decoded)
}

func TestID32Compare(t *testing.T) {
	a := ids.ID32{0x01}
	b := ids.ID32{0x02}
	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a))
}

func TestSortID32sCanonicalOrder(t *testing.T) {
	a := ids.ID32{0x03}
	b := ids.ID32{0x01}
	c := ids.ID32{0x02}
	list := []ids.ID32{a, b, c}
	ids.SortID32s(list)
	require.Equal(t, []ids.ID32{b, c, a}, list)
}

func TestEmptyIsZeroValue(t *testing.T) {
	var id ids.ID32
	require.True(t, id.IsEmpty())
	require.Equal(t, ids.EmptyID32, id)
}

func TestDeterministicGenerationFromInjectedSource(t *testing.T) {
	seedByte := byte(7)
	source := func(b []byte) error {
		for i := range b {
			b[i] = seedByte
		}
		return nil
	}
	a, err := ids.GenerateID32(source)
	require.NoError(t, err)
	b, err := ids.GenerateID32(source)
	require.NoError(t, err)
	require.Equal(t, a, b, "identical injected entropy must produce identical ids")
}
