package sync_test

import (
	"testing"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/sync"
	"github.com/stretchr/testify/require"
)

func envelopeAt(epoch, ttl int64, payload string) sync.Envelope {
	var tag [16]byte
	copy(tag[:], payload)
	return sync.NewEnvelope(1, epoch, 0, tag, ttl, []byte(payload))
}

func TestGCEvictsOnlyExpiredEnvelopes(t *testing.T) {
	log := sync.NewOpLog()
	cid1 := log.Publish(envelopeAt(100, 5, "cid1")).CID  // expires_at_epoch = 105
	cid2 := log.Publish(envelopeAt(100, 10, "cid2")).CID // expires_at_epoch = 110

	evicted := log.GC(106)
	require.Equal(t, []string{cid1.String()}, []string{evicted[0].String()})
	require.Len(t, evicted, 1)
	require.Equal(t, 1, log.Count())

	_, stillThere := log.Get(cid2)
	require.True(t, stillThere)
	_, gone := log.Get(cid1)
	require.False(t, gone)
}

func TestSummaryCIDsAreSortedAndMissingCIDsComputesSetDifference(t *testing.T) {
	a := sync.NewOpLog()
	b := sync.NewOpLog()

	e1 := envelopeAt(0, 1000, "alpha")
	e2 := envelopeAt(0, 1000, "beta")
	a.Publish(e1)
	a.Publish(e2)
	b.Publish(e1)

	sa, sb := a.Summary(), b.Summary()
	require.Equal(t, 2, sa.OperationCount)
	require.Equal(t, 1, sb.OperationCount)

	missing := sync.MissingCIDs(sa, sb)
	require.Len(t, missing, 1)
	require.Equal(t, e2.Header.CID, missing[0])
}

func TestFetchReportsMissingAndHasMore(t *testing.T) {
	log := sync.NewOpLog()
	e1 := envelopeAt(0, 1000, "one")
	e2 := envelopeAt(0, 1000, "two")
	log.Publish(e1)
	log.Publish(e2)
	unknown := envelopeAt(0, 1000, "unknown").Header.CID

	ops, missing, hasMore := log.Fetch([]ids.Hash32{e1.Header.CID, e2.Header.CID, unknown}, 0)
	require.Len(t, ops, 2)
	require.Equal(t, []ids.Hash32{unknown}, missing)
	require.False(t, hasMore)

	limited, _, hasMoreLimited := log.Fetch([]ids.Hash32{e1.Header.CID, e2.Header.CID}, 1)
	require.Len(t, limited, 1)
	require.True(t, hasMoreLimited)
}
