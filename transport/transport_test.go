package transport_test

import (
	"errors"
	"testing"
	"time"

	"github.com/hxrts/aura/flowbudget"
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/transport"
	"github.com/hxrts/aura/transport/transportmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSendAndReceiveAcrossNetwork(t *testing.T) {
	net := transport.NewNetwork()
	alice, _ := ids.GenerateID32(nil)
	bob, _ := ids.GenerateID32(nil)
	aliceT := net.Join(alice)
	bobT := net.Join(bob)

	require.NoError(t, aliceT.Send(bob, transport.Message{Payload: []byte("hi")}))

	msg, err := bobT.ReceiveFrom(alice)
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), msg.Payload)
	require.Equal(t, alice, msg.From)
}

func TestBroadcastReachesAllPeers(t *testing.T) {
	net := transport.NewNetwork()
	a, _ := ids.GenerateID32(nil)
	b, _ := ids.GenerateID32(nil)
	c, _ := ids.GenerateID32(nil)
	ta := net.Join(a)
	tb := net.Join(b)
	tc := net.Join(c)

	require.NoError(t, ta.Broadcast(transport.Message{Payload: []byte("all")}))

	_, err := tb.Receive()
	require.NoError(t, err)
	_, err = tc.Receive()
	require.NoError(t, err)
}

func TestBufferOverflowDropsOldest(t *testing.T) {
	net := transport.NewNetwork()
	a, _ := ids.GenerateID32(nil)
	b, _ := ids.GenerateID32(nil)
	ta := net.Join(a)
	tb := net.Join(b)

	for i := 0; i < transport.DefaultMaxBufferSize+10; i++ {
		require.NoError(t, ta.Send(b, transport.Message{Payload: []byte{byte(i)}}))
	}
	first, err := tb.ReceiveFrom(a)
	require.NoError(t, err)
	require.Equal(t, byte(10), first.Payload[0], "the oldest 10 messages should have been dropped on overflow")
}

func TestPartitionMakesPeerUnreachable(t *testing.T) {
	net := transport.NewNetwork()
	a, _ := ids.GenerateID32(nil)
	b, _ := ids.GenerateID32(nil)
	ta := net.Join(a)
	net.Join(b)

	net.Partition(b)
	err := ta.Send(b, transport.Message{Payload: []byte("x")})
	require.Error(t, err)
	var unreachable *transport.PeerUnreachable
	require.ErrorAs(t, err, &unreachable)

	net.Heal(b)
	require.NoError(t, ta.Send(b, transport.Message{Payload: []byte("x")}))
}

func TestSendWithRetryExhaustsAfterMaxAttempts(t *testing.T) {
	net := transport.NewNetwork()
	a, _ := ids.GenerateID32(nil)
	b, _ := ids.GenerateID32(nil)
	ta := net.Join(a)
	net.Join(b)
	net.Partition(b)

	ctx, _ := ids.GenerateID32(nil)
	ledger := flowbudget.New(flowbudget.DefaultConfig(), func() time.Time { return time.Unix(0, 0) })
	cfg := transport.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	err := transport.SendWithRetry(ta, ctx, b, transport.Message{Payload: []byte("x")}, cfg, ledger)
	require.Error(t, err)
	var exhausted *transport.RetriesExhausted
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)
}

func TestSendWithRetrySucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	fake := &flakyTransport{failTimes: 2, onSend: func() { calls++ }}
	ctx, _ := ids.GenerateID32(nil)
	peer, _ := ids.GenerateID32(nil)
	ledger := flowbudget.New(flowbudget.DefaultConfig(), func() time.Time { return time.Unix(0, 0) })
	cfg := transport.RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	err := transport.SendWithRetry(fake, ctx, peer, transport.Message{}, cfg, ledger)
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestSendWithRetryUsesMockTransportExpectations(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockT := transportmock.NewMockTransport(ctrl)
	peer, _ := ids.GenerateID32(nil)
	ctx, _ := ids.GenerateID32(nil)
	msg := transport.Message{Payload: []byte("x")}

	gomock.InOrder(
		mockT.EXPECT().Send(peer, msg).Return(errors.New("transient failure")),
		mockT.EXPECT().Send(peer, msg).Return(errors.New("transient failure")),
		mockT.EXPECT().Send(peer, msg).Return(nil),
	)

	ledger := flowbudget.New(flowbudget.DefaultConfig(), func() time.Time { return time.Unix(0, 0) })
	cfg := transport.RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	err := transport.SendWithRetry(mockT, ctx, peer, msg, cfg, ledger)
	require.NoError(t, err)
}

type flakyTransport struct {
	failTimes int
	attempts  int
	onSend    func()
}

func (f *flakyTransport) Send(peer ids.AuthorityId, msg transport.Message) error {
	f.onSend()
	f.attempts++
	if f.attempts <= f.failTimes {
		return errors.New("transient failure")
	}
	return nil
}
func (f *flakyTransport) Receive() (transport.Message, error) { return transport.Message{}, nil }
func (f *flakyTransport) ReceiveFrom(peer ids.AuthorityId) (transport.Message, error) {
	return transport.Message{}, nil
}
func (f *flakyTransport) Broadcast(msg transport.Message) error { return nil }
func (f *flakyTransport) ConnectedPeers() []ids.AuthorityId     { return nil }
func (f *flakyTransport) IsPeerConnected(peer ids.AuthorityId) bool { return true }
func (f *flakyTransport) SubscribePeerEvents() <-chan transport.PeerEvent { return nil }
