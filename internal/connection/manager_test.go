package connection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfkpk/authgate/internal/ports"
)

type fakeChannel struct {
	closeCalls atomic.Int32
}

func (c *fakeChannel) Invoke(_ context.Context, req ports.Request) (ports.Response, error) {
	return ports.Response{ID: req.ID, OK: true}, nil
}

func (c *fakeChannel) Close() error {
	c.closeCalls.Add(1)
	return nil
}

// fakeBinder records bind attempts and hands their callbacks to the test,
// which plays the platform's role by firing them.
type fakeBinder struct {
	mu        sync.Mutex
	bindErr   error
	autoAck   bool
	bindCalls int
	cbs       []ports.BindCallbacks
	channels  []*fakeChannel
}

func (b *fakeBinder) Bind(_ ports.PeerAddress, cb ports.BindCallbacks) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bindCalls++
	if b.bindErr != nil {
		return b.bindErr
	}
	b.cbs = append(b.cbs, cb)
	if b.autoAck {
		ch := &fakeChannel{}
		b.channels = append(b.channels, ch)
		go cb.OnConnected(ch)
	}
	return nil
}

func (b *fakeBinder) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bindCalls
}

func (b *fakeBinder) callback(i int) (ports.BindCallbacks, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i >= len(b.cbs) {
		return ports.BindCallbacks{}, false
	}
	return b.cbs[i], true
}

func testPeer() ports.PeerAddress {
	return ports.PeerAddress{Package: "dev.wfkpk.accountsvc", Component: "auth", Action: "dev.wfkpk.accountsvc.BIND"}
}

func TestEnsureConnectedFastPathSkipsRebind(t *testing.T) {
	binder := &fakeBinder{autoAck: true}
	m := NewManager(binder, testPeer())

	require.True(t, m.EnsureConnected(context.Background()))
	require.True(t, m.IsConnected())

	require.True(t, m.EnsureConnected(context.Background()))
	assert.Equal(t, 1, binder.calls(), "second call must reuse the bound handle")
}

func TestConcurrentCallersShareSingleBindAttempt(t *testing.T) {
	binder := &fakeBinder{}
	m := NewManager(binder, testPeer())

	const callers = 8
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		go func() {
			results <- m.EnsureConnected(context.Background())
		}()
	}

	require.Eventually(t, func() bool {
		return binder.calls() == 1
	}, time.Second, 5*time.Millisecond)

	cb, ok := binder.callback(0)
	require.True(t, ok)
	cb.OnConnected(&fakeChannel{})

	for i := 0; i < callers; i++ {
		select {
		case ok := <-results:
			assert.True(t, ok)
		case <-time.After(time.Second):
			t.Fatal("caller never resolved")
		}
	}

	assert.Equal(t, 1, binder.calls(), "all callers must share one handshake")
}

func TestSynchronousBindFailureResolvesImmediately(t *testing.T) {
	binder := &fakeBinder{bindErr: errors.New("service not installed")}
	m := NewManager(binder, testPeer())

	start := time.Now()
	ok := m.EnsureConnected(context.Background())

	require.False(t, ok)
	assert.Less(t, time.Since(start), time.Second, "must not wait for the connect timeout")
	assert.False(t, m.IsConnected())
}

func TestEnsureConnectedTimesOutWhenCallbackNeverFires(t *testing.T) {
	binder := &fakeBinder{}
	m := NewManager(binder, testPeer(), WithConnectTimeout(50*time.Millisecond))

	start := time.Now()
	ok := m.EnsureConnected(context.Background())
	elapsed := time.Since(start)

	require.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
	assert.False(t, m.IsConnected())
}

func TestLateConnectAfterTimeoutIsDiscarded(t *testing.T) {
	binder := &fakeBinder{}
	m := NewManager(binder, testPeer(), WithConnectTimeout(30*time.Millisecond))

	require.False(t, m.EnsureConnected(context.Background()))

	cb, ok := binder.callback(0)
	require.True(t, ok)
	ch := &fakeChannel{}
	cb.OnConnected(ch)

	assert.False(t, m.IsConnected(), "abandoned handshake must not create a handle")
	assert.Equal(t, int32(1), ch.closeCalls.Load(), "late channel must be released")
}

func TestCancelledWaiterDoesNotObserveLateResolution(t *testing.T) {
	binder := &fakeBinder{}
	m := NewManager(binder, testPeer())

	ctx, cancel := context.WithCancel(context.Background())
	resolved := make(chan bool, 1)
	go func() {
		resolved <- m.EnsureConnected(ctx)
	}()

	require.Eventually(t, func() bool {
		return binder.calls() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case ok := <-resolved:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller never returned")
	}

	// The bind itself is not cancelled; a later connected callback still
	// updates manager state, just with no waiter left to observe it.
	cb, ok := binder.callback(0)
	require.True(t, ok)
	cb.OnConnected(&fakeChannel{})
	assert.True(t, m.IsConnected())
}

func TestUnbindIsIdempotent(t *testing.T) {
	binder := &fakeBinder{autoAck: true}
	m := NewManager(binder, testPeer())

	require.True(t, m.EnsureConnected(context.Background()))
	require.True(t, m.IsConnected())

	m.Unbind()
	assert.False(t, m.IsConnected())

	m.Unbind()
	assert.False(t, m.IsConnected())

	binder.mu.Lock()
	ch := binder.channels[0]
	binder.mu.Unlock()
	assert.Equal(t, int32(1), ch.closeCalls.Load(), "double unbind must not double-release")
}

func TestDisconnectCallbackTransitionsToUnbound(t *testing.T) {
	binder := &fakeBinder{autoAck: true}
	m := NewManager(binder, testPeer())

	require.True(t, m.EnsureConnected(context.Background()))

	cb, ok := binder.callback(0)
	require.True(t, ok)
	cb.OnDisconnected()
	assert.False(t, m.IsConnected())

	// A fresh EnsureConnected performs a new bind.
	require.True(t, m.EnsureConnected(context.Background()))
	assert.Equal(t, 2, binder.calls())
}

func TestDisconnectDuringHandshakeResolvesFalse(t *testing.T) {
	binder := &fakeBinder{}
	m := NewManager(binder, testPeer())

	resolved := make(chan bool, 1)
	go func() {
		resolved <- m.EnsureConnected(context.Background())
	}()

	require.Eventually(t, func() bool {
		return binder.calls() == 1
	}, time.Second, 5*time.Millisecond)

	cb, ok := binder.callback(0)
	require.True(t, ok)
	cb.OnDisconnected()

	select {
	case ok := <-resolved:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("waiter never resolved after handshake drop")
	}
	assert.False(t, m.IsConnected())
}
