// Package connection owns the lifecycle of the channel to the account
// service: lazy bind, bounded handshake wait, disconnect tracking and
// teardown. All state transitions are serialized by an explicit mutex; the
// manager is safe for any number of concurrent callers.
package connection

import (
	"context"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/wfkpk/authgate/internal/ports"
)

// DefaultConnectTimeout bounds how long EnsureConnected waits for the
// service-connected callback after a bind is accepted.
const DefaultConnectTimeout = 5 * time.Second

// Manager owns the channel handle. Exactly one bind attempt is in flight at
// a time; every EnsureConnected caller that arrives while the handshake is
// pending shares its outcome rather than issuing a second bind.
type Manager struct {
	binder  ports.Binder
	peer    ports.PeerAddress
	timeout time.Duration
	logger  pslog.Base

	mu         sync.Mutex
	channel    ports.Channel
	binding    bool
	gen        uint64
	waiters    map[uint64]chan bool
	nextWaiter uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithConnectTimeout overrides the handshake ceiling. Non-positive values
// keep the default.
func WithConnectTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger supplies a logger for lifecycle diagnostics. Passing nil falls
// back to pslog.NoopLogger().
func WithLogger(logger pslog.Base) Option {
	return func(m *Manager) {
		if logger == nil {
			logger = pslog.NoopLogger()
		}
		m.logger = logger
	}
}

// NewManager creates a manager for the given service triple. The manager
// starts Unbound; the first EnsureConnected call performs the bind.
func NewManager(binder ports.Binder, peer ports.PeerAddress, opts ...Option) *Manager {
	m := &Manager{
		binder:  binder,
		peer:    peer,
		timeout: DefaultConnectTimeout,
		logger:  pslog.NoopLogger(),
		waiters: map[uint64]chan bool{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsConnected reports whether a live channel is held right now. A pending
// handshake does not count.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channel != nil
}

// Channel returns the live channel when one is held. Operation dispatch
// re-checks this immediately before a remote call to defend against a
// disconnect racing a successful EnsureConnected.
func (m *Manager) Channel() (ports.Channel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channel, m.channel != nil
}

// EnsureConnected returns true once a live channel is held. When the manager
// is already Bound this is a fast path with no bind traffic. Otherwise the
// caller suspends until the handshake completes, the connect timeout
// elapses, or ctx is cancelled, whichever comes first. Cancellation clears
// the caller's waiter registration but does not abort the underlying bind.
func (m *Manager) EnsureConnected(ctx context.Context) bool {
	m.mu.Lock()
	if m.channel != nil {
		m.mu.Unlock()
		return true
	}

	id := m.nextWaiter
	m.nextWaiter++
	outcome := make(chan bool, 1)
	m.waiters[id] = outcome

	startBind := !m.binding
	gen := m.gen
	if startBind {
		m.binding = true
	}
	m.mu.Unlock()

	if startBind {
		cb := ports.BindCallbacks{
			OnConnected:    func(ch ports.Channel) { m.connected(gen, ch) },
			OnDisconnected: func() { m.disconnected(gen) },
		}
		m.logger.Debug("binding to account service",
			"package", m.peer.Package, "component", m.peer.Component)
		if err := m.binder.Bind(m.peer, cb); err != nil {
			m.logger.Warn("bind rejected", "error", err)
			m.failBind(gen)
		} else {
			time.AfterFunc(m.timeout, func() { m.bindTimedOut(gen) })
		}
	}

	select {
	case ok := <-outcome:
		return ok
	case <-ctx.Done():
		m.mu.Lock()
		delete(m.waiters, id)
		m.mu.Unlock()
		return false
	}
}

// Unbind releases the channel when one is held. Errors from the release are
// reported but non-fatal; the manager transitions to Unbound regardless.
// Calling Unbind while already Unbound is a no-op.
func (m *Manager) Unbind() {
	m.mu.Lock()
	ch := m.channel
	if ch != nil {
		m.channel = nil
		m.gen++
	}
	m.mu.Unlock()

	if ch == nil {
		return
	}
	if err := ch.Close(); err != nil {
		m.logger.Warn("channel release failed", "error", err)
	}
	m.logger.Debug("unbound from account service")
}

// connected handles the service-connected callback. A callback from an
// abandoned attempt (timed out, unbound) closes the delivered channel and
// changes nothing else.
func (m *Manager) connected(gen uint64, ch ports.Channel) {
	m.mu.Lock()
	if gen != m.gen || !m.binding {
		m.mu.Unlock()
		_ = ch.Close()
		return
	}
	m.channel = ch
	m.binding = false
	m.resolveLocked(true)
	m.mu.Unlock()
	m.logger.Info("connected to account service",
		"package", m.peer.Package, "component", m.peer.Component)
}

// disconnected handles the remote-initiated drop. In-flight operation
// callers are not notified; they learn of the broken channel when their own
// remote call fails.
func (m *Manager) disconnected(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	if m.channel != nil {
		m.channel = nil
		m.gen++
		m.logger.Info("account service disconnected")
		return
	}
	if m.binding {
		// The transport reported a drop before the handshake completed.
		m.binding = false
		m.gen++
		m.resolveLocked(false)
		m.logger.Warn("account service dropped during handshake")
	}
}

func (m *Manager) failBind(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || !m.binding {
		return
	}
	m.binding = false
	m.gen++
	m.resolveLocked(false)
}

func (m *Manager) bindTimedOut(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || !m.binding {
		return
	}
	m.binding = false
	m.gen++
	m.resolveLocked(false)
	m.logger.Warn("connect timed out", "timeout", m.timeout)
}

// resolveLocked delivers the bind outcome to every registered waiter exactly
// once. Waiter channels are buffered, so delivery never blocks even when the
// waiter has already been cancelled.
func (m *Manager) resolveLocked(ok bool) {
	for id, outcome := range m.waiters {
		outcome <- ok
		delete(m.waiters, id)
	}
}
