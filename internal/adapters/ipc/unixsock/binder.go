// Package unixsock binds to the account service over a unix domain socket.
// The bind itself (stat plus dial) is synchronous; the hello/ack handshake
// and disconnect detection run asynchronously and report through the
// ports.BindCallbacks contract.
package unixsock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"

	"pkt.systems/pslog"

	"github.com/wfkpk/authgate/internal/adapters/ipc/wire"
	"github.com/wfkpk/authgate/internal/ports"
)

// DefaultDialTimeout bounds the synchronous dial inside Bind.
const DefaultDialTimeout = 2 * time.Second

// handshakeDeadline caps how long the async handshake goroutine waits for
// the hello ack before giving up the connection. Well past any connect
// timeout a caller would use; it only prevents the goroutine from being
// pinned forever by a service that accepted the bind and went silent.
const handshakeDeadline = 30 * time.Second

// Binder implements ports.Binder over unix domain sockets.
type Binder struct {
	dialTimeout time.Duration
	logger      pslog.Base
}

// Option configures a Binder.
type Option func(*Binder)

// WithDialTimeout overrides the dial ceiling. Non-positive values keep the
// default.
func WithDialTimeout(d time.Duration) Option {
	return func(b *Binder) {
		if d > 0 {
			b.dialTimeout = d
		}
	}
}

// WithLogger supplies a logger for transport diagnostics. Passing nil falls
// back to pslog.NoopLogger().
func WithLogger(logger pslog.Base) Option {
	return func(b *Binder) {
		if logger == nil {
			logger = pslog.NoopLogger()
		}
		b.logger = logger
	}
}

// NewBinder creates a unix socket binder.
func NewBinder(opts ...Option) *Binder {
	b := &Binder{
		dialTimeout: DefaultDialTimeout,
		logger:      pslog.NoopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SocketPath resolves the socket the peer listens on: the explicit override
// when set, otherwise a path derived from the package/component pair under
// the runtime directory.
func SocketPath(peer ports.PeerAddress) string {
	if peer.SocketPath != "" {
		return peer.SocketPath
	}
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, peer.Package, peer.Component+".sock")
}

// Bind checks that the service socket exists and dials it. Both failure
// modes are synchronous: a missing socket means the service is not
// installed, a permission error means the caller may not bind. On success
// the handshake continues on a goroutine and resolves through cb.
func (b *Binder) Bind(peer ports.PeerAddress, cb ports.BindCallbacks) error {
	path := SocketPath(peer)

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("account service not installed (no socket at %s)", path)
		}
		return fmt.Errorf("access service socket %s: %w", path, err)
	}

	conn, err := net.DialTimeout("unix", path, b.dialTimeout)
	if err != nil {
		return fmt.Errorf("dial service socket %s: %w", path, err)
	}

	go b.handshake(conn, peer, cb)
	return nil
}

// handshake sends the hello and waits for the ack. A failed or rejected
// handshake produces no callback at all; the waiting caller's connect
// timeout covers that case.
func (b *Binder) handshake(conn net.Conn, peer ports.PeerAddress, cb ports.BindCallbacks) {
	enc := json.NewEncoder(conn)
	dec := json.NewDecoder(conn)

	_ = conn.SetDeadline(time.Now().Add(handshakeDeadline))

	hello := wire.Hello{
		Component: peer.Component,
		Action:    peer.Action,
		Protocol:  wire.Protocol,
	}
	if err := enc.Encode(hello); err != nil {
		b.logger.Warn("send hello failed", "error", err)
		_ = conn.Close()
		return
	}

	var ack wire.HelloAck
	if err := dec.Decode(&ack); err != nil {
		b.logger.Warn("read hello ack failed", "error", err)
		_ = conn.Close()
		return
	}
	if !ack.OK {
		b.logger.Warn("handshake rejected", "error", ack.Error)
		_ = conn.Close()
		return
	}

	_ = conn.SetDeadline(time.Time{})

	ch := newChannel(conn, enc, dec, b.logger)
	if cb.OnConnected != nil {
		cb.OnConnected(ch)
	}
	go ch.readLoop(cb.OnDisconnected)
}
