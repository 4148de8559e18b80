// Package peersim is an in-process stand-in for the account service: a unix
// socket listener speaking the wire protocol, backed by an in-memory account
// table. It backs the adapter and CLI tests and the `authgate peersim` demo
// command; durable state and real credential checks stay out of scope.
package peersim

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"pkt.systems/pslog"

	"github.com/wfkpk/authgate/internal/adapters/ipc/wire"
)

// Peer is one simulated account service instance. Accounts keep insertion
// order and at most one is active at a time.
type Peer struct {
	action         string
	logger         pslog.Base
	stallHandshake bool
	corruptList    bool

	mu       sync.Mutex
	accounts []wire.Account
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
}

// Option configures a Peer.
type Option func(*Peer)

// WithAction sets the binding action the peer accepts. Hellos naming any
// other action are rejected during the handshake.
func WithAction(action string) Option {
	return func(p *Peer) { p.action = action }
}

// WithLogger supplies a logger. Passing nil falls back to
// pslog.NoopLogger().
func WithLogger(logger pslog.Base) Option {
	return func(p *Peer) {
		if logger == nil {
			logger = pslog.NoopLogger()
		}
		p.logger = logger
	}
}

// WithStalledHandshake accepts connections but never acks the hello,
// simulating a service whose connected callback never fires.
func WithStalledHandshake() Option {
	return func(p *Peer) { p.stallHandshake = true }
}

// WithCorruptListEntry prepends a null entry to every get_all response,
// simulating a partially corrupt reply.
func WithCorruptListEntry() Option {
	return func(p *Peer) { p.corruptList = true }
}

// New creates a peer. Call Listen to serve it.
func New(opts ...Option) *Peer {
	p := &Peer{
		action: "dev.wfkpk.accountsvc.BIND",
		logger: pslog.NoopLogger(),
		conns:  map[net.Conn]struct{}{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Listen serves the peer on the given unix socket path, creating parent
// directories as needed. A stale socket file from a previous run is removed
// first.
func (p *Peer) Listen(socketPath string) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}

	p.mu.Lock()
	p.listener = listener
	p.closed = false
	p.mu.Unlock()

	go p.acceptLoop(listener)
	p.logger.Info("peersim listening", "socket", socketPath)
	return nil
}

// Close stops the listener and drops every open connection.
func (p *Peer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	listener := p.listener
	conns := make([]net.Conn, 0, len(p.conns))
	for conn := range p.conns {
		conns = append(conns, conn)
	}
	p.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
	if listener != nil {
		return listener.Close()
	}
	return nil
}

// DropConnections closes every bound client connection without stopping the
// listener, simulating a remote-initiated disconnect.
func (p *Peer) DropConnections() {
	p.mu.Lock()
	conns := make([]net.Conn, 0, len(p.conns))
	for conn := range p.conns {
		conns = append(conns, conn)
	}
	p.conns = map[net.Conn]struct{}{}
	p.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// Seed installs accounts directly, bypassing login. Test setup only.
func (p *Peer) Seed(accounts ...wire.Account) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts = append(p.accounts, accounts...)
}

// Accounts returns a snapshot of the account table.
func (p *Peer) Accounts() []wire.Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]wire.Account, len(p.accounts))
	copy(out, p.accounts)
	return out
}

func (p *Peer) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = conn.Close()
			return
		}
		p.conns[conn] = struct{}{}
		p.mu.Unlock()
		go p.serveConn(conn)
	}
}

func (p *Peer) serveConn(conn net.Conn) {
	defer func() {
		p.mu.Lock()
		delete(p.conns, conn)
		p.mu.Unlock()
		_ = conn.Close()
	}()

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	var hello wire.Hello
	if err := dec.Decode(&hello); err != nil {
		return
	}

	if p.stallHandshake {
		// Never ack; hold the connection open until the client gives up.
		buf := make([]byte, 1)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}

	if hello.Action != p.action {
		_ = enc.Encode(wire.HelloAck{OK: false, Error: "unknown binding action"})
		return
	}
	if err := enc.Encode(wire.HelloAck{OK: true}); err != nil {
		return
	}

	for {
		var req wire.Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		if err := enc.Encode(p.handle(req)); err != nil {
			return
		}
	}
}

func (p *Peer) handle(req wire.Request) wire.Response {
	p.mu.Lock()
	defer p.mu.Unlock()

	resp := wire.Response{ID: req.ID, OK: true}

	switch req.Op {
	case "login":
		if req.Account == nil || (req.Account.Email == "" && req.Account.Name == "") {
			return p.reject(req, "login requires an account with an email or name")
		}
		account := *req.Account
		if p.findLocked(account.Email) >= 0 || p.findLocked(account.Name) >= 0 {
			return p.reject(req, fmt.Sprintf("account %q already logged in", account.Identifier()))
		}
		if account.ID == "" {
			account.ID = uuid.NewString()
		}
		account.Token = uuid.NewString()
		account.Active = !p.anyActiveLocked()
		p.accounts = append(p.accounts, account)
		p.logger.Debug("login", "guid", account.ID, "email", account.Email)

	case "logout":
		idx := p.findLocked(req.Identifier)
		if idx < 0 {
			return p.reject(req, fmt.Sprintf("no account matches %q", req.Identifier))
		}
		p.accounts = append(p.accounts[:idx], p.accounts[idx+1:]...)
		p.logger.Debug("logout", "identifier", req.Identifier)

	case "logout_all":
		p.accounts = nil

	case "switch_account":
		if req.Account == nil {
			return p.reject(req, "switch requires an account descriptor")
		}
		idx := p.findLocked(req.Account.Email)
		if idx < 0 {
			idx = p.findLocked(req.Account.Name)
		}
		if idx < 0 {
			return p.reject(req, fmt.Sprintf("no account matches %q", req.Account.Identifier()))
		}
		for i := range p.accounts {
			p.accounts[i].Active = i == idx
		}

	case "get_active":
		for i := range p.accounts {
			if p.accounts[i].Active {
				active := p.accounts[i]
				resp.Account = &active
				break
			}
		}

	case "get_all":
		resp.Accounts = make([]*wire.Account, 0, len(p.accounts)+1)
		if p.corruptList {
			resp.Accounts = append(resp.Accounts, nil)
		}
		for i := range p.accounts {
			account := p.accounts[i]
			resp.Accounts = append(resp.Accounts, &account)
		}

	default:
		return p.reject(req, fmt.Sprintf("unknown operation %q", req.Op))
	}

	return resp
}

func (p *Peer) reject(req wire.Request, reason string) wire.Response {
	p.logger.Debug("rejecting request", "op", req.Op, "reason", reason)
	return wire.Response{ID: req.ID, OK: false, Error: reason}
}

// findLocked returns the index of the account whose email or name equals the
// identifier, or -1. Empty identifiers never match.
func (p *Peer) findLocked(identifier string) int {
	if identifier == "" {
		return -1
	}
	for i := range p.accounts {
		if p.accounts[i].Email == identifier || p.accounts[i].Name == identifier {
			return i
		}
	}
	return -1
}

func (p *Peer) anyActiveLocked() bool {
	for i := range p.accounts {
		if p.accounts[i].Active {
			return true
		}
	}
	return false
}
