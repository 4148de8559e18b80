package ports

import (
	"context"

	"github.com/wfkpk/authgate/internal/domain"
)

// Op names one remote operation exposed by the account service.
type Op string

const (
	OpLogin         Op = "login"
	OpLogout        Op = "logout"
	OpLogoutAll     Op = "logout_all"
	OpSwitchAccount Op = "switch_account"
	OpGetActive     Op = "get_active"
	OpGetAll        Op = "get_all"
)

// Request is one remote call. ID correlates the reply on a shared channel.
type Request struct {
	ID         string
	Op         Op
	Account    *domain.Account
	Identifier string
}

// Response is the service's reply. OK false means the service completed the
// call but rejected it; Error then carries the service-supplied reason.
// Account and Accounts are populated for the query operations only; Accounts
// entries may be nil when the service response is partially corrupt.
type Response struct {
	ID       string
	OK       bool
	Error    string
	Account  *domain.Account
	Accounts []*domain.Account
}

// Channel is a live binding to the account service. Invoke is safe for
// concurrent use; an error from Invoke is a transport fault, distinct from a
// Response with OK false.
type Channel interface {
	Invoke(ctx context.Context, req Request) (Response, error)
	Close() error
}

// PeerAddress names the remote service by its fixed triple. SocketPath
// overrides the path derived from Package and Component when non-empty.
type PeerAddress struct {
	Package    string
	Component  string
	Action     string
	SocketPath string
}

// BindCallbacks receive the asynchronous outcome of a bind. Each callback
// fires at most once per bind attempt, from a transport goroutine.
// OnDisconnected fires only after OnConnected delivered a channel.
type BindCallbacks struct {
	OnConnected    func(Channel)
	OnDisconnected func()
}

// Binder initiates a binding to the account service. A non-nil error means
// the bind itself was rejected (service not installed, permission denied)
// and no callback will fire. A nil return means the handshake is underway
// and exactly one of the callbacks will report its outcome — or none at all
// if the service never completes the handshake, which callers must bound
// with their own timeout.
type Binder interface {
	Bind(peer PeerAddress, cb BindCallbacks) error
}
