// Package application exposes the remote account operations behind a
// uniform dispatch template: ensure a live channel, re-check it, issue the
// call, translate every failure. No remote fault escapes the gateway
// untranslated, and nothing here is retried automatically.
package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"pkt.systems/pslog"

	"github.com/wfkpk/authgate/internal/connection"
	"github.com/wfkpk/authgate/internal/domain"
	"github.com/wfkpk/authgate/internal/ports"
)

// Gateway wraps the six account service operations. Mutating operations
// surface failures as structured errors; the query operations degrade to an
// absent or empty result with a logged diagnostic, so their callers cannot
// tell "no account" from "service unreachable".
type Gateway struct {
	manager *connection.Manager
	logger  pslog.Base
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger supplies a logger for query-path diagnostics. Passing nil falls
// back to pslog.NoopLogger().
func WithLogger(logger pslog.Base) Option {
	return func(g *Gateway) {
		if logger == nil {
			logger = pslog.NoopLogger()
		}
		g.logger = logger
	}
}

// NewGateway creates a gateway dispatching through the given manager.
func NewGateway(manager *connection.Manager, opts ...Option) *Gateway {
	g := &Gateway{
		manager: manager,
		logger:  pslog.NoopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login registers the account with the service. The service assigns the
// account identifier and session token; the descriptor passed here only
// needs the identifying fields.
func (g *Gateway) Login(ctx context.Context, account domain.Account) error {
	_, err := g.dispatch(ctx, ports.Request{Op: ports.OpLogin, Account: &account})
	return err
}

// Logout removes the account the service knows under the given identifier,
// an email address or display name.
func (g *Gateway) Logout(ctx context.Context, identifier string) error {
	_, err := g.dispatch(ctx, ports.Request{Op: ports.OpLogout, Identifier: identifier})
	return err
}

// LogoutAll removes every account held by the service.
func (g *Gateway) LogoutAll(ctx context.Context) error {
	_, err := g.dispatch(ctx, ports.Request{Op: ports.OpLogoutAll})
	return err
}

// SwitchAccount makes the given account the active one.
func (g *Gateway) SwitchAccount(ctx context.Context, account domain.Account) error {
	_, err := g.dispatch(ctx, ports.Request{Op: ports.OpSwitchAccount, Account: &account})
	return err
}

// ActiveAccount returns the currently active account. The second return is
// false when no account is active or the service could not be reached.
func (g *Gateway) ActiveAccount(ctx context.Context) (domain.Account, bool) {
	resp, err := g.dispatch(ctx, ports.Request{Op: ports.OpGetActive})
	if err != nil {
		g.logger.Warn("get active account failed", "error", err)
		return domain.Account{}, false
	}
	if resp.Account == nil {
		return domain.Account{}, false
	}
	return *resp.Account, true
}

// AllAccounts returns every account held by the service, in the order the
// service reports them. Malformed entries are dropped. An empty result can
// mean either no accounts or an unreachable service.
func (g *Gateway) AllAccounts(ctx context.Context) []domain.Account {
	resp, err := g.dispatch(ctx, ports.Request{Op: ports.OpGetAll})
	if err != nil {
		g.logger.Warn("get all accounts failed", "error", err)
		return nil
	}

	accounts := make([]domain.Account, 0, len(resp.Accounts))
	for _, account := range resp.Accounts {
		if account == nil || account.IsBlank() {
			continue
		}
		accounts = append(accounts, *account)
	}
	return accounts
}

// IsConnected reports whether a live channel to the service is held.
func (g *Gateway) IsConnected() bool {
	return g.manager.IsConnected()
}

// Unbind releases the channel. Idempotent.
func (g *Gateway) Unbind() {
	g.manager.Unbind()
}

func (g *Gateway) dispatch(ctx context.Context, req ports.Request) (ports.Response, error) {
	if !g.manager.EnsureConnected(ctx) {
		return ports.Response{}, fmt.Errorf("%w: is the service installed and running?", domain.ErrConnectionUnavailable)
	}

	// A disconnect may race the connectivity check above.
	ch, ok := g.manager.Channel()
	if !ok {
		return ports.Response{}, domain.ErrChannelLost
	}

	req.ID = uuid.NewString()
	resp, err := ch.Invoke(ctx, req)
	if err != nil {
		return ports.Response{}, &domain.RemoteError{Kind: domain.RemoteCommunication, Message: err.Error()}
	}
	if !resp.OK {
		return ports.Response{}, &domain.RemoteError{Kind: domain.RemoteRejection, Message: resp.Error}
	}
	return resp, nil
}
