// Package wire defines the JSON frames exchanged with the account service:
// one JSON value per line, a hello/ack handshake first, then id-correlated
// request/response pairs.
package wire

import (
	"github.com/wfkpk/authgate/internal/domain"
	"github.com/wfkpk/authgate/internal/ports"
)

// Protocol is the handshake protocol revision.
const Protocol = 1

// Hello opens the handshake. The service acks it, completing the bind.
type Hello struct {
	Component string `json:"component"`
	Action    string `json:"action"`
	Protocol  int    `json:"protocol"`
}

// HelloAck completes the handshake. OK false rejects the binding.
type HelloAck struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Account is the wire form of an account descriptor.
type Account struct {
	ID        string `json:"guid,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Token     string `json:"token,omitempty"`
	Active    bool   `json:"active,omitempty"`
}

// Identifier returns the service-side lookup key for this account: email
// when present, otherwise name.
func (a Account) Identifier() string {
	if a.Email != "" {
		return a.Email
	}
	return a.Name
}

// Request is one remote call frame.
type Request struct {
	ID         string   `json:"id"`
	Op         string   `json:"op"`
	Account    *Account `json:"account,omitempty"`
	Identifier string   `json:"identifier,omitempty"`
}

// Response answers the request with the matching ID.
type Response struct {
	ID       string     `json:"id"`
	OK       bool       `json:"ok"`
	Error    string     `json:"error,omitempty"`
	Account  *Account   `json:"account,omitempty"`
	Accounts []*Account `json:"accounts,omitempty"`
}

// FromDomain converts an account descriptor to its wire form.
func FromDomain(a domain.Account) Account {
	return Account{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		AvatarURL: a.AvatarURL,
		Token:     a.Token,
		Active:    a.Active,
	}
}

// ToDomain converts a wire account back to the domain form.
func (a Account) ToDomain() domain.Account {
	return domain.Account{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		AvatarURL: a.AvatarURL,
		Token:     a.Token,
		Active:    a.Active,
	}
}

// RequestFrom converts a port-level request to its wire form.
func RequestFrom(req ports.Request) Request {
	out := Request{
		ID:         req.ID,
		Op:         string(req.Op),
		Identifier: req.Identifier,
	}
	if req.Account != nil {
		account := FromDomain(*req.Account)
		out.Account = &account
	}
	return out
}

// ToPort converts a wire response to its port-level form. Nil entries in
// Accounts are preserved; filtering malformed entries is the gateway's job.
func (r Response) ToPort() ports.Response {
	out := ports.Response{
		ID:    r.ID,
		OK:    r.OK,
		Error: r.Error,
	}
	if r.Account != nil {
		account := r.Account.ToDomain()
		out.Account = &account
	}
	if r.Accounts != nil {
		out.Accounts = make([]*domain.Account, 0, len(r.Accounts))
		for _, entry := range r.Accounts {
			if entry == nil {
				out.Accounts = append(out.Accounts, nil)
				continue
			}
			account := entry.ToDomain()
			out.Accounts = append(out.Accounts, &account)
		}
	}
	return out
}
