package domain

// Account describes one authenticated identity as reported by the remote
// account service. Values are never mutated in place; any change produces a
// fresh copy. The service guarantees at most one account is active at a time;
// the client treats that as given.
type Account struct {
	ID        string
	Name      string
	Email     string
	AvatarURL string
	Token     string
	Active    bool
}

// WithActive returns a copy of the account with the active flag set. This is
// a local convenience for optimistic UI updates; the service remains the
// authority on which account is actually active.
func (a Account) WithActive(active bool) Account {
	a.Active = active
	return a
}

// Identifier returns the key the service uses to address this account:
// the email when present, otherwise the display name.
func (a Account) Identifier() string {
	if a.Email != "" {
		return a.Email
	}
	return a.Name
}

// IsBlank reports whether the account carries no identifying information at
// all. Such entries can appear in a partially corrupt service response and
// are dropped before results reach callers.
func (a Account) IsBlank() bool {
	return a.ID == "" && a.Name == "" && a.Email == ""
}
