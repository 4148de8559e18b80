package accounts

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/wfkpk/authgate/internal/domain"
)

type RenderOptions struct {
	// Connected reflects the channel state at render time.
	Connected bool
	// ShowTokens includes the session token suffix per account. Off by
	// default; tokens are opaque and mostly noise.
	ShowTokens bool
}

func renderView(accounts []domain.Account, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Accounts"),
		connectionLine(opts.Connected, s),
		s.header.Render(fmt.Sprintf("accounts: %d", len(accounts))),
	}

	if len(accounts) == 0 {
		lines = append(lines, s.empty.Render("No accounts. The service may hold none, or it may be unreachable."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, account := range accounts {
		lines = append(lines, s.section.Render(renderAccount(account, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func connectionLine(connected bool, s styles) string {
	if connected {
		return s.connected.Render("service: connected")
	}
	return s.disconnected.Render("service: disconnected")
}

func renderAccount(account domain.Account, opts RenderOptions, s styles) string {
	title := s.account.Render(accountTitle(account))
	if account.Active {
		title = lipgloss.JoinHorizontal(lipgloss.Top, s.activeMarker.Render("* "), title)
	} else {
		title = "  " + title
	}

	parts := []string{title}
	if account.Email != "" && account.Email != account.Name {
		parts = append(parts, s.detail.Render("    "+account.Email))
	}
	if opts.ShowTokens && account.Token != "" {
		parts = append(parts, s.detail.Render("    token: "+tokenSuffix(account.Token)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func accountTitle(account domain.Account) string {
	name := account.Name
	if name == "" {
		name = account.Email
	}
	if account.ID == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, shortID(account.ID))
}

// shortID keeps listings readable; the full GUID stays available via --json.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func tokenSuffix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return "…" + token[len(token)-6:]
}
