package accounts

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title        lipgloss.Style
	header       lipgloss.Style
	account      lipgloss.Style
	activeMarker lipgloss.Style
	detail       lipgloss.Style
	connected    lipgloss.Style
	disconnected lipgloss.Style
	empty        lipgloss.Style
	section      lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:        lipgloss.NewStyle().Bold(true),
		header:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		account:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		activeMarker: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")),
		detail:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		connected:    lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		disconnected: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		empty:        lipgloss.NewStyle().Faint(true),
		section:      lipgloss.NewStyle().MarginTop(1),
	}
}
