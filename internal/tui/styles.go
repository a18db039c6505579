package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("#7c3aed")
	muted   = lipgloss.Color("#737373")
	success = lipgloss.Color("#10b981")
	danger  = lipgloss.Color("#ef4444")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#fafafa")).
			Background(primary).
			Padding(0, 1)
	statusStyle  = lipgloss.NewStyle().Foreground(muted)
	debitStyle   = lipgloss.NewStyle().Foreground(danger)
	creditStyle  = lipgloss.NewStyle().Foreground(success)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(danger)
	noticeStyle  = lipgloss.NewStyle().Foreground(primary)
	sectionStyle = lipgloss.NewStyle().MarginTop(1)
)
