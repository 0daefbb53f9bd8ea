package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2C3E50"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3498DB"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#27AE60"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C0392B"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	labelStyle   = lipgloss.NewStyle().Bold(true)

	priorityStyles = map[string]lipgloss.Style{
		"high":   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C0392B")),
		"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("#D68910")),
		"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("#27AE60")),
	}
)
