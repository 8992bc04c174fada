package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#F59E0B")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")

	// Base styles
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// Status indicators
	styleValid = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	styleExcluded = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	styleFailed = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	// Table styles
	styleTableHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorPrimary).
				Padding(0, 1)

	styleTableRow = lipgloss.NewStyle().
			Padding(0, 1)

	styleTableRowSelected = lipgloss.NewStyle().
				Background(lipgloss.Color("#1F2937")).
				Foreground(lipgloss.Color("#FFFFFF")).
				Padding(0, 1)

	styleDetailBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2)

	// Label styles
	styleLabel = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(12)

	styleValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))
)

// StatusIcon returns a colored status indicator
func StatusIcon(status EntryStatus) string {
	switch status {
	case StatusValid:
		return styleValid.Render("●")
	case StatusExcluded:
		return styleExcluded.Render("◐")
	case StatusFailed:
		return styleFailed.Render("○")
	default:
		return styleMuted().Render("?")
	}
}

// StatusLabel returns a colored status with its name
func StatusLabel(status EntryStatus) string {
	switch status {
	case StatusValid:
		return styleValid.Render("● Valid")
	case StatusExcluded:
		return styleExcluded.Render("◐ Excluded")
	case StatusFailed:
		return styleFailed.Render("○ Failed")
	default:
		return styleMuted().Render("? Unknown")
	}
}

func styleMuted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorMuted)
}
