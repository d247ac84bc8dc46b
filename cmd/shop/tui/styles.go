package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Color palette
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorDanger  = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorText    = lipgloss.Color("#F3F4F6")
	colorBorder  = lipgloss.Color("#4B5563")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	dangerStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorInfo)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true).
				PaddingLeft(2)

	unselectedItemStyle = lipgloss.NewStyle().
				Foreground(colorText).
				PaddingLeft(4)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)

	activeButtonStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Background(colorPrimary).
				Padding(0, 3).
				Bold(true)

	inactiveButtonStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Background(lipgloss.Color("#1F2937")).
				Padding(0, 3)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	progressBarStyle = lipgloss.NewStyle().
				Foreground(colorPrimary)

	progressEmptyStyle = lipgloss.NewStyle().
				Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDanger).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

// Table states shown in the list.
const (
	StateExists  = "exists"
	StateMissing = "missing"
	StateRunning = "running"
	StateFailed  = "failed"
)

// FormatStatus returns a styled table state.
func FormatStatus(state string) string {
	switch state {
	case StateExists:
		return successStyle.Render("✓ " + state)
	case StateMissing:
		return warningStyle.Render("○ " + state)
	case StateFailed:
		return dangerStyle.Render("✗ " + state)
	case StateRunning:
		return infoStyle.Render("◉ " + state)
	default:
		return mutedStyle.Render(state)
	}
}

// FormatProgressBar renders current/total as a bar width cells wide.
func FormatProgressBar(current, total, width int) string {
	if total <= 0 {
		return progressEmptyStyle.Render(strings.Repeat("━", width))
	}
	filled := min(width*current/total, width)
	return progressBarStyle.Render(strings.Repeat("━", filled)) +
		progressEmptyStyle.Render(strings.Repeat("━", width-filled)) +
		" " + infoStyle.Render(fmt.Sprintf("%d/%d", current, total))
}

// FormatKey formats a help key
func FormatKey(key, description string) string {
	return helpKeyStyle.Render(key) + " " + mutedStyle.Render(description)
}
