package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type confirmedMsg struct{}

type cancelledMsg struct{}

// ConfirmationDialog is a yes/no prompt. Its answer arrives as a message.
type ConfirmationDialog struct {
	Title       string
	Message     string
	YesSelected bool
}

// NewConfirmationDialog creates a dialog with "No" selected.
func NewConfirmationDialog(title, message string) ConfirmationDialog {
	return ConfirmationDialog{Title: title, Message: message}
}

// Update moves the selection, or answers on enter.
func (d *ConfirmationDialog) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "left", "h", "y":
		d.YesSelected = true
	case "right", "l", "n":
		d.YesSelected = false
	case "enter":
		if d.YesSelected {
			return func() tea.Msg { return confirmedMsg{} }
		}
		return func() tea.Msg { return cancelledMsg{} }
	}
	return nil
}

// View renders the confirmation dialog
func (d ConfirmationDialog) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(d.Title))
	b.WriteString("\n\n")
	b.WriteString(d.Message)
	b.WriteString("\n\n")

	yes, no := inactiveButtonStyle.Render("Yes"), activeButtonStyle.Render("No")
	if d.YesSelected {
		yes, no = activeButtonStyle.Render("Yes"), inactiveButtonStyle.Render("No")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, yes, "  ", no))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(FormatKey("←/→", "select") + " • " + FormatKey("enter", "answer") + " • " + FormatKey("esc", "back")))

	return boxStyle.Render(b.String())
}

// TableItem is one table of the schema plan.
type TableItem struct {
	Name       string
	State      string
	Statements int
}

func (i TableItem) FilterValue() string { return i.Name }
func (i TableItem) Title() string       { return FormatStatus(i.State) + "  " + i.Name }
func (i TableItem) Description() string {
	return mutedStyle.Render(fmt.Sprintf("%d statement(s)", i.Statements))
}

// TableItemDelegate renders TableItems on two lines.
type TableItemDelegate struct{}

func (d TableItemDelegate) Height() int                             { return 2 }
func (d TableItemDelegate) Spacing() int                            { return 1 }
func (d TableItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d TableItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(TableItem)
	if !ok {
		return
	}

	var s string
	if index == m.Index() {
		s = selectedItemStyle.Render("▸ " + i.Title() + "\n  " + i.Description())
	} else {
		s = unselectedItemStyle.Render("  " + i.Title() + "\n  " + i.Description())
	}
	_, _ = fmt.Fprint(w, s)
}

// LogView keeps the last MaxLen log lines.
type LogView struct {
	Logs   []string
	MaxLen int
}

// NewLogView creates a new log view
func NewLogView(maxLen int) LogView {
	return LogView{MaxLen: maxLen}
}

// AddLog adds a log entry, dropping the oldest past MaxLen.
func (l *LogView) AddLog(entry string) {
	l.Logs = append(l.Logs, entry)
	if len(l.Logs) > l.MaxLen {
		l.Logs = l.Logs[len(l.Logs)-l.MaxLen:]
	}
}

// View renders the log view
func (l LogView) View() string {
	if len(l.Logs) == 0 {
		return mutedStyle.Render("No logs")
	}

	var b strings.Builder
	for _, entry := range l.Logs {
		b.WriteString(mutedStyle.Render("• "))
		b.WriteString(entry)
		b.WriteString("\n")
	}
	return boxStyle.Render(b.String())
}
