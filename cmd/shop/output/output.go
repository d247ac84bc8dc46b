// Package output renders styled terminal messages for the shop CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Color styles for terminal output
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
)

// Printer writes styled lines to w.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Stdout prints to standard output.
var Stdout = New(os.Stdout)

func (p *Printer) line(icon string, format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, "%s %s\n", icon, fmt.Sprintf(format, args...))
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	p.line(successStyle.Render("✓"), format, args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	p.line(warningStyle.Render("⚠"), format, args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	p.line(errorStyle.Render("✗"), format, args...)
}

// Info prints an info message
func (p *Printer) Info(format string, args ...any) {
	p.line(infoStyle.Render("ℹ"), format, args...)
}

// Muted prints a muted message
func (p *Printer) Muted(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a section header underlined to the title's width.
func (p *Printer) Section(title string) {
	_, _ = fmt.Fprintf(p.w, "\n%s\n%s\n\n",
		primaryStyle.Render(title),
		mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
}

// Statement prints one SQL statement, indented.
func (p *Printer) Statement(sql string) {
	for l := range strings.SplitSeq(sql, "\n") {
		_, _ = fmt.Fprintln(p.w, "  "+infoStyle.Render(l))
	}
}

// TableIcon returns a colored marker for whether a table exists.
func TableIcon(exists bool) string {
	if exists {
		return successStyle.Render("✓")
	}
	return warningStyle.Render("○")
}

// TableState names the state TableIcon marks.
func TableState(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}
