package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
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

// printer writes styled status lines to a command's output stream.
type printer struct {
	w io.Writer
}

func (p printer) success(format string, args ...any) {
	fmt.Fprint(p.w, successStyle.Render("✓ "))
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) warning(format string, args ...any) {
	fmt.Fprint(p.w, warningStyle.Render("⚠ "))
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) failure(format string, args ...any) {
	fmt.Fprint(p.w, errorStyle.Render("✗ "))
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) info(format string, args ...any) {
	fmt.Fprint(p.w, infoStyle.Render("ℹ "))
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) muted(format string, args ...any) {
	fmt.Fprintln(p.w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

func (p printer) section(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, primaryStyle.Render(title))
}
