package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF"))
)

// printer styles command output. Styling only applies when writing to a
// terminal, so piped and captured output stays plain.
type printer struct {
	styled bool
}

func newPrinter(w io.Writer) printer {
	f, ok := w.(*os.File)
	return printer{styled: ok && term.IsTerminal(int(f.Fd()))}
}

func (p printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p printer) title(text string) string   { return p.render(titleStyle, text) }
func (p printer) path(text string) string    { return p.render(pathStyle, text) }
func (p printer) muted(text string) string   { return p.render(mutedStyle, text) }
func (p printer) success(text string) string { return p.render(successStyle, text) }
func (p printer) warning(text string) string { return p.render(warningStyle, text) }
