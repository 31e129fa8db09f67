package menu

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#8B5CF6")
	accentColor  = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#94A3B8")
)

// styles are bound to the menu's writer so colour is only emitted on a terminal.
type styles struct {
	title   lipgloss.Style
	option  lipgloss.Style
	prompt  lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Bold(true).
			Padding(0, 2),
		option: r.NewStyle().
			Foreground(mutedColor),
		prompt: r.NewStyle().
			Foreground(primaryColor).
			Bold(true),
		success: r.NewStyle().
			Foreground(accentColor),
		err: r.NewStyle().
			Foreground(errorColor).
			Bold(true),
	}
}
