package components

import (
	"strings"

	"github.com/theirongolddev/kasboard/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Status is what the bottom bar shows.
type Status struct {
	User     string
	Role     string
	CanWrite bool
	DataAge  string // e.g. "loaded 2 minutes ago"
	Flash    string // transient message from the last action
	FlashErr bool
}

// RenderStatusBar renders the bottom status bar at exactly width columns.
func RenderStatusBar(width int, st Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	roleStyle := lipgloss.NewStyle().Foreground(t.RoleColor(st.CanWrite)).Background(t.Surface).Bold(true)

	left := base.Render(" ") + keyStyle.Render("[?]") + base.Render("help  ") +
		keyStyle.Render("[q]") + base.Render("uit")
	if st.User != "" {
		left += base.Render("  │ ") + roleStyle.Render(st.Role) + base.Render(" ("+st.User+")")
	}

	var right string
	switch {
	case st.Flash != "":
		fc := t.Income
		if st.FlashErr {
			fc = t.Danger
		}
		right = lipgloss.NewStyle().Foreground(fc).Background(t.Surface).Render(st.Flash) + base.Render(" ")
	case st.DataAge != "":
		right = base.Render(st.DataAge + " ")
	}

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return lipgloss.NewStyle().Background(t.Surface).Width(width).MaxWidth(width).
		Render(left + base.Render(strings.Repeat(" ", gap)) + right)
}
