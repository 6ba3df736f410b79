package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

type column struct {
	title string
	width int
	right bool
	flex  bool // takes the remaining width
}

// layoutColumns resolves flex columns against the available width.
// Columns are separated by two spaces.
func layoutColumns(cols []column, width int) []int {
	widths := make([]int, len(cols))
	fixed := 2 * (len(cols) - 1)
	flexCount := 0
	for i, c := range cols {
		if c.flex {
			flexCount++
			continue
		}
		widths[i] = c.width
		fixed += c.width
	}
	if flexCount > 0 {
		share := max((width-fixed)/flexCount, 6)
		for i, c := range cols {
			if c.flex {
				widths[i] = share
			}
		}
	}
	return widths
}

// renderList draws a header plus up to visible rows, scrolled so the
// cursor row is shown and highlighted. colors tints the second column.
func renderList(cols []column, rows [][]string, colors []lipgloss.Color, cursor, visible, width int) string {
	t := theme.Active
	widths := layoutColumns(cols, width)

	headerStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	fit := func(s string, i int) string {
		s = cli.Truncate(s, widths[i])
		if cols[i].right {
			return fmt.Sprintf("%*s", widths[i], s)
		}
		return fmt.Sprintf("%-*s", widths[i], s)
	}

	var b strings.Builder
	head := make([]string, len(cols))
	for i, c := range cols {
		head[i] = fit(c.title, i)
	}
	b.WriteString(headerStyle.Render(strings.Join(head, "  ")))

	visible = max(visible-1, 1) // header
	start := windowStart(cursor, visible)
	end := min(start+visible, len(rows))
	for r := start; r < end; r++ {
		b.WriteString("\n")
		style := cellStyle
		if r == cursor {
			style = selStyle
		}
		for i := range cols {
			if i > 0 {
				b.WriteString(style.Render("  "))
			}
			cell := fit(rows[r][i], i)
			if i == 1 && r < len(colors) && colors[r] != "" {
				b.WriteString(style.Foreground(colors[r]).Render(cell))
				continue
			}
			b.WriteString(style.Render(cell))
		}
	}

	if hidden := len(rows) - end; hidden > 0 || start > 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d-%d dari %d", start+1, end, len(rows))))
	}
	return b.String()
}
