package components

import (
	"fmt"

	"github.com/theirongolddev/kasboard/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ShareBar renders one labeled row of the source distribution:
// label, a bar filled to pct (0-100), the percentage and the amount.
func ShareBar(label string, pct float64, amount string, color lipgloss.Color, labelW, barW int) string {
	t := theme.Active

	frac := min(max(pct/100, 0), 1)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(barW, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	amountStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		space.Render(" ") +
		bar.ViewAs(frac) +
		space.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%5.1f%%", frac*100)) +
		space.Render("  ") +
		amountStyle.Render(amount)
}
