package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/tui/components"
	"github.com/theirongolddev/kasboard/internal/tui/theme"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// chartMonths is how many trailing months the bar chart shows.
const chartMonths = 12

func (a App) updateDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if moveCursor(&a.dash, len(a.recent), msg) {
		return a, nil, true
	}
	switch {
	case key.Matches(msg, keys.Delete):
		m, cmd := a.beginDelete(auth.ActionDeleteTransaction)
		return m, cmd, true
	case key.Matches(msg, keys.Export):
		if err := a.sess.Require(auth.ActionExport); err != nil {
			m, cmd := a.setFlashErr(err)
			return m, cmd, true
		}
		return a, exportCmd(a.ctrl, a.sess, a.exportDir), true
	}
	return a, nil, false
}

func (a App) renderDashboardTab(cw, h int) string {
	t := theme.Active
	compact := a.isCompactLayout()

	var b strings.Builder

	// Metric cards: grand total, one per source, members.
	money := cli.FormatRupiah
	if compact {
		money = cli.FormatCompact
	}
	cards := []components.Metric{{
		Label:  "Total Pemasukan",
		Value:  money(a.summary.Total),
		Detail: fmt.Sprintf("%d transaksi", a.summary.Count),
		Accent: t.AccentBright,
	}}
	for _, st := range a.summary.BySource {
		cards = append(cards, components.Metric{
			Label:  string(st.Source),
			Value:  money(st.Amount),
			Detail: shareDetail(a.shares, st.Source),
			Accent: t.SourceColor(st.Source),
		})
	}
	cards = append(cards, components.Metric{
		Label:  "Anggota",
		Value:  cli.FormatNumber(int64(a.summary.MemberCount)),
		Detail: "bulan ini " + cli.FormatCompact(a.summary.CurrentMonth),
	})
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	if len(a.warnings) > 0 {
		b.WriteString(a.renderWarnings(cw))
		b.WriteString("\n")
	}

	// Monthly chart + distribution
	if compact {
		b.WriteString(a.renderMonthlyCard(cw))
		b.WriteString("\n")
		b.WriteString(a.renderDistributionCard(cw))
	} else {
		widths := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			a.renderMonthlyCard(widths[0]),
			a.renderDistributionCard(widths[1]),
		}))
	}
	b.WriteString("\n")

	used := lipgloss.Height(b.String())
	b.WriteString(a.renderRecentCard(cw, max(h-used-3, 3)))
	return b.String()
}

func shareDetail(shares []model.SourceShare, src model.Source) string {
	for _, s := range shares {
		if s.Source == src {
			return cli.FormatPercent(s.Percent) + " dari total"
		}
	}
	return "belum ada"
}

func (a App) renderWarnings(cw int) string {
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface)

	var lines []string
	for _, w := range a.warnings {
		lines = append(lines, style.Render("⚠ "+cli.Truncate(w.Error(), components.CardInnerWidth(cw)-2)))
	}
	return components.ContentCard("Peringatan", strings.Join(lines, "\n"), cw)
}

func (a App) renderMonthlyCard(w int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)

	months := a.months
	if len(months) > chartMonths {
		months = months[len(months)-chartMonths:]
	}
	if len(months) == 0 {
		return components.ContentCard("Pemasukan per Bulan",
			lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("Belum ada transaksi"), w)
	}

	values := make([]float64, len(months))
	labels := make([]string, len(months))
	for i, m := range months {
		values[i] = m.Amount.InexactFloat64()
		labels[i] = shortMonth(m.Month)
	}
	return components.ContentCard("Pemasukan per Bulan",
		components.BarChart(values, labels, t.Chart, innerW, 8), w)
}

// shortMonth turns "2024-03" into "Mar".
func shortMonth(key string) string {
	label := cli.FormatMonth(key)
	if name, _, ok := strings.Cut(label, " "); ok {
		return name
	}
	return label
}

func (a App) renderDistributionCard(w int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)

	if len(a.shares) == 0 {
		return components.ContentCard("Distribusi Sumber",
			lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("Belum ada transaksi"), w)
	}

	labelW := 0
	for _, src := range model.Sources {
		labelW = max(labelW, lipgloss.Width(string(src)))
	}
	amountW := 0
	for _, s := range a.shares {
		amountW = max(amountW, lipgloss.Width(cli.FormatRupiah(s.Amount)))
	}
	barW := max(innerW-labelW-amountW-10, 6)

	var lines []string
	for _, s := range a.shares {
		lines = append(lines, components.ShareBar(string(s.Source), s.Percent,
			cli.FormatRupiah(s.Amount), t.SourceColor(s.Source), labelW, barW))
	}
	return components.ContentCard("Distribusi Sumber", strings.Join(lines, "\n"), w)
}

func (a App) renderRecentCard(cw, visible int) string {
	t := theme.Active
	loc := a.ctrl.Location()

	title := fmt.Sprintf("Transaksi Terakhir (%d)", len(a.recent))
	if len(a.recent) == 0 {
		return components.ContentCard(title,
			lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("Belum ada transaksi"), cw)
	}

	cols := []column{
		{title: "Tanggal", width: 18},
		{title: "Sumber", width: 14},
		{title: "Jumlah", width: 14, right: true},
		{title: "Anggota / Sponsor", width: 24},
		{title: "Keterangan", flex: true},
	}
	rows := make([][]string, len(a.recent))
	colors := make([]lipgloss.Color, len(a.recent))
	for i, tx := range a.recent {
		rows[i] = []string{
			cli.FormatDateTime(tx.Date, loc),
			string(tx.Source),
			cli.FormatRupiah(tx.Amount),
			tx.Member,
			tx.Description,
		}
		colors[i] = t.SourceColor(tx.Source)
	}

	body := renderList(cols, rows, colors, a.dash.cursor, visible, components.CardInnerWidth(cw))
	body += "\n" + a.listFooter(a.dash, "x hapus · e ekspor CSV")
	return components.ContentCard(title, body, cw)
}

// listFooter renders the hint line under a list, or the delete prompt.
func (a App) listFooter(l listState, writeHint string) string {
	t := theme.Active
	if l.confirming {
		return lipgloss.NewStyle().Foreground(t.Danger).Background(t.Surface).Bold(true).
			Render("Hapus baris terpilih? [y] ya  [n] batal")
	}
	hint := "j/k pilih"
	if a.sess.CanWrite() {
		hint += " · " + writeHint
	}
	return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(hint)
}
