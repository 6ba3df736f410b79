package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/kasboard/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var (
	sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	barBlocks   = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
)

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int(v / peak * float64(len(sparkBlocks)-1))
		idx = min(max(idx, 0), len(sparkBlocks)-1)
		buf.WriteRune(sparkBlocks[idx])
	}

	return lipgloss.NewStyle().
		Foreground(color).
		Background(theme.Active.Surface).
		Render(buf.String())
}

// yAxis describes the vertical scale of a bar chart.
type yAxis struct {
	step      float64
	ceiling   float64
	intervals int
	rowsPer   int
	labelW    int
}

func (y yAxis) rows() int { return y.rowsPer * y.intervals }

func newYAxis(peak float64, height int) yAxis {
	step := chartTickStep(peak)
	maxIntervals := max(height/2, 2)
	for int(math.Ceil(peak/step)) > maxIntervals {
		step *= 2
	}
	ceiling := math.Ceil(peak/step) * step
	intervals := max(int(math.Round(ceiling/step)), 1)

	return yAxis{
		step:      step,
		ceiling:   ceiling,
		intervals: intervals,
		rowsPer:   max(height/intervals, 2),
		labelW:    max(len(formatChartLabel(ceiling))+1, 4),
	}
}

// label returns the tick label for chart row, or "" between ticks.
func (y yAxis) label(row int) string {
	if row%y.rowsPer != 0 {
		return ""
	}
	return formatChartLabel(y.step * float64(row/y.rowsPer))
}

// BarChart renders a vertical bar chart of monthly totals. Values are in
// rupiah; the y-axis uses rb/jt/M suffixes. Narrow areas fall back to a
// sparkline.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}

	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	axis := newYAxis(peak, height)
	chartW := max(width-axis.labelW-1, 5)
	values, labels, barW, gap := fitBars(values, labels, chartW)
	n := len(values)
	axisLen := n*barW + max(0, n-1)*gap

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	chartH := axis.rows()
	for row := chartH; row >= 1; row-- {
		top := axis.ceiling * float64(row) / float64(chartH)
		bottom := axis.ceiling * float64(row-1) / float64(chartH)

		barColor := t.Accent
		switch frac := float64(row) / float64(chartH); {
		case frac > 0.8:
			barColor = t.AccentBright
		case frac > 0.5:
			barColor = color
		}
		barStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", axis.labelW, axis.label(row))))
		for i, v := range values {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			switch {
			case v >= top:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := int((v - bottom) / (top - bottom) * 8)
				idx = min(max(idx, 1), 8)
				b.WriteString(barStyle.Render(strings.Repeat(string(barBlocks[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└", axis.labelW, "0")))
	b.WriteString(axisStyle.Render(strings.Repeat("─", axisLen)))

	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", axis.labelW+1)))
		b.WriteString(axisStyle.Render(xAxisLabels(labels, barW, gap, axisLen)))
	}

	return b.String()
}

// fitBars picks a bar width for chartW columns, sampling the series down
// when there are more bars than fit at two columns each.
func fitBars(values []float64, labels []string, chartW int) ([]float64, []string, int, int) {
	n := len(values)
	if n == 1 {
		return values, labels, min(chartW, 6), 0
	}

	barW := (chartW - (n - 1)) / n
	if barW < 2 {
		keep := max((chartW+1)/3, 2)
		sampled := make([]float64, keep)
		var sampledLabels []string
		if len(labels) == n {
			sampledLabels = make([]string, keep)
		}
		for i := range sampled {
			src := i * (n - 1) / (keep - 1)
			sampled[i] = values[src]
			if sampledLabels != nil {
				sampledLabels[i] = labels[src]
			}
		}
		values, labels, barW = sampled, sampledLabels, 2
	}
	return values, labels, min(barW, 6), 1
}

// xAxisLabels lays out labels under their bars, skipping any that would
// overlap. The last label is always placed when it fits.
func xAxisLabels(labels []string, barW, gap, axisLen int) string {
	n := len(labels)
	buf := []byte(strings.Repeat(" ", axisLen))

	step := max(1, (n*8)/(axisLen+1))
	lastEnd := -1
	for i := 0; i < n; i += step {
		pos := i * (barW + gap)
		lbl := labels[i]
		end := pos + len(lbl)
		if pos <= lastEnd {
			continue
		}
		if end > axisLen {
			end = axisLen
			if end-pos < 3 {
				continue
			}
			lbl = lbl[:end-pos]
		}
		copy(buf[pos:end], lbl)
		lastEnd = end + 1
	}

	if n > 1 {
		lbl := labels[n-1]
		pos := (n - 1) * (barW + gap)
		if pos+len(lbl) > axisLen {
			pos = axisLen - len(lbl)
		}
		if pos >= 0 && pos > lastEnd {
			copy(buf[pos:pos+len(lbl)], lbl)
		}
	}
	return strings.TrimRight(string(buf), " ")
}

// chartTickStep computes a round tick interval targeting about five ticks.
func chartTickStep(peak float64) float64 {
	if peak <= 0 {
		return 1
	}
	rough := peak / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))

	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

// formatChartLabel abbreviates a rupiah amount: 500rb, 1.5jt, 2M.
func formatChartLabel(v float64) string {
	unit := func(div float64, suffix string) string {
		if v == math.Trunc(v/div)*div {
			return fmt.Sprintf("%.0f%s", v/div, suffix)
		}
		return fmt.Sprintf("%.1f%s", v/div, suffix)
	}
	switch {
	case v >= 1e9:
		return unit(1e9, "M")
	case v >= 1e6:
		return unit(1e6, "jt")
	case v >= 1e3:
		return unit(1e3, "rb")
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
