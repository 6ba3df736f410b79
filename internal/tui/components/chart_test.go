package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestFormatChartLabel(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{750, "750"},
		{50_000, "50rb"},
		{1_500_000, "1.5jt"},
		{2_000_000, "2jt"},
		{3_000_000_000, "3M"},
	}
	for _, tt := range tests {
		if got := formatChartLabel(tt.in); got != tt.want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestChartTickStep(t *testing.T) {
	if got := chartTickStep(1_000_000); got != 200_000 {
		t.Errorf("chartTickStep(1jt) = %v, want 200000", got)
	}
	if got := chartTickStep(0); got != 1 {
		t.Errorf("chartTickStep(0) = %v, want 1", got)
	}
}

func TestBarChartNarrowFallsBackToSparkline(t *testing.T) {
	out := BarChart([]float64{1, 2, 3}, nil, "#ffffff", 10, 10)
	if strings.Contains(out, "\n") {
		t.Errorf("expected a single-line sparkline, got %q", out)
	}
}

func TestBarChartLabelsAndWidth(t *testing.T) {
	values := []float64{150_000, 80_000, 250_000}
	labels := []string{"Jan", "Feb", "Mar"}
	out := BarChart(values, labels, "#ffffff", 40, 8)

	lines := strings.Split(out, "\n")
	last := lines[len(lines)-1]
	for _, l := range labels {
		if !strings.Contains(last, l) {
			t.Errorf("x-axis %q missing label %q", last, l)
		}
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w > 40 {
			t.Errorf("line %d width = %d, exceeds 40", i, w)
		}
	}
}

func TestTabVisualWidth(t *testing.T) {
	for i, tab := range Tabs {
		if got, want := TabVisualWidth(tab, i == 0), len(tab.Name)+2; got != want {
			t.Errorf("%s width = %d, want %d", tab.Name, got, want)
		}
	}
	hidden := Tab{Name: "Keluar", Key: 'z', KeyPos: -1}
	if got := TabVisualWidth(hidden, false); got != len("Keluar")+5 {
		t.Errorf("inactive tab with external key width = %d", got)
	}
}

func TestTabIdxByKey(t *testing.T) {
	if TabIdxByKey('n') != TabMembers {
		t.Error("'n' should select the Anggota tab")
	}
	if TabIdxByKey('q') != -1 {
		t.Error("'q' is not a tab key")
	}
}
