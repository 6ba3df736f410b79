package components

import (
	"strings"
	"testing"

	"github.com/theirongolddev/kasboard/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("kas-gelap")

	shortCard := ContentCard("Kas", "Rp 50,000", 22)
	tallCard := ContentCard("Anggota", "Budi\nSari\nAndi\nDewi\nRina", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	if shortLines >= tallLines {
		t.Fatal("test setup error: short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Errorf("joined height should match tallest card: got %d, want %d", len(lines), tallLines)
	}

	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no ANSI codes in the padded area: %q", i, lines[i])
		}
	}
}

func TestCardRowWidthConsistency(t *testing.T) {
	theme.SetActive("kas-gelap")

	shortCard := ContentCard("Short", "A", 30)
	tallCard := ContentCard("Tall", "A\nB\nC\nD\nE\nF", 20)

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	want := lipgloss.Width(lines[0])
	for i, line := range lines {
		if w := lipgloss.Width(line); w != want {
			t.Errorf("line %d width = %d, want %d", i, w, want)
		}
	}
}

func TestCardRowSkipsEmpty(t *testing.T) {
	card := ContentCard("Only", "x", 20)
	if got := CardRow([]string{"", card, ""}); got != card {
		t.Errorf("expected the single card unchanged")
	}
	if CardRow(nil) != "" {
		t.Error("expected empty row")
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Kas Anggota", Value: "Rp 80,000"},
		{Label: "Proposal", Value: "Rp 100,000"},
		{Label: "Sponsor/Media", Value: "Rp 0", Detail: "0 transaksi"},
	}, 91)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 91 {
			t.Errorf("line %d width = %d, want 91", i, w)
		}
	}
}

func TestLayoutRow(t *testing.T) {
	got := LayoutRow(10, 3)
	if got[0] != 4 || got[1] != 3 || got[2] != 3 {
		t.Fatalf("LayoutRow(10,3) = %v", got)
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("expected nil for n=0")
	}
}
