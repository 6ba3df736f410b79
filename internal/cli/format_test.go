package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/kasboard/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"
)

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "Rp 0"},
		{"999", "Rp 999"},
		{"50000", "Rp 50,000"},
		{"1234567", "Rp 1,234,567"},
		{"1234567.6", "Rp 1,234,568"},
		{"50000.0", "Rp 50,000"},
		{"-2500", "-Rp 2,500"},
	}
	for _, tt := range tests {
		got := FormatRupiah(decimal.RequireFromString(tt.in))
		if got != tt.want {
			t.Errorf("FormatRupiah(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"750", "750"},
		{"1500", "1.5rb"},
		{"2500000", "2.5jt"},
		{"3000000000", "3.0M"},
	}
	for _, tt := range tests {
		if got := FormatCompact(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatCompact(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	a, b := decimal.NewFromInt(80000), decimal.NewFromInt(50000)
	if got := FormatDelta(a, b); got != "+Rp 30,000" {
		t.Errorf("got %q", got)
	}
	if got := FormatDelta(b, a); got != "-Rp 30,000" {
		t.Errorf("got %q", got)
	}
}

func TestFormatDateUsesLocation(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	ts := time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC)
	if got := FormatDate(ts, wib); got != "01 Feb 2024" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := FormatDateTime(ts, wib); got != "01 Feb 2024 03:00" {
		t.Errorf("FormatDateTime = %q", got)
	}
	if got := FormatDate(time.Time{}, wib); got != "-" {
		t.Errorf("zero date = %q", got)
	}
}

func TestFormatMonth(t *testing.T) {
	if got := FormatMonth("2024-02"); got != "Feb 2024" {
		t.Errorf("got %q", got)
	}
	if got := FormatMonth("bogus"); got != "bogus" {
		t.Errorf("got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Sponsor/Media", 7); got != "Sponso…" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("Kas", 7); got != "Kas" {
		t.Errorf("got %q", got)
	}
}

func TestRenderTableAlignment(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	out := RenderTable(Table{
		Headers:   []string{"Sumber", "Keterangan", "Jumlah"},
		LeftAlign: []int{1},
		Rows: [][]string{
			{"Proposal", "Dana", "Rp 100,000"},
			SeparatorRow,
			{"Total", "", "Rp 1"},
		},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[3], "│ Dana       │") {
		t.Errorf("description not left-aligned: %q", lines[3])
	}
	if !strings.Contains(lines[5], "│       Rp 1 │") {
		t.Errorf("amount not right-aligned: %q", lines[5])
	}
	for _, l := range lines[1:] {
		if lipgloss.Width(l) != lipgloss.Width(lines[0]) {
			t.Errorf("ragged row %q", l)
		}
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 50, 100}); got != "▁▄█" {
		t.Errorf("got %q", got)
	}
	if RenderSparkline(nil) != "" {
		t.Error("expected empty sparkline")
	}
}

func TestRenderShareBar(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	got := RenderShareBar(model.SourceShare{Source: model.SourceProposal, Percent: 50}, 10)
	if got != "█████░░░░░ 50.0%" {
		t.Errorf("got %q", got)
	}
}

func TestParseRupiah(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"50000", "50000"},
		{"50.000", "50000"},
		{"Rp 1,250,000", "1250000"},
		{" 75 000 ", "75000"},
		{"50000.00", "50000"},
		{"50000.0", "50000"},
		{"50000.5", "50000.5"},
		{"1.5", "1.5"},
		{"1.250,50", "1250.5"},
		{"Rp 1,250,000.75", "1250000.75"},
	}
	for _, tt := range tests {
		got, err := ParseRupiah(tt.in)
		if err != nil {
			t.Fatalf("ParseRupiah(%q): %v", tt.in, err)
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseRupiah(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"lima ribu", "", "Rp", "50000.1234", "5.0000", "1,25,000", ".500", "50..000", "1.000,", "50000.000"} {
		if got, err := ParseRupiah(bad); err == nil {
			t.Errorf("ParseRupiah(%q) = %s, want error", bad, got)
		}
	}
}
