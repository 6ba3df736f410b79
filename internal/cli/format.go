// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// CurrencyPrefix precedes every displayed amount.
const CurrencyPrefix = "Rp "

// FormatRupiah formats an amount rounded to whole rupiah with comma
// thousands separators.
// e.g., 1234567.6 -> "Rp 1,234,568"
func FormatRupiah(amount decimal.Decimal) string {
	n := amount.Round(0).IntPart()
	if n < 0 {
		return "-" + CurrencyPrefix + FormatNumber(-n)
	}
	return CurrencyPrefix + FormatNumber(n)
}

// FormatCompact formats an amount with Indonesian short suffixes, for chart
// axes and narrow cards.
// e.g., 1500 -> "1.5rb", 2500000 -> "2.5jt", 3000000000 -> "3.0M"
func FormatCompact(amount decimal.Decimal) string {
	f := amount.InexactFloat64()
	abs := f
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fM", f/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fjt", f/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1frb", f/1_000)
	default:
		return amount.Round(0).String()
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDelta formats the change between two amounts with a sign.
func FormatDelta(current, previous decimal.Decimal) string {
	delta := current.Sub(previous)
	if delta.IsNegative() {
		return "-" + FormatRupiah(delta.Neg())
	}
	return "+" + FormatRupiah(delta)
}

// FormatDate formats t as a calendar date in loc.
// e.g., "15 Jan 2024"
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("02 Jan 2006")
}

// FormatDateTime formats t with minutes in loc.
// e.g., "15 Jan 2024 10:04"
func FormatDateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("02 Jan 2006 15:04")
}

// FormatMonth turns a "2006-01" key into "Jan 2024". Unparseable keys are
// returned unchanged.
func FormatMonth(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2006")
}

// FormatAge returns a relative time like "3 minutes ago".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// FormatBytes formats a file size.
// e.g., 2048 -> "2.0 kB"
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// ParseRupiah parses a typed rupiah amount. "Rp" and spaces are ignored.
// A "." or "," followed by exactly three digits groups thousands, so
// "50.000" and "Rp 50,000" are 50000. A final separator followed by one
// or two digits marks the fraction, so "50000.0" and "1.250,50" keep
// their value. Any other grouping is an error.
func ParseRupiah(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer(" ", "", "Rp", "", "rp", "").Replace(s)
	if clean == "" {
		return decimal.Decimal{}, fmt.Errorf("amount %q: empty", s)
	}

	whole, frac := clean, ""
	if i := strings.LastIndexAny(clean, ".,"); i >= 0 {
		switch tail := clean[i+1:]; len(tail) {
		case 1, 2:
			whole, frac = clean[:i], tail
		case 3:
		default:
			return decimal.Decimal{}, fmt.Errorf("amount %q: bad separator", s)
		}
	}

	groups := strings.FieldsFunc(whole, func(r rune) bool { return r == '.' || r == ',' })
	if strings.HasPrefix(whole, ".") || strings.HasPrefix(whole, ",") ||
		len(groups) != strings.Count(whole, ".")+strings.Count(whole, ",")+1 {
		return decimal.Decimal{}, fmt.Errorf("amount %q: bad separator", s)
	}
	for i, g := range groups {
		if (i > 0 && len(g) != 3) || (i == 0 && len(groups) > 1 && len(g) > 3) {
			return decimal.Decimal{}, fmt.Errorf("amount %q: thousands groups need three digits", s)
		}
	}

	num := strings.Join(groups, "")
	if frac != "" {
		num += "." + frac
	}
	return decimal.NewFromString(num)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
