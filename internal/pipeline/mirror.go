package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/kasboard/internal/model"

	"github.com/shopspring/decimal"
)

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "kasboard")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "kasboard")
}

// MirrorPath returns the default path of the SQLite mirror.
func MirrorPath() string {
	return filepath.Join(CacheDir(), "kasboard.db")
}

// MirrorTotaler is the read side of store.Mirror used for verification.
type MirrorTotaler interface {
	Totals() (map[model.Source]decimal.Decimal, error)
}

// Mismatch describes a source whose mirrored total differs from the CSV total.
type Mismatch struct {
	Source model.Source
	CSV    decimal.Decimal
	Mirror decimal.Decimal
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: csv=%s mirror=%s", m.Source, m.CSV, m.Mirror)
}

// CheckMirror compares per-source totals from the mirror against totals
// computed from txs. An empty result means they agree.
func CheckMirror(txs []model.Transaction, mirror MirrorTotaler) ([]Mismatch, error) {
	mirrored, err := mirror.Totals()
	if err != nil {
		return nil, fmt.Errorf("reading mirror totals: %w", err)
	}

	var out []Mismatch
	for _, st := range TotalBySource(txs) {
		got := mirrored[st.Source]
		if !got.Equal(st.Amount) {
			out = append(out, Mismatch{Source: st.Source, CSV: st.Amount, Mirror: got})
		}
	}
	return out, nil
}
