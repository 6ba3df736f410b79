package pipeline

import (
	"time"

	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/store"
)

// LoadResult holds the output of a data load.
type LoadResult struct {
	Transactions []model.Transaction
	Members      []model.Member
	Warnings     []error
	LoadTime     time.Duration
	LoadedAt     time.Time
}

// Reader is anything that can produce the two lists. *store.CSV satisfies it.
type Reader interface {
	Load() store.LoadResult
}

// Load reads both lists from src and times the read. Read failures come
// back as Warnings, never as a hard error.
func Load(src Reader) *LoadResult {
	start := time.Now()
	res := src.Load()
	return &LoadResult{
		Transactions: res.Transactions,
		Members:      res.Members,
		Warnings:     res.Warnings,
		LoadTime:     time.Since(start),
		LoadedAt:     start,
	}
}

// Summary is a convenience for Summarize over the loaded lists.
func (r *LoadResult) Summary() model.Summary {
	return Summarize(r.Transactions, r.Members)
}
