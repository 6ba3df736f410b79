package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceTotal holds the summed amount for one source.
type SourceTotal struct {
	Source Source
	Amount decimal.Decimal
}

// MonthlyRow is one (month, source) bucket of the monthly series.
type MonthlyRow struct {
	Month  string // "2006-01", UTC calendar month
	Source Source
	Amount decimal.Decimal
}

// MonthTotal is the grand total across sources for one month.
type MonthTotal struct {
	Month  string
	Amount decimal.Decimal
}

// SourceShare is a source's slice of the overall distribution.
type SourceShare struct {
	Source  Source
	Amount  decimal.Decimal
	Percent float64 // 0-100
}

// TransactionRow is a transaction with its member field split for display
// and export.
type TransactionRow struct {
	Transaction
	MemberName string
	MemberRole string
}

// Summary holds the top-level dashboard figures.
type Summary struct {
	Total        decimal.Decimal
	Count        int
	BySource     []SourceTotal
	MemberCount  int
	FirstDate    time.Time
	LastDate     time.Time
	CurrentMonth decimal.Decimal // total for the latest month present
}
