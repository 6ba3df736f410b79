// Package pipeline loads transaction data and derives dashboard metrics from it.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/kasboard/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultRecentLimit is how many transactions the dashboard lists as recent.
const DefaultRecentLimit = 10

const monthLayout = "2006-01"

// TotalBySource sums amounts per source. Every known source is present in
// canonical order, with zero when it has no transactions.
func TotalBySource(txs []model.Transaction) []model.SourceTotal {
	sums := make(map[model.Source]decimal.Decimal, len(model.Sources))
	for _, tx := range txs {
		sums[tx.Source] = sums[tx.Source].Add(tx.Amount)
	}

	totals := make([]model.SourceTotal, 0, len(model.Sources))
	for _, src := range model.Sources {
		totals = append(totals, model.SourceTotal{Source: src, Amount: sums[src]})
	}
	return totals
}

// MonthlySeries groups amounts by UTC calendar month and source. Only pairs
// that have transactions appear; rows are ordered by month, then source.
func MonthlySeries(txs []model.Transaction) []model.MonthlyRow {
	type key struct {
		month  string
		source model.Source
	}
	buckets := make(map[key]*model.MonthlyRow)

	for _, tx := range txs {
		k := key{month: tx.Date.UTC().Format(monthLayout), source: tx.Source}
		row, ok := buckets[k]
		if !ok {
			row = &model.MonthlyRow{Month: k.month, Source: k.source}
			buckets[k] = row
		}
		row.Amount = row.Amount.Add(tx.Amount)
	}

	rows := make([]model.MonthlyRow, 0, len(buckets))
	for _, row := range buckets {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Month != rows[j].Month {
			return rows[i].Month < rows[j].Month
		}
		return rows[i].Source.Index() < rows[j].Source.Index()
	})
	return rows
}

// MonthTotals collapses a monthly series into one grand total per month,
// keeping the month order of rows.
func MonthTotals(rows []model.MonthlyRow) []model.MonthTotal {
	var totals []model.MonthTotal
	for _, r := range rows {
		if n := len(totals); n > 0 && totals[n-1].Month == r.Month {
			totals[n-1].Amount = totals[n-1].Amount.Add(r.Amount)
			continue
		}
		totals = append(totals, model.MonthTotal{Month: r.Month, Amount: r.Amount})
	}
	return totals
}

// DistributionBySource returns each source's share of the grand total.
// Sources with a zero total are left out.
func DistributionBySource(txs []model.Transaction) []model.SourceShare {
	totals := TotalBySource(txs)

	grand := decimal.Zero
	for _, st := range totals {
		grand = grand.Add(st.Amount)
	}

	var shares []model.SourceShare
	for _, st := range totals {
		if st.Amount.IsZero() {
			continue
		}
		share := model.SourceShare{Source: st.Source, Amount: st.Amount}
		if grand.IsPositive() {
			share.Percent = st.Amount.Div(grand).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		shares = append(shares, share)
	}
	return shares
}

// RecentTransactions returns the n most recent transactions, newest first.
// Equal dates keep their original order.
func RecentTransactions(txs []model.Transaction, n int) []model.Transaction {
	sorted := sortByDateDesc(txs)
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// AllTransactionsSorted returns every transaction newest first, with the
// member field split into name and role.
func AllTransactionsSorted(txs []model.Transaction) []model.TransactionRow {
	sorted := sortByDateDesc(txs)
	rows := make([]model.TransactionRow, len(sorted))
	for i, tx := range sorted {
		name, role := model.SplitMember(tx.Member)
		rows[i] = model.TransactionRow{Transaction: tx, MemberName: name, MemberRole: role}
	}
	return rows
}

// Summarize computes the headline figures for the dashboard.
func Summarize(txs []model.Transaction, members []model.Member) model.Summary {
	s := model.Summary{
		Count:       len(txs),
		BySource:    TotalBySource(txs),
		MemberCount: len(members),
	}
	for _, st := range s.BySource {
		s.Total = s.Total.Add(st.Amount)
	}

	for _, tx := range txs {
		if s.FirstDate.IsZero() || tx.Date.Before(s.FirstDate) {
			s.FirstDate = tx.Date
		}
		if tx.Date.After(s.LastDate) {
			s.LastDate = tx.Date
		}
	}

	if months := MonthTotals(MonthlySeries(txs)); len(months) > 0 {
		s.CurrentMonth = months[len(months)-1].Amount
	}
	return s
}

// FilterBySource returns transactions of the given source. An empty source
// returns txs unchanged.
func FilterBySource(txs []model.Transaction, src model.Source) []model.Transaction {
	if src == "" {
		return txs
	}
	var result []model.Transaction
	for _, tx := range txs {
		if tx.Source == src {
			result = append(result, tx)
		}
	}
	return result
}

// FilterByRange returns transactions dated within [since, until). Zero
// bounds are open.
func FilterByRange(txs []model.Transaction, since, until time.Time) []model.Transaction {
	if since.IsZero() && until.IsZero() {
		return txs
	}
	var result []model.Transaction
	for _, tx := range txs {
		if !since.IsZero() && tx.Date.Before(since) {
			continue
		}
		if !until.IsZero() && !tx.Date.Before(until) {
			continue
		}
		result = append(result, tx)
	}
	return result
}

// FilterByMember returns transactions whose member field contains the
// substring, case-insensitively.
func FilterByMember(txs []model.Transaction, member string) []model.Transaction {
	if member == "" {
		return txs
	}
	var result []model.Transaction
	for _, tx := range txs {
		if containsIgnoreCase(tx.Member, member) {
			result = append(result, tx)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sortByDateDesc(txs []model.Transaction) []model.Transaction {
	sorted := make([]model.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	return sorted
}
