package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/kasboard/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func tx(t *testing.T, src model.Source, amount int64, date string) model.Transaction {
	t.Helper()
	return model.Transaction{Source: src, Amount: decimal.NewFromInt(amount), Date: mustDate(t, date)}
}

func scenario(t *testing.T) []model.Transaction {
	return []model.Transaction{
		tx(t, model.SourceMemberDues, 50000, "2024-01-15"),
		tx(t, model.SourceProposal, 100000, "2024-01-20"),
		tx(t, model.SourceMemberDues, 30000, "2024-02-01"),
	}
}

func totalsMap(totals []model.SourceTotal) map[model.Source]int64 {
	m := make(map[model.Source]int64, len(totals))
	for _, st := range totals {
		m[st.Source] = st.Amount.IntPart()
	}
	return m
}

func TestTotalBySourceScenario(t *testing.T) {
	got := totalsMap(TotalBySource(scenario(t)))
	assert.Equal(t, map[model.Source]int64{
		model.SourceMemberDues:  80000,
		model.SourceProposal:    100000,
		model.SourceSponsorship: 0,
	}, got)
}

func TestTotalBySourceEmpty(t *testing.T) {
	totals := TotalBySource(nil)
	require.Len(t, totals, len(model.Sources))
	for i, st := range totals {
		assert.Equal(t, model.Sources[i], st.Source)
		assert.True(t, st.Amount.IsZero(), "%s total = %s, want 0", st.Source, st.Amount)
	}
}

func TestTotalBySourceSumsToGrandTotal(t *testing.T) {
	txs := append(scenario(t),
		tx(t, model.SourceSponsorship, 1234567, "2023-12-31"),
		model.Transaction{Source: model.SourceProposal, Amount: decimal.RequireFromString("0.35"), Date: mustDate(t, "2024-03-01")},
	)

	want := decimal.Zero
	for _, x := range txs {
		want = want.Add(x.Amount)
	}
	got := decimal.Zero
	for _, st := range TotalBySource(txs) {
		got = got.Add(st.Amount)
	}
	assert.True(t, want.Equal(got), "sum of totals %s, want %s", got, want)
}

func TestMonthlySeriesScenario(t *testing.T) {
	rows := MonthlySeries(scenario(t))
	require.Len(t, rows, 3)

	want := []struct {
		month  string
		source model.Source
		amount int64
	}{
		{"2024-01", model.SourceMemberDues, 50000},
		{"2024-01", model.SourceProposal, 100000},
		{"2024-02", model.SourceMemberDues, 30000},
	}
	for i, w := range want {
		assert.Equal(t, w.month, rows[i].Month)
		assert.Equal(t, w.source, rows[i].Source)
		assert.Equal(t, w.amount, rows[i].Amount.IntPart())
	}
}

func TestMonthlySeriesUsesUTCMonth(t *testing.T) {
	// 2024-02-01 05:00 in Jakarta is still January in UTC
	jakarta := time.FixedZone("WIB", 7*3600)
	late := model.Transaction{
		Source: model.SourceProposal,
		Amount: decimal.NewFromInt(10),
		Date:   time.Date(2024, 2, 1, 5, 0, 0, 0, jakarta).UTC(),
	}
	rows := MonthlySeries([]model.Transaction{late})
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-01", rows[0].Month)
}

func TestMonthlySeriesResumsToTotals(t *testing.T) {
	txs := append(scenario(t),
		tx(t, model.SourceSponsorship, 70000, "2024-02-11"),
		tx(t, model.SourceMemberDues, 5000, "2024-01-02"),
	)

	perSource := make(map[model.Source]decimal.Decimal)
	for _, r := range MonthlySeries(txs) {
		perSource[r.Source] = perSource[r.Source].Add(r.Amount)
	}
	for _, st := range TotalBySource(txs) {
		assert.True(t, st.Amount.Equal(perSource[st.Source]), "source %s", st.Source)
	}
}

func TestMonthTotals(t *testing.T) {
	months := MonthTotals(MonthlySeries(scenario(t)))
	require.Len(t, months, 2)
	assert.Equal(t, "2024-01", months[0].Month)
	assert.Equal(t, int64(150000), months[0].Amount.IntPart())
	assert.Equal(t, "2024-02", months[1].Month)
	assert.Equal(t, int64(30000), months[1].Amount.IntPart())
}

func TestDistributionBySource(t *testing.T) {
	shares := DistributionBySource(scenario(t))
	require.Len(t, shares, 2, "zero-total sponsorship is omitted")
	assert.Equal(t, model.SourceMemberDues, shares[0].Source)
	assert.InDelta(t, 44.444, shares[0].Percent, 0.01)
	assert.Equal(t, model.SourceProposal, shares[1].Source)
	assert.InDelta(t, 55.556, shares[1].Percent, 0.01)

	assert.Empty(t, DistributionBySource(nil))
}

func TestRecentTransactionsStable(t *testing.T) {
	a := tx(t, model.SourceMemberDues, 1, "2024-01-10")
	b := tx(t, model.SourceProposal, 2, "2024-01-12")
	c := tx(t, model.SourceSponsorship, 3, "2024-01-12")
	d := tx(t, model.SourceMemberDues, 4, "2024-01-01")
	txs := []model.Transaction{a, b, c, d}

	got := RecentTransactions(txs, 3)
	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].Amount.IntPart(), "tie keeps insertion order")
	assert.Equal(t, int64(3), got[1].Amount.IntPart())
	assert.Equal(t, int64(1), got[2].Amount.IntPart())

	// input is not reordered
	assert.Equal(t, int64(1), txs[0].Amount.IntPart())

	assert.Len(t, RecentTransactions(txs, 10), 4)
	assert.Empty(t, RecentTransactions(txs, 0))
}

func TestAllTransactionsSortedSplitsMember(t *testing.T) {
	dues := tx(t, model.SourceMemberDues, 50000, "2024-01-15")
	dues.Member = "Budi - Wakil Ketua"
	sponsor := tx(t, model.SourceSponsorship, 90000, "2024-02-15")
	sponsor.Member = "PT Maju"
	odd := tx(t, model.SourceMemberDues, 1, "2024-01-01")
	odd.Member = "Ani - Anggota - Lama"

	rows := AllTransactionsSorted([]model.Transaction{dues, sponsor, odd})
	require.Len(t, rows, 3)

	assert.Equal(t, "PT Maju", rows[0].MemberName)
	assert.Equal(t, "", rows[0].MemberRole)
	assert.Equal(t, "Budi", rows[1].MemberName)
	assert.Equal(t, "Wakil Ketua", rows[1].MemberRole)
	assert.Equal(t, "Ani", rows[2].MemberName)
	assert.Equal(t, "Anggota - Lama", rows[2].MemberRole)
}

func TestSummarize(t *testing.T) {
	members := []model.Member{{Name: "Budi"}, {Name: "Sari"}}
	s := Summarize(scenario(t), members)

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 2, s.MemberCount)
	assert.Equal(t, int64(180000), s.Total.IntPart())
	assert.Equal(t, int64(30000), s.CurrentMonth.IntPart())
	assert.Equal(t, mustDate(t, "2024-01-15"), s.FirstDate)
	assert.Equal(t, mustDate(t, "2024-02-01"), s.LastDate)

	empty := Summarize(nil, nil)
	assert.True(t, empty.Total.IsZero())
	assert.True(t, empty.LastDate.IsZero())
}

func TestFilters(t *testing.T) {
	txs := scenario(t)
	txs[0].Member = "Budi - Ketua"

	assert.Len(t, FilterBySource(txs, model.SourceMemberDues), 2)
	assert.Len(t, FilterBySource(txs, ""), 3)

	inJan := FilterByRange(txs, mustDate(t, "2024-01-01"), mustDate(t, "2024-02-01"))
	assert.Len(t, inJan, 2)
	assert.Len(t, FilterByRange(txs, time.Time{}, time.Time{}), 3)

	assert.Len(t, FilterByMember(txs, "budi"), 1)
}
