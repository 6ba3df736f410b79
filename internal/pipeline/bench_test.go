package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/store"

	"github.com/shopspring/decimal"
)

func syntheticTransactions(n int) []model.Transaction {
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := make([]model.Transaction, n)
	for i := range txs {
		txs[i] = model.Transaction{
			Source: model.Sources[i%len(model.Sources)],
			Amount: decimal.NewFromInt(int64(10000 + i%97*500)),
			Date:   base.Add(time.Duration(i) * 7 * time.Hour),
			Member: "Anggota - Anggota",
		}
	}
	return txs
}

func BenchmarkMonthlySeries(b *testing.B) {
	txs := syntheticTransactions(5000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = MonthlySeries(txs)
	}
}

func BenchmarkAllTransactionsSorted(b *testing.B) {
	txs := syntheticTransactions(5000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = AllTransactionsSorted(txs)
	}
}

func BenchmarkLoad(b *testing.B) {
	st := store.NewCSV(filepath.Join(b.TempDir(), "financial_data"))
	if err := st.Save(syntheticTransactions(2000), nil); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result := Load(st)
		if len(result.Warnings) > 0 {
			b.Fatal(result.Warnings[0])
		}
	}
}
