package cmd

import (
	"fmt"

	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/pipeline"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Income per month and source",
	RunE:  runMonthly,
}

func init() {
	rootCmd.AddCommand(monthlyCmd)
}

// monthGrid pivots a monthly series into one row per month with a column
// per source, months in ascending order.
type monthGrid struct {
	months []string
	cells  map[string]map[model.Source]decimal.Decimal
	totals []model.MonthTotal
}

func newMonthGrid(series []model.MonthlyRow) monthGrid {
	g := monthGrid{
		cells:  make(map[string]map[model.Source]decimal.Decimal),
		totals: pipeline.MonthTotals(series),
	}
	for _, r := range series {
		byMonth, ok := g.cells[r.Month]
		if !ok {
			byMonth = make(map[model.Source]decimal.Decimal)
			g.cells[r.Month] = byMonth
			g.months = append(g.months, r.Month)
		}
		byMonth[r.Source] = r.Amount
	}
	return g
}

// values returns src's amount for every month, zero where absent.
func (g monthGrid) values(src model.Source) []float64 {
	out := make([]float64, len(g.months))
	for i, m := range g.months {
		out[i] = g.cells[m][src].InexactFloat64()
	}
	return out
}

func runMonthly(_ *cobra.Command, _ []string) error {
	ctrl, done := openController()
	defer done()

	txs, src, err := filteredTransactions(ctrl)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("\n  No transactions found.")
		return nil
	}

	grid := newMonthGrid(pipeline.MonthlySeries(txs))
	sources := model.Sources
	if src != "" {
		sources = []model.Source{src}
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("MONTHLY INCOME  %d months", len(grid.months))))
	fmt.Println()

	headers := []string{"Month"}
	for _, s := range sources {
		headers = append(headers, string(s))
	}
	headers = append(headers, "Total")

	rows := make([][]string, 0, len(grid.months)+2)
	for i, m := range grid.months {
		row := []string{cli.FormatMonth(m)}
		for _, s := range sources {
			amount, ok := grid.cells[m][s]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, cli.FormatRupiah(amount))
		}
		rows = append(rows, append(row, cli.FormatRupiah(grid.totals[i].Amount)))
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: headers,
		Rows:    rows,
	}))

	trend := make([][]string, 0, len(sources))
	for _, s := range sources {
		trend = append(trend, []string{string(s), cli.RenderSparkline(grid.values(s))})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:     "Trend",
		Headers:   []string{"Source", "Per month"},
		Rows:      trend,
		LeftAlign: []int{1},
	}))
	return nil
}
