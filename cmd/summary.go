package cmd

import (
	"fmt"

	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals by source, member count and recent transactions",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	ctrl, done := openController()
	defer done()

	txs, src, err := filteredTransactions(ctrl)
	if err != nil {
		return err
	}
	members := ctrl.Members()
	loc := ctrl.Location()

	if len(txs) == 0 && len(members) == 0 {
		fmt.Println("\n  No transactions or members yet.")
		fmt.Println("  Add one with `kasboard tx add` or open `kasboard tui`.")
		return nil
	}

	stats := pipeline.Summarize(txs, members)

	title := "KAS SUMMARY"
	if src != "" {
		title += "  " + string(src)
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	rows := make([][]string, 0, len(stats.BySource)+8)
	for _, st := range stats.BySource {
		rows = append(rows, []string{string(st.Source), cli.FormatRupiah(st.Amount)})
	}
	rows = append(rows,
		cli.SeparatorRow,
		[]string{"Total", cli.FormatRupiah(stats.Total)},
		[]string{"Transactions", cli.FormatNumber(int64(stats.Count))},
		[]string{"Members", cli.FormatNumber(int64(stats.MemberCount))},
		cli.SeparatorRow,
		[]string{"First", cli.FormatDate(stats.FirstDate, loc)},
		[]string{"Latest", cli.FormatDate(stats.LastDate, loc)},
	)

	// Latest month with a delta against the month before it
	months := pipeline.MonthTotals(pipeline.MonthlySeries(txs))
	if n := len(months); n > 0 {
		cur := months[n-1]
		value := cli.FormatRupiah(cur.Amount)
		if n > 1 {
			value += fmt.Sprintf("  (%s vs %s)", cli.FormatDelta(cur.Amount, months[n-2].Amount), cli.FormatMonth(months[n-2].Month))
		}
		rows = append(rows, []string{cli.FormatMonth(cur.Month), value})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	limit := cfg.General.RecentLimit
	if limit < 1 {
		limit = pipeline.DefaultRecentLimit
	}
	if recent := pipeline.RecentTransactions(txs, limit); len(recent) > 0 {
		fmt.Print(renderRows(fmt.Sprintf("Recent %d", len(recent)), pipeline.AllTransactionsSorted(recent), loc))
	}

	if w := ctrl.Warnings(); len(w) > 0 && !flagQuiet {
		fmt.Printf("\n  %s\n", cli.RenderWarning(fmt.Sprintf("%d file(s) could not be read; showing what loaded", len(w))))
	}
	return nil
}
