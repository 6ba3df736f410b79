package cmd

import (
	"fmt"

	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/pipeline"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Share of income per source",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(_ *cobra.Command, _ []string) error {
	ctrl, done := openController()
	defer done()

	txs := ctrl.Transactions()
	shares := pipeline.DistributionBySource(txs)
	if len(shares) == 0 {
		fmt.Println("\n  No income recorded yet.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("INCOME BY SOURCE"))
	fmt.Println()

	counts := make(map[string]int)
	for _, tx := range txs {
		counts[string(tx.Source)]++
	}

	rows := make([][]string, 0, len(shares)+2)
	for _, sh := range shares {
		rows = append(rows, []string{
			string(sh.Source),
			cli.FormatNumber(int64(counts[string(sh.Source)])),
			cli.FormatRupiah(sh.Amount),
			cli.RenderShareBar(sh, 24),
		})
	}
	stats := pipeline.Summarize(txs, nil)
	rows = append(rows,
		cli.SeparatorRow,
		[]string{"Total", cli.FormatNumber(int64(stats.Count)), cli.FormatRupiah(stats.Total), ""},
	)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:   []string{"Source", "Count", "Amount", "Share"},
		Rows:      rows,
		LeftAlign: []int{3},
	}))
	return nil
}
