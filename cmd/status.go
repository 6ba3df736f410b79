package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/pipeline"
	"github.com/theirongolddev/kasboard/internal/store"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show data file status: paths, sizes, row counts and warnings",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	csv := store.NewCSV(dataDir())
	res := pipeline.Load(csv)

	fmt.Println()
	fmt.Println(cli.RenderTitle("KASBOARD STATUS"))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Title:     "Data files in " + csv.Dir(),
		Headers:   []string{"File", "Rows", "Size", "Modified"},
		Rows:      [][]string{fileRow(csv.TransactionsPath(), len(res.Transactions)), fileRow(csv.MembersPath(), len(res.Members))},
		LeftAlign: []int{3},
	}))

	stats := res.Summary()
	fmt.Printf("  Total income: %s across %s transactions (read in %s)\n",
		cli.FormatRupiah(stats.Total), cli.FormatNumber(int64(stats.Count)), res.LoadTime)

	if len(res.Warnings) > 0 {
		fmt.Println()
		for _, w := range res.Warnings {
			fmt.Printf("  %s\n", cli.RenderWarning(w.Error()))
		}
	}

	fmt.Println()
	if !cfg.Mirror.Enabled {
		fmt.Println("  SQLite mirror: disabled")
		return nil
	}
	m, err := store.OpenMirror(cfg.Mirror.Path)
	if err != nil {
		fmt.Printf("  %s\n", cli.RenderWarning("SQLite mirror: "+err.Error()))
		return nil
	}
	defer func() { _ = m.Close() }()

	st, err := m.State()
	switch {
	case err != nil:
		fmt.Printf("  %s\n", cli.RenderWarning("SQLite mirror: "+err.Error()))
	case st.SyncedAt.IsZero():
		fmt.Printf("  SQLite mirror: %s (never synced)\n", cfg.Mirror.Path)
	default:
		fmt.Printf("  SQLite mirror: %s (synced %s, %d transactions, %d members)\n",
			cfg.Mirror.Path, cli.FormatAge(st.SyncedAt), st.TxCount, st.MemberCount)
	}
	return nil
}

func fileRow(path string, rows int) []string {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return []string{path, "-", "-", "missing"}
	case err != nil:
		return []string{path, "-", "-", err.Error()}
	}
	return []string{path, cli.FormatNumber(int64(rows)), cli.FormatBytes(info.Size()), cli.FormatAge(info.ModTime())}
}
