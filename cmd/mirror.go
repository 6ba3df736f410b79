package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/config"
	"github.com/theirongolddev/kasboard/internal/log"
	"github.com/theirongolddev/kasboard/internal/pipeline"
	"github.com/theirongolddev/kasboard/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagMirrorPath  string
	flagMirrorCheck bool
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Copy the CSV data into the SQLite mirror, or verify it with --check",
	RunE:  runMirror,
}

func init() {
	mirrorCmd.Flags().StringVar(&flagMirrorPath, "path", "", "Mirror database (default from config, else "+pipeline.MirrorPath()+")")
	mirrorCmd.Flags().BoolVar(&flagMirrorCheck, "check", false, "Compare mirrored totals against the CSV files instead of syncing")
	rootCmd.AddCommand(mirrorCmd)
}

func mirrorPath() string {
	if flagMirrorPath != "" {
		return flagMirrorPath
	}
	return mirrorDBPath(cfg)
}

// mirrorDBPath is the configured mirror database, or the default one under
// the cache dir when the config enables the mirror without a path.
func mirrorDBPath(c config.Config) string {
	if p := strings.TrimSpace(c.Mirror.Path); p != "" {
		return p
	}
	return pipeline.MirrorPath()
}

func runMirror(_ *cobra.Command, _ []string) error {
	path := mirrorPath()
	res := pipeline.Load(store.NewCSV(dataDir()))
	for _, w := range res.Warnings {
		if !flagQuiet {
			fmt.Printf("  %s\n", cli.RenderWarning(w.Error()))
		}
	}

	m, err := store.OpenMirror(path)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	if flagMirrorCheck {
		return checkMirror(m, res, path)
	}

	if len(res.Warnings) > 0 {
		// Syncing would replace good mirrored rows with an empty list.
		return errors.New("not syncing: some data files could not be read")
	}
	if err := m.Sync(res.Transactions, res.Members); err != nil {
		return fmt.Errorf("syncing mirror: %w", err)
	}
	logger.Info("mirror synced", log.FieldOperation, log.OpSync, log.FieldPath, path,
		log.FieldCount, len(res.Transactions))
	fmt.Printf("  %s\n", cli.RenderSuccess(fmt.Sprintf("Mirrored %d transactions and %d members to %s",
		len(res.Transactions), len(res.Members), path)))
	return nil
}

func checkMirror(m *store.Mirror, res *pipeline.LoadResult, path string) error {
	st, err := m.State()
	if err != nil {
		return fmt.Errorf("reading mirror state: %w", err)
	}
	if st.SyncedAt.IsZero() {
		return fmt.Errorf("mirror %s has never been synced; run `kasboard mirror` first", path)
	}

	mismatches, err := pipeline.CheckMirror(res.Transactions, m)
	if err != nil {
		return err
	}

	counts, err := m.MonthlyCounts()
	if err != nil {
		return fmt.Errorf("reading mirror counts: %w", err)
	}
	months := make([]string, 0, len(counts))
	for month := range counts {
		months = append(months, month)
	}
	sort.Strings(months)
	rows := make([][]string, len(months))
	for i, month := range months {
		rows[i] = []string{cli.FormatMonth(month), cli.FormatNumber(int64(counts[month]))}
	}

	fmt.Println()
	fmt.Printf("  Mirror %s, synced %s\n\n", path, cli.FormatAge(st.SyncedAt))
	if len(rows) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Mirrored transactions per month",
			Headers: []string{"Month", "Count"},
			Rows:    rows,
		}))
	}

	if st.TxCount != len(res.Transactions) || st.MemberCount != len(res.Members) {
		fmt.Printf("  %s\n", cli.RenderWarning(fmt.Sprintf("row counts differ: csv %d/%d, mirror %d/%d (transactions/members)",
			len(res.Transactions), len(res.Members), st.TxCount, st.MemberCount)))
	}
	if len(mismatches) == 0 {
		fmt.Printf("  %s\n", cli.RenderSuccess("Totals per source match the CSV files"))
		return nil
	}
	for _, mm := range mismatches {
		fmt.Printf("  %s\n", cli.RenderError(mm.String()))
	}
	return fmt.Errorf("%d source total(s) differ from the CSV files", len(mismatches))
}
