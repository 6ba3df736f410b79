package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/dashboard"
	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/pipeline"
	"github.com/theirongolddev/kasboard/internal/tui"

	"github.com/spf13/cobra"
)

var (
	flagTxLimit  int
	flagTxMember string
	flagTxSince  string
	flagTxUntil  string

	flagTxAmount string
	flagTxDate   string
	flagTxDesc   string
)

var txCmd = &cobra.Command{
	Use:     "tx",
	Aliases: []string{"transaksi"},
	Short:   "List, add or delete transactions",
	RunE:    runTxList,
}

var txListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions, newest first",
	RunE:  runTxList,
}

var txAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an income transaction (Bendahara only)",
	Example: `  kasboard tx add -s dues --amount 50000 --member "Budi - Ketua"
  kasboard tx add -s proposal --amount 2.500.000 --date 2024-03-01 --desc "Proposal Dies Natalis"`,
	RunE: runTxAdd,
}

var txDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the first transaction matching source, amount, description and member (Bendahara only)",
	RunE:  runTxDelete,
}

func init() {
	txListCmd.Flags().IntVarP(&flagTxLimit, "limit", "n", 0, "Show at most n transactions (0 = all)")
	txListCmd.Flags().StringVarP(&flagTxMember, "member", "m", "", "Filter by member or sponsor (substring match)")
	txListCmd.Flags().StringVar(&flagTxSince, "since", "", "Only transactions on or after YYYY-MM-DD")
	txListCmd.Flags().StringVar(&flagTxUntil, "until", "", "Only transactions on or before YYYY-MM-DD")

	for _, c := range []*cobra.Command{txAddCmd, txDeleteCmd} {
		c.Flags().StringVar(&flagTxAmount, "amount", "", "Amount in rupiah")
		c.Flags().StringVar(&flagTxDesc, "desc", "", "Description")
		c.Flags().StringVarP(&flagTxMember, "member", "m", "", `Member as "Name - Position", or sponsor name`)
		_ = c.MarkFlagRequired("amount")
	}
	txAddCmd.Flags().StringVar(&flagTxDate, "date", "", "Date as YYYY-MM-DD (default today)")

	txCmd.AddCommand(txListCmd, txAddCmd, txDeleteCmd)
	rootCmd.AddCommand(txCmd)
}

func runTxList(_ *cobra.Command, _ []string) error {
	ctrl, done := openController()
	defer done()
	loc := ctrl.Location()

	txs, _, err := filteredTransactions(ctrl)
	if err != nil {
		return err
	}
	if flagTxMember != "" {
		txs = pipeline.FilterByMember(txs, flagTxMember)
	}
	if flagTxSince != "" || flagTxUntil != "" {
		since, until, err := parseRange(flagTxSince, flagTxUntil, loc)
		if err != nil {
			return err
		}
		txs = pipeline.FilterByRange(txs, since, until)
	}

	if len(txs) == 0 {
		fmt.Println("\n  No transactions found.")
		return nil
	}

	rows := pipeline.AllTransactionsSorted(txs)
	title := fmt.Sprintf("Transactions (%d)", len(rows))
	if flagTxLimit > 0 && flagTxLimit < len(rows) {
		rows = rows[:flagTxLimit]
		title = fmt.Sprintf("Transactions (%d of %d)", flagTxLimit, len(txs))
	}

	fmt.Println()
	fmt.Print(renderRows(title, rows, loc))
	return nil
}

// parseRange turns --since/--until days into a [since, until) range in loc.
// An empty end stays zero, which FilterByRange treats as open.
func parseRange(since, until string, loc *time.Location) (time.Time, time.Time, error) {
	var from, to time.Time
	if since != "" {
		d, err := time.ParseInLocation(tui.DateLayout, since, loc)
		if err != nil {
			return from, to, fmt.Errorf("--since %q: want YYYY-MM-DD", since)
		}
		from = d
	}
	if until != "" {
		d, err := time.ParseInLocation(tui.DateLayout, until, loc)
		if err != nil {
			return from, to, fmt.Errorf("--until %q: want YYYY-MM-DD", until)
		}
		to = d.AddDate(0, 0, 1)
	}
	return from, to, nil
}

// renderRows renders transaction rows as a table with dates in loc.
func renderRows(title string, rows []model.TransactionRow, loc *time.Location) string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			cli.FormatDateTime(r.Date, loc),
			string(r.Source),
			cli.FormatRupiah(r.Amount),
			cli.Truncate(r.MemberName, 24),
			cli.Truncate(r.MemberRole, 16),
			cli.Truncate(r.Description, 32),
		}
	}
	return cli.RenderTable(cli.Table{
		Title:     title,
		Headers:   []string{"Date", "Source", "Amount", "Name", "Position", "Description"},
		Rows:      out,
		LeftAlign: []int{1, 3, 4, 5},
	})
}

// requiredSource parses --source for write commands, where it is mandatory.
func requiredSource() (model.Source, error) {
	src, err := sourceFilter()
	if err != nil {
		return "", err
	}
	if src == "" {
		return "", errors.New("--source is required (dues, proposal or sponsor)")
	}
	return src, nil
}

func runTxAdd(_ *cobra.Command, _ []string) error {
	src, err := requiredSource()
	if err != nil {
		return err
	}
	amount, err := cli.ParseRupiah(flagTxAmount)
	if err != nil {
		return fmt.Errorf("--amount %q: %w", flagTxAmount, dashboard.ErrInvalidAmount)
	}

	sess, err := login()
	if err != nil {
		return err
	}
	ctrl, done := openController()
	defer done()

	in := dashboard.TransactionInput{
		Source:      src,
		Amount:      amount,
		Description: flagTxDesc,
		Member:      flagTxMember,
	}
	if strings.TrimSpace(flagTxDate) != "" {
		day, err := time.ParseInLocation(tui.DateLayout, strings.TrimSpace(flagTxDate), ctrl.Location())
		if err != nil {
			return fmt.Errorf("--date %q: want YYYY-MM-DD", flagTxDate)
		}
		in.Date = day
	}

	tx, err := ctrl.AddTransaction(sess, in)
	if err != nil {
		return err
	}
	fmt.Printf("  %s\n", cli.RenderSuccess(fmt.Sprintf("Recorded %s %s on %s",
		tx.Source, cli.FormatRupiah(tx.Amount), cli.FormatDate(tx.Date, ctrl.Location()))))
	return nil
}

func runTxDelete(_ *cobra.Command, _ []string) error {
	src, err := requiredSource()
	if err != nil {
		return err
	}
	amount, err := cli.ParseRupiah(flagTxAmount)
	if err != nil {
		return fmt.Errorf("--amount %q: %w", flagTxAmount, dashboard.ErrInvalidAmount)
	}

	sess, err := login()
	if err != nil {
		return err
	}
	ctrl, done := openController()
	defer done()

	m := dashboard.Match{
		Source:      src,
		Amount:      amount,
		Description: flagTxDesc,
		Member:      flagTxMember,
	}
	if err := ctrl.DeleteTransaction(sess, m); err != nil {
		if errors.Is(err, dashboard.ErrNotFound) {
			return fmt.Errorf("no %s transaction of %s matches: %w", src, cli.FormatRupiah(amount), err)
		}
		return err
	}
	fmt.Printf("  %s\n", cli.RenderSuccess(fmt.Sprintf("Deleted %s %s", src, cli.FormatRupiah(amount))))
	return nil
}
