package cmd

import (
	"fmt"

	"github.com/theirongolddev/kasboard/internal/cli"

	"github.com/spf13/cobra"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all transactions to Transaksi_terakhir_<date>.csv (Bendahara only)",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", ".", "Directory to write the export into")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, _ []string) error {
	sess, err := login()
	if err != nil {
		return err
	}
	ctrl, done := openController()
	defer done()

	path, err := ctrl.ExportFile(sess, flagExportOut)
	if err != nil {
		return err
	}
	fmt.Printf("  %s\n", cli.RenderSuccess(fmt.Sprintf("Exported %d transactions to %s", len(ctrl.Transactions()), path)))
	return nil
}
