package cmd

import (
	"fmt"

	"github.com/theirongolddev/kasboard/internal/config"
	"github.com/theirongolddev/kasboard/internal/tui"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the file as saved, without flag or env overrides applied.
	saved, err := config.LoadFrom(configPath())
	if err != nil {
		return err
	}

	updated, err := tui.RunSetup(saved)
	if err != nil {
		return err
	}
	if err := config.SaveTo(configPath(), updated); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", configPath())
	fmt.Printf("  Data directory: %s\n", updated.General.DataDir)
	if updated.Mirror.Enabled {
		fmt.Printf("  SQLite mirror:  %s\n", updated.Mirror.Path)
	}
	fmt.Println("  Run `kasboard setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
