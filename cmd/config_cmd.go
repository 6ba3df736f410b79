package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/kasboard/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	path := configPath()
	fmt.Printf("  Config file: %s\n", path)
	if configExists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s%s\n", dataDir(), sourceNote(os.Getenv(config.EnvDataDir) != "" && flagDataDir == "", config.EnvDataDir))
	fmt.Printf("    Recent limit:   %d\n", cfg.General.RecentLimit)
	fmt.Printf("    Timezone:       %s (%s)\n", cfg.General.Timezone, config.Location(cfg))
	if cfg.General.LogLevel != "" {
		fmt.Printf("    Log level:      %s\n", cfg.General.LogLevel)
	}
	fmt.Println()

	fmt.Println("  [Auth]")
	printSecret("Bendahara", config.TreasurerPassword(cfg), os.Getenv(config.EnvTreasurerPassword) != "", config.EnvTreasurerPassword)
	printSecret("Anggota  ", config.MemberPassword(cfg), os.Getenv(config.EnvMemberPassword) != "", config.EnvMemberPassword)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Mirror]")
	if cfg.Mirror.Enabled {
		fmt.Printf("    SQLite mirror: %s\n", cfg.Mirror.Path)
	} else {
		fmt.Println("    SQLite mirror: disabled")
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Poll interval: %ds\n", cfg.Server.PollInterval)
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		fmt.Printf("  %v\n\n", err)
	}
	fmt.Println("  Run `kasboard setup` to reconfigure.")
	return nil
}

func printSecret(label, value string, fromEnv bool, env string) {
	if value == "" {
		fmt.Printf("    %s password: not configured\n", label)
		return
	}
	fmt.Printf("    %s password: %s%s\n", label, maskSecret(value), sourceNote(fromEnv, env))
}

func sourceNote(fromEnv bool, env string) string {
	if fromEnv {
		return "  (from " + env + ")"
	}
	return ""
}

func maskSecret(s string) string {
	if len(s) > 8 {
		return s[:2] + "..." + s[len(s)-2:]
	}
	return "****"
}
