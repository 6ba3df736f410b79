package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/log"
	"github.com/theirongolddev/kasboard/internal/pipeline"
	"github.com/theirongolddev/kasboard/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var flagTUIExportDir string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&flagTUIExportDir, "export-dir", ".", "Where the e key writes exports")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Log lines would corrupt the alt screen; send them to a file instead.
	flagQuiet = true
	if f, err := openLogFile(tuiLogPath()); err == nil {
		defer func() { _ = f.Close() }()
		logger = log.New(log.Config{Level: logLevel, Output: f})
	} else {
		logger = log.Discard()
	}
	ctrl, done := openController()
	defer done()

	gate := newGate()
	sess := &auth.Session{}
	if flagPassword != "" {
		if err := gate.Login(sess, flagUser, flagPassword); err != nil {
			return err
		}
	}

	app := tui.NewApp(tui.Options{
		Controller: ctrl,
		Gate:       gate,
		Session:    sess,
		Config:     cfg,
		ConfigPath: configPath(),
		ExportDir:  flagTUIExportDir,
		FirstRun:   !configExists() && !gate.Configured(auth.UserTreasurer),
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func tuiLogPath() string {
	return filepath.Join(pipeline.CacheDir(), "tui.log")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	//nolint:gosec // log path is under the user's cache dir
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
}
