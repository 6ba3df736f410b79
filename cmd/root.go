// Package cmd implements the kasboard CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/config"
	"github.com/theirongolddev/kasboard/internal/dashboard"
	"github.com/theirongolddev/kasboard/internal/log"
	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/pipeline"
	"github.com/theirongolddev/kasboard/internal/store"
	"github.com/theirongolddev/kasboard/internal/tui"
	"github.com/theirongolddev/kasboard/internal/tui/theme"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	flagDataDir  string
	flagUser     string
	flagPassword string
	flagQuiet    bool
	flagSource   string
	flagConfig   string
	flagVerbose  bool
)

// Set by loadConfig before any command runs.
var (
	cfg      = config.DefaultConfig()
	logger   = log.Discard()
	logLevel = slog.LevelWarn
)

var rootCmd = &cobra.Command{
	Use:   "kasboard",
	Short: "Organization treasury dashboard",
	Long: "Record income (Kas Anggota, Proposal, Sponsor/Media) and members in CSV files,\n" +
		"then summarize them on the command line, in a terminal dashboard or over HTTP.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Data directory (default from config, "+config.EnvDataDir+")")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", auth.UserTreasurer, "Username for write commands")
	rootCmd.PersistentFlags().StringVar(&flagPassword, "password", "", "Password for write commands (prompted when empty)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVarP(&flagSource, "source", "s", "", "Filter to a source (dues, proposal, sponsor)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Log debug output to stderr")
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.Path()
}

// loadConfig reads .env and the config file and sets up logging and the
// theme. Flags win over env, env over the file.
func loadConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	c, err := config.LoadFrom(configPath())
	if err != nil {
		return err
	}
	if flagDataDir != "" {
		c.General.DataDir = flagDataDir
	}
	cfg = c

	logLevel = slog.LevelWarn
	if cfg.General.LogLevel != "" {
		logLevel = log.ParseLevel(cfg.General.LogLevel)
	}
	if flagVerbose {
		logLevel = slog.LevelDebug
	}
	logger = log.New(log.Config{Level: logLevel, Output: os.Stderr})
	log.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Warn("config problems", log.FieldPath, configPath(), log.FieldError, err)
	}

	theme.SetActive(cfg.Appearance.Theme)
	return nil
}

func configExists() bool {
	if flagConfig == "" {
		return config.Exists()
	}
	_, err := os.Stat(flagConfig)
	return err == nil
}

func dataDir() string {
	if flagDataDir != "" {
		return flagDataDir
	}
	return config.DataDir(cfg)
}

// openController builds the controller over the data dir, attaching the
// SQLite mirror when enabled, and loads the data. The returned func
// releases the mirror.
func openController() (*dashboard.Controller, func()) {
	opts := dashboard.Options{
		Location: config.Location(cfg),
		Logger:   logger,
	}
	closeMirror := func() {}
	if cfg.Mirror.Enabled {
		path := mirrorDBPath(cfg)
		m, err := store.OpenMirror(path)
		if err != nil {
			// Mirror is optional; keep going on the CSV files alone.
			logger.Warn("mirror unavailable", log.FieldPath, path, log.FieldError, err)
		} else {
			opts.Mirror = m
			closeMirror = func() { _ = m.Close() }
		}
	}

	dir := dataDir()
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Reading %s\n", dir)
	}
	ctrl := dashboard.New(store.NewCSV(dir), opts)
	for _, w := range ctrl.Reload() {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  %s\n", cli.RenderWarning(w.Error()))
		}
	}
	return ctrl, closeMirror
}

func newGate() *auth.Gate {
	return auth.NewGate(auth.DefaultUsers(config.TreasurerPassword(cfg), config.MemberPassword(cfg)))
}

// login authenticates --user for a write command, prompting for the
// password on a terminal when --password is empty.
func login() (*auth.Session, error) {
	gate := newGate()
	if !gate.Configured(flagUser) {
		return nil, fmt.Errorf("no password configured for %q: set %s/%s or run `kasboard setup`",
			flagUser, config.EnvTreasurerPassword, config.EnvMemberPassword)
	}

	pw := flagPassword
	if pw == "" && isTerminal(os.Stdin) {
		p, err := tui.PromptPassword(flagUser)
		if err != nil {
			return nil, err
		}
		pw = p
	}

	sess := &auth.Session{}
	if err := gate.Login(sess, flagUser, pw); err != nil {
		return nil, err
	}
	logger.Debug("logged in", log.FieldUser, sess.Username(), log.FieldRole, string(sess.Role()))
	return sess, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// sourceFilter parses --source. Empty means all sources.
func sourceFilter() (model.Source, error) {
	if strings.TrimSpace(flagSource) == "" {
		return "", nil
	}
	src, ok := model.ParseSource(flagSource)
	if !ok {
		return "", fmt.Errorf("unknown source %q (want dues, proposal or sponsor)", flagSource)
	}
	return src, nil
}

// filteredTransactions applies --source to the loaded transactions and
// returns the source filtered on, if any.
func filteredTransactions(ctrl *dashboard.Controller) ([]model.Transaction, model.Source, error) {
	src, err := sourceFilter()
	if err != nil {
		return nil, "", err
	}
	txs := ctrl.Transactions()
	if src != "" {
		txs = pipeline.FilterBySource(txs, src)
	}
	return txs, src, nil
}
