package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/daemon"
	"github.com/theirongolddev/kasboard/internal/log"
	"github.com/theirongolddev/kasboard/internal/pipeline"

	"github.com/spf13/cobra"
)

// serverState is written next to the pid file so `serve status` can find
// the address of a server started with a different --addr.
type serverState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DataDir   string    `json:"data_dir"`
}

// pidFile tracks a running server through a pid file plus a JSON state
// file beside it.
type pidFile string

func (p pidFile) statePath() string { return string(p) + ".json" }

func (p pidFile) read() (int, error) {
	//nolint:gosec // pid path is configured by the local user
	data, err := os.ReadFile(string(p))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", p)
	}
	return pid, nil
}

// claim records st as the running server. The returned func removes both
// files again.
func (p pidFile) claim(st serverState) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o750); err != nil {
		return nil, fmt.Errorf("create pid directory: %w", err)
	}
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return nil, err
	}
	if data, err := json.MarshalIndent(st, "", "  "); err == nil {
		_ = os.WriteFile(p.statePath(), append(data, '\n'), 0o600)
	}
	return p.remove, nil
}

func (p pidFile) remove() {
	_ = os.Remove(string(p))
	_ = os.Remove(p.statePath())
}

func (p pidFile) state() (serverState, error) {
	var st serverState
	//nolint:gosec // state path is configured by the local user
	data, err := os.ReadFile(p.statePath())
	if err != nil {
		return st, err
	}
	return st, json.Unmarshal(data, &st)
}

// ensureFree fails when a live server owns the pid file and clears a
// stale one.
func (p pidFile) ensureFree() error {
	pid, err := p.read()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case processAlive(pid):
		return fmt.Errorf("server already running (pid %d)", pid)
	}
	p.remove()
	return nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

var (
	flagServeAddr         string
	flagServeInterval     time.Duration
	flagServeDetach       bool
	flagServePIDFile      string
	flagServeLogFile      string
	flagServeEventsBuffer int
	flagServeChild        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP and watch the data files for changes",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server process and API status",
	RunE:  runServeStatus,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running server",
	RunE:  runServeStop,
}

func init() {
	defaultPID := filepath.Join(pipeline.CacheDir(), "kasboard-serve.pid")
	defaultLog := filepath.Join(pipeline.CacheDir(), "kasboard-serve.log")

	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.PersistentFlags().DurationVar(&flagServeInterval, "interval", 0, "Data file polling interval (default from config)")
	serveCmd.PersistentFlags().StringVar(&flagServePIDFile, "pid-file", defaultPID, "PID file path")
	serveCmd.PersistentFlags().StringVar(&flagServeLogFile, "log-file", defaultLog, "Log file path for detached mode")
	serveCmd.PersistentFlags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	serveCmd.Flags().BoolVar(&flagServeDetach, "detach", false, "Run the server as a background process")
	serveCmd.Flags().BoolVar(&flagServeChild, "child", false, "Internal: mark detached child process")
	_ = serveCmd.Flags().MarkHidden("child")

	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

func serveAddr() string {
	if flagServeAddr != "" {
		return flagServeAddr
	}
	return cfg.Server.Addr
}

func serveInterval() time.Duration {
	if flagServeInterval > 0 {
		return flagServeInterval
	}
	return time.Duration(cfg.Server.PollInterval) * time.Second
}

func runServe(_ *cobra.Command, _ []string) error {
	switch {
	case flagServeDetach && flagServeChild:
		return errors.New("invalid serve launch mode")
	case flagServeDetach:
		return startDetached(pidFile(flagServePIDFile))
	}
	return serveForeground(pidFile(flagServePIDFile))
}

// startDetached re-executes the current command line without --detach as
// a background child writing to the log file.
func startDetached(pf pidFile) error {
	if err := pf.ensureFree(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	args := append(withoutDetach(os.Args[1:]), "--child")

	logf, err := openLogFile(flagServeLogFile)
	if err != nil {
		return fmt.Errorf("open server log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached server: %w", err)
	}

	fmt.Printf("  Started server (pid %d)\n", child.Process.Pid)
	fmt.Printf("  API: http://%s/v1/status\n", serveAddr())
	fmt.Printf("  Log: %s\n", flagServeLogFile)
	return nil
}

func serveForeground(pf pidFile) error {
	if err := pf.ensureFree(); err != nil {
		return err
	}

	addr := serveAddr()
	release, err := pf.claim(serverState{
		PID:       os.Getpid(),
		Addr:      addr,
		StartedAt: time.Now(),
		DataDir:   dataDir(),
	})
	if err != nil {
		return err
	}
	defer release()

	// Request logs go to stdout at info unless configured otherwise.
	level := logLevel
	if !flagVerbose && cfg.General.LogLevel == "" {
		level = slog.LevelInfo
	}
	logger = log.New(log.Config{Level: level, Output: os.Stdout})
	log.SetDefault(logger)

	flagQuiet = true
	ctrl, done := openController()
	defer done()

	svc := daemon.New(daemon.Config{
		DataDir:      dataDir(),
		Interval:     serveInterval(),
		Addr:         addr,
		EventsBuffer: flagServeEventsBuffer,
		RecentLimit:  cfg.General.RecentLimit,
	}, ctrl, newGate(), logger)

	fmt.Printf("  kasboard listening on http://%s\n", addr)
	fmt.Printf("  Watching %s every %s\n", dataDir(), serveInterval())
	fmt.Printf("  Stop with: kasboard serve stop --pid-file %s\n", pf)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(_ *cobra.Command, _ []string) error {
	pf := pidFile(flagServePIDFile)
	pid, err := pf.read()
	if err != nil {
		fmt.Println("  Server: not running")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Server: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := serveAddr()
	if st, err := pf.state(); err == nil && st.Addr != "" {
		addr = st.Addr
	}
	rows := [][]string{
		{"PID", strconv.Itoa(pid)},
		{"Address", "http://" + addr},
	}

	st, err := fetchStatus(addr)
	if err != nil {
		rows = append(rows, []string{"API", err.Error()})
	} else {
		lastPoll := "pending"
		if !st.LastPollAt.IsZero() {
			lastPoll = cli.FormatAge(st.LastPollAt)
		}
		rows = append(rows,
			[]string{"Up since", cli.FormatAge(st.StartedAt)},
			[]string{"Last poll", fmt.Sprintf("%s (%d polls)", lastPoll, st.PollCount)},
			[]string{"Data dir", st.DataDir},
			cli.SeparatorRow,
			[]string{"Transactions", cli.FormatNumber(int64(st.Summary.Transactions))},
			[]string{"Members", cli.FormatNumber(int64(st.Summary.Members))},
			[]string{"Total", cli.FormatRupiah(st.Summary.Total)},
			[]string{"Subscribers", strconv.Itoa(st.SubscriberCount)},
		)
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:     "kasboard serve",
		Rows:      rows,
		LeftAlign: []int{1},
	}))
	if err == nil {
		for _, w := range st.Warnings {
			fmt.Printf("  %s\n", cli.RenderWarning(w))
		}
	}
	return nil
}

// fetchStatus probes the running server's /v1/status endpoint.
func fetchStatus(addr string) (daemon.Status, error) {
	var st daemon.Status

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response: %w", err)
	}
	return st, nil
}

func runServeStop(_ *cobra.Command, _ []string) error {
	pf := pidFile(flagServePIDFile)
	pid, err := pf.read()
	if err != nil {
		return errors.New("server is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find server process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal server process: %w", err)
	}

	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(8 * time.Second)
	for {
		select {
		case <-ticker.C:
			if !processAlive(pid) {
				pf.remove()
				fmt.Printf("  Stopped server (pid %d)\n", pid)
				return nil
			}
		case <-timeout:
			return fmt.Errorf("server (pid %d) did not exit in time", pid)
		}
	}
}

func withoutDetach(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != "--detach" && !strings.HasPrefix(a, "--detach=") {
			out = append(out, a)
		}
	}
	return out
}
