// Package tui provides the interactive Bubble Tea dashboard for kasboard.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/config"
	"github.com/theirongolddev/kasboard/internal/dashboard"
	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/pipeline"
	"github.com/theirongolddev/kasboard/internal/tui/components"
	"github.com/theirongolddev/kasboard/internal/tui/theme"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DataLoadedMsg is sent when the CSV files have been (re)read.
type DataLoadedMsg struct {
	Warnings []error
	LoadTime time.Duration
	Refresh  bool
}

type exportDoneMsg struct {
	path string
	err  error
}

type clearFlashMsg struct{ id int }

type formKind int

const (
	formNone formKind = iota
	formLogin
	formSetup
	formTransaction
	formMember
)

// listState is the cursor of a scrollable list plus a pending delete
// confirmation.
type listState struct {
	cursor     int
	confirming bool
}

func (l *listState) clamp(n int) {
	l.cursor = min(l.cursor, n-1)
	l.cursor = max(l.cursor, 0)
	if n == 0 {
		l.confirming = false
	}
}

// Options configures NewApp.
type Options struct {
	Controller *dashboard.Controller
	Gate       *auth.Gate
	Session    *auth.Session // already logged in when the CLI got credentials
	Config     config.Config
	ConfigPath string // where settings changes are saved; defaults to config.Path()
	ExportDir  string
	FirstRun   bool
}

// App is the root Bubble Tea model.
type App struct {
	ctrl      *dashboard.Controller
	gate      *auth.Gate
	sess      *auth.Session
	cfg        config.Config
	configPath string
	exportDir  string

	// Data
	loaded   bool
	loadTime time.Duration
	warnings []error

	// Derived from the controller after every load or mutation
	summary model.Summary
	months  []model.MonthTotal
	shares  []model.SourceShare
	recent  []model.Transaction
	rows    []model.TransactionRow
	members []model.Member

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	flash     string
	flashErr  bool
	flashID   int

	// Active huh form, if any
	form       *huh.Form
	formKind   formKind
	loginVals  *loginValues
	setupVals  *SetupValues
	txVals     *txFormValues
	memberVals *memberFormValues
	needSetup  bool

	// Per-tab state
	dash     listState
	txList   listState
	memList  listState
	settings settingsState

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	flashDuration    = 4 * time.Second
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	sess := opts.Session
	if sess == nil {
		sess = &auth.Session{}
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.Path()
	}

	return App{
		ctrl:       opts.Controller,
		gate:       opts.Gate,
		sess:       sess,
		cfg:        opts.Config,
		configPath: configPath,
		exportDir:  exportDir,
		needSetup:  opts.FirstRun,
		spinner:    sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.ctrl, false),
		a.spinner.Tick,
	)
}

func (a *App) recompute() {
	txs := a.ctrl.Transactions()
	a.members = a.ctrl.Members()

	a.summary = pipeline.Summarize(txs, a.members)
	a.months = pipeline.MonthTotals(pipeline.MonthlySeries(txs))
	a.shares = pipeline.DistributionBySource(txs)
	a.recent = pipeline.RecentTransactions(txs, a.recentLimit())
	a.rows = pipeline.AllTransactionsSorted(txs)

	a.dash.clamp(len(a.recent))
	a.txList.clamp(len(a.rows))
	a.memList.clamp(len(a.members))
}

func (a App) recentLimit() int {
	if a.cfg.General.RecentLimit > 0 {
		return a.cfg.General.RecentLimit
	}
	return pipeline.DefaultRecentLimit
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(a.formWidth())
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.form != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}
		if a.form != nil {
			if msg.String() == "esc" && (a.formKind == formTransaction || a.formKind == formMember) {
				a.closeForm()
				return a, nil
			}
			return a.updateForm(msg)
		}
		return a.updateKeys(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.warnings = msg.Warnings
		a.recompute()

		if msg.Refresh {
			return a.setFlash(fmt.Sprintf("Data dimuat ulang (%d transaksi)", a.summary.Count), false)
		}
		if a.needSetup {
			a.setupVals = newSetupValues(a.cfg)
			return a.openForm(formSetup, NewSetupForm(a.setupVals))
		}
		if !a.sess.Authenticated() {
			return a.openLogin()
		}
		return a, nil

	case exportDoneMsg:
		if msg.err != nil {
			return a.setFlashErr(msg.err)
		}
		return a.setFlash("Diekspor ke "+msg.path, false)

	case clearFlashMsg:
		if msg.id == a.flashID {
			a.flash = ""
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the active form (cursor blinks, etc.)
	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Help) {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	// A pending delete confirmation takes the next key.
	if l := a.activeList(); l != nil && l.confirming {
		l.confirming = false
		if key.Matches(msg, keys.Confirm) {
			return a.confirmDelete()
		}
		return a, nil
	}

	switch a.activeTab {
	case components.TabDashboard:
		if m, cmd, ok := a.updateDashboardKeys(msg); ok {
			return m, cmd
		}
	case components.TabTransactions:
		if m, cmd, ok := a.updateTransactionsKeys(msg); ok {
			return m, cmd
		}
	case components.TabMembers:
		if m, cmd, ok := a.updateMembersKeys(msg); ok {
			return m, cmd
		}
	case components.TabSettings:
		if m, cmd, ok := a.updateSettingsKeys(msg); ok {
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Refresh):
		return a, loadDataCmd(a.ctrl, true)
	case key.Matches(msg, keys.PrevTab):
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case key.Matches(msg, keys.NextTab):
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if r := msg.Runes; len(r) == 1 {
			if idx := components.TabIdxByKey(r[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	l := a.activeList()
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if l != nil && l.cursor > 0 {
			l.cursor--
			l.confirming = false
		}
	case tea.MouseButtonWheelDown:
		if l != nil && l.cursor < a.activeListLen()-1 {
			l.cursor++
			l.confirming = false
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

// activeList returns the cursor state of the current tab's list, if any.
func (a *App) activeList() *listState {
	switch a.activeTab {
	case components.TabDashboard:
		return &a.dash
	case components.TabTransactions:
		return &a.txList
	case components.TabMembers:
		return &a.memList
	}
	return nil
}

func (a App) activeListLen() int {
	switch a.activeTab {
	case components.TabDashboard:
		return len(a.recent)
	case components.TabTransactions:
		return len(a.rows)
	case components.TabMembers:
		return len(a.members)
	}
	return 0
}

// moveCursor handles list navigation keys shared by the list tabs.
func moveCursor(l *listState, n int, msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, keys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(msg, keys.Down):
		if l.cursor < n-1 {
			l.cursor++
		}
	case key.Matches(msg, keys.Top):
		l.cursor = 0
	case key.Matches(msg, keys.Bottom):
		l.cursor = max(n-1, 0)
	default:
		return false
	}
	return true
}

// beginDelete arms the confirmation prompt when the session may perform
// action and the list is not empty.
func (a App) beginDelete(action auth.Action) (tea.Model, tea.Cmd) {
	if err := a.sess.Require(action); err != nil {
		return a.setFlashErr(err)
	}
	if l := a.activeList(); l != nil && a.activeListLen() > 0 {
		l.confirming = true
	}
	return a, nil
}

func (a App) confirmDelete() (tea.Model, tea.Cmd) {
	var (
		err  error
		done string
	)
	switch a.activeTab {
	case components.TabDashboard:
		if a.dash.cursor < len(a.recent) {
			tx := a.recent[a.dash.cursor]
			err = a.ctrl.DeleteTransaction(a.sess, dashboard.MatchOf(tx))
			done = "Transaksi dihapus"
		}
	case components.TabTransactions:
		if a.txList.cursor < len(a.rows) {
			tx := a.rows[a.txList.cursor].Transaction
			err = a.ctrl.DeleteTransaction(a.sess, dashboard.MatchOf(tx))
			done = "Transaksi dihapus"
		}
	case components.TabMembers:
		var m model.Member
		m, err = a.ctrl.DeleteMember(a.sess, a.memList.cursor)
		done = "Anggota " + m.Name + " dihapus"
	}

	a.recompute()
	if err != nil {
		return a.setFlashErr(err)
	}
	return a.setFlash(done, false)
}

// ─── Forms ──────────────────────────────────────────────────────

func (a App) openForm(kind formKind, form *huh.Form) (tea.Model, tea.Cmd) {
	a.form = form.WithShowHelp(true).WithWidth(a.formWidth())
	a.formKind = kind
	return a, a.form.Init()
}

func (a *App) closeForm() {
	a.form = nil
	a.formKind = formNone
}

func (a App) formWidth() int {
	switch a.formKind {
	case formTransaction, formMember:
		return components.CardInnerWidth(min(a.contentWidth(), 72))
	}
	return min(max(a.width-8, 40), 72)
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		kind := a.formKind
		a.closeForm()
		switch kind {
		case formLogin:
			return a.submitLogin()
		case formSetup:
			return a.submitSetup()
		case formTransaction:
			return a.submitTransaction()
		case formMember:
			return a.submitMember()
		}
		return a, nil

	case huh.StateAborted:
		kind := a.formKind
		a.closeForm()
		switch kind {
		case formLogin:
			return a, tea.Quit
		case formSetup:
			a.needSetup = false
			if !a.sess.Authenticated() {
				return a.openLogin()
			}
		}
		return a, nil
	}

	return a, cmd
}

// ─── Flash messages ─────────────────────────────────────────────

func (a App) setFlash(text string, isErr bool) (tea.Model, tea.Cmd) {
	a.flashID++
	a.flash = text
	a.flashErr = isErr
	id := a.flashID
	return a, tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return clearFlashMsg{id: id}
	})
}

func (a App) setFlashErr(err error) (tea.Model, tea.Cmd) {
	return a.setFlash(describeError(err), true)
}

// describeError turns controller errors into a short status-bar message.
func describeError(err error) string {
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		return "Silakan login terlebih dahulu"
	case errors.Is(err, auth.ErrUnauthorized):
		return "Hanya Bendahara yang dapat melakukan aksi ini"
	case errors.Is(err, auth.ErrBadCredentials):
		return "Username atau password salah"
	case errors.Is(err, dashboard.ErrPersistence):
		return "Gagal menyimpan: " + err.Error()
	}
	return err.Error()
}

// ─── Views ──────────────────────────────────────────────────────

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}

	switch a.formKind {
	case formLogin, formSetup:
		return a.viewCenteredForm()
	}

	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  kasboard needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ kasboard"))
	b.WriteString(subtitleStyle.Render(" · Dasbor Keuangan"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Memuat data..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewCenteredForm() string {
	t := theme.Active

	title := "◈ kasboard · Login"
	if a.formKind == formSetup {
		title = "◈ kasboard · Setup"
	}
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)

	body := titleStyle.Render(title) + "\n\n" + a.form.View()
	if a.flash != "" && a.flashErr {
		body += "\n" + lipgloss.NewStyle().Foreground(t.Danger).Render(a.flash)
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3).
		Render(body)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Key).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	tabKeys := make([]string, len(components.Tabs))
	for i, tab := range components.Tabs {
		tabKeys[i] = string(tab.Key)
	}
	fmt.Fprintf(&b, "  %s  %s\n\n",
		keyStyle.Render(fmt.Sprintf("%-10s", strings.Join(tabKeys, " "))),
		descStyle.Render("Pindah tab"))

	for _, sec := range keys.helpSections() {
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			h := bind.Help()
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", h.Key)),
				descStyle.Render(h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + balance pill
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	pill := pillStyle.Render(" Saldo ") + pillAccent.Render(cli.FormatRupiah(a.summary.Total)) +
		pillStyle.Render(" │ ") + pillAccent.Render(fmt.Sprintf("%d", a.summary.Count)) +
		pillStyle.Render(" transaksi │ ") + pillAccent.Render(fmt.Sprintf("%d", a.summary.MemberCount)) +
		pillStyle.Render(" anggota ")
	if len(a.warnings) > 0 {
		pill += lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface).
			Render(fmt.Sprintf("│ %d peringatan ", len(a.warnings)))
	}

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(pill)

	// 2. Status bar
	statusBar := components.RenderStatusBar(w, components.Status{
		User:     a.sess.Username(),
		Role:     string(a.sess.Role()),
		CanWrite: a.sess.CanWrite(),
		DataAge:  fmt.Sprintf("dimuat %s (%s)", cli.FormatAge(a.ctrl.LoadedAt()), a.loadTime.Round(time.Millisecond)),
		Flash:    a.flash,
		FlashErr: a.flashErr,
	})

	// 3. Content zone height
	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	// 4. Tab content
	var content string
	switch a.activeTab {
	case components.TabDashboard:
		content = a.renderDashboardTab(cw, contentH)
	case components.TabTransactions:
		content = a.renderTransactionsTab(cw, contentH)
	case components.TabMembers:
		content = a.renderMembersTab(cw, contentH)
	case components.TabSettings:
		content = a.renderSettingsTab(cw)
	}

	// 5. Exactly contentH lines, filled to width, centered when w > cw
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

// loadDataCmd rereads both CSV files in the background.
func loadDataCmd(ctrl *dashboard.Controller, refresh bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		warnings := ctrl.Reload()
		return DataLoadedMsg{
			Warnings: warnings,
			LoadTime: time.Since(start),
			Refresh:  refresh,
		}
	}
}

func exportCmd(ctrl *dashboard.Controller, sess *auth.Session, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := ctrl.ExportFile(sess, dir)
		return exportDoneMsg{path: path, err: err}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// windowStart returns the first visible row so that cursor stays inside a
// window of visible rows.
func windowStart(cursor, visible int) int {
	if visible <= 0 || cursor < visible {
		return 0
	}
	return cursor - visible + 1
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the widths RenderTabBar uses.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}
