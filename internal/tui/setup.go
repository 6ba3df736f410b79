package tui

import (
	"errors"
	"strings"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/config"
	"github.com/theirongolddev/kasboard/internal/pipeline"
	"github.com/theirongolddev/kasboard/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// SetupValues backs the first-run wizard. Blank passwords keep whatever
// the config already has.
type SetupValues struct {
	DataDir           string
	Timezone          string
	Theme             string
	TreasurerPassword string
	MemberPassword    string
	MirrorEnabled     bool
}

func newSetupValues(cfg config.Config) *SetupValues {
	def := config.DefaultConfig()
	v := &SetupValues{
		DataDir:       cfg.General.DataDir,
		Timezone:      cfg.General.Timezone,
		Theme:         cfg.Appearance.Theme,
		MirrorEnabled: cfg.Mirror.Enabled,
	}
	if v.DataDir == "" {
		v.DataDir = def.General.DataDir
	}
	if v.Timezone == "" {
		v.Timezone = def.General.Timezone
	}
	if v.Theme == "" {
		v.Theme = def.Appearance.Theme
	}
	return v
}

// Apply copies the wizard answers into cfg.
func (v *SetupValues) Apply(cfg *config.Config) {
	cfg.General.DataDir = strings.TrimSpace(v.DataDir)
	cfg.General.Timezone = strings.TrimSpace(v.Timezone)
	cfg.Appearance.Theme = v.Theme
	cfg.Mirror.Enabled = v.MirrorEnabled
	if cfg.Mirror.Enabled && cfg.Mirror.Path == "" {
		cfg.Mirror.Path = pipeline.MirrorPath()
	}
	if v.TreasurerPassword != "" {
		cfg.Auth.TreasurerPassword = v.TreasurerPassword
	}
	if v.MemberPassword != "" {
		cfg.Auth.MemberPassword = v.MemberPassword
	}
}

// NewSetupForm builds the setup wizard over v.
func NewSetupForm(v *SetupValues) *huh.Form {
	themes := huh.NewOptions(theme.Names()...)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Selamat datang di kasboard").
				Description("Beberapa pengaturan sebelum mulai. Jalankan `kasboard setup` kapan saja untuk mengubahnya."),
			huh.NewInput().
				Title("Folder data").
				Description("Tempat transactions.csv dan members.csv disimpan.").
				Validate(required("folder data")).
				Value(&v.DataDir),
			huh.NewInput().
				Title("Zona waktu").
				Validate(required("zona waktu")).
				Value(&v.Timezone),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Password Bendahara").
				Description("Kosongkan untuk memakai " + config.EnvTreasurerPassword + " atau nilai lama.").
				EchoMode(huh.EchoModePassword).
				Value(&v.TreasurerPassword),
			huh.NewInput().
				Title("Password Anggota").
				Description("Kosongkan untuk memakai " + config.EnvMemberPassword + " atau nilai lama.").
				EchoMode(huh.EchoModePassword).
				Value(&v.MemberPassword),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Tema").
				Options(themes...).
				Value(&v.Theme),
			huh.NewConfirm().
				Title("Salin data ke SQLite?").
				Description("Mirror hanya-baca untuk kueri ad hoc.").
				Value(&v.MirrorEnabled),
		),
	)
}

// RunSetup runs the wizard on the terminal and returns the updated config.
func RunSetup(cfg config.Config) (config.Config, error) {
	v := newSetupValues(cfg)
	if err := NewSetupForm(v).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return cfg, errors.New("setup dibatalkan")
		}
		return cfg, err
	}
	v.Apply(&cfg)
	return cfg, cfg.Validate()
}

func (a App) submitSetup() (tea.Model, tea.Cmd) {
	oldDir := config.DataDir(a.cfg)
	a.setupVals.Apply(&a.cfg)
	a.needSetup = false
	theme.SetActive(a.cfg.Appearance.Theme)

	// Passwords may have just been set; rebuild the gate from them.
	a.gate = auth.NewGate(auth.DefaultUsers(config.TreasurerPassword(a.cfg), config.MemberPassword(a.cfg)))

	err := a.cfg.Validate()
	if err == nil {
		err = config.SaveTo(a.configPath, a.cfg)
	}

	var flash tea.Cmd
	var m tea.Model = a
	switch {
	case err != nil:
		m, flash = a.setFlash("Config tidak tersimpan: "+err.Error(), true)
	case config.DataDir(a.cfg) != oldDir:
		m, flash = a.setFlash("Folder data baru berlaku saat restart", false)
	}

	app := m.(App)
	if !app.sess.Authenticated() {
		next, cmd := app.openLogin()
		return next, tea.Batch(flash, cmd)
	}
	return app, flash
}
