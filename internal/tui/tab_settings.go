package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/kasboard/internal/config"
	"github.com/theirongolddev/kasboard/internal/pipeline"
	"github.com/theirongolddev/kasboard/internal/store"
	"github.com/theirongolddev/kasboard/internal/tui/components"
	"github.com/theirongolddev/kasboard/internal/tui/theme"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldRecent
	settingsFieldMirror
	settingsFieldLogout
	settingsFieldCount // sentinel
)

var recentChoices = []int{5, 10, 20, 50}

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	saveErr error
}

func (a App) updateSettingsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
		return a, nil, true
	case key.Matches(msg, keys.Down):
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
		return a, nil, true
	case key.Matches(msg, keys.Theme):
		m, cmd := a.activateSetting()
		return m, cmd, true
	case key.Matches(msg, keys.Logout):
		m, cmd := a.logout()
		return m, cmd, true
	}
	return a, nil, false
}

func (a App) activateSetting() (tea.Model, tea.Cmd) {
	switch a.settings.cursor {
	case settingsFieldTheme:
		a.cfg.Appearance.Theme = theme.Next(theme.Active.Name)
		theme.SetActive(a.cfg.Appearance.Theme)
		a.spinner.Style = a.spinner.Style.Foreground(theme.Active.Accent).Background(theme.Active.Surface)
	case settingsFieldRecent:
		a.cfg.General.RecentLimit = nextChoice(recentChoices, a.recentLimit())
		a.recompute()
	case settingsFieldMirror:
		a.cfg.Mirror.Enabled = !a.cfg.Mirror.Enabled
		if a.cfg.Mirror.Path == "" {
			a.cfg.Mirror.Path = pipeline.MirrorPath()
		}
	case settingsFieldLogout:
		return a.logout()
	}

	a.settings.saveErr = config.SaveTo(a.configPath, a.cfg)
	if a.settings.saveErr != nil {
		return a.setFlash("Gagal menyimpan config: "+a.settings.saveErr.Error(), true)
	}
	return a.setFlash("Config tersimpan", false)
}

func nextChoice(choices []int, current int) int {
	for i, c := range choices {
		if c == current {
			return choices[(i+1)%len(choices)]
		}
	}
	return choices[0]
}

func (a App) logout() (tea.Model, tea.Cmd) {
	a.sess.Logout()
	a.activeTab = components.TabDashboard
	a.dash.confirming = false
	a.txList.confirming = false
	a.memList.confirming = false
	return a.openLogin()
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	warnStyle := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface)

	mirror := "off"
	if a.cfg.Mirror.Enabled {
		mirror = "on (berlaku saat restart)"
	}
	fields := []struct{ label, value string }{
		{"Tema", theme.Active.Name},
		{"Transaksi terakhir", strconv.Itoa(a.recentLimit())},
		{"Mirror SQLite", mirror},
		{"Logout", a.sess.Username()},
	}

	innerW := components.CardInnerWidth(cw)
	var form strings.Builder
	for i, f := range fields {
		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-20s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			form.WriteString(marker + label + value)
			if pad := innerW - lipgloss.Width(marker+label+value); pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			form.WriteString(valueStyle.Render("  "))
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-20s ", f.label+":")))
			form.WriteString(valueStyle.Render(f.value))
		}
		form.WriteString("\n")
	}
	if a.settings.saveErr != nil {
		form.WriteString("\n")
		form.WriteString(warnStyle.Render("Save failed: " + a.settings.saveErr.Error()))
		form.WriteString("\n")
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] pilih  [Enter] ubah  [L] logout"))

	dataDir := config.DataDir(a.cfg)
	info := []struct{ label, value string }{
		{"Data directory", dataDir},
		{"Transaksi", store.TransactionsFile},
		{"Anggota", store.MembersFile},
		{"Zona waktu", a.ctrl.Location().String()},
		{"Load time", a.loadTime.String()},
		{"Config file", a.configPath},
	}
	var infoBody strings.Builder
	for i, row := range info {
		infoBody.WriteString(labelStyle.Render(fmt.Sprintf("%-16s ", row.label+":")))
		infoBody.WriteString(valueStyle.Render(row.value))
		if i < len(info)-1 {
			infoBody.WriteString("\n")
		}
	}

	return components.ContentCard("Settings", form.String(), cw) + "\n" +
		components.ContentCard("General", infoBody.String(), cw)
}
