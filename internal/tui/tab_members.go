package tui

import (
	"fmt"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/dashboard"
	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/tui/components"
	"github.com/theirongolddev/kasboard/internal/tui/theme"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type memberFormValues struct {
	name     string
	position model.Position
	contact  string
}

func newMemberForm(vals *memberFormValues) *huh.Form {
	opts := make([]huh.Option[model.Position], len(model.Positions))
	for i, p := range model.Positions {
		opts[i] = huh.NewOption(string(p), p)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Nama").
				Validate(required("nama")).
				Value(&vals.name),
			huh.NewSelect[model.Position]().
				Title("Jabatan").
				Options(opts...).
				Value(&vals.position),
			huh.NewInput().
				Title("Kontak").
				Placeholder("08xx / email").
				Validate(required("kontak")).
				Value(&vals.contact),
		),
	)
}

func (a App) openMemberForm() (tea.Model, tea.Cmd) {
	if err := a.sess.Require(auth.ActionAddMember); err != nil {
		return a.setFlashErr(err)
	}
	a.memberVals = &memberFormValues{position: model.DefaultPosition}
	a.formKind = formMember
	return a.openForm(formMember, newMemberForm(a.memberVals))
}

func (a App) submitMember() (tea.Model, tea.Cmd) {
	m, err := a.ctrl.AddMember(a.sess, dashboard.MemberInput{
		Name:     a.memberVals.name,
		Position: a.memberVals.position,
		Contact:  a.memberVals.contact,
	})
	a.recompute()
	if err != nil {
		return a.setFlashErr(err)
	}
	a.memList.cursor = len(a.members) - 1
	return a.setFlash("Anggota ditambahkan: "+m.Label(), false)
}

func (a App) updateMembersKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if moveCursor(&a.memList, len(a.members), msg) {
		return a, nil, true
	}
	switch {
	case key.Matches(msg, keys.Add):
		m, cmd := a.openMemberForm()
		return m, cmd, true
	case key.Matches(msg, keys.Delete):
		m, cmd := a.beginDelete(auth.ActionDeleteMember)
		return m, cmd, true
	}
	return a, nil, false
}

func (a App) renderMembersTab(cw, h int) string {
	if a.formKind == formMember && a.form != nil {
		return a.renderFormCard("Tambah Anggota", cw)
	}

	t := theme.Active
	title := fmt.Sprintf("Daftar Anggota (%d)", len(a.members))
	if len(a.members) == 0 {
		hint := "Belum ada anggota"
		if a.sess.CanWrite() {
			hint += " · tekan a untuk menambah"
		}
		return components.ContentCard(title,
			lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(hint), cw)
	}

	cols := []column{
		{title: "No", width: 4, right: true},
		{title: "Jabatan", width: 20},
		{title: "Nama", width: 28},
		{title: "Kontak", flex: true},
	}
	rows := make([][]string, len(a.members))
	colors := make([]lipgloss.Color, len(a.members))
	for i, m := range a.members {
		rows[i] = []string{fmt.Sprintf("%d", i+1), string(m.Position), m.Name, m.Contact}
		colors[i] = t.Accent
	}

	body := renderList(cols, rows, colors, a.memList.cursor, max(h-5, 3), components.CardInnerWidth(cw))
	body += "\n" + a.listFooter(a.memList, "a tambah · x hapus")
	return components.ContentCard(title, body, cw)
}
