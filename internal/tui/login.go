package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

type loginValues struct {
	user     string
	password string
}

func newLoginForm(usernames []string, vals *loginValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Pengguna").
				Options(huh.NewOptions(usernames...)...).
				Value(&vals.user),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&vals.password),
		),
	)
}

func (a App) openLogin() (tea.Model, tea.Cmd) {
	usernames := a.gate.Usernames()
	vals := &loginValues{}
	if a.loginVals != nil {
		vals.user = a.loginVals.user
	}
	if vals.user == "" && len(usernames) > 0 {
		vals.user = usernames[0]
	}
	a.loginVals = vals
	a.formKind = formLogin
	return a.openForm(formLogin, newLoginForm(usernames, vals))
}

func (a App) submitLogin() (tea.Model, tea.Cmd) {
	if err := a.gate.Login(a.sess, a.loginVals.user, a.loginVals.password); err != nil {
		m, flashCmd := a.setFlashErr(err)
		next, formCmd := m.(App).openLogin()
		return next, tea.Batch(flashCmd, formCmd)
	}
	a.loginVals.password = ""
	return a.setFlash(fmt.Sprintf("Masuk sebagai %s", a.sess.Role()), false)
}

// PromptPassword asks for user's password on the terminal.
func PromptPassword(user string) (string, error) {
	var pw string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Password untuk " + user).
			EchoMode(huh.EchoModePassword).
			Value(&pw),
	)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", fmt.Errorf("login dibatalkan")
	}
	return pw, err
}
