package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/dashboard"
	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/tui/components"
	"github.com/theirongolddev/kasboard/internal/tui/theme"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// DateLayout is how dates are typed into forms and flags.
const DateLayout = "2006-01-02"

// txFormValues backs the add-transaction form.
type txFormValues struct {
	source      model.Source
	amount      string
	date        string
	description string
	duesMember  string
	sponsor     string
}

// input converts the form values. Parse errors are reported as
// validation errors.
func (v *txFormValues) input(loc *time.Location) (dashboard.TransactionInput, error) {
	amount, err := parseAmount(v.amount)
	if err != nil {
		return dashboard.TransactionInput{}, err
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(v.date), loc)
	if err != nil {
		return dashboard.TransactionInput{}, fmt.Errorf("tanggal %q: %w", v.date, dashboard.ErrValidation)
	}

	in := dashboard.TransactionInput{
		Source:      v.source,
		Amount:      amount,
		Date:        day,
		Description: v.description,
	}
	switch v.source {
	case model.SourceMemberDues:
		in.Member = v.duesMember
	case model.SourceSponsorship:
		in.Member = v.sponsor
	}
	return in, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := cli.ParseRupiah(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("jumlah %q: %w", s, dashboard.ErrInvalidAmount)
	}
	return d, nil
}

func newTransactionForm(vals *txFormValues, members []model.Member) *huh.Form {
	sourceOpts := make([]huh.Option[model.Source], len(model.Sources))
	for i, src := range model.Sources {
		sourceOpts[i] = huh.NewOption(string(src), src)
	}

	var duesField huh.Field
	if len(members) > 0 {
		opts := make([]huh.Option[string], len(members))
		for i, m := range members {
			opts[i] = huh.NewOption(m.Label(), m.Label())
		}
		duesField = huh.NewSelect[string]().
			Title("Anggota").
			Options(opts...).
			Value(&vals.duesMember)
	} else {
		duesField = huh.NewInput().
			Title("Anggota").
			Description("Belum ada anggota terdaftar; tulis \"Nama - Jabatan\".").
			Validate(required("anggota")).
			Value(&vals.duesMember)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.Source]().
				Title("Sumber").
				Options(sourceOpts...).
				Value(&vals.source),
			huh.NewInput().
				Title("Jumlah (Rp)").
				Placeholder("50000").
				Validate(func(s string) error {
					d, err := parseAmount(s)
					if err != nil || !d.IsPositive() {
						return errors.New("jumlah harus angka lebih dari 0")
					}
					return nil
				}).
				Value(&vals.amount),
			huh.NewInput().
				Title("Tanggal").
				Description("YYYY-MM-DD").
				Validate(func(s string) error {
					if _, err := time.Parse(DateLayout, strings.TrimSpace(s)); err != nil {
						return errors.New("format tanggal YYYY-MM-DD")
					}
					return nil
				}).
				Value(&vals.date),
			huh.NewInput().
				Title("Keterangan").
				Value(&vals.description),
		),
		huh.NewGroup(duesField).
			WithHideFunc(func() bool { return vals.source != model.SourceMemberDues }),
		huh.NewGroup(
			huh.NewInput().
				Title("Nama sponsor / media").
				Validate(required("nama sponsor")).
				Value(&vals.sponsor),
		).WithHideFunc(func() bool { return vals.source != model.SourceSponsorship }),
	)
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s wajib diisi", field)
		}
		return nil
	}
}

func (a App) openTransactionForm() (tea.Model, tea.Cmd) {
	if err := a.sess.Require(auth.ActionAddTransaction); err != nil {
		return a.setFlashErr(err)
	}
	a.txVals = &txFormValues{
		source: model.SourceMemberDues,
		date:   a.ctrl.Now().Format(DateLayout),
	}
	a.formKind = formTransaction
	return a.openForm(formTransaction, newTransactionForm(a.txVals, a.members))
}

func (a App) submitTransaction() (tea.Model, tea.Cmd) {
	in, err := a.txVals.input(a.ctrl.Location())
	if err != nil {
		return a.setFlashErr(err)
	}
	tx, err := a.ctrl.AddTransaction(a.sess, in)
	a.recompute()
	if err != nil {
		return a.setFlashErr(err)
	}
	return a.setFlash(fmt.Sprintf("Tersimpan: %s %s", tx.Source, cli.FormatRupiah(tx.Amount)), false)
}

func (a App) updateTransactionsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if moveCursor(&a.txList, len(a.rows), msg) {
		return a, nil, true
	}
	switch {
	case key.Matches(msg, keys.Add):
		m, cmd := a.openTransactionForm()
		return m, cmd, true
	case key.Matches(msg, keys.Delete):
		m, cmd := a.beginDelete(auth.ActionDeleteTransaction)
		return m, cmd, true
	}
	return a, nil, false
}

func (a App) renderTransactionsTab(cw, h int) string {
	if a.formKind == formTransaction && a.form != nil {
		return a.renderFormCard("Tambah Transaksi", cw)
	}

	t := theme.Active
	loc := a.ctrl.Location()
	title := fmt.Sprintf("Semua Transaksi (%d)", len(a.rows))
	if len(a.rows) == 0 {
		hint := "Belum ada transaksi"
		if a.sess.CanWrite() {
			hint += " · tekan a untuk menambah"
		}
		return components.ContentCard(title,
			lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(hint), cw)
	}

	cols := []column{
		{title: "Tanggal", width: 18},
		{title: "Sumber", width: 14},
		{title: "Jumlah", width: 14, right: true},
		{title: "Nama", width: 20},
		{title: "Jabatan", width: 14},
		{title: "Keterangan", flex: true},
	}
	rows := make([][]string, len(a.rows))
	colors := make([]lipgloss.Color, len(a.rows))
	for i, r := range a.rows {
		rows[i] = []string{
			cli.FormatDateTime(r.Date, loc),
			string(r.Source),
			cli.FormatRupiah(r.Amount),
			r.MemberName,
			r.MemberRole,
			r.Description,
		}
		colors[i] = t.SourceColor(r.Source)
	}

	body := renderList(cols, rows, colors, a.txList.cursor, max(h-5, 3), components.CardInnerWidth(cw))
	body += "\n" + a.listFooter(a.txList, "a tambah · x hapus")
	return components.ContentCard(title, body, cw)
}

// renderFormCard shows the active add form inside a card.
func (a App) renderFormCard(title string, cw int) string {
	w := min(cw, 72)
	hint := lipgloss.NewStyle().Foreground(theme.Active.TextDim).Render("esc batal")
	return components.ContentCard(title, a.form.View()+"\n"+hint, w)
}
