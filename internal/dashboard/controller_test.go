package dashboard

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

// fixedNow is 2024-03-10 09:30:15 in Jakarta.
var fixedNow = time.Date(2024, 3, 10, 2, 30, 15, 0, time.UTC)

type memStore struct {
	txs     []model.Transaction
	members []model.Member
	saves   int
	saveErr error
}

func (m *memStore) Load() store.LoadResult {
	return store.LoadResult{Transactions: append([]model.Transaction(nil), m.txs...), Members: append([]model.Member(nil), m.members...)}
}

func (m *memStore) Save(txs []model.Transaction, members []model.Member) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.txs = append([]model.Transaction(nil), txs...)
	m.members = append([]model.Member(nil), members...)
	return nil
}

type recordingMirror struct {
	syncs int
	err   error
}

func (r *recordingMirror) Sync([]model.Transaction, []model.Member) error {
	r.syncs++
	return r.err
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func login(t *testing.T, user string) *auth.Session {
	t.Helper()
	g := auth.NewGate(auth.DefaultUsers("kunci-bendahara", "kunci-anggota"))
	var sess auth.Session
	pw := "kunci-bendahara"
	if user == auth.UserMember {
		pw = "kunci-anggota"
	}
	require.NoError(t, g.Login(&sess, user, pw))
	return &sess
}

func newController(t *testing.T, st Store, mirror Syncer) *Controller {
	t.Helper()
	c := New(st, Options{
		Mirror:   mirror,
		Location: jakarta,
		Now:      func() time.Time { return fixedNow },
	})
	require.Empty(t, c.Reload())
	return c
}

func TestAddTransactionStampsChosenDayWithCurrentTime(t *testing.T) {
	st := &memStore{}
	c := newController(t, st, nil)

	tx, err := c.AddTransaction(login(t, auth.UserTreasurer), TransactionInput{
		Source:      model.SourceMemberDues,
		Amount:      dec("50000"),
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, jakarta),
		Description: " Kas Januari ",
		Member:      "Budi - Ketua",
	})
	require.NoError(t, err)

	// 2024-01-15 09:30:15 WIB
	assert.Equal(t, time.Date(2024, 1, 15, 2, 30, 15, 0, time.UTC), tx.Date)
	assert.Equal(t, time.UTC, tx.Date.Location())
	assert.Equal(t, "Kas Januari", tx.Description)
	assert.Equal(t, 1, st.saves)
	require.Len(t, st.txs, 1)
	assert.Equal(t, tx, st.txs[0])
}

func TestAddTransactionDateCrossesUTCDay(t *testing.T) {
	c := New(&memStore{}, Options{
		Location: jakarta,
		Now:      func() time.Time { return time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC) }, // 03:00 WIB on the 10th
	})
	tx, err := c.AddTransaction(login(t, auth.UserTreasurer), TransactionInput{
		Source: model.SourceProposal,
		Amount: dec("1"),
		Date:   time.Date(2024, 2, 1, 0, 0, 0, 0, jakarta),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC), tx.Date)
}

func TestAddTransactionZeroDateMeansToday(t *testing.T) {
	c := newController(t, &memStore{}, nil)
	tx, err := c.AddTransaction(login(t, auth.UserTreasurer), TransactionInput{
		Source: model.SourceProposal,
		Amount: dec("100000"),
	})
	require.NoError(t, err)
	assert.True(t, tx.Date.Equal(fixedNow))
	assert.Equal(t, model.ProposalPlaceholder, tx.Member)
}

func TestAddProposalForcesPlaceholderMember(t *testing.T) {
	c := newController(t, &memStore{}, nil)
	tx, err := c.AddTransaction(login(t, auth.UserTreasurer), TransactionInput{
		Source: model.SourceProposal,
		Amount: dec("100000"),
		Member: "Budi - Ketua",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProposalPlaceholder, tx.Member)
}

func TestAddTransactionRejectsNonPositiveAmount(t *testing.T) {
	st := &memStore{}
	c := newController(t, st, nil)
	sess := login(t, auth.UserTreasurer)

	for _, amt := range []string{"0", "-1", "-50000.5"} {
		_, err := c.AddTransaction(sess, TransactionInput{Source: model.SourceProposal, Amount: dec(amt)})
		assert.ErrorIs(t, err, ErrInvalidAmount, amt)
		assert.ErrorIs(t, err, ErrValidation, amt)
	}
	assert.Empty(t, c.Transactions())
	assert.Zero(t, st.saves)
}

func TestAddTransactionRequiresMember(t *testing.T) {
	st := &memStore{}
	c := newController(t, st, nil)
	sess := login(t, auth.UserTreasurer)

	for _, src := range []model.Source{model.SourceMemberDues, model.SourceSponsorship} {
		_, err := c.AddTransaction(sess, TransactionInput{Source: src, Amount: dec("1000"), Member: "  "})
		assert.ErrorIs(t, err, ErrMemberRequired, string(src))
	}

	_, err := c.AddTransaction(sess, TransactionInput{Source: "Hibah", Amount: dec("1000"), Member: "x"})
	assert.ErrorIs(t, err, ErrInvalidSource)

	assert.Empty(t, c.Transactions())
	assert.Zero(t, st.saves)
}

func TestMemberSessionRejectedBeforeMutation(t *testing.T) {
	st := &memStore{
		txs:     []model.Transaction{{Source: model.SourceProposal, Amount: dec("100000"), Date: fixedNow, Member: "-"}},
		members: []model.Member{{Name: "Budi", Position: "Ketua", Contact: "0812"}},
	}
	mirror := &recordingMirror{}
	c := newController(t, st, mirror)
	sess := login(t, auth.UserMember)

	_, err := c.AddTransaction(sess, TransactionInput{Source: model.SourceProposal, Amount: dec("1")})
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	err = c.DeleteTransaction(sess, MatchOf(st.txs[0]))
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = c.AddMember(sess, MemberInput{Name: "Sari", Contact: "sari@example.com"})
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = c.DeleteMember(sess, 0)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = c.Export(sess, &bytes.Buffer{})
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	assert.Len(t, c.Transactions(), 1)
	assert.Len(t, c.Members(), 1)
	assert.Zero(t, st.saves)
	assert.Zero(t, mirror.syncs)
}

func TestUnauthenticatedSessionRejected(t *testing.T) {
	st := &memStore{}
	c := newController(t, st, nil)

	_, err := c.AddTransaction(&auth.Session{}, TransactionInput{Source: model.SourceProposal, Amount: dec("1")})
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	// Permission is checked before validation.
	_, err = c.AddTransaction(nil, TransactionInput{Amount: dec("0")})
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Zero(t, st.saves)
}

func TestDeleteTransactionRemovesFirstMatch(t *testing.T) {
	dup := model.Transaction{Source: model.SourceMemberDues, Amount: dec("50000"), Description: "Kas", Member: "Budi - Ketua"}
	first, second := dup, dup
	first.Date = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second.Date = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	other := model.Transaction{Source: model.SourceProposal, Amount: dec("1"), Date: fixedNow, Member: "-"}

	st := &memStore{txs: []model.Transaction{other, first, second}}
	c := newController(t, st, nil)

	m := MatchOf(dup)
	m.Amount = dec("50000.00")
	require.NoError(t, c.DeleteTransaction(login(t, auth.UserTreasurer), m))

	assert.Equal(t, []model.Transaction{other, second}, c.Transactions())
	assert.Equal(t, 1, st.saves)
}

func TestDeleteProposalWithBlankMember(t *testing.T) {
	prop := model.Transaction{Source: model.SourceProposal, Amount: dec("100000"), Date: fixedNow, Description: "Dies natalis", Member: "-"}
	st := &memStore{txs: []model.Transaction{prop}}
	c := newController(t, st, nil)

	err := c.DeleteTransaction(login(t, auth.UserTreasurer), Match{
		Source:      model.SourceProposal,
		Amount:      dec("100000"),
		Description: "Dies natalis",
	})
	require.NoError(t, err)
	assert.Empty(t, c.Transactions())
}

func TestDeleteTransactionNotFound(t *testing.T) {
	orig := []model.Transaction{{Source: model.SourceMemberDues, Amount: dec("50000"), Date: fixedNow, Description: "Kas", Member: "Budi - Ketua"}}
	st := &memStore{txs: orig}
	c := newController(t, st, nil)
	sess := login(t, auth.UserTreasurer)

	for _, m := range []Match{
		{Source: model.SourceMemberDues, Amount: dec("50001"), Description: "Kas", Member: "Budi - Ketua"},
		{Source: model.SourceSponsorship, Amount: dec("50000"), Description: "Kas", Member: "Budi - Ketua"},
		{Source: model.SourceMemberDues, Amount: dec("50000"), Description: "kas", Member: "Budi - Ketua"},
		{Source: model.SourceMemberDues, Amount: dec("50000"), Description: "Kas", Member: "Budi"},
	} {
		err := c.DeleteTransaction(sess, m)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, orig, c.Transactions())
	assert.Zero(t, st.saves)
}

func TestAddMember(t *testing.T) {
	st := &memStore{}
	c := newController(t, st, nil)
	sess := login(t, auth.UserTreasurer)

	m, err := c.AddMember(sess, MemberInput{Name: " Sari ", Contact: "sari@example.com"})
	require.NoError(t, err)
	assert.Equal(t, model.Member{Name: "Sari", Position: model.DefaultPosition, Contact: "sari@example.com"}, m)

	_, err = c.AddMember(sess, MemberInput{Name: "Budi", Position: "Sekretaris", Contact: "0812"})
	require.NoError(t, err)
	assert.Len(t, st.members, 2)
	assert.Equal(t, 2, st.saves)
}

func TestAddMemberValidation(t *testing.T) {
	st := &memStore{}
	c := newController(t, st, nil)
	sess := login(t, auth.UserTreasurer)

	_, err := c.AddMember(sess, MemberInput{Name: "", Position: "Raja", Contact: " "})
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.ErrorIs(t, err, ErrContactRequired)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, c.Members())
	assert.Zero(t, st.saves)
}

func TestDeleteMember(t *testing.T) {
	members := []model.Member{
		{Name: "A", Position: "Ketua", Contact: "1"},
		{Name: "B", Position: "Anggota", Contact: "2"},
		{Name: "C", Position: "Anggota", Contact: "3"},
	}
	st := &memStore{members: members}
	c := newController(t, st, nil)
	sess := login(t, auth.UserTreasurer)

	removed, err := c.DeleteMember(sess, 1)
	require.NoError(t, err)
	assert.Equal(t, "B", removed.Name)
	assert.Equal(t, []model.Member{members[0], members[2]}, c.Members())

	for _, idx := range []int{-1, 2, 99} {
		_, err := c.DeleteMember(sess, idx)
		assert.ErrorIs(t, err, ErrNotFound, fmt.Sprint(idx))
	}
	assert.Len(t, c.Members(), 2)
	assert.Equal(t, 1, st.saves)
}

func TestSaveFailureKeepsInMemoryChange(t *testing.T) {
	st := &memStore{saveErr: fmt.Errorf("%w: disk full", store.ErrPersistence)}
	mirror := &recordingMirror{}
	c := newController(t, st, mirror)

	_, err := c.AddTransaction(login(t, auth.UserTreasurer), TransactionInput{Source: model.SourceProposal, Amount: dec("10")})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Len(t, c.Transactions(), 1)
	assert.Zero(t, mirror.syncs)
}

func TestMirrorFailureDoesNotFailMutation(t *testing.T) {
	st := &memStore{}
	mirror := &recordingMirror{err: errors.New("database is locked")}
	c := newController(t, st, mirror)

	_, err := c.AddMember(login(t, auth.UserTreasurer), MemberInput{Name: "Sari", Contact: "1"})
	require.NoError(t, err)
	assert.Equal(t, 1, mirror.syncs)
	assert.Len(t, st.members, 1)
}

func TestAccessorsReturnCopies(t *testing.T) {
	st := &memStore{members: []model.Member{{Name: "A", Position: "Ketua", Contact: "1"}}}
	c := newController(t, st, nil)

	got := c.Members()
	got[0].Name = "changed"
	assert.Equal(t, "A", c.Members()[0].Name)
}

func TestReloadSoftFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, store.TransactionsFile),
		[]byte("source,amount,date,description,member\nProposal,abc,2024-01-01,,-\n"), 0o600))

	c := New(store.NewCSV(dir), Options{Location: jakarta})
	warnings := c.Reload()
	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0], ErrPersistence)
	assert.Empty(t, c.Transactions())
	assert.Len(t, c.Warnings(), 1)
}

func TestCSVRoundTripThroughController(t *testing.T) {
	dir := t.TempDir()
	c := New(store.NewCSV(dir), Options{Location: jakarta, Now: func() time.Time { return fixedNow }})
	c.Reload()
	sess := login(t, auth.UserTreasurer)

	_, err := c.AddTransaction(sess, TransactionInput{Source: model.SourceSponsorship, Amount: dec("250000"), Member: "Toko Maju"})
	require.NoError(t, err)
	_, err = c.AddMember(sess, MemberInput{Name: "Sari", Position: "Bendahara", Contact: "0813"})
	require.NoError(t, err)

	fresh := New(store.NewCSV(dir), Options{Location: jakarta})
	require.Empty(t, fresh.Reload())
	assert.Equal(t, c.Members(), fresh.Members())
	require.Len(t, fresh.Transactions(), 1)
	assert.True(t, fresh.Transactions()[0].Amount.Equal(dec("250000")))
	assert.True(t, fresh.Transactions()[0].Date.Equal(fixedNow))
}

func TestExport(t *testing.T) {
	st := &memStore{txs: []model.Transaction{
		{Source: model.SourceMemberDues, Amount: dec("50000"), Date: time.Date(2024, 1, 15, 3, 4, 5, 0, time.UTC), Description: "Kas Januari", Member: "Budi - Ketua"},
		{Source: model.SourceSponsorship, Amount: dec("250000"), Date: time.Date(2024, 2, 1, 20, 0, 0, 0, time.UTC), Description: "", Member: "Toko Maju"},
	}}
	c := newController(t, st, nil)

	var buf bytes.Buffer
	name, err := c.Export(login(t, auth.UserTreasurer), &buf)
	require.NoError(t, err)
	assert.Equal(t, "Transaksi_terakhir_2024-03-10.csv", name)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"date", "source", "amount", "description", "member_name", "member_role"},
		{"2024-02-02 03:00:00", "Sponsor/Media", "250000", "", "Toko Maju", ""},
		{"2024-01-15 10:04:05", "Kas Anggota", "50000", "Kas Januari", "Budi", "Ketua"},
	}, records)
}

func TestExportFilenameUsesLocalDate(t *testing.T) {
	// 18:00 UTC on the 9th is already the 10th in Jakarta.
	assert.Equal(t, "Transaksi_terakhir_2024-03-10.csv",
		ExportFilename(time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC), jakarta))
}

func TestExportFile(t *testing.T) {
	st := &memStore{txs: []model.Transaction{
		{Source: model.SourceProposal, Amount: dec("100000"), Date: fixedNow, Member: "-"},
	}}
	c := newController(t, st, nil)
	dir := filepath.Join(t.TempDir(), "out")

	_, err := c.ExportFile(login(t, auth.UserMember), dir)
	require.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.NoDirExists(t, dir)

	path, err := c.ExportFile(login(t, auth.UserTreasurer), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Transaksi_terakhir_2024-03-10.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Proposal,100000")
}
