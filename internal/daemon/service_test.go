package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/dashboard"
	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/store"

	"github.com/shopspring/decimal"
)

var wib = time.FixedZone("WIB", 7*60*60)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	ctrl := dashboard.New(store.NewCSV(dir), dashboard.Options{
		Location: wib,
		Now:      func() time.Time { return time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC) },
	})
	ctrl.Reload()
	gate := auth.NewGate(auth.DefaultUsers("kunci-bendahara", "kunci-anggota"))
	return New(Config{DataDir: dir, Interval: time.Hour, EventsBuffer: 50}, ctrl, gate, nil), dir
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Transactions: 3, Members: 2, Total: decimal.NewFromInt(180000)}
	curr := Snapshot{Transactions: 4, Members: 2, Total: decimal.NewFromInt(230000)}

	delta := diffSnapshots(prev, curr)
	if delta.Transactions != 1 {
		t.Fatalf("Transactions delta = %d, want 1", delta.Transactions)
	}
	if delta.Members != 0 {
		t.Fatalf("Members delta = %d, want 0", delta.Members)
	}
	if !delta.Total.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("Total delta = %s, want 50000", delta.Total)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots should have a zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s, _ := newTestService(t)
	s.cfg.EventsBuffer = 2

	s.publishEvent(Event{ID: 101})
	s.publishEvent(Event{ID: 102})
	s.publishEvent(Event{ID: 103})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 102 || s.events[1].ID != 103 {
		t.Fatalf("events ring contains IDs [%d, %d], want [102, 103]", s.events[0].ID, s.events[1].ID)
	}
}

func TestNewPublishesStartupSnapshot(t *testing.T) {
	s, _ := newTestService(t)
	st := s.snapshotStatus()
	if st.EventCount != 1 {
		t.Fatalf("event count = %d, want 1", st.EventCount)
	}
	if st.Summary.Transactions != 0 {
		t.Fatalf("transactions = %d, want 0", st.Summary.Transactions)
	}
}

func TestPollDetectsExternalWrite(t *testing.T) {
	s, dir := newTestService(t)

	if s.pollOnce() {
		t.Fatal("poll reported a change with untouched files")
	}

	other := store.NewCSV(dir)
	txs := []model.Transaction{{
		Source: model.SourceProposal,
		Amount: decimal.NewFromInt(100000),
		Date:   time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		Member: model.ProposalPlaceholder,
	}}
	if err := other.Save(txs, nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	if !s.pollOnce() {
		t.Fatal("poll missed the external write")
	}
	st := s.snapshotStatus()
	if st.Summary.Transactions != 1 {
		t.Fatalf("transactions after reload = %d, want 1", st.Summary.Transactions)
	}
	if !st.Summary.BySource[model.SourceProposal].Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("proposal total = %s", st.Summary.BySource[model.SourceProposal])
	}
	if st.EventCount != 2 {
		t.Fatalf("event count = %d, want 2", st.EventCount)
	}
	if st.PollCount != 2 {
		t.Fatalf("poll count = %d, want 2", st.PollCount)
	}
}

func TestPollReportsLoadWarnings(t *testing.T) {
	s, dir := newTestService(t)
	bad := "source,amount,date,description,member\nProposal,abc,2024-01-01,,-\n"
	if err := os.WriteFile(filepath.Join(dir, store.TransactionsFile), []byte(bad), 0o600); err != nil {
		t.Fatal(err)
	}

	s.pollOnce()
	if got := len(s.snapshotStatus().Warnings); got != 1 {
		t.Fatalf("warnings = %d, want 1", got)
	}
}
