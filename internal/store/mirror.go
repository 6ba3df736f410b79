package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/kasboard/internal/model"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // register sqlite driver
)

// Mirror keeps a SQLite copy of the CSV data. The CSV files stay the
// source of truth; the mirror is rebuilt in full on every Sync.
type Mirror struct {
	db *sql.DB
}

// SyncState describes the last successful Sync.
type SyncState struct {
	SyncedAt    time.Time
	TxCount     int
	MemberCount int
}

// OpenMirror opens or creates the mirror database at dbPath.
func OpenMirror(dbPath string) (*Mirror, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating mirror dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening mirror db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Mirror{db: db}, nil
}

// Close closes the mirror database.
func (m *Mirror) Close() error {
	return m.db.Close()
}

// Sync replaces the mirrored tables with the given lists in one transaction.
func (m *Mirror) Sync(txs []model.Transaction, members []model.Member) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM transactions"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM members"); err != nil {
		return err
	}

	txStmt, err := tx.Prepare(`INSERT INTO transactions
		(position, source, amount, amount_num, date_utc, month, description, member)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = txStmt.Close() }()

	for i, t := range txs {
		_, err = txStmt.Exec(i, string(t.Source), t.Amount.String(), t.Amount.InexactFloat64(),
			FormatTimestamp(t.Date), t.Date.UTC().Format("2006-01"), t.Description, t.Member)
		if err != nil {
			return err
		}
	}

	memStmt, err := tx.Prepare(`INSERT INTO members (position, name, title, contact) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = memStmt.Close() }()

	for i, mem := range members {
		if _, err := memStmt.Exec(i, mem.Name, string(mem.Position), mem.Contact); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO sync_state (id, synced_at, tx_count, member_count)
		VALUES (1, ?, ?, ?)`, time.Now().UTC().Format(time.RFC3339), len(txs), len(members))
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Totals sums mirrored amounts per source. Amounts are stored as exact
// decimal text and summed in Go so no float rounding creeps in.
func (m *Mirror) Totals() (map[model.Source]decimal.Decimal, error) {
	rows, err := m.db.Query("SELECT source, amount FROM transactions")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	totals := make(map[model.Source]decimal.Decimal)
	for rows.Next() {
		var src, amt string
		if err := rows.Scan(&src, &amt); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amt)
		if err != nil {
			return nil, fmt.Errorf("mirror amount %q: %w", amt, err)
		}
		totals[model.Source(src)] = totals[model.Source(src)].Add(d)
	}
	return totals, rows.Err()
}

// MonthlyCounts returns the number of mirrored transactions per month.
func (m *Mirror) MonthlyCounts() (map[string]int, error) {
	rows, err := m.db.Query("SELECT month, COUNT(*) FROM transactions GROUP BY month")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var month string
		var n int
		if err := rows.Scan(&month, &n); err != nil {
			return nil, err
		}
		counts[month] = n
	}
	return counts, rows.Err()
}

// State returns the last sync record, or a zero SyncState if never synced.
func (m *Mirror) State() (SyncState, error) {
	var st SyncState
	var syncedAt string
	err := m.db.QueryRow("SELECT synced_at, tx_count, member_count FROM sync_state WHERE id = 1").
		Scan(&syncedAt, &st.TxCount, &st.MemberCount)
	if err == sql.ErrNoRows {
		return SyncState{}, nil
	}
	if err != nil {
		return SyncState{}, err
	}
	st.SyncedAt, _ = time.Parse(time.RFC3339, syncedAt)
	return st, nil
}
