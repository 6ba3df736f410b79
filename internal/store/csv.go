// Package store persists transactions and members as CSV files, with an
// optional SQLite mirror for ad-hoc queries.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/kasboard/internal/model"

	"github.com/shopspring/decimal"
)

// ErrPersistence marks I/O and parse failures on the data files.
var ErrPersistence = errors.New("persistence error")

// File names inside the data directory.
const (
	TransactionsFile = "transactions.csv"
	MembersFile      = "members.csv"
)

var (
	transactionHeader = []string{"source", "amount", "date", "description", "member"}
	memberHeader      = []string{"name", "position", "contact"}
)

// CSV reads and writes the two data files under a single directory.
type CSV struct {
	dir string
}

// LoadResult holds whatever could be read, plus soft-fail warnings.
type LoadResult struct {
	Transactions []model.Transaction
	Members      []model.Member
	Warnings     []error
}

// NewCSV returns a store rooted at dir. The directory is created on first save.
func NewCSV(dir string) *CSV {
	return &CSV{dir: dir}
}

// Dir returns the data directory.
func (c *CSV) Dir() string { return c.dir }

// TransactionsPath returns the full path of transactions.csv.
func (c *CSV) TransactionsPath() string { return filepath.Join(c.dir, TransactionsFile) }

// MembersPath returns the full path of members.csv.
func (c *CSV) MembersPath() string { return filepath.Join(c.dir, MembersFile) }

// Load reads both files. A missing file is an empty list. A file that fails
// to read or parse also yields an empty list, with the failure recorded in
// Warnings instead of being returned.
func (c *CSV) Load() LoadResult {
	var res LoadResult

	txs, err := readTransactions(c.TransactionsPath())
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Errorf("%w: loading transactions: %w", ErrPersistence, err))
		txs = nil
	}
	res.Transactions = txs

	members, err := readMembers(c.MembersPath())
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Errorf("%w: loading members: %w", ErrPersistence, err))
		members = nil
	}
	res.Members = members

	return res
}

// Save overwrites both files with the given lists.
func (c *CSV) Save(txs []model.Transaction, members []model.Member) error {
	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return fmt.Errorf("%w: creating data dir: %w", ErrPersistence, err)
	}

	var errs []error
	if err := writeAtomic(c.TransactionsPath(), func(w io.Writer) error {
		return encodeTransactions(w, txs)
	}); err != nil {
		errs = append(errs, fmt.Errorf("%w: saving transactions: %w", ErrPersistence, err))
	}
	if err := writeAtomic(c.MembersPath(), func(w io.Writer) error {
		return encodeMembers(w, members)
	}); err != nil {
		errs = append(errs, fmt.Errorf("%w: saving members: %w", ErrPersistence, err))
	}
	return errors.Join(errs...)
}

func encodeTransactions(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionHeader); err != nil {
		return err
	}
	for _, tx := range txs {
		rec := []string{
			string(tx.Source),
			tx.Amount.String(),
			FormatTimestamp(tx.Date),
			tx.Description,
			tx.Member,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeMembers(w io.Writer, members []model.Member) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(memberHeader); err != nil {
		return err
	}
	for _, m := range members {
		if err := cw.Write([]string{m.Name, string(m.Position), m.Contact}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readTransactions(path string) ([]model.Transaction, error) {
	rows, cols, err := readTable(path, "source", "amount", "date")
	if err != nil || rows == nil {
		return nil, err
	}

	txs := make([]model.Transaction, 0, len(rows))
	for i, row := range rows {
		line := i + 2 // header is line 1
		src, ok := model.ParseSource(cols.get(row, "source"))
		if !ok {
			return nil, fmt.Errorf("line %d: unknown source %q", line, cols.get(row, "source"))
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(cols.get(row, "amount")))
		if err != nil {
			return nil, fmt.Errorf("line %d: amount: %w", line, err)
		}
		date, err := ParseTimestamp(cols.get(row, "date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, model.Transaction{
			Source:      src,
			Amount:      amount,
			Date:        date,
			Description: cols.get(row, "description"),
			Member:      cols.get(row, "member"),
		})
	}
	return txs, nil
}

func readMembers(path string) ([]model.Member, error) {
	rows, cols, err := readTable(path, "name", "position", "contact")
	if err != nil || rows == nil {
		return nil, err
	}

	members := make([]model.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, model.Member{
			Name:     cols.get(row, "name"),
			Position: model.Position(cols.get(row, "position")),
			Contact:  cols.get(row, "contact"),
		})
	}
	return members, nil
}

// columns maps header names to record indexes.
type columns map[string]int

func (c columns) get(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// readTable reads a headed CSV file. It returns nil rows without error when
// the file does not exist or is empty.
func readTable(path string, required ...string) ([][]string, columns, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from the configured data dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	cols := make(columns, len(records[0]))
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}
	return records[1:], cols, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without an offset
// are taken as UTC. The result is always in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatTimestamp renders t as an RFC 3339 UTC string.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// writeAtomic writes to a temp file next to path and renames it into place,
// so readers never see a half-written file.
func writeAtomic(path string, fill func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = fill(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp, 0o640); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
