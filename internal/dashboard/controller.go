// Package dashboard applies gated mutations to the transaction and member
// lists and persists them.
package dashboard

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/log"
	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/store"

	"github.com/shopspring/decimal"
)

// Store loads and saves both lists. *store.CSV satisfies it.
type Store interface {
	Load() store.LoadResult
	Save(txs []model.Transaction, members []model.Member) error
}

// Syncer receives a copy of both lists after every successful save.
// *store.Mirror satisfies it.
type Syncer interface {
	Sync(txs []model.Transaction, members []model.Member) error
}

// Options configures a Controller. Zero values get sensible defaults.
type Options struct {
	Mirror   Syncer
	Location *time.Location
	Now      func() time.Time
	Logger   *log.Logger
}

// TransactionInput is what the user enters to record income. Only the
// year, month and day of Date are used; the time of day comes from the
// clock. A zero Date means today.
type TransactionInput struct {
	Source      model.Source
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Member      string
}

// Match identifies a transaction to delete.
type Match struct {
	Source      model.Source
	Amount      decimal.Decimal
	Description string
	Member      string
}

// MatchOf returns the Match that selects tx.
func MatchOf(tx model.Transaction) Match {
	return Match{Source: tx.Source, Amount: tx.Amount, Description: tx.Description, Member: tx.Member}
}

// MemberInput is what the user enters to add a member. An empty Position
// means model.DefaultPosition.
type MemberInput struct {
	Name     string
	Position model.Position
	Contact  string
}

// Controller holds the in-memory lists for one data directory.
type Controller struct {
	mu       sync.Mutex
	store    Store
	mirror   Syncer
	loc      *time.Location
	now      func() time.Time
	logger   *log.Logger
	txs      []model.Transaction
	members  []model.Member
	warnings []error
	loadedAt time.Time
}

// New returns a controller over st. Call Reload to read existing data.
func New(st Store, opts Options) *Controller {
	c := &Controller{
		store:  st,
		mirror: opts.Mirror,
		loc:    opts.Location,
		now:    opts.Now,
		logger: opts.Logger,
	}
	if c.loc == nil {
		c.loc = time.FixedZone("WIB", 7*60*60)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = log.Discard()
	}
	c.logger = c.logger.WithComponent(log.ComponentDashboard)
	return c
}

// Reload replaces the in-memory lists with what is on disk. Unreadable
// files come back as empty lists; the reasons are returned as warnings.
func (c *Controller) Reload() []error {
	res := c.store.Load()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs = res.Transactions
	c.members = res.Members
	c.warnings = res.Warnings
	c.loadedAt = c.now()

	for _, w := range res.Warnings {
		c.logger.Warn("load degraded to empty list", log.FieldOperation, log.OpLoad, log.FieldError, w)
	}
	c.logger.Debug("loaded",
		log.FieldOperation, log.OpLoad,
		"transactions", len(res.Transactions),
		"members", len(res.Members))
	return slices.Clone(res.Warnings)
}

// Transactions returns a copy of the transaction list in stored order.
func (c *Controller) Transactions() []model.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.txs)
}

// Members returns a copy of the member list in stored order.
func (c *Controller) Members() []model.Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.members)
}

// Warnings returns the warnings from the most recent Reload.
func (c *Controller) Warnings() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.warnings)
}

// LoadedAt returns when Reload last ran.
func (c *Controller) LoadedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadedAt
}

// Location returns the display timezone.
func (c *Controller) Location() *time.Location { return c.loc }

// Now returns the controller clock in the display timezone.
func (c *Controller) Now() time.Time { return c.now().In(c.loc) }

// AddTransaction validates in, appends it and saves. The stored date is
// the chosen calendar day at the current wall-clock time in the display
// timezone, converted to UTC.
func (c *Controller) AddTransaction(sess *auth.Session, in TransactionInput) (model.Transaction, error) {
	if err := sess.Require(auth.ActionAddTransaction); err != nil {
		return model.Transaction{}, err
	}

	tx, err := c.buildTransaction(in)
	if err != nil {
		return model.Transaction{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs = append(c.txs, tx)
	c.logger.Info("transaction added",
		log.FieldOperation, log.OpCreate,
		log.FieldUser, sess.Username(),
		log.FieldSource, string(tx.Source),
		log.FieldAmount, tx.Amount.String())
	return tx, c.saveLocked()
}

func (c *Controller) buildTransaction(in TransactionInput) (model.Transaction, error) {
	if in.Source.Index() == len(model.Sources) {
		return model.Transaction{}, fmt.Errorf("%q: %w", in.Source, ErrInvalidSource)
	}
	if !in.Amount.IsPositive() {
		return model.Transaction{}, fmt.Errorf("%s: %w", in.Amount, ErrInvalidAmount)
	}

	member := strings.TrimSpace(in.Member)
	switch {
	case !in.Source.RequiresMember():
		member = model.ProposalPlaceholder
	case member == "":
		return model.Transaction{}, fmt.Errorf("%s: %w", in.Source, ErrMemberRequired)
	}

	return model.Transaction{
		Source:      in.Source,
		Amount:      in.Amount,
		Date:        c.stamp(in.Date),
		Description: strings.TrimSpace(in.Description),
		Member:      member,
	}, nil
}

// stamp combines day's calendar date with the current local time of day.
func (c *Controller) stamp(day time.Time) time.Time {
	now := c.now().In(c.loc)
	if day.IsZero() {
		day = now
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), c.loc).UTC()
}

// DeleteTransaction removes the first transaction, in stored order, whose
// source, amount, description and member all equal m. Amounts compare
// numerically, so 50000 matches 50000.00. A blank member on a source that
// takes none matches the placeholder.
func (c *Controller) DeleteTransaction(sess *auth.Session, m Match) error {
	if err := sess.Require(auth.ActionDeleteTransaction); err != nil {
		return err
	}
	if !m.Source.RequiresMember() && strings.TrimSpace(m.Member) == "" {
		m.Member = model.ProposalPlaceholder
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := slices.IndexFunc(c.txs, func(tx model.Transaction) bool {
		return tx.Source == m.Source &&
			tx.Amount.Equal(m.Amount) &&
			tx.Description == m.Description &&
			tx.Member == m.Member
	})
	if idx < 0 {
		return fmt.Errorf("transaction %s %s %q: %w", m.Source, m.Amount, m.Description, ErrNotFound)
	}

	c.txs = slices.Delete(c.txs, idx, idx+1)
	c.logger.Info("transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldUser, sess.Username(),
		log.FieldSource, string(m.Source),
		log.FieldAmount, m.Amount.String())
	return c.saveLocked()
}

// AddMember validates in, appends it to the roster and saves.
func (c *Controller) AddMember(sess *auth.Session, in MemberInput) (model.Member, error) {
	if err := sess.Require(auth.ActionAddMember); err != nil {
		return model.Member{}, err
	}

	m := model.Member{
		Name:     strings.TrimSpace(in.Name),
		Position: model.Position(strings.TrimSpace(string(in.Position))),
		Contact:  strings.TrimSpace(in.Contact),
	}
	if m.Position == "" {
		m.Position = model.DefaultPosition
	}

	var errs []error
	if m.Name == "" {
		errs = append(errs, ErrNameRequired)
	}
	if m.Contact == "" {
		errs = append(errs, ErrContactRequired)
	}
	if !model.ValidPosition(m.Position) {
		errs = append(errs, fmt.Errorf("%q: %w", m.Position, ErrInvalidPosition))
	}
	if len(errs) > 0 {
		return model.Member{}, errors.Join(errs...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.members = append(c.members, m)
	c.logger.Info("member added",
		log.FieldOperation, log.OpCreate,
		log.FieldUser, sess.Username(),
		"member", m.Label())
	return m, c.saveLocked()
}

// DeleteMember removes the member at the zero-based index.
func (c *Controller) DeleteMember(sess *auth.Session, index int) (model.Member, error) {
	if err := sess.Require(auth.ActionDeleteMember); err != nil {
		return model.Member{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.members) {
		return model.Member{}, fmt.Errorf("member index %d of %d: %w", index, len(c.members), ErrNotFound)
	}
	removed := c.members[index]
	c.members = slices.Delete(c.members, index, index+1)
	c.logger.Info("member deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldUser, sess.Username(),
		"member", removed.Label())
	return removed, c.saveLocked()
}

// saveLocked writes both lists. A failed save leaves the in-memory change
// in place. Mirror failures are logged and otherwise ignored.
func (c *Controller) saveLocked() error {
	if err := c.store.Save(c.txs, c.members); err != nil {
		c.logger.Error("save failed", log.FieldOperation, log.OpSave, log.FieldError, err)
		return err
	}
	if c.mirror != nil {
		if err := c.mirror.Sync(c.txs, c.members); err != nil {
			c.logger.Warn("mirror sync failed", log.FieldOperation, log.OpSync, log.FieldError, err)
		}
	}
	return nil
}
