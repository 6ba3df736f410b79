// Package daemon serves the dashboard over HTTP and watches the data files
// for changes made by other processes.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/dashboard"
	"github.com/theirongolddev/kasboard/internal/log"
	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/pipeline"
	"github.com/theirongolddev/kasboard/internal/store"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir      string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	RecentLimit  int
}

// Snapshot is a compact data state for status/event payloads.
type Snapshot struct {
	At              time.Time                        `json:"at"`
	Transactions    int                              `json:"transactions"`
	Members         int                              `json:"members"`
	Total           decimal.Decimal                  `json:"total"`
	BySource        map[model.Source]decimal.Decimal `json:"by_source"`
	LastTransaction time.Time                        `json:"last_transaction"`
}

// Delta captures snapshot deltas between refreshes.
type Delta struct {
	Transactions int             `json:"transactions"`
	Members      int             `json:"members"`
	Total        decimal.Decimal `json:"total"`
}

func (d Delta) isZero() bool {
	return d.Transactions == 0 && d.Members == 0 && d.Total.IsZero()
}

// Event is emitted whenever the data changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Event types.
const (
	EventSnapshot    = "snapshot"
	EventDataChanged = "data_changed"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataDir         string    `json:"data_dir"`
	Summary         Snapshot  `json:"summary"`
	Warnings        []string  `json:"warnings,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

type fileState struct {
	exists  bool
	size    int64
	modTime int64 // unix nanoseconds
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	ctrl   *dashboard.Controller
	gate   *auth.Gate
	logger *log.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	hasSnapshot bool
	snapshot    Snapshot
	files       [2]fileState
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service over ctrl. The controller should already
// have been loaded.
func New(cfg Config, ctrl *dashboard.Controller, gate *auth.Gate, logger *log.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.RecentLimit < 1 {
		cfg.RecentLimit = pipeline.DefaultRecentLimit
	}
	if logger == nil {
		logger = log.Discard()
	}

	s := &Service{
		cfg:       cfg,
		ctrl:      ctrl,
		gate:      gate,
		logger:    logger.WithComponent(log.ComponentHTTP),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	s.files = s.statFiles()
	s.refresh(EventSnapshot, "startup", false)
	return s
}

// Run serves HTTP and watches the data files until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.watch(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// refresh recomputes the snapshot from the controller and publishes an
// event when it differs from the previous one. The first call and forced
// calls always publish.
func (s *Service) refresh(eventType, reason string, force bool) {
	now := time.Now()
	snap := snapshotOf(s.ctrl.Transactions(), s.ctrl.Members(), now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot
	s.hasSnapshot = true
	s.snapshot = snap

	delta := diffSnapshots(prev, snap)
	if force || !prevExists || !delta.isZero() {
		if !prevExists {
			delta = Delta{}
		}
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      eventType,
			Reason:    reason,
			Timestamp: now,
			Snapshot:  snap,
			Delta:     delta,
		}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func snapshotOf(txs []model.Transaction, members []model.Member, at time.Time) Snapshot {
	sum := pipeline.Summarize(txs, members)
	snap := Snapshot{
		At:              at,
		Transactions:    sum.Count,
		Members:         sum.MemberCount,
		Total:           sum.Total,
		BySource:        make(map[model.Source]decimal.Decimal, len(sum.BySource)),
		LastTransaction: sum.LastDate,
	}
	for _, st := range sum.BySource {
		snap.BySource[st.Source] = st.Amount
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Transactions: curr.Transactions - prev.Transactions,
		Members:      curr.Members - prev.Members,
		Total:        curr.Total.Sub(prev.Total),
	}
}

func (s *Service) dataFiles() [2]string {
	return [2]string{
		filepath.Join(s.cfg.DataDir, store.TransactionsFile),
		filepath.Join(s.cfg.DataDir, store.MembersFile),
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	warnings := s.ctrl.Warnings()

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		Summary:         s.snapshot,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	for _, w := range warnings {
		st.Warnings = append(st.Warnings, w.Error())
	}
	return st
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
