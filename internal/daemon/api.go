package daemon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/dashboard"
	"github.com/theirongolddev/kasboard/internal/log"
	"github.com/theirongolddev/kasboard/internal/model"
	"github.com/theirongolddev/kasboard/internal/pipeline"

	"github.com/shopspring/decimal"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)

	mux.HandleFunc("GET /v1/summary", s.handleSummary)
	mux.HandleFunc("GET /v1/monthly", s.handleMonthly)
	mux.HandleFunc("GET /v1/distribution", s.handleDistribution)
	mux.HandleFunc("GET /v1/transactions", s.handleTransactions)
	mux.HandleFunc("GET /v1/members", s.handleMembers)

	mux.HandleFunc("POST /v1/transactions", s.withSession(auth.ActionAddTransaction, s.handleAddTransaction))
	mux.HandleFunc("POST /v1/transactions/delete", s.withSession(auth.ActionDeleteTransaction, s.handleDeleteTransaction))
	mux.HandleFunc("POST /v1/members", s.withSession(auth.ActionAddMember, s.handleAddMember))
	mux.HandleFunc("DELETE /v1/members/{index}", s.withSession(auth.ActionDeleteMember, s.handleDeleteMember))
	mux.HandleFunc("GET /v1/export", s.withSession(auth.ActionExport, s.handleExport))

	return s.withRequestLog(mux)
}

// Response bodies.
type (
	transactionJSON struct {
		Source      model.Source    `json:"source"`
		Amount      decimal.Decimal `json:"amount"`
		Date        time.Time       `json:"date"`
		Description string          `json:"description"`
		Member      string          `json:"member"`
		MemberName  string          `json:"member_name"`
		MemberRole  string          `json:"member_role"`
	}

	memberJSON struct {
		Index    int            `json:"index"`
		Name     string         `json:"name"`
		Position model.Position `json:"position"`
		Contact  string         `json:"contact"`
	}

	sourceAmountJSON struct {
		Source  model.Source    `json:"source"`
		Amount  decimal.Decimal `json:"amount"`
		Percent float64         `json:"percent,omitempty"`
	}

	summaryJSON struct {
		Total        decimal.Decimal    `json:"total"`
		Count        int                `json:"count"`
		MemberCount  int                `json:"member_count"`
		BySource     []sourceAmountJSON `json:"by_source"`
		FirstDate    *time.Time         `json:"first_date,omitempty"`
		LastDate     *time.Time         `json:"last_date,omitempty"`
		CurrentMonth decimal.Decimal    `json:"current_month"`
		Recent       []transactionJSON  `json:"recent"`
		Warnings     []string           `json:"warnings,omitempty"`
	}

	monthlyJSON struct {
		Month  string          `json:"month"`
		Source model.Source    `json:"source"`
		Amount decimal.Decimal `json:"amount"`
	}

	errorJSON struct {
		Error     string `json:"error"`
		RequestID string `json:"request_id,omitempty"`
	}
)

// Request bodies.
type (
	addTransactionRequest struct {
		Source      string          `json:"source"`
		Amount      decimal.Decimal `json:"amount"`
		Date        string          `json:"date"` // YYYY-MM-DD, empty means today
		Description string          `json:"description"`
		Member      string          `json:"member"`
	}

	deleteTransactionRequest struct {
		Source      string          `json:"source"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Member      string          `json:"member"`
	}

	addMemberRequest struct {
		Name     string `json:"name"`
		Position string `json:"position"`
		Contact  string `json:"contact"`
	}
)

func toTransactionJSON(row model.TransactionRow) transactionJSON {
	return transactionJSON{
		Source:      row.Source,
		Amount:      row.Amount,
		Date:        row.Date,
		Description: row.Description,
		Member:      row.Member,
		MemberName:  row.MemberName,
		MemberRole:  row.MemberRole,
	}
}

func rowsJSON(txs []model.Transaction) []transactionJSON {
	rows := pipeline.AllTransactionsSorted(txs)
	out := make([]transactionJSON, len(rows))
	for i, r := range rows {
		out[i] = toTransactionJSON(r)
	}
	return out
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleSummary(w http.ResponseWriter, _ *http.Request) {
	txs := s.ctrl.Transactions()
	sum := pipeline.Summarize(txs, s.ctrl.Members())

	out := summaryJSON{
		Total:        sum.Total,
		Count:        sum.Count,
		MemberCount:  sum.MemberCount,
		CurrentMonth: sum.CurrentMonth,
		Recent:       rowsJSON(pipeline.RecentTransactions(txs, s.cfg.RecentLimit)),
	}
	for _, st := range sum.BySource {
		out.BySource = append(out.BySource, sourceAmountJSON{Source: st.Source, Amount: st.Amount})
	}
	if !sum.FirstDate.IsZero() {
		out.FirstDate, out.LastDate = &sum.FirstDate, &sum.LastDate
	}
	for _, warn := range s.ctrl.Warnings() {
		out.Warnings = append(out.Warnings, warn.Error())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleMonthly(w http.ResponseWriter, _ *http.Request) {
	series := pipeline.MonthlySeries(s.ctrl.Transactions())
	out := make([]monthlyJSON, len(series))
	for i, row := range series {
		out[i] = monthlyJSON{Month: row.Month, Source: row.Source, Amount: row.Amount}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleDistribution(w http.ResponseWriter, _ *http.Request) {
	shares := pipeline.DistributionBySource(s.ctrl.Transactions())
	out := make([]sourceAmountJSON, len(shares))
	for i, sh := range shares {
		out[i] = sourceAmountJSON{Source: sh.Source, Amount: sh.Amount, Percent: sh.Percent}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs := s.ctrl.Transactions()
	if raw := r.URL.Query().Get("source"); raw != "" {
		src, ok := model.ParseSource(raw)
		if !ok {
			s.writeError(w, r, fmt.Errorf("source %q: %w", raw, dashboard.ErrInvalidSource))
			return
		}
		txs = pipeline.FilterBySource(txs, src)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, fmt.Errorf("limit %q: %w", raw, dashboard.ErrValidation))
			return
		}
		txs = pipeline.RecentTransactions(txs, n)
	}
	writeJSON(w, http.StatusOK, rowsJSON(txs))
}

func (s *Service) handleMembers(w http.ResponseWriter, _ *http.Request) {
	members := s.ctrl.Members()
	out := make([]memberJSON, len(members))
	for i, m := range members {
		out[i] = memberJSON{Index: i, Name: m.Name, Position: m.Position, Contact: m.Contact}
	}
	writeJSON(w, http.StatusOK, out)
}

// sessionHandler is a handler that runs with a logged-in session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *auth.Session)

// withSession logs in from HTTP Basic credentials into a session that
// lives for this request only, and rejects sessions that may not perform
// action before the body is read.
func (s *Service) withSession(action auth.Action, next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sess auth.Session
		user, pass, ok := r.BasicAuth()
		if !ok {
			s.writeError(w, r, auth.ErrNotAuthenticated)
			return
		}
		if err := s.gate.Login(&sess, user, pass); err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).Warn("login failed",
				log.FieldOperation, log.OpLogin, log.FieldUser, user)
			s.writeError(w, r, err)
			return
		}
		if err := sess.Require(action); err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r, &sess)
	}
}

func (s *Service) handleAddTransaction(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	var req addTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	src, ok := model.ParseSource(req.Source)
	if !ok {
		s.writeError(w, r, fmt.Errorf("source %q: %w", req.Source, dashboard.ErrInvalidSource))
		return
	}
	var day time.Time
	if req.Date != "" {
		d, err := time.ParseInLocation("2006-01-02", req.Date, s.ctrl.Location())
		if err != nil {
			s.writeError(w, r, fmt.Errorf("date %q: %w", req.Date, dashboard.ErrValidation))
			return
		}
		day = d
	}

	tx, err := s.ctrl.AddTransaction(sess, dashboard.TransactionInput{
		Source:      src,
		Amount:      req.Amount,
		Date:        day,
		Description: req.Description,
		Member:      req.Member,
	})
	if err != nil {
		s.afterMutationError(err)
		s.writeError(w, r, err)
		return
	}
	s.afterMutation()

	name, role := model.SplitMember(tx.Member)
	writeJSON(w, http.StatusCreated, toTransactionJSON(model.TransactionRow{Transaction: tx, MemberName: name, MemberRole: role}))
}

func (s *Service) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	var req deleteTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	src, ok := model.ParseSource(req.Source)
	if !ok {
		s.writeError(w, r, fmt.Errorf("source %q: %w", req.Source, dashboard.ErrInvalidSource))
		return
	}

	err := s.ctrl.DeleteTransaction(sess, dashboard.Match{
		Source:      src,
		Amount:      req.Amount,
		Description: req.Description,
		Member:      req.Member,
	})
	if err != nil {
		s.afterMutationError(err)
		s.writeError(w, r, err)
		return
	}
	s.afterMutation()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleAddMember(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.ctrl.AddMember(sess, dashboard.MemberInput{
		Name:     req.Name,
		Position: model.Position(req.Position),
		Contact:  req.Contact,
	})
	if err != nil {
		s.afterMutationError(err)
		s.writeError(w, r, err)
		return
	}
	s.afterMutation()
	writeJSON(w, http.StatusCreated, memberJSON{Index: len(s.ctrl.Members()) - 1, Name: m.Name, Position: m.Position, Contact: m.Contact})
}

// handleDeleteMember takes the zero-based index shown by GET /v1/members.
func (s *Service) handleDeleteMember(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	raw := r.PathValue("index")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("member index %q: %w", raw, dashboard.ErrNotFound))
		return
	}

	if _, err := s.ctrl.DeleteMember(sess, idx); err != nil {
		s.afterMutationError(err)
		s.writeError(w, r, err)
		return
	}
	s.afterMutation()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleExport(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	var buf bytes.Buffer
	name, err := s.ctrl.Export(sess, &buf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(buf.Bytes())
}

// afterMutation publishes the change and stops the watcher from seeing
// our own write as an external one.
func (s *Service) afterMutation() {
	s.markWritten()
	s.refresh(EventDataChanged, "mutation", true)
}

// afterMutationError handles a mutation whose in-memory change stuck even
// though the save failed.
func (s *Service) afterMutationError(err error) {
	if errors.Is(err, dashboard.ErrPersistence) {
		s.refresh(EventDataChanged, "unsaved_mutation", true)
	}
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding request body: %w", dashboard.ErrValidation, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrNotAuthenticated), errors.Is(err, auth.ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Basic realm="kasboard"`)
	}
	if status >= 500 {
		log.FromContext(r.Context()).Error("request failed", log.FieldError, err)
	}
	writeJSON(w, status, errorJSON{Error: err.Error(), RequestID: w.Header().Get(RequestIDHeader)})
}
