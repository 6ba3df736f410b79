package daemon

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/theirongolddev/kasboard/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, path, body, user, pass string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.SetBasicAuth(user, pass)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func treasurer(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, method, path, body, "bendahara", "kunci-bendahara")
}

func TestHealthAndRequestID(t *testing.T) {
	s, _ := newTestService(t)
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s, _ := newTestService(t)
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
}

func TestAddTransactionFlow(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()

	rec := treasurer(t, h, http.MethodPost, "/v1/transactions",
		`{"source":"dues","amount":50000,"date":"2024-01-15","description":"Kas Januari","member":"Budi - Ketua"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created transactionJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, model.SourceMemberDues, created.Source)
	assert.Equal(t, "Budi", created.MemberName)
	assert.Equal(t, "Ketua", created.MemberRole)
	assert.Equal(t, "2024-01-15T02:00:00Z", created.Date.UTC().Format("2006-01-02T15:04:05Z07:00"))

	rec = treasurer(t, h, http.MethodPost, "/v1/transactions", `{"source":"proposal","amount":"100000","date":"2024-01-20"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/summary", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sum struct {
		Total    string `json:"total"`
		Count    int    `json:"count"`
		BySource []struct {
			Source string `json:"source"`
			Amount string `json:"amount"`
		} `json:"by_source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, "150000", sum.Total)
	assert.Equal(t, 2, sum.Count)
	require.Len(t, sum.BySource, 3)
	assert.Equal(t, "0", sum.BySource[2].Amount)

	rec = do(t, h, http.MethodGet, "/v1/monthly", "", "", "")
	var monthly []monthlyJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &monthly))
	require.Len(t, monthly, 2)
	assert.Equal(t, "2024-01", monthly[0].Month)

	rec = do(t, h, http.MethodGet, "/v1/transactions?limit=1", "", "", "")
	var list []transactionJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, model.SourceProposal, list[0].Source)

	assert.Equal(t, 3, s.snapshotStatus().EventCount)
}

func TestWriteRequiresTreasurer(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()
	body := `{"source":"proposal","amount":1}`

	rec := do(t, h, http.MethodPost, "/v1/transactions", body, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = do(t, h, http.MethodPost, "/v1/transactions", body, "bendahara", "salah")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/transactions", body, "anggota", "kunci-anggota")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Permission comes before validation.
	rec = do(t, h, http.MethodPost, "/v1/transactions", `{"source":"nope"}`, "anggota", "kunci-anggota")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/export", "", "anggota", "kunci-anggota")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Empty(t, s.ctrl.Transactions())
}

func TestValidationAndNotFound(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"zero amount", http.MethodPost, "/v1/transactions", `{"source":"proposal","amount":0}`, http.StatusBadRequest},
		{"missing member", http.MethodPost, "/v1/transactions", `{"source":"sponsor","amount":10}`, http.StatusBadRequest},
		{"bad source", http.MethodPost, "/v1/transactions", `{"source":"hibah","amount":10}`, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/v1/transactions", `{"source":"proposal","amount":10,"date":"15/01/2024"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/v1/transactions", `{"source":"proposal","amount":10,"extra":1}`, http.StatusBadRequest},
		{"delete missing tx", http.MethodPost, "/v1/transactions/delete", `{"source":"proposal","amount":10,"description":"","member":"-"}`, http.StatusNotFound},
		{"member missing contact", http.MethodPost, "/v1/members", `{"name":"Sari"}`, http.StatusBadRequest},
		{"member bad position", http.MethodPost, "/v1/members", `{"name":"Sari","contact":"1","position":"Raja"}`, http.StatusBadRequest},
		{"delete member out of range", http.MethodDelete, "/v1/members/0", "", http.StatusNotFound},
		{"delete member bad index", http.MethodDelete, "/v1/members/abc", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := treasurer(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())

			var body errorJSON
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestMemberLifecycle(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()

	rec := treasurer(t, h, http.MethodPost, "/v1/members", `{"name":"Sari","contact":"0813"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var m memberJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, 0, m.Index)
	assert.Equal(t, model.DefaultPosition, m.Position)

	rec = do(t, h, http.MethodGet, "/v1/members", "", "", "")
	var members []memberJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &members))
	require.Len(t, members, 1)

	rec = treasurer(t, h, http.MethodDelete, "/v1/members/0", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, s.ctrl.Members())
}

func TestDeleteTransactionEndpoint(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()

	rec := treasurer(t, h, http.MethodPost, "/v1/transactions", `{"source":"sponsor","amount":250000,"member":"Toko Maju"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = treasurer(t, h, http.MethodPost, "/v1/transactions/delete",
		`{"source":"Sponsor/Media","amount":"250000.00","description":"","member":"Toko Maju"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Empty(t, s.ctrl.Transactions())

	// Our own writes are not reported again by the watcher.
	assert.False(t, s.pollOnce())
}

func TestDeleteProposalWithoutMember(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()

	rec := treasurer(t, h, http.MethodPost, "/v1/transactions", `{"source":"proposal","amount":100000,"member":"Budi"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, s.ctrl.Transactions(), 1)
	assert.Equal(t, model.ProposalPlaceholder, s.ctrl.Transactions()[0].Member)

	rec = treasurer(t, h, http.MethodPost, "/v1/transactions/delete", `{"source":"proposal","amount":"100000"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Empty(t, s.ctrl.Transactions())
}

func TestExportEndpoint(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()
	require.Equal(t, http.StatusCreated,
		treasurer(t, h, http.MethodPost, "/v1/transactions", `{"source":"proposal","amount":100000,"date":"2024-01-20"}`).Code)

	rec := treasurer(t, h, http.MethodGet, "/v1/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Transaksi_terakhir_2024-03-10.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"2024-01-20 09:00:00", "Proposal", "100000", "", "-", ""}, records[1])
}

func TestEventsEndpoint(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()
	treasurer(t, h, http.MethodPost, "/v1/members", `{"name":"Sari","contact":"1"}`)

	rec := do(t, h, http.MethodGet, "/v1/events", "", "", "")
	var events []Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, EventSnapshot, events[0].Type)
	assert.Equal(t, EventDataChanged, events[1].Type)
	assert.Equal(t, "mutation", events[1].Reason)
	assert.Equal(t, 1, events[1].Delta.Members)
}
