package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"generator_ledger/internal/models"
	"generator_ledger/internal/service"
)

func getWithAuth(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	events := []models.EventLogEntry{
		{ID: 1, Kind: "m_start", Timestamp: at, Actor: "Olena"},
		{ID: 2, Kind: models.EventRefill, Timestamp: at.Add(time.Minute), Actor: "Olena", Payload: "20|A-1"},
	}
	logs := &mockEventLog{resp: events}
	s := &service.Service{
		Authorization: auth,
		EventLog:      logs,
	}
	r := newTestRouter(s)

	if w := getWithAuth(r, "/api/v1/logs/?from=notatime"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}
	if w := getWithAuth(r, "/api/v1/logs/?from=2026-05-05&to=2026-05-04"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed range, got %d", w.Code)
	}
	if w := getWithAuth(r, "/api/v1/logs/?limit=-1"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative limit, got %d", w.Code)
	}

	w := getWithAuth(r, "/api/v1/logs/?from=2026-05-04&to=2026-05-04&kind=REFILL&unsynced=true&limit=10")
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                    `json:"count"`
		Events []models.EventLogEntry `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}

	f := logs.last
	if f.Kind != "REFILL" || !f.Unsynced || f.Limit != 10 {
		t.Fatalf("filter not passed through: %+v", f)
	}
	if !f.From.Equal(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from=%v", f.From)
	}
	// a date-only 'to' covers the whole day
	if !f.To.Equal(time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)) {
		t.Fatalf("to=%v", f.To)
	}
}

func TestLogsHandler_CivilTimesUseHandlerZone(t *testing.T) {
	kyiv := time.FixedZone("EEST", 3*60*60)
	h := NewHandler(&service.Service{}, nil, kyiv)

	got, err := h.parseQueryTime("2026-05-04 09:30:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := time.Date(2026, 5, 4, 6, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got, err = h.parseQueryTime("2026-05-04T06:30:00Z")
	if err != nil {
		t.Fatalf("parse rfc3339: %v", err)
	}
	if got.Location() != kyiv || got.Hour() != 9 {
		t.Fatalf("rfc3339 not converted to handler zone: %v", got)
	}
}
