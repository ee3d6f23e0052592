package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Simply-Ryan/stockleague/internal/broadcast"
	"github.com/Simply-Ryan/stockleague/internal/ws"
)

type recordingSub struct {
	id   string
	msgs [][]byte
}

func (r *recordingSub) ID() string         { return r.id }
func (r *recordingSub) Send(b []byte) bool { r.msgs = append(r.msgs, b); return true }
func (r *recordingSub) Close()             {}

func newTestRouter(t *testing.T) (http.Handler, *ws.Hub) {
	t.Helper()
	logger := zap.NewNop()
	hub := ws.NewHub(logger)
	gw := ws.NewGateway(hub, nil, time.Second, logger)
	emitter := broadcast.NewEmitter(hub, nil, logger)
	return NewRouter(gw, emitter, logger), hub
}

func postEvent(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/internal/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEventsOrderExecutedReachesUserRoom(t *testing.T) {
	router, hub := newTestRouter(t)

	sub := &recordingSub{id: "c1"}
	hub.Subscribe(sub, ws.UserRoom(7))

	rec := postEvent(t, router, `{
		"kind": "order_executed",
		"user_id": 7,
		"order": {"type": "buy", "symbol": "AAPL", "shares": 10, "price": 187.5, "total": 1875}
	}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(sub.msgs) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(sub.msgs))
	}
	msgType, _, err := ws.DecodeServerMessage(sub.msgs[0])
	if err != nil || msgType != ws.TypeOrderExecuted {
		t.Errorf("unexpected frame: type=%s err=%v", msgType, err)
	}
}

func TestEventsPortfolioUpdated(t *testing.T) {
	router, hub := newTestRouter(t)

	sub := &recordingSub{id: "c1"}
	hub.Subscribe(sub, ws.UserRoom(7))

	rec := postEvent(t, router, `{
		"kind": "portfolio_updated",
		"user_id": 7,
		"portfolio": {"cash": 5000, "total_value": 12000, "stocks": []}
	}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(sub.msgs) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(sub.msgs))
	}
}

func TestEventsValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"unknown kind", `{"kind": "stock_split"}`},
		{"order without user", `{"kind": "order_executed", "order": {"type": "buy"}}`},
		{"order without order", `{"kind": "order_executed", "user_id": 7}`},
		{"portfolio without payload", `{"kind": "portfolio_updated", "user_id": 7}`},
		{"leaderboard without league", `{"kind": "leaderboard_changed"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := postEvent(t, router, tc.body); rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestEventsNoSubscriberStillAccepted(t *testing.T) {
	router, _ := newTestRouter(t)

	// Delivery is best-effort; nobody listening is not an error.
	rec := postEvent(t, router, `{"kind": "leaderboard_changed", "league_id": 42}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
