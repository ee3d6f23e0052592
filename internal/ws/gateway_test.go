package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Simply-Ryan/stockleague/internal/model"
)

type fakeLeagues struct {
	members map[int64][]model.LeaderboardMember
}

func (f *fakeLeagues) Leaderboard(_ context.Context, leagueID int64) ([]model.LeaderboardMember, error) {
	members, ok := f.members[leagueID]
	if !ok {
		return nil, errors.New("no such league")
	}
	return members, nil
}

func (f *fakeLeagues) Member(_ context.Context, leagueID, userID int64) (model.LeaderboardMember, error) {
	for _, m := range f.members[leagueID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return model.LeaderboardMember{}, errors.New("no such member")
}

func startGateway(t *testing.T) (*Gateway, *websocket.Conn) {
	t.Helper()

	leagues := &fakeLeagues{members: map[int64][]model.LeaderboardMember{
		42: {
			{UserID: 1, Username: "alice", TotalValue: 12000, Rank: 1},
			{UserID: 2, Username: "bob", TotalValue: 11000, Rank: 2},
		},
	}}
	gw := NewGateway(NewHub(zap.NewNop()), leagues, time.Second, zap.NewNop())

	srv := httptest.NewServer(http.HandlerFunc(gw.HandleWS))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return gw, conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (string, any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	msgType, payload, err := DecodeServerMessage(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return msgType, payload
}

func waitForSubscriber(t *testing.T, hub *Hub, room string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(hub.SubscribersOf(room)) > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no subscriber appeared in %s", room)
}

func TestGatewaySubscribeStockAndBroadcast(t *testing.T) {
	gw, conn := startGateway(t)

	sub := Request{Type: TypeSubscribeStock, Symbol: "AAPL"}
	if err := conn.WriteMessage(websocket.TextMessage, EncodeRequest(sub)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	waitForSubscriber(t, gw.Hub(), "stock:AAPL")

	gw.Hub().Broadcast("stock:AAPL", EncodeStockUpdate(model.Quote{Symbol: "AAPL", Price: 187.5}))

	msgType, payload := readFrame(t, conn)
	if msgType != TypeStockUpdate {
		t.Fatalf("expected stock_update, got %s", msgType)
	}
	update := payload.(*StockUpdate)
	if update.Symbol != "AAPL" || update.Price != 187.5 {
		t.Errorf("unexpected payload: %+v", update)
	}
}

func TestGatewaySubscribeLeaderboardSendsSnapshot(t *testing.T) {
	_, conn := startGateway(t)

	leagueID := int64(42)
	sub := Request{Type: TypeSubscribeLeaderboard, LeagueID: &leagueID}
	if err := conn.WriteMessage(websocket.TextMessage, EncodeRequest(sub)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	msgType, payload := readFrame(t, conn)
	if msgType != TypeLeaderboardSnapshot {
		t.Fatalf("expected leaderboard_snapshot, got %s", msgType)
	}
	board := payload.(*Leaderboard)
	if board.LeagueID != 42 || len(board.Members) != 2 {
		t.Errorf("unexpected snapshot: %+v", board)
	}
}

func TestGatewayInvalidRequestsKeepConnectionOpen(t *testing.T) {
	gw, conn := startGateway(t)

	// Malformed frame
	if err := conn.WriteMessage(websocket.TextMessage, []byte("garbage")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	msgType, payload := readFrame(t, conn)
	if msgType != TypeLeaderboardError {
		t.Fatalf("expected leaderboard_error, got %s", msgType)
	}
	if payload.(*ErrorPayload).Message == "" {
		t.Error("expected a human-readable error message")
	}

	// Missing league_id
	if err := conn.WriteMessage(websocket.TextMessage, EncodeRequest(Request{Type: TypeRequestLeaderboard})); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if msgType, _ = readFrame(t, conn); msgType != TypeLeaderboardError {
		t.Fatalf("expected leaderboard_error, got %s", msgType)
	}

	// Connection still works afterwards.
	if err := conn.WriteMessage(websocket.TextMessage, EncodeRequest(Request{Type: TypeSubscribeStock, Symbol: "MSFT"})); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	waitForSubscriber(t, gw.Hub(), "stock:MSFT")
}

func TestGatewayDisconnectCleansUp(t *testing.T) {
	gw, conn := startGateway(t)

	if err := conn.WriteMessage(websocket.TextMessage, EncodeRequest(Request{Type: TypeSubscribeStock, Symbol: "AAPL"})); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	waitForSubscriber(t, gw.Hub(), "stock:AAPL")

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(gw.Hub().SubscribersOf("stock:AAPL")) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("subscription survived disconnect")
}
