package client

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Simply-Ryan/stockleague/internal/model"
	"github.com/Simply-Ryan/stockleague/internal/ws"
)

// State is the lifecycle of one resource subscription.
type State int

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateSubscribed
)

// Handlers receive decoded server pushes. Nil handlers are skipped.
type Handlers struct {
	OnStockUpdate       func(ws.StockUpdate)
	OnLeaderboard       func(ws.Leaderboard)
	OnLeaderboardUpdate func(ws.LeaderboardUpdate)
	OnRankAlert         func(ws.RankAlert)
	OnMilestoneAlert    func(ws.MilestoneAlert)
	OnMemberDetail      func(ws.MemberDetail)
	OnOrderExecuted     func(model.Order)
	OnPortfolioUpdate   func(model.Portfolio)
	OnError             func(string)
}

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Client maintains a WebSocket connection to the realtime server and
// reconciles pushed snapshots and deltas into a local view. The server
// forgets subscriptions when a connection dies, so the client tracks
// what it wants locally and re-issues the whole subscribe burst after
// every reconnect.
type Client struct {
	url      string
	handlers Handlers
	logger   *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	states map[string]State
	quotes map[string]ws.StockUpdate
	boards map[int64][]model.LeaderboardMember
}

// New creates a Client for the given ws:// or wss:// URL.
func New(url string, handlers Handlers, logger *zap.Logger) *Client {
	return &Client{
		url:      url,
		handlers: handlers,
		logger:   logger,
		states:   make(map[string]State),
		quotes:   make(map[string]ws.StockUpdate),
		boards:   make(map[int64][]model.LeaderboardMember),
	}
}

// Run connects and keeps the connection alive with exponential backoff
// until the context is cancelled.
func (c *Client) Run(ctx context.Context) error {
	backoff := initialBackoff

	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Debug("dial failed, retrying",
				zap.String("url", c.url),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = initialBackoff
		c.setConn(conn)
		c.resubscribe()
		c.readLoop(ctx, conn)
		c.setConn(nil)

		if ctx.Err() != nil {
			return nil
		}
		c.logger.Debug("connection lost, reconnecting")
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return
		}
		c.apply(data)
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	if conn == nil {
		// Still wanted, but no longer live on the wire.
		for room, st := range c.states {
			if st == StateSubscribed {
				c.states[room] = StateSubscribing
			}
		}
	}
}

// SubscribeStock starts watching a symbol.
func (c *Client) SubscribeStock(symbol string) {
	c.subscribe(ws.StockRoom(symbol), ws.Request{Type: ws.TypeSubscribeStock, Symbol: symbol})
}

// UnsubscribeStock stops watching a symbol.
func (c *Client) UnsubscribeStock(symbol string) {
	c.unsubscribe(ws.StockRoom(symbol), ws.Request{Type: ws.TypeUnsubscribeStock, Symbol: symbol})
}

// SubscribeLeaderboard starts watching a league leaderboard.
func (c *Client) SubscribeLeaderboard(leagueID int64) {
	c.subscribe(ws.LeaderboardRoom(leagueID), ws.Request{Type: ws.TypeSubscribeLeaderboard, LeagueID: &leagueID})
}

// UnsubscribeLeaderboard stops watching a league leaderboard.
func (c *Client) UnsubscribeLeaderboard(leagueID int64) {
	c.unsubscribe(ws.LeaderboardRoom(leagueID), ws.Request{Type: ws.TypeUnsubscribeLeaderboard, LeagueID: &leagueID})
}

// RequestLeaderboard asks for a one-off leaderboard_data reply.
func (c *Client) RequestLeaderboard(leagueID int64) {
	c.write(ws.EncodeRequest(ws.Request{Type: ws.TypeRequestLeaderboard, LeagueID: &leagueID}))
}

// RequestLeaderboardMember asks for a single member's row.
func (c *Client) RequestLeaderboardMember(leagueID, userID int64) {
	c.write(ws.EncodeRequest(ws.Request{Type: ws.TypeRequestLeaderboardMember, LeagueID: &leagueID, UserID: &userID}))
}

func (c *Client) subscribe(room string, req ws.Request) {
	c.mu.Lock()
	if c.states[room] != StateUnsubscribed {
		c.mu.Unlock()
		return
	}
	c.states[room] = StateSubscribing
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.send(conn, ws.EncodeRequest(req))
	}
}

func (c *Client) unsubscribe(room string, req ws.Request) {
	c.mu.Lock()
	delete(c.states, room)
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.send(conn, ws.EncodeRequest(req))
	}
}

// resubscribe re-issues subscribe requests for every wanted resource.
// Called after every (re)connect.
func (c *Client) resubscribe() {
	c.mu.Lock()
	conn := c.conn
	rooms := make([]string, 0, len(c.states))
	for room := range c.states {
		c.states[room] = StateSubscribing
		rooms = append(rooms, room)
	}
	c.mu.Unlock()

	if conn == nil {
		return
	}
	for _, room := range rooms {
		kind, key := ws.SplitRoom(room)
		switch kind {
		case ws.KindStock:
			c.send(conn, ws.EncodeRequest(ws.Request{Type: ws.TypeSubscribeStock, Symbol: key}))
		case ws.KindLeaderboard:
			if id, ok := ws.RoomLeagueID(room); ok {
				c.send(conn, ws.EncodeRequest(ws.Request{Type: ws.TypeSubscribeLeaderboard, LeagueID: &id}))
			}
		}
	}
}

func (c *Client) write(frame []byte) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		c.send(conn, frame)
	}
}

func (c *Client) send(conn *websocket.Conn, frame []byte) {
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Debug("write failed", zap.Error(err))
	}
}

// SubscriptionState reports the state machine position for a room key.
func (c *Client) SubscriptionState(room string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[room]
}

// Quote returns the reconciled view of a symbol.
func (c *Client) Quote(symbol string) (ws.StockUpdate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.quotes[symbol]
	return q, ok
}

// Board returns the reconciled view of a league leaderboard.
func (c *Client) Board(leagueID int64) ([]model.LeaderboardMember, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	board, ok := c.boards[leagueID]
	if !ok {
		return nil, false
	}
	out := make([]model.LeaderboardMember, len(board))
	copy(out, board)
	return out, true
}
