package ws

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Simply-Ryan/stockleague/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect from the app origin; auth happens upstream.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LeaderboardProvider serves current leaderboard state for the
// request_* operations and the initial snapshot on subscribe.
type LeaderboardProvider interface {
	Leaderboard(ctx context.Context, leagueID int64) ([]model.LeaderboardMember, error)
	Member(ctx context.Context, leagueID, userID int64) (model.LeaderboardMember, error)
}

// Gateway upgrades HTTP requests to WebSocket connections and
// dispatches client requests against the hub and the leaderboard
// provider.
type Gateway struct {
	hub          *Hub
	leagues      LeaderboardProvider
	fetchTimeout time.Duration
	logger       *zap.Logger
}

// NewGateway creates a Gateway.
func NewGateway(hub *Hub, leagues LeaderboardProvider, fetchTimeout time.Duration, logger *zap.Logger) *Gateway {
	return &Gateway{
		hub:          hub,
		leagues:      leagues,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// Hub exposes the gateway's subscription registry.
func (g *Gateway) Hub() *Hub { return g.hub }

// HandleWS handles the WebSocket upgrade. An optional user_id query
// parameter (set by the authenticating frontend) joins the connection
// to its per-user room so it receives order and portfolio pushes.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		gw:     g,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		connID: uuid.New().String(),
		logger: g.logger,
	}

	if raw := r.URL.Query().Get("user_id"); raw != "" {
		if userID, err := strconv.ParseInt(raw, 10, 64); err == nil && userID > 0 {
			g.hub.Subscribe(client, UserRoom(userID))
		}
	}

	g.logger.Debug("client connected",
		zap.String("connID", client.connID),
		zap.String("remoteAddr", r.RemoteAddr),
	)

	go client.writePump()
	go client.readPump()
}

// handleMessage processes one request frame from a client. Invalid
// requests answer with leaderboard_error and leave the connection open.
func (g *Gateway) handleMessage(c *Client, data []byte) {
	req, err := DecodeRequest(data)
	if err != nil {
		g.logger.Debug("malformed request",
			zap.String("connID", c.connID),
			zap.Error(err),
		)
		c.Send(EncodeError("malformed request: " + err.Error()))
		return
	}

	switch req.Type {
	case TypeSubscribeStock:
		symbol := req.Symbol
		if !ValidSymbol(symbol) {
			c.Send(EncodeError(fmt.Sprintf("invalid symbol %q", symbol)))
			return
		}
		g.hub.Subscribe(c, StockRoom(symbol))

	case TypeUnsubscribeStock:
		if req.Symbol != "" {
			g.hub.Unsubscribe(c, StockRoom(req.Symbol))
		}

	case TypeSubscribeLeaderboard:
		leagueID, ok := requireLeague(c, req)
		if !ok {
			return
		}
		g.hub.Subscribe(c, LeaderboardRoom(leagueID))
		// Late joiners need current state immediately; the scheduler
		// only snapshots a room the first time it broadcasts.
		go g.sendLeaderboard(c, TypeLeaderboardSnapshot, leagueID)

	case TypeUnsubscribeLeaderboard:
		if req.LeagueID != nil {
			g.hub.Unsubscribe(c, LeaderboardRoom(*req.LeagueID))
		}

	case TypeRequestLeaderboard:
		leagueID, ok := requireLeague(c, req)
		if !ok {
			return
		}
		go g.sendLeaderboard(c, TypeLeaderboardData, leagueID)

	case TypeRequestLeaderboardMember:
		leagueID, ok := requireLeague(c, req)
		if !ok {
			return
		}
		if req.UserID == nil {
			c.Send(EncodeError("missing user_id"))
			return
		}
		go g.sendMember(c, leagueID, *req.UserID)

	default:
		c.Send(EncodeError(fmt.Sprintf("unknown message type %q", req.Type)))
	}
}

func requireLeague(c *Client, req Request) (int64, bool) {
	if req.LeagueID == nil {
		c.Send(EncodeError("missing league_id"))
		return 0, false
	}
	return *req.LeagueID, true
}

func (g *Gateway) sendLeaderboard(c *Client, msgType string, leagueID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), g.fetchTimeout)
	defer cancel()

	members, err := g.leagues.Leaderboard(ctx, leagueID)
	if err != nil {
		g.logger.Debug("leaderboard fetch failed",
			zap.Int64("leagueID", leagueID),
			zap.Error(err),
		)
		c.Send(EncodeError(fmt.Sprintf("leaderboard %d unavailable", leagueID)))
		return
	}
	c.Send(EncodeLeaderboard(msgType, leagueID, members, time.Now().UnixMilli()))
}

func (g *Gateway) sendMember(c *Client, leagueID, userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), g.fetchTimeout)
	defer cancel()

	member, err := g.leagues.Member(ctx, leagueID, userID)
	if err != nil {
		g.logger.Debug("member fetch failed",
			zap.Int64("leagueID", leagueID),
			zap.Int64("userID", userID),
			zap.Error(err),
		)
		c.Send(EncodeError(fmt.Sprintf("member %d not found in league %d", userID, leagueID)))
		return
	}
	c.Send(EncodeMemberDetail(leagueID, member, time.Now().UnixMilli()))
}
