package ws

import (
	"encoding/json"
	"fmt"

	"github.com/Simply-Ryan/stockleague/internal/model"
)

// Client-to-server message types.
const (
	TypeSubscribeStock           = "subscribe_stock"
	TypeUnsubscribeStock         = "unsubscribe_stock"
	TypeSubscribeLeaderboard     = "subscribe_leaderboard"
	TypeUnsubscribeLeaderboard   = "unsubscribe_leaderboard"
	TypeRequestLeaderboard       = "request_leaderboard"
	TypeRequestLeaderboardMember = "request_leaderboard_member"
)

// Server-to-client message types.
const (
	TypeStockUpdate         = "stock_update"
	TypeLeaderboardSnapshot = "leaderboard_snapshot"
	TypeLeaderboardData     = "leaderboard_data"
	TypeLeaderboardUpdate   = "leaderboard_update"
	TypeRankAlert           = "rank_alert"
	TypeMilestoneAlert      = "milestone_alert"
	TypeLeaderboardMember   = "leaderboard_member"
	TypeLeaderboardError    = "leaderboard_error"
	TypeOrderExecuted       = "order_executed"
	TypePortfolioUpdate     = "portfolio_update"
)

// Both directions use the same envelope: {"type": ..., "data": {...}}.
// Payload field names inside data never collide with the discriminator,
// which matters for order_executed and milestone_alert where the
// payload carries its own "type" field.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Request is the decoded client-to-server payload. Symbol, LeagueID
// and UserID are populated depending on the message type.
type Request struct {
	Type     string `json:"-"`
	Symbol   string `json:"symbol,omitempty"`
	LeagueID *int64 `json:"league_id,omitempty"`
	UserID   *int64 `json:"user_id,omitempty"`
}

// DecodeRequest parses a client request frame.
func DecodeRequest(data []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Request{}, fmt.Errorf("decoding request: %w", err)
	}
	if env.Type == "" {
		return Request{}, fmt.Errorf("missing message type")
	}
	req := Request{Type: env.Type}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return Request{}, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
	}
	return req, nil
}

// EncodeRequest builds a client request frame. Used by the client side.
func EncodeRequest(req Request) []byte {
	return encode(req.Type, req)
}

// StockUpdate carries a fresh quote for one symbol.
type StockUpdate struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	Timestamp     int64   `json:"timestamp"`
}

// Leaderboard is the shared payload of leaderboard_snapshot and
// leaderboard_data: the full member list at one point in time.
type Leaderboard struct {
	LeagueID  int64                     `json:"league_id"`
	Members   []model.LeaderboardMember `json:"members"`
	Timestamp int64                     `json:"timestamp"`
}

// LeaderboardUpdate is the delta pushed when a watched leaderboard
// changed between two ticks.
type LeaderboardUpdate struct {
	LeagueID int64                     `json:"league_id"`
	Members  []model.LeaderboardMember `json:"members"`
	Changes  model.Changes             `json:"changes"`
}

// RankAlertData describes one member's rank movement.
type RankAlertData struct {
	OldRank      int `json:"old_rank"`
	NewRank      int `json:"new_rank"`
	RankMovement int `json:"rank_movement"`
}

// RankAlert notifies a room that a member's rank moved.
type RankAlert struct {
	LeagueID  int64         `json:"league_id"`
	UserID    int64         `json:"user_id"`
	AlertData RankAlertData `json:"alert_data"`
}

// MilestoneAlert notifies a room that a member crossed a milestone.
type MilestoneAlert struct {
	LeagueID int64          `json:"league_id"`
	UserID   int64          `json:"user_id"`
	Type     string         `json:"type"`
	Data     map[string]any `json:"data"`
}

// MemberDetail answers a request_leaderboard_member.
type MemberDetail struct {
	LeagueID  int64                   `json:"league_id"`
	Member    model.LeaderboardMember `json:"member"`
	Timestamp int64                   `json:"timestamp"`
}

// ErrorPayload carries a human-readable error back to one client. The
// connection stays open.
type ErrorPayload struct {
	Message string `json:"message"`
}

// EncodeStockUpdate builds a stock_update frame from a quote.
func EncodeStockUpdate(q model.Quote) []byte {
	return encode(TypeStockUpdate, StockUpdate{
		Symbol:        q.Symbol,
		Price:         q.Price,
		ChangePercent: q.ChangePercent,
		Volume:        q.Volume,
		High:          q.High,
		Low:           q.Low,
		Open:          q.Open,
		Timestamp:     q.Timestamp,
	})
}

// EncodeLeaderboard builds a leaderboard_snapshot or leaderboard_data
// frame depending on msgType.
func EncodeLeaderboard(msgType string, leagueID int64, members []model.LeaderboardMember, ts int64) []byte {
	return encode(msgType, Leaderboard{LeagueID: leagueID, Members: members, Timestamp: ts})
}

// EncodeLeaderboardUpdate builds a leaderboard_update frame.
func EncodeLeaderboardUpdate(leagueID int64, members []model.LeaderboardMember, changes model.Changes) []byte {
	return encode(TypeLeaderboardUpdate, LeaderboardUpdate{LeagueID: leagueID, Members: members, Changes: changes})
}

// EncodeRankAlert builds a rank_alert frame.
func EncodeRankAlert(leagueID int64, rc model.RankChange) []byte {
	return encode(TypeRankAlert, RankAlert{
		LeagueID: leagueID,
		UserID:   rc.UserID,
		AlertData: RankAlertData{
			OldRank:      rc.OldRank,
			NewRank:      rc.NewRank,
			RankMovement: rc.RankMovement,
		},
	})
}

// EncodeMilestoneAlert builds a milestone_alert frame.
func EncodeMilestoneAlert(leagueID, userID int64, m model.Milestone) []byte {
	return encode(TypeMilestoneAlert, MilestoneAlert{
		LeagueID: leagueID,
		UserID:   userID,
		Type:     m.Type,
		Data:     m.Data,
	})
}

// EncodeMemberDetail builds a leaderboard_member frame.
func EncodeMemberDetail(leagueID int64, member model.LeaderboardMember, ts int64) []byte {
	return encode(TypeLeaderboardMember, MemberDetail{LeagueID: leagueID, Member: member, Timestamp: ts})
}

// EncodeError builds a leaderboard_error frame.
func EncodeError(message string) []byte {
	return encode(TypeLeaderboardError, ErrorPayload{Message: message})
}

// EncodeOrderExecuted builds an order_executed frame.
func EncodeOrderExecuted(o model.Order) []byte {
	return encode(TypeOrderExecuted, o)
}

// EncodePortfolioUpdate builds a portfolio_update frame.
func EncodePortfolioUpdate(p model.Portfolio) []byte {
	return encode(TypePortfolioUpdate, p)
}

// DecodeServerMessage parses a server-to-client frame into its typed
// payload. Used by the client reconciler.
func DecodeServerMessage(data []byte) (string, any, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("decoding envelope: %w", err)
	}

	var payload any
	switch env.Type {
	case TypeStockUpdate:
		payload = &StockUpdate{}
	case TypeLeaderboardSnapshot, TypeLeaderboardData:
		payload = &Leaderboard{}
	case TypeLeaderboardUpdate:
		payload = &LeaderboardUpdate{}
	case TypeRankAlert:
		payload = &RankAlert{}
	case TypeMilestoneAlert:
		payload = &MilestoneAlert{}
	case TypeLeaderboardMember:
		payload = &MemberDetail{}
	case TypeLeaderboardError:
		payload = &ErrorPayload{}
	case TypeOrderExecuted:
		payload = &model.Order{}
	case TypePortfolioUpdate:
		payload = &model.Portfolio{}
	default:
		return "", nil, fmt.Errorf("unknown message type: %q", env.Type)
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, payload); err != nil {
			return "", nil, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
	}
	return env.Type, payload, nil
}

func encode(msgType string, payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		// All payload types marshal cleanly; a failure here is a
		// programming error.
		panic(err)
	}
	frame, err := json.Marshal(envelope{Type: msgType, Data: data})
	if err != nil {
		panic(err)
	}
	return frame
}
