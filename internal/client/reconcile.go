package client

import (
	"sort"

	"go.uber.org/zap"

	"github.com/Simply-Ryan/stockleague/internal/model"
	"github.com/Simply-Ryan/stockleague/internal/ws"
)

// apply merges one server frame into the local view. Frames for
// resources this client never subscribed to are dropped: after an
// unsubscribe, anything still in flight must not resurrect local
// state.
func (c *Client) apply(data []byte) {
	msgType, payload, err := ws.DecodeServerMessage(data)
	if err != nil {
		c.logger.Debug("undecodable frame", zap.Error(err))
		return
	}

	switch msg := payload.(type) {
	case *ws.StockUpdate:
		if !c.accept(ws.StockRoom(msg.Symbol)) {
			return
		}
		c.mu.Lock()
		c.quotes[msg.Symbol] = *msg
		c.mu.Unlock()
		if c.handlers.OnStockUpdate != nil {
			c.handlers.OnStockUpdate(*msg)
		}

	case *ws.Leaderboard:
		// leaderboard_data answers an explicit request and is applied
		// even without a standing subscription.
		if msgType == ws.TypeLeaderboardSnapshot && !c.accept(ws.LeaderboardRoom(msg.LeagueID)) {
			return
		}
		c.replaceBoard(msg.LeagueID, msg.Members)
		if c.handlers.OnLeaderboard != nil {
			c.handlers.OnLeaderboard(*msg)
		}

	case *ws.LeaderboardUpdate:
		if !c.accept(ws.LeaderboardRoom(msg.LeagueID)) {
			return
		}
		c.mergeBoard(msg.LeagueID, msg.Members)
		if c.handlers.OnLeaderboardUpdate != nil {
			c.handlers.OnLeaderboardUpdate(*msg)
		}

	case *ws.RankAlert:
		if c.handlers.OnRankAlert != nil {
			c.handlers.OnRankAlert(*msg)
		}

	case *ws.MilestoneAlert:
		if c.handlers.OnMilestoneAlert != nil {
			c.handlers.OnMilestoneAlert(*msg)
		}

	case *ws.MemberDetail:
		if c.handlers.OnMemberDetail != nil {
			c.handlers.OnMemberDetail(*msg)
		}

	case *ws.ErrorPayload:
		if c.handlers.OnError != nil {
			c.handlers.OnError(msg.Message)
		}

	case *model.Order:
		if c.handlers.OnOrderExecuted != nil {
			c.handlers.OnOrderExecuted(*msg)
		}

	case *model.Portfolio:
		if c.handlers.OnPortfolioUpdate != nil {
			c.handlers.OnPortfolioUpdate(*msg)
		}
	}
}

// accept marks a wanted room Subscribed on its first frame and reports
// whether frames for it should be applied at all.
func (c *Client) accept(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.states[room] == StateUnsubscribed {
		return false
	}
	c.states[room] = StateSubscribed
	return true
}

func (c *Client) replaceBoard(leagueID int64, members []model.LeaderboardMember) {
	board := make([]model.LeaderboardMember, len(members))
	copy(board, members)
	sortBoard(board)

	c.mu.Lock()
	c.boards[leagueID] = board
	c.mu.Unlock()
}

// mergeBoard upserts the pushed member records into the local board
// and re-sorts by rank, leaving untouched members in place.
func (c *Client) mergeBoard(leagueID int64, members []model.LeaderboardMember) {
	c.mu.Lock()
	defer c.mu.Unlock()

	board := c.boards[leagueID]
	index := make(map[int64]int, len(board))
	for i, m := range board {
		index[m.UserID] = i
	}
	for _, m := range members {
		if i, ok := index[m.UserID]; ok {
			board[i] = m
		} else {
			board = append(board, m)
			index[m.UserID] = len(board) - 1
		}
	}
	sortBoard(board)
	c.boards[leagueID] = board
}

func sortBoard(board []model.LeaderboardMember) {
	sort.Slice(board, func(i, j int) bool { return board[i].Rank < board[j].Rank })
}
