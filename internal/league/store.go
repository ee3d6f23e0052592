package league

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Simply-Ryan/stockleague/internal/model"
	"github.com/Simply-Ryan/stockleague/internal/quote"
)

// ErrMemberNotFound means the user is not a member of the league.
var ErrMemberNotFound = errors.New("member not found")

// Store computes league leaderboards from the relational store plus
// live prices. Nothing is persisted back: every leaderboard is derived
// fresh from cash, holdings, and current quotes.
type Store struct {
	db     *pgxpool.Pool
	quotes quote.Source
	logger *zap.Logger
}

// NewStore creates a Store.
func NewStore(db *pgxpool.Pool, quotes quote.Source, logger *zap.Logger) *Store {
	return &Store{db: db, quotes: quotes, logger: logger}
}

type memberRow struct {
	userID       int64
	username     string
	cash         float64
	startingCash float64
	shareCount   int64
	stockValue   float64
}

// Leaderboard returns the ranked member list for a league.
func (s *Store) Leaderboard(ctx context.Context, leagueID int64) ([]model.LeaderboardMember, error) {
	rows, err := s.db.Query(ctx, `
		SELECT u.id, u.username, lm.cash, lm.starting_cash
		FROM league_members lm
		JOIN users u ON u.id = lm.user_id
		WHERE lm.league_id = $1
	`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("querying league %d members: %w", leagueID, err)
	}

	byUser := make(map[int64]*memberRow)
	for rows.Next() {
		var m memberRow
		if err := rows.Scan(&m.userID, &m.username, &m.cash, &m.startingCash); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		byUser[m.userID] = &m
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}

	if err := s.priceHoldings(ctx, leagueID, byUser); err != nil {
		return nil, err
	}

	members := make([]model.LeaderboardMember, 0, len(byUser))
	for _, m := range byUser {
		total := m.cash + m.stockValue
		profit := total - m.startingCash
		returnPct := 0.0
		if m.startingCash > 0 {
			returnPct = profit / m.startingCash * 100
		}
		members = append(members, model.LeaderboardMember{
			UserID:     m.userID,
			Username:   m.username,
			TotalValue: total,
			ProfitLoss: profit,
			ReturnPct:  returnPct,
			ShareCount: m.shareCount,
		})
	}

	return Rank(members), nil
}

// Member returns a single member's ranked row.
func (s *Store) Member(ctx context.Context, leagueID, userID int64) (model.LeaderboardMember, error) {
	members, err := s.Leaderboard(ctx, leagueID)
	if err != nil {
		return model.LeaderboardMember{}, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return m, nil
		}
	}
	return model.LeaderboardMember{}, ErrMemberNotFound
}

// priceHoldings values every member's positions at current quotes.
// Each distinct symbol is priced once per call; the quote cache dedups
// across leagues and ticks.
func (s *Store) priceHoldings(ctx context.Context, leagueID int64, byUser map[int64]*memberRow) error {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, symbol, shares
		FROM holdings
		WHERE league_id = $1 AND shares > 0
	`, leagueID)
	if err != nil {
		return fmt.Errorf("querying league %d holdings: %w", leagueID, err)
	}

	type holding struct {
		userID int64
		symbol string
		shares int64
	}
	var holdings []holding
	symbols := make(map[string]bool)
	for rows.Next() {
		var h holding
		if err := rows.Scan(&h.userID, &h.symbol, &h.shares); err != nil {
			rows.Close()
			return fmt.Errorf("scanning holding: %w", err)
		}
		holdings = append(holdings, h)
		symbols[h.symbol] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating holdings: %w", err)
	}

	prices := make(map[string]float64, len(symbols))
	for symbol := range symbols {
		q, err := s.quotes.Quote(ctx, symbol)
		if err != nil {
			// One unpriceable symbol fails the whole board; a partial
			// valuation would rank members against each other unfairly.
			return fmt.Errorf("pricing %s: %w", symbol, err)
		}
		prices[symbol] = q.Price
	}

	for _, h := range holdings {
		m, ok := byUser[h.userID]
		if !ok {
			continue
		}
		m.shareCount += h.shares
		m.stockValue += float64(h.shares) * prices[h.symbol]
	}
	return nil
}
