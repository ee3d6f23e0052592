package model

// Quote is one priced observation of a stock symbol.
// Timestamp is Unix milliseconds.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	Timestamp     int64   `json:"timestamp"`
}

// LeaderboardMember is one ranked row of a league leaderboard.
type LeaderboardMember struct {
	UserID     int64   `json:"user_id"`
	Username   string  `json:"username"`
	TotalValue float64 `json:"total_value"`
	ProfitLoss float64 `json:"profit_loss"`
	ReturnPct  float64 `json:"return_pct"`
	ShareCount int64   `json:"share_count"`
	Rank       int     `json:"rank"`
}

// RankChange records a member whose rank moved between two consecutive
// leaderboard snapshots. RankMovement is old minus new, so positive
// values mean the member climbed.
type RankChange struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	OldRank      int    `json:"old_rank"`
	NewRank      int    `json:"new_rank"`
	RankMovement int    `json:"rank_movement"`
}

// ValueChange records a member whose total value moved between two
// consecutive leaderboard snapshots.
type ValueChange struct {
	UserID   int64   `json:"user_id"`
	OldValue float64 `json:"old_value"`
	NewValue float64 `json:"new_value"`
	Change   float64 `json:"change"`
}

// Changes bundles everything that differs between two consecutive
// snapshots of the same leaderboard.
type Changes struct {
	RankChanges  []RankChange  `json:"rank_changes"`
	ValueChanges []ValueChange `json:"value_changes"`
}

// Empty reports whether the diff carries no changes at all.
func (c Changes) Empty() bool {
	return len(c.RankChanges) == 0 && len(c.ValueChanges) == 0
}

// Milestone is a notable transition for a single member, detected by
// comparing the previous and new state at emission time.
type Milestone struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Order is an executed buy or sell.
type Order struct {
	Type      string  `json:"type"` // "buy" or "sell"
	Symbol    string  `json:"symbol"`
	Shares    int64   `json:"shares"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
	Timestamp int64   `json:"timestamp"`
}

// PortfolioStock is one position inside a portfolio snapshot.
type PortfolioStock struct {
	Symbol string  `json:"symbol"`
	Shares int64   `json:"shares"`
	Price  float64 `json:"price"`
	Value  float64 `json:"value"`
}

// Portfolio is the cash plus positions view pushed to a single user.
type Portfolio struct {
	Cash       float64          `json:"cash"`
	TotalValue float64          `json:"total_value"`
	Stocks     []PortfolioStock `json:"stocks"`
}
