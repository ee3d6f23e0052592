package broadcast

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Simply-Ryan/stockleague/internal/model"
	"github.com/Simply-Ryan/stockleague/internal/ws"
)

// StockSource provides the current quote for a symbol.
type StockSource interface {
	Quote(ctx context.Context, symbol string) (model.Quote, error)
}

// LeaderboardSource provides the current ranked member list of a
// league.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, leagueID int64) ([]model.LeaderboardMember, error)
}

// Broadcaster is the hub surface the scheduler needs.
type Broadcaster interface {
	ActiveRooms() []string
	Broadcast(room string, payload []byte)
}

// Config holds scheduler configuration.
type Config struct {
	Interval     time.Duration // Tick interval (default: 30s)
	FetchTimeout time.Duration // Per-resource fetch timeout (default: 5s)

	// MarketHoursOnly skips stock rooms on non-business days.
	// Leaderboard rooms always tick.
	MarketHoursOnly bool
	Timezone        string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     30 * time.Second,
		FetchTimeout: 5 * time.Second,
		Timezone:     "America/New_York",
	}
}

// Scheduler periodically polls every watched resource and pushes
// snapshots or deltas to that resource's room. One scheduler runs per
// process; ticks never overlap because the loop is sequential. All
// cached snapshot state (boards, peaks) is owned by the Run goroutine,
// so it needs no locking.
type Scheduler struct {
	cfg     Config
	hub     Broadcaster
	stocks  StockSource
	leagues LeaderboardSource
	hours   *marketHours
	logger  *zap.Logger

	// Last broadcast snapshot per leaderboard room, and the best total
	// value seen per member for new_high detection.
	boards map[string][]model.LeaderboardMember
	peaks  map[string]map[int64]float64

	poke chan string
}

// NewScheduler creates a Scheduler.
func NewScheduler(cfg Config, hub Broadcaster, stocks StockSource, leagues LeaderboardSource, logger *zap.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultConfig().FetchTimeout
	}

	var hours *marketHours
	if cfg.MarketHoursOnly {
		hours = newMarketHours(cfg.Timezone)
	}

	return &Scheduler{
		cfg:     cfg,
		hub:     hub,
		stocks:  stocks,
		leagues: leagues,
		hours:   hours,
		logger:  logger,
		boards:  make(map[string][]model.LeaderboardMember),
		peaks:   make(map[string]map[int64]float64),
		poke:    make(chan string, 64),
	}
}

// Poke asks the scheduler to refresh one room ahead of the next tick.
// It never blocks; when the queue is full the nudge is dropped and the
// regular tick picks the change up instead.
func (s *Scheduler) Poke(room string) {
	select {
	case s.poke <- room:
	default:
	}
}

// Run starts the broadcast loop. Call in a goroutine. Returns when the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("broadcast scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Bool("marketHoursOnly", s.cfg.MarketHoursOnly),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("broadcast scheduler stopping")
			return

		case <-ticker.C:
			s.tick(ctx)

		case room := <-s.poke:
			s.refreshRoom(ctx, room)
		}
	}
}

// tick makes one sequential pass over every room with at least one
// subscriber. A failing resource is skipped for this tick only.
func (s *Scheduler) tick(ctx context.Context) {
	rooms := s.hub.ActiveRooms()

	active := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		active[room] = true
		s.refreshRoom(ctx, room)
	}

	// Forget snapshots for rooms that lost all subscribers so a later
	// re-subscribe starts from a fresh full snapshot.
	for room := range s.boards {
		if !active[room] {
			delete(s.boards, room)
			delete(s.peaks, room)
		}
	}
}

func (s *Scheduler) refreshRoom(ctx context.Context, room string) {
	kind, _ := ws.SplitRoom(room)
	switch kind {
	case ws.KindStock:
		s.refreshStock(ctx, room)
	case ws.KindLeaderboard:
		s.refreshLeaderboard(ctx, room)
	}
	// User rooms only carry event-driven pushes.
}

func (s *Scheduler) refreshStock(ctx context.Context, room string) {
	symbol, ok := ws.RoomSymbol(room)
	if !ok {
		return
	}
	if s.hours != nil && !s.hours.open(time.Now()) {
		return
	}

	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	quote, err := s.stocks.Quote(fctx, symbol)
	cancel()
	if err != nil {
		s.logger.Debug("quote fetch failed, skipping this tick",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return
	}

	s.hub.Broadcast(room, ws.EncodeStockUpdate(quote))
}

func (s *Scheduler) refreshLeaderboard(ctx context.Context, room string) {
	leagueID, ok := ws.RoomLeagueID(room)
	if !ok {
		return
	}

	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	members, err := s.leagues.Leaderboard(fctx, leagueID)
	cancel()
	if err != nil {
		s.logger.Debug("leaderboard fetch failed, skipping this tick",
			zap.Int64("leagueID", leagueID),
			zap.Error(err),
		)
		return
	}

	prev, seen := s.boards[room]
	if !seen {
		s.hub.Broadcast(room, ws.EncodeLeaderboard(ws.TypeLeaderboardSnapshot, leagueID, members, time.Now().UnixMilli()))
		s.boards[room] = members
		s.seedPeaks(room, members)
		return
	}

	changes := DiffBoards(prev, members)
	if changes.Empty() {
		s.boards[room] = members
		return
	}

	s.hub.Broadcast(room, ws.EncodeLeaderboardUpdate(leagueID, members, changes))
	for _, rc := range changes.RankChanges {
		s.hub.Broadcast(room, ws.EncodeRankAlert(leagueID, rc))
	}
	s.emitMilestones(room, leagueID, prev, members)

	s.boards[room] = members
	s.advancePeaks(room, members)
}

// emitMilestones fires at most one milestone_alert per member per
// transition.
func (s *Scheduler) emitMilestones(room string, leagueID int64, prev, fresh []model.LeaderboardMember) {
	before := make(map[int64]model.LeaderboardMember, len(prev))
	for _, m := range prev {
		before[m.UserID] = m
	}
	peaks := s.peaks[room]

	for _, m := range fresh {
		old, ok := before[m.UserID]
		if !ok {
			continue
		}
		milestone, ok := DetectMilestone(old, m, peaks[m.UserID])
		if !ok {
			continue
		}
		s.hub.Broadcast(room, ws.EncodeMilestoneAlert(leagueID, m.UserID, milestone))
	}
}

func (s *Scheduler) seedPeaks(room string, members []model.LeaderboardMember) {
	peaks := make(map[int64]float64, len(members))
	for _, m := range members {
		peaks[m.UserID] = m.TotalValue
	}
	s.peaks[room] = peaks
}

func (s *Scheduler) advancePeaks(room string, members []model.LeaderboardMember) {
	peaks := s.peaks[room]
	if peaks == nil {
		s.seedPeaks(room, members)
		return
	}
	for _, m := range members {
		if m.TotalValue > peaks[m.UserID] {
			peaks[m.UserID] = m.TotalValue
		}
	}
}
