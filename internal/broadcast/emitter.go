package broadcast

import (
	"time"

	"go.uber.org/zap"

	"github.com/Simply-Ryan/stockleague/internal/model"
	"github.com/Simply-Ryan/stockleague/internal/ws"
)

// Refresher accepts out-of-band refresh requests for a room.
type Refresher interface {
	Poke(room string)
}

// Emitter pushes immediate notifications on the calling request path
// when the CRUD layer commits a trade, reaction, or membership change.
// Delivery is best-effort and never blocks beyond the hub's buffered
// fan-out: a broadcast failure is logged and swallowed, never returned,
// so it cannot roll back the committed business operation. There is no
// replay; clients that were offline request a fresh snapshot on
// reconnect.
type Emitter struct {
	hub    Broadcaster
	sched  Refresher
	logger *zap.Logger
}

// NewEmitter creates an Emitter. sched may be nil when no scheduler is
// wired, in which case leaderboard changes wait for the next tick.
func NewEmitter(hub Broadcaster, sched Refresher, logger *zap.Logger) *Emitter {
	return &Emitter{hub: hub, sched: sched, logger: logger}
}

// OrderExecuted confirms a filled order to the trading user.
func (e *Emitter) OrderExecuted(userID int64, order model.Order) {
	if order.Timestamp == 0 {
		order.Timestamp = time.Now().UnixMilli()
	}
	e.emit(ws.UserRoom(userID), ws.EncodeOrderExecuted(order))
}

// PortfolioUpdated pushes a fresh portfolio view to one user.
func (e *Emitter) PortfolioUpdated(userID int64, portfolio model.Portfolio) {
	e.emit(ws.UserRoom(userID), ws.EncodePortfolioUpdate(portfolio))
}

// LeaderboardChanged nudges the scheduler to refresh a league's room
// ahead of the next tick. Called after trades, membership changes, or
// anything else that moved member values.
func (e *Emitter) LeaderboardChanged(leagueID int64) {
	if e.sched == nil {
		return
	}
	e.sched.Poke(ws.LeaderboardRoom(leagueID))
}

// Emit broadcasts a prebuilt frame to a room. Escape hatch for event
// kinds without a typed helper, such as reaction notifications.
func (e *Emitter) Emit(room string, payload []byte) {
	e.emit(room, payload)
}

func (e *Emitter) emit(room string, payload []byte) {
	if room == "" || len(payload) == 0 {
		e.logger.Debug("dropping empty emit", zap.String("room", room))
		return
	}
	e.hub.Broadcast(room, payload)
}
