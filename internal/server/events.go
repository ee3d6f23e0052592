package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Simply-Ryan/stockleague/internal/broadcast"
	"github.com/Simply-Ryan/stockleague/internal/model"
)

// Event kinds accepted on the internal events endpoint.
const (
	EventOrderExecuted      = "order_executed"
	EventPortfolioUpdated   = "portfolio_updated"
	EventLeaderboardChanged = "leaderboard_changed"
)

// eventRequest is what the trade/reaction/membership services post
// after committing a change. The committing transaction has already
// succeeded by the time this arrives; this endpoint only fans the news
// out and therefore always answers 202 for well-formed events.
type eventRequest struct {
	Kind      string           `json:"kind"`
	UserID    int64            `json:"user_id,omitempty"`
	LeagueID  int64            `json:"league_id,omitempty"`
	Order     *model.Order     `json:"order,omitempty"`
	Portfolio *model.Portfolio `json:"portfolio,omitempty"`
}

func eventsHandler(emitter *broadcast.Emitter, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req eventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid event payload", http.StatusBadRequest)
			return
		}

		switch req.Kind {
		case EventOrderExecuted:
			if req.UserID <= 0 || req.Order == nil {
				http.Error(w, "order_executed requires user_id and order", http.StatusBadRequest)
				return
			}
			emitter.OrderExecuted(req.UserID, *req.Order)
			if req.LeagueID > 0 {
				emitter.LeaderboardChanged(req.LeagueID)
			}

		case EventPortfolioUpdated:
			if req.UserID <= 0 || req.Portfolio == nil {
				http.Error(w, "portfolio_updated requires user_id and portfolio", http.StatusBadRequest)
				return
			}
			emitter.PortfolioUpdated(req.UserID, *req.Portfolio)

		case EventLeaderboardChanged:
			if req.LeagueID <= 0 {
				http.Error(w, "leaderboard_changed requires league_id", http.StatusBadRequest)
				return
			}
			emitter.LeaderboardChanged(req.LeagueID)

		default:
			logger.Debug("unknown event kind", zap.String("kind", req.Kind))
			http.Error(w, "unknown event kind", http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusAccepted)
	}
}
