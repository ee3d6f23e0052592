package broadcast

import "github.com/Simply-Ryan/stockleague/internal/model"

// DiffBoards compares two consecutive snapshots of the same
// leaderboard and reports every rank and value movement. Members that
// appear in only one snapshot are skipped: there is no old state to
// compare against.
func DiffBoards(old, fresh []model.LeaderboardMember) model.Changes {
	prev := make(map[int64]model.LeaderboardMember, len(old))
	for _, m := range old {
		prev[m.UserID] = m
	}

	var changes model.Changes
	for _, m := range fresh {
		before, ok := prev[m.UserID]
		if !ok {
			continue
		}
		if before.Rank != m.Rank {
			changes.RankChanges = append(changes.RankChanges, model.RankChange{
				UserID:       m.UserID,
				Username:     m.Username,
				OldRank:      before.Rank,
				NewRank:      m.Rank,
				RankMovement: before.Rank - m.Rank,
			})
		}
		if before.TotalValue != m.TotalValue {
			changes.ValueChanges = append(changes.ValueChanges, model.ValueChange{
				UserID:   m.UserID,
				OldValue: before.TotalValue,
				NewValue: m.TotalValue,
				Change:   m.TotalValue - before.TotalValue,
			})
		}
	}
	return changes
}
