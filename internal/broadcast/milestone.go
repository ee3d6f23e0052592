package broadcast

import "github.com/Simply-Ryan/stockleague/internal/model"

// Milestone types, in priority order.
const (
	MilestoneFirstPlace     = "first_place"
	MilestoneTopThree       = "top_three"
	MilestoneNewHigh        = "new_high"
	MilestonePositiveReturn = "positive_return"
)

// DetectMilestone compares a member's previous and new state and
// returns the single milestone the transition crossed, if any. A
// transition satisfying several milestones reports only the highest
// priority one: first_place, then top_three, then new_high, then
// positive_return. prevHigh is the member's best total value seen
// before this transition.
func DetectMilestone(old, fresh model.LeaderboardMember, prevHigh float64) (model.Milestone, bool) {
	switch {
	case fresh.Rank == 1 && old.Rank != 1:
		return model.Milestone{
			Type: MilestoneFirstPlace,
			Data: map[string]any{
				"old_rank": old.Rank,
				"new_rank": fresh.Rank,
			},
		}, true

	case fresh.Rank <= 3 && old.Rank > 3:
		return model.Milestone{
			Type: MilestoneTopThree,
			Data: map[string]any{
				"old_rank": old.Rank,
				"new_rank": fresh.Rank,
			},
		}, true

	case fresh.TotalValue > prevHigh:
		return model.Milestone{
			Type: MilestoneNewHigh,
			Data: map[string]any{
				"total_value":   fresh.TotalValue,
				"previous_high": prevHigh,
			},
		}, true

	case old.ProfitLoss <= 0 && fresh.ProfitLoss > 0:
		return model.Milestone{
			Type: MilestonePositiveReturn,
			Data: map[string]any{
				"profit_loss": fresh.ProfitLoss,
				"return_pct":  fresh.ReturnPct,
			},
		}, true
	}

	return model.Milestone{}, false
}
