package league

import (
	"sort"

	"github.com/Simply-Ryan/stockleague/internal/model"
)

// Rank orders members by total value descending and assigns 1-based
// ranks. Equal totals fall back to ascending user id; the tie-break is
// a fixed policy so rankings stay stable across refreshes instead of
// flapping between equally valued members. The input is not modified.
func Rank(members []model.LeaderboardMember) []model.LeaderboardMember {
	ranked := make([]model.LeaderboardMember, len(members))
	copy(ranked, members)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalValue != ranked[j].TotalValue {
			return ranked[i].TotalValue > ranked[j].TotalValue
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
