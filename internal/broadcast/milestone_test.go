package broadcast

import (
	"testing"

	"github.com/Simply-Ryan/stockleague/internal/model"
)

func TestDetectMilestoneFirstPlaceWinsPriority(t *testing.T) {
	// One transition crossing every milestone at once reports only
	// first_place.
	old := model.LeaderboardMember{UserID: 1, Rank: 4, TotalValue: 9000, ProfitLoss: -1000}
	fresh := model.LeaderboardMember{UserID: 1, Rank: 1, TotalValue: 13000, ProfitLoss: 3000, ReturnPct: 30}

	milestone, ok := DetectMilestone(old, fresh, 10000)
	if !ok {
		t.Fatal("expected a milestone")
	}
	if milestone.Type != MilestoneFirstPlace {
		t.Fatalf("expected %s, got %s", MilestoneFirstPlace, milestone.Type)
	}
	if milestone.Data["old_rank"] != 4 || milestone.Data["new_rank"] != 1 {
		t.Errorf("unexpected milestone data: %+v", milestone.Data)
	}
}

func TestDetectMilestoneTopThree(t *testing.T) {
	old := model.LeaderboardMember{UserID: 1, Rank: 5, TotalValue: 10000}
	fresh := model.LeaderboardMember{UserID: 1, Rank: 3, TotalValue: 10000}

	milestone, ok := DetectMilestone(old, fresh, 10000)
	if !ok || milestone.Type != MilestoneTopThree {
		t.Fatalf("expected top_three, got %+v ok=%v", milestone, ok)
	}
}

func TestDetectMilestoneNewHigh(t *testing.T) {
	old := model.LeaderboardMember{UserID: 1, Rank: 2, TotalValue: 10000, ProfitLoss: 500}
	fresh := model.LeaderboardMember{UserID: 1, Rank: 2, TotalValue: 10500, ProfitLoss: 1000}

	milestone, ok := DetectMilestone(old, fresh, 10200)
	if !ok || milestone.Type != MilestoneNewHigh {
		t.Fatalf("expected new_high, got %+v ok=%v", milestone, ok)
	}
	if milestone.Data["previous_high"] != 10200.0 {
		t.Errorf("unexpected previous_high: %v", milestone.Data["previous_high"])
	}
}

func TestDetectMilestonePositiveReturn(t *testing.T) {
	old := model.LeaderboardMember{UserID: 1, Rank: 2, TotalValue: 9900, ProfitLoss: -100}
	fresh := model.LeaderboardMember{UserID: 1, Rank: 2, TotalValue: 10050, ProfitLoss: 50, ReturnPct: 0.5}

	// Peak above the new value so new_high does not mask the return flip.
	milestone, ok := DetectMilestone(old, fresh, 10100)
	if !ok || milestone.Type != MilestonePositiveReturn {
		t.Fatalf("expected positive_return, got %+v ok=%v", milestone, ok)
	}
}

func TestDetectMilestoneNoTransition(t *testing.T) {
	cases := []struct {
		name     string
		old      model.LeaderboardMember
		fresh    model.LeaderboardMember
		prevHigh float64
	}{
		{
			name:     "holding first place",
			old:      model.LeaderboardMember{Rank: 1, TotalValue: 12000, ProfitLoss: 2000},
			fresh:    model.LeaderboardMember{Rank: 1, TotalValue: 11900, ProfitLoss: 1900},
			prevHigh: 12000,
		},
		{
			name:     "staying in top three",
			old:      model.LeaderboardMember{Rank: 2, TotalValue: 11000, ProfitLoss: 1000},
			fresh:    model.LeaderboardMember{Rank: 3, TotalValue: 10900, ProfitLoss: 900},
			prevHigh: 11000,
		},
		{
			name:     "still underwater",
			old:      model.LeaderboardMember{Rank: 5, TotalValue: 9000, ProfitLoss: -1000},
			fresh:    model.LeaderboardMember{Rank: 5, TotalValue: 8900, ProfitLoss: -1100},
			prevHigh: 10000,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if m, ok := DetectMilestone(tc.old, tc.fresh, tc.prevHigh); ok {
				t.Errorf("expected no milestone, got %+v", m)
			}
		})
	}
}
