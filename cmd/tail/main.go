// Command tail follows live updates from a realtime server: it
// subscribes to the given symbols and leagues and prints every push.
// Handy for eyeballing what connected browsers would see.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simply-Ryan/stockleague/internal/client"
	"github.com/Simply-Ryan/stockleague/internal/model"
	"github.com/Simply-Ryan/stockleague/internal/ws"
)

var (
	serverURL string
	symbols   []string
	leagues   []int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow live stock and leaderboard updates",
		RunE:  runTail,
	}

	rootCmd.Flags().StringVar(&serverURL, "url", "ws://localhost:8090/ws", "realtime server WebSocket URL")
	rootCmd.Flags().StringSliceVar(&symbols, "symbols", nil, "stock symbols to watch")
	rootCmd.Flags().Int64SliceVar(&leagues, "leagues", nil, "league ids to watch")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTail(cmd *cobra.Command, _ []string) error {
	if len(symbols) == 0 && len(leagues) == 0 {
		return fmt.Errorf("nothing to watch: pass --symbols and/or --leagues")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	handlers := client.Handlers{
		OnStockUpdate: func(u ws.StockUpdate) {
			fmt.Printf("%-6s %10.2f  %+6.2f%%  vol %d\n", u.Symbol, u.Price, u.ChangePercent, u.Volume)
		},
		OnLeaderboard: func(l ws.Leaderboard) {
			fmt.Printf("league %d snapshot (%d members)\n", l.LeagueID, len(l.Members))
			printMembers(l.Members)
		},
		OnLeaderboardUpdate: func(u ws.LeaderboardUpdate) {
			fmt.Printf("league %d update: %d rank changes, %d value changes\n",
				u.LeagueID, len(u.Changes.RankChanges), len(u.Changes.ValueChanges))
			printMembers(u.Members)
		},
		OnRankAlert: func(a ws.RankAlert) {
			fmt.Printf("league %d: user %d rank %d -> %d\n",
				a.LeagueID, a.UserID, a.AlertData.OldRank, a.AlertData.NewRank)
		},
		OnMilestoneAlert: func(a ws.MilestoneAlert) {
			fmt.Printf("league %d: user %d milestone %s\n", a.LeagueID, a.UserID, a.Type)
		},
		OnError: func(msg string) {
			fmt.Printf("server error: %s\n", msg)
		},
	}

	c := client.New(serverURL, handlers, logger)
	for _, symbol := range symbols {
		c.SubscribeStock(symbol)
	}
	for _, leagueID := range leagues {
		c.SubscribeLeaderboard(leagueID)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return c.Run(ctx)
}

func printMembers(members []model.LeaderboardMember) {
	for _, m := range members {
		fmt.Printf("  #%-3d %-20s %12.2f  %+10.2f  %+6.2f%%\n",
			m.Rank, m.Username, m.TotalValue, m.ProfitLoss, m.ReturnPct)
	}
}
