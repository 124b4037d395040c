package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trustllm/eaas/internal/leaderboard"
)

var (
	flagBoardMetric    string
	flagBoardProviders []string
	flagBoardLimit     int
	flagBoardJSON      bool
)

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank models by aggregate score across completed jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openEnv()
			if err != nil {
				return err
			}
			board, err := leaderboard.NewEngine(s).Build(leaderboard.Options{
				Metric:    flagBoardMetric,
				Providers: flagBoardProviders,
				Limit:     flagBoardLimit,
			})
			if err != nil {
				return err
			}
			if flagBoardJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(board)
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tMODEL\tPROVIDER\tSCORE\tEVALS\tTOKENS\tAVG LATENCY\tCOST/1K TOK")
			fmt.Fprintln(tw, strings.Repeat("-", 90))
			for _, r := range board {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%.3f\t%d\t%d\t%.0fms\t$%.4f\n",
					r.Rank, r.ModelID, r.Provider, r.Score,
					r.EvaluationsCount, r.TotalTokensProcessed,
					r.AvgLatencyMs, r.AvgCostPer1kTokens)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&flagBoardMetric, "metric", "", "score a single metric instead of all")
	cmd.Flags().StringSliceVar(&flagBoardProviders, "providers", nil, "restrict to these providers")
	cmd.Flags().IntVar(&flagBoardLimit, "limit", 10, "maximum rows")
	cmd.Flags().BoolVar(&flagBoardJSON, "json", false, "emit JSON instead of a table")
	return cmd
}
