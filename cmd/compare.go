package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/trustllm/eaas/internal/aggregate"
	"github.com/trustllm/eaas/internal/export"
)

var (
	flagGroupBy string
	flagMetrics []string
	flagFormat  string
	flagOut     string
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <job-id> <job-id> [job-id...]",
		Short: "Compare results across completed jobs",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openEnv()
			if err != nil {
				return err
			}
			cmp, err := aggregate.NewEngine(s).Compare(
				cmd.Context(), args, aggregate.GroupBy(flagGroupBy), flagMetrics)
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if flagOut != "" {
				f, err := os.Create(flagOut)
				if err != nil {
					return fmt.Errorf("creating %s: %w", flagOut, err)
				}
				defer f.Close()
				w = f
			}
			switch flagFormat {
			case "table", "markdown":
				return export.Report(cmp, flagFormat, w)
			default:
				return export.Comparison(w, cmp, flagFormat)
			}
		},
	}
	cmd.Flags().StringVar(&flagGroupBy, "group-by", "model", "grouping: model, prompt or metric")
	cmd.Flags().StringSliceVar(&flagMetrics, "metrics", nil, "restrict metric grouping to these metrics")
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (table, markdown, json, csv, html)")
	cmd.Flags().StringVar(&flagOut, "out", "", "write to a file instead of stdout")
	return cmd
}
