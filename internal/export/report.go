package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/trustllm/eaas/internal/aggregate"
)

// ReportRow is the presentational projection of one model in a
// model-grouped comparison.
type ReportRow struct {
	ModelID        string  `json:"model_id"`
	Jobs           int     `json:"jobs"`
	AggregateScore float64 `json:"aggregate_score"`
	Evaluations    int     `json:"evaluations"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
	AvgCostUSD     float64 `json:"avg_cost_usd"`
}

// ReportRows reduces a model-grouped comparison to one row per model.
// The aggregate score is the mean of every metric score across the
// model's job entries.
func ReportRows(c *aggregate.Comparison) []ReportRow {
	var rows []ReportRow
	for _, mc := range c.ByModel {
		row := ReportRow{
			ModelID:      mc.ModelID,
			Jobs:         len(mc.Jobs),
			Evaluations:  mc.Aggregate.EvaluationsCount,
			AvgLatencyMs: mc.Aggregate.AvgLatencyMs,
			AvgCostUSD:   mc.Aggregate.AvgCostUSD,
		}
		var sum float64
		var n int
		for _, entry := range mc.Jobs {
			for _, m := range entry.Metrics {
				sum += m.Score
				n++
			}
		}
		if n > 0 {
			row.AggregateScore = sum / float64(n)
		}
		rows = append(rows, row)
	}
	return rows
}

// Report renders a comparison summary as table, markdown or json.
// Only model-grouped comparisons have a tabular projection; other
// groupings fall back to the json document.
func Report(c *aggregate.Comparison, format string, w io.Writer) error {
	if c.GroupBy != aggregate.GroupByModel && format != "json" {
		return writeJSON(w, c)
	}
	switch format {
	case "markdown":
		return reportMarkdown(ReportRows(c), w)
	case "json":
		return writeJSON(w, c)
	default:
		return reportTable(ReportRows(c), w)
	}
}

func reportTable(rows []ReportRow, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tJOBS\tSCORE\tEVALS\tAVG LATENCY\tAVG COST")
	fmt.Fprintln(tw, strings.Repeat("-", 72))
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%d\t%.0fms\t$%.4f\n",
			r.ModelID, r.Jobs, r.AggregateScore, r.Evaluations, r.AvgLatencyMs, r.AvgCostUSD)
	}
	return tw.Flush()
}

func reportMarkdown(rows []ReportRow, w io.Writer) error {
	fmt.Fprintln(w, "| Model | Jobs | Score | Evals | Avg Latency | Avg Cost |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|")
	for _, r := range rows {
		fmt.Fprintf(w, "| %s | %d | %.3f | %d | %.0fms | $%.4f |\n",
			r.ModelID, r.Jobs, r.AggregateScore, r.Evaluations, r.AvgLatencyMs, r.AvgCostUSD)
	}
	return nil
}
