// Package export projects jobs and comparisons into flat rows and
// rendered documents.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strconv"

	"github.com/trustllm/eaas/internal/aggregate"
	"github.com/trustllm/eaas/internal/job"
)

// JobRow is one scored evaluation: a (model, prompt, metric) cell of
// a single job's result.
type JobRow struct {
	JobID     string  `json:"job_id"`
	ModelID   string  `json:"model_id"`
	PromptID  string  `json:"prompt_id"`
	Metric    string  `json:"metric"`
	Score     float64 `json:"score"`
	LatencyMs int64   `json:"latency_ms"`
	CostUSD   float64 `json:"cost_usd"`
}

// JobRows flattens a job's result, iterating models, then metrics,
// then each metric's per-prompt scores. A row is emitted only for
// prompt ids the metric actually scored; latency and cost come from
// the model's output for that prompt.
func JobRows(j *job.Job) []JobRow {
	if j.Results == nil {
		return nil
	}
	var rows []JobRow
	for _, modelID := range aggregate.ModelOrder(j) {
		mr := j.Results.ModelResults[modelID]
		outputs := map[string]job.Output{}
		for _, o := range mr.Outputs {
			outputs[o.PromptID] = o
		}
		for _, name := range aggregate.MetricOrder(j, mr) {
			m := mr.Metrics[name]
			for _, promptID := range aggregate.PromptScoreOrder(j, m) {
				row := JobRow{
					JobID:    j.ID,
					ModelID:  modelID,
					PromptID: promptID,
					Metric:   name,
					Score:    m.PerPromptScores[promptID],
				}
				if o, ok := outputs[promptID]; ok {
					row.LatencyMs = o.LatencyMs
					row.CostUSD = o.CostUSD
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// ComparisonRow is one (model, metric, job) score cell of a
// model-grouped comparison.
type ComparisonRow struct {
	ModelID string  `json:"model_id"`
	Metric  string  `json:"metric"`
	Score   float64 `json:"score"`
	JobID   string  `json:"job_id"`
	JobName string  `json:"job_name"`
}

// ComparisonRows flattens a model-grouped comparison. Metric names
// within an entry are sorted; models and job entries keep comparison
// order.
func ComparisonRows(c *aggregate.Comparison) ([]ComparisonRow, error) {
	if c.GroupBy != aggregate.GroupByModel {
		return nil, fmt.Errorf("%w: row export needs a model-grouped comparison, got %q", job.ErrValidation, c.GroupBy)
	}
	var rows []ComparisonRow
	for _, mc := range c.ByModel {
		for _, entry := range mc.Jobs {
			names := make([]string, 0, len(entry.Metrics))
			for name := range entry.Metrics {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				rows = append(rows, ComparisonRow{
					ModelID: mc.ModelID,
					Metric:  name,
					Score:   entry.Metrics[name].Score,
					JobID:   entry.JobID,
					JobName: entry.JobName,
				})
			}
		}
	}
	return rows, nil
}

// Job writes a job in the requested format: json, csv or html.
func Job(w io.Writer, j *job.Job, format string) error {
	switch format {
	case "json":
		return writeJSON(w, j)
	case "csv":
		return jobCSV(w, j)
	case "html":
		return jobHTML(w, j)
	default:
		return fmt.Errorf("%w: unknown export format %q", job.ErrValidation, format)
	}
}

// Comparison writes a comparison in the requested format: json, csv
// (model-grouped only) or html.
func Comparison(w io.Writer, c *aggregate.Comparison, format string) error {
	switch format {
	case "json":
		return writeJSON(w, c)
	case "csv":
		return comparisonCSV(w, c)
	case "html":
		return comparisonHTML(w, c)
	default:
		return fmt.Errorf("%w: unknown export format %q", job.ErrValidation, format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func jobCSV(w io.Writer, j *job.Job) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"job_id", "model_id", "prompt_id", "metric", "score", "latency_ms", "cost_usd"}); err != nil {
		return err
	}
	for _, r := range JobRows(j) {
		rec := []string{
			r.JobID,
			r.ModelID,
			r.PromptID,
			r.Metric,
			strconv.FormatFloat(r.Score, 'f', -1, 64),
			strconv.FormatInt(r.LatencyMs, 10),
			strconv.FormatFloat(r.CostUSD, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func comparisonCSV(w io.Writer, c *aggregate.Comparison) error {
	rows, err := ComparisonRows(c)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"model_id", "metric", "score", "job_id", "job_name"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.ModelID,
			r.Metric,
			strconv.FormatFloat(r.Score, 'f', -1, 64),
			r.JobID,
			r.JobName,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var jobTmpl = template.Must(template.New("job").Parse(`<!DOCTYPE html>
<html><head><title>Evaluation {{.Job.Name}}</title></head><body>
<h1>{{.Job.Name}}</h1>
<p>Job {{.Job.ID}}, status {{.Job.Status}}</p>
<table border="1">
<tr><th>Model</th><th>Prompt</th><th>Metric</th><th>Score</th><th>Latency (ms)</th><th>Cost (USD)</th></tr>
{{range .Rows}}<tr><td>{{.ModelID}}</td><td>{{.PromptID}}</td><td>{{.Metric}}</td><td>{{printf "%.4f" .Score}}</td><td>{{.LatencyMs}}</td><td>{{printf "%.4f" .CostUSD}}</td></tr>
{{end}}</table>
</body></html>
`))

func jobHTML(w io.Writer, j *job.Job) error {
	return jobTmpl.Execute(w, struct {
		Job  *job.Job
		Rows []JobRow
	}{j, JobRows(j)})
}

var comparisonTmpl = template.Must(template.New("comparison").Parse(`<!DOCTYPE html>
<html><head><title>Comparison</title></head><body>
<h1>Comparison ({{.GroupBy}})</h1>
<p>Jobs: {{range .JobsCompared}}{{.Name}} ({{.ID}}) {{end}}</p>
{{if .ByModel}}<table border="1">
<tr><th>Model</th><th>Jobs</th><th>Evaluations</th><th>Avg latency (ms)</th><th>Avg cost (USD)</th><th>Avg success rate</th></tr>
{{range .ByModel}}<tr><td>{{.ModelID}}</td><td>{{len .Jobs}}</td><td>{{.Aggregate.EvaluationsCount}}</td><td>{{printf "%.1f" .Aggregate.AvgLatencyMs}}</td><td>{{printf "%.4f" .Aggregate.AvgCostUSD}}</td><td>{{printf "%.3f" .Aggregate.AvgSuccessRate}}</td></tr>
{{end}}</table>{{end}}
</body></html>
`))

func comparisonHTML(w io.Writer, c *aggregate.Comparison) error {
	return comparisonTmpl.Execute(w, c)
}
