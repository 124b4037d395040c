// Package aggregate groups and aggregates results across completed
// jobs, pivoted by model, by prompt, or by metric.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trustllm/eaas/internal/job"
	"github.com/trustllm/eaas/internal/store"
)

type Engine struct {
	store *store.Store
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Compare loads the given jobs and folds their results into a single
// comparison. Jobs that cannot be loaded are dropped; fewer than two
// loadable jobs is ErrInsufficientJobs. Jobs without a published
// result contribute nothing to the grouping.
func (e *Engine) Compare(ctx context.Context, jobIDs []string, groupBy GroupBy, metricFilter []string) (*Comparison, error) {
	switch groupBy {
	case GroupByModel, GroupByPrompt, GroupByMetric:
	default:
		return nil, fmt.Errorf("%w: unknown group_by %q", job.ErrValidation, groupBy)
	}
	ids := distinct(jobIDs)
	if len(ids) < 2 {
		return nil, fmt.Errorf("%w: comparison requires at least 2 distinct job ids", job.ErrValidation)
	}

	jobs, err := e.loadJobs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(jobs) < 2 {
		return nil, fmt.Errorf("%w: %d of %d jobs loadable", job.ErrInsufficientJobs, len(jobs), len(ids))
	}

	cmp := &Comparison{
		GroupBy:     groupBy,
		GeneratedAt: time.Now().UTC(),
	}
	for _, j := range jobs {
		cmp.JobsCompared = append(cmp.JobsCompared, JobRef{ID: j.ID, Name: j.Name})
	}
	cmp.MetricsIncluded = metricsIncluded(jobs, groupBy, metricFilter)

	switch groupBy {
	case GroupByModel:
		cmp.ByModel = byModel(jobs)
	case GroupByPrompt:
		cmp.ByPrompt = byPrompt(jobs)
	case GroupByMetric:
		cmp.ByMetric = byMetric(jobs, metricFilter)
	}
	return cmp, nil
}

// loadJobs fetches jobs concurrently; each load is an independent
// read with no shared mutable state, so the fan-out is safe. Failed
// loads leave a nil slot and are filtered out in input order.
func (e *Engine) loadJobs(ctx context.Context, ids []string) ([]*job.Job, error) {
	loaded := make([]*job.Job, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			j, err := e.store.Get(id)
			if err != nil {
				return nil
			}
			loaded[i] = j
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	jobs := loaded[:0]
	for _, j := range loaded {
		if j != nil {
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}

func byModel(jobs []*job.Job) []*ModelComparison {
	index := map[string]*ModelComparison{}
	var out []*ModelComparison
	for _, j := range jobs {
		if j.Results == nil {
			continue
		}
		for _, modelID := range ModelOrder(j) {
			mr := j.Results.ModelResults[modelID]
			mc, ok := index[modelID]
			if !ok {
				mc = &ModelComparison{ModelID: modelID}
				index[modelID] = mc
				out = append(out, mc)
			}
			mc.Jobs = append(mc.Jobs, ModelJobEntry{
				JobID:       j.ID,
				JobName:     j.Name,
				Evaluations: len(mr.Outputs),
				Metrics:     mr.Metrics,
				Performance: mr.Performance,
			})
		}
	}
	for _, mc := range out {
		n := float64(len(mc.Jobs))
		var agg ModelAggregate
		for _, entry := range mc.Jobs {
			agg.AvgLatencyMs += entry.Performance.AverageLatencyMs
			agg.AvgCostUSD += entry.Performance.TotalCostUSD
			agg.AvgSuccessRate += entry.Performance.SuccessRate
			agg.TotalTokensProcessed += entry.Performance.TotalTokens
			agg.EvaluationsCount += entry.Evaluations
		}
		if n > 0 {
			agg.AvgLatencyMs /= n
			agg.AvgCostUSD /= n
			agg.AvgSuccessRate /= n
		}
		mc.Aggregate = agg
	}
	return out
}

func byPrompt(jobs []*job.Job) []*PromptComparison {
	index := map[string]*PromptComparison{}
	var out []*PromptComparison
	for _, j := range jobs {
		for _, p := range j.Prompts {
			pc, ok := index[p.ID]
			if !ok {
				pc = &PromptComparison{PromptID: p.ID, Text: p.Text}
				index[p.ID] = pc
				out = append(out, pc)
			}
			if j.Results == nil {
				continue
			}
			for _, modelID := range ModelOrder(j) {
				mr := j.Results.ModelResults[modelID]
				output, found := findOutput(mr.Outputs, p.ID)
				if !found {
					// no zero-fill for prompts the model never answered
					continue
				}
				scores := map[string]float64{}
				for _, name := range MetricOrder(j, mr) {
					if s, ok := mr.Metrics[name].PerPromptScores[p.ID]; ok {
						scores[name] = s
					}
				}
				pc.Entries = append(pc.Entries, PromptEntry{
					JobID:     j.ID,
					JobName:   j.Name,
					ModelID:   modelID,
					Output:    output.Output,
					LatencyMs: output.LatencyMs,
					Tokens:    output.Tokens,
					CostUSD:   output.CostUSD,
					Scores:    scores,
				})
			}
		}
	}
	return out
}

func byMetric(jobs []*job.Job, metricFilter []string) []*MetricComparison {
	wanted := map[string]bool{}
	for _, name := range metricFilter {
		wanted[name] = true
	}
	index := map[string]*MetricComparison{}
	var out []*MetricComparison
	for _, j := range jobs {
		if j.Results == nil {
			continue
		}
		for _, modelID := range ModelOrder(j) {
			mr := j.Results.ModelResults[modelID]
			for _, name := range MetricOrder(j, mr) {
				if len(wanted) > 0 && !wanted[name] {
					continue
				}
				m := mr.Metrics[name]
				mc, ok := index[name]
				if !ok {
					mc = &MetricComparison{Metric: name}
					index[name] = mc
					out = append(out, mc)
				}
				mc.Scores = append(mc.Scores, MetricScore{
					JobID:   j.ID,
					JobName: j.Name,
					ModelID: modelID,
					Score:   m.Score,
					Details: m.Details,
				})
			}
		}
	}
	return out
}

func metricsIncluded(jobs []*job.Job, groupBy GroupBy, metricFilter []string) []string {
	wanted := map[string]bool{}
	for _, name := range metricFilter {
		wanted[name] = true
	}
	seen := map[string]bool{}
	var names []string
	for _, j := range jobs {
		for _, name := range j.MetricNames() {
			if seen[name] {
				continue
			}
			if groupBy == GroupByMetric && len(wanted) > 0 && !wanted[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// ModelOrder returns the ids present in a job's result, following the
// job's declared model order. Result-only ids the job never declared
// come last, sorted. JSON objects do not preserve member order, so
// this is what pins "encounter order" down deterministically.
func ModelOrder(j *job.Job) []string {
	if j.Results == nil {
		return nil
	}
	declared := map[string]bool{}
	var ids []string
	for _, id := range j.ModelIDs() {
		declared[id] = true
		if _, ok := j.Results.ModelResults[id]; ok {
			ids = append(ids, id)
		}
	}
	var extra []string
	for id := range j.Results.ModelResults {
		if !declared[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(ids, extra...)
}

// MetricOrder is ModelOrder's counterpart for a model result's
// metric map.
func MetricOrder(j *job.Job, mr job.ModelResult) []string {
	declared := map[string]bool{}
	var names []string
	for _, name := range j.MetricNames() {
		declared[name] = true
		if _, ok := mr.Metrics[name]; ok {
			names = append(names, name)
		}
	}
	var extra []string
	for name := range mr.Metrics {
		if !declared[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// PromptScoreOrder orders a metric's per-prompt score keys by the
// job's declared prompt order, unknown prompt ids sorted last.
func PromptScoreOrder(j *job.Job, m job.MetricResult) []string {
	declared := map[string]bool{}
	var ids []string
	for _, id := range j.PromptIDs() {
		declared[id] = true
		if _, ok := m.PerPromptScores[id]; ok {
			ids = append(ids, id)
		}
	}
	var extra []string
	for id := range m.PerPromptScores {
		if !declared[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(ids, extra...)
}

func findOutput(outputs []job.Output, promptID string) (job.Output, bool) {
	for _, o := range outputs {
		if o.PromptID == promptID {
			return o, true
		}
	}
	return job.Output{}, false
}

func distinct(ids []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
