package aggregate_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/trustllm/eaas/internal/aggregate"
	"github.com/trustllm/eaas/internal/job"
	"github.com/trustllm/eaas/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

// seedJob creates a completed job with one model result per entry of
// perf, keyed by model id.
func seedJob(t *testing.T, s *store.Store, name string, perf map[string]job.Performance) *job.Job {
	t.Helper()
	cfg := &job.Config{
		Name: name,
		Prompts: []job.Prompt{
			{ID: "p1", Text: "What is 2+2?"},
			{ID: "p2", Text: "Name a prime number."},
		},
		Metrics: []job.MetricSpec{
			{Name: "exact_match", Type: "exact_match"},
			{Name: "bleu", Type: "bleu"},
		},
	}
	for _, id := range []string{"m1", "m2"} {
		if _, ok := perf[id]; ok {
			cfg.Models = append(cfg.Models, job.ModelSpec{ID: id, Provider: "groq", ModelName: id})
		}
	}
	cfg.ApplyDefaults()
	j, err := s.Create(cfg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res := &job.Result{JobID: j.ID, ModelResults: map[string]job.ModelResult{}}
	for id, p := range perf {
		res.ModelResults[id] = job.ModelResult{
			Outputs: []job.Output{
				{PromptID: "p1", Output: "4", LatencyMs: 100, Tokens: 10, CostUSD: 0.01},
				{PromptID: "p2", Output: "7", LatencyMs: 110, Tokens: 12, CostUSD: 0.01},
			},
			Metrics: map[string]job.MetricResult{
				"exact_match": {
					Name:            "exact_match",
					Score:           0.9,
					PerPromptScores: map[string]float64{"p1": 1.0, "p2": 0.8},
				},
				"bleu": {
					Name:            "bleu",
					Score:           0.5,
					PerPromptScores: map[string]float64{"p1": 0.4, "p2": 0.6},
				},
			},
			Performance: p,
		}
	}
	if err := s.SaveResult(res); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	return j
}

func TestCompareRequiresTwoDistinctIDs(t *testing.T) {
	s := newStore(t)
	e := aggregate.NewEngine(s)
	j := seedJob(t, s, "only", map[string]job.Performance{"m1": {}})

	_, err := e.Compare(context.Background(), []string{j.ID, j.ID}, aggregate.GroupByModel, nil)
	if !errors.Is(err, job.ErrValidation) {
		t.Errorf("expected ErrValidation for duplicate ids, got %v", err)
	}
}

func TestCompareInsufficientLoadableJobs(t *testing.T) {
	s := newStore(t)
	e := aggregate.NewEngine(s)
	j := seedJob(t, s, "real", map[string]job.Performance{"m1": {}})

	_, err := e.Compare(context.Background(), []string{j.ID, "no-such-job"}, aggregate.GroupByModel, nil)
	if !errors.Is(err, job.ErrInsufficientJobs) {
		t.Errorf("expected ErrInsufficientJobs, got %v", err)
	}
}

func TestCompareByModelAggregates(t *testing.T) {
	s := newStore(t)
	e := aggregate.NewEngine(s)
	j1 := seedJob(t, s, "run one", map[string]job.Performance{
		"m1": {AverageLatencyMs: 100, TotalCostUSD: 0.10, SuccessRate: 0.8, TotalTokens: 1000},
	})
	j2 := seedJob(t, s, "run two", map[string]job.Performance{
		"m1": {AverageLatencyMs: 200, TotalCostUSD: 0.30, SuccessRate: 0.6, TotalTokens: 1500},
	})

	cmp, err := e.Compare(context.Background(), []string{j1.ID, j2.ID}, aggregate.GroupByModel, nil)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(cmp.ByModel) != 1 {
		t.Fatalf("expected 1 model group, got %d", len(cmp.ByModel))
	}
	mc := cmp.ByModel[0]
	if mc.ModelID != "m1" {
		t.Errorf("model: got %q, want m1", mc.ModelID)
	}
	if len(mc.Jobs) != 2 {
		t.Fatalf("expected 2 job entries, got %d", len(mc.Jobs))
	}
	agg := mc.Aggregate
	if agg.AvgLatencyMs != 150 {
		t.Errorf("avg latency: got %v, want arithmetic mean 150", agg.AvgLatencyMs)
	}
	if math.Abs(agg.AvgSuccessRate-0.7) > 1e-9 {
		t.Errorf("avg success rate: got %v, want 0.7", agg.AvgSuccessRate)
	}
	if agg.TotalTokensProcessed != 2500 {
		t.Errorf("tokens processed: got %d, want sum 2500", agg.TotalTokensProcessed)
	}
	if agg.EvaluationsCount != 4 {
		t.Errorf("evaluations: got %d, want 4 outputs", agg.EvaluationsCount)
	}
}

func TestCompareByModelKeepsEncounterOrder(t *testing.T) {
	s := newStore(t)
	e := aggregate.NewEngine(s)
	j1 := seedJob(t, s, "both models", map[string]job.Performance{"m1": {}, "m2": {}})
	j2 := seedJob(t, s, "one model", map[string]job.Performance{"m2": {}})

	cmp, err := e.Compare(context.Background(), []string{j1.ID, j2.ID}, aggregate.GroupByModel, nil)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(cmp.ByModel) != 2 {
		t.Fatalf("expected 2 model groups, got %d", len(cmp.ByModel))
	}
	if cmp.ByModel[0].ModelID != "m1" || cmp.ByModel[1].ModelID != "m2" {
		t.Errorf("order: got [%s %s], want [m1 m2]",
			cmp.ByModel[0].ModelID, cmp.ByModel[1].ModelID)
	}
	if len(cmp.ByModel[1].Jobs) != 2 {
		t.Errorf("m2 entries: got %d, want 2", len(cmp.ByModel[1].Jobs))
	}
}

func TestCompareByPrompt(t *testing.T) {
	s := newStore(t)
	e := aggregate.NewEngine(s)
	j1 := seedJob(t, s, "run one", map[string]job.Performance{"m1": {}})
	j2 := seedJob(t, s, "run two", map[string]job.Performance{"m1": {}})

	cmp, err := e.Compare(context.Background(), []string{j1.ID, j2.ID}, aggregate.GroupByPrompt, nil)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(cmp.ByPrompt) != 2 {
		t.Fatalf("expected 2 prompt groups, got %d", len(cmp.ByPrompt))
	}
	p1 := cmp.ByPrompt[0]
	if p1.PromptID != "p1" {
		t.Errorf("first prompt: got %q, want p1", p1.PromptID)
	}
	if len(p1.Entries) != 2 {
		t.Fatalf("p1 entries: got %d, want one per job", len(p1.Entries))
	}
	entry := p1.Entries[0]
	if entry.Output != "4" {
		t.Errorf("output: got %q, want %q", entry.Output, "4")
	}
	if entry.Scores["exact_match"] != 1.0 {
		t.Errorf("exact_match score: got %v, want 1.0", entry.Scores["exact_match"])
	}
	if entry.Scores["bleu"] != 0.4 {
		t.Errorf("bleu score: got %v, want 0.4", entry.Scores["bleu"])
	}
}

func TestCompareByPromptOmitsMissingOutputs(t *testing.T) {
	s := newStore(t)
	e := aggregate.NewEngine(s)
	j1 := seedJob(t, s, "run one", map[string]job.Performance{"m1": {}})

	// j2's model never answered p2
	cfg := &job.Config{
		Name:    "sparse run",
		Prompts: []job.Prompt{{ID: "p1", Text: "q1"}, {ID: "p2", Text: "q2"}},
		Models:  []job.ModelSpec{{ID: "m1", Provider: "groq", ModelName: "m1"}},
		Metrics: []job.MetricSpec{{Name: "exact_match", Type: "exact_match"}},
	}
	cfg.ApplyDefaults()
	j2, err := s.Create(cfg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.SaveResult(&job.Result{
		JobID: j2.ID,
		ModelResults: map[string]job.ModelResult{
			"m1": {
				Outputs: []job.Output{{PromptID: "p1", Output: "yes"}},
				Metrics: map[string]job.MetricResult{
					"exact_match": {Name: "exact_match", Score: 1, PerPromptScores: map[string]float64{"p1": 1}},
				},
			},
		},
	}); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	cmp, err := e.Compare(context.Background(), []string{j1.ID, j2.ID}, aggregate.GroupByPrompt, nil)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	var p2 *aggregate.PromptComparison
	for _, pc := range cmp.ByPrompt {
		if pc.PromptID == "p2" {
			p2 = pc
		}
	}
	if p2 == nil {
		t.Fatal("expected a p2 group")
	}
	if len(p2.Entries) != 1 {
		t.Errorf("p2 entries: got %d, want 1 (sparse job omitted, not zero-filled)", len(p2.Entries))
	}
}

func TestCompareByMetricFilter(t *testing.T) {
	s := newStore(t)
	e := aggregate.NewEngine(s)
	j1 := seedJob(t, s, "run one", map[string]job.Performance{"m1": {}})
	j2 := seedJob(t, s, "run two", map[string]job.Performance{"m1": {}})

	cmp, err := e.Compare(context.Background(), []string{j1.ID, j2.ID}, aggregate.GroupByMetric, []string{"bleu"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(cmp.ByMetric) != 1 || cmp.ByMetric[0].Metric != "bleu" {
		t.Fatalf("expected only bleu, got %d groups", len(cmp.ByMetric))
	}
	if len(cmp.ByMetric[0].Scores) != 2 {
		t.Errorf("bleu scores: got %d, want one per job", len(cmp.ByMetric[0].Scores))
	}
	if got := cmp.MetricsIncluded; len(got) != 1 || got[0] != "bleu" {
		t.Errorf("metrics included: got %v, want [bleu]", got)
	}

	all, err := e.Compare(context.Background(), []string{j1.ID, j2.ID}, aggregate.GroupByMetric, nil)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(all.ByMetric) != 2 {
		t.Errorf("expected every metric without a filter, got %d", len(all.ByMetric))
	}
}

func TestCompareSkipsJobsWithoutResults(t *testing.T) {
	s := newStore(t)
	e := aggregate.NewEngine(s)
	j1 := seedJob(t, s, "done", map[string]job.Performance{"m1": {}})

	cfg := &job.Config{
		Name:    "still running",
		Prompts: []job.Prompt{{ID: "p1", Text: "q"}},
		Models:  []job.ModelSpec{{ID: "m9", Provider: "groq", ModelName: "m9"}},
		Metrics: []job.MetricSpec{{Name: "exact_match", Type: "exact_match"}},
	}
	cfg.ApplyDefaults()
	j2, err := s.Create(cfg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cmp, err := e.Compare(context.Background(), []string{j1.ID, j2.ID}, aggregate.GroupByModel, nil)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(cmp.JobsCompared) != 2 {
		t.Errorf("jobs compared: got %d, want 2", len(cmp.JobsCompared))
	}
	for _, mc := range cmp.ByModel {
		if mc.ModelID == "m9" {
			t.Error("resultless job must contribute nothing")
		}
	}
}
