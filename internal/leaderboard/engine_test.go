package leaderboard_test

import (
	"math"
	"testing"

	"github.com/trustllm/eaas/internal/job"
	"github.com/trustllm/eaas/internal/leaderboard"
	"github.com/trustllm/eaas/internal/store"
)

type model struct {
	id       string
	provider string
	score    float64
	tokens   int
	cost     float64
	latency  float64
}

func seedJob(t *testing.T, s *store.Store, name string, models []model) {
	t.Helper()
	cfg := &job.Config{
		Name:    name,
		Prompts: []job.Prompt{{ID: "p1", Text: "q"}},
		Metrics: []job.MetricSpec{{Name: "exact_match", Type: "exact_match"}},
	}
	for _, m := range models {
		cfg.Models = append(cfg.Models, job.ModelSpec{ID: m.id, Provider: m.provider, ModelName: m.id})
	}
	cfg.ApplyDefaults()
	j, err := s.Create(cfg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	res := &job.Result{JobID: j.ID, ModelResults: map[string]job.ModelResult{}}
	for _, m := range models {
		res.ModelResults[m.id] = job.ModelResult{
			Outputs: []job.Output{{PromptID: "p1", Output: "a"}},
			Metrics: map[string]job.MetricResult{
				"exact_match": {Name: "exact_match", Score: m.score, PerPromptScores: map[string]float64{"p1": m.score}},
			},
			Performance: job.Performance{
				TotalTokens:      m.tokens,
				TotalCostUSD:     m.cost,
				AverageLatencyMs: m.latency,
			},
		}
	}
	if err := s.SaveResult(res); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestBuildSortsDescending(t *testing.T) {
	s := newStore(t)
	seedJob(t, s, "run", []model{
		{id: "weak", provider: "groq", score: 0.3},
		{id: "strong", provider: "groq", score: 0.9},
		{id: "middle", provider: "together", score: 0.6},
	})

	board, err := leaderboard.NewEngine(s).Build(leaderboard.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(board))
	}
	for i, want := range []string{"strong", "middle", "weak"} {
		if board[i].ModelID != want {
			t.Errorf("rank %d: got %q, want %q", i+1, board[i].ModelID, want)
		}
		if board[i].Rank != i+1 {
			t.Errorf("rank field: got %d, want %d", board[i].Rank, i+1)
		}
	}
}

func TestBuildStableTies(t *testing.T) {
	s := newStore(t)
	// two models with identical scores keep declaration order
	seedJob(t, s, "run", []model{
		{id: "first", provider: "groq", score: 0.5},
		{id: "second", provider: "groq", score: 0.5},
	})

	board, err := leaderboard.NewEngine(s).Build(leaderboard.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if board[0].ModelID != "first" || board[1].ModelID != "second" {
		t.Errorf("tie order: got [%s %s], want [first second]", board[0].ModelID, board[1].ModelID)
	}
}

func TestBuildAveragesAcrossJobs(t *testing.T) {
	s := newStore(t)
	seedJob(t, s, "run one", []model{{id: "m1", provider: "groq", score: 0.8, tokens: 1000, cost: 0.5}})
	seedJob(t, s, "run two", []model{{id: "m1", provider: "groq", score: 0.6, tokens: 1000, cost: 0.5}})

	board, err := leaderboard.NewEngine(s).Build(leaderboard.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(board) != 1 {
		t.Fatalf("expected 1 row, got %d", len(board))
	}
	r := board[0]
	if math.Abs(r.Score-0.7) > 1e-9 {
		t.Errorf("score: got %v, want 0.7", r.Score)
	}
	if r.EvaluationsCount != 2 {
		t.Errorf("evaluations (score samples): got %d, want 2", r.EvaluationsCount)
	}
	if r.TotalTokensProcessed != 2000 {
		t.Errorf("tokens: got %d, want 2000", r.TotalTokensProcessed)
	}
	if math.Abs(r.AvgCostPer1kTokens-0.5) > 1e-9 {
		t.Errorf("cost per 1k tokens: got %v, want 0.5", r.AvgCostPer1kTokens)
	}
}

func TestBuildProviderFilterBeforeLimit(t *testing.T) {
	s := newStore(t)
	seedJob(t, s, "run", []model{
		{id: "a", provider: "groq", score: 0.9},
		{id: "b", provider: "together", score: 0.8},
		{id: "c", provider: "together", score: 0.7},
		{id: "d", provider: "together", score: 0.6},
	})

	board, err := leaderboard.NewEngine(s).Build(leaderboard.Options{
		Providers: []string{"together"},
		Limit:     2,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected limit of 2 rows, got %d", len(board))
	}
	// groq's top model must not consume a slot
	if board[0].ModelID != "b" || board[1].ModelID != "c" {
		t.Errorf("got [%s %s], want [b c]", board[0].ModelID, board[1].ModelID)
	}
	for _, r := range board {
		if r.Provider != "together" {
			t.Errorf("provider filter leaked: %q", r.Provider)
		}
	}
}

func TestBuildMetricFilter(t *testing.T) {
	s := newStore(t)
	cfg := &job.Config{
		Name:    "two metrics",
		Prompts: []job.Prompt{{ID: "p1", Text: "q"}},
		Models:  []job.ModelSpec{{ID: "m1", Provider: "groq", ModelName: "m1"}},
		Metrics: []job.MetricSpec{
			{Name: "exact_match", Type: "exact_match"},
			{Name: "bleu", Type: "bleu"},
		},
	}
	cfg.ApplyDefaults()
	j, err := s.Create(cfg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.SaveResult(&job.Result{
		JobID: j.ID,
		ModelResults: map[string]job.ModelResult{
			"m1": {
				Metrics: map[string]job.MetricResult{
					"exact_match": {Name: "exact_match", Score: 1.0},
					"bleu":        {Name: "bleu", Score: 0.2},
				},
			},
		},
	}); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	board, err := leaderboard.NewEngine(s).Build(leaderboard.Options{Metric: "bleu"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(board) != 1 {
		t.Fatalf("expected 1 row, got %d", len(board))
	}
	if board[0].Score != 0.2 {
		t.Errorf("score: got %v, want bleu-only 0.2", board[0].Score)
	}
	if board[0].EvaluationsCount != 1 {
		t.Errorf("samples: got %d, want 1", board[0].EvaluationsCount)
	}
}
