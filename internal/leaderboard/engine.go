// Package leaderboard ranks models by aggregate score across all
// completed jobs.
package leaderboard

import (
	"fmt"
	"sort"

	"github.com/trustllm/eaas/internal/aggregate"
	"github.com/trustllm/eaas/internal/store"
)

type Options struct {
	// Metric restricts scoring to a single metric; empty means the
	// mean over every available metric score.
	Metric string
	// Providers restricts the board to models from these providers,
	// applied before Limit truncates.
	Providers []string
	Limit     int
}

// Ranking is one leaderboard row. EvaluationsCount is the number of
// score samples behind Score; TotalTokensProcessed sums tokens across
// every job the model appeared in.
type Ranking struct {
	Rank                 int     `json:"rank"`
	ModelID              string  `json:"model_id"`
	Provider             string  `json:"provider"`
	Score                float64 `json:"score"`
	EvaluationsCount     int     `json:"evaluations_count"`
	TotalTokensProcessed int     `json:"total_tokens_processed"`
	AvgLatencyMs         float64 `json:"avg_latency_ms"`
	AvgCostPer1kTokens   float64 `json:"avg_cost_per_1k_tokens"`
}

type Engine struct {
	store *store.Store
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

type accum struct {
	modelID    string
	provider   string
	scoreSum   float64
	samples    int
	tokens     int
	costUSD    float64
	latencySum float64
	latencyN   int
}

// Build folds every completed job into per-model accumulators and
// returns the ranked board. Sort is descending by score and stable,
// so equal scores keep encounter order.
func (e *Engine) Build(opts Options) ([]Ranking, error) {
	jobs, err := e.store.List()
	if err != nil {
		return nil, fmt.Errorf("loading jobs for leaderboard: %w", err)
	}

	index := map[string]*accum{}
	var order []*accum
	for _, listed := range jobs {
		j, err := e.store.Get(listed.ID)
		if err != nil || j.Results == nil {
			continue
		}
		for _, modelID := range aggregate.ModelOrder(j) {
			mr := j.Results.ModelResults[modelID]
			a, ok := index[modelID]
			if !ok {
				a = &accum{modelID: modelID, provider: j.Provider(modelID)}
				index[modelID] = a
				order = append(order, a)
			}
			if a.provider == "" {
				a.provider = j.Provider(modelID)
			}
			for _, name := range aggregate.MetricOrder(j, mr) {
				if opts.Metric != "" && name != opts.Metric {
					continue
				}
				a.scoreSum += mr.Metrics[name].Score
				a.samples++
			}
			a.tokens += mr.Performance.TotalTokens
			a.costUSD += mr.Performance.TotalCostUSD
			a.latencySum += mr.Performance.AverageLatencyMs
			a.latencyN++
		}
	}

	allowed := map[string]bool{}
	for _, p := range opts.Providers {
		allowed[p] = true
	}

	var board []Ranking
	for _, a := range order {
		if len(allowed) > 0 && !allowed[a.provider] {
			continue
		}
		if a.samples == 0 {
			continue
		}
		r := Ranking{
			ModelID:              a.modelID,
			Provider:             a.provider,
			Score:                a.scoreSum / float64(a.samples),
			EvaluationsCount:     a.samples,
			TotalTokensProcessed: a.tokens,
		}
		if a.latencyN > 0 {
			r.AvgLatencyMs = a.latencySum / float64(a.latencyN)
		}
		if a.tokens > 0 {
			r.AvgCostPer1kTokens = a.costUSD / float64(a.tokens) * 1000.0
		}
		board = append(board, r)
	}

	sort.SliceStable(board, func(i, k int) bool {
		return board[i].Score > board[k].Score
	})
	for i := range board {
		board[i].Rank = i + 1
	}
	if opts.Limit > 0 && len(board) > opts.Limit {
		board = board[:opts.Limit]
	}
	return board, nil
}
