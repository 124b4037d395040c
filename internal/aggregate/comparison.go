package aggregate

import (
	"time"

	"github.com/trustllm/eaas/internal/job"
)

type GroupBy string

const (
	GroupByModel  GroupBy = "model"
	GroupByPrompt GroupBy = "prompt"
	GroupByMetric GroupBy = "metric"
)

// Comparison is a grouped aggregation of results from two or more
// jobs. Exactly one of ByModel/ByPrompt/ByMetric is populated,
// matching GroupBy. Slices preserve encounter order so repeated runs
// over the same inputs produce identical reports.
type Comparison struct {
	JobsCompared    []JobRef  `json:"jobs_compared"`
	GroupBy         GroupBy   `json:"group_by"`
	MetricsIncluded []string  `json:"metrics_included"`
	GeneratedAt     time.Time `json:"generated_at"`

	ByModel  []*ModelComparison  `json:"by_model,omitempty"`
	ByPrompt []*PromptComparison `json:"by_prompt,omitempty"`
	ByMetric []*MetricComparison `json:"by_metric,omitempty"`
}

type JobRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ModelComparison struct {
	ModelID   string          `json:"model_id"`
	Jobs      []ModelJobEntry `json:"jobs"`
	Aggregate ModelAggregate  `json:"aggregate"`
}

type ModelJobEntry struct {
	JobID       string                      `json:"job_id"`
	JobName     string                      `json:"job_name"`
	Evaluations int                         `json:"evaluations"`
	Metrics     map[string]job.MetricResult `json:"metrics"`
	Performance job.Performance             `json:"performance"`
}

// ModelAggregate averages a model's per-job figures. Token and
// evaluation totals are sums: total_tokens_processed counts tokens,
// evaluations_count counts prompt evaluations.
type ModelAggregate struct {
	AvgLatencyMs         float64 `json:"avg_latency_ms"`
	AvgCostUSD           float64 `json:"avg_cost_usd"`
	AvgSuccessRate       float64 `json:"avg_success_rate"`
	TotalTokensProcessed int     `json:"total_tokens_processed"`
	EvaluationsCount     int     `json:"evaluations_count"`
}

type PromptComparison struct {
	PromptID string        `json:"prompt_id"`
	Text     string        `json:"text,omitempty"`
	Entries  []PromptEntry `json:"entries"`
}

type PromptEntry struct {
	JobID     string             `json:"job_id"`
	JobName   string             `json:"job_name"`
	ModelID   string             `json:"model_id"`
	Output    string             `json:"output"`
	LatencyMs int64              `json:"latency_ms"`
	Tokens    int                `json:"tokens"`
	CostUSD   float64            `json:"cost_usd"`
	Scores    map[string]float64 `json:"scores"`
}

type MetricComparison struct {
	Metric string        `json:"metric"`
	Scores []MetricScore `json:"scores"`
}

type MetricScore struct {
	JobID   string         `json:"job_id"`
	JobName string         `json:"job_name"`
	ModelID string         `json:"model_id"`
	Score   float64        `json:"score"`
	Details map[string]any `json:"details,omitempty"`
}
