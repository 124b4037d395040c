package job

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job is one evaluation run: a fixed set of prompts, models and
// metrics submitted together. Results is populated only when the
// evaluation engine has published a result document for the job.
type Job struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Status      Status       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Prompts     []Prompt     `json:"prompts"`
	Models      []ModelSpec  `json:"models"`
	Metrics     []MetricSpec `json:"metrics"`
	Settings    RunSettings  `json:"settings"`
	Results     *Result      `json:"results,omitempty"`
}

type Prompt struct {
	ID             string `json:"id" yaml:"id"`
	Text           string `json:"text" yaml:"text"`
	ExpectedOutput string `json:"expected_output,omitempty" yaml:"expected_output,omitempty"`
	Category       string `json:"category,omitempty" yaml:"category,omitempty"`
}

type ModelSpec struct {
	ID         string          `json:"id" yaml:"id"`
	Provider   string          `json:"provider" yaml:"provider"`
	ModelName  string          `json:"model_name" yaml:"model_name"`
	Parameters ModelParameters `json:"parameters" yaml:"parameters"`
}

type ModelParameters struct {
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	TopP        *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
}

type MetricSpec struct {
	Name   string  `json:"name" yaml:"name"`
	Type   string  `json:"type" yaml:"type"`
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

type RunSettings struct {
	ParallelRequests int `json:"parallel_requests" yaml:"parallel_requests"`
	TimeoutSeconds   int `json:"timeout_seconds" yaml:"timeout_seconds"`
	RetryAttempts    int `json:"retry_attempts" yaml:"retry_attempts"`
}

// Result is the document the evaluation engine publishes when a job
// finishes. Its presence under results/<id>.json is the completion
// signal; this service only ever reads it.
type Result struct {
	JobID        string                 `json:"job_id"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	ModelResults map[string]ModelResult `json:"model_results"`
	Summary      Summary                `json:"summary"`
}

type ModelResult struct {
	Outputs     []Output                `json:"outputs"`
	Metrics     map[string]MetricResult `json:"metrics"`
	Performance Performance             `json:"performance"`
	Errors      []string                `json:"errors,omitempty"`
}

type Output struct {
	PromptID  string  `json:"prompt_id"`
	Output    string  `json:"output"`
	LatencyMs int64   `json:"latency_ms"`
	Tokens    int     `json:"tokens"`
	CostUSD   float64 `json:"cost_usd"`
	Error     string  `json:"error,omitempty"`
}

type MetricResult struct {
	Name            string             `json:"metric_name"`
	Score           float64            `json:"score"`
	Details         map[string]any     `json:"details,omitempty"`
	PerPromptScores map[string]float64 `json:"per_prompt_scores"`
}

type Performance struct {
	TotalLatencyMs      int64   `json:"total_latency_ms"`
	AverageLatencyMs    float64 `json:"average_latency_ms"`
	TotalTokens         int     `json:"total_tokens"`
	TotalCostUSD        float64 `json:"total_cost_usd"`
	SuccessRate         float64 `json:"success_rate"`
	ThroughputPerSecond float64 `json:"throughput_per_second"`
}

type Summary struct {
	TotalPrompts     int     `json:"total_prompts"`
	TotalModels      int     `json:"total_models"`
	TotalEvaluations int     `json:"total_evaluations"`
	SuccessRate      float64 `json:"success_rate"`
	AverageScore     float64 `json:"average_score"`
	TotalCostUSD     float64 `json:"total_cost_usd"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
}

// PromptIDs returns the job's prompt identifiers in declared order.
func (j *Job) PromptIDs() []string {
	ids := make([]string, len(j.Prompts))
	for i, p := range j.Prompts {
		ids[i] = p.ID
	}
	return ids
}

// ModelIDs returns the job's model identifiers in declared order.
func (j *Job) ModelIDs() []string {
	ids := make([]string, len(j.Models))
	for i, m := range j.Models {
		ids[i] = m.ID
	}
	return ids
}

// MetricNames returns the job's metric names in declared order.
func (j *Job) MetricNames() []string {
	names := make([]string, len(j.Metrics))
	for i, m := range j.Metrics {
		names[i] = m.Name
	}
	return names
}

// Provider returns the provider of the given model id, or "" when the
// job does not declare the model.
func (j *Job) Provider(modelID string) string {
	for _, m := range j.Models {
		if m.ID == modelID {
			return m.Provider
		}
	}
	return ""
}
