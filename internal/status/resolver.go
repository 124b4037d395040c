// Package status derives a job's live status and completion progress
// from whatever result evidence the evaluation engine has published
// so far.
package status

import (
	"math"
	"time"

	"github.com/trustllm/eaas/internal/job"
	"github.com/trustllm/eaas/internal/store"
)

type JobStatus struct {
	JobID       string     `json:"job_id"`
	Status      job.Status `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Progress    Progress   `json:"progress"`
}

type Progress struct {
	TotalEvaluations     int `json:"total_evaluations"`
	CompletedEvaluations int `json:"completed_evaluations"`
	CompletedModels      int `json:"completed_models"`
	CompletedPrompts     int `json:"completed_prompts"`
	Percentage           int `json:"percentage"`
}

type Resolver struct {
	store *store.Store
}

func NewResolver(s *store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve reports a job's status and progress. A published result
// means completed. No result, or a result document that does not yet
// parse, means running; absent an explicit signal from the engine
// that reads as "not yet completed, outcome unknown" rather than a
// true running state. A failed or cancelled status recorded on the
// job itself is kept as long as no result exists.
func (r *Resolver) Resolve(jobID string) (*JobStatus, error) {
	j, err := r.store.Get(jobID)
	if err != nil {
		return nil, err
	}
	return Resolve(j), nil
}

// Resolve derives status and progress from an already loaded job.
func Resolve(j *job.Job) *JobStatus {
	st := &JobStatus{JobID: j.ID, Status: job.StatusRunning}
	switch {
	case j.Results != nil:
		st.Status = job.StatusCompleted
		st.CompletedAt = j.Results.CompletedAt
	case j.Status == job.StatusFailed || j.Status == job.StatusCancelled:
		st.Status = j.Status
	}
	st.Progress = computeProgress(j)
	return st
}

func computeProgress(j *job.Job) Progress {
	modelCount := len(j.Models)
	promptCount := len(j.Prompts)
	p := Progress{TotalEvaluations: promptCount * modelCount}

	if j.Results != nil {
		for _, mr := range j.Results.ModelResults {
			p.CompletedEvaluations += len(mr.Outputs)
		}
		p.CompletedModels = len(j.Results.ModelResults)
	}
	if modelCount > 0 {
		p.CompletedPrompts = p.CompletedEvaluations / modelCount
		if p.CompletedPrompts > promptCount {
			p.CompletedPrompts = promptCount
		}
	}
	if p.TotalEvaluations > 0 {
		pct := int(math.Round(float64(p.CompletedEvaluations) / float64(p.TotalEvaluations) * 100))
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		p.Percentage = pct
		// A published result is the completion signal, whatever the
		// per-model evidence inside it says.
		if j.Results != nil {
			p.Percentage = 100
		}
	}
	return p
}
