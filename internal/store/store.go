// Package store persists job configs, job metadata and engine result
// documents as one JSON file per job id. Every write goes through an
// atomic temp-then-rename publish so readers only ever observe fully
// formed or absent documents.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trustllm/eaas/internal/job"
)

// ErrPartialResult indicates that a result document exists but does
// not parse, typically because the engine is mid-write. Callers treat
// it as "result not yet available".
var ErrPartialResult = errors.New("result document not yet readable")

type Store struct {
	baseDir string
}

// Open creates the directory layout under baseDir and returns a store.
func Open(baseDir string) (*Store, error) {
	for _, sub := range []string{"configs", "jobs", "results"} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) ConfigPath(id string) string {
	return filepath.Join(s.baseDir, "configs", id+".json")
}

func (s *Store) jobPath(id string) string {
	return filepath.Join(s.baseDir, "jobs", id+".json")
}

// ResultPath is where the evaluation engine is expected to publish
// the result document for a job.
func (s *Store) ResultPath(id string) string {
	return filepath.Join(s.baseDir, "results", id+".json")
}

// ResultsDir is the directory handed to the engine as its output
// location.
func (s *Store) ResultsDir() string {
	return filepath.Join(s.baseDir, "results")
}

// Create assigns a fresh id, persists the submission config and an
// initial pending job record, and returns the new job.
func (s *Store) Create(cfg *job.Config) (*job.Job, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	j := &job.Job{
		ID:        uuid.New().String(),
		Name:      cfg.Name,
		Status:    job.StatusPending,
		CreatedAt: time.Now().UTC(),
		Prompts:   cfg.Prompts,
		Models:    cfg.Models,
		Metrics:   cfg.Metrics,
		Settings:  cfg.Settings,
	}
	if err := writeJSON(s.ConfigPath(j.ID), cfg); err != nil {
		return nil, fmt.Errorf("persisting config for job %s: %w", j.ID, err)
	}
	if err := writeJSON(s.jobPath(j.ID), j); err != nil {
		return nil, fmt.Errorf("persisting job %s: %w", j.ID, err)
	}
	return j, nil
}

// Get loads a job by id. When a result document exists and parses it
// is merged in and the returned job reads as completed; an unreadable
// result document is treated as absent.
func (s *Store) Get(id string) (*job.Job, error) {
	data, err := os.ReadFile(s.jobPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("job %s: %w", id, job.ErrNotFound)
		}
		return nil, fmt.Errorf("reading job %s: %w", id, err)
	}
	var j job.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parsing job %s: %w", id, err)
	}

	res, err := s.LoadResult(id)
	if err != nil && !errors.Is(err, ErrPartialResult) {
		return nil, err
	}
	if res != nil {
		j.Results = res
		j.Status = job.StatusCompleted
		j.CompletedAt = res.CompletedAt
	}
	return &j, nil
}

// List returns all known jobs ordered by creation time descending.
// Result documents are not merged; callers needing live status go
// through Get or the status resolver.
func (s *Store) List() ([]*job.Job, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "jobs"))
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	var jobs []*job.Job
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, "jobs", e.Name()))
		if err != nil {
			log.Printf("skipping %s: %v", e.Name(), err)
			continue
		}
		var j job.Job
		if err := json.Unmarshal(data, &j); err != nil {
			log.Printf("skipping %s: %v", e.Name(), err)
			continue
		}
		jobs = append(jobs, &j)
	}
	sort.SliceStable(jobs, func(i, k int) bool {
		return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
	})
	return jobs, nil
}

// SetStatus rewrites a job record's status. Used when a submission
// was accepted but the engine could not be started, so the record
// does not read as a live run forever.
func (s *Store) SetStatus(id string, st job.Status) error {
	data, err := os.ReadFile(s.jobPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("job %s: %w", id, job.ErrNotFound)
		}
		return fmt.Errorf("reading job %s: %w", id, err)
	}
	var j job.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("parsing job %s: %w", id, err)
	}
	j.Status = st
	if err := writeJSON(s.jobPath(id), &j); err != nil {
		return fmt.Errorf("persisting job %s: %w", id, err)
	}
	return nil
}

// LoadConfig returns the submission config stored for a job.
func (s *Store) LoadConfig(id string) (*job.Config, error) {
	data, err := os.ReadFile(s.ConfigPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config for job %s: %w", id, job.ErrNotFound)
		}
		return nil, fmt.Errorf("reading config for job %s: %w", id, err)
	}
	var cfg job.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config for job %s: %w", id, err)
	}
	return &cfg, nil
}

// LoadResult returns the result document for a job, nil when none has
// been published, or ErrPartialResult when one exists but does not
// parse.
func (s *Store) LoadResult(id string) (*job.Result, error) {
	data, err := os.ReadFile(s.ResultPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading result for job %s: %w", id, err)
	}
	var res job.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("job %s: %w", id, ErrPartialResult)
	}
	return &res, nil
}

// SaveResult publishes a result document the way the engine contract
// requires. The tracker itself never rewrites an existing result;
// this exists for tests and for engines running in-process.
func (s *Store) SaveResult(res *job.Result) error {
	if err := writeJSON(s.ResultPath(res.JobID), res); err != nil {
		return fmt.Errorf("persisting result for job %s: %w", res.JobID, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publishing %s: %w", path, err)
	}
	return nil
}
