// Package engine invokes the external evaluation engine and polls
// for the results it publishes. The engine is the sole writer of
// result documents; this service only submits work and reads back.
package engine

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/trustllm/eaas/internal/job"
	"github.com/trustllm/eaas/internal/status"
)

// Invoker is the engine contract: submit once per job, plus two
// read-only listing queries.
type Invoker interface {
	// Submit hands a stored submission config to the engine. The
	// engine is expected to eventually publish a result document
	// under outputDir, keyed by job id, using an atomic write.
	Submit(ctx context.Context, configPath, outputDir string) error
	ListMetrics(ctx context.Context) ([]string, error)
	ListProviders(ctx context.Context) ([]string, error)
}

// parseNameList reads the engine's listing output: one name per
// line, blanks and comment lines skipped.
func parseNameList(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimFunc(line, func(r rune) bool {
			return !unicode.IsGraphic(r) || unicode.IsSpace(r)
		})
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names
}

// WaitForCompletion polls the resolver until the job completes or ctx
// expires. On expiry the last observed status comes back with the ctx
// error; the job is indeterminate at that point, not failed, and the
// caller may resume polling later.
func WaitForCompletion(ctx context.Context, r *status.Resolver, jobID string, interval time.Duration) (*status.JobStatus, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	for {
		st, err := r.Resolve(jobID)
		if err != nil {
			return nil, err
		}
		if st.Status == job.StatusCompleted {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-time.After(interval):
		}
	}
}
