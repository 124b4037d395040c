package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/joho/godotenv"

	"github.com/trustllm/eaas/internal/job"
)

// Exec runs the evaluation engine as a local process.
type Exec struct {
	// Binary is the engine executable, resolved through PATH.
	Binary string
	// EnvFile optionally holds provider API keys merged into the
	// engine's environment.
	EnvFile string
}

func (e *Exec) env() ([]string, error) {
	env := os.Environ()
	if e.EnvFile == "" {
		return env, nil
	}
	secrets, err := godotenv.Read(e.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("reading secrets env file %s: %w", e.EnvFile, err)
	}
	for k, v := range secrets {
		env = append(env, k+"="+v)
	}
	return env, nil
}

// Submit starts the engine detached; the process outlives this call
// and publishes its result document on its own schedule.
func (e *Exec) Submit(ctx context.Context, configPath, outputDir string) error {
	env, err := e.env()
	if err != nil {
		return fmt.Errorf("%w: %v", job.ErrEngineInvocation, err)
	}
	cmd := exec.Command(e.Binary, "run", "--config", configPath, "--output", outputDir)
	cmd.Env = env
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: starting %s: %v", job.ErrEngineInvocation, e.Binary, err)
	}
	// Reap the child so finished engines don't linger as zombies.
	go cmd.Wait()
	return nil
}

func (e *Exec) ListMetrics(ctx context.Context) ([]string, error) {
	return e.list(ctx, "list-metrics")
}

func (e *Exec) ListProviders(ctx context.Context) ([]string, error) {
	return e.list(ctx, "list-providers")
}

func (e *Exec) list(ctx context.Context, subcommand string) ([]string, error) {
	env, err := e.env()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", job.ErrEngineInvocation, err)
	}
	cmd := exec.CommandContext(ctx, e.Binary, subcommand)
	cmd.Env = env
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", job.ErrEngineInvocation, e.Binary, subcommand, err)
	}
	return parseNameList(string(out)), nil
}
