package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/joho/godotenv"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"

	"github.com/trustllm/eaas/internal/job"
)

// Docker runs the evaluation engine as a container. The submission
// config is bind-mounted read-only and the results directory is
// mounted writable so the engine's atomic publish lands where the
// store reads.
type Docker struct {
	Image string
	// EnvFile optionally holds provider API keys passed into the
	// engine container's environment.
	EnvFile string
	Env     map[string]string
	// ListTimeout bounds the short-lived listing containers.
	ListTimeout time.Duration
}

func (d *Docker) listTimeout() time.Duration {
	if d.ListTimeout > 0 {
		return d.ListTimeout
	}
	return 30 * time.Second
}

func (d *Docker) newClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: creating docker client: %v", job.ErrEngineInvocation, err)
	}
	return cli, nil
}

func (d *Docker) env() ([]string, error) {
	env := make([]string, 0, len(d.Env))
	for k, v := range d.Env {
		env = append(env, k+"="+v)
	}
	if d.EnvFile == "" {
		return env, nil
	}
	secrets, err := godotenv.Read(d.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("reading secrets env file %s: %w", d.EnvFile, err)
	}
	for k, v := range secrets {
		env = append(env, k+"="+v)
	}
	return env, nil
}

// Submit starts the engine container detached and returns once it is
// running; the container publishes the result document and exits on
// its own.
func (d *Docker) Submit(ctx context.Context, configPath, outputDir string) error {
	env, err := d.env()
	if err != nil {
		return fmt.Errorf("%w: %v", job.ErrEngineInvocation, err)
	}
	cli, err := d.newClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	containerCfg := &container.Config{
		Image:  d.Image,
		Cmd:    []string{"run", "--config", "/config.json", "--output", "/results"},
		Env:    env,
		Labels: map[string]string{"eaas": "true"},
	}
	hostCfg := &container.HostConfig{
		AutoRemove: true,
		Mounts: []mount.Mount{
			{Type: mount.TypeBind, Source: configPath, Target: "/config.json", ReadOnly: true},
			{Type: mount.TypeBind, Source: outputDir, Target: "/results"},
		},
	}

	created, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostCfg,
	})
	if err != nil {
		return fmt.Errorf("%w: creating engine container: %v", job.ErrEngineInvocation, err)
	}
	if _, err := cli.ContainerStart(ctx, created.ID, client.ContainerStartOptions{}); err != nil {
		cli.ContainerRemove(context.Background(), created.ID, client.ContainerRemoveOptions{Force: true})
		return fmt.Errorf("%w: starting engine container: %v", job.ErrEngineInvocation, err)
	}
	return nil
}

func (d *Docker) ListMetrics(ctx context.Context) ([]string, error) {
	return d.list(ctx, "list-metrics")
}

func (d *Docker) ListProviders(ctx context.Context) ([]string, error) {
	return d.list(ctx, "list-providers")
}

// list runs a short-lived engine container and reads its output from
// the container log. Tty keeps the log stream unmultiplexed.
func (d *Docker) list(ctx context.Context, subcommand string) ([]string, error) {
	env, err := d.env()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", job.ErrEngineInvocation, err)
	}
	cli, err := d.newClient()
	if err != nil {
		return nil, err
	}
	defer cli.Close()

	created, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config: &container.Config{
			Image:  d.Image,
			Cmd:    []string{subcommand},
			Env:    env,
			Tty:    true,
			Labels: map[string]string{"eaas": "true"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating engine container: %v", job.ErrEngineInvocation, err)
	}
	containerID := created.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("%w: starting engine container: %v", job.ErrEngineInvocation, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, d.listTimeout())
	defer cancel()
	waitResult := cli.ContainerWait(waitCtx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
waiting:
	for {
		select {
		case err := <-waitResult.Error:
			if err != nil {
				cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
				return nil, fmt.Errorf("%w: engine %s: %v", job.ErrEngineInvocation, subcommand, err)
			}
			// nil means nothing on this channel; keep waiting
		case st := <-waitResult.Result:
			if st.StatusCode != 0 {
				return nil, fmt.Errorf("%w: engine %s exited with status %d", job.ErrEngineInvocation, subcommand, st.StatusCode)
			}
			break waiting
		}
	}

	logReader, err := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reading engine output: %v", job.ErrEngineInvocation, err)
	}
	defer logReader.Close()
	out, err := io.ReadAll(logReader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading engine output: %v", job.ErrEngineInvocation, err)
	}
	return parseNameList(string(out)), nil
}
