package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/trustllm/eaas/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("data dir: got %q, want ./data", cfg.DataDir)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr: got %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Engine.Mode != "exec" || cfg.Engine.Binary != "eaas-engine" {
		t.Errorf("engine: got %q/%q, want exec/eaas-engine", cfg.Engine.Mode, cfg.Engine.Binary)
	}
	if cfg.Engine.PollIntervalSeconds != 2 || cfg.Engine.PollTimeoutSeconds != 600 {
		t.Errorf("polling: got %d/%d, want 2/600",
			cfg.Engine.PollIntervalSeconds, cfg.Engine.PollTimeoutSeconds)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eaas.yaml")
	data := `data_dir: /var/lib/eaas
server:
  addr: ":9090"
engine:
  mode: docker
  image: eaas-engine:latest
  poll_interval_seconds: 5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/var/lib/eaas" {
		t.Errorf("data dir: got %q", cfg.DataDir)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr: got %q", cfg.Server.Addr)
	}
	if cfg.Engine.Image != "eaas-engine:latest" {
		t.Errorf("image: got %q", cfg.Engine.Image)
	}
	if cfg.Engine.PollIntervalSeconds != 5 {
		t.Errorf("poll interval: got %d, want 5", cfg.Engine.PollIntervalSeconds)
	}
	if cfg.Engine.PollTimeoutSeconds != 600 {
		t.Errorf("poll timeout default: got %d, want 600", cfg.Engine.PollTimeoutSeconds)
	}
}

func TestLoadDockerModeRequiresImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eaas.yaml")
	if err := os.WriteFile(path, []byte("engine:\n  mode: docker\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected an error for docker mode without an image")
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eaas.yaml")
	if err := os.WriteFile(path, []byte("engine:\n  mode: kubernetes\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected an error for an unknown engine mode")
	}
}
