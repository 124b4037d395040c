package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir string `yaml:"data_dir"`
	Server  Server `yaml:"server"`
	Engine  Engine `yaml:"engine"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Engine struct {
	// Mode selects how the engine is launched: "exec" or "docker".
	Mode    string `yaml:"mode"`
	Binary  string `yaml:"binary"`
	Image   string `yaml:"image"`
	EnvFile string `yaml:"env_file"`
	// PollIntervalSeconds paces completion polling; PollTimeoutSeconds
	// bounds a single wait before the job is reported indeterminate.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	PollTimeoutSeconds  int `yaml:"poll_timeout_seconds"`
}

// Load reads the service config, applying defaults for anything
// unset. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Engine.Mode == "" {
		cfg.Engine.Mode = "exec"
	}
	switch cfg.Engine.Mode {
	case "exec":
		if cfg.Engine.Binary == "" {
			cfg.Engine.Binary = "eaas-engine"
		}
	case "docker":
		if cfg.Engine.Image == "" {
			return fmt.Errorf("engine.image is required in docker mode")
		}
	default:
		return fmt.Errorf("unknown engine mode %q", cfg.Engine.Mode)
	}
	if cfg.Engine.PollIntervalSeconds < 1 {
		cfg.Engine.PollIntervalSeconds = 2
	}
	if cfg.Engine.PollTimeoutSeconds < 1 {
		cfg.Engine.PollTimeoutSeconds = 600
	}
	return nil
}
