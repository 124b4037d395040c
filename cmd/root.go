package cmd

import (
	"github.com/spf13/cobra"

	"github.com/trustllm/eaas/internal/config"
	"github.com/trustllm/eaas/internal/engine"
	"github.com/trustllm/eaas/internal/store"
)

var cfgFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "eaas",
		Short: "Track and compare model evaluation jobs",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "eaas.yaml", "config file path")
	root.AddCommand(newSubmitCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newLeaderboardCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newMetricsCmd())
	root.AddCommand(newProvidersCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newSampleCmd())
	return root
}

// openEnv loads the service config and opens the job store.
func openEnv() (*config.Config, *store.Store, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	s, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

func newInvoker(cfg *config.Config) engine.Invoker {
	if cfg.Engine.Mode == "docker" {
		return &engine.Docker{Image: cfg.Engine.Image, EnvFile: cfg.Engine.EnvFile}
	}
	return &engine.Exec{Binary: cfg.Engine.Binary, EnvFile: cfg.Engine.EnvFile}
}
