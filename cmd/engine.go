package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List metrics the evaluation engine supports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := openEnv()
			if err != nil {
				return err
			}
			names, err := newInvoker(cfg).ListMetrics(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println("Available metrics:")
			for _, name := range names {
				fmt.Printf("  - %s\n", name)
			}
			return nil
		},
	}
}

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List model providers the evaluation engine supports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := openEnv()
			if err != nil {
				return err
			}
			names, err := newInvoker(cfg).ListProviders(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println("Available providers:")
			for _, name := range names {
				fmt.Printf("  - %s\n", name)
			}
			return nil
		},
	}
}
