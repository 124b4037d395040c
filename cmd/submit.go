package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trustllm/eaas/internal/engine"
	"github.com/trustllm/eaas/internal/job"
	"github.com/trustllm/eaas/internal/status"
)

var (
	flagDryRun bool
	flagWait   bool
)

func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <submission-file>",
		Short: "Submit an evaluation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subCfg, err := job.LoadConfig(args[0])
			if err != nil {
				return err
			}
			if flagDryRun {
				fmt.Println("Submission is valid")
				fmt.Printf("  prompts: %d, models: %d, metrics: %d\n",
					len(subCfg.Prompts), len(subCfg.Models), len(subCfg.Metrics))
				return nil
			}

			cfg, s, err := openEnv()
			if err != nil {
				return err
			}
			j, err := s.Create(subCfg)
			if err != nil {
				return err
			}
			invoker := newInvoker(cfg)
			if err := invoker.Submit(cmd.Context(), s.ConfigPath(j.ID), s.ResultsDir()); err != nil {
				if markErr := s.SetStatus(j.ID, job.StatusFailed); markErr != nil {
					fmt.Printf("warning: could not mark job %s failed: %v\n", j.ID, markErr)
				}
				return fmt.Errorf("job %s: %w", j.ID, err)
			}
			fmt.Printf("Submitted job %s (%s)\n", j.ID, j.Name)

			if !flagWait {
				return nil
			}
			resolver := status.NewResolver(s)
			interval := time.Duration(cfg.Engine.PollIntervalSeconds) * time.Second
			timeout := time.Duration(cfg.Engine.PollTimeoutSeconds) * time.Second
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			st, err := engine.WaitForCompletion(ctx, resolver, j.ID, interval)
			if err != nil {
				if st == nil {
					return err
				}
				fmt.Printf("Job %s still %s after %s; check again with: eaas status %s\n",
					j.ID, st.Status, timeout, j.ID)
				return nil
			}
			fmt.Printf("Job %s completed (%d%%)\n", j.ID, st.Progress.Percentage)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "validate the submission without running it")
	cmd.Flags().BoolVar(&flagWait, "wait", false, "poll until the job completes")
	return cmd
}
