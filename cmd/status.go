package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trustllm/eaas/internal/status"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job's status and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openEnv()
			if err != nil {
				return err
			}
			st, err := status.NewResolver(s).Resolve(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Job:      %s\n", st.JobID)
			fmt.Printf("Status:   %s\n", st.Status)
			fmt.Printf("Progress: %d%% (%d/%d evaluations, %d models, %d prompts)\n",
				st.Progress.Percentage,
				st.Progress.CompletedEvaluations, st.Progress.TotalEvaluations,
				st.Progress.CompletedModels, st.Progress.CompletedPrompts)
			if st.CompletedAt != nil {
				fmt.Printf("Finished: %s\n", st.CompletedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
