package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trustllm/eaas/internal/status"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openEnv()
			if err != nil {
				return err
			}
			jobs, err := s.List()
			if err != nil {
				return err
			}
			resolver := status.NewResolver(s)
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tPROGRESS\tMODELS\tPROMPTS\tCREATED")
			fmt.Fprintln(tw, strings.Repeat("-", 90))
			for _, j := range jobs {
				st, err := resolver.Resolve(j.ID)
				if err != nil {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t%d\t%d\t%s\n",
					j.ID, j.Name, st.Status, st.Progress.Percentage,
					len(j.Models), len(j.Prompts), j.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}
