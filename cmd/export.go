package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/trustllm/eaas/internal/export"
)

var (
	flagExportFormat string
	flagExportOut    string
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <job-id>",
		Short: "Export a job's results as json, csv or html",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openEnv()
			if err != nil {
				return err
			}
			j, err := s.Get(args[0])
			if err != nil {
				return err
			}
			var w io.Writer = os.Stdout
			if flagExportOut != "" {
				f, err := os.Create(flagExportOut)
				if err != nil {
					return fmt.Errorf("creating %s: %w", flagExportOut, err)
				}
				defer f.Close()
				w = f
			}
			return export.Job(w, j, flagExportFormat)
		},
	}
	cmd.Flags().StringVar(&flagExportFormat, "format", "json", "output format (json, csv, html)")
	cmd.Flags().StringVar(&flagExportOut, "out", "", "write to a file instead of stdout")
	return cmd
}
