package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/trustllm/eaas/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the tracker's HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := openEnv()
			if err != nil {
				return err
			}
			srv := server.New(s, newInvoker(cfg))
			fmt.Printf("Listening on %s (data dir %s)\n", cfg.Server.Addr, cfg.DataDir)
			return http.ListenAndServe(cfg.Server.Addr, srv.Router())
		},
	}
}
