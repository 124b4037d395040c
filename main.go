package main

import (
	"os"

	"github.com/trustllm/eaas/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
