package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "therawatch",
		Short:         "Watch Thera wormhole connections and alert on short routes",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Bare invocation runs the service, as in the container image.
		RunE: runServe,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "❌ therawatch: %v\n", err)
		os.Exit(1)
	}
}
