package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "adminctl",
		Short:   "Operator tools for the campaign admin backend",
		Version: version,
	}

	rootCmd.AddCommand(regionsCmd())
	rootCmd.AddCommand(matchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
