// Package main is the flowy command-line entry point: run a workflow,
// type-check a document, serve the REST API, or watch a directory of
// documents for changes (spec.md 6).
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "flowy",
		Short: "A WDL workflow interpreter",
	}
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("flowy version {{.Version}}\n")

	rootCmd.PersistentFlags().String("config", "", "Path to a flowy config file (env FLOWY_CONFIG)")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newWatchCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
