// Package main provides the entry point for the gitloc CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gitloc/cmd/gitloc/commands"
	"github.com/Sumatoshi-tech/gitloc/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gitloc",
		Short: "gitloc - lines-of-code trends from git history",
		Long: `gitloc samples a repository's history, counts lines of code per
language at each sampled commit, and renders per-language and per-author
trends as tables, CSV files and interactive charts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewCacheCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(os.Stdout, version.String())
		},
	}
}
