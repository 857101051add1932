package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// logger is installed by the root command's PersistentPreRun, before any
// subcommand's RunE runs, and shared by run/status/resume.
var logger *slog.Logger

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:     "codehealer",
		Short:   "Autonomous code-healing orchestrator",
		Version: version,
		Long: `codehealer clones a repository, detects defects via static and runtime
analysis, drives an LLM to author patches, verifies them against the
project's own test suite, and optionally commits, pushes, and opens a
pull request on a remediation branch.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug-level logging (overridden by LOG_LEVEL if set)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(resumeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the text-handler logger every subcommand shares.
// LOG_LEVEL (debug/info/warn/error) takes precedence over -v; with
// neither set, the level defaults to info.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			level = l
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
