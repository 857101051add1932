package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// resumeCmd exists for CLI-surface completeness but is not implemented:
// neither spec.md §3/§4 nor SPEC_FULL.md define a resumable checkpoint
// format for a healer run, unlike the teacher's own checkpoint-driven
// orchestrate loop. It always fails rather than silently no-op'ing.
func resumeCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume a previous run (not implemented)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("--run-id is required")
			}
			return fmt.Errorf("error:not_implemented: run resumption is not supported")
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Run id to resume (required)")
	return cmd
}
