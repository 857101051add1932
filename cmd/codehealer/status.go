package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeheal/healer/internal/config"
	"github.com/codeheal/healer/internal/resultstore"
)

func statusCmd() *cobra.Command {
	var (
		configDir string
		runID     string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a past run's result, or list known run ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			resultsStore, err := resultstore.New(cfg.ResultsDir)
			if err != nil {
				return fmt.Errorf("open results store: %w", err)
			}

			if runID == "" {
				ids, err := resultsStore.List()
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				for _, id := range ids {
					fmt.Println(id)
				}
				return nil
			}

			result, err := resultsStore.Load(runID)
			if err != nil {
				return fmt.Errorf("load run %s: %w", runID, err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", ".", "Directory to look for .codehealer.yml in")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run id to show; omit to list all known run ids")
	return cmd
}
