package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codeheal/healer/internal/config"
	"github.com/codeheal/healer/internal/fixer"
	"github.com/codeheal/healer/internal/forge"
	"github.com/codeheal/healer/internal/orchestrator"
	"github.com/codeheal/healer/internal/resultstore"
	"github.com/codeheal/healer/internal/sandbox"
	"github.com/codeheal/healer/internal/testrunner"
	"github.com/codeheal/healer/internal/vcs"
)

func runCmd() *cobra.Command {
	var (
		repoURL     string
		teamName    string
		leaderName  string
		push        bool
		createPR    bool
		autoMerge   bool
		genTests    bool
		configDir   string
		requestFile string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Heal a repository: detect, fix, verify, and (optionally) push a PR",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req orchestrator.RunRequest
			if requestFile != "" {
				f, err := os.Open(requestFile)
				if err != nil {
					return fmt.Errorf("open request file: %w", err)
				}
				defer f.Close()
				req, err = orchestrator.LoadRunRequestJSON(f)
				if err != nil {
					return fmt.Errorf("load request file: %w", err)
				}
			} else {
				if repoURL == "" {
					return fmt.Errorf("--repo is required")
				}
				if teamName == "" || leaderName == "" {
					return fmt.Errorf("--team and --leader are required (used to derive the remediation branch name)")
				}
				req = orchestrator.RunRequest{
					RepoURL:       repoURL,
					TeamName:      teamName,
					LeaderName:    leaderName,
					Push:          push,
					CreatePR:      createPR,
					AutoMergeOnCI: autoMerge,
					GenerateTests: genTests,
				}
			}

			cfg, err := config.Load(configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			resultsStore, err := resultstore.New(cfg.ResultsDir)
			if err != nil {
				return fmt.Errorf("open results store: %w", err)
			}

			cfg.Timeouts.ApplyToPackages()

			llm, err := fixer.NewHTTPClient(cfg.LLMAPIKey, cfg.LLMModel)
			if err != nil {
				return fmt.Errorf("configure llm client: %w", err)
			}

			deps := orchestrator.Deps{
				Sandbox:    sandbox.New(logger),
				TestRunner: testrunner.New(logger),
				Fixer:      fixer.New(llm, logger),
			}

			if req.PushToken == "" {
				req.PushToken = cfg.ForgeToken
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := orchestrator.Run(ctx, req, cfg.Orchestrator, deps, vcs.New(), forge.New(), resultsStore, logger)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			fmt.Printf("status=%s score=%d fixes=%d/%d\n", result.Status, result.Score, result.TotalFixesApplied, result.TotalFailuresDetected)
			if result.PRURL != "" {
				fmt.Println(result.PRURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoURL, "repo", "", "Repository URL to heal (required)")
	cmd.Flags().StringVar(&teamName, "team", "", "Team name, used in the remediation branch name (required)")
	cmd.Flags().StringVar(&leaderName, "leader", "", "Team leader name, used in the remediation branch name (required)")
	cmd.Flags().BoolVar(&push, "push", false, "Commit and push fixes to the remediation branch")
	cmd.Flags().BoolVar(&createPR, "create-pr", false, "Open a pull request once fixes are pushed")
	cmd.Flags().BoolVar(&autoMerge, "auto-merge", false, "Merge the pull request automatically once CI passes")
	cmd.Flags().BoolVar(&genTests, "generate-tests", false, "Ask the fixer to generate regression tests alongside fixes")
	cmd.Flags().StringVar(&configDir, "config-dir", ".", "Directory to look for .codehealer.yml in")
	cmd.Flags().StringVar(&requestFile, "request-file", "", "Read RunRequest as JSON from this file instead of --repo/--team/--leader/etc")

	return cmd
}
