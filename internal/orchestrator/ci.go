package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeheal/healer/internal/defect"
)

// CIPollTimeout and CIPollInterval bound the background CI watcher (§5:
// "CI poll total 600 s with 15 s interval"). Overridable from config
// (CODEHEALER_TIMEOUT_CI_POLL).
var (
	CIPollTimeout  = 600 * time.Second
	CIPollInterval = 15 * time.Second
)

// watchAndMerge polls forge CI status for prNumber until it resolves to
// SUCCESS or FAILURE (or the poll budget is exhausted), merging the PR on
// SUCCESS. It runs detached from the triggering request's context — the
// caller of Run has already received its RunResult by the time this
// completes — with its own bounded timeout, per §4.7:
// "spawn a background watcher that polls forge CI status ... then (on
// SUCCESS) merges."
func watchAndMerge(forge Forge, repoURL string, prNumber int, token string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), CIPollTimeout)
	defer cancel()

	ticker := time.NewTicker(CIPollInterval)
	defer ticker.Stop()

	for {
		status, err := forge.LatestCIStatus(ctx, repoURL, prNumber, token)
		if err != nil {
			logger.Warn("ci poll failed", "pr", prNumber, "error", err)
		} else {
			switch status {
			case defect.CISuccess:
				if err := forge.MergePR(ctx, repoURL, prNumber, token); err != nil {
					logger.Error("auto-merge failed", "pr", prNumber, "error", err)
				} else {
					logger.Info("auto-merged PR after green CI", "pr", prNumber)
				}
				return
			case defect.CIFailure:
				logger.Warn("CI failed, not auto-merging", "pr", prNumber)
				return
			}
		}

		select {
		case <-ctx.Done():
			logger.Warn("ci poll budget exhausted", "pr", prNumber)
			return
		case <-ticker.C:
		}
	}
}
