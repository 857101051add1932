package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeheal/healer/internal/defect"
	"github.com/codeheal/healer/internal/detect"
	"github.com/codeheal/healer/internal/workspace"
)

// Phase names the state-machine summary of §4.7:
//
//	INIT -> CLONED -> INITIAL_SCAN -> FIX(n) -> VERIFY(n) -> (FIX(n+1)|TEST_TAIL|DONE)
//	TEST_TAIL -> FIX' -> VERIFY' -> DONE
//	Any -> ABORTED (on unrecoverable error)
//
// The loop itself (RunLoop) folds FIX/VERIFY/TEST_TAIL into one pass; Phase
// is logged here for observability, matching the teacher's own per-phase
// slog.Info lines in its run loop.
type Phase string

const (
	PhaseInit    Phase = "INIT"
	PhaseCloned  Phase = "CLONED"
	PhaseScan    Phase = "INITIAL_SCAN"
	PhaseLoop    Phase = "FIX_VERIFY"
	PhaseCommit  Phase = "COMMIT"
	PhaseDone    Phase = "DONE"
	PhaseAborted Phase = "ABORTED"
)

// Run drives one end-to-end healing run: clone, detect, iterate, and
// (optionally) commit/push/open a PR. It always returns a RunResult —
// there is no "no result" outcome (§7) — persisting it via store before
// returning whenever store is non-nil and the workspace was acquired. A
// clone failure returns without persisting: the run id comes from the
// workspace handle, which does not exist in that case.
func Run(ctx context.Context, req RunRequest, cfg Config, deps Deps, vcs VCS, forge Forge, store Store, logger *slog.Logger) (*defect.RunResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	startTime := time.Now()
	result := &defect.RunResult{
		RepoURL:    req.RepoURL,
		TeamName:   req.TeamName,
		LeaderName: req.LeaderName,
		StartTime:  startTime.UTC(),
	}

	logger.Info("phase", "phase", PhaseInit, "repo", req.RepoURL)

	handle, cleanup, err := workspace.Acquire(ctx, cfg.WorkspaceRoot, req.RepoURL)
	defer cleanup()
	if err != nil {
		return abort(result, startTime, "error:clone_failed", err, logger)
	}
	logger.Info("phase", "phase", PhaseCloned, "path", handle.Path)

	if err := ctx.Err(); err != nil {
		aborted, abortErr := abort(result, startTime, "cancelled", err, logger)
		persist(store, handle.RunID, aborted, logger)
		return aborted, abortErr
	}

	det := detect.Detect(handle.Path)
	logger.Info("phase", "phase", PhaseScan, "language", det.Language, "framework", det.Framework)

	logger.Info("phase", "phase", PhaseLoop)
	loopResult := RunLoop(ctx, deps, handle.Path, det, cfg, logger)

	result.Fixes = loopResult.Fixes
	result.TotalFailuresDetected = loopResult.InitialDefectCount
	result.TotalFixesApplied = countFixed(loopResult.Fixes)

	if req.GenerateTests {
		if files := modifiedFiles(loopResult.Fixes); len(files) > 0 {
			result.GeneratedTests = deps.Fixer.GenerateTests(ctx, handle.Path, det.Language, files)
		}
	}

	result.Summary = defect.Summary{
		TotalIterations:  len(loopResult.Iterations),
		InitialErrors:    loopResult.InitialDefectCount,
		FinalErrors:      loopResult.FinalDefectCount,
		ResolutionStatus: loopResult.Resolution,
		Iterations:       loopResult.Iterations,
	}

	if err := ctx.Err(); err != nil {
		result.Status = "cancelled"
		finish(result, startTime)
		persist(store, handle.RunID, result, logger)
		return result, nil
	}

	branch := BranchName(req.TeamName, req.LeaderName)
	result.BranchName = branch

	if req.Push && req.PushToken != "" && result.TotalFixesApplied > 0 {
		logger.Info("phase", "phase", PhaseCommit, "branch", branch)
		if err := commitAndPush(ctx, vcs, forge, req, result, handle.Path, branch, logger); err != nil {
			logger.Warn("commit/push/PR failed", "error", err)
		}
	}

	result.Status = "completed"
	finish(result, startTime)
	result.Score = Score(ScoreInput{
		AllDefectsResolved: loopResult.Resolution == defect.AllResolved,
		TestsPassing:       loopResult.TestsPassing,
		TotalTimeSeconds:   result.TotalTimeTaken,
		TotalCommits:       commitCount(result),
		FixesSuccessful:    result.TotalFixesApplied,
	})

	logger.Info("phase", "phase", PhaseDone, "score", result.Score, "resolution", result.Summary.ResolutionStatus)
	persist(store, handle.RunID, result, logger)
	return result, nil
}

// commitAndPush implements the Commit/push/PR sequence of §4.7.
func commitAndPush(ctx context.Context, vcs VCS, forge Forge, req RunRequest, result *defect.RunResult, root, branch string, logger *slog.Logger) error {
	if vcs == nil {
		return fmt.Errorf("push requested but no VCS adapter configured")
	}

	if err := vcs.CreateBranch(ctx, root, branch); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}

	msg := CommitMessage(req.TeamName, req.LeaderName, branch, result.Fixes, result.Summary.ResolutionStatus, result.Summary.TotalIterations, result.TotalTimeTaken)
	sha, err := vcs.CommitAll(ctx, root, msg)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	result.CommitSHA = sha

	url, err := vcs.Push(ctx, root, branch, req.PushToken)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	result.BranchURL = url

	if !req.CreatePR || forge == nil {
		return nil
	}

	prURL, prNumber, err := forge.CreatePR(ctx, req.RepoURL, branch, msg, msg, req.PushToken)
	if err != nil {
		return fmt.Errorf("create PR: %w", err)
	}
	result.PRURL = prURL
	result.PRNumber = prNumber
	result.CIStatus = defect.CIPending

	if req.AutoMergeOnCI {
		go watchAndMerge(forge, req.RepoURL, prNumber, req.PushToken, logger)
	}

	return nil
}

func abort(result *defect.RunResult, startTime time.Time, status string, err error, logger *slog.Logger) (*defect.RunResult, error) {
	logger.Error("phase", "phase", PhaseAborted, "status", status, "error", err)
	result.Status = status
	result.Summary.ResolutionStatus = defect.Unresolved
	finish(result, startTime)
	return result, err
}

func finish(result *defect.RunResult, startTime time.Time) {
	end := time.Now()
	result.EndTime = end.UTC()
	result.TotalTimeTaken = end.Sub(startTime).Seconds()
}

func persist(store Store, runID string, result *defect.RunResult, logger *slog.Logger) {
	if store == nil {
		return
	}
	if err := store.Save(runID, *result); err != nil {
		logger.Error("failed to persist run result", "run_id", runID, "error", err)
	}
}

func commitCount(result *defect.RunResult) int {
	if result.CommitSHA == "" {
		return 0
	}
	return 1
}
