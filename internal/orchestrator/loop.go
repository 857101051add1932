package orchestrator

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/codeheal/healer/internal/defect"
	"github.com/codeheal/healer/internal/detect"
	"github.com/codeheal/healer/internal/testrunner"
)

// oscillationLimit is the number of consecutive zero-progress iterations
// that force an early UNRESOLVED termination (§4.7 Convergence and
// oscillation guard).
const oscillationLimit = 3

// LoopResult is everything the bounded iteration loop produced.
type LoopResult struct {
	Fixes            []defect.Fix
	Iterations       []defect.IterationRecord
	FinalDefectCount int
	InitialDefectCount int
	TestsPassing     bool
	Resolution       defect.ResolutionStatus
}

// RunLoop drives the bounded detect->fix->verify loop (§4.7) followed by
// the test-only remediation tail, against an already-cloned workspace at
// root whose language/framework is det.
func RunLoop(ctx context.Context, deps Deps, root string, det detect.Result, cfg Config, logger *slog.Logger) LoopResult {
	fixed := make(map[string]bool)
	var allFixes []defect.Fix
	var records []defect.IterationRecord

	noProgressStreak := 0
	unresolved := false
	testsPassing := false
	initialDefectCount := -1
	finalDefectCount := 0

	iter := 0
	for iter < cfg.MaxIterations {
		iter++
		start := time.Now()

		entryPoints := DiscoverEntryPoints(root, det)
		staticDefects := deps.Sandbox.Run(ctx, root, det, entryPoints)

		testResult, err := deps.TestRunner.Run(ctx, root, det)
		if err != nil {
			logger.Warn("test run failed", "iteration", iter, "error", err)
		}
		synthetic := synthesizeTestFailureDefects(testResult)

		all := defect.Subtract(defect.Dedup(append(append([]defect.Defect{}, staticDefects...), synthetic...)), fixed)
		if initialDefectCount < 0 {
			initialDefectCount = len(all)
		}
		defectsBefore := len(all)

		survivors := orderForFix(deferLowerPriority(all))
		applied, fixesSuccessful, fixedSigs := applyFixesForDefects(ctx, deps, root, survivors, fixed, logger)
		allFixes = append(allFixes, applied...)

		postStatic := deps.Sandbox.Run(ctx, root, det, entryPoints)
		postTest, err := deps.TestRunner.Run(ctx, root, det)
		if err != nil {
			logger.Warn("post-fix test run failed", "iteration", iter, "error", err)
		}
		postSynthetic := synthesizeTestFailureDefects(postTest)
		postAll := defect.Subtract(defect.Dedup(append(append([]defect.Defect{}, postStatic...), postSynthetic...)), fixed)

		defectsAfter := len(postAll)
		if postTest.Total == 0 {
			testsPassing = defectsAfter == 0
		} else {
			testsPassing = postTest.Failed == 0
		}
		finalDefectCount = defectsAfter

		var remainingSigs []string
		for _, d := range postAll {
			remainingSigs = append(remainingSigs, d.Signature())
		}

		records = append(records, defect.IterationRecord{
			Index:               iter,
			DefectsBefore:       defectsBefore,
			DefectsAfter:        defectsAfter,
			FixesAttempted:      len(survivors),
			FixesSuccessful:     fixesSuccessful,
			Duration:            time.Since(start).Seconds(),
			FixedSignatures:     fixedSigs,
			RemainingSignatures: remainingSigs,
		})

		if defectsAfter == 0 && testsPassing {
			break
		}
		if fixesSuccessful == 0 && testsPassing {
			break
		}

		if fixesSuccessful == 0 && defectsAfter >= defectsBefore && !testsPassing {
			noProgressStreak++
		} else {
			noProgressStreak = 0
		}
		if noProgressStreak >= oscillationLimit {
			unresolved = true
			break
		}
	}

	if initialDefectCount < 0 {
		initialDefectCount = 0
	}

	tailRecords, tailFixes, tailTestsPassing := runTestTail(ctx, deps, root, det, cfg, fixed, logger, iter)
	records = append(records, tailRecords...)
	allFixes = append(allFixes, tailFixes...)
	if len(tailRecords) > 0 {
		testsPassing = tailTestsPassing
		finalDefectCount = records[len(records)-1].DefectsAfter
	}

	resolution := defect.PartiallyResolved
	switch {
	case unresolved:
		resolution = defect.Unresolved
	case finalDefectCount == 0 && testsPassing:
		resolution = defect.AllResolved
	case countFixed(allFixes) == 0:
		resolution = defect.Unresolved
	}

	return LoopResult{
		Fixes:              allFixes,
		Iterations:         records,
		FinalDefectCount:   finalDefectCount,
		InitialDefectCount: initialDefectCount,
		TestsPassing:       testsPassing,
		Resolution:         resolution,
	}
}

// runTestTail implements §4.7's test-only remediation tail: up to
// TestTailIterations additional iterations that only translate failing
// source files into synthetic TEST_FAILURE defects, deduped by file.
func runTestTail(ctx context.Context, deps Deps, root string, det detect.Result, cfg Config, fixed map[string]bool, logger *slog.Logger, mainIterations int) ([]defect.IterationRecord, []defect.Fix, bool) {
	var records []defect.IterationRecord
	var fixes []defect.Fix
	testsPassing := false

	for t := 0; t < cfg.TestTailIterations; t++ {
		start := time.Now()

		testResult, err := deps.TestRunner.Run(ctx, root, det)
		if err != nil {
			logger.Warn("test-tail run failed", "tail_iteration", t+1, "error", err)
		}
		synthetic := defect.Subtract(synthesizeTestFailureDefects(testResult), fixed)
		if testResult.Total == 0 || testResult.Failed == 0 {
			testsPassing = len(synthetic) == 0
			break
		}

		if len(synthetic) == 0 {
			break
		}

		ordered := orderForFix(synthetic)
		applied, fixesSuccessful, fixedSigs := applyFixesForDefects(ctx, deps, root, ordered, fixed, logger)
		fixes = append(fixes, applied...)

		postTest, err := deps.TestRunner.Run(ctx, root, det)
		if err != nil {
			logger.Warn("test-tail verify failed", "tail_iteration", t+1, "error", err)
		}
		postSynthetic := defect.Subtract(synthesizeTestFailureDefects(postTest), fixed)
		if postTest.Total == 0 {
			testsPassing = len(postSynthetic) == 0
		} else {
			testsPassing = postTest.Failed == 0
		}

		records = append(records, defect.IterationRecord{
			Index:           mainIterations + t + 1,
			DefectsBefore:   len(synthetic),
			DefectsAfter:    postTest.Failed,
			FixesAttempted:  len(ordered),
			FixesSuccessful: fixesSuccessful,
			Duration:        time.Since(start).Seconds(),
			FixedSignatures: fixedSigs,
		})

		if testsPassing {
			break
		}
		if fixesSuccessful == 0 {
			break
		}
	}

	return records, fixes, testsPassing
}

// applyFixesForDefects proposes a Fix for each defect via the Fixer, then
// batch-applies all proposals at once (so ApplyAll's descending-line-order,
// one-write-per-file discipline applies across the whole iteration), and
// marks each successfully applied defect's signature as fixed.
func applyFixesForDefects(ctx context.Context, deps Deps, root string, defects []defect.Defect, fixed map[string]bool, logger *slog.Logger) (applied []defect.Fix, successful int, fixedSigs []string) {
	var sigs []string
	var proposed []defect.Fix
	for _, d := range defects {
		fix, err := deps.Fixer.Propose(ctx, root, d)
		if err != nil {
			logger.Warn("fix proposal failed", "file", d.File, "line", d.Line, "bug_type", d.BugType, "error", err)
			continue
		}
		sigs = append(sigs, d.Signature())
		proposed = append(proposed, fix)
	}

	applied = deps.Fixer.ApplyAll(root, proposed)
	for i, fx := range applied {
		if fx.Status == defect.FixFixed {
			successful++
			fixed[sigs[i]] = true
			fixedSigs = append(fixedSigs, sigs[i])
		}
	}
	return applied, successful, fixedSigs
}

// deferLowerPriority implements step 4: once a structural defect (ranked
// at or above IMPORT) is present, LINTING and LOGIC defects are deferred
// to the next iteration since they may become moot once structural errors
// are resolved.
func deferLowerPriority(all []defect.Defect) []defect.Defect {
	hasStructural := false
	for _, d := range all {
		if defect.Priority(d.BugType) <= defect.Priority(defect.Import) {
			hasStructural = true
			break
		}
	}
	if !hasStructural {
		return all
	}

	out := make([]defect.Defect, 0, len(all))
	for _, d := range all {
		if d.BugType == defect.Linting || d.BugType == defect.Logic {
			continue
		}
		out = append(out, d)
	}
	return out
}

// orderForFix sorts defects by bug-type priority, then file, then
// ascending line (§5 Ordering guarantees).
func orderForFix(defects []defect.Defect) []defect.Defect {
	out := append([]defect.Defect{}, defects...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := defect.Priority(out[i].BugType), defect.Priority(out[j].BugType)
		if pi != pj {
			return pi < pj
		}
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// synthesizeTestFailureDefects translates each distinct failing source
// file into one TEST_FAILURE defect, deduped by file (§4.7).
func synthesizeTestFailureDefects(result testrunner.Result) []defect.Defect {
	seen := make(map[string]bool)
	var out []defect.Defect
	for _, o := range result.Outcomes {
		if o.Passed || o.File == "" || seen[o.File] {
			continue
		}
		seen[o.File] = true
		line := o.Line
		if line <= 0 {
			line = 1
		}
		out = append(out, defect.Defect{
			File:     o.File,
			Line:     line,
			BugType:  defect.TestFailure,
			Raw:      o.Message,
			Message:  o.Message,
			Severity: defect.SeverityFixable,
			Source:   "test-runner-synthetic",
		})
	}
	return out
}
