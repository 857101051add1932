package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/codeheal/healer/internal/defect"
	"github.com/codeheal/healer/internal/detect"
	"github.com/codeheal/healer/internal/testrunner"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSandbox always returns the same fixed defect set (or none).
type fakeSandbox struct {
	defects []defect.Defect
}

func (f *fakeSandbox) Run(ctx context.Context, root string, det detect.Result, entryPoints []string) []defect.Defect {
	return append([]defect.Defect{}, f.defects...)
}

// fakeTestRunner reports failure until resolved flips true.
type fakeTestRunner struct {
	resolved *bool
	outcome  defect.TestOutcome
}

func (f *fakeTestRunner) Run(ctx context.Context, root string, det detect.Result) (testrunner.Result, error) {
	if *f.resolved {
		return testrunner.Result{Total: 1, Passed: 1, Outcomes: []defect.TestOutcome{{Name: f.outcome.Name, Passed: true}}}, nil
	}
	return testrunner.Result{Total: 1, Failed: 1, Outcomes: []defect.TestOutcome{f.outcome}}, nil
}

// fakeFixer proposes a trivial fix and, on apply, flips resolved to true.
type fakeFixer struct {
	resolved *bool
	succeed  bool
}

func (f *fakeFixer) Propose(ctx context.Context, root string, d defect.Defect) (defect.Fix, error) {
	return defect.Fix{File: d.File, Line: d.Line, BugType: d.BugType, Status: defect.FixProposed, OriginalCode: "bad", FixedCode: "good"}, nil
}

func (f *fakeFixer) ApplyAll(root string, fixes []defect.Fix) []defect.Fix {
	out := make([]defect.Fix, len(fixes))
	for i, fx := range fixes {
		if f.succeed {
			fx.Status = defect.FixFixed
			*f.resolved = true
		} else {
			fx.Status = defect.FixFailed
			fx.FailReason = "NotFound"
		}
		out[i] = fx
	}
	return out
}

func (f *fakeFixer) GenerateTests(ctx context.Context, root string, lang detect.Language, files []string) []string {
	return nil
}

func TestRunLoopConvergesOnSingleLogicBugFix(t *testing.T) {
	resolved := false
	deps := Deps{
		Sandbox:    &fakeSandbox{},
		TestRunner: &fakeTestRunner{resolved: &resolved, outcome: defect.TestOutcome{Name: "test_multiply", File: "calc.py", Line: 1, Message: "assert 5 == 6"}},
		Fixer:      &fakeFixer{resolved: &resolved, succeed: true},
	}

	result := RunLoop(context.Background(), deps, "/repo", detect.Result{Language: detect.Python}, DefaultConfig(), testLogger())

	if result.Resolution != defect.AllResolved {
		t.Errorf("Resolution = %v, want AllResolved", result.Resolution)
	}
	if !result.TestsPassing {
		t.Error("expected TestsPassing true")
	}
	if result.FinalDefectCount != 0 {
		t.Errorf("FinalDefectCount = %d, want 0", result.FinalDefectCount)
	}
	if len(result.Iterations) != 1 {
		t.Errorf("expected convergence in exactly 1 iteration, got %d", len(result.Iterations))
	}
	if countFixed(result.Fixes) != 1 {
		t.Errorf("expected exactly 1 fixed Fix, got %d", countFixed(result.Fixes))
	}
}

func TestRunLoopTerminatesUnresolvedAfterOscillationLimit(t *testing.T) {
	resolved := false
	persistentDefect := []defect.Defect{{File: "x.py", Line: 2, BugType: defect.Logic, Message: "stuck", Severity: defect.SeverityFixable}}

	deps := Deps{
		Sandbox:    &fakeSandbox{defects: persistentDefect},
		TestRunner: &fakeTestRunner{resolved: &resolved, outcome: defect.TestOutcome{Name: "test_x", File: "x.py", Line: 2, Message: "still broken"}},
		Fixer:      &fakeFixer{resolved: &resolved, succeed: false},
	}

	cfg := DefaultConfig()
	result := RunLoop(context.Background(), deps, "/repo", detect.Result{Language: detect.Python}, cfg, testLogger())

	if result.Resolution != defect.Unresolved {
		t.Errorf("Resolution = %v, want Unresolved", result.Resolution)
	}
	if len(result.Iterations) > cfg.MaxIterations+cfg.TestTailIterations {
		t.Errorf("too many iterations recorded: %d", len(result.Iterations))
	}
	if len(result.Iterations) < oscillationLimit {
		t.Errorf("expected the oscillation guard to run at least %d iterations, got %d", oscillationLimit, len(result.Iterations))
	}
}

// fakeNoTestRunner always reports zero discovered tests, simulating a
// repository with no test suite.
type fakeNoTestRunner struct{}

func (fakeNoTestRunner) Run(ctx context.Context, root string, det detect.Result) (testrunner.Result, error) {
	return testrunner.Result{}, nil
}

func TestRunLoopTestsPassingFalseWithZeroTestsAndUnresolvedDefects(t *testing.T) {
	lintingDefect := []defect.Defect{{File: "a.py", Line: 1, BugType: defect.Linting, Message: "unused import", Severity: defect.SeverityFixable}}
	resolved := false

	deps := Deps{
		Sandbox:    &fakeSandbox{defects: lintingDefect},
		TestRunner: fakeNoTestRunner{},
		Fixer:      &fakeFixer{resolved: &resolved, succeed: false},
	}

	result := RunLoop(context.Background(), deps, "/repo", detect.Result{Language: detect.Python}, DefaultConfig(), testLogger())

	if result.TestsPassing {
		t.Error("expected TestsPassing false: zero tests but a LINTING defect remains unresolved")
	}
	if result.FinalDefectCount == 0 {
		t.Error("expected the LINTING defect to still be present")
	}

	score := Score(ScoreInput{
		AllDefectsResolved: result.Resolution == defect.AllResolved,
		TestsPassing:       result.TestsPassing,
		FixesSuccessful:    countFixed(result.Fixes),
	})
	if score != 0 {
		t.Errorf("Score = %d, want 0 (no fixes landed and tests not passing)", score)
	}
}

func TestDeferLowerPriorityDropsLintingAndLogicWhenStructuralPresent(t *testing.T) {
	defects := []defect.Defect{
		{File: "a.py", Line: 1, BugType: defect.Syntax},
		{File: "b.py", Line: 1, BugType: defect.Linting},
		{File: "c.py", Line: 1, BugType: defect.Logic},
		{File: "d.py", Line: 1, BugType: defect.TypeError},
	}
	got := deferLowerPriority(defects)
	if len(got) != 2 {
		t.Fatalf("expected 2 survivors, got %d: %+v", len(got), got)
	}
	for _, d := range got {
		if d.BugType == defect.Linting || d.BugType == defect.Logic {
			t.Errorf("did not expect %v to survive", d.BugType)
		}
	}
}

func TestDeferLowerPriorityKeepsAllWhenNoStructuralDefect(t *testing.T) {
	defects := []defect.Defect{
		{File: "a.py", Line: 1, BugType: defect.Linting},
		{File: "b.py", Line: 1, BugType: defect.Logic},
	}
	got := deferLowerPriority(defects)
	if len(got) != 2 {
		t.Errorf("expected both to survive, got %d", len(got))
	}
}

func TestOrderForFixSortsByPriorityThenFileThenLine(t *testing.T) {
	defects := []defect.Defect{
		{File: "b.py", Line: 5, BugType: defect.Linting},
		{File: "a.py", Line: 2, BugType: defect.Syntax},
		{File: "a.py", Line: 1, BugType: defect.Syntax},
		{File: "z.py", Line: 1, BugType: defect.Import},
	}
	got := orderForFix(defects)
	want := []string{"a.py:1", "a.py:2", "z.py:1", "b.py:5"}
	for i, w := range want {
		key := got[i].File + ":" + itoaForTest(got[i].Line)
		if key != w {
			t.Errorf("position %d = %s, want %s", i, key, w)
		}
	}
}

func itoaForTest(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestSynthesizeTestFailureDefectsDedupsByFile(t *testing.T) {
	result := testrunner.Result{
		Outcomes: []defect.TestOutcome{
			{Name: "t1", Passed: false, File: "a.py", Line: 1, Message: "m1"},
			{Name: "t2", Passed: false, File: "a.py", Line: 9, Message: "m2"},
			{Name: "t3", Passed: true, File: "b.py", Line: 1, Message: "m3"},
		},
	}
	got := synthesizeTestFailureDefects(result)
	if len(got) != 1 {
		t.Fatalf("expected 1 deduped defect, got %d: %+v", len(got), got)
	}
	if got[0].File != "a.py" || got[0].BugType != defect.TestFailure {
		t.Errorf("unexpected defect: %+v", got[0])
	}
}
