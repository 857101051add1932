// Package testrunner implements the Test Runner (C5): framework detection
// plus result parsing into defect.TestOutcome.
package testrunner

import (
	"context"
	"log/slog"
	"os/exec"
	"time"

	"github.com/codeheal/healer/internal/defect"
	"github.com/codeheal/healer/internal/detect"
)

// Timeout bounds the whole test run, not any single test (§5).
// Overridable from config (CODEHEALER_TIMEOUT_TEST_RUN).
var Timeout = 180 * time.Second

// Result aggregates a test run's outcomes and counts (§4.6: "a list of
// TestOutcome plus aggregate counts").
type Result struct {
	Outcomes []defect.TestOutcome
	Passed   int
	Failed   int
	Total    int
}

// Runner runs the detected test framework and parses its output.
type Runner struct {
	Logger *slog.Logger
}

func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Logger: logger}
}

// Run detects and runs det.Framework under root and returns the parsed
// outcomes.
func (r *Runner) Run(ctx context.Context, root string, det detect.Result) (Result, error) {
	cmd, parse := r.commandFor(root, det)
	if cmd == nil {
		r.Logger.Warn("no runnable test framework detected", "language", det.Language)
		return Result{}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	c := exec.CommandContext(runCtx, cmd[0], cmd[1:]...)
	c.Dir = root
	out, _ := c.CombinedOutput() // non-zero exit is the normal "tests failed" case

	outcomes := parse(string(out))
	return summarize(outcomes), nil
}

func summarize(outcomes []defect.TestOutcome) Result {
	res := Result{Outcomes: outcomes, Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Passed {
			res.Passed++
		} else {
			res.Failed++
		}
	}
	return res
}

// commandFor resolves the binary and args for det.Framework, plus the
// output parser to apply, preferring a project-local binary the way npm
// scripts do (node_modules/.bin).
func (r *Runner) commandFor(root string, det detect.Result) ([]string, func(string) []defect.TestOutcome) {
	switch det.Framework {
	case detect.Pytest:
		if bin, err := exec.LookPath("pytest"); err == nil {
			return []string{bin, "-q", "--tb=short"}, parsePytest
		}
		return []string{"python3", "-m", "pytest", "-q", "--tb=short"}, parsePytest
	case detect.Unittest:
		return []string{"python3", "-m", "unittest", "discover", "-v"}, parseUnittest
	case detect.Jest:
		if bin := localBin(root, "jest"); bin != "" {
			return []string{bin, "--colors=false"}, parseJSFramework
		}
		return []string{"npx", "--no-install", "jest", "--colors=false"}, parseJSFramework
	case detect.Vitest:
		if bin := localBin(root, "vitest"); bin != "" {
			return []string{bin, "run"}, parseJSFramework
		}
		return []string{"npx", "--no-install", "vitest", "run"}, parseJSFramework
	case detect.Mocha:
		if bin := localBin(root, "mocha"); bin != "" {
			return []string{bin}, parseJSFramework
		}
		return []string{"npx", "--no-install", "mocha"}, parseJSFramework
	default:
		return nil, nil
	}
}

func localBin(root, name string) string {
	path := root + "/node_modules/.bin/" + name
	if fileExists(path) {
		return path
	}
	return ""
}
