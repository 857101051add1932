package orchestrator

import (
	"context"

	"github.com/codeheal/healer/internal/defect"
	"github.com/codeheal/healer/internal/detect"
	"github.com/codeheal/healer/internal/testrunner"
)

// SandboxRunner is the subset of *sandbox.Executor the loop depends on.
type SandboxRunner interface {
	Run(ctx context.Context, root string, det detect.Result, entryPoints []string) []defect.Defect
}

// TestRunner is the subset of *testrunner.Runner the loop depends on.
type TestRunner interface {
	Run(ctx context.Context, root string, det detect.Result) (testrunner.Result, error)
}

// CodeFixer is the subset of *fixer.Fixer the loop depends on.
type CodeFixer interface {
	Propose(ctx context.Context, root string, d defect.Defect) (defect.Fix, error)
	ApplyAll(root string, fixes []defect.Fix) []defect.Fix
	GenerateTests(ctx context.Context, root string, lang detect.Language, files []string) []string
}

// Deps bundles the components C7 composes (§2 Composition). Defined as
// interfaces so the loop is testable against fakes without spawning real
// subprocesses or LLM calls.
type Deps struct {
	Sandbox    SandboxRunner
	TestRunner TestRunner
	Fixer      CodeFixer
}
