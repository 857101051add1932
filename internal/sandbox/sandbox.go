// Package sandbox implements the Sandbox Executor (C3): a pipeline of
// bounded external-process analyzers whose outputs are merged, classified,
// and deduplicated into a Defect set.
package sandbox

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeheal/healer/internal/classify"
	"github.com/codeheal/healer/internal/defect"
	"github.com/codeheal/healer/internal/detect"
)

// StaticTimeout and RuntimeTimeout bound each analyzer's wall-clock budget
// (§4.3: "30-second wall-clock" for runtime execution; static analyzers get
// a slightly longer allowance since type-checkers can be slow to warm up).
// These are the package defaults. config.ApplyToPackages sets both to the
// single analyzer timeout (CODEHEALER_TIMEOUT_ANALYZER, 60s by default), so
// under a loaded config the runtime phase gets the analyzer budget, not 30s.
var (
	StaticTimeout  = 60 * time.Second
	RuntimeTimeout = 30 * time.Second
)

// Executor runs the static-analysis and runtime-execution phases against a
// workspace and returns the merged, deduplicated Defect set.
type Executor struct {
	Logger    *slog.Logger
	Isolation IsolationBackend
}

// New builds an Executor, probing for a container isolation backend (§4.3
// runtime phase). If probing fails, Isolation is nil and Run degrades to
// direct subprocess execution, labelling every runtime Defect as Degraded.
func New(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	backend, err := ProbeIsolationBackend(context.Background())
	if err != nil {
		logger.Warn("no container isolation backend available, runtime checks will run degraded", "error", err)
		backend = nil
	}
	return &Executor{Logger: logger, Isolation: backend}
}

// Run executes both phases (§4.3: "both phases always run; results
// merged") against root, whose language/framework was already determined
// by detect.Detect, and returns the deduplicated defect set. Neither
// phase mutates the workspace tree, so they run concurrently (§5:
// "analyzer fan-out within a phase uses errgroup for join-style result
// collection" — applied here across the two phases as well, since both
// are read-only).
func (e *Executor) Run(ctx context.Context, root string, det detect.Result, entryPoints []string) []defect.Defect {
	var static, runtime []defect.Defect

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		static = e.runStatic(gctx, root, det)
		return nil
	})
	g.Go(func() error {
		runtime = e.runRuntime(gctx, root, det, entryPoints)
		return nil
	})
	g.Wait()

	return defect.Dedup(append(static, runtime...))
}

// runStatic dispatches the language-specific static analyzer chain (§4.3
// item 1).
func (e *Executor) runStatic(ctx context.Context, root string, det detect.Result) []defect.Defect {
	switch det.Language {
	case detect.Python:
		return e.runPythonStatic(ctx, root)
	case detect.TypeScript:
		return e.runTypeScriptStatic(ctx, root)
	case detect.Node:
		return e.runJSStatic(ctx, root)
	case detect.Java:
		return e.runJavaStatic(ctx, root)
	default:
		return nil
	}
}

func classified(raw, source string, logger *slog.Logger, tool string, err error) []defect.Defect {
	if raw == "" {
		if err != nil {
			logger.Debug("analyzer produced no output", "tool", tool, "error", err)
		}
		return nil
	}
	return classify.ToDefects(raw, source)
}
