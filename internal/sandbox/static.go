package sandbox

import (
	"context"
	"os/exec"

	"github.com/codeheal/healer/internal/defect"
)

// runPythonStatic tries ruff, then flake8, then pylint (errors/warnings
// only), per §4.3 item 1.
func (e *Executor) runPythonStatic(ctx context.Context, root string) []defect.Defect {
	if path, err := exec.LookPath("ruff"); err == nil {
		out, _ := boundedRun(ctx, root, StaticTimeout, path, "check", ".")
		return classified(out, "ruff", e.Logger, "ruff", nil)
	}
	if path, err := exec.LookPath("flake8"); err == nil {
		out, _ := boundedRun(ctx, root, StaticTimeout, path, ".")
		return classified(out, "flake8", e.Logger, "flake8", nil)
	}
	if path, err := exec.LookPath("pylint"); err == nil {
		out, _ := boundedRun(ctx, root, StaticTimeout, path, "--errors-only", ".")
		defects := classified(out, "pylint", e.Logger, "pylint", nil)
		return append(defects, e.runPySyntaxDiscovery(root)...)
	}
	e.Logger.Warn("no python linter found on PATH, falling back to syntax discovery only")
	return e.runPySyntaxDiscovery(root)
}

// runTypeScriptStatic prefers the local tsc binary (§4.3 item 1: "prefer
// local tsc --noEmit").
func (e *Executor) runTypeScriptStatic(ctx context.Context, root string) []defect.Defect {
	tsc := localNodeBin(root, "tsc")
	if tsc == "" {
		var err error
		tsc, err = exec.LookPath("tsc")
		if err != nil {
			e.Logger.Warn("no tsc found, falling back to built-in JS/TS pattern checks")
			return e.runJSPatternChecks(root)
		}
	}
	out, _ := boundedRun(ctx, root, StaticTimeout, tsc, "--noEmit")
	defects := classified(out, "tsc", e.Logger, "tsc", nil)
	return append(defects, e.runJSPatternChecks(root)...)
}

// runJSStatic prefers the project-local linter (eslint), else falls back
// to the built-in pattern checks (§4.3 item 1, §4.3a).
func (e *Executor) runJSStatic(ctx context.Context, root string) []defect.Defect {
	eslint := localNodeBin(root, "eslint")
	if eslint == "" {
		if p, err := exec.LookPath("eslint"); err == nil {
			eslint = p
		}
	}
	if eslint == "" {
		return e.runJSPatternChecks(root)
	}
	out, _ := boundedRun(ctx, root, StaticTimeout, eslint, ".", "--format", "compact")
	defects := classified(out, "eslint", e.Logger, "eslint", nil)
	if len(defects) == 0 {
		defects = append(defects, e.runJSPatternChecks(root)...)
	}
	return defects
}

// runJavaStatic compiles with javac -Xlint:all to a scratch output
// directory (§4.3 item 1).
func (e *Executor) runJavaStatic(ctx context.Context, root string) []defect.Defect {
	javac, err := exec.LookPath("javac")
	if err != nil {
		e.Logger.Warn("no javac found on PATH, skipping java static analysis")
		return nil
	}
	scratch, err := scratchDir(root)
	if err != nil {
		e.Logger.Warn("could not create scratch output dir for javac", "error", err)
		return nil
	}
	sources := findJavaSources(root)
	if len(sources) == 0 {
		return nil
	}
	args := append([]string{"-Xlint:all", "-d", scratch}, sources...)
	out, _ := boundedRun(ctx, root, StaticTimeout, javac, args...)
	return classified(out, "javac", e.Logger, "javac", nil)
}

// localNodeBin resolves a binary from the project's node_modules/.bin,
// matching npm/npx's own lookup order before falling back to PATH.
func localNodeBin(root, name string) string {
	path := root + "/node_modules/.bin/" + name
	if fileExists(path) {
		return path
	}
	return ""
}
