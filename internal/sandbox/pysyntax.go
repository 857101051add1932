package sandbox

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/codeheal/healer/internal/classify"
	"github.com/codeheal/healer/internal/defect"
)

// MaxSyntaxDiscoveryRounds bounds the iterative re-parse in §4.3b: "up to
// 10 rounds or fixpoint".
const MaxSyntaxDiscoveryRounds = 10

// runPySyntaxDiscovery implements §4.3b: a naive AST parse only surfaces
// the first syntax error per file, so each file is iteratively re-parsed
// after replacing each newly found error line with an indentation-
// preserving no-op sentinel, accumulating every distinct error location
// this session can see.
func (e *Executor) runPySyntaxDiscovery(root string) []defect.Defect {
	python, err := exec.LookPath("python3")
	if err != nil {
		if python, err = exec.LookPath("python"); err != nil {
			e.Logger.Warn("no python interpreter on PATH, skipping syntax discovery")
			return nil
		}
	}

	var out []defect.Defect
	for _, path := range findPythonSources(root) {
		out = append(out, e.discoverFileSyntaxErrors(python, root, path)...)
	}
	return out
}

func (e *Executor) discoverFileSyntaxErrors(python, root, path string) []defect.Defect {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	rel, relErr := filepath.Rel(root, path)
	if relErr != nil {
		rel = path
	}

	lines := strings.Split(string(data), "\n")
	seen := make(map[int]bool)
	var found []defect.Defect

	for round := 0; round < MaxSyntaxDiscoveryRounds; round++ {
		d, ok := e.firstSyntaxError(python, rel, strings.Join(lines, "\n"))
		if !ok {
			break
		}
		if seen[d.Line] {
			break // fixpoint: same location keeps recurring, stop
		}
		seen[d.Line] = true
		found = append(found, d)

		idx := d.Line - 1
		if idx < 0 || idx >= len(lines) {
			break
		}
		lines[idx] = sentinelFor(lines[idx])
	}
	return found
}

// firstSyntaxError compiles content via python3 -c compile(...) and parses
// the resulting traceback for the first syntax error location.
func (e *Executor) firstSyntaxError(python, relPath, content string) (defect.Defect, bool) {
	tmp, err := os.CreateTemp("", "healer-py-*.py")
	if err != nil {
		return defect.Defect{}, false
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return defect.Defect{}, false
	}
	tmp.Close()

	script := "import ast,sys\ntry:\n  ast.parse(open(sys.argv[1]).read())\nexcept SyntaxError as e:\n  print('File \"%s\", line %d' % (sys.argv[2], e.lineno))\n  print('SyntaxError: %s' % e.msg)\n  sys.exit(1)\n"
	out, _ := boundedRun(context.Background(), "", StaticTimeout, python, "-c", script, tmp.Name(), relPath)
	if out == "" {
		return defect.Defect{}, false
	}
	defects := classify.ToDefects(out, "py-ast")
	if len(defects) == 0 {
		return defect.Defect{}, false
	}
	return defects[0], true
}

// sentinelFor replaces a line's content with "pass" while preserving its
// leading indentation, so subsequent lines keep the same column offsets.
func sentinelFor(line string) string {
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	return indent + "pass"
}

func findPythonSources(root string) []string {
	var sources []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort scan
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "venv", ".venv", "__pycache__", "node_modules":
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".py" {
			sources = append(sources, path)
		}
		return nil
	})
	return sources
}
