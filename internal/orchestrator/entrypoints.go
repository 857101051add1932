package orchestrator

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/codeheal/healer/internal/detect"
)

// MaxEntryPoints bounds how many candidate entry points are attempted per
// run, keeping the runtime-execution phase's wall-clock bounded (§5: 30s
// per entry point).
const MaxEntryPoints = 5

// candidateNames lists the conventional entry-point file basenames per
// language, in priority order (§4.3 does not enumerate a discovery rule
// beyond "each candidate entry point"; this list follows the convention
// each language's own tooling treats as the default runnable file).
var candidateNames = map[detect.Language][]string{
	detect.Python:     {"main.py", "app.py", "manage.py", "run.py"},
	detect.Node:       {"index.js", "main.js", "app.js", "server.js"},
	detect.TypeScript: {"index.ts", "main.ts", "app.ts", "server.ts"},
	detect.Java:       {"Main.java", "App.java"},
}

// DiscoverEntryPoints walks root looking for conventional entry-point
// files for det.Language, skipping dependency/VCS directories. Results are
// repo-relative, ordered by the rank of their basename in candidateNames,
// and capped at MaxEntryPoints. The order among files sharing a basename
// is not defined.
func DiscoverEntryPoints(root string, det detect.Result) []string {
	names := candidateNames[det.Language]
	if len(names) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var found []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "node_modules", "venv", ".venv", "__pycache__", "dist", "build", "target", "out":
				return filepath.SkipDir
			}
			return nil
		}
		if wanted[d.Name()] {
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil {
				found = append(found, rel)
			}
		}
		return nil
	})

	sort.Slice(found, func(i, j int) bool {
		return priorityOf(names, filepath.Base(found[i])) < priorityOf(names, filepath.Base(found[j]))
	})

	if len(found) > MaxEntryPoints {
		found = found[:MaxEntryPoints]
	}
	return found
}

func priorityOf(names []string, base string) int {
	for i, n := range names {
		if n == base {
			return i
		}
	}
	return len(names)
}
