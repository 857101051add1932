package orchestrator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codeheal/healer/internal/defect"
)

// MaxListedPaths caps how many modified paths the commit message body
// enumerates (§6: "up to ten modified paths").
const MaxListedPaths = 10

// CommitMessage renders the normative commit message: a first line
// "fix: Auto-fix <N> bugs in <M> files", then a body listing team, leader,
// branch, counts, resolution status, iterations, total seconds, and up to
// ten modified paths.
func CommitMessage(team, leader, branch string, fixes []defect.Fix, resolution defect.ResolutionStatus, iterations int, totalSeconds float64) string {
	files := modifiedFiles(fixes)
	successful := countFixed(fixes)

	var b strings.Builder
	fmt.Fprintf(&b, "fix: Auto-fix %d bugs in %d files\n\n", successful, len(files))
	fmt.Fprintf(&b, "Team: %s\n", team)
	fmt.Fprintf(&b, "Leader: %s\n", leader)
	fmt.Fprintf(&b, "Branch: %s\n", branch)
	fmt.Fprintf(&b, "Fixes applied: %d\n", successful)
	fmt.Fprintf(&b, "Resolution: %s\n", resolution)
	fmt.Fprintf(&b, "Iterations: %d\n", iterations)
	fmt.Fprintf(&b, "Total time: %.1fs\n", totalSeconds)

	if len(files) > 0 {
		b.WriteString("\nModified files:\n")
		shown := files
		if len(shown) > MaxListedPaths {
			shown = shown[:MaxListedPaths]
		}
		for _, f := range shown {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		if len(files) > MaxListedPaths {
			fmt.Fprintf(&b, "... and %d more\n", len(files)-MaxListedPaths)
		}
	}

	return b.String()
}

func modifiedFiles(fixes []defect.Fix) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range fixes {
		if f.Status != defect.FixFixed {
			continue
		}
		if !seen[f.File] {
			seen[f.File] = true
			out = append(out, f.File)
		}
	}
	sort.Strings(out)
	return out
}

func countFixed(fixes []defect.Fix) int {
	n := 0
	for _, f := range fixes {
		if f.Status == defect.FixFixed {
			n++
		}
	}
	return n
}
