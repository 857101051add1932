package fixer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codeheal/healer/internal/defect"
)

// MaxWholeFileBytes caps how much of the whole file is included in the
// prompt (§4.5: "a size-capped slice of the whole file").
const MaxWholeFileBytes = 8000

// ContextRadius is how many lines of numbered context surround the
// defect's line (§4.5: "±5 lines of numbered context").
const ContextRadius = 5

const generalSystemPrompt = `You are an automated code-repair assistant. You will be given one defect in a single file.
Produce the smallest possible fix: do not refactor, rename, or reformat anything beyond what is required to resolve the defect.
Never introduce a relative intra-package import.
Respond with a single JSON object with exactly these keys: original_code, fixed_code, description, commit_message.
original_code must match the existing source exactly; fixed_code is its replacement.`

const logicBugSystemPrompt = `You are an automated code-repair assistant. A test is failing, but the test itself is correct.
Locate and repair the logic error in the source code under test; do not modify the test.
Produce the smallest possible fix: do not refactor, rename, or reformat anything beyond what is required to resolve the defect.
Never introduce a relative intra-package import.
Respond with a single JSON object with exactly these keys: original_code, fixed_code, description, commit_message.
original_code must match the existing source exactly; fixed_code is its replacement.`

// SystemPrompt selects the system prompt variant for bt (§4.5 Prompt
// specialization).
func SystemPrompt(bt defect.BugType) string {
	if bt == defect.TestFailure {
		return logicBugSystemPrompt
	}
	return generalSystemPrompt
}

// BuildUserPrompt renders the bounded user prompt for d against the
// current contents of its file.
func BuildUserPrompt(d defect.Defect, fileContent string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "File: %s\n", d.File)
	fmt.Fprintf(&b, "Bug type: %s\n", d.BugType)
	fmt.Fprintf(&b, "Line: %d\n", d.Line)
	fmt.Fprintf(&b, "Issue: %s\n\n", d.Message)

	b.WriteString("Context around the defect:\n")
	b.WriteString(numberedContext(fileContent, d.Line, ContextRadius))
	b.WriteString("\n")

	b.WriteString("Whole file (may be truncated):\n")
	b.WriteString(truncate(fileContent, MaxWholeFileBytes))
	b.WriteString("\n")

	return b.String()
}

// numberedContext renders the lines [line-radius, line+radius] of content
// with 1-based line numbers.
func numberedContext(content string, line, radius int) string {
	lines := strings.Split(content, "\n")
	start := line - radius - 1
	if start < 0 {
		start = 0
	}
	end := line + radius
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "%s: %s\n", strconv.Itoa(i+1), lines[i])
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (truncated)"
}
