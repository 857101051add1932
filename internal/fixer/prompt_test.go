package fixer

import (
	"strings"
	"testing"

	"github.com/codeheal/healer/internal/defect"
)

func TestSystemPromptSelectsLogicBugVariantForTestFailure(t *testing.T) {
	got := SystemPrompt(defect.TestFailure)
	if got != logicBugSystemPrompt {
		t.Error("expected logic-bug system prompt for TEST_FAILURE")
	}
	if !strings.Contains(got, "do not modify the test") {
		t.Error("expected logic-bug prompt to forbid touching the test")
	}
}

func TestSystemPromptDefaultsToGeneralVariant(t *testing.T) {
	for _, bt := range []defect.BugType{defect.Syntax, defect.Indentation, defect.Import, defect.TypeError, defect.Logic, defect.Runtime, defect.Linting} {
		if got := SystemPrompt(bt); got != generalSystemPrompt {
			t.Errorf("BugType %s: expected general system prompt", bt)
		}
	}
}

func TestBuildUserPromptIncludesNumberedContextAndFile(t *testing.T) {
	content := "line1\nline2\nline3\nline4\nline5\n"
	d := defect.Defect{File: "a.py", Line: 3, BugType: defect.Logic, Message: "bad thing"}
	prompt := BuildUserPrompt(d, content)

	if !strings.Contains(prompt, "File: a.py") {
		t.Error("expected file header")
	}
	if !strings.Contains(prompt, "Line: 3") {
		t.Error("expected line header")
	}
	if !strings.Contains(prompt, "Issue: bad thing") {
		t.Error("expected issue header")
	}
	if !strings.Contains(prompt, "3: line3") {
		t.Error("expected numbered context to include the defect line")
	}
}

func TestNumberedContextClampsAtFileBoundaries(t *testing.T) {
	content := "a\nb\nc\n"
	got := numberedContext(content, 1, 5)
	if !strings.HasPrefix(got, "1: a\n") {
		t.Errorf("expected context to start at line 1, got %q", got)
	}
}

func TestTruncateAppendsMarkerWhenOverCap(t *testing.T) {
	s := strings.Repeat("x", 20)
	got := truncate(s, 10)
	if !strings.HasSuffix(got, "... (truncated)") {
		t.Error("expected truncation marker")
	}
	if !strings.HasPrefix(got, strings.Repeat("x", 10)) {
		t.Error("expected first 10 bytes preserved")
	}
}

func TestTruncateLeavesShortContentUntouched(t *testing.T) {
	s := "short"
	if got := truncate(s, 100); got != s {
		t.Errorf("expected unchanged content, got %q", got)
	}
}
