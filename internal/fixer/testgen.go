package fixer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeheal/healer/internal/defect"
	"github.com/codeheal/healer/internal/detect"
)

// MaxGeneratedTestFiles bounds how many source files get a generated test
// per run (RunRequest.GenerateTests), matching the original
// TestGeneratorAgent's five-file cap.
const MaxGeneratedTestFiles = 5

const testGenSystemPrompt = `You are an automated test-generation assistant. You will be given one source file that was just patched.
Write a small, focused test file exercising the function(s) most relevant to the patch: one happy-path case and one edge case.
Respond with a single JSON object with exactly these keys: test_file_path, test_code.
test_file_path must be a workspace-relative path ending in a conventional test filename for the file's language; test_code must be complete, runnable test source in that language.`

// GenerateTests asks the LLM for one test file per entry in files (capped
// at MaxGeneratedTestFiles, in order), writes each atomically into root,
// and returns the workspace-relative paths written. A file whose test
// fails to generate, parse, or escapes the workspace is skipped rather
// than aborting the batch.
func (f *Fixer) GenerateTests(ctx context.Context, root string, lang detect.Language, files []string) []string {
	var written []string
	for i, file := range files {
		if i >= MaxGeneratedTestFiles {
			break
		}
		if err := defect.ValidateWithinRoot(root, file); err != nil {
			f.Logger.Warn("skipping test generation for path outside workspace", "file", file, "error", err)
			continue
		}

		content, err := os.ReadFile(filepath.Join(root, file))
		if err != nil {
			f.Logger.Warn("test generation read failed", "file", file, "error", err)
			continue
		}

		user := buildTestGenPrompt(file, string(content), lang)
		raw, err := f.LLM.Complete(ctx, testGenSystemPrompt, user)
		if err != nil {
			f.Logger.Warn("test generation LLM call failed", "file", file, "error", err)
			continue
		}

		gt, err := parseGeneratedTest(raw)
		if err != nil {
			f.Logger.Warn("test generation response unparsable", "file", file, "error", err)
			continue
		}
		if gt.TestFilePath == "" || gt.TestCode == "" {
			continue
		}

		if err := defect.ValidateWithinRoot(root, gt.TestFilePath); err != nil {
			f.Logger.Warn("generated test path escapes workspace", "file", gt.TestFilePath, "error", err)
			continue
		}

		testPath := filepath.Join(root, gt.TestFilePath)
		if err := os.MkdirAll(filepath.Dir(testPath), 0o755); err != nil {
			f.Logger.Warn("test generation mkdir failed", "path", gt.TestFilePath, "error", err)
			continue
		}
		if err := writeAtomic(testPath, gt.TestCode); err != nil {
			f.Logger.Warn("test generation write failed", "path", gt.TestFilePath, "error", err)
			continue
		}

		written = append(written, gt.TestFilePath)
	}
	return written
}

func buildTestGenPrompt(file, content string, lang detect.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Language: %s\n", lang)
	fmt.Fprintf(&b, "Source file: %s\n\n", file)
	b.WriteString(truncate(content, MaxWholeFileBytes))
	return b.String()
}

type generatedTest struct {
	TestFilePath string `json:"test_file_path"`
	TestCode     string `json:"test_code"`
}

// parseGeneratedTest reuses the fixer's own recovery stages (fenced code
// block stripping, then balanced-object extraction) since LLM output for
// this prompt is just as prone to markdown-fencing as a fix proposal.
func parseGeneratedTest(raw string) (generatedTest, error) {
	if gt, ok := tryParseGeneratedTest(raw); ok {
		return gt, nil
	}
	if stripped, ok := stripFencedJSON(raw); ok {
		if gt, ok := tryParseGeneratedTest(stripped); ok {
			return gt, nil
		}
	}
	if obj, ok := extractBalancedObject(raw); ok {
		if gt, ok := tryParseGeneratedTest(obj); ok {
			return gt, nil
		}
	}
	return generatedTest{}, fmt.Errorf("fixer: could not recover a generated test object from LLM response")
}

func tryParseGeneratedTest(candidate string) (generatedTest, bool) {
	var gt generatedTest
	if err := json.Unmarshal([]byte(candidate), &gt); err != nil {
		return generatedTest{}, false
	}
	return gt, true
}
