package fixer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/codeheal/healer/internal/defect"
)

// Fixer drives the LLM to propose a patch for each defect and applies the
// result to the workspace.
type Fixer struct {
	LLM    LLMClient
	Logger *slog.Logger
}

func New(llm LLMClient, logger *slog.Logger) *Fixer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fixer{LLM: llm, Logger: logger}
}

// Propose builds the bounded prompt for d, calls the LLM, and recovers a
// FixResponse via the four-stage pipeline. It does not touch the
// filesystem; callers batch-apply via ApplyAll.
func (f *Fixer) Propose(ctx context.Context, root string, d defect.Defect) (defect.Fix, error) {
	fix := defect.Fix{File: d.File, Line: d.Line, BugType: d.BugType, Status: defect.FixFailed}

	if err := defect.ValidateWithinRoot(root, d.File); err != nil {
		fix.FailReason = "PathEscapesRoot"
		return fix, err
	}

	content, err := os.ReadFile(filepath.Join(root, d.File))
	if err != nil {
		fix.FailReason = "ReadError"
		return fix, err
	}

	system := SystemPrompt(d.BugType)
	user := BuildUserPrompt(d, string(content))

	raw, err := f.LLM.Complete(ctx, system, user)
	if err != nil {
		fix.FailReason = "LLMError"
		return fix, err
	}

	parsed, err := ParseFixResponse(raw)
	if err != nil {
		fix.FailReason = "UnparsableResponse"
		return fix, err
	}

	fix.OriginalCode = parsed.OriginalCode
	fix.FixedCode = parsed.FixedCode
	fix.Description = parsed.Description
	fix.CommitMessage = parsed.CommitMessage
	fix.Status = defect.FixProposed
	return fix, nil
}

// ApplyAll implements §4.5 Batching: fixes are grouped by file; within a
// file they are applied in descending line order so positions earlier in
// the file remain stable, and the file is written once after all edits
// that succeed. Fixes that fail to locate their anchor are marked FAILED
// in place and skipped; they do not block the rest of the batch.
func (f *Fixer) ApplyAll(root string, fixes []defect.Fix) []defect.Fix {
	byFile := make(map[string][]int) // file -> indices into fixes
	for i, fx := range fixes {
		byFile[fx.File] = append(byFile[fx.File], i)
	}

	out := make([]defect.Fix, len(fixes))
	copy(out, fixes)

	for file, indices := range byFile {
		sort.Slice(indices, func(a, b int) bool {
			return out[indices[a]].Line > out[indices[b]].Line
		})

		if err := defect.ValidateWithinRoot(root, file); err != nil {
			for _, i := range indices {
				out[i].Status = defect.FixFailed
				out[i].FailReason = "PathEscapesRoot"
			}
			continue
		}

		path := filepath.Join(root, file)
		content, err := os.ReadFile(path)
		if err != nil {
			for _, i := range indices {
				out[i].Status = defect.FixFailed
				out[i].FailReason = "ReadError"
			}
			continue
		}

		current := string(content)
		changed := false
		for _, i := range indices {
			fx := out[i]
			preHash := PreEditHash(current)
			result := ApplyFix(current, fx.OriginalCode, fx.FixedCode, fx.Line)
			if !result.Applied {
				out[i].Status = defect.FixFailed
				out[i].FailReason = result.FailReason
				continue
			}
			current = result.Content
			out[i].Status = defect.FixFixed
			out[i].PreEditHash = preHash
			out[i].Position = result.Position
			changed = true
		}

		if changed {
			if err := writeAtomic(path, current); err != nil {
				for _, i := range indices {
					if out[i].Status == defect.FixFixed {
						out[i].Status = defect.FixFailed
						out[i].FailReason = "WriteError"
					}
				}
			}
		}
	}

	return out
}

// writeAtomic writes content to path via a tmp-file-then-rename, matching
// the teacher's own atomic-write discipline (orchestrate.WritePromptProvenance).
func writeAtomic(path, content string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
