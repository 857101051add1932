package fixer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/codeheal/healer/internal/defect"
)

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProposeReturnsFixOnCleanResponse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	llm := &stubLLM{response: `{"original_code":"a = 1","fixed_code":"a = 2","description":"d","commit_message":"m"}`}
	f := New(llm, testLogger())

	d := defect.Defect{File: "a.py", Line: 1, BugType: defect.Logic}
	fix, err := f.Propose(context.Background(), dir, d)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if fix.Status != defect.FixProposed {
		t.Errorf("Status = %v, want FixProposed", fix.Status)
	}
	if fix.FixedCode != "a = 2" {
		t.Errorf("FixedCode = %q", fix.FixedCode)
	}
	if llm.calls != 1 {
		t.Errorf("expected exactly one LLM call, got %d", llm.calls)
	}
}

func TestProposeReadErrorWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	llm := &stubLLM{response: "{}"}
	f := New(llm, testLogger())

	d := defect.Defect{File: "missing.py", Line: 1}
	fix, err := f.Propose(context.Background(), dir, d)
	if err == nil {
		t.Fatal("expected error")
	}
	if fix.FailReason != "ReadError" {
		t.Errorf("FailReason = %q, want ReadError", fix.FailReason)
	}
}

func TestProposeUnparsableResponse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	os.WriteFile(path, []byte("a = 1\n"), 0o644)

	llm := &stubLLM{response: "not json and no fields either"}
	f := New(llm, testLogger())

	d := defect.Defect{File: "a.py", Line: 1}
	fix, err := f.Propose(context.Background(), dir, d)
	if err == nil {
		t.Fatal("expected error")
	}
	if fix.FailReason != "UnparsableResponse" {
		t.Errorf("FailReason = %q, want UnparsableResponse", fix.FailReason)
	}
}

func TestApplyAllAppliesDescendingLineOrderWithinFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	os.WriteFile(path, []byte("a = 1\nb = 2\nc = 3\n"), 0o644)

	fixes := []defect.Fix{
		{File: "a.py", Line: 1, OriginalCode: "a = 1", FixedCode: "a = 10", Status: defect.FixProposed},
		{File: "a.py", Line: 3, OriginalCode: "c = 3", FixedCode: "c = 30", Status: defect.FixProposed},
	}

	f := New(&stubLLM{}, testLogger())
	out := f.ApplyAll(dir, fixes)

	for _, fx := range out {
		if fx.Status != defect.FixFixed {
			t.Errorf("fix for line %d: Status = %v, want FixFixed (reason %q)", fx.Line, fx.Status, fx.FailReason)
		}
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "a = 10\nb = 2\nc = 30\n"
	if string(got) != want {
		t.Errorf("file content = %q, want %q", got, want)
	}
}

func TestApplyAllLeavesOtherFixesUnaffectedOnPartialFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	os.WriteFile(path, []byte("a = 1\nb = 2\n"), 0o644)

	fixes := []defect.Fix{
		{File: "a.py", Line: 1, OriginalCode: "a = 1", FixedCode: "a = 10", Status: defect.FixProposed},
		{File: "a.py", Line: 2, OriginalCode: "completely unrelated", FixedCode: "x", Status: defect.FixProposed},
	}

	f := New(&stubLLM{}, testLogger())
	out := f.ApplyAll(dir, fixes)

	if out[0].Status != defect.FixFixed {
		t.Errorf("expected fix 0 to succeed, got %v (%s)", out[0].Status, out[0].FailReason)
	}
	if out[1].Status != defect.FixFailed || out[1].FailReason != "NotFound" {
		t.Errorf("expected fix 1 to fail with NotFound, got %v (%s)", out[1].Status, out[1].FailReason)
	}

	got, _ := os.ReadFile(path)
	want := "a = 10\nb = 2\n"
	if string(got) != want {
		t.Errorf("file content = %q, want %q", got, want)
	}
}

func TestApplyAllRecordsPreEditHashAndPosition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	original := "a = 1\n"
	os.WriteFile(path, []byte(original), 0o644)

	fixes := []defect.Fix{
		{File: "a.py", Line: 1, OriginalCode: "a = 1", FixedCode: "a = 2", Status: defect.FixProposed},
	}

	f := New(&stubLLM{}, testLogger())
	out := f.ApplyAll(dir, fixes)

	if out[0].PreEditHash != PreEditHash(original) {
		t.Errorf("PreEditHash = %q, want hash of original content", out[0].PreEditHash)
	}
	if out[0].Position != 0 {
		t.Errorf("Position = %d, want 0", out[0].Position)
	}
}
