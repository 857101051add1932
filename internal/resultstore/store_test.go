package resultstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeheal/healer/internal/defect"
)

func TestSaveThenLoadRoundTripsAllFields(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result := defect.RunResult{
		RepoURL:    "https://github.com/acme/widgets.git",
		TeamName:   "acme",
		LeaderName: "jane",
		BranchName: "ACME_jane_AI_Fix",
		StartTime:  time.Now().UTC().Truncate(time.Second),
		EndTime:    time.Now().UTC().Truncate(time.Second),
		Status:     "completed",
		Score:      100,
		Summary:    defect.Summary{ResolutionStatus: defect.AllResolved},
	}

	if err := s.Save("run-1", result); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load("run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RepoURL != result.RepoURL || got.Score != result.Score || got.Summary.ResolutionStatus != result.Summary.ResolutionStatus {
		t.Errorf("round-tripped result mismatch: %+v", got)
	}
}

func TestSaveWritesViaTmpRename(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)
	if err := s.Save("run-2", defect.RunResult{RepoURL: "x"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "run-2.json.tmp")); err == nil {
		t.Error("expected the tmp file to be renamed away, not left behind")
	}
}

func TestListOrdersByMostRecentlyModified(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)
	s.Save("older", defect.RunResult{})
	time.Sleep(10 * time.Millisecond)
	s.Save("newer", defect.RunResult{})

	ids, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 || ids[0] != "newer" || ids[1] != "older" {
		t.Errorf("got %v, want [newer older]", ids)
	}
}

func TestSaveRejectsPathTraversalRunID(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)
	if err := s.Save("../escape", defect.RunResult{}); err == nil {
		t.Error("expected an error for a path-traversal run id")
	}
}

func TestLoadMissingRunReturnsError(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)
	if _, err := s.Load("does-not-exist"); err == nil {
		t.Error("expected an error loading a missing run")
	}
}
