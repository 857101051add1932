// Package resultstore implements the Result Store (C10): one JSON RunResult
// document per run-id, written atomically (write-to-temp, rename) and
// readable at any time.
package resultstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codeheal/healer/internal/defect"
)

// MaxResultBytes caps how much of a result document is decoded, mirroring
// the teacher's own bounded-decode discipline for checkpoint files.
const MaxResultBytes = 8 << 20

// Store persists RunResult documents under Dir, one file per run-id.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Save writes result for runID atomically via a tmp-file-then-rename,
// matching orchestrate.SaveCheckpoint's discipline (§4.8: "only the
// Orchestrator writes").
func (s *Store) Save(runID string, result defect.RunResult) error {
	if err := validateRunID(runID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}
	if err := validateAgainstSchema(data); err != nil {
		return err
	}

	path := s.path(runID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write run result: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename run result: %w", err)
	}
	return nil
}

// Load reads back the RunResult for runID. Readable at any point in the
// run's lifecycle, including mid-run if the caller has a stale copy from
// a previous Save.
func (s *Store) Load(runID string) (*defect.RunResult, error) {
	if err := validateRunID(runID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(runID))
	if err != nil {
		return nil, fmt.Errorf("read run result %s: %w", runID, err)
	}

	var result defect.RunResult
	dec := json.NewDecoder(io.LimitReader(bytes.NewReader(data), MaxResultBytes))
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("parse run result %s: %w", runID, err)
	}
	return &result, nil
}

// List returns every known run-id, most recently modified first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("list results dir: %w", err)
	}

	type runInfo struct {
		id      string
		modTime int64
	}
	var runs []runInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		runs = append(runs, runInfo{id: strings.TrimSuffix(e.Name(), ".json"), modTime: info.ModTime().UnixNano()})
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].modTime > runs[j].modTime })

	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.id
	}
	return ids, nil
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.Dir, runID+".json")
}

// validateRunID rejects a run-id that would escape Dir when joined into a
// filename (path traversal via "../" or embedded separators).
func validateRunID(runID string) error {
	if runID == "" {
		return fmt.Errorf("empty run id")
	}
	if strings.ContainsAny(runID, "/\\") || runID == "." || runID == ".." {
		return fmt.Errorf("invalid run id %q", runID)
	}
	return nil
}
