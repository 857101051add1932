// Package workspace implements the Repository Workspace (C1): a fresh,
// cleanup-on-exit sandbox directory per run, holding a shallow clone of the
// target repository.
package workspace

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CloneFailedError wraps a clone failure (§7 Fatal error class).
type CloneFailedError struct {
	RepoURL string
	Err     error
}

func (e *CloneFailedError) Error() string {
	return fmt.Sprintf("clone %s: %v", e.RepoURL, e.Err)
}

func (e *CloneFailedError) Unwrap() error { return e.Err }

// Handle is the acquired workspace: its path and run id. Acquire returns
// the cleanup function alongside it.
type Handle struct {
	Path    string
	RunID   string
	cleaned bool
}

// CloneTimeout bounds the clone operation (§5); overridable at process
// startup from config (CODEHEALER_TIMEOUT_CLONE).
var CloneTimeout = 120 * time.Second

// Acquire creates a fresh directory under root, named
// "<repo-basename>_<timestamp>_<run-id>", shallow-clones repoURL into it,
// and returns a Handle plus a cleanup function. cleanup is idempotent and
// never panics; callers must defer it on every exit path.
func Acquire(ctx context.Context, root, repoURL string) (*Handle, func(), error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, noop, fmt.Errorf("create workspace root: %w", err)
	}

	runID := uuid.NewString()
	dirName := fmt.Sprintf("%s_%s_%s", basename(repoURL), time.Now().UTC().Format("20060102T150405Z"), runID[:8])
	path := filepath.Join(root, dirName)

	cloneCtx, cancel := context.WithTimeout(ctx, CloneTimeout)
	defer cancel()

	cmd := exec.CommandContext(cloneCtx, "git", "clone", "--depth", "1", repoURL, path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.RemoveAll(path)
		return nil, noop, &CloneFailedError{RepoURL: repoURL, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))}
	}

	h := &Handle{Path: path, RunID: runID}
	return h, func() { h.cleanup() }, nil
}

func noop() {}

// cleanup recursively removes the workspace directory. Idempotent: a
// second call after a successful cleanup (or on a Handle that was never
// fully acquired) is a no-op, never an error surfaced to the caller.
func (h *Handle) cleanup() {
	if h == nil || h.cleaned || h.Path == "" {
		return
	}
	h.cleaned = true
	_ = os.RemoveAll(h.Path)
}

// basename extracts a filesystem-safe repo name from a URL, e.g.
// "https://github.com/acme/widgets.git" -> "widgets".
func basename(repoURL string) string {
	trimmed := strings.TrimSuffix(repoURL, "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")
	idx := strings.LastIndexAny(trimmed, "/:")
	name := trimmed
	if idx >= 0 {
		name = trimmed[idx+1:]
	}
	if name == "" {
		return "repo"
	}
	return sanitizeDirName(name)
}

func sanitizeDirName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
