package defect

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateWithinRoot rejects a Fix/Defect target path that would resolve
// outside root after cleaning (invariant F2: no Fix targets a file outside
// the workspace root). path may be repo-relative or absolute; root must be
// absolute.
func ValidateWithinRoot(root, path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if filepath.IsAbs(path) {
		return validateAbs(root, path)
	}
	joined := filepath.Join(root, path)
	return validateAbs(root, joined)
}

func validateAbs(root, abs string) error {
	root = filepath.Clean(root)
	abs = filepath.Clean(abs)
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes workspace root %q", abs, root)
	}
	return nil
}
