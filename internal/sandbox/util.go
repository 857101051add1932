package sandbox

import (
	"os"
	"path/filepath"
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// scratchDir creates a throwaway output directory for tools like javac
// that refuse to compile without a writable -d target.
func scratchDir(root string) (string, error) {
	return os.MkdirTemp("", "healer-javac-*")
}

// findJavaSources walks root for .java files, skipping common build/VCS
// directories, matching the skip-list discipline in detect.hasMatchingFile.
func findJavaSources(root string) []string {
	var sources []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort scan
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "target", "build", "out":
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".java" {
			sources = append(sources, path)
		}
		return nil
	})
	return sources
}
