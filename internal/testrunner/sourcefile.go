package testrunner

import "strings"

// sourceFileFor derives the source file under test from a test file's
// name when no better location was found in a traceback (§4.6: "derives
// the source file by dropping the test_ prefix or the _test.py suffix").
func sourceFileFor(testFile string) string {
	dir, base := splitDir(testFile)
	switch {
	case strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"):
		return dir + strings.TrimPrefix(base, "test_")
	case strings.HasSuffix(base, "_test.py"):
		return dir + strings.TrimSuffix(base, "_test.py") + ".py"
	case strings.HasSuffix(base, ".test.js"):
		return dir + strings.TrimSuffix(base, ".test.js") + ".js"
	case strings.HasSuffix(base, ".test.ts"):
		return dir + strings.TrimSuffix(base, ".test.ts") + ".ts"
	default:
		return testFile
	}
}

func splitDir(path string) (dir, base string) {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "", path
	}
	return path[:idx+1], path[idx+1:]
}

// isTestFile reports whether path looks like a test file rather than
// source under test.
func isTestFile(path string) bool {
	base := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		base = path[idx+1:]
	}
	return strings.HasPrefix(base, "test_") ||
		strings.HasSuffix(base, "_test.py") ||
		strings.HasSuffix(base, ".test.js") ||
		strings.HasSuffix(base, ".test.ts") ||
		strings.HasSuffix(base, ".spec.js") ||
		strings.HasSuffix(base, ".spec.ts")
}
