// Package detect implements the Project Detector (C2): a first-match
// decision tree over on-disk markers that identifies project language and
// test framework.
package detect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Language is the detected primary project language.
type Language string

const (
	Java       Language = "java"
	TypeScript Language = "typescript"
	Node       Language = "node"
	Python     Language = "python"
	Unknown    Language = "unknown"
)

// Framework is the detected test framework.
type Framework string

const (
	Pytest     Framework = "pytest"
	Unittest   Framework = "unittest"
	Jest       Framework = "jest"
	Vitest     Framework = "vitest"
	Mocha      Framework = "mocha"
	NoFramework Framework = ""
)

// Result is the outcome of detecting a project's language and test
// framework.
type Result struct {
	Language  Language
	Framework Framework
}

// marker is one decision-tree rule: if any of Files exists at root, the
// language is Lang. Order matters — first match wins (§4.2).
var markers = []struct {
	Lang  Language
	Files []string
}{
	{Java, []string{"pom.xml", "build.gradle", "build.gradle.kts"}},
	{TypeScript, []string{"tsconfig.json"}},
	{Node, []string{"package.json"}},
	{Python, []string{"requirements.txt", "setup.py", "pyproject.toml"}},
}

// Detect walks the decision tree in §4.2: markers first, then majority
// file extension, then Unknown.
func Detect(root string) Result {
	lang := detectLanguage(root)
	return Result{Language: lang, Framework: detectFramework(root, lang)}
}

func detectLanguage(root string) Language {
	for _, m := range markers {
		for _, f := range m.Files {
			if exists(filepath.Join(root, f)) {
				return m.Lang
			}
		}
	}
	if lang := majorityExtension(root); lang != "" {
		return lang
	}
	return Unknown
}

var extToLang = map[string]Language{
	".py":   Python,
	".ts":   TypeScript,
	".tsx":  TypeScript,
	".js":   Node,
	".jsx":  Node,
	".java": Java,
}

// majorityExtension scans the tree root (non-recursive, matching §4.2's
// "tree root") and returns the language with the most matching files.
func majorityExtension(root string) Language {
	entries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}
	counts := make(map[Language]int)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if lang, ok := extToLang[ext]; ok {
			counts[lang]++
		}
	}
	if len(counts) == 0 {
		return ""
	}
	langs := make([]Language, 0, len(counts))
	for l := range counts {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j] // deterministic tiebreak
	})
	return langs[0]
}

// detectFramework reads manifests and on-disk markers (§4.2b): pytest.ini
// / [tool:pytest], test_*.py / *_test.py (pytest); *.test.{js,ts,jsx,tsx}
// (jest/vitest, disambiguated by manifest dependency); a root-level "test"
// entry (mocha). The mocha check only tests that "test" exists; it does not
// look for .js/.ts files inside it.
func detectFramework(root string, lang Language) Framework {
	switch lang {
	case Python:
		if exists(filepath.Join(root, "pytest.ini")) || hasPytestSection(filepath.Join(root, "setup.cfg")) || hasPytestSection(filepath.Join(root, "tox.ini")) {
			return Pytest
		}
		if hasMatchingFile(root, isPytestFileName) {
			return Pytest
		}
		return Unittest
	case Node, TypeScript:
		deps := readPackageJSONDeps(filepath.Join(root, "package.json"))
		if deps["vitest"] {
			return Vitest
		}
		if deps["jest"] {
			return Jest
		}
		if deps["mocha"] {
			return Mocha
		}
		if hasMatchingFile(root, isJSTestFileName) {
			return Jest
		}
		if exists(filepath.Join(root, "test")) {
			return Mocha
		}
		return NoFramework
	default:
		return NoFramework
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func hasPytestSection(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "[tool:pytest]") || strings.Contains(string(data), "[pytest]")
}

// hasMatchingFile walks the tree (bounded to a reasonable depth implicitly
// by skipping common dependency/VCS directories) looking for any file name
// matching match.
func hasMatchingFile(root string, match func(name string) bool) bool {
	found := false
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || found {
			return nil //nolint:nilerr // best-effort scan
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "node_modules", "venv", ".venv", "__pycache__", "dist", "build":
				return filepath.SkipDir
			}
			return nil
		}
		if match(d.Name()) {
			found = true
		}
		return nil
	})
	return found
}

func isPytestFileName(name string) bool {
	return strings.HasPrefix(name, "test_") && strings.HasSuffix(name, ".py") ||
		strings.HasSuffix(name, "_test.py")
}

// readPackageJSONDeps returns the union of "dependencies" and
// "devDependencies" keys from a package.json, or an empty (nil-safe) map if
// the file is absent or malformed.
func readPackageJSONDeps(path string) map[string]bool {
	deps := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return deps
	}
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return deps
	}
	for name := range manifest.Dependencies {
		deps[name] = true
	}
	for name := range manifest.DevDependencies {
		deps[name] = true
	}
	return deps
}

func isJSTestFileName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".js", ".ts", ".jsx", ".tsx"} {
		if strings.HasSuffix(lower, ".test"+ext) {
			return true
		}
	}
	return false
}
