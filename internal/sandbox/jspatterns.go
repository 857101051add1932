package sandbox

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codeheal/healer/internal/defect"
)

// jsExt lists the extensions scanned by the built-in JS/TS pattern checks
// (§4.3a), used when no project-local or PATH linter is available.
var jsExt = map[string]bool{".js": true, ".jsx": true, ".ts": true, ".tsx": true}

// runJSPatternChecks scans every JS/TS/JSX/TSX file under root for the
// fixed set of patterns in §4.3a, returning one Defect per finding.
func (e *Executor) runJSPatternChecks(root string) []defect.Defect {
	var out []defect.Defect
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort scan
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "node_modules", "dist", "build":
				return filepath.SkipDir
			}
			return nil
		}
		if !jsExt[filepath.Ext(path)] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		out = append(out, scanJSFile(rel, string(data))...)
		return nil
	})
	return out
}

var (
	debuggerRe      = regexp.MustCompile(`\bdebugger\s*;`)
	emptyCatchRe    = regexp.MustCompile(`catch\s*\([^)]*\)\s*\{\s*\}`)
	assignInCondRe  = regexp.MustCompile(`if\s*\([^()=!<>]*[^=!<>]=[^=][^()]*\)`)
	looseEqRe       = regexp.MustCompile(`[^=!]!=[^=]`)
	jsxClassAttrRe  = regexp.MustCompile(`<[A-Z][\w.]*[^>]*\sclass=`)
	jsxLabelForRe   = regexp.MustCompile(`<label[^>]*\sfor=`)
	mapCallRe       = regexp.MustCompile(`\.map\s*\(`)
	keyAttrRe       = regexp.MustCompile(`\skey=`)
)

// scanJSFile applies every §4.3a check to one file's contents.
func scanJSFile(relPath, content string) []defect.Defect {
	var out []defect.Defect
	lines := strings.Split(content, "\n")

	if imbalance := bracketImbalance(stripStringsAndComments(content)); imbalance > 2 || imbalance < -2 {
		out = append(out, newPatternDefect(relPath, 1, defect.Syntax, "net bracket imbalance exceeds tolerance"))
	}

	for i, line := range lines {
		ln := i + 1
		clean := stripStringsAndComments(line)
		if debuggerRe.MatchString(clean) {
			out = append(out, newPatternDefect(relPath, ln, defect.Linting, "debugger statement left in source"))
		}
		if emptyCatchRe.MatchString(clean) {
			out = append(out, newPatternDefect(relPath, ln, defect.Linting, "empty catch block swallows errors"))
		}
		if assignInCondRe.MatchString(clean) {
			out = append(out, newPatternDefect(relPath, ln, defect.Logic, "assignment inside condition, did you mean ==?"))
		}
		if looseEqRe.MatchString(clean) {
			out = append(out, newPatternDefect(relPath, ln, defect.Linting, "loose inequality != where !== is expected"))
		}
		if jsxClassAttrRe.MatchString(line) {
			out = append(out, newPatternDefect(relPath, ln, defect.Linting, "JSX class= should be className="))
		}
		if jsxLabelForRe.MatchString(line) {
			out = append(out, newPatternDefect(relPath, ln, defect.Linting, "JSX <label for= should be htmlFor="))
		}
		if mapCallRe.MatchString(line) && !hasKeyWithinLookahead(lines, i, 3) {
			out = append(out, newPatternDefect(relPath, ln, defect.Linting, "map render expression missing key prop"))
		}
	}
	return out
}

func hasKeyWithinLookahead(lines []string, idx, span int) bool {
	end := idx + span
	if end >= len(lines) {
		end = len(lines) - 1
	}
	for i := idx; i <= end; i++ {
		if keyAttrRe.MatchString(lines[i]) {
			return true
		}
	}
	return false
}

func newPatternDefect(file string, line int, bt defect.BugType, msg string) defect.Defect {
	return defect.Defect{
		File:     file,
		Line:     line,
		BugType:  bt,
		Message:  msg,
		Severity: defect.SeverityFixable,
		Source:   "builtin-js-pattern",
	}
}

// stripStringsAndComments removes string/template literal contents and
// comments so bracket-balance and assignment checks don't trip over
// brackets or operators that only appear inside text.
func stripStringsAndComments(s string) string {
	var b strings.Builder
	inLineComment := false
	inBlockComment := false
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
				b.WriteByte(c)
			}
		case inBlockComment:
			if c == '*' && i+1 < len(s) && s[i+1] == '/' {
				inBlockComment = false
				i++
			}
		case quote != 0:
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			inLineComment = true
			i++
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			inBlockComment = true
			i++
		case c == '"' || c == '\'' || c == '`':
			quote = c
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// bracketImbalance counts net (open - close) across (), {}, [].
func bracketImbalance(s string) int {
	balance := 0
	for _, r := range s {
		switch r {
		case '(', '{', '[':
			balance++
		case ')', '}', ']':
			balance--
		}
	}
	return balance
}
