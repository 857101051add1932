package classify

import (
	"regexp"
	"strconv"
	"strings"
)

// Extracted is one (file, line, error-kind, message) tuple pulled from raw
// analyzer/test output.
type Extracted struct {
	File    string
	Line    int
	Column  int
	Kind    string
	Message string
}

// taggedPattern is one named row of the ordered extraction list (§4.4.1).
// Order matters: for ambiguous lines, earlier patterns are tried first.
type taggedPattern struct {
	tag string
	re  *regexp.Regexp
}

var patterns = []taggedPattern{
	{"tsc", regexp.MustCompile(`^(?P<file>.+?)\((?P<line>\d+),(?P<col>\d+)\):\s*(?:error|warning)\s+(?P<kind>TS\d+):\s*(?P<message>.*)$`)},
	{"javac", regexp.MustCompile(`^(?P<file>.+\.java):(?P<line>\d+):\s*(?P<kind>error|warning):\s*(?P<message>.*)$`)},
	{"eslint", regexp.MustCompile(`^\s*(?P<line>\d+):(?P<col>\d+)\s+(?P<kind>error|warning)\s+(?P<message>.*?)\s+(?P<rule>[\w-]+/?[\w-]*)\s*$`)},
	{"node-frame", regexp.MustCompile(`^\s*at .*\((?P<file>[^():]+):(?P<line>\d+):(?P<col>\d+)\)\s*$`)},
	{"pytest-short", regexp.MustCompile(`^(?P<kind>FAILED)\s+(?P<file>[\w./\\-]+)::\S+(?:\s*-\s*(?P<message>.*))?$`)},
	{"py-traceback-file", regexp.MustCompile(`^\s*File "(?P<file>[^"]+)", line (?P<line>\d+)`)},
	{"py-exception", regexp.MustCompile(`^(?P<kind>[A-Za-z_][A-Za-z0-9_.]*(?:Error|Exception|Warning))(?::\s*(?P<message>.*))?$`)},
	{"generic", regexp.MustCompile(`^(?P<file>[\w./\\-]+):(?P<line>\d+):(?:(?P<col>\d+):)?\s*(?P<message>.*)$`)},
}

// Extract pulls every (file, line, kind, message) tuple it can find out of
// raw, trying patterns in order per line. Python tracebacks are handled as
// a special two-line case: a "File ..., line N" location line followed
// later by the terminal exception line supplies the kind/message.
func Extract(raw string) []Extracted {
	var out []Extracted
	lines := strings.Split(raw, "\n")

	var pendingFile string
	var pendingLine int
	havePending := false

	for _, line := range lines {
		if m := match(patterns[5].re, line); m != nil { // py-traceback-file
			pendingFile = m["file"]
			pendingLine = atoi(m["line"])
			havePending = true
			continue
		}
		if havePending {
			if m := match(patterns[6].re, line); m != nil { // py-exception
				out = append(out, Extracted{
					File:    pendingFile,
					Line:    pendingLine,
					Kind:    m["kind"],
					Message: strings.TrimSpace(m["message"]),
				})
				havePending = false
				continue
			}
		}

		for i, p := range patterns {
			if i == 5 || i == 6 { // handled above as a pair
				continue
			}
			m := match(p.re, line)
			if m == nil {
				continue
			}
			e := Extracted{
				File:    m["file"],
				Line:    atoi(m["line"]),
				Column:  atoi(m["col"]),
				Message: strings.TrimSpace(m["message"]),
			}
			switch p.tag {
			case "eslint":
				e.Kind = m["rule"]
				if e.Kind == "" {
					e.Kind = m["kind"]
				}
			case "pytest-short":
				e.Kind = "AssertionError"
			default:
				e.Kind = m["kind"]
			}
			out = append(out, e)
			break
		}
	}
	return out
}

func match(re *regexp.Regexp, line string) map[string]string {
	names := re.SubexpNames()
	sub := re.FindStringSubmatch(line)
	if sub == nil {
		return nil
	}
	result := make(map[string]string, len(names))
	for i, name := range names {
		if name == "" {
			continue
		}
		result[name] = sub[i]
	}
	return result
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
