// Package classify implements the Error Parser / Classifier (C4): a pure,
// deterministic mapping from raw compiler/linter/test output to the closed
// defect.BugType taxonomy. No LLM involved.
package classify

import "strings"

// kindRule is one row of the normative classification table (§4.4). Order
// matters: ties between rows are broken by "earlier row wins".
var kindRules = []struct {
	BugType    string
	Substrings []string
}{
	{"SYNTAX", []string{"syntaxerror", "invalid syntax"}},
	{"INDENTATION", []string{"indentationerror", "taberror", "unexpected indent", "unindent does not match"}},
	{"IMPORT", []string{"importerror", "modulenotfounderror", "cannot import name", "no module named"}},
	{"TYPE_ERROR", []string{"typeerror", "attributeerror", "incompatible types"}},
	{"LOGIC", []string{"nameerror", "valueerror", "keyerror", "indexerror", "zerodivisionerror", "referenceerror", "rangeerror"}},
	{"TEST_FAILURE", []string{"assertionerror", "pytest failed"}},
	{"RUNTIME", []string{"runtimeerror", "permissionerror", "recursionerror", "filenotfounderror"}},
}

// Classify maps a raw error-kind string (e.g. an exception class name, a
// linter rule code, a tsc diagnostic code) into the closed bug-type enum
// per the normative table in §4.4. TS diagnostic codes starting "TS" are
// TYPE_ERROR; anything unmatched defaults to LINTING.
func Classify(kind string) string {
	lower := strings.ToLower(kind)
	for _, rule := range kindRules {
		for _, s := range rule.Substrings {
			if strings.Contains(lower, s) {
				return rule.BugType
			}
		}
	}
	if isTSDiagnosticCode(kind) {
		return "TYPE_ERROR"
	}
	return "LINTING"
}

func isTSDiagnosticCode(kind string) bool {
	trimmed := strings.TrimSpace(kind)
	return strings.HasPrefix(trimmed, "TS") && len(trimmed) > 2 && isAllDigits(trimmed[2:])
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
