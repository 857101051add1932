package testrunner

import (
	"regexp"
	"strings"

	"github.com/codeheal/healer/internal/defect"
)

var (
	pytestFailedRe = regexp.MustCompile(`^FAILED\s+([\w./\\-]+)::(\S+?)(?:\s*-\s*(.*))?$`)
	pytestPassedRe = regexp.MustCompile(`^([\w./\\-]+)::(\S+)\s+PASSED`)
	pytestFrameRe  = regexp.MustCompile(`^([\w./\\-]+):(\d+):\s+in\s+(\w+)$`)
	pytestHeaderRe = regexp.MustCompile(`^_{3,}\s*(\S+)\s*_{3,}$`)
)

// parsePytest parses `pytest -q --tb=short` output: the short-summary
// "FAILED file::test - message" lines for identity, correlated with the
// per-test traceback blocks (headed by "____ test_name ____") for the
// source-under-test location (§4.6).
func parsePytest(output string) []defect.TestOutcome {
	lines := strings.Split(output, "\n")

	frameByTest := map[string][2]string{} // test name -> [file,line] of last non-test frame
	currentTest := ""
	for _, line := range lines {
		if m := pytestHeaderRe.FindStringSubmatch(line); m != nil {
			currentTest = m[1]
			continue
		}
		if currentTest == "" {
			continue
		}
		if m := pytestFrameRe.FindStringSubmatch(line); m != nil {
			if !isTestFile(m[1]) {
				frameByTest[currentTest] = [2]string{m[1], m[2]}
			}
		}
	}

	var outcomes []defect.TestOutcome
	for _, line := range lines {
		if m := pytestFailedRe.FindStringSubmatch(line); m != nil {
			testFile, testName, msg := m[1], m[2], m[3]
			file, lineNo := testFile, 0
			if frame, ok := frameByTest[testName]; ok {
				file = frame[0]
				lineNo = atoi(frame[1])
			} else {
				file = sourceFileFor(testFile)
			}
			outcomes = append(outcomes, defect.TestOutcome{
				Name:        testName,
				Passed:      false,
				File:        file,
				Line:        lineNo,
				Message:     msg,
				FailureType: "AssertionError",
			})
			continue
		}
		if m := pytestPassedRe.FindStringSubmatch(line); m != nil {
			outcomes = append(outcomes, defect.TestOutcome{
				Name:   m[2],
				Passed: true,
				File:   m[1],
			})
		}
	}
	return outcomes
}

var unittestFailRe = regexp.MustCompile(`^(FAIL|ERROR):\s+(\S+)\s+\(([\w.]+)\)`)

// parseUnittest parses `python -m unittest discover -v` output, which
// emits one "testName (module.Class) ... ok/FAIL/ERROR" line per test.
func parseUnittest(output string) []defect.TestOutcome {
	var outcomes []defect.TestOutcome
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasSuffix(trimmed, "... ok"):
			name := strings.TrimSpace(strings.TrimSuffix(trimmed, "... ok"))
			outcomes = append(outcomes, defect.TestOutcome{Name: name, Passed: true})
		case strings.Contains(trimmed, "... FAIL"), strings.Contains(trimmed, "... ERROR"):
			name := strings.TrimSpace(strings.SplitN(trimmed, "...", 2)[0])
			outcomes = append(outcomes, defect.TestOutcome{Name: name, Passed: false, FailureType: "AssertionError"})
		}
	}
	return outcomes
}

var (
	jsFailMarkerRe = regexp.MustCompile(`^\s*[✕x]\s+(.+?)\s*(?:\(\d+\s*ms\))?$`)
	jsPassMarkerRe = regexp.MustCompile(`^\s*[✓✔]\s+(.+?)\s*(?:\(\d+\s*ms\))?$`)
	jsFrameRe      = regexp.MustCompile(`^\s*at .*\(([^():]+):(\d+):(\d+)\)\s*$`)
)

// parseJSFramework parses the default human-readable reporter output
// shared (closely enough) by jest/vitest/mocha: a checkmark/cross marker
// line per test, with stack-frame lines immediately following a failure.
func parseJSFramework(output string) []defect.TestOutcome {
	lines := strings.Split(output, "\n")
	var outcomes []defect.TestOutcome

	for i, line := range lines {
		if m := jsPassMarkerRe.FindStringSubmatch(line); m != nil {
			outcomes = append(outcomes, defect.TestOutcome{Name: strings.TrimSpace(m[1]), Passed: true})
			continue
		}
		m := jsFailMarkerRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		file, lineNo := "", 0
		for j := i + 1; j < len(lines) && j < i+20; j++ {
			fm := jsFrameRe.FindStringSubmatch(lines[j])
			if fm == nil {
				continue
			}
			if !isTestFile(fm[1]) {
				file = fm[1]
				lineNo = atoi(fm[2])
				break
			}
			if file == "" {
				file = sourceFileFor(fm[1])
			}
		}
		outcomes = append(outcomes, defect.TestOutcome{
			Name:        name,
			Passed:      false,
			File:        file,
			Line:        lineNo,
			FailureType: "AssertionError",
		})
	}
	return outcomes
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
