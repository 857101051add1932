// Package defect holds the core data model shared by every component of the
// healing pipeline: the observation (Defect), the proposed/applied edit
// (Fix), test results (TestOutcome), per-iteration bookkeeping
// (IterationRecord), and the durable run output (RunResult).
package defect

import "time"

// BugType is a tag drawn from a closed, total enum. Parsers that cannot
// classify an error must emit Linting or Runtime — never a new value.
type BugType string

const (
	Syntax      BugType = "SYNTAX"
	Indentation BugType = "INDENTATION"
	Import      BugType = "IMPORT"
	TypeError   BugType = "TYPE_ERROR"
	Logic       BugType = "LOGIC"
	TestFailure BugType = "TEST_FAILURE"
	Runtime     BugType = "RUNTIME"
	Linting     BugType = "LINTING"
)

// priority orders bug types for dedup and iteration scheduling (§4.7):
// SYNTAX > INDENTATION > IMPORT > TYPE_ERROR > LOGIC > TEST_FAILURE > RUNTIME > LINTING.
// Lower number wins ties.
var priority = map[BugType]int{
	Syntax:      0,
	Indentation: 1,
	Import:      2,
	TypeError:   3,
	Logic:       4,
	TestFailure: 5,
	Runtime:     6,
	Linting:     7,
}

// Priority returns the bug type's rank; lower ranks win dedup/scheduling ties.
// Unknown types sort after Linting so an implementation bug never silently
// outranks a real defect.
func Priority(bt BugType) int {
	if p, ok := priority[bt]; ok {
		return p
	}
	return len(priority)
}

// Higher returns true if a outranks b (a should be kept on a dedup collision).
func Higher(a, b BugType) bool {
	return Priority(a) < Priority(b)
}

// Severity classifies how urgently a Defect must be addressed.
type Severity string

const (
	SeverityBlocker   Severity = "blocker"
	SeverityFixable   Severity = "fixable"
	SeverityStylistic Severity = "stylistic"
)

// Defect is a single actionable diagnostic at one file/line. Produced by the
// sandbox executor or the error classifier; consumed by the orchestrator;
// discarded once the run result is persisted.
type Defect struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column,omitempty"`
	BugType  BugType  `json:"bug_type"`
	Raw      string   `json:"raw"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	// Source names the analyzer that produced this Defect (e.g. "ruff",
	// "tsc", "pytest", "sandbox-runtime"). Informational only.
	Source string `json:"source,omitempty"`
	// Degraded marks a Defect produced by a fallback path (e.g. direct
	// subprocess execution when no container isolation backend exists).
	Degraded bool `json:"degraded,omitempty"`
}

// Signature returns "<bug-type>|<file>|<line>" (§3), the key Subtract and
// the orchestrator's fixed set use; Dedup merges on its file and line.
func (d Defect) Signature() string {
	return Signature(d.BugType, d.File, d.Line)
}

// Signature builds a defect signature from its parts.
func Signature(bt BugType, file string, line int) string {
	return string(bt) + "|" + file + "|" + itoa(line)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// FixStatus is the lifecycle state of a Fix.
type FixStatus string

const (
	FixProposed FixStatus = "PROPOSED"
	FixFixed    FixStatus = "FIXED"
	FixFailed   FixStatus = "FAILED"
)

// Fix is a proposed or applied textual edit tied to one defect.
type Fix struct {
	File          string    `json:"file_path"`
	Line          int       `json:"line_number"`
	BugType       BugType   `json:"bug_type"`
	Status        FixStatus `json:"status"`
	OriginalCode  string    `json:"original_code,omitempty"`
	FixedCode     string    `json:"fixed_code,omitempty"`
	Description   string    `json:"description,omitempty"`
	CommitMessage string    `json:"commit_message"`
	// FailReason is set when Status is FAILED (e.g. "NotFound").
	FailReason string `json:"fail_reason,omitempty"`
	// PreEditHash and Position make a FIXED fix reproducible (invariant F1):
	// sha256 of the pre-edit file content, plus the byte offset at which
	// OriginalCode was found and replaced.
	PreEditHash string `json:"pre_edit_hash,omitempty"`
	Position    int    `json:"position,omitempty"`
}

// TestOutcome is a single test result.
type TestOutcome struct {
	Name          string `json:"name"`
	Passed        bool   `json:"passed"`
	File          string `json:"file,omitempty"`
	Line          int    `json:"line,omitempty"`
	Message       string `json:"message,omitempty"`
	FailureType   string `json:"failure_type,omitempty"`
}

// IterationRecord captures one analyze→fix→verify pass.
type IterationRecord struct {
	Index            int      `json:"index"`
	DefectsBefore    int      `json:"defects_before"`
	DefectsAfter     int      `json:"defects_after"`
	FixesAttempted   int      `json:"fixes_attempted"`
	FixesSuccessful  int      `json:"fixes_successful"`
	Duration         float64  `json:"duration_seconds"`
	FixedSignatures  []string `json:"fixed_signatures"`
	RemainingSignatures []string `json:"remaining_signatures"`
}

// ResolutionStatus summarizes the functional outcome of a run.
type ResolutionStatus string

const (
	AllResolved        ResolutionStatus = "ALL_RESOLVED"
	PartiallyResolved  ResolutionStatus = "PARTIALLY_RESOLVED"
	Unresolved         ResolutionStatus = "UNRESOLVED"
)

// CIStatus is the external CI state observed by the forge adapter.
type CIStatus string

const (
	CIPending CIStatus = "pending"
	CIRunning CIStatus = "running"
	CISuccess CIStatus = "success"
	CIFailure CIStatus = "failure"
	CIUnknown CIStatus = "unknown"
)

// Summary is the nested `summary` object in RunResult.
type Summary struct {
	TotalIterations  int               `json:"total_iterations"`
	InitialErrors    int               `json:"initial_errors"`
	FinalErrors      int               `json:"final_errors"`
	ResolutionStatus ResolutionStatus  `json:"resolution_status"`
	Iterations       []IterationRecord `json:"iterations"`
}

// RunResult is the durable output of one Run invocation (§3, §6).
type RunResult struct {
	RepoURL                string        `json:"repo_url"`
	TeamName               string        `json:"team_name"`
	LeaderName             string        `json:"leader_name"`
	BranchName             string        `json:"branch_name"`
	TotalFailuresDetected  int           `json:"total_failures_detected"`
	TotalFixesApplied      int           `json:"total_fixes_applied"`
	TotalTimeTaken         float64       `json:"total_time_taken"`
	Fixes                  []Fix         `json:"fixes"`
	TestResults            []TestOutcome `json:"test_results"`
	GeneratedTests         []string      `json:"generated_tests,omitempty"`
	StartTime              time.Time     `json:"start_time"`
	EndTime                time.Time     `json:"end_time"`
	Status                 string        `json:"status"`
	Summary                Summary       `json:"summary"`
	CommitSHA              string        `json:"commit_sha,omitempty"`
	BranchURL              string        `json:"branch_url,omitempty"`
	PRURL                  string        `json:"pr_url,omitempty"`
	PRNumber               int           `json:"pr_number,omitempty"`
	CIStatus               CIStatus      `json:"ci_status,omitempty"`
	Merged                 bool          `json:"merged"`
	Score                  int           `json:"score"`
}
