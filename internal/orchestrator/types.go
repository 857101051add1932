// Package orchestrator implements the Orchestrator (C7): the stateful
// coordinator that drives the bounded detect -> parse -> fix -> verify
// loop, tracks convergence, computes the run score, and invokes the VCS
// and forge adapters.
package orchestrator

import (
	"context"

	"github.com/codeheal/healer/internal/defect"
)

// RunRequest is the external command input (§6), from the enclosing
// service — either assembled from CLI flags or decoded as JSON when
// submitted programmatically (see LoadRunRequestJSON).
type RunRequest struct {
	RepoURL       string `json:"repo_url"`
	TeamName      string `json:"team_name"`
	LeaderName    string `json:"leader_name"`
	PushToken     string `json:"push_token,omitempty"`
	Push          bool   `json:"push"`
	CreatePR      bool   `json:"create_pr"`
	AutoMergeOnCI bool   `json:"auto_merge_on_ci"`
	GenerateTests bool   `json:"generate_tests"`
}

// Config holds the tunables with defaults listed in §5/§4.7.
type Config struct {
	MaxIterations      int
	TestTailIterations int
	WorkspaceRoot      string
}

// DefaultConfig returns the normative defaults (MAX_ITERATIONS=5,
// TEST_TAIL_ITERATIONS=3).
func DefaultConfig() Config {
	return Config{MaxIterations: 5, TestTailIterations: 3, WorkspaceRoot: "./workspaces"}
}

// VCS is the narrow git adapter C7 drives (C8). Consumed here, implemented
// by internal/vcs.
type VCS interface {
	CreateBranch(ctx context.Context, root, name string) error
	CommitAll(ctx context.Context, root, message string) (sha string, err error)
	Push(ctx context.Context, root, branch, token string) (url string, err error)
}

// Forge is the narrow forge REST adapter C7 drives (C9). Consumed here,
// implemented by internal/forge.
type Forge interface {
	CreatePR(ctx context.Context, repoURL, branch, title, body, token string) (url string, number int, err error)
	LatestCIStatus(ctx context.Context, repoURL string, prNumber int, token string) (defect.CIStatus, error)
	MergePR(ctx context.Context, repoURL string, prNumber int, token string) error
}

// Store persists the RunResult (C10). Consumed here, implemented by
// internal/resultstore.
type Store interface {
	Save(runID string, result defect.RunResult) error
}
