// Package vcs implements the VCS Adapter (C8): branch creation, staging,
// committing, and pushing against a cloned workspace, via the git CLI —
// the same invocation style the Repository Workspace (C1) uses for clone.
package vcs

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"
)

// PushTimeout bounds the push operation; commit/branch operations are
// local and fast so they inherit the caller's context directly.
// Overridable from config (CODEHEALER_TIMEOUT_PUSH).
var PushTimeout = 60 * time.Second

// Git drives git via the system binary against one workspace path.
type Git struct{}

// New returns a Git adapter. There is no per-instance state: every
// operation takes the workspace root explicitly, mirroring the teacher's
// Wrapper{ProjectRoot} shape but kept stateless since the orchestrator
// already owns one workspace per run.
func New() *Git { return &Git{} }

// CreateBranch creates and checks out name in root.
func (g *Git) CreateBranch(ctx context.Context, root, name string) error {
	return run(ctx, root, "checkout", "-b", name)
}

// CommitAll stages every change in root and commits with message, returning
// the new commit SHA.
func (g *Git) CommitAll(ctx context.Context, root, message string) (string, error) {
	if err := run(ctx, root, "add", "-A"); err != nil {
		return "", fmt.Errorf("stage changes: %w", err)
	}
	if err := run(ctx, root, "commit", "-m", message); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	out, err := output(ctx, root, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve commit sha: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Push pushes branch to origin, authenticating with token, and returns the
// branch's URL on the remote's web host (best-effort, derived from the
// remote URL).
func (g *Git) Push(ctx context.Context, root, branch, token string) (string, error) {
	pushCtx, cancel := context.WithTimeout(ctx, PushTimeout)
	defer cancel()

	remote, err := output(ctx, root, "remote", "get-url", "origin")
	if err != nil {
		return "", fmt.Errorf("resolve remote: %w", err)
	}
	remote = strings.TrimSpace(remote)

	authRemote, err := withTokenAuth(remote, token)
	if err != nil {
		return "", fmt.Errorf("build authenticated remote: %w", err)
	}

	if err := run(pushCtx, root, "push", authRemote, branch); err != nil {
		return "", fmt.Errorf("push: %w", err)
	}

	return branchURL(remote, branch), nil
}

func run(ctx context.Context, dir string, args ...string) error {
	_, err := output(ctx, dir, args...)
	return err
}

func output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// withTokenAuth injects token as the userinfo component of an https remote
// URL so the push authenticates without writing the token to any git
// config or credential store.
func withTokenAuth(remote, token string) (string, error) {
	if token == "" || !strings.HasPrefix(remote, "https://") {
		return remote, nil
	}
	u, err := url.Parse(remote)
	if err != nil {
		return "", err
	}
	u.User = url.UserPassword("x-access-token", token)
	return u.String(), nil
}

// branchURL derives a web URL for the pushed branch from an https or ssh
// remote URL; best-effort, used only for the RunResult's branch_url field.
func branchURL(remote, branch string) string {
	remote = strings.TrimSuffix(remote, ".git")
	if strings.HasPrefix(remote, "git@") {
		remote = strings.TrimPrefix(remote, "git@")
		remote = strings.Replace(remote, ":", "/", 1)
		remote = "https://" + remote
	}
	return remote + "/tree/" + branch
}
