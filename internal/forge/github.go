// Package forge implements the Forge Adapter (C9): PR creation, CI status
// polling, and merge against GitHub's REST API.
package forge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"

	"github.com/codeheal/healer/internal/defect"
)

// RequestTimeout bounds a single forge API call (§5 does not name one
// explicitly for PR/merge calls; this follows the LLM call's own 60s
// default since both are single bounded HTTP round-trips). Overridable
// from config (CODEHEALER_TIMEOUT_FORGE).
var RequestTimeout = 60 * time.Second

// GitHub drives the GitHub REST API via google/go-github.
type GitHub struct {
	httpClient *http.Client
}

// New returns a GitHub forge adapter using http.DefaultClient unless
// overridden by WithHTTPClient.
func New(opts ...Option) *GitHub {
	g := &GitHub{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Option configures a GitHub adapter.
type Option func(*GitHub)

// WithHTTPClient overrides the underlying HTTP client (tests, proxies).
func WithHTTPClient(c *http.Client) Option {
	return func(g *GitHub) { g.httpClient = c }
}

func (g *GitHub) client(token string) *github.Client {
	return github.NewClient(g.httpClient).WithAuthToken(token)
}

// CreatePR opens a PR from branch onto the repository's default branch.
func (g *GitHub) CreatePR(ctx context.Context, repoURL, branch, title, body, token string) (string, int, error) {
	owner, repo, err := parseRepoURL(repoURL)
	if err != nil {
		return "", 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	firstLine := title
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		firstLine = title[:idx]
	}

	client := g.client(token)
	repository, _, err := client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", 0, fmt.Errorf("get repository: %w", err)
	}

	pr, _, err := client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.String(firstLine),
		Head:  github.String(branch),
		Base:  github.String(repository.GetDefaultBranch()),
		Body:  github.String(body),
	})
	if err != nil {
		return "", 0, fmt.Errorf("create PR: %w", err)
	}

	return pr.GetHTMLURL(), pr.GetNumber(), nil
}

// LatestCIStatus returns the combined status of the PR's head commit.
func (g *GitHub) LatestCIStatus(ctx context.Context, repoURL string, prNumber int, token string) (defect.CIStatus, error) {
	owner, repo, err := parseRepoURL(repoURL)
	if err != nil {
		return defect.CIUnknown, err
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	client := g.client(token)
	pr, _, err := client.PullRequests.Get(ctx, owner, repo, prNumber)
	if err != nil {
		return defect.CIUnknown, fmt.Errorf("get PR: %w", err)
	}

	status, _, err := client.Repositories.GetCombinedStatus(ctx, owner, repo, pr.GetHead().GetSHA(), nil)
	if err != nil {
		return defect.CIUnknown, fmt.Errorf("get combined status: %w", err)
	}

	return mapCIStatus(status.GetState()), nil
}

// MergePR merges prNumber.
func (g *GitHub) MergePR(ctx context.Context, repoURL string, prNumber int, token string) error {
	owner, repo, err := parseRepoURL(repoURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, _, err = g.client(token).PullRequests.Merge(ctx, owner, repo, prNumber, "", nil)
	if err != nil {
		return fmt.Errorf("merge PR: %w", err)
	}
	return nil
}

func mapCIStatus(state string) defect.CIStatus {
	switch strings.ToLower(state) {
	case "success":
		return defect.CISuccess
	case "failure", "error":
		return defect.CIFailure
	case "pending":
		return defect.CIPending
	default:
		return defect.CIUnknown
	}
}

// parseRepoURL extracts "owner", "repo" from a GitHub HTTPS or SSH URL.
func parseRepoURL(repoURL string) (owner, repo string, err error) {
	trimmed := strings.TrimSuffix(repoURL, ".git")
	trimmed = strings.TrimSuffix(trimmed, "/")

	var path string
	switch {
	case strings.HasPrefix(trimmed, "git@"):
		idx := strings.Index(trimmed, ":")
		if idx < 0 {
			return "", "", fmt.Errorf("malformed ssh remote %q", repoURL)
		}
		path = trimmed[idx+1:]
	default:
		idx := strings.Index(trimmed, "github.com/")
		if idx < 0 {
			return "", "", fmt.Errorf("unsupported forge URL %q", repoURL)
		}
		path = trimmed[idx+len("github.com/"):]
	}

	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from %q", repoURL)
	}
	return parts[0], parts[1], nil
}
