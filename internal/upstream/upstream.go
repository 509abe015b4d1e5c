// Package upstream reports the latest revision of the catalog's source
// repository on GitHub.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
)

const (
	// DefaultRepository is the repository the catalog API is built from
	DefaultRepository = "littlebyteorg/appledb"

	// DefaultBranch is the branch the catalog API is built from
	DefaultBranch = "main"

	// RevisionKey is the settings key of the last revision seen by Check
	RevisionKey = "upstream.last_revision"
)

// Sentinel errors for upstream operations.
var (
	ErrInvalidRepo    = errors.New("repository must be in format 'owner/repo'")
	ErrNoCommits      = errors.New("no commits found")
	ErrBranchNotFound = errors.New("branch not found")
)

// Revision is one upstream commit
type Revision struct {
	SHA     string
	Message string
	Author  string
	Date    time.Time
	URL     string
}

// ShortSHA returns the first seven characters of the commit hash.
func (r Revision) ShortSHA() string {
	if len(r.SHA) <= 7 {
		return r.SHA
	}
	return r.SHA[:7]
}

// Title returns the first line of the commit message.
func (r Revision) Title() string {
	title, _, _ := strings.Cut(r.Message, "\n")
	return strings.TrimSpace(title)
}

// Client wraps the GitHub API client for commit lookups.
type Client struct {
	client *github.Client
	owner  string
	repo   string
}

// NewClient creates a GitHub client for the repository. The token is optional;
// without one requests are unauthenticated and subject to lower rate limits.
func NewClient(token, repository string) (*Client, error) {
	owner, repo, err := parseRepository(repository)
	if err != nil {
		return nil, err
	}

	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{
		client: client,
		owner:  owner,
		repo:   repo,
	}, nil
}

// Repository returns "owner/repo".
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// Latest returns the newest commit on branch.
func (c *Client) Latest(ctx context.Context, branch string) (*Revision, error) {
	if branch == "" {
		branch = DefaultBranch
	}
	if c.client == nil || c.owner == "" || c.repo == "" {
		return nil, fmt.Errorf("client not initialized: use NewClient to create instances")
	}

	commits, resp, err := c.client.Repositories.ListCommits(ctx, c.owner, c.repo, &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, branch)
		}
		return nil, fmt.Errorf("failed to list commits for %s@%s: %w", c.Repository(), branch, err)
	}
	if len(commits) == 0 {
		return nil, ErrNoCommits
	}

	return toRevision(commits[0]), nil
}

func toRevision(rc *github.RepositoryCommit) *Revision {
	rev := &Revision{
		SHA: rc.GetSHA(),
		URL: rc.GetHTMLURL(),
	}
	if commit := rc.GetCommit(); commit != nil {
		rev.Message = commit.GetMessage()
		if author := commit.GetAuthor(); author != nil {
			rev.Author = author.GetName()
			rev.Date = author.GetDate().Time
		}
	}
	return rev
}

// Settings stores the last seen revision
type Settings interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Status is the result of Check
type Status struct {
	Latest   Revision
	Previous string
	Changed  bool
}

// Check fetches the latest revision, compares it with the one recorded by the
// previous check and records the new one.
func Check(ctx context.Context, c *Client, branch string, settings Settings) (*Status, error) {
	latest, err := c.Latest(ctx, branch)
	if err != nil {
		return nil, err
	}

	previous, ok, err := settings.Get(RevisionKey)
	if err != nil {
		return nil, err
	}

	status := &Status{
		Latest:   *latest,
		Previous: previous,
		Changed:  ok && previous != latest.SHA,
	}
	if !ok || previous != latest.SHA {
		if err := settings.Set(RevisionKey, latest.SHA); err != nil {
			return nil, err
		}
	}
	return status, nil
}

// parseRepository splits a repository string into owner and repo.
// Returns an error if the format is invalid.
func parseRepository(repository string) (owner, repo string, err error) {
	if repository == "" {
		return "", "", ErrInvalidRepo
	}

	parts := strings.Split(repository, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: got %s", ErrInvalidRepo, repository)
	}

	owner = strings.TrimSpace(parts[0])
	repo = strings.TrimSpace(parts[1])

	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("%w: owner or repo is empty", ErrInvalidRepo)
	}

	return owner, repo, nil
}
