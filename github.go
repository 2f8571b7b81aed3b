package tagver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/google/go-github/v66/github"
)

// ErrMissingToken is returned when no API token is configured
var ErrMissingToken = errors.New("GITHUB_TOKEN is required")

const pageSize = 100

// GitHubSource reads commits and tags through the GitHub REST API
type GitHubSource struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubClient returns an authenticated client. An empty apiURL uses
// api.github.com.
func NewGitHubClient(token, apiURL string) (*github.Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	client := github.NewClient(nil).WithAuthToken(token)
	if apiURL != "" {
		base, err := url.Parse(strings.TrimSuffix(apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing API URL %q: %w", apiURL, err)
		}
		client.BaseURL = base
	}

	return client, nil
}

// NewGitHubSource returns a Source for the repository "owner/name"
func NewGitHubSource(client *github.Client, repository string) (*GitHubSource, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("repository must be of the form \"owner/name\", got %q", repository)
	}
	return &GitHubSource{client: client, owner: owner, repo: repo}, nil
}

// Commit fetches the commit ref points at
func (s *GitHubSource) Commit(ctx context.Context, ref string) (Commit, error) {
	commit, _, err := s.client.Repositories.GetCommit(ctx, s.owner, s.repo, ref, nil)
	if err != nil {
		return Commit{}, err
	}

	return Commit{
		SHA:  commit.GetSHA(),
		Date: commit.GetCommit().GetCommitter().GetDate().Time,
	}, nil
}

// Tags fetches every page of the repository's tags
func (s *GitHubSource) Tags(ctx context.Context) ([]Tag, error) {
	opts := &github.ListOptions{PerPage: pageSize}

	var tags []Tag
	for {
		page, resp, err := s.client.Repositories.ListTags(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, err
		}

		for _, t := range page {
			tags = append(tags, Tag{Name: t.GetName(), CommitSHA: t.GetCommit().GetSHA()})
		}

		if resp.NextPage == 0 {
			return tags, nil
		}
		opts.Page = resp.NextPage
	}
}

// ForEachCommit fetches the branch history one page at a time
func (s *GitHubSource) ForEachCommit(ctx context.Context, branch string, until time.Time, fn func(Commit) error) error {
	opts := &github.CommitsListOptions{
		SHA:         branch,
		Until:       until,
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	for {
		page, resp, err := s.client.Repositories.ListCommits(ctx, s.owner, s.repo, opts)
		if err != nil {
			return err
		}

		for _, c := range page {
			err := fn(Commit{
				SHA:  c.GetSHA(),
				Date: c.GetCommit().GetCommitter().GetDate().Time,
			})
			if err == storer.ErrStop {
				return nil
			}
			if err != nil {
				return err
			}
		}

		if resp.NextPage == 0 {
			return nil
		}
		opts.Page = resp.NextPage
	}
}
