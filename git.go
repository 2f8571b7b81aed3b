package tagver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// OpenRepository opens a Git repository at the specified path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// GitSource reads commits and tags from a local repository
type GitSource struct {
	repo *git.Repository
}

// NewGitSource returns a Source backed by repo
func NewGitSource(repo *git.Repository) *GitSource {
	return &GitSource{repo: repo}
}

// Commit resolves ref, defaulting to HEAD
func (s *GitSource) Commit(_ context.Context, ref string) (Commit, error) {
	if ref == "" {
		ref = "HEAD"
	}

	revision, err := s.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return Commit{}, fmt.Errorf("resolving commitish: %w", err)
	}

	commit, err := s.repo.CommitObject(*revision)
	if err != nil {
		return Commit{}, fmt.Errorf("getting commit object: %w", err)
	}

	return Commit{SHA: commit.Hash.String(), Date: commit.Committer.When}, nil
}

// Tags lists lightweight and annotated tags sorted by name
func (s *GitSource) Tags(_ context.Context) ([]Tag, error) {
	refs, err := s.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var tags []Tag
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		target := ref.Hash()
		obj, err := s.repo.TagObject(ref.Hash())
		switch err {
		case nil:
			// Annotated tag
			target = obj.Target
		case plumbing.ErrObjectNotFound:
			// Lightweight tag
		default:
			return err
		}

		tags = append(tags, Tag{Name: ref.Name().Short(), CommitSHA: target.String()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolving tags: %w", err)
	}

	// Reference storage order is not stable, so list the way `git tag` does
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })

	return tags, nil
}

// ForEachCommit walks the history reachable from branch
func (s *GitSource) ForEachCommit(ctx context.Context, branch string, until time.Time, fn func(Commit) error) error {
	revision, err := s.repo.ResolveRevision(plumbing.Revision(branch))
	if err != nil {
		return fmt.Errorf("resolving branch: %w", err)
	}

	opts := &git.LogOptions{From: *revision}
	if !until.IsZero() {
		opts.Until = &until
	}

	commits, err := s.repo.Log(opts)
	if err != nil {
		return fmt.Errorf("reading log: %w", err)
	}
	defer commits.Close()

	return commits.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(Commit{SHA: c.Hash.String(), Date: c.Committer.When})
	})
}
