package tagver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/memory"
)

var testEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate() (*git.Repository, error) {
	storage := memory.NewStorage()
	fs := memfs.New()
	return git.Init(storage, fs)
}

// testRepoHistory adds n linear commits, one minute apart, and returns their
// hashes oldest first
func testRepoHistory(repo *git.Repository, n int) ([]plumbing.Hash, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return nil, err
	}

	hashes := make([]plumbing.Hash, 0, n)
	for i := 0; i < n; i++ {
		filename := fmt.Sprintf("file_%d.txt", i)
		err = writeFile(workTree.Filesystem, filename, fmt.Sprintf("Content %d", i))
		if err != nil {
			return nil, err
		}

		_, err = workTree.Add(filename)
		if err != nil {
			return nil, err
		}

		signature := &object.Signature{
			Name:  "test",
			Email: "test@example.com",
			When:  testEpoch.Add(time.Duration(i) * time.Minute),
		}
		hash, err := workTree.Commit(fmt.Sprintf("Commit %d", i), &git.CommitOptions{Author: signature})
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}

	return hashes, nil
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}

// testSource is an in-memory Source. Commits are newest first.
type testSource struct {
	head    Commit
	commits []Commit
	tags    []Tag
	err     error

	visited int
}

func (s *testSource) Commit(_ context.Context, _ string) (Commit, error) {
	return s.head, s.err
}

func (s *testSource) Tags(_ context.Context) ([]Tag, error) {
	return s.tags, s.err
}

func (s *testSource) ForEachCommit(_ context.Context, _ string, until time.Time, fn func(Commit) error) error {
	if s.err != nil {
		return s.err
	}
	for _, c := range s.commits {
		if !until.IsZero() && c.Date.After(until) {
			continue
		}
		s.visited++
		if err := fn(c); err != nil {
			if err == storer.ErrStop {
				return nil
			}
			return err
		}
	}
	return nil
}

// newTestSource builds a linear history from shas, newest first, with HEAD
// at the first one
func newTestSource(shas []string, tags ...Tag) *testSource {
	commits := make([]Commit, len(shas))
	for i, sha := range shas {
		commits[i] = Commit{SHA: sha, Date: testEpoch.Add(-time.Duration(i) * time.Minute)}
	}

	src := &testSource{commits: commits, tags: tags}
	if len(commits) > 0 {
		src.head = commits[0]
	}
	return src
}

func testSHAs(n int) []string {
	shas := make([]string, n)
	for i := range shas {
		shas[i] = fmt.Sprintf("c%02d", i)
	}
	return shas
}
