// Package tagver computes build versions from the most recent reachable tag
// and the number of commits made since it.
package tagver

import (
	"context"
	"log/slog"
	"time"
)

// Commit is the metadata tagver needs about a single commit
type Commit struct {
	SHA  string
	Date time.Time
}

// Tag associates a tag name with the commit it references
type Tag struct {
	Name      string
	CommitSHA string
}

// Source provides commit and tag data from a repository host or a local clone
type Source interface {
	// Commit resolves ref to a commit
	Commit(ctx context.Context, ref string) (Commit, error)

	// Tags returns every tag in the repository, in listing order
	Tags(ctx context.Context) ([]Tag, error)

	// ForEachCommit calls fn for each commit on branch committed no later
	// than until, newest first. Returning storer.ErrStop from fn ends the
	// iteration without an error.
	ForEachCommit(ctx context.Context, branch string, until time.Time, fn func(Commit) error) error
}

// LabelConfig marks builds that are not descended from a clean tag
type LabelConfig struct {
	// Label is appended to versions when no clean tag was found
	Label string

	// CleanMarker is the suffix identifying clean tags
	CleanMarker string
}

// WalkResult is the outcome of walking the commit history
type WalkResult struct {
	// Tag is the reported tag, empty when history ran out first
	Tag string

	// Offset is the number of commits walked past before Tag
	Offset int

	// FoundClean reports whether a clean tag was passed during the walk
	FoundClean bool

	// CleanTag is the clean tag that was passed, if any
	CleanTag string
}

// Options configures version calculation
type Options struct {
	// Source provides commits and tags
	Source Source

	// Ref is the ref being built, e.g. "refs/heads/main" or "refs/tags/release/1.2.3"
	Ref string

	// SHA is the commit being built. Defaults to Ref when empty.
	SHA string

	// EventName is the CI event that triggered the build, e.g. "push"
	EventName string

	// Labels is the raw "<label>,<cleanMarker>" configuration
	Labels string

	// TagFilter allows filtering which tags the walk considers
	TagFilter func(string) bool

	// TagPattern is a regex pattern to filter tags (alternative to TagFilter)
	TagPattern string

	// Logger receives informational output. Defaults to slog.Default().
	Logger *slog.Logger
}

// Result is the computed version and how it was reached
type Result struct {
	Version    string `json:"version"`
	Tag        string `json:"tag,omitempty"`
	Offset     int    `json:"offset"`
	FoundClean bool   `json:"foundClean"`
	Release    bool   `json:"release"`
}
