package tagver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/blang/semver"
)

// ErrMalformedTag is returned when a tag's last version component is not a number
var ErrMalformedTag = errors.New("malformed tag")

const releaseRefPrefix = "refs/tags/" + ReleaseTagPrefix

// Calculate determines the version for the commit described by opts
func Calculate(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	// A push of a release tag names its version outright
	if opts.EventName == "push" && strings.HasPrefix(opts.Ref, releaseRefPrefix) {
		version := strings.TrimPrefix(opts.Ref, releaseRefPrefix)
		log.Info("computed version from release tag", "version", version)
		return &Result{Version: version, Release: true}, nil
	}

	if opts.Source == nil {
		return nil, fmt.Errorf("source is required")
	}

	labels, err := ParseLabelConfig(opts.Labels)
	if err != nil {
		return nil, err
	}

	if opts.TagPattern != "" && opts.TagFilter == nil {
		re, err := regexp.Compile(opts.TagPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid tag pattern: %w", err)
		}
		opts.TagFilter = re.MatchString
	}

	ref := opts.SHA
	if ref == "" {
		ref = opts.Ref
	}
	commit, err := opts.Source.Commit(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("getting commit %q: %w", ref, err)
	}

	tags, err := opts.Source.Tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	index := NewTagIndex(tags)

	if version, ok := index.ReleaseVersion(commit.SHA); ok {
		log.Info("computed version from release tag", "version", version, "commit", commit.SHA)
		return &Result{Version: version, Release: true}, nil
	}

	if opts.TagFilter != nil {
		index = index.Filter(opts.TagFilter)
	}

	branch := strings.TrimPrefix(opts.Ref, "refs/heads/")
	if branch == "" {
		branch = commit.SHA
	}

	walk, err := Walk(ctx, opts.Source, branch, commit.Date, index, labels, log)
	if err != nil {
		return nil, err
	}

	var version string
	if walk.Tag == "" {
		version = FallbackVersion(walk.Offset)
	} else {
		version, err = ComposeVersion(log, walk.Tag, walk.Offset)
		if err != nil {
			return nil, err
		}
	}

	// Builds that never passed a clean tag are labelled
	if labels != nil && !walk.FoundClean {
		version += labels.Label
	}

	log.Info("computed version", "version", version, "tag", walk.Tag, "offset", walk.Offset)
	checkSemver(log, version)

	return &Result{
		Version:    version,
		Tag:        walk.Tag,
		Offset:     walk.Offset,
		FoundClean: walk.FoundClean,
	}, nil
}

// FallbackVersion is the version used when no tag is reachable
func FallbackVersion(offset int) string {
	return "1.0." + strconv.Itoa(offset)
}

// ComposeVersion derives a version from tag by adding offset to its last
// numeric component, or appending offset when the tag has fewer than three
// components. A classifier after the first "-" is carried over verbatim.
func ComposeVersion(log *slog.Logger, tag string, offset int) (string, error) {
	if log == nil {
		log = slog.Default()
	}

	base := strings.TrimPrefix(tag, "v")

	var classifier string
	if head, rest, ok := strings.Cut(base, "-"); ok {
		base, classifier = head, "-"+rest
		log.Info("found classifier to append", "classifier", rest)
	}

	parts := strings.Split(base, ".")
	for _, part := range parts {
		if !startsWithDigit(part) {
			log.Warn("invalid tag component, must begin with a numeric digit", "tag", tag, "component", part)
		}
	}
	log.Info("found version parts", "parts", strings.Join(parts, ", "))

	if len(parts) < 3 {
		parts = append(parts, strconv.Itoa(offset))
	} else {
		last := len(parts) - 1
		n, err := strconv.Atoi(parts[last])
		if err != nil {
			return "", fmt.Errorf("%w %q: component %q is not a number", ErrMalformedTag, tag, parts[last])
		}
		parts[last] = strconv.Itoa(n + offset)
	}

	return strings.Join(parts, ".") + classifier, nil
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// checkSemver warns when version is not a valid semantic version. It never
// changes the result.
func checkSemver(log *slog.Logger, version string) {
	if _, err := semver.Parse(version); err != nil {
		log.Warn("computed version is not a valid semantic version", "version", version, "error", err)
	}
}
