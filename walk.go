package tagver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/storer"
)

type walkState int

const (
	stateScanning walkState = iota
	stateFoundClean
	stateDone
)

// walker counts commits until it reaches the tag to report. With a label
// config, the first clean tag is recorded and walked past so that an older
// tag is reported instead.
type walker struct {
	index  TagIndex
	labels *LabelConfig
	log    *slog.Logger

	state  walkState
	result WalkResult
}

func newWalker(index TagIndex, labels *LabelConfig, log *slog.Logger) *walker {
	return &walker{index: index, labels: labels, log: log}
}

// step consumes one commit and reports whether the walk is done
func (w *walker) step(sha string) bool {
	if w.state == stateDone {
		return true
	}

	tag, ok := w.index.First(sha)
	if !ok {
		w.result.Offset++
		return false
	}

	if w.state == stateScanning && w.labels != nil && strings.HasSuffix(tag, w.labels.CleanMarker) {
		w.log.Info("found clean tag", "tag", tag, "commit", sha)
		w.state = stateFoundClean
		w.result.FoundClean = true
		w.result.CleanTag = tag
		return false
	}

	w.state = stateDone
	w.result.Tag = tag
	return true
}

// Walk scans the history of branch, newest first, for the tag to report
func Walk(ctx context.Context, src Source, branch string, until time.Time,
	index TagIndex, labels *LabelConfig, log *slog.Logger) (WalkResult, error) {

	if log == nil {
		log = slog.Default()
	}

	w := newWalker(index, labels, log)
	err := src.ForEachCommit(ctx, branch, until, func(c Commit) error {
		if w.step(c.SHA) {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return WalkResult{}, fmt.Errorf("walking commits on %q: %w", branch, err)
	}

	return w.result, nil
}
