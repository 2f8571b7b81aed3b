package tagver

import "strings"

// ReleaseTagPrefix marks tags whose remainder is used verbatim as the version
const ReleaseTagPrefix = "release/"

// TagIndex maps commit SHAs to the names of the tags referencing them.
// Names are kept in listing order, and the first one wins whenever a single
// tag per commit is needed.
type TagIndex map[string][]string

// NewTagIndex builds an index from a tag listing
func NewTagIndex(tags []Tag) TagIndex {
	index := make(TagIndex, len(tags))
	for _, tag := range tags {
		index[tag.CommitSHA] = append(index[tag.CommitSHA], tag.Name)
	}
	return index
}

// Lookup returns the tags referencing sha
func (i TagIndex) Lookup(sha string) []string {
	return i[sha]
}

// First returns the first tag referencing sha in listing order
func (i TagIndex) First(sha string) (string, bool) {
	names := i.Lookup(sha)
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}

// ReleaseVersion returns the version named by the first release tag on sha
func (i TagIndex) ReleaseVersion(sha string) (string, bool) {
	for _, name := range i.Lookup(sha) {
		if version, ok := strings.CutPrefix(name, ReleaseTagPrefix); ok {
			return version, true
		}
	}
	return "", false
}

// Filter returns a copy of the index holding only the tags keep accepts
func (i TagIndex) Filter(keep func(string) bool) TagIndex {
	filtered := make(TagIndex, len(i))
	for sha, names := range i {
		for _, name := range names {
			if keep(name) {
				filtered[sha] = append(filtered[sha], name)
			}
		}
	}
	return filtered
}
