package fleet

import (
	"errors"
	"fmt"
	"strings"
)

// Default column names and tag delimiter for the fleet source file.
const (
	DefaultNameColumn   = "cluster_name"
	DefaultGroupColumn  = "cluster_group"
	DefaultTagsColumn   = "cluster_tags"
	DefaultTagDelimiter = ","
)

var (
	// ErrMissingName indicates a row without a usable cluster name.
	ErrMissingName = errors.New("missing cluster name")
	// ErrMissingGroup indicates a record without a cluster group.
	ErrMissingGroup = errors.New("cluster group is required")
)

// Columns names the source columns that carry cluster identity, grouping,
// and tags, plus the delimiter used inside the tags cell.
type Columns struct {
	Name         string
	Group        string
	Tags         string
	TagDelimiter string
}

// DefaultColumns returns the standard column layout.
func DefaultColumns() Columns {
	return Columns{
		Name:         DefaultNameColumn,
		Group:        DefaultGroupColumn,
		Tags:         DefaultTagsColumn,
		TagDelimiter: DefaultTagDelimiter,
	}
}

// Record is one cluster row from the source of truth.
type Record struct {
	// Name is the cluster's unique identity.
	Name string
	// Group names the overlay subtree this cluster hydrates from.
	Group string
	// Tags is the parsed tag set. Nil when the source has no tags column;
	// empty when the column exists but the cell is blank.
	Tags []string
	// Attrs holds every column of the row, trimmed, keyed by header name.
	// This is the template context for rendering.
	Attrs map[string]string
}

// Validate checks that the record carries what hydration needs.
// A record without a group cannot be matched to an overlay subtree.
// A missing tags column is fine; it only limits tag-based selection.
func (r *Record) Validate() error {
	if r.Group == "" {
		return fmt.Errorf("cluster %q: %w", r.Name, ErrMissingGroup)
	}
	return nil
}

// MatchesAnyTag reports whether any of the requested tags appears in the
// record's tag set. Matching is exact and case-sensitive.
func (r *Record) MatchesAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range r.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// MatchesGroup reports whether the record belongs to the named group,
// ignoring case and surrounding whitespace.
func (r *Record) MatchesGroup(group string) bool {
	return strings.EqualFold(r.Group, strings.TrimSpace(group))
}

// splitList splits a delimited cell into trimmed, non-empty items.
// A blank cell yields an empty (non-nil) slice.
func splitList(raw, delim string) []string {
	items := []string{}
	for _, part := range strings.Split(raw, delim) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
