package fleet

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrClusterNotFound indicates a by-name selection for a name the fleet
// does not contain.
var ErrClusterNotFound = errors.New("cluster not found in fleet")

// Selector narrows the fleet to the clusters a run operates on.
//
// At most one of Name, Tags, and Group may be set (the CLI enforces this);
// the zero value selects the whole fleet. Records failing validation are
// warned about and dropped in every mode.
type Selector struct {
	// Name selects exactly one cluster by its identity.
	Name string
	// Tags selects clusters whose tag set intersects this one.
	Tags []string
	// Group selects clusters whose group matches, case-insensitively.
	Group string
}

// Select returns matching records in fleet order.
//
// An unknown Name is an error; tag or group selections that match nothing
// return an empty slice, which is the caller's cue to log and move on.
func (sel Selector) Select(store *Store, logger *slog.Logger) ([]*Record, error) {
	if sel.Name != "" {
		rec, ok := store.Get(sel.Name)
		if !ok {
			return nil, fmt.Errorf("%q: %w", sel.Name, ErrClusterNotFound)
		}
		if !usable(rec, logger) {
			return nil, nil
		}
		return []*Record{rec}, nil
	}

	var out []*Record
	for _, rec := range store.All() {
		if !usable(rec, logger) {
			continue
		}
		switch {
		case len(sel.Tags) > 0:
			if !rec.MatchesAnyTag(sel.Tags) {
				logger.Debug("tags do not match", "cluster", rec.Name, "have", rec.Tags, "want", sel.Tags)
				continue
			}
		case sel.Group != "":
			if !rec.MatchesGroup(sel.Group) {
				logger.Debug("group does not match", "cluster", rec.Name, "have", rec.Group, "want", sel.Group)
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// usable applies the validation pass, logging why a record is dropped.
func usable(rec *Record, logger *slog.Logger) bool {
	if err := rec.Validate(); err != nil {
		logger.Warn("skipping cluster", "cluster", rec.Name, "reason", err)
		return false
	}
	if rec.Tags == nil {
		logger.Debug("cluster has no tags column", "cluster", rec.Name)
	}
	return true
}
