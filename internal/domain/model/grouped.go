package model

import "time"

// GroupedEntry is a derived aggregate of entries sharing a description and
// project, and optionally a calendar day. It is never persisted.
type GroupedEntry struct {
	Description string
	ProjectID   *int64
	// Day is the local calendar day at midnight; zero unless grouped by day.
	Day     time.Time
	Entries []Entry
	// TotalSeconds is the sum of member durations, running members counted
	// up to the moment of grouping.
	TotalSeconds int64
}

// FirstStart returns the start of the first member, or the zero time for
// an empty group.
func (g GroupedEntry) FirstStart() time.Time {
	if len(g.Entries) == 0 {
		return time.Time{}
	}
	return g.Entries[0].Start
}

// IDs returns the remote identifiers of all members in member order.
func (g GroupedEntry) IDs() []int64 {
	ids := make([]int64, len(g.Entries))
	for i, e := range g.Entries {
		ids[i] = e.ID
	}
	return ids
}
