package model

import "time"

// DateRange is a half-open interval [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Overlaps reports whether an entry starting at start and ending at stop
// (nil for running) overlaps the range.
func (r DateRange) Overlaps(start time.Time, stop *time.Time) bool {
	if !start.Before(r.End) {
		return false
	}
	return stop == nil || stop.After(r.Start)
}

// EntryFilter is a conjunction of optional predicates. Nil fields impose no
// constraint.
type EntryFilter struct {
	ProjectID *int64
	Tag       *string
	ClientID  *int64
	Billable  *bool
	Range     *DateRange
}

// IsEmpty reports whether no predicate is set.
func (f EntryFilter) IsEmpty() bool {
	return f.ProjectID == nil && f.Tag == nil && f.ClientID == nil && f.Billable == nil && f.Range == nil
}
