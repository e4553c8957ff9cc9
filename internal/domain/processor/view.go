package processor

import (
	"time"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// ViewMode selects between individual entries and the two grouping keys.
type ViewMode int

const (
	ViewFlat ViewMode = iota
	ViewGrouped
	ViewGroupedByDay
)

// Next cycles flat -> grouped -> grouped by day -> flat.
func (m ViewMode) Next() ViewMode {
	return (m + 1) % 3
}

// Grouped reports whether the mode aggregates entries.
func (m ViewMode) Grouped() bool {
	return m != ViewFlat
}

func (m ViewMode) String() string {
	switch m {
	case ViewGrouped:
		return "grouped"
	case ViewGroupedByDay:
		return "grouped by day"
	default:
		return "flat"
	}
}

// Options controls how Build shapes the display sequence.
type Options struct {
	Mode         ViewMode
	Sort         SortMode
	Rounding     bool
	RoundMinutes int
	Now          time.Time
	Location     *time.Location
}

// Row is one line of the display sequence: either a single entry or a group.
type Row struct {
	Entry *model.Entry
	Group *model.GroupedEntry
	// Seconds is the duration to display. Only group rows are ever rounded.
	Seconds int64
}

// Description returns the display description of the row.
func (r Row) Description() string {
	if r.Group != nil {
		return DisplayDescription(r.Group.Description)
	}
	return DisplayDescription(r.Entry.Description)
}

// ProjectID returns the project of the row.
func (r Row) ProjectID() *int64 {
	if r.Group != nil {
		return r.Group.ProjectID
	}
	return r.Entry.ProjectID
}

// Entries returns the entries behind the row.
func (r Row) Entries() []model.Entry {
	if r.Group != nil {
		return r.Group.Entries
	}
	return []model.Entry{*r.Entry}
}

// Build groups, sorts and rounds entries into display rows.
func Build(entries []model.Entry, opts Options) []Row {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	if !opts.Mode.Grouped() {
		sorted := SortEntries(entries, opts.Sort)
		rows := make([]Row, len(sorted))
		for i := range sorted {
			rows[i] = Row{Entry: &sorted[i], Seconds: sorted[i].ElapsedSeconds(now)}
		}
		return rows
	}

	groups := SortGroups(Group(entries, opts.Mode == ViewGroupedByDay, now, opts.Location), opts.Sort)
	rows := make([]Row, len(groups))
	for i := range groups {
		secs := groups[i].TotalSeconds
		if opts.Rounding {
			secs = RoundedDuration(secs, opts.RoundMinutes)
		}
		rows[i] = Row{Group: &groups[i], Seconds: secs}
	}
	return rows
}
