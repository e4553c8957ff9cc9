package processor

import (
	"slices"
	"time"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// SortMode selects the ordering of the top-level display sequence.
type SortMode int

const (
	// SortDefault keeps entries in supplied order and orders groups by total duration, longest first.
	SortDefault SortMode = iota
	SortDateAsc
	SortDateDesc
)

// Next cycles default -> date ascending -> date descending -> default.
func (m SortMode) Next() SortMode {
	return (m + 1) % 3
}

func (m SortMode) String() string {
	switch m {
	case SortDateAsc:
		return "date asc"
	case SortDateDesc:
		return "date desc"
	default:
		return "default"
	}
}

// SortEntries returns a stably sorted copy of entries.
func SortEntries(entries []model.Entry, mode SortMode) []model.Entry {
	out := slices.Clone(entries)
	switch mode {
	case SortDateAsc:
		slices.SortStableFunc(out, func(a, b model.Entry) int { return a.Start.Compare(b.Start) })
	case SortDateDesc:
		slices.SortStableFunc(out, func(a, b model.Entry) int { return b.Start.Compare(a.Start) })
	}
	return out
}

// SortGroups returns a stably sorted copy of groups. Members are never reordered.
// Date modes order by each group's first member.
func SortGroups(groups []model.GroupedEntry, mode SortMode) []model.GroupedEntry {
	out := slices.Clone(groups)
	switch mode {
	case SortDateAsc:
		slices.SortStableFunc(out, func(a, b model.GroupedEntry) int { return groupDate(a).Compare(groupDate(b)) })
	case SortDateDesc:
		slices.SortStableFunc(out, func(a, b model.GroupedEntry) int { return groupDate(b).Compare(groupDate(a)) })
	default:
		slices.SortStableFunc(out, func(a, b model.GroupedEntry) int {
			switch {
			case a.TotalSeconds > b.TotalSeconds:
				return -1
			case a.TotalSeconds < b.TotalSeconds:
				return 1
			}
			return 0
		})
	}
	return out
}

func groupDate(g model.GroupedEntry) time.Time {
	if !g.Day.IsZero() {
		return g.Day
	}
	return g.FirstStart()
}
