package processor

import (
	"time"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

type groupKey struct {
	description string
	hasProject  bool
	projectID   int64
	day         int // yyyymmdd in the grouping location; 0 when not grouping by day
}

func keyOf(e model.Entry, byDay bool, loc *time.Location) groupKey {
	k := groupKey{description: e.Description}
	if e.ProjectID != nil {
		k.hasProject = true
		k.projectID = *e.ProjectID
	}
	if byDay {
		y, m, d := e.Start.In(loc).Date()
		k.day = y*10000 + int(m)*100 + d
	}
	return k
}

// Group partitions entries by exact description and project, and by local
// calendar day when byDay is set. Groups appear in first-seen order and
// members keep their input order. Running entries count up to now.
func Group(entries []model.Entry, byDay bool, now time.Time, loc *time.Location) []model.GroupedEntry {
	if loc == nil {
		loc = time.Local
	}

	index := make(map[groupKey]int)
	var groups []model.GroupedEntry

	for _, e := range entries {
		k := keyOf(e, byDay, loc)
		i, ok := index[k]
		if !ok {
			g := model.GroupedEntry{
				Description: e.Description,
				ProjectID:   e.ProjectID,
			}
			if byDay {
				y, m, d := e.Start.In(loc).Date()
				g.Day = time.Date(y, m, d, 0, 0, 0, 0, loc)
			}
			i = len(groups)
			index[k] = i
			groups = append(groups, g)
		}
		groups[i].Entries = append(groups[i].Entries, e)
		groups[i].TotalSeconds += e.ElapsedSeconds(now)
	}

	if groups == nil {
		groups = []model.GroupedEntry{}
	}
	return groups
}
