package processor

import (
	"fmt"
	"time"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// NoDescription is shown for entries without a description.
const NoDescription = "(No description)"

// Summary aggregates durations of an entry collection in seconds.
type Summary struct {
	Total       int64
	Billable    int64
	NonBillable int64
	Count       int
}

// Summarize sums billable and non-billable durations. Running entries count up to now.
func Summarize(entries []model.Entry, now time.Time) Summary {
	var s Summary
	for _, e := range entries {
		d := e.ElapsedSeconds(now)
		s.Total += d
		if e.Billable {
			s.Billable += d
		} else {
			s.NonBillable += d
		}
		s.Count++
	}
	return s
}

// BillableState classifies a group for reports.
func BillableState(g model.GroupedEntry) string {
	var yes, no int
	for _, e := range g.Entries {
		if e.Billable {
			yes++
		} else {
			no++
		}
	}
	switch {
	case no == 0 && yes > 0:
		return "Yes"
	case yes == 0:
		return "No"
	default:
		return "Mixed"
	}
}

// DisplayDescription substitutes NoDescription for empty descriptions.
func DisplayDescription(desc string) string {
	if desc == "" {
		return NoDescription
	}
	return desc
}

// FormatHours renders seconds as decimal hours, e.g. "1.25h".
func FormatHours(seconds int64) string {
	return fmt.Sprintf("%.2fh", float64(seconds)/3600)
}

// FormatDuration renders seconds as "1h 40m"; durations under an hour as "25m".
func FormatDuration(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
