// Package report renders time entries as CSV, JSON or HTML documents.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/processor"
)

// Format names an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSON, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (valid: csv, json, html)", s)
	}
}

// Meta describes the export for the optional header block.
type Meta struct {
	Range       model.DateRange
	User        string
	GeneratedAt time.Time
}

// Report is a display sequence ready to be written in any format.
type Report struct {
	Meta            Meta
	IncludeMetadata bool
	Mode            processor.ViewMode
	Lines           []Line
	Summary         processor.Summary
}

// Line is one exported row. Group rows leave Time empty and Date empty
// unless grouped by day.
type Line struct {
	Date        string  `json:"date,omitempty"`
	Time        string  `json:"time,omitempty"`
	Description string  `json:"description"`
	Project     string  `json:"project"`
	Hours       float64 `json:"hours"`
	Entries     int     `json:"entries"`
	Billable    string  `json:"billable"`
}

// New builds a report from entries using the same grouping, sorting and
// rounding rules as the interactive view.
func New(entries []model.Entry, projects []model.Project, opts processor.Options, meta Meta, includeMeta bool) Report {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	idx := processor.IndexProjects(projects)

	rows := processor.Build(entries, opts)
	lines := make([]Line, len(rows))
	for i, row := range rows {
		l := Line{
			Description: row.Description(),
			Project:     idx.Name(row.ProjectID()),
			Hours:       float64(row.Seconds) / 3600,
			Entries:     len(row.Entries()),
		}
		switch {
		case row.Group != nil:
			l.Billable = processor.BillableState(*row.Group)
			if opts.Mode == processor.ViewGroupedByDay {
				l.Date = row.Group.Day.Format(time.DateOnly)
			}
		default:
			start := row.Entry.Start.In(opts.Location)
			l.Date = start.Format(time.DateOnly)
			l.Time = start.Format("15:04")
			l.Billable = yesNo(row.Entry.Billable)
		}
		lines[i] = l
	}

	return Report{
		Meta:            meta,
		IncludeMetadata: includeMeta,
		Mode:            opts.Mode,
		Lines:           lines,
		Summary:         processor.Summarize(entries, opts.Now),
	}
}

// Write renders r to w in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatHTML:
		return WriteHTML(w, r)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// header returns the column titles for the report's view mode.
func (r Report) header() []string {
	switch r.Mode {
	case processor.ViewGrouped:
		return []string{"Description", "Project", "Duration (hours)", "Entry Count", "Billable"}
	case processor.ViewGroupedByDay:
		return []string{"Date", "Description", "Project", "Duration (hours)", "Entry Count", "Billable"}
	default:
		return []string{"Date", "Time", "Description", "Project", "Duration (hours)", "Billable"}
	}
}

// cells returns the values of l in header order.
func (r Report) cells(l Line) []string {
	hours := strconv.FormatFloat(l.Hours, 'f', 2, 64)
	count := strconv.Itoa(l.Entries)
	switch r.Mode {
	case processor.ViewGrouped:
		return []string{l.Description, l.Project, hours, count, l.Billable}
	case processor.ViewGroupedByDay:
		return []string{l.Date, l.Description, l.Project, hours, count, l.Billable}
	default:
		return []string{l.Date, l.Time, l.Description, l.Project, hours, l.Billable}
	}
}

func (r Report) metaLines() []string {
	lines := []string{
		"Toggl TimeGuru Export",
		fmt.Sprintf("Date Range: %s to %s",
			r.Meta.Range.Start.Format(time.DateOnly),
			r.Meta.Range.End.Format(time.DateOnly)),
		fmt.Sprintf("Total Entries: %d", r.Summary.Count),
	}
	if r.Meta.User != "" {
		lines = append(lines, "User: "+r.Meta.User)
	}
	return lines
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
