package report

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
)

type jsonMeta struct {
	Title       string    `json:"title"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	User        string    `json:"user,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

type jsonSummary struct {
	Entries          int     `json:"entries"`
	TotalHours       float64 `json:"total_hours"`
	BillableHours    float64 `json:"billable_hours"`
	NonBillableHours float64 `json:"non_billable_hours"`
}

type jsonReport struct {
	Meta    *jsonMeta   `json:"meta,omitempty"`
	View    string      `json:"view"`
	Summary jsonSummary `json:"summary"`
	Rows    []Line      `json:"rows"`
}

// WriteJSON writes r as an indented JSON document.
func WriteJSON(w io.Writer, r Report) error {
	doc := jsonReport{
		View: r.Mode.String(),
		Summary: jsonSummary{
			Entries:          r.Summary.Count,
			TotalHours:       hours(r.Summary.Total),
			BillableHours:    hours(r.Summary.Billable),
			NonBillableHours: hours(r.Summary.NonBillable),
		},
		Rows: r.Lines,
	}
	if doc.Rows == nil {
		doc.Rows = []Line{}
	}
	if r.IncludeMetadata {
		doc.Meta = &jsonMeta{
			Title:       "Toggl TimeGuru Export",
			Start:       r.Meta.Range.Start.Format(time.DateOnly),
			End:         r.Meta.Range.End.Format(time.DateOnly),
			User:        r.Meta.User,
			GeneratedAt: r.Meta.GeneratedAt.UTC(),
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json report: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	return nil
}

func hours(seconds int64) float64 {
	return float64(seconds) / 3600
}
