package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// parseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates, which
// mean midnight UTC.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use RFC 3339 (2006-01-02T15:04:05Z) or YYYY-MM-DD", s)
}

// rangeFlags binds --start and --end to a command.
type rangeFlags struct {
	start string
	end   string
}

func (f *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.start, "start", "s", "", "start date (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVarP(&f.end, "end", "e", "", "end date (RFC 3339 or YYYY-MM-DD)")
}

// resolve returns the requested range. The end defaults to now and the start
// to days before the end.
func (f rangeFlags) resolve(now time.Time, days int) (model.DateRange, error) {
	end := now.UTC()
	if f.end != "" {
		t, err := parseDate(f.end)
		if err != nil {
			return model.DateRange{}, err
		}
		end = t
	}

	start := end.AddDate(0, 0, -days)
	if f.start != "" {
		t, err := parseDate(f.start)
		if err != nil {
			return model.DateRange{}, err
		}
		start = t
	}

	if !start.Before(end) {
		return model.DateRange{}, fmt.Errorf("start %s must be before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return model.DateRange{Start: start, End: end}, nil
}
