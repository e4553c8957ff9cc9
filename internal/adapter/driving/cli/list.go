package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
	"github.com/ericfisherdev/timeguru/internal/domain/processor"
)

// viewFlags binds the grouping and sorting flags shared by list and export.
type viewFlags struct {
	group bool
	day   bool
	sort  string
}

func (f *viewFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.group, "group", "g", false, "group entries by description and project")
	cmd.Flags().BoolVar(&f.day, "day", false, "group entries by description, project and day")
	cmd.Flags().StringVar(&f.sort, "sort", "default", "sort order: default, date-asc, date-desc")
}

func (f viewFlags) options(roundMinutes int, now time.Time) (processor.Options, error) {
	mode := processor.ViewFlat
	switch {
	case f.day:
		mode = processor.ViewGroupedByDay
	case f.group:
		mode = processor.ViewGrouped
	}

	var sort processor.SortMode
	switch strings.ToLower(f.sort) {
	case "", "default":
		sort = processor.SortDefault
	case "date-asc", "asc":
		sort = processor.SortDateAsc
	case "date-desc", "desc":
		sort = processor.SortDateDesc
	default:
		return processor.Options{}, fmt.Errorf("unknown sort order %q (valid: default, date-asc, date-desc)", f.sort)
	}

	return processor.Options{
		Mode:         mode,
		Sort:         sort,
		Rounding:     roundMinutes > 0,
		RoundMinutes: roundMinutes,
		Now:          now,
		Location:     time.Local,
	}, nil
}

// filterFlags binds the entry predicates of the list command.
type filterFlags struct {
	project  string
	tag      string
	client   int64
	billable bool
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "only entries of this project (id or name)")
	cmd.Flags().StringVarP(&f.tag, "tag", "t", "", "only entries carrying this tag")
	cmd.Flags().Int64Var(&f.client, "client", 0, "only entries whose project belongs to this client id")
	cmd.Flags().BoolVar(&f.billable, "billable", false, "only billable entries (--billable=false for non-billable)")
}

// filter builds an EntryFilter. Flags left unset impose no constraint.
func (f filterFlags) filter(cmd *cobra.Command, projects []model.Project) (model.EntryFilter, error) {
	var out model.EntryFilter

	if f.project != "" {
		id, err := lookupProject(f.project, projects)
		if err != nil {
			return out, err
		}
		out.ProjectID = &id
	}
	if f.tag != "" {
		tag := f.tag
		out.Tag = &tag
	}
	if cmd.Flags().Changed("client") {
		client := f.client
		out.ClientID = &client
	}
	if cmd.Flags().Changed("billable") {
		billable := f.billable
		out.Billable = &billable
	}
	return out, nil
}

// lookupProject resolves a numeric id or a case-insensitive project name.
func lookupProject(s string, projects []model.Project) (int64, error) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	var matches []model.Project
	for _, p := range projects {
		if strings.EqualFold(p.Name, s) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return 0, fmt.Errorf("no cached project named %q: run sync or pass the project id", s)
	case 1:
		return matches[0].ID, nil
	default:
		return 0, fmt.Errorf("%d projects are named %q: pass the project id", len(matches), s)
	}
}

func newListCommand(r *runner) *cobra.Command {
	var (
		rf      rangeFlags
		vf      viewFlags
		ff      filterFlags
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List time entries",
		Long: `List time entries in a date range.
Entries are pulled from Toggl first unless --offline is given; when the
service cannot be reached the cached entries are shown instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			rng, err := rf.resolve(now, r.cfg.DefaultRangeDays)
			if err != nil {
				return err
			}
			opts, err := vf.options(r.cfg.RoundMinutes, now)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), r.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if !offline {
				if err := pullForRead(cmd.Context(), a, rng); err != nil {
					return err
				}
			}

			projects, err := call(cmd.Context(), a, a.svc.LoadProjects)
			if err != nil {
				return err
			}
			f, err := ff.filter(cmd, projects)
			if err != nil {
				return err
			}
			entries, err := call(cmd.Context(), a, func(ctx context.Context) ([]model.Entry, error) {
				return a.svc.LoadEntries(ctx, rng, f)
			})
			if err != nil {
				return err
			}

			writeList(cmd.OutOrStdout(), entries, projects, opts)
			return nil
		},
	}
	rf.bind(cmd)
	vf.bind(cmd)
	ff.bind(cmd)
	cmd.Flags().BoolVar(&offline, "offline", false, "read the local cache only")
	return cmd
}

// pullForRead refreshes the cache before a read. Only authentication
// failures abort; anything else falls back to cached data.
func pullForRead(ctx context.Context, a *app, rng model.DateRange) error {
	_, err := call(ctx, a, func(ctx context.Context) (int, error) {
		res, err := a.svc.BulkPull(ctx, rng)
		return res.Entries, err
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, driven.ErrAuth), errors.Is(err, driven.ErrNoClient):
		return err
	default:
		slog.Warn("sync failed, showing cached entries", "error", err)
		return nil
	}
}

const descWidth = 60

func writeList(w io.Writer, entries []model.Entry, projects []model.Project, opts processor.Options) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No time entries found in range.")
		return
	}

	index := processor.IndexProjects(projects)
	rows := processor.Build(entries, opts)

	if opts.Mode.Grouped() {
		fmt.Fprintf(w, "Grouped Time Entries (%d groups):\n", len(rows))
		header := runewidth.FillRight("Description", descWidth) + " " + runewidth.FillRight("Project", 20) + " " +
			fmt.Sprintf("%10s %8s", "Duration", "Entries")
		if opts.Mode == processor.ViewGroupedByDay {
			header = runewidth.FillRight("Date", 11) + header
		}
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, strings.Repeat("-", runewidth.StringWidth(header)))

		for _, row := range rows {
			line := cell(row.Description(), descWidth) + " " + cell(index.Name(row.ProjectID()), 20) + " " +
				fmt.Sprintf("%10s %8d", processor.FormatHours(row.Seconds), len(row.Group.Entries))
			if opts.Mode == processor.ViewGroupedByDay {
				line = runewidth.FillRight(row.Group.Day.Format(time.DateOnly), 11) + line
			}
			fmt.Fprintln(w, line)
		}
	} else {
		fmt.Fprintf(w, "Time Entries (%d):\n", len(rows))
		header := runewidth.FillRight("Date", 17) + " " + runewidth.FillRight("Description", descWidth) + " " +
			runewidth.FillRight("Project", 20) + " " + fmt.Sprintf("%10s", "Duration")
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, strings.Repeat("-", runewidth.StringWidth(header)))

		for _, row := range rows {
			hours := processor.FormatHours(row.Seconds)
			if row.Entry.IsRunning() {
				hours = "* " + hours
			}
			fmt.Fprintln(w, runewidth.FillRight(row.Entry.Start.In(opts.Location).Format("2006-01-02 15:04"), 17)+" "+
				cell(row.Description(), descWidth)+" "+cell(index.Name(row.ProjectID()), 20)+" "+
				fmt.Sprintf("%10s", hours))
		}
	}

	s := processor.Summarize(entries, opts.Now)
	fmt.Fprintf(w, "\nTotal %s (billable %s, non-billable %s)\n",
		processor.FormatHours(s.Total), processor.FormatHours(s.Billable), processor.FormatHours(s.NonBillable))
}

// cell truncates s to width cells and pads it on the right.
func cell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
