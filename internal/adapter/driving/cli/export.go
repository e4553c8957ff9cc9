package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/timeguru/internal/adapter/driving/report"
	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

func newExportCommand(r *runner) *cobra.Command {
	var (
		rf       rangeFlags
		vf       viewFlags
		format   string
		output   string
		metadata bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export cached time entries as CSV, JSON or HTML",
		Long: `Export cached time entries. Run sync first to refresh the cache.
Group rows are rounded when round_minutes is set; individual entries never are.`,
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
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), r.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := call(cmd.Context(), a, func(ctx context.Context) (exportData, error) {
				return loadExport(ctx, a, rng)
			})
			if err != nil {
				return err
			}
			if len(data.entries) == 0 {
				cmd.Println("No time entries found for the specified date range.")
				return nil
			}

			rep := report.New(data.entries, data.projects, opts, report.Meta{
				Range:       rng,
				User:        data.account.Email,
				GeneratedAt: now,
			}, metadata)

			if output == "" || output == "-" {
				return report.Write(cmd.OutOrStdout(), f, rep)
			}
			if err := writeFile(output, func(w io.Writer) error { return report.Write(w, f, rep) }); err != nil {
				return err
			}
			cmd.Printf("Exported %d rows to %s\n", len(rep.Lines), output)
			return nil
		},
	}
	rf.bind(cmd)
	vf.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv, json, html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVarP(&metadata, "metadata", "m", false, "include a metadata header")
	return cmd
}

type exportData struct {
	account  model.Account
	entries  []model.Entry
	projects []model.Project
}

func loadExport(ctx context.Context, a *app, rng model.DateRange) (exportData, error) {
	acct, err := a.svc.CurrentAccount(ctx)
	if err != nil {
		return exportData{}, err
	}
	entries, err := a.svc.LoadEntries(ctx, rng, model.EntryFilter{})
	if err != nil {
		return exportData{}, err
	}
	projects, err := a.svc.LoadProjects(ctx)
	if err != nil {
		return exportData{}, err
	}
	return exportData{account: acct, entries: entries, projects: projects}, nil
}

// writeFile renders fn in memory and replaces path atomically, so a failed
// export never leaves a truncated file behind.
func writeFile(path string, fn func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
