package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/processor"
)

func newTrackCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Start, stop or show the running time entry",
	}
	cmd.AddCommand(newTrackStartCommand(r))
	cmd.AddCommand(newTrackStopCommand(r))
	cmd.AddCommand(newTrackCurrentCommand(r))
	return cmd
}

// withRemote opens the app, resolves the account and runs fn on the
// scheduler with a bounded context.
func withRemote[T any](cmd *cobra.Command, r *runner, fn func(ctx context.Context, a *app) (T, error)) (T, error) {
	var zero T

	a, err := openApp(cmd.Context(), r.cfg)
	if err != nil {
		return zero, err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := a.refreshAccount(ctx); err != nil {
		return zero, err
	}
	return call(ctx, a, func(ctx context.Context) (T, error) {
		return fn(ctx, a)
	})
}

func newTrackStartCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "start [description]",
		Short: "Start a new time entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := strings.TrimSpace(strings.Join(args, " "))
			e, err := withRemote(cmd, r, func(ctx context.Context, a *app) (model.Entry, error) {
				return a.svc.StartTracking(ctx, desc)
			})
			if err != nil {
				return err
			}
			cmd.Printf("Started: %s at %s\n",
				processor.DisplayDescription(e.Description), e.Start.In(time.Local).Format("15:04"))
			return nil
		},
	}
}

func newTrackStopCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running time entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := withRemote(cmd, r, func(ctx context.Context, a *app) (model.Entry, error) {
				return a.svc.StopTracking(ctx)
			})
			if err != nil {
				return err
			}
			cmd.Printf("Stopped: %s (%s)\n",
				processor.DisplayDescription(e.Description), processor.FormatDuration(e.ElapsedSeconds(time.Now())))
			return nil
		},
	}
}

func newTrackCurrentCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the running time entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := withRemote(cmd, r, func(ctx context.Context, a *app) (*model.Entry, error) {
				return a.svc.RefreshCurrent(ctx)
			})
			if err != nil {
				return err
			}
			if e == nil {
				cmd.Println("No time entry is running.")
				return nil
			}
			cmd.Printf("Running: %s for %s (since %s)\n",
				processor.DisplayDescription(e.Description),
				processor.FormatDuration(e.ElapsedSeconds(time.Now())),
				e.Start.In(time.Local).Format("15:04"))
			return nil
		},
	}
}
