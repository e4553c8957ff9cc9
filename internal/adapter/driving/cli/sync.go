package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/timeguru/internal/application"
)

type syncOutcome struct {
	result   application.PullResult
	switched bool
}

func newSyncCommand(r *runner) *cobra.Command {
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull time entries and projects into the local cache",
		Long: `Pull time entries and projects into the local cache.
Without --start the last sync_range_days days are pulled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, err := rf.resolve(time.Now(), r.cfg.SyncRangeDays)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), r.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			cmd.Printf("Syncing %s to %s...\n", rng.Start.Format(time.DateOnly), rng.End.Format(time.DateOnly))

			out, err := call(cmd.Context(), a, func(ctx context.Context) (syncOutcome, error) {
				_, switched, err := a.svc.ResolveAccount(ctx)
				if err != nil {
					return syncOutcome{}, err
				}
				res, err := a.svc.BulkPull(ctx, rng)
				return syncOutcome{result: res, switched: switched}, err
			})
			if err != nil {
				return err
			}

			if out.switched {
				cmd.Printf("Account changed to %s. Entries of other accounts stay cached but hidden.\n", out.result.Account.Email)
			}
			cmd.Printf("Synced %d time entries and %d projects for %s\n",
				out.result.Entries, out.result.Projects, out.result.Account.Email)
			return nil
		},
	}
	rf.bind(cmd)
	return cmd
}
