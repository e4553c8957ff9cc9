package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/timeguru/internal/adapter/driving/tui"
)

func newTUICommand(r *runner) *cobra.Command {
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse cached time entries interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runTUI(cmd, rf)
		},
	}
	rf.bind(cmd)
	return cmd
}

// runTUI opens the browser. Logs go to the log file while it runs.
func (r *runner) runTUI(cmd *cobra.Command, rf rangeFlags) error {
	rng, err := rf.resolve(time.Now(), r.cfg.DefaultRangeDays)
	if err != nil {
		return err
	}

	restore, err := r.logToFile()
	if err != nil {
		return err
	}
	defer restore()

	a, err := openApp(cmd.Context(), r.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.refreshAccount(cmd.Context()); err != nil {
		return err
	}

	return tui.Run(cmd.Context(), a.svc, a.sched, tui.Options{
		Range:        rng,
		RoundMinutes: r.cfg.RoundMinutes,
		Rounding:     r.cfg.RoundMinutes > 0,
	})
}
