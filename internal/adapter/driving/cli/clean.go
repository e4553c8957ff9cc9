package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

// isTerminal reports whether stdin is interactive.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question. Replaced in tests.
var confirm = func(title, description string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&ok).
				Affirmative("Delete").
				Negative("Cancel"),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

type cleanPlan struct {
	scope      model.WipeScope // empty means the cache is left alone
	removeConf bool
}

func newCleanCommand(r *runner) *cobra.Command {
	var entries, data, conf, all, yes bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete cached data and configuration",
		Long: `Delete local data.
  --entries  cached time entries only (projects and accounts are kept)
  --data     every cached row, including accounts and stored tokens
  --settings the configuration file
  --all      both --data and --settings`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var plan cleanPlan
			switch {
			case all || data:
				plan.scope = model.WipeAll
			case entries:
				plan.scope = model.WipeEntries
			}
			plan.removeConf = all || conf

			if plan.scope == "" && !plan.removeConf {
				return errors.New("nothing to delete: pass --entries, --data, --settings or --all")
			}

			cmd.Println("The following will be deleted:")
			switch plan.scope {
			case model.WipeAll:
				cmd.Printf("  Cached data:   %s\n", r.cfg.DBPath)
			case model.WipeEntries:
				cmd.Printf("  Cached entries in %s\n", r.cfg.DBPath)
			}
			if plan.removeConf {
				cmd.Printf("  Configuration: %s\n", r.path())
			}

			if !yes {
				if !isTerminal() {
					return errors.New("refusing to delete without confirmation: pass --yes")
				}
				ok, err := confirm("Delete local data?", "This cannot be undone.")
				if err != nil {
					return err
				}
				if !ok {
					cmd.Println("Aborted.")
					return nil
				}
			}

			return r.clean(cmd, plan)
		},
	}
	cmd.Flags().BoolVar(&entries, "entries", false, "delete cached time entries only")
	cmd.Flags().BoolVar(&data, "data", false, "delete every cached row")
	cmd.Flags().BoolVar(&conf, "settings", false, "delete the configuration file")
	cmd.Flags().BoolVar(&all, "all", false, "delete cached data and configuration")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (r *runner) clean(cmd *cobra.Command, plan cleanPlan) error {
	if plan.scope != "" {
		a, err := openApp(cmd.Context(), r.cfg)
		if err != nil {
			return err
		}
		_, err = call(cmd.Context(), a, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, a.svc.Wipe(ctx, plan.scope)
		})
		a.Close()
		if err != nil {
			return err
		}
		cmd.Println("Deleted cached data.")
	}

	if plan.removeConf {
		err := os.Remove(r.path())
		switch {
		case errors.Is(err, os.ErrNotExist):
			cmd.Println("No configuration file to delete.")
		case err != nil:
			return fmt.Errorf("deleting configuration: %w", err)
		default:
			cmd.Println("Deleted configuration.")
		}
	}
	return nil
}
