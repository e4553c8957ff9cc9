package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/timeguru/internal/config"
	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

func newConfigCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}
	cmd.AddCommand(newConfigShowCommand(r))
	cmd.AddCommand(newConfigSetCommand(r))
	cmd.AddCommand(newConfigSetTokenCommand(r))
	cmd.AddCommand(newConfigDeleteTokenCommand(r))
	return cmd
}

func newConfigShowCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(r.cfg)
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}
			cmd.Printf("# %s\n", r.path())
			cmd.Print(string(data))

			token := "not set"
			switch {
			case r.cfg.HasToken():
				token = "from environment (" + mask(r.cfg.APIToken) + ")"
			case r.cfg.SecretKey == "":
				token = "not set (TIMEGURU_SECRET_KEY is required to store one)"
			default:
				stored, err := storedServices(cmd.Context(), r)
				if err != nil {
					return err
				}
				if v, ok := stored[driven.ServiceToggl]; ok {
					token = "stored (" + mask(v) + ")"
				}
			}
			cmd.Printf("api_token: %s\n", token)
			return nil
		},
	}
}

// storedServices returns the stored credentials keyed by service.
func storedServices(ctx context.Context, r *runner) (map[string]string, error) {
	a, err := openApp(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	creds, err := a.creds.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(creds))
	for _, c := range creds {
		out[c.Service] = c.Value
	}
	return out, nil
}

// mask hides all but the last four characters of a secret.
func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", 8) + s[len(s)-4:]
}

func newConfigSetCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration key and save the file",
		Long:  "Set a configuration key and save the file.\nKeys: " + strings.Join(config.Keys(), ", "),
		Args:  cobra.ExactArgs(2),
		// The file is edited as stored, so an invalid file or environment
		// override must not stop it from being fixed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			r.setLevel()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := r.path()
			cfg, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.SaveTo(cfg, path); err != nil {
				return err
			}
			cmd.Printf("%s set to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newConfigSetTokenCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "set-token <token>",
		Short: "Store the Toggl API token, encrypted, in the local cache",
		Long: `Store the Toggl API token in the local cache, sealed with AES-256-GCM.
TIMEGURU_SECRET_KEY (64 hex characters) must be set. TIMEGURU_API_TOKEN,
when set, still takes precedence over the stored token.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(args[0])
			if token == "" {
				return errors.New("token must not be empty")
			}

			a, err := openApp(cmd.Context(), r.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.creds.Set(cmd.Context(), driven.ServiceToggl, token); err != nil {
				return err
			}
			cmd.Println("API token stored. Run sync to load your time entries.")
			return nil
		},
	}
}

func newConfigDeleteTokenCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-token",
		Short: "Remove the stored Toggl API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), r.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.creds.Delete(cmd.Context(), driven.ServiceToggl); err != nil {
				return err
			}
			cmd.Println("API token removed.")
			if os.Getenv("TIMEGURU_API_TOKEN") != "" {
				cmd.Println("TIMEGURU_API_TOKEN is still set in the environment.")
			}
			return nil
		},
	}
}
