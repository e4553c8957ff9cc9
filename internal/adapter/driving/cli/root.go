// Package cli implements the timeguru command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/timeguru/internal/config"
)

// Version is stamped at build time with -ldflags "-X .../cli.Version=v1.2.3".
var Version = "dev"

// runner carries global flags and the loaded configuration to every command.
type runner struct {
	configPath string
	apiToken   string
	verbose    bool

	cfg   config.Config
	level *slog.LevelVar
}

// NewRoot builds the command tree. level is the level of the default logger
// and is adjusted once the configuration is loaded.
func NewRoot(level *slog.LevelVar) *cobra.Command {
	r := &runner{level: level}

	root := &cobra.Command{
		Use:   "timeguru",
		Short: "Browse, group and export Toggl Track time entries from the terminal",
		Long: `timeguru keeps a local cache of your Toggl Track time entries and projects.
Run without a subcommand to open the interactive browser.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return r.load() },
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runTUI(cmd, rangeFlags{})
		},
		Args: cobra.NoArgs,
	}

	root.PersistentFlags().StringVarP(&r.configPath, "config", "c", "", "path to the configuration file")
	root.PersistentFlags().StringVarP(&r.apiToken, "api-token", "a", "", "Toggl API token (overrides TIMEGURU_API_TOKEN)")
	root.PersistentFlags().BoolVarP(&r.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newSyncCommand(r))
	root.AddCommand(newListCommand(r))
	root.AddCommand(newTUICommand(r))
	root.AddCommand(newExportCommand(r))
	root.AddCommand(newCleanCommand(r))
	root.AddCommand(newTrackCommand(r))
	root.AddCommand(newConfigCommand(r))
	root.AddCommand(newVersionCommand())

	return root
}

// path returns the configuration file in use.
func (r *runner) path() string {
	if r.configPath != "" {
		return r.configPath
	}
	return config.ConfigPath()
}

// load reads the configuration and applies global flags.
func (r *runner) load() error {
	var (
		cfg config.Config
		err error
	)
	if r.configPath != "" {
		cfg, err = config.LoadFrom(r.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if r.apiToken != "" {
		cfg.APIToken = r.apiToken
	}
	if r.verbose {
		cfg.LogLevel = "debug"
	}
	r.cfg = cfg
	r.setLevel()
	return nil
}

func (r *runner) setLevel() {
	if r.level != nil {
		r.level.Set(r.cfg.SlogLevel())
	}
}

// logToFile points the default logger at the log file while the terminal UI
// owns stderr. The returned func restores the previous logger.
func (r *runner) logToFile() (func(), error) {
	path := r.cfg.LogFile
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	var level slog.Leveler = r.cfg.SlogLevel()
	if r.level != nil {
		level = r.level
	}

	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return func() {
		slog.SetDefault(prev)
		_ = f.Close()
	}, nil
}
