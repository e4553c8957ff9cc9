package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	githubadapter "github.com/ericfisherdev/timeguru/internal/adapter/driven/github"
	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

// newReleaseChecker is replaced in tests.
var newReleaseChecker = func() driven.ReleaseChecker {
	return githubadapter.NewReleaseChecker("ericfisherdev", "timeguru")
}

func newVersionCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Printf("timeguru %s\n", Version)
			if !check {
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			rel, err := newReleaseChecker().LatestRelease(ctx)
			if err != nil {
				return err
			}
			if sameVersion(rel.Tag, Version) {
				cmd.Println("You are running the latest release.")
				return nil
			}
			cmd.Printf("Latest release: %s\n%s\n", rel.Tag, rel.URL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}

func sameVersion(a, b string) bool {
	return strings.TrimPrefix(a, "v") == strings.TrimPrefix(b, "v")
}
