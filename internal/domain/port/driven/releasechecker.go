package driven

import "context"

// Release describes a published version of this program.
type Release struct {
	Tag string
	URL string
}

// ReleaseChecker defines the driven port for looking up the latest release.
type ReleaseChecker interface {
	LatestRelease(ctx context.Context) (Release, error)
}
