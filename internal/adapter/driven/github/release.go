// Package github looks up published releases of this program on GitHub.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReleaseChecker = (*ReleaseChecker)(nil)

// ReleaseChecker reads the latest release of owner/repo.
type ReleaseChecker struct {
	gh    *gh.Client
	owner string
	repo  string
}

// NewReleaseChecker creates an unauthenticated checker with the transport stack:
//  1. httpcache (ETag-based conditional requests)
//  2. go-github-ratelimit (sleeps through secondary rate limits)
//  3. go-github
func NewReleaseChecker(owner, repo string) *ReleaseChecker {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	rateLimitClient.Timeout = 10 * time.Second

	return &ReleaseChecker{
		gh:    gh.NewClient(rateLimitClient),
		owner: owner,
		repo:  repo,
	}
}

// NewReleaseCheckerWithHTTPClient points the checker at baseURL. Intended for tests.
func NewReleaseCheckerWithHTTPClient(httpClient *http.Client, baseURL, owner, repo string) (*ReleaseChecker, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &ReleaseChecker{gh: client, owner: owner, repo: repo}, nil
}

// LatestRelease returns the newest published release.
func (c *ReleaseChecker) LatestRelease(ctx context.Context) (driven.Release, error) {
	rel, resp, err := c.gh.Repositories.GetLatestRelease(ctx, c.owner, c.repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return driven.Release{}, fmt.Errorf("latest release of %s/%s: %w", c.owner, c.repo, driven.ErrNotFound)
		}
		return driven.Release{}, fmt.Errorf("latest release of %s/%s: %w", c.owner, c.repo, err)
	}

	if resp != nil {
		slog.Debug("github api call",
			"endpoint", "releases/latest",
			"rate_remaining", resp.Rate.Remaining,
			"rate_limit", resp.Rate.Limit,
		)
	}

	return driven.Release{Tag: rel.GetTagName(), URL: rel.GetHTMLURL()}, nil
}
