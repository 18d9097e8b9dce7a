// Package github implements the ReleaseChecker port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// Default repository whose releases are checked.
const (
	DefaultOwner = "shilph"
	DefaultRepo  = "art"
)

// Compile-time interface satisfaction check.
var _ driven.ReleaseChecker = (*Client)(nil)

// Client implements the driven.ReleaseChecker port using the go-github library.
type Client struct {
	gh    *gh.Client
	owner string
	repo  string
}

// NewClient creates an unauthenticated GitHub API client with the following
// transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client)
func NewClient(owner, repo string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	return &Client{
		gh:    gh.NewClient(rateLimitClient),
		owner: owner,
		repo:  repo,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, owner, repo string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client, owner: owner, repo: repo}, nil
}

// LatestRelease returns the newest published, non-prerelease release.
func (c *Client) LatestRelease(ctx context.Context) (*model.Release, error) {
	rel, resp, err := c.gh.Repositories.GetLatestRelease(ctx, c.owner, c.repo)
	if err != nil {
		return nil, fmt.Errorf("getting latest release for %s/%s: %w", c.owner, c.repo, err)
	}

	logRateLimit(resp, c.owner+"/"+c.repo)

	return &model.Release{
		Tag:         rel.GetTagName(),
		Name:        rel.GetName(),
		URL:         rel.GetHTMLURL(),
		PublishedAt: rel.GetPublishedAt().Time,
	}, nil
}

func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 10 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
