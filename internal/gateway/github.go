// Package gateway provides a gateway to the GitHub events API,
// abstracting away the underlying REST client and its transports.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/jferrl/go-githubauth"
	"github.com/naka-gawa/repo-event-stats/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

// acceptHeader pins the REST API version.
const acceptHeader = "application/vnd.github.v3+json"

// EventFetcher defines the behavior of a gateway for fetching repository events.
type EventFetcher interface {
	FetchEvents(ctx context.Context, repo domain.RepositoryRef) ([]domain.Event, error)
}

// Options configures the HTTP client behind a GitHubGateway.
// The zero value issues unauthenticated requests against api.github.com
// with no timeout and no rate limiting.
type Options struct {
	// BaseURL overrides the REST endpoint, e.g. for GitHub Enterprise.
	BaseURL string
	// Token is a personal access token sent as a bearer token.
	Token string

	// GitHub App installation credentials. They take precedence over Token.
	AppClientID       string
	AppPrivateKey     []byte
	AppInstallationID int64

	Timeout time.Duration
	// RequestsPerMinute enables a client-side limiter when positive.
	RequestsPerMinute int
	// WaitOnSecondaryRateLimit sleeps through GitHub's secondary rate limit
	// instead of failing the request.
	WaitOnSecondaryRateLimit bool
}

// GitHubGateway is the concrete implementation of the EventFetcher interface.
type GitHubGateway struct {
	restClient *github.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger *log.Logger) (*GitHubGateway, error) {
	transport, err := newTransport(opts)
	if err != nil {
		return nil, err
	}
	restClient := github.NewClient(&http.Client{Transport: transport, Timeout: opts.Timeout})
	if opts.BaseURL != "" {
		baseURL, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL: %w", err)
		}
		if !strings.HasSuffix(baseURL.Path, "/") {
			baseURL.Path += "/"
		}
		restClient.BaseURL = baseURL
	}

	g := &GitHubGateway{restClient: restClient, logger: logger}
	if opts.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), opts.RequestsPerMinute)
	}
	return g, nil
}

func newTransport(opts Options) (http.RoundTripper, error) {
	var base http.RoundTripper = http.DefaultTransport
	if opts.WaitOnSecondaryRateLimit {
		rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(base, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
		}
		base = rateLimitWaiter
	}

	switch {
	case opts.AppClientID != "":
		appTokenSource, err := githubauth.NewApplicationTokenSource(opts.AppClientID, opts.AppPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create app token source: %w", err)
		}
		return &oauth2.Transport{
			Base:   base,
			Source: githubauth.NewInstallationTokenSource(opts.AppInstallationID, appTokenSource),
		}, nil
	case opts.Token != "":
		return &oauth2.Transport{
			Base:   base,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}, nil
	}
	return base, nil
}

// FetchEvents issues a single request for the public events of repo.
// Any non-200 response or transport failure is logged and reported as an
// empty, non-nil event list. A JSON null body yields a nil list.
func (g *GitHubGateway) FetchEvents(ctx context.Context, repo domain.RepositoryRef) ([]domain.Event, error) {
	g.logger.Printf("Fetching events for %s...", repo)
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}

	req, err := g.restClient.NewRequest(http.MethodGet, fmt.Sprintf("repos/%s/%s/events", url.PathEscape(repo.Owner), url.PathEscape(repo.Name)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build events request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)

	var events []domain.Event
	resp, err := g.restClient.Do(ctx, req, &events)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	switch {
	case resp != nil && resp.StatusCode != http.StatusOK:
		g.logger.Printf("Failed to fetch events: %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return []domain.Event{}, nil
	case err != nil && resp != nil:
		return nil, fmt.Errorf("failed to decode events for %s: %w", repo, err)
	case err != nil:
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		g.logger.Printf("Failed to fetch events: %v", err)
		return []domain.Event{}, nil
	}
	g.logger.Printf("Fetched %d events for %s.", len(events), repo)
	return events, nil
}
