package discogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sydlexius/wantsync/internal/provider"
)

const (
	defaultBaseURL   = "https://api.discogs.com"
	defaultUserAgent = "wantsync/1.0 +https://github.com/sydlexius/wantsync"

	searchPageSize = 100
	// DefaultMaxSearchPages bounds how many result pages one search reads.
	DefaultMaxSearchPages = 5
)

// Adapter talks to the Discogs API with a personal access token.
type Adapter struct {
	client    *http.Client
	limiter   *provider.RateLimiterMap
	settings  *provider.SettingsService
	logger    *slog.Logger
	baseURL   string
	userAgent string
	maxPages  int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBaseURL points the adapter at a different API root (for testing).
func WithBaseURL(baseURL string) Option {
	return func(a *Adapter) {
		if baseURL != "" {
			a.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header Discogs requires.
func WithUserAgent(ua string) Option {
	return func(a *Adapter) {
		if ua != "" {
			a.userAgent = ua
		}
	}
}

// WithMaxSearchPages limits how many result pages a search reads.
func WithMaxSearchPages(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxPages = n
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

// New creates a Discogs adapter.
func New(limiter *provider.RateLimiterMap, settings *provider.SettingsService, logger *slog.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   limiter,
		settings:  settings,
		logger:    logger.With(slog.String("provider", "discogs")),
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		maxPages:  DefaultMaxSearchPages,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameDiscogs }

// SearchReleases searches the database for releases by artist and release
// title, optionally restricted to a format. All pages up to the configured
// maximum are read.
func (a *Adapter) SearchReleases(ctx context.Context, artist, title, format string) ([]SearchResult, error) {
	params := url.Values{
		"artist":        {artist},
		"release_title": {title},
		"type":          {"release"},
		"per_page":      {strconv.Itoa(searchPageSize)},
	}
	if format != "" {
		params.Set("format", format)
	}

	var results []SearchResult
	for page := 1; page <= a.maxPages; page++ {
		params.Set("page", strconv.Itoa(page))
		body, err := a.do(ctx, http.MethodGet, "/database/search?"+params.Encode())
		if err != nil {
			return nil, err
		}

		var resp SearchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("parsing search response: %w", err)
		}
		results = append(results, resp.Results...)
		if resp.Pagination.Pages <= page {
			break
		}
	}
	return results, nil
}

// GetRelease fetches a release by its Discogs ID.
func (a *Adapter) GetRelease(ctx context.Context, id string) (*Release, error) {
	body, err := a.do(ctx, http.MethodGet, "/releases/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var rel Release
	if err := json.Unmarshal(body, &rel); err != nil {
		return nil, fmt.Errorf("parsing release response: %w", err)
	}
	return &rel, nil
}

// Identity returns the user the token belongs to.
func (a *Adapter) Identity(ctx context.Context) (*Identity, error) {
	body, err := a.do(ctx, http.MethodGet, "/oauth/identity")
	if err != nil {
		return nil, err
	}
	var ident Identity
	if err := json.Unmarshal(body, &ident); err != nil {
		return nil, fmt.Errorf("parsing identity response: %w", err)
	}
	if ident.Username == "" {
		return nil, errors.New("identity response has no username")
	}
	return &ident, nil
}

// AddWant adds a release to the user's wantlist.
func (a *Adapter) AddWant(ctx context.Context, username, releaseID string) error {
	_, err := a.do(ctx, http.MethodPut, wantPath(username, releaseID))
	return err
}

// RemoveWant removes a release from the user's wantlist.
func (a *Adapter) RemoveWant(ctx context.Context, username, releaseID string) error {
	_, err := a.do(ctx, http.MethodDelete, wantPath(username, releaseID))
	return err
}

// TestConnection verifies the personal access token is valid.
func (a *Adapter) TestConnection(ctx context.Context) error {
	_, err := a.Identity(ctx)
	return err
}

func wantPath(username, releaseID string) string {
	return fmt.Sprintf("/users/%s/wants/%s", url.PathEscape(username), url.PathEscape(releaseID))
}

func (a *Adapter) getToken(ctx context.Context) (string, error) {
	token, err := a.settings.GetAPIKey(ctx, provider.NameDiscogs)
	if err != nil {
		return "", fmt.Errorf("getting API token: %w", err)
	}
	if token == "" {
		return "", &provider.ErrAuthRequired{Provider: provider.NameDiscogs}
	}
	return token, nil
}

// do performs one rate-limited, authenticated request and returns the body
// of a 2xx response.
func (a *Adapter) do(ctx context.Context, method, path string) ([]byte, error) {
	token, err := a.getToken(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.limiter.Wait(ctx, provider.NameDiscogs); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameDiscogs,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	reqURL := a.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Discogs token="+token)
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/vnd.discogs.v2.discogs+json")

	a.logger.Debug("requesting", slog.String("method", method), slog.String("url", reqURL))

	resp, err := a.client.Do(req) //nolint:gosec // URL constructed from trusted base + API params
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameDiscogs,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameDiscogs,
			Cause:    fmt.Errorf("reading response: %w", err),
		}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, &provider.ErrNotFound{Provider: provider.NameDiscogs, ID: path}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &provider.ErrAuthRequired{Provider: provider.NameDiscogs}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &provider.ErrProviderUnavailable{
			Provider:   provider.NameDiscogs,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		return nil, &provider.ErrRequestRejected{
			Provider:   provider.NameDiscogs,
			StatusCode: resp.StatusCode,
			Message:    apiErr.Message,
		}
	default:
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameDiscogs,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
