// Package openlibrary fetches search results from the Open Library search API.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lepinkainen/olcatalog/internal/cache"
	"github.com/lepinkainen/olcatalog/internal/catalog"
	"github.com/lepinkainen/olcatalog/internal/errors"
	"github.com/lepinkainen/olcatalog/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public Open Library host.
	DefaultBaseURL = catalog.SiteURL
	// DefaultUserAgent identifies the importer to Open Library.
	DefaultUserAgent = "olcatalog/1.0 (+https://github.com/lepinkainen/olcatalog)"
	// DefaultTimeout bounds a single search request.
	DefaultTimeout = 30 * time.Second
	// DefaultRequestsPerSecond keeps the client polite towards the API.
	DefaultRequestsPerSecond = 1.0

	searchPath  = "/search.json"
	limiterName = "openlibrary"
)

// SearchResponse is the subset of search.json the importer cares about. Docs
// stay loosely typed; the normalizer does the validation.
type SearchResponse struct {
	NumFound int                 `json:"numFound"`
	Start    int                 `json:"start"`
	Docs     []catalog.RawRecord `json:"docs"`
}

// Client queries the Open Library search API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	timeout    *time.Duration
	limiter    *ratelimit.Limiter
	cache      *cache.CacheDB
	cacheTTL   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient replaces the default HTTP client. The client is copied, so
// later options never modify the caller's value.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) { c.userAgent = userAgent }
}

// WithTimeout sets the per-request timeout, regardless of option order.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = &timeout }
}

// WithRateLimit limits outgoing requests; zero or negative disables limiting.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *Client) { c.limiter = ratelimit.New(limiterName, requestsPerSecond) }
}

// WithCache serves repeated searches from the SQLite cache for ttl.
func WithCache(db *cache.CacheDB, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = db
		c.cacheTTL = ttl
	}
}

// NewClient creates a client with defaults suitable for the public API.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    ratelimit.New(limiterName, DefaultRequestsPerSecond),
		cacheTTL:   cache.DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	httpClient := *c.httpClient
	if c.timeout != nil {
		httpClient.Timeout = *c.timeout
	}
	c.httpClient = &httpClient
	return c
}

// Search returns the raw documents matching query. Any transport or decoding
// failure is logged and absorbed: the caller gets an empty result instead.
func (c *Client) Search(ctx context.Context, query string, limit int) []catalog.RawRecord {
	resp, err := c.SearchResponse(ctx, query, limit)
	if err != nil {
		slog.Error("API request failed", "query", query, "error", err)
		return []catalog.RawRecord{}
	}
	return resp.Docs
}

// SearchResponse performs the search and reports failures to the caller.
func (c *Client) SearchResponse(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	cacheKey := query + "|" + strconv.Itoa(limit)
	resp, fromCache, err := cache.GetOrFetch(c.cache, cache.SearchCacheTable, cacheKey, c.cacheTTL, func() (*SearchResponse, error) {
		return c.fetch(ctx, query, limit)
	})
	if err != nil {
		return nil, err
	}
	if fromCache {
		slog.Info("Using cached search results", "query", query, "limit", limit, "docs", len(resp.Docs))
	}
	if resp.Docs == nil {
		resp.Docs = []catalog.RawRecord{}
	}
	return resp, nil
}

// SearchURL builds the request URL for a query.
func (c *Client) SearchURL(query string, limit int) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	return c.baseURL + searchPath + "?" + params.Encode()
}

func (c *Client) fetch(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.SearchURL(query, limit)
	slog.Info("GET", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewTransportError(reqURL, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, errors.NewTransportError(reqURL, resp.StatusCode, errors.NewRateLimitError("Open Library rate limit exceeded", retryAfter))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewTransportError(reqURL, resp.StatusCode, nil)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var result SearchResponse
	if err := dec.Decode(&result); err != nil {
		return nil, errors.NewTransportError(reqURL, resp.StatusCode, fmt.Errorf("failed to decode search response: %w", err))
	}

	slog.Debug("Search response decoded", "query", query, "num_found", result.NumFound, "docs", len(result.Docs))
	return &result, nil
}

func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
