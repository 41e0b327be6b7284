// Package catalog is a rate-limited client for the Google Books volumes API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"booktracker/internal/config"
)

const (
	defaultLimit = 20
	maxLimit     = 40

	// Upstream bodies are small JSON documents; anything larger is a broken response.
	maxBodyBytes = 4 << 20
)

// Catalog is the search surface the book service depends on.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]Volume, error)
	Volume(ctx context.Context, id string) (*Volume, error)
}

// Client is a rate-limited Google Books API client.
type Client struct {
	http     *http.Client
	baseURL  *url.URL
	apiKey   string
	limiter  *rate.Limiter
	logger   *slog.Logger
	requests *prometheus.CounterVec
}

var _ Catalog = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRequestCounter records one increment per upstream call labelled by outcome.
func WithRequestCounter(cv *prometheus.CounterVec) Option {
	return func(c *Client) { c.requests = cv }
}

// New creates a catalog client from configuration.
func New(cfg config.CatalogConfig, logger *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("catalog base url must be absolute: %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	c := &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: base,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search runs a keyword query and returns at most limit volumes.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Volume, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("printType", "books")

	var resp volumesResponse
	if err := c.get(ctx, "/volumes", params, &resp); err != nil {
		return nil, err
	}

	out := make([]Volume, 0, len(resp.Items))
	for _, it := range resp.Items {
		out = append(out, it.toVolume())
	}
	return out, nil
}

// Volume fetches a single volume by its catalog id.
func (c *Client) Volume(ctx context.Context, id string) (*Volume, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	var item volumeItem
	if err := c.get(ctx, "/volumes/"+url.PathEscape(id), url.Values{}, &item); err != nil {
		return nil, err
	}
	v := item.toVolume()
	return &v, nil
}

// get executes a rate-limited GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		c.observe("rate_limited")
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "booktracker/1.0")

	c.logger.Debug("catalog request", slog.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		c.observe("error")
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.observe("error")
		return fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		c.observe("not_found")
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		c.observe("rate_limited")
		return ErrRateLimited
	default:
		c.observe("error")
		c.logger.Warn("catalog unexpected status",
			slog.Int("status", resp.StatusCode),
			slog.String("path", path))
		return fmt.Errorf("%w: unexpected status %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.observe("error")
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	c.observe("ok")
	return nil
}

func (c *Client) observe(outcome string) {
	if c.requests != nil {
		c.requests.WithLabelValues(outcome).Inc()
	}
}
