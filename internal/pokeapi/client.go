package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pders01/dex/internal/config"
	"github.com/pders01/dex/internal/debuglog"
	"github.com/pders01/dex/internal/validation"
)

// maxBodyBytes bounds a single response; full Pokémon records are large
// but well under this.
const maxBodyBytes = 8 << 20

// ErrNotFound is returned when the remote resource does not exist.
var ErrNotFound = errors.New("resource not found")

// StatusError is a non-404 HTTP failure. These are transient and retryable.
type StatusError struct {
	URL        string
	StatusCode int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d from %s", e.StatusCode, e.URL)
}

// Client talks to the PokéAPI list and detail endpoints. It holds no
// catalog state.
type Client struct {
	client            *http.Client
	baseURL           *url.URL
	userAgent         string
	limiter           *rate.Limiter
	defaultRetryAfter time.Duration
}

// NewClient builds a client from the API section of the config.
func NewClient(cfg *config.Config) (*Client, error) {
	validator := validation.NewBaseURLValidator()
	if cfg.API.AllowPrivateHosts {
		validator = validation.NewPermissiveBaseURLValidator()
	}
	normalized, err := validator.ValidateAndNormalize(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	base, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("parsing API base URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	limit := rate.Inf
	if cfg.API.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.API.RequestsPerSecond)
	}
	burst := cfg.API.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.API.HTTPTimeout,
		},
		baseURL:           base,
		userAgent:         cfg.API.UserAgent,
		limiter:           rate.NewLimiter(limit, burst),
		defaultRetryAfter: cfg.API.DefaultRetryAfter,
	}, nil
}

// List fetches one page of the catalog.
func (c *Client) List(ctx context.Context, limit, offset int) (*ListPage, error) {
	u := c.baseURL.ResolveReference(&url.URL{Path: "pokemon"})
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()

	var page ListPage
	if err := c.getJSON(ctx, u.String(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Pokemon fetches the detail record at locator.
func (c *Client) Pokemon(ctx context.Context, locator string) (*Pokemon, error) {
	var p Pokemon
	if err := c.getJSON(ctx, locator, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PokemonByID fetches the detail record for an identity.
func (c *Client) PokemonByID(ctx context.Context, identity string) (*Pokemon, error) {
	return c.Pokemon(ctx, c.PokemonURL(identity))
}

// PokemonURL is the canonical locator for an identity.
func (c *Client) PokemonURL(identity string) string {
	return c.baseURL.ResolveReference(&url.URL{Path: "pokemon/" + url.PathEscape(identity) + "/"}).String()
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		debuglog.Warnf("GET %s failed: %v", rawURL, err)
		return fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	debuglog.WithFields(map[string]interface{}{
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debugf("GET %s", rawURL)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", rawURL, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{URL: rawURL, StatusCode: resp.StatusCode, RetryAfter: c.retryAfter(resp)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", rawURL, err)
	}
	return nil
}

// retryAfter reads Retry-After in seconds, falling back to the configured
// default for throttling responses.
func (c *Client) retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		return c.defaultRetryAfter
	}
	return 0
}

// IsNotFound reports whether err means the resource is absent rather than
// unreachable.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
